// Package embedder defines the embedding provider capability and its two
// implementations: a deterministic hash-based provider used by default and
// in tests, and an OpenAI-backed provider for real deployments. Both sit
// behind the same interface; the core receives a provider by injection and
// never assumes a specific model, only that the dimension is fixed for the
// lifetime of one store.
package embedder
