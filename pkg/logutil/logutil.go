// Package logutil provides the zap logger constructors shared by the CLI
// and server entry points.
package logutil

import "go.uber.org/zap"

// New returns a zap logger. Debug mode uses the development config
// (human-readable, debug level); otherwise the production config (JSON,
// info level).
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
