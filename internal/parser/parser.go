package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/semscout/semscout/pkg/types"
)

// Parser turns one file's content into an ordered chunk sequence.
type Parser interface {
	Parse(filePath string, content []byte) ([]types.Chunk, error)
}

// Heuristic is the default line-oriented parser.
type Heuristic struct{}

// NewHeuristic creates the default parser.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// LanguageForPath maps a file extension to the language tag recorded on its
// chunks. Unknown extensions map to "text".
func LanguageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".py":
		return "python"
	default:
		return "text"
	}
}

// Parse scans content for top-level declarations and spans each chunk from
// its declaration line to the line before the next one. Content that cannot
// be decoded as UTF-8 text is a parse error; anything else degrades to
// fewer or zero chunks.
func (h *Heuristic) Parse(filePath string, content []byte) ([]types.Chunk, error) {
	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return nil, fmt.Errorf("%w: %s: content is not valid UTF-8 text", types.ErrParse, filePath)
	}

	lang := LanguageForPath(filePath)
	lines := strings.Split(string(content), "\n")
	decls := findDeclarations(lang, lines)

	ids := newIDAllocator(filePath)
	var chunks []types.Chunk

	// Leading region before the first declaration becomes a module chunk;
	// with no declarations at all the whole file is the module chunk.
	moduleEnd := len(lines) - 1
	if len(decls) > 0 {
		moduleEnd = decls[0].line - 1
	}
	if mod, ok := buildChunk(filePath, lang, types.ChunkModule, moduleName(filePath), "", lines, 0, moduleEnd); ok {
		mod.ID = ids.next(types.ChunkModule, mod.Name)
		chunks = append(chunks, mod)
	}

	for i, d := range decls {
		end := len(lines) - 1
		if i+1 < len(decls) {
			end = decls[i+1].line - 1
		}
		c, ok := buildChunk(filePath, lang, d.kind, d.name, strings.TrimSpace(lines[d.line]), lines, d.line, end)
		if !ok {
			continue
		}
		c.ID = ids.next(d.kind, d.name)
		chunks = append(chunks, c)
	}
	return chunks, nil
}

type declaration struct {
	line int
	kind types.ChunkKind
	name string
}

type declPattern struct {
	re   *regexp.Regexp
	kind types.ChunkKind
}

var (
	goPatterns = []declPattern{
		{regexp.MustCompile(`^func\s+\([^)]*\)\s*([A-Za-z_]\w*)`), types.ChunkMethod},
		{regexp.MustCompile(`^func\s+([A-Za-z_]\w*)`), types.ChunkFunction},
		{regexp.MustCompile(`^type\s+([A-Za-z_]\w*)`), types.ChunkClass},
	}
	pyPatterns = []declPattern{
		{regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)`), types.ChunkFunction},
		{regexp.MustCompile(`^class\s+([A-Za-z_]\w*)`), types.ChunkClass},
	}
	jsPatterns = []declPattern{
		{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`), types.ChunkClass},
		{regexp.MustCompile(`^(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`), types.ChunkClass},
		{regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`), types.ChunkFunction},
		{regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*=>`), types.ChunkFunction},
	}
)

func patternsFor(lang string) []declPattern {
	switch lang {
	case "go":
		return goPatterns
	case "python":
		return pyPatterns
	case "javascript", "typescript":
		return jsPatterns
	default:
		return nil
	}
}

func findDeclarations(lang string, lines []string) []declaration {
	patterns := patternsFor(lang)
	var decls []declaration
	for i, line := range lines {
		for _, p := range patterns {
			if m := p.re.FindStringSubmatch(line); m != nil {
				decls = append(decls, declaration{line: i, kind: p.kind, name: m[1]})
				break
			}
		}
	}
	return decls
}

// buildChunk assembles a chunk spanning [start, end], trimming trailing
// blank lines. Returns false when the span holds no non-blank content.
func buildChunk(filePath, lang string, kind types.ChunkKind, name, signature string, lines []string, start, end int) (types.Chunk, bool) {
	for end >= start && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < start {
		return types.Chunk{}, false
	}
	blank := true
	for i := start; i <= end; i++ {
		if strings.TrimSpace(lines[i]) != "" {
			blank = false
			break
		}
	}
	if blank {
		return types.Chunk{}, false
	}
	content := strings.Join(lines[start:end+1], "\n")
	return types.Chunk{
		FilePath:    filePath,
		Language:    lang,
		Kind:        kind,
		Name:        name,
		StartLine:   start,
		EndLine:     end,
		Signature:   signature,
		Content:     content,
		ContentHash: types.HashContent(content),
	}, true
}

func moduleName(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// idAllocator hands out deterministic chunk IDs, disambiguating repeated
// (kind, name) pairs by source-order ordinal.
type idAllocator struct {
	filePath string
	seen     map[string]int
}

func newIDAllocator(filePath string) *idAllocator {
	return &idAllocator{filePath: filePath, seen: make(map[string]int)}
}

func (a *idAllocator) next(kind types.ChunkKind, name string) string {
	key := string(kind) + ":" + name
	ordinal := a.seen[key]
	a.seen[key] = ordinal + 1
	return types.ChunkID(a.filePath, kind, name, ordinal)
}
