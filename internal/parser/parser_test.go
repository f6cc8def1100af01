package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semscout/semscout/pkg/types"
)

const goSource = `package auth

import "errors"

func Login(user string) error {
	if user == "" {
		return errors.New("empty user")
	}
	return nil
}

func Logout(user string) error {
	return nil
}

type Session struct {
	User string
}

func (s *Session) Refresh() error {
	return nil
}
`

func TestParseGo(t *testing.T) {
	p := NewHeuristic()
	chunks, err := p.Parse("auth/session.go", []byte(goSource))
	require.NoError(t, err)

	byID := make(map[string]types.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	require.Contains(t, byID, "auth/session.go#module:session")
	require.Contains(t, byID, "auth/session.go#function:Login")
	require.Contains(t, byID, "auth/session.go#function:Logout")
	require.Contains(t, byID, "auth/session.go#class:Session")
	require.Contains(t, byID, "auth/session.go#method:Refresh")

	login := byID["auth/session.go#function:Login"]
	assert.Equal(t, "go", login.Language)
	assert.Equal(t, types.ChunkFunction, login.Kind)
	assert.Equal(t, "Login", login.Name)
	assert.Equal(t, "func Login(user string) error {", login.Signature)
	assert.Contains(t, login.Content, `errors.New("empty user")`)
	assert.NotEmpty(t, login.ContentHash)

	refresh := byID["auth/session.go#method:Refresh"]
	assert.Equal(t, types.ChunkMethod, refresh.Kind, "receiver funcs are methods")

	for _, c := range chunks {
		assert.NoError(t, c.Validate())
	}
}

func TestParsePython(t *testing.T) {
	src := `import os

def load(path):
    return os.path.exists(path)

async def fetch(url):
    return url

class Cache:
    def get(self, key):
        return None
`
	p := NewHeuristic()
	chunks, err := p.Parse("lib/cache.py", []byte(src))
	require.NoError(t, err)

	var names []string
	for _, c := range chunks {
		names = append(names, string(c.Kind)+":"+c.Name)
		assert.Equal(t, "python", c.Language)
	}
	assert.Contains(t, names, "module:cache")
	assert.Contains(t, names, "function:load")
	assert.Contains(t, names, "function:fetch", "async def is a function")
	assert.Contains(t, names, "class:Cache")
}

func TestParseTypeScript(t *testing.T) {
	src := `export interface User {
  id: string
}

export class Repo {
  find(id: string): User | null { return null }
}

export function format(u: User): string {
  return u.id
}

const parse = (raw: string) => JSON.parse(raw)
`
	p := NewHeuristic()
	chunks, err := p.Parse("src/user.ts", []byte(src))
	require.NoError(t, err)

	kinds := make(map[string]types.ChunkKind)
	for _, c := range chunks {
		kinds[c.Name] = c.Kind
		assert.Equal(t, "typescript", c.Language)
	}
	assert.Equal(t, types.ChunkClass, kinds["User"], "interfaces chunk as classes")
	assert.Equal(t, types.ChunkClass, kinds["Repo"])
	assert.Equal(t, types.ChunkFunction, kinds["format"])
	assert.Equal(t, types.ChunkFunction, kinds["parse"], "arrow consts are functions")
}

func TestParseStableIDsAcrossReparse(t *testing.T) {
	p := NewHeuristic()
	first, err := p.Parse("a.go", []byte(goSource))
	require.NoError(t, err)
	second, err := p.Parse("a.go", []byte(goSource))
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].ContentHash, second[i].ContentHash)
	}
}

func TestParseDuplicateNamesGetOrdinals(t *testing.T) {
	src := `def run():
    return 1

def run():
    return 2
`
	p := NewHeuristic()
	chunks, err := p.Parse("dup.py", []byte(src))
	require.NoError(t, err)

	var ids []string
	for _, c := range chunks {
		if c.Kind == types.ChunkFunction {
			ids = append(ids, c.ID)
		}
	}
	require.Len(t, ids, 2)
	assert.Equal(t, "dup.py#function:run", ids[0])
	assert.Equal(t, "dup.py#function:run#1", ids[1])
}

func TestParseNoDeclarationsYieldsModuleChunk(t *testing.T) {
	src := "# just a script\nprint(42)\n"
	p := NewHeuristic()
	chunks, err := p.Parse("script.py", []byte(src))
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, types.ChunkModule, chunks[0].Kind)
	assert.Equal(t, "script", chunks[0].Name)
}

func TestParseEmptyFile(t *testing.T) {
	p := NewHeuristic()
	chunks, err := p.Parse("empty.go", []byte(""))
	require.NoError(t, err)
	assert.Empty(t, chunks, "a blank file produces no chunks")
}

func TestParseRejectsBinaryContent(t *testing.T) {
	p := NewHeuristic()

	_, err := p.Parse("bad.go", []byte{0xff, 0xfe, 0x00, 0x01})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrParse)

	_, err = p.Parse("nul.go", []byte("package a\x00"))
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestLanguageForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"app.js", "javascript"},
		{"app.jsx", "javascript"},
		{"mod.mjs", "javascript"},
		{"app.ts", "typescript"},
		{"app.tsx", "typescript"},
		{"tool.py", "python"},
		{"notes.txt", "text"},
		{"UPPER.GO", "go"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LanguageForPath(tt.path), tt.path)
	}
}

func TestParseLineSpans(t *testing.T) {
	src := "package a\n\nfunc F() {\n\treturn\n}\n"
	p := NewHeuristic()
	chunks, err := p.Parse("a.go", []byte(src))
	require.NoError(t, err)

	var fn types.Chunk
	for _, c := range chunks {
		if c.Name == "F" {
			fn = c
		}
	}
	require.NotEmpty(t, fn.ID)
	assert.Equal(t, 2, fn.StartLine, "0-based declaration line")
	assert.Equal(t, 4, fn.EndLine, "inclusive end after trailing blanks trimmed")
}
