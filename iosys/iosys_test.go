package iosys

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/symbol"
)

func TestFileDriverRoundtrip(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "e.facts")

	symbols := symbol.New()
	sys := New(nil, symbols)
	sys.RegisterSchema("e", Schema{Arity: 2, Columns: []domain.Kind{domain.KindSigned, domain.KindSigned}})

	rows := [][]domain.Value{
		{domain.FromSigned(1), domain.FromSigned(2)},
		{domain.FromSigned(2), domain.FromSigned(3)},
	}
	directives := map[string]string{"IO": "file", "filename": path}
	require.NoError(sys.Write("e", directives, rows))

	got, err := sys.Read("e", directives)
	require.NoError(err)
	require.ElementsMatch(rows, got)
}

func TestFileDriverSymbolColumn(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "score.facts")

	symbols := symbol.New()
	sys := New(nil, symbols)
	sys.RegisterSchema("score", Schema{Arity: 2, Columns: []domain.Kind{domain.KindSymbol, domain.KindSigned}})

	directives := map[string]string{"IO": "file", "filename": path, "delimiter": ","}
	rows := [][]domain.Value{
		{domain.FromSymbol(symbols.Lookup("alice")), domain.FromSigned(10)},
	}
	require.NoError(sys.Write("score", directives, rows))

	got, err := sys.Read("score", directives)
	require.NoError(err)
	require.Len(got, 1)
	require.Equal("alice", symbols.Resolve(domain.ToSymbol(got[0][0])))
	require.Equal(int64(10), domain.ToSigned(got[0][1]))
}

func TestUnknownIOType(t *testing.T) {
	require := require.New(t)
	sys := New(nil, nil)
	sys.RegisterSchema("r", Schema{Arity: 1, Columns: []domain.Kind{domain.KindSigned}})
	_, err := sys.Read("r", map[string]string{"IO": "nonexistent"})
	require.Error(err)
}

func TestMissingSchema(t *testing.T) {
	require := require.New(t)
	sys := New(nil, nil)
	_, err := sys.Read("unregistered", map[string]string{"IO": "file", "filename": "/dev/null"})
	require.Error(err)
}

func TestManifestApply(t *testing.T) {
	require := require.New(t)
	m := &Manifest{Relations: map[string]map[string]string{
		"e": {"filename": "override.facts"},
	}}
	base := map[string]string{"IO": "file", "filename": "orig.facts"}
	merged := m.Apply("e", base)
	require.Equal("override.facts", merged["filename"])
	require.Equal("file", merged["IO"])

	// base untouched
	require.Equal("orig.facts", base["filename"])
}

func TestSymbolTableRoundtrip(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "symtab")

	orig := symbol.New()
	orig.Lookup("alice")
	orig.Lookup("bob")
	require.NoError(WriteSymbolTable(path, orig))

	loaded, err := ReadSymbolTable(path)
	require.NoError(err)
	require.Equal(orig.Len(), loaded.Len())
	require.Equal("alice", loaded.Resolve(0))
	require.Equal("bob", loaded.Resolve(1))
}
