package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompileFiles_ConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeCatalog(t, dir, "a.cue", `type: Tensor: { methods: ["relu"] }`)
	b := writeCatalog(t, dir, "b.cue", `type: Module: { methods: ["forward"] }`)

	specs, err := CompileFiles(b, a)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "Module", specs[0].Name)
	assert.Equal(t, "Tensor", specs[1].Name)
}

func TestCompileFiles_MissingFile(t *testing.T) {
	_, err := CompileFiles(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}

func TestCompileFiles_SyntaxErrorNamesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, "broken.cue", `type: Tensor: { methods: [ }`)

	_, err := CompileFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoadResolved(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, "tensor.cue", `
		type: Tensor: { methods: ["relu", "view"], properties: ["shape"] }
		type: Parameter: { extends: "Tensor", methods: ["requires_grad_"] }
	`)

	specs, err := LoadResolved(path)
	require.NoError(t, err)

	param, ok := Lookup(specs, "Parameter")
	require.True(t, ok)
	assert.Equal(t, []string{"requires_grad_", "relu", "view"}, param.Methods)
	assert.Equal(t, []string{"shape"}, param.Properties)
}

func TestLoadResolved_ReportsValidationErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, "bad.cue", `
		type: Tensor: { methods: ["relu", "getattr"] }
		type: Loop: { extends: "Loop" }
	`)

	_, err := LoadResolved(path)
	require.Error(t, err)

	var catErr *CatalogError
	require.ErrorAs(t, err, &catErr)
	require.Len(t, catErr.Errors, 2)
	assert.Equal(t, ErrReservedProtocol, catErr.Errors[0].Code)
	assert.Equal(t, ErrExtendsCycle, catErr.Errors[1].Code)
	assert.Contains(t, err.Error(), "and 1 more")
}
