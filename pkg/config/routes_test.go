package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseRoutes_JSONVerbatim(t *testing.T) {
	doc := `{"routes":[{"path":"/api/v1/status","response":{"data": {"status":"all_good"}}}]}`

	entries, err := ParseRoutes([]byte(doc), FormatJSON)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/v1/status", entries[0].Path)
	assert.Equal(t, `{"data": {"status":"all_good"}}`, string(entries[0].Response))
}

func TestParseRoutes_YAML(t *testing.T) {
	doc := `
routes:
  - path: /api/v1/status
    response:
      data:
        status: all_good
  - path: /list
    response: [1, 2, 3]
`
	entries, err := ParseRoutes([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.JSONEq(t, `{"data":{"status":"all_good"}}`, string(entries[0].Response))
	assert.JSONEq(t, `[1,2,3]`, string(entries[1].Response))
}

func TestParseRoutes_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing routes", `{}`},
		{"path without slash", `{"routes":[{"path":"status","response":1}]}`},
		{"missing response", `{"routes":[{"path":"/a"}]}`},
		{"unknown field", `{"routes":[{"path":"/a","response":1,"method":"GET"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoutes([]byte(tt.doc), FormatJSON)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Errors)
		})
	}
}

func TestParseRoutes_Malformed(t *testing.T) {
	_, err := ParseRoutes([]byte(`{"routes":`), FormatJSON)
	require.Error(t, err)

	_, err = ParseRoutes([]byte("routes: [\n"), FormatYAML)
	require.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("a/routes.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("ROUTES.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("routes.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("routes.yml"))
}

func TestLoadRoutes_Globs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "routes:\n  - path: /b\n    response: 2\n")
	writeFile(t, dir, "a.json", `{"routes":[{"path":"/a","response":1}]}`)
	writeFile(t, dir, "nested/deep/c.yaml", "routes:\n  - path: /c\n    response: 3\n")

	entries, err := LoadRoutes(filepath.Join(dir, "*.*"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/a", entries[0].Path)
	assert.Equal(t, "/b", entries[1].Path)

	entries, err = LoadRoutes(filepath.Join(dir, "**", "*.yaml"))
	require.NoError(t, err)
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.ElementsMatch(t, []string{"/b", "/c"}, paths)
}

func TestLoadRoutes_Dedup(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.json", `{"routes":[{"path":"/a","response":1}]}`)

	files, err := ExpandRoutesPatterns(p, filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{p}, files)
}

func TestLoadRoutes_NoMatch(t *testing.T) {
	_, err := LoadRoutes(filepath.Join(t.TempDir(), "*.yaml"))
	require.ErrorIs(t, err, ErrNoRoutesFiles)

	_, err = LoadRoutes(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRoutesFile_ValidationNamesFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "bad.json", `{"routes":[{"path":"nope","response":1}]}`)

	_, err := LoadRoutesFile(p)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, p, verr.File)
	assert.Contains(t, err.Error(), p)
}

func TestWriteRoutesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "routes.json")
	in := []RouteEntry{
		{Path: "/a", Response: []byte(`{"x":1}`)},
		{Path: "/b", Response: []byte(`"text"`)},
	}
	require.NoError(t, WriteRoutesFile(p, in))

	_, err := os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))

	out, err := LoadRoutesFile(p)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "/a", out[0].Path)
	assert.JSONEq(t, `{"x":1}`, string(out[0].Response))
	assert.JSONEq(t, `"text"`, string(out[1].Response))
}

func TestWriteRoutesFile_KeepsBytes(t *testing.T) {
	p := filepath.Join(t.TempDir(), "routes.json")
	body := `{ "data" : { "status": "all_good" } }`
	require.NoError(t, WriteRoutesFile(p, []RouteEntry{{Path: "/s", Response: []byte(body)}}))

	out, err := LoadRoutesFile(p)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, body, string(out[0].Response))
}

func TestWriteRoutesFile_InvalidResponse(t *testing.T) {
	p := filepath.Join(t.TempDir(), "routes.json")
	err := WriteRoutesFile(p, []RouteEntry{{Path: "/s", Response: []byte(`{`)}})
	require.Error(t, err)
	_, statErr := os.Stat(p)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteRoutesFile_Empty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "routes.json")
	require.NoError(t, WriteRoutesFile(p, nil))

	out, err := LoadRoutesFile(p)
	require.NoError(t, err)
	assert.Empty(t, out)
}
