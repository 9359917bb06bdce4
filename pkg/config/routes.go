package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed routes.schema.json
var routesSchemaJSON []byte

const routesSchemaURL = "routes.schema.json"

// Format is the encoding of a routes file.
type Format string

// Supported routes file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything that is
// not .json is read as YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// RouteEntry is one path and the JSON body served for it.
type RouteEntry struct {
	Path     string          `json:"path"`
	Response json.RawMessage `json:"response"`
}

// RoutesFile is the top-level document of a routes file.
type RoutesFile struct {
	Routes []RouteEntry `json:"routes"`
}

// ErrNoRoutesFiles is returned when the given patterns match no file.
var ErrNoRoutesFiles = errors.New("no routes files matched")

// ValidationError reports a routes document that does not match the schema.
type ValidationError struct {
	File   string
	Errors []string
}

func (e *ValidationError) Error() string {
	prefix := "invalid routes"
	if e.File != "" {
		prefix = "invalid routes file " + e.File
	}
	return prefix + ":\n  " + strings.Join(e.Errors, "\n  ")
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func routesSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(routesSchemaURL, bytes.NewReader(routesSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("adding routes schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(routesSchemaURL)
	})
	return schema, schemaErr
}

// ParseRoutes decodes and validates a routes document.
func ParseRoutes(data []byte, format Format) ([]RouteEntry, error) {
	doc, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	if err := validateDoc(doc); err != nil {
		return nil, err
	}

	var file RoutesFile
	if err := json.Unmarshal(doc, &file); err != nil {
		return nil, fmt.Errorf("decoding routes: %w", err)
	}
	return file.Routes, nil
}

// toJSON normalizes a document to JSON. JSON input is returned unchanged so
// response bytes survive verbatim.
func toJSON(data []byte, format Format) ([]byte, error) {
	if format == FormatJSON {
		if !json.Valid(data) {
			return nil, errors.New("routes document is not valid JSON")
		}
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing YAML routes: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("converting YAML routes to JSON: %w", err)
	}
	return out, nil
}

func validateDoc(doc []byte) error {
	s, err := routesSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decoding routes: %w", err)
	}

	err = s.Validate(v)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	result := &ValidationError{}
	collectSchemaErrors(verr, result)
	return result
}

func collectSchemaErrors(err *jsonschema.ValidationError, result *ValidationError) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, result)
	}
}

// LoadRoutesFile reads, validates and decodes one routes file.
func LoadRoutesFile(path string) ([]RouteEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes file: %w", err)
	}
	entries, err := ParseRoutes(data, FormatFromPath(path))
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.File = path
			return nil, verr
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// LoadRoutes loads every file matched by the given paths or glob patterns,
// in pattern order and lexical order within a pattern.
func LoadRoutes(patterns ...string) ([]RouteEntry, error) {
	files, err := ExpandRoutesPatterns(patterns...)
	if err != nil {
		return nil, err
	}

	var all []RouteEntry
	for _, f := range files {
		entries, err := LoadRoutesFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// ExpandRoutesPatterns resolves paths and globs to a de-duplicated file list.
func ExpandRoutesPatterns(patterns ...string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := expandGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expanding glob pattern %q: %w", pattern, err)
		}
		slices.Sort(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRoutesFiles, strings.Join(patterns, ", "))
	}
	return files, nil
}

// expandGlob uses doublestar for ** support and plain filepath.Glob otherwise.
// A pattern without meta characters must name an existing file.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return doublestar.FilepathGlob(pattern)
	}
	if !strings.ContainsAny(pattern, "*?[") {
		if _, err := os.Stat(pattern); err != nil {
			return nil, err
		}
		return []string{pattern}, nil
	}
	return filepath.Glob(pattern)
}

// WriteRoutesFile writes entries as a JSON routes file. Responses are copied
// verbatim, not re-encoded. The write is atomic: readers see either the old
// file or the complete new one.
func WriteRoutesFile(path string, entries []RouteEntry) error {
	var buf bytes.Buffer
	buf.WriteString("{\"routes\":[")
	for i, e := range entries {
		if !json.Valid(e.Response) {
			return fmt.Errorf("route %s: response is not valid JSON", e.Path)
		}
		p, err := json.Marshal(e.Path)
		if err != nil {
			return fmt.Errorf("failed to marshal route path: %w", err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  {\"path\":")
		buf.Write(p)
		buf.WriteString(",\"response\":")
		buf.Write(e.Response)
		buf.WriteByte('}')
	}
	buf.WriteString("\n]}\n")

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write routes file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename routes file: %w", err)
	}
	return nil
}
