// Package output writes the enriched school array as a self-describing
// artifact and reads it back for use as fallback input.
//
// Two formats are chosen by file extension. ".js" is a script that assigns
// the array to SCHOOLS_DATA and exports it when loaded as a module. ".json"
// is an envelope carrying the same header fields as JSON. Everything except
// the generation timestamp is a pure function of the records, so re-running
// on unchanged input reproduces the file byte for byte apart from that line.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stwalsh4118/schoolter/internal/models"
)

// Formats.
const (
	FormatJS   = ".js"
	FormatJSON = ".json"
)

const (
	jsVariable   = "SCHOOLS_DATA"
	jsAssignment = "const " + jsVariable + " = "
	jsExport     = "if (typeof module !== \"undefined\" && module.exports) {\n  module.exports = " + jsVariable + ";\n}\n"
)

// ErrUnsupportedFormat is returned for a path whose extension is neither
// .js nor .json.
var ErrUnsupportedFormat = errors.New("unsupported artifact format")

// Header describes an artifact. The record count is taken from the
// records themselves.
type Header struct {
	GeneratedAt time.Time
	Sources     models.SourceMix
}

type envelope struct {
	GeneratedAt string           `json:"generatedAt"`
	Count       int              `json:"count"`
	Sources     models.SourceMix `json:"sources"`
	Schools     []*models.School `json:"schools"`
}

// Format returns the artifact format implied by path.
func Format(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case FormatJS, FormatJSON:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Render produces the artifact bytes for the format of path.
func Render(path string, schools []*models.School, h Header) ([]byte, error) {
	format, err := Format(path)
	if err != nil {
		return nil, err
	}
	if schools == nil {
		schools = []*models.School{}
	}
	if h.Sources == nil {
		h.Sources = models.NewSourceMix()
	}
	stamp := h.GeneratedAt.UTC().Format(time.RFC3339)

	var buf bytes.Buffer
	if format == FormatJSON {
		err = encode(&buf, envelope{GeneratedAt: stamp, Count: len(schools), Sources: h.Sources, Schools: schools})
		return buf.Bytes(), err
	}

	fmt.Fprintf(&buf, "// Schoolter school data. Generated file, do not edit.\n")
	fmt.Fprintf(&buf, "// Generated: %s\n", stamp)
	fmt.Fprintf(&buf, "// Records: %d\n", len(schools))
	fmt.Fprintf(&buf, "// Sources: %s\n", h.Sources.Summary())
	buf.WriteString(jsAssignment)
	if err := encode(&buf, schools); err != nil {
		return nil, err
	}
	// encode ends with a newline; the statement terminator goes before it
	buf.Truncate(buf.Len() - 1)
	buf.WriteString(";\n\n")
	buf.WriteString(jsExport)
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v interface{}) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode schools: %w", err)
	}
	return nil
}

// Write renders the artifact and replaces path atomically.
func Write(path string, schools []*models.School, h Header) error {
	data, err := Render(path, schools, h)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".schools-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set artifact permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace artifact: %w", err)
	}
	return nil
}

// Load reads an artifact written by Write.
func Load(path string) ([]*models.School, error) {
	format, err := Format(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	if format == FormatJSON {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return env.Schools, nil
	}

	body, err := scriptArray(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	var schools []*models.School
	if err := json.Unmarshal(body, &schools); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return schools, nil
}

// scriptArray cuts the JSON array out of a .js artifact.
func scriptArray(data []byte) ([]byte, error) {
	start := bytes.Index(data, []byte(jsAssignment))
	if start < 0 {
		return nil, fmt.Errorf("missing %s assignment", jsVariable)
	}
	start += len(jsAssignment)
	end := bytes.LastIndex(data, []byte("];"))
	if end < start {
		return nil, errors.New("unterminated array")
	}
	return data[start : end+1], nil
}
