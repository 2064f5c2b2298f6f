package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/nngarden/internal/errdefs"
	"gopkg.in/yaml.v3"
)

// Format selects the text encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks YAML for .yaml and .yml paths and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Marshal encodes the document. JSON is indented by four spaces.
func Marshal(d *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("encode yaml document: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml document: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(d, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("encode json document: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}

// Unmarshal decodes and validates a document.
func Unmarshal(data []byte, format Format) (*Document, error) {
	var d Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %w", errdefs.ErrMalformedDocument, err)
		}
	case FormatJSON, "":
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: %w", errdefs.ErrMalformedDocument, err)
		}
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
	if err := Validate(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// WriteFile saves the document to path. The file is written next to its
// destination and renamed into place, so readers never see a partial file.
func WriteFile(path string, d *Document) error {
	data, err := Marshal(d, FormatForPath(path))
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadFile loads and validates the document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	d, err := Unmarshal(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return d, nil
}
