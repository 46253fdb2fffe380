package generator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is the on-disk encoding of a dataset file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension; anything other
// than .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WriteDataset serializes the dataset to path, creating parent directories.
func WriteDataset(dataset Dataset, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodeDataset(file, dataset, FormatForPath(path)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// EncodeDataset writes dataset to w in the given format.
func EncodeDataset(w io.Writer, dataset Dataset, format Format) error {
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(dataset); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return encoder.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(dataset); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// ReadDataset loads a dataset previously written by WriteDataset.
func ReadDataset(path string) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	dataset, err := DecodeDataset(file, FormatForPath(path))
	if err != nil {
		return Dataset{}, fmt.Errorf("read %s: %w", path, err)
	}
	return dataset, nil
}

// DecodeDataset parses a dataset from r in the given format.
func DecodeDataset(r io.Reader, format Format) (Dataset, error) {
	var dataset Dataset
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&dataset); err != nil && err != io.EOF {
			return Dataset{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&dataset); err != nil && err != io.EOF {
			return Dataset{}, fmt.Errorf("decode json: %w", err)
		}
	}
	return dataset, nil
}
