package legacymap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"lectern/internal/fileutil"
)

// Save writes the artifact atomically as indented JSON.
func Save(path string, result Result) error {
	if result.Mapping == nil {
		result.Mapping = map[string]Mapping{}
	}
	if result.Unmapped == nil {
		result.Unmapped = []Unmapped{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode mapping artifact: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write mapping artifact: %w", err)
	}
	return nil
}

// Load reads an artifact written by Save. A missing file yields an empty
// result and exists=false.
func Load(path string) (result Result, exists bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Mapping: map[string]Mapping{}}, false, nil
		}
		return Result{}, false, fmt.Errorf("read mapping artifact: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, true, fmt.Errorf("decode mapping artifact %s: %w", path, err)
	}
	if result.Mapping == nil {
		result.Mapping = map[string]Mapping{}
	}
	return result, true, nil
}
