// Package prefs persists the task list's search filter and sort order in a
// small JSON key/value file.
package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"
)

// Keys of the preferences file.
const (
	KeySearchFilter = "taskSearchFilter"
	KeySortConfig   = "taskSortConfig"
)

// ErrMalformed is logged when the file or one of its entries cannot be used.
var ErrMalformed = errors.New("malformed preferences")

// File is a preferences file. Values are kept as raw JSON and validated by
// the typed loaders.
type File struct {
	path   string
	values map[string]json.RawMessage
}

// Open reads the preferences at path. A missing or malformed file yields an
// empty File; only read failures are returned.
func Open(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	// Tolerate comments and trailing commas from hand edits.
	standardized, err := hujson.Standardize(data)
	if err == nil {
		err = json.Unmarshal(standardized, &f.values)
	}
	if err != nil {
		log.Printf("prefs: ignoring %s: %v", path, fmt.Errorf("%w: %v", ErrMalformed, err))
		f.values = make(map[string]json.RawMessage)
	}
	return f, nil
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Get decodes the value of key into v. It reports false when the key is
// missing or does not decode.
func (f *File) Get(key string, v any) bool {
	raw, ok := f.values[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Printf("prefs: ignoring %s: %v", key, fmt.Errorf("%w: %v", ErrMalformed, err))
		return false
	}
	return true
}

// Set stores v under key and writes the file.
func (f *File) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if old, ok := f.values[key]; ok && bytes.Equal(old, raw) {
		return nil
	}
	f.values[key] = raw
	return f.save()
}

// Delete removes key and writes the file.
func (f *File) Delete(key string) error {
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.save()
}

func (f *File) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
