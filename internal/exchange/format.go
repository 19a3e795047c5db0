// Package exchange reads and writes atlas data files.
package exchange

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"historicalmap/internal/model"
)

// Format encodes and decodes a list of yearly entries.
type Format interface {
	Name() string
	// Extension includes the leading dot.
	Extension() string
	Encode(doc Document) ([]byte, error)
	Decode(b []byte) (Document, error)
}

// Document is the content of an exchange file.
type Document struct {
	Author         string       `json:"author,omitempty" bson:"author,omitempty"`
	Date           string       `json:"date,omitempty" bson:"date,omitempty"`
	HistoricalInfo []model.Data `json:"historical_info" bson:"historical_info"`
}

// sorted returns a copy of entries ordered by year.
func sorted(entries []model.Data) []model.Data {
	out := append([]model.Data(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Registry maps format names and file extensions to formats.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
}

func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]Format)}
}

// DefaultRegistry returns a registry holding the json and bson formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(JSON{})
	_ = r.Register(BSON{})
	return r
}

// Register adds f. Names are unique.
func (r *Registry) Register(f Format) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := strings.ToLower(f.Name())
	if _, ok := r.formats[name]; ok {
		return fmt.Errorf("format %q already registered", name)
	}
	r.formats[name] = f
	return nil
}

// Lookup finds a format by name.
func (r *Registry) Lookup(name string) (Format, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[strings.ToLower(name)]
	if !ok {
		return nil, Errorf(CodeFileFormatNotSupport, "format %q is not supported", name)
	}
	return f, nil
}

// ForPath finds a format by the extension of path.
func (r *Registry) ForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.formats {
		if f.Extension() == ext {
			return f, nil
		}
	}
	return nil, Errorf(CodeFileFormatNotSupport, "extension %q is not supported", ext)
}

// Names returns the registered format names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.formats))
	for n := range r.formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
