package book

import (
	"path/filepath"
	"sort"
	"strings"
)

// Parser turns the raw bytes of one container format into a Book.
type Parser interface {
	CanParse(name string) bool
	Parse(data []byte) (*Book, error)
}

// Registry maps lower-case file extensions (with leading dot) to parsers.
// New formats are added with Register; dispatch never changes.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register associates the given extensions with p. Later registrations win.
func (r *Registry) Register(p Parser, exts ...string) {
	for _, ext := range exts {
		r.parsers[normalizeExt(ext)] = p
	}
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Lookup returns the parser for name's extension.
func (r *Registry) Lookup(name string) (Parser, error) {
	ext := normalizeExt(filepath.Ext(name))
	if p, ok := r.parsers[ext]; ok && p.CanParse(name) {
		return p, nil
	}
	return nil, &UnsupportedFormatError{Name: name, Accepted: r.Extensions()}
}

// Parse selects a parser by extension and parses data. Unrecognized
// extensions are rejected before any parsing is attempted.
func (r *Registry) Parse(name string, data []byte) (*Book, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}

// HasExtension reports whether name ends in one of exts, case-insensitively.
func HasExtension(name string, exts ...string) bool {
	ext := normalizeExt(filepath.Ext(name))
	for _, e := range exts {
		if normalizeExt(e) == ext {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
