package collect

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes the entries of a bundle explicitly:
//
//	compress: zstd
//	entries:
//	  - name: data.json
//	    path: build/data.json
//	  - path: img/logo.png
//	    type: png
//	    compress: none
type Manifest struct {
	// Compress is the default codec for entries that do not set one.
	Compress string          `yaml:"compress,omitempty"`
	Entries  []ManifestEntry `yaml:"entries"`

	dir string
}

// ManifestEntry is one manifest line. Path is relative to the manifest file.
// Name defaults to Path.
type ManifestEntry struct {
	Name     string  `yaml:"name,omitempty"`
	Path     string  `yaml:"path"`
	Type     *string `yaml:"type,omitempty"`
	Compress string  `yaml:"compress,omitempty"`
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("collect: %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest parses manifest YAML. Relative entry paths resolve against
// the working directory.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, e := range m.Entries {
		if e.Path == "" {
			return nil, fmt.Errorf("manifest entry %d: path is required", i)
		}
	}
	m.dir = "."
	return &m, nil
}

// Files resolves the manifest into files in manifest order.
func (m *Manifest) Files() ([]File, error) {
	if len(m.Entries) == 0 {
		return nil, ErrNoFiles
	}
	files := make([]File, 0, len(m.Entries))
	for _, e := range m.Entries {
		p := e.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.dir, filepath.FromSlash(p))
		}
		f := File{Name: e.Name, Path: p, Compress: e.Compress}
		if f.Name == "" {
			f.Name = entryName(e.Path)
		}
		if f.Compress == "" {
			f.Compress = m.Compress
		}
		if e.Type != nil {
			f.Type, f.TypeSet = *e.Type, true
		}
		files = append(files, f)
	}
	return files, nil
}
