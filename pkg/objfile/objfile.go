// Package objfile writes assembled programs and their symbol maps to disk.
package objfile

import (
	"path/filepath"
	"sort"
	"strings"

	"ev3c/pkg/output"

	"github.com/containers/storage/pkg/ioutils"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Write stores the object body at path. The file is replaced atomically so a
// failed run never leaves a partial object behind.
func Write(path string, prog *output.Program) error {
	if err := ioutils.AtomicWriteFile(path, prog.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "writing object %q", path)
	}
	return nil
}

// Symbol is a label and the offset it resolved to.
type Symbol struct {
	Name   string `json:"name" yaml:"name"`
	Offset int    `json:"offset" yaml:"offset"`
}

// LineEntry maps the instruction at Offset to its source line.
type LineEntry struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line" yaml:"line"`
}

// Map is the on-disk form of a program's label table and source map.
type Map struct {
	Size     int         `json:"size" yaml:"size"`
	Labels   []Symbol    `json:"labels" yaml:"labels"`
	Lines    []LineEntry `json:"lines" yaml:"lines"`
	Warnings []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewMap builds a Map with labels sorted by offset then name and lines
// sorted by offset.
func NewMap(prog *output.Program) *Map {
	m := &Map{
		Size:     prog.Len(),
		Labels:   make([]Symbol, 0, len(prog.Labels)),
		Lines:    make([]LineEntry, 0, len(prog.SourceMap)),
		Warnings: prog.Warnings,
	}
	for name, off := range prog.Labels {
		m.Labels = append(m.Labels, Symbol{Name: name, Offset: off})
	}
	sort.Slice(m.Labels, func(i, j int) bool {
		if m.Labels[i].Offset != m.Labels[j].Offset {
			return m.Labels[i].Offset < m.Labels[j].Offset
		}
		return m.Labels[i].Name < m.Labels[j].Name
	})
	for _, off := range prog.Offsets() {
		m.Lines = append(m.Lines, LineEntry{Offset: off, Line: prog.SourceMap[off]})
	}
	return m
}

// IsYAML reports whether path names a YAML map file.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Marshal encodes m as YAML when yamlFormat is set and as indented JSON
// otherwise.
func (m *Map) Marshal(yamlFormat bool) ([]byte, error) {
	if yamlFormat {
		return yaml.Marshal(m)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteMap stores the map of prog at path. The format follows the file
// extension: .yaml or .yml write YAML, anything else writes JSON.
func WriteMap(path string, prog *output.Program) error {
	data, err := NewMap(prog).Marshal(IsYAML(path))
	if err != nil {
		return errors.Wrapf(err, "encoding map %q", path)
	}
	if err := ioutils.AtomicWriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing map %q", path)
	}
	return nil
}

// ReadMap loads a map written by WriteMap.
func ReadMap(data []byte, yamlFormat bool) (*Map, error) {
	var m Map
	var err error
	if yamlFormat {
		err = yaml.Unmarshal(data, &m)
	} else {
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, errors.Wrap(err, "decoding map")
	}
	return &m, nil
}
