// Package output concatenates encoded instructions into an object buffer.
package output

import (
	"io"
	"sort"
)

// Program is an assembled object. Bytes are laid out in source order with
// no padding between instructions.
type Program struct {
	bytes []byte

	// SourceMap maps the byte offset of every instruction to its 1-based
	// source line.
	SourceMap map[int]int
	// Labels maps label names to byte offsets.
	Labels map[string]int
	// Warnings collects non-fatal diagnostics.
	Warnings []string
}

// Bytes returns the object body.
func (p *Program) Bytes() []byte {
	return p.bytes
}

// Len returns the object length in bytes.
func (p *Program) Len() int {
	return len(p.bytes)
}

// WriteTo writes the object body to w.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.bytes)
	return int64(n), err
}

// Offsets returns the instruction offsets in ascending order.
func (p *Program) Offsets() []int {
	out := make([]int, 0, len(p.SourceMap))
	for off := range p.SourceMap {
		out = append(out, off)
	}
	sort.Ints(out)
	return out
}

// Builder accumulates encoded instructions.
type Builder struct {
	buf       []byte
	sourceMap map[int]int
	labels    map[string]int
	warnings  []string
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		sourceMap: make(map[int]int),
		labels:    make(map[string]int),
	}
}

// Append adds one encoded instruction from the given source line and
// returns the offset it was placed at.
func (b *Builder) Append(encoded []byte, line int) int {
	off := len(b.buf)
	b.buf = append(b.buf, encoded...)
	if line > 0 {
		b.sourceMap[off] = line
	}
	return off
}

// Label records a label's offset.
func (b *Builder) Label(name string, offset int) {
	b.labels[name] = offset
}

// Warn records a warning.
func (b *Builder) Warn(msg string) {
	b.warnings = append(b.warnings, msg)
}

// Len returns the number of bytes appended so far.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Build hands the accumulated bytes over as a Program. The builder must
// not be used afterwards.
func (b *Builder) Build() *Program {
	p := &Program{
		bytes:     b.buf,
		SourceMap: b.sourceMap,
		Labels:    b.labels,
		Warnings:  b.warnings,
	}
	if p.bytes == nil {
		p.bytes = []byte{}
	}
	b.buf, b.sourceMap, b.labels, b.warnings = nil, nil, nil, nil
	return p
}

// Concat joins programs in order into one object. Source map offsets and
// label offsets of later programs are shifted by the bytes before them;
// where two programs define the same label the first one wins.
func Concat(programs ...*Program) *Program {
	b := NewBuilder()
	for _, p := range programs {
		base := b.Len()
		b.buf = append(b.buf, p.bytes...)
		for off, line := range p.SourceMap {
			b.sourceMap[base+off] = line
		}
		for name, off := range p.Labels {
			if _, exists := b.labels[name]; !exists {
				b.labels[name] = base + off
			}
		}
		b.warnings = append(b.warnings, p.Warnings...)
	}
	return b.Build()
}
