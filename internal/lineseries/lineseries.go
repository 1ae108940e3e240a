// Package lineseries implements the named, ordered bundle of LineBuffers
// that is the columnar record shared by feeds, indicators, observers, and
// strategies.
//
// The source project builds this schema through a metaclass that merges
// "lines" tuples across the inheritance chain at class-definition time.
// Here the schema is an explicit, static Schema value built once at
// package init (see feed.Schema, for instance) and walked by New
// — no reflection, no inheritance-time codegen.
package lineseries

import "github.com/gobacktest/core/internal/linebuffer"

// Schema fixes a LineSeries' column names and their order. The zero-based
// position in Names is the line's stable index.
type Schema struct {
	Names []string
}

// Extend returns a new schema with extra lines appended, used by subtypes
// that add indicator-specific outputs after the base OHLCV columns.
func (s Schema) Extend(names ...string) Schema {
	out := Schema{Names: make([]string, 0, len(s.Names)+len(names))}
	out.Names = append(out.Names, s.Names...)
	out.Names = append(out.Names, names...)
	return out
}

// Index returns the stable index of name, and whether it was found.
func (s Schema) Index(name string) (int, bool) {
	for i, n := range s.Names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Series is an insertion-ordered collection of LineBuffers with a schema
// fixed at construction.
type Series struct {
	schema Schema
	lines  []*linebuffer.Buffer
	byName map[string]int
}

// New builds a Series from schema, allocating one fresh LineBuffer per
// column.
func New(schema Schema) *Series {
	s := &Series{
		schema: schema,
		lines:  make([]*linebuffer.Buffer, len(schema.Names)),
		byName: make(map[string]int, len(schema.Names)),
	}
	for i, name := range schema.Names {
		s.lines[i] = linebuffer.New(name)
		s.byName[name] = i
	}
	return s
}

// Schema returns the series' fixed column schema.
func (s *Series) Schema() Schema { return s.schema }

// Line returns the buffer at a stable index.
func (s *Series) Line(i int) *linebuffer.Buffer { return s.lines[i] }

// LineByName returns the buffer aliased to name, or nil if unknown.
func (s *Series) LineByName(name string) *linebuffer.Buffer {
	i, ok := s.byName[name]
	if !ok {
		return nil
	}
	return s.lines[i]
}

// NumLines returns how many columns this series has.
func (s *Series) NumLines() int { return len(s.lines) }

// Lines returns every buffer, in schema order.
func (s *Series) Lines() []*linebuffer.Buffer { return s.lines }

// Len returns the length of line 0 — by convention every line in a series
// advances in lockstep, so line 0 speaks for the whole record.
func (s *Series) Len() int {
	if len(s.lines) == 0 {
		return 0
	}
	return s.lines[0].Len()
}

// Forward advances every line by size slots.
func (s *Series) Forward(v float64, size int) {
	for _, l := range s.lines {
		l.Forward(v, size)
	}
}

// Backward retreats every line by size slots.
func (s *Series) Backward(size int, force bool) {
	for _, l := range s.lines {
		l.Backward(size, force)
	}
}

// Rewind moves every line's cursor back without touching backing storage.
func (s *Series) Rewind(size int) {
	for _, l := range s.lines {
		l.Rewind(size)
	}
}

// Advance moves every line's cursor forward without touching backing storage.
func (s *Series) Advance(size int) {
	for _, l := range s.lines {
		l.Advance(size)
	}
}

// Home rewinds every line's cursor to the start.
func (s *Series) Home() {
	for _, l := range s.lines {
		l.Home()
	}
}

// Reset clears every line's backing storage and counters.
func (s *Series) Reset() {
	for _, l := range s.lines {
		l.Reset()
	}
}

// Qbuffer switches every line into Bounded mode with the given extra size.
func (s *Series) Qbuffer(extraSize int) {
	for _, l := range s.lines {
		l.Qbuffer(extraSize)
	}
}
