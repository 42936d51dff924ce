package model

import (
	"fmt"
	"strings"
)

// SourceInformation locates an element in its source file.
type SourceInformation struct {
	SourceID    string `msgpack:"s" yaml:"file"`
	StartLine   int    `msgpack:"sl" yaml:"startLine"`
	StartColumn int    `msgpack:"sc" yaml:"startColumn"`
	Line        int    `msgpack:"l" yaml:"line"`
	Column      int    `msgpack:"c" yaml:"column"`
	EndLine     int    `msgpack:"el" yaml:"endLine"`
	EndColumn   int    `msgpack:"ec" yaml:"endColumn"`
}

// NewSourceInformation creates source information for a single-position span.
func NewSourceInformation(sourceID string, line, column int) *SourceInformation {
	return &SourceInformation{
		SourceID:    sourceID,
		StartLine:   line,
		StartColumn: column,
		Line:        line,
		Column:      column,
		EndLine:     line,
		EndColumn:   column,
	}
}

// AppendTo writes the location in the form sourceId:startLine:startColumn-endLine:endColumn.
func (s *SourceInformation) AppendTo(b *strings.Builder) {
	if s == nil {
		b.WriteString("<unknown>")
		return
	}
	fmt.Fprintf(b, "%s:%d:%d-%d:%d", s.SourceID, s.StartLine, s.StartColumn, s.EndLine, s.EndColumn)
}

func (s *SourceInformation) String() string {
	var b strings.Builder
	s.AppendTo(&b)
	return b.String()
}

// Equal reports whether two locations are identical. Two nil locations are equal.
func (s *SourceInformation) Equal(other *SourceInformation) bool {
	if s == nil || other == nil {
		return s == other
	}
	return *s == *other
}
