package gff3

import (
	"fmt"
	"sort"
	"strings"
)

// ParseError reports a line that could not be interpreted. Source and
// Line locate it in the input.
type ParseError struct {
	Source string
	Line   int
	Text   string
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %q", e.Source, e.Line, e.Msg, e.Text)
}

// OrphanError reports Parent or Derives_from references still pending
// at a flush boundary. Refs maps each unresolved target ID to the
// attribute names that referenced it.
type OrphanError struct {
	Refs map[string][]string
}

func (e *OrphanError) Error() string {
	ids := make([]string, 0, len(e.Refs))
	for id := range e.Refs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s (%s)", id, strings.Join(e.Refs[id], ",")))
	}
	return "unresolved references at flush: " + strings.Join(parts, "; ")
}
