// Package gff3 implements a streaming parser for the Generic Feature
// Format version 3: feature lines are grouped into logical features,
// parent/child and derivation links are resolved across any line order,
// and completed subtrees flush eagerly at synchronization boundaries.
package gff3

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parser reads one or more GFF3 inputs and yields Items on demand.
// It is a single-threaded pull parser: lines are consumed only while
// the emission queue is empty.
type Parser struct {
	ls    *lineSource
	store TempStore

	// The FASTA handoff directive waits here until the queue drains so
	// features flushed by the FASTA boundary are emitted first.
	pendingFasta *Directive
	done         bool
	err          error
}

// Open constructs a Parser over the concatenation of the given paths.
// "-" reads stdin; names ending in .gz are read through bgzf.
func Open(paths ...string) (*Parser, error) {
	srcs := make([]*source, 0, len(paths))
	for _, path := range paths {
		s, err := openPath(path)
		if err != nil {
			for _, prev := range srcs {
				if prev.rc != nil {
					prev.rc.Close()
				}
			}
			return nil, err
		}
		srcs = append(srcs, s)
	}
	return &Parser{ls: newLineSource(srcs...), store: NewMemStore()}, nil
}

// NewParser constructs a Parser over the concatenation of the given
// readers.
func NewParser(readers ...io.Reader) *Parser {
	srcs := make([]*source, 0, len(readers))
	for i, r := range readers {
		srcs = append(srcs, sourceFromReader(fmt.Sprintf("input-%d", i+1), r))
	}
	return &Parser{ls: newLineSource(srcs...), store: NewMemStore()}
}

// SetStore swaps the TempStore, closing the previous one. Must be
// called before the first Next.
func (p *Parser) SetStore(s TempStore) {
	p.store.Close()
	p.store = s
}

// Position returns the current input name and line number.
func (p *Parser) Position() (string, int) {
	return p.ls.currentName(), p.ls.currentLine()
}

// Next returns the next Item. It returns io.EOF once every input is
// exhausted and the emission queue has drained. After any other error
// the parser is closed and Next keeps returning that error.
func (p *Parser) Next() (Item, error) {
	if p.err != nil {
		return nil, p.err
	}
	for {
		it, err := p.store.PopOut()
		if err != nil {
			return nil, p.fail(err)
		}
		if it != nil {
			return it, nil
		}
		if p.pendingFasta != nil {
			d := p.pendingFasta
			p.pendingFasta = nil
			return d, nil
		}
		if p.done {
			return nil, io.EOF
		}
		if err := p.pump(); err != nil {
			return nil, p.fail(err)
		}
	}
}

// Close releases the inputs and the TempStore. A handed-off FASTA
// stream is the caller's to close.
func (p *Parser) Close() error {
	p.ls.closeAll()
	return p.store.Close()
}

func (p *Parser) fail(err error) error {
	p.err = err
	p.ls.closeAll()
	return err
}

// pump consumes lines until at least one item is enqueued or the
// inputs are exhausted.
func (p *Parser) pump() error {
	for p.store.OutLen() == 0 && p.pendingFasta == nil && !p.done {
		line, err := p.ls.next()
		if err == io.EOF {
			p.done = true
			return p.store.Flush()
		}
		if err != nil {
			return err
		}
		if err := p.dispatch(line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) dispatch(line string) error {
	s := strings.TrimRight(line, "\r\n")
	t := strings.TrimSpace(s)
	switch {
	case t == "":
		return nil
	case t[0] == '>':
		// Implicit FASTA: the sequence starts with this very line.
		if err := p.store.Flush(); err != nil {
			return err
		}
		p.pendingFasta = &Directive{Name: "FASTA", Stream: p.ls.handoff(line)}
		p.done = true
		return nil
	case t[0] == '#':
		return p.hashLine(s, t)
	}

	l, err := ParseFeatureLine(s)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Source, pe.Line = p.ls.currentName(), p.ls.currentLine()
		}
		return err
	}
	return p.hierarchy(l)
}

// hashLine handles sync markers, directives and comments. t is the
// whitespace-trimmed form of s.
func (p *Parser) hashLine(s, t string) error {
	n := 0
	for n < len(t) && t[n] == '#' {
		n++
	}
	if n == 3 && strings.TrimSpace(t[n:]) == "" {
		return p.store.Flush()
	}
	if n == 2 {
		if d := ParseDirective(s); d != nil {
			if d.Name == "FASTA" {
				if err := p.store.Flush(); err != nil {
					return err
				}
				d.Stream = p.ls.handoff("")
				p.pendingFasta = d
				p.done = true
				return nil
			}
			return p.store.PushOut(d)
		}
	}
	return p.store.PushOut(&Comment{Text: strings.TrimLeft(t, "#")})
}

// hierarchy files a parsed line into its logical feature and resolves
// references in both directions.
func (p *Parser) hierarchy(l *FeatureLine) error {
	ids := l.Attributes[attrID]
	parents := l.Attributes[attrParent]
	derives := l.Attributes[attrDerivesFrom]

	// No ID and no references: the line stands alone.
	if len(ids) == 0 && len(parents) == 0 && len(derives) == 0 {
		return p.store.PushOut(NewFeature(l))
	}

	var f *Feature
	for _, id := range ids {
		e, err := p.store.GetUC(id)
		if err != nil {
			return err
		}
		if e == nil {
			continue
		}
		if f == nil {
			f = e
			f.AddLine(l)
		} else if e != f {
			// Several IDs on one line bound to distinct features: the
			// first wins and the later IDs rebind to it. Lines already
			// filed under the losing feature stay there.
			if err := p.store.UpdateUC(id, f); err != nil {
				return err
			}
		}
	}
	if f == nil {
		f = NewFeature(l)
	}
	top := len(parents) == 0 && len(derives) == 0
	for _, id := range ids {
		if err := p.store.PutUC(id, f, top); err != nil {
			return err
		}
	}

	// Adopt features that arrived before this ID did.
	for _, id := range ids {
		for attr, waiting := range p.store.TakeOrphans(id) {
			for _, w := range waiting {
				if w == f {
					continue
				}
				f.attach(attr, w)
			}
		}
	}

	// Resolve this line's outgoing references.
	for _, ref := range []struct {
		attr    string
		targets []string
	}{{attrParent, parents}, {attrDerivesFrom, derives}} {
		for _, tid := range ref.targets {
			if f.refDone(ref.attr, tid) {
				continue
			}
			f.markRef(ref.attr, tid)
			t, err := p.store.GetUC(tid)
			if err != nil {
				return err
			}
			switch {
			case t == f:
				// self-reference, dropped
			case t != nil:
				t.attach(ref.attr, f)
			default:
				p.store.AddOrphan(tid, ref.attr, f)
			}
		}
	}
	return nil
}
