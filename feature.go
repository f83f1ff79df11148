package gff3

import (
	"io"
)

// Item is one unit of parser output: a *Feature, a *Directive or a *Comment.
type Item interface {
	item()
}

// FeatureLine is one physical GFF3 row. Columns holding "." parse to nil.
type FeatureLine struct {
	SeqID      *string
	Source     *string
	Type       *string
	Start      *int64
	End        *int64
	Score      *float64
	Strand     *string
	Phase      *int
	Attributes Attributes

	feature *Feature
}

// ChildFeatures returns the child list of the Feature this line belongs to.
// All lines of one Feature see the same list.
func (l *FeatureLine) ChildFeatures() []*Feature { return l.feature.ChildFeatures }

// DerivedFeatures returns the derived list of the Feature this line belongs to.
func (l *FeatureLine) DerivedFeatures() []*Feature { return l.feature.DerivedFeatures }

// Feature returns the logical feature grouping this line.
func (l *FeatureLine) Feature() *Feature { return l.feature }

// IDs returns the values of the line's ID attribute.
func (l *FeatureLine) IDs() []string { return l.Attributes["ID"] }

// Span returns end-start+1, or 0 when either coordinate is absent.
func (l *FeatureLine) Span() int64 {
	if l.Start == nil || l.End == nil {
		return 0
	}
	return *l.End - *l.Start + 1
}

// Feature is a logical feature: the ordered lines sharing an ID value,
// plus the child and derived lists those lines share.
type Feature struct {
	Lines           []*FeatureLine
	ChildFeatures   []*Feature
	DerivedFeatures []*Feature

	// doneRefs records (attribute, target id) pairs already attached or
	// queued, so a feature carrying several IDs is linked to each parent
	// exactly once.
	doneRefs map[string]struct{}
	// attachCount is the number of parent/derivation edges pointing at
	// this feature; the disk stores use it to decide spill safety.
	attachCount int
}

func (f *Feature) item() {}

// NewFeature allocates a Feature holding the given line.
func NewFeature(l *FeatureLine) *Feature {
	f := &Feature{}
	f.AddLine(l)
	return f
}

// AddLine appends a physical line to the feature.
func (f *Feature) AddLine(l *FeatureLine) {
	l.feature = f
	f.Lines = append(f.Lines, l)
}

// IDs returns all distinct ID values across the feature's lines, in
// first-seen order.
func (f *Feature) IDs() []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, l := range f.Lines {
		for _, id := range l.IDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// attach appends child under the list selected by the referencing
// attribute name (Parent or Derives_from).
func (f *Feature) attach(attr string, child *Feature) {
	child.attachCount++
	switch attr {
	case attrDerivesFrom:
		f.DerivedFeatures = append(f.DerivedFeatures, child)
	default:
		f.ChildFeatures = append(f.ChildFeatures, child)
	}
}

func (f *Feature) refDone(attr, targetID string) bool {
	if f.doneRefs == nil {
		return false
	}
	_, ok := f.doneRefs[attr+"\x00"+targetID]
	return ok
}

func (f *Feature) markRef(attr, targetID string) {
	if f.doneRefs == nil {
		f.doneRefs = make(map[string]struct{})
	}
	f.doneRefs[attr+"\x00"+targetID] = struct{}{}
}

// Directive is a ##name line. sequence-region, genome-build and FASTA
// directives carry extra parsed fields; everything else is name and raw
// value only.
type Directive struct {
	Name  string
	Value string

	// sequence-region
	SeqID      string
	Start, End int64

	// genome-build
	Source    string
	BuildName string

	// FASTA: the remaining bytes of the input. Ownership passes to the
	// caller; the parser reads nothing further from that input.
	Stream io.ReadCloser
}

func (d *Directive) item() {}

// Comment is a #-line that is not a directive, leading '#' runs and
// trailing whitespace stripped.
type Comment struct {
	Text string
}

func (c *Comment) item() {}

const (
	attrID          = "ID"
	attrParent      = "Parent"
	attrDerivesFrom = "Derives_from"
)
