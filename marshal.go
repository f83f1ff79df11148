package gff3

import (
	"fmt"

	"gopkg.in/vmihailenco/msgpack.v2"
)

// The disk stores serialize a feature as its whole connected subgraph,
// flattened to an index-linked node table. Encoding the graph in one
// value is what keeps invariant sharing intact across a round-trip: a
// child referenced by two parents decodes to one *Feature again.

type encLine struct {
	SeqID      *string
	Source     *string
	Type       *string
	Start      *int64
	End        *int64
	Score      *float64
	Strand     *string
	Phase      *int
	Attributes map[string][]string
}

type encNode struct {
	Lines    []encLine
	Children []int
	Derived  []int
	Done     []string
	Attach   int
}

type encGraph struct {
	Root  int
	Nodes []encNode
}

// Item wrapper kinds for the on-disk emission queue.
const (
	kindFeature = iota + 1
	kindDirective
	kindComment
)

type encDirective struct {
	Name      string
	Value     string
	SeqID     string
	Start     int64
	End       int64
	Source    string
	BuildName string
}

type encItem struct {
	Kind      int
	Graph     *encGraph
	Directive *encDirective
	Comment   string
}

// encodeFeature flattens the subgraph reachable from f and marshals it.
func encodeFeature(f *Feature) ([]byte, error) {
	g := &encGraph{}
	index := make(map[*Feature]int)
	g.Root = flatten(f, g, index)
	return msgpack.Marshal(g)
}

func flatten(f *Feature, g *encGraph, index map[*Feature]int) int {
	if i, ok := index[f]; ok {
		return i
	}
	i := len(g.Nodes)
	index[f] = i
	g.Nodes = append(g.Nodes, encNode{})

	n := encNode{Attach: f.attachCount}
	for _, l := range f.Lines {
		n.Lines = append(n.Lines, encLine{
			SeqID:      l.SeqID,
			Source:     l.Source,
			Type:       l.Type,
			Start:      l.Start,
			End:        l.End,
			Score:      l.Score,
			Strand:     l.Strand,
			Phase:      l.Phase,
			Attributes: l.Attributes,
		})
	}
	for ref := range f.doneRefs {
		n.Done = append(n.Done, ref)
	}
	for _, c := range f.ChildFeatures {
		n.Children = append(n.Children, flatten(c, g, index))
	}
	for _, c := range f.DerivedFeatures {
		n.Derived = append(n.Derived, flatten(c, g, index))
	}
	g.Nodes[i] = n
	return i
}

// decodeFeature rebuilds a subgraph. It returns the root plus every
// feature in the graph so a store can re-register their IDs.
func decodeFeature(data []byte) (*Feature, []*Feature, error) {
	var g encGraph
	if err := msgpack.Unmarshal(data, &g); err != nil {
		return nil, nil, fmt.Errorf("decode feature: %w", err)
	}
	return buildGraph(&g)
}

func buildGraph(g *encGraph) (*Feature, []*Feature, error) {
	if g.Root < 0 || g.Root >= len(g.Nodes) {
		return nil, nil, fmt.Errorf("decode feature: root %d out of range", g.Root)
	}
	feats := make([]*Feature, len(g.Nodes))
	for i := range feats {
		feats[i] = &Feature{}
	}
	for i, n := range g.Nodes {
		f := feats[i]
		f.attachCount = n.Attach
		for _, el := range n.Lines {
			attrs := Attributes(el.Attributes)
			if attrs == nil {
				attrs = make(Attributes)
			}
			f.AddLine(&FeatureLine{
				SeqID:      el.SeqID,
				Source:     el.Source,
				Type:       el.Type,
				Start:      el.Start,
				End:        el.End,
				Score:      el.Score,
				Strand:     el.Strand,
				Phase:      el.Phase,
				Attributes: attrs,
			})
		}
		if len(n.Done) > 0 {
			f.doneRefs = make(map[string]struct{}, len(n.Done))
			for _, ref := range n.Done {
				f.doneRefs[ref] = struct{}{}
			}
		}
		for _, ci := range n.Children {
			if ci < 0 || ci >= len(feats) {
				return nil, nil, fmt.Errorf("decode feature: child %d out of range", ci)
			}
			f.ChildFeatures = append(f.ChildFeatures, feats[ci])
		}
		for _, ci := range n.Derived {
			if ci < 0 || ci >= len(feats) {
				return nil, nil, fmt.Errorf("decode feature: derived %d out of range", ci)
			}
			f.DerivedFeatures = append(f.DerivedFeatures, feats[ci])
		}
	}
	return feats[g.Root], feats, nil
}

// encodeItem marshals an emission-queue item. FASTA directives never
// reach the queue; their stream cannot be serialized.
func encodeItem(it Item) ([]byte, error) {
	var e encItem
	switch v := it.(type) {
	case *Feature:
		g := &encGraph{}
		index := make(map[*Feature]int)
		g.Root = flatten(v, g, index)
		e = encItem{Kind: kindFeature, Graph: g}
	case *Directive:
		if v.Stream != nil {
			return nil, fmt.Errorf("encode item: FASTA directive is not serializable")
		}
		e = encItem{Kind: kindDirective, Directive: &encDirective{
			Name:      v.Name,
			Value:     v.Value,
			SeqID:     v.SeqID,
			Start:     v.Start,
			End:       v.End,
			Source:    v.Source,
			BuildName: v.BuildName,
		}}
	case *Comment:
		e = encItem{Kind: kindComment, Comment: v.Text}
	default:
		return nil, fmt.Errorf("encode item: unknown item type %T", it)
	}
	return msgpack.Marshal(&e)
}

func decodeItem(data []byte) (Item, error) {
	var e encItem
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	switch e.Kind {
	case kindFeature:
		if e.Graph == nil {
			return nil, fmt.Errorf("decode item: feature without graph")
		}
		f, _, err := buildGraph(e.Graph)
		return f, err
	case kindDirective:
		d := e.Directive
		if d == nil {
			return nil, fmt.Errorf("decode item: directive without payload")
		}
		return &Directive{
			Name:      d.Name,
			Value:     d.Value,
			SeqID:     d.SeqID,
			Start:     d.Start,
			End:       d.End,
			Source:    d.Source,
			BuildName: d.BuildName,
		}, nil
	case kindComment:
		return &Comment{Text: e.Comment}, nil
	}
	return nil, fmt.Errorf("decode item: unknown kind %d", e.Kind)
}
