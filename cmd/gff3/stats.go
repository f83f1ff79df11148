package main

import (
	"fmt"
	"io"
	"log"
	"sort"
	"text/tabwriter"

	"github.com/montanaflynn/stats"
	gff3 "github.com/solgenomics/bio-gff3"
)

type cmdStats struct {
	files       []string
	store       string
	maxResident int
	out         io.Writer
}

type typeStats struct {
	count int
	spans []float64
}

// run streams every feature (children included) and reports, per
// feature type, the line count and min/mean/median/max of span
// lengths.
func (c *cmdStats) run() {
	p, err := gff3.Open(c.files...)
	raiseError(err)
	defer p.Close()
	c.selectStore(p)

	byType := make(map[string]*typeStats)
	nitems := 0
	for {
		item, err := p.Next()
		if err == io.EOF {
			break
		}
		raiseError(err)
		nitems++
		switch v := item.(type) {
		case *gff3.Feature:
			collect(v, byType, make(map[*gff3.Feature]bool))
		case *gff3.Directive:
			if v.Stream != nil {
				v.Stream.Close()
			}
		}
	}
	if *debug {
		log.Printf("read %d items\n", nitems)
	}
	c.report(byType)
}

func (c *cmdStats) selectStore(p *gff3.Parser) {
	switch c.store {
	case "bolt":
		s, err := gff3.NewBoltStore(c.maxResident)
		raiseError(err)
		p.SetStore(s)
	case "lmdb":
		s, err := gff3.NewLMDBStore(c.maxResident)
		raiseError(err)
		p.SetStore(s)
	}
}

func collect(f *gff3.Feature, byType map[string]*typeStats, seen map[*gff3.Feature]bool) {
	if seen[f] {
		return
	}
	seen[f] = true
	for _, l := range f.Lines {
		typ := "."
		if l.Type != nil {
			typ = *l.Type
		}
		ts := byType[typ]
		if ts == nil {
			ts = &typeStats{}
			byType[typ] = ts
		}
		ts.count++
		if span := l.Span(); span > 0 {
			ts.spans = append(ts.spans, float64(span))
		}
	}
	for _, child := range f.ChildFeatures {
		collect(child, byType, seen)
	}
	for _, child := range f.DerivedFeatures {
		collect(child, byType, seen)
	}
}

func (c *cmdStats) report(byType map[string]*typeStats) {
	types := make([]string, 0, len(byType))
	for typ := range byType {
		types = append(types, typ)
	}
	sort.Strings(types)

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "type\tcount\tmin\tmean\tmedian\tmax")
	for _, typ := range types {
		ts := byType[typ]
		if len(ts.spans) == 0 {
			fmt.Fprintf(tw, "%s\t%d\t.\t.\t.\t.\n", typ, ts.count)
			continue
		}
		min, _ := stats.Min(ts.spans)
		mean, _ := stats.Mean(ts.spans)
		median, _ := stats.Median(ts.spans)
		max, _ := stats.Max(ts.spans)
		fmt.Fprintf(tw, "%s\t%d\t%.0f\t%.1f\t%.1f\t%.0f\n", typ, ts.count, min, mean, median, max)
	}
	raiseError(tw.Flush())
}
