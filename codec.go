package gff3

import (
	"strconv"
	"strings"
)

// GFF3 column indexes.
const (
	fieldSeqID = iota
	fieldSource
	fieldType
	fieldStart
	fieldEnd
	fieldScore
	fieldStrand
	fieldPhase
	fieldAttributes
	numFields
)

// ParseFeatureLine parses one tab-separated feature row. Fewer than nine
// fields is an error; a field holding "." parses to nil.
func ParseFeatureLine(line string) (*FeatureLine, error) {
	s := strings.TrimRight(line, "\r\n")
	fields := strings.SplitN(s, "\t", numFields)
	if len(fields) < numFields {
		return nil, &ParseError{Text: s, Msg: "not a 9-field GFF3 line"}
	}

	l := &FeatureLine{}
	l.SeqID = column(fields[fieldSeqID])
	l.Source = column(fields[fieldSource])
	l.Type = column(fields[fieldType])
	l.Strand = column(fields[fieldStrand])

	var err error
	if l.Start, err = intColumn(fields[fieldStart]); err != nil {
		return nil, &ParseError{Text: s, Msg: "bad start coordinate"}
	}
	if l.End, err = intColumn(fields[fieldEnd]); err != nil {
		return nil, &ParseError{Text: s, Msg: "bad end coordinate"}
	}
	if c := column(fields[fieldScore]); c != nil {
		v, err := strconv.ParseFloat(*c, 64)
		if err != nil {
			return nil, &ParseError{Text: s, Msg: "bad score"}
		}
		l.Score = &v
	}
	if c := column(fields[fieldPhase]); c != nil {
		v, err := strconv.Atoi(*c)
		if err != nil || v < 0 || v > 2 {
			return nil, &ParseError{Text: s, Msg: "bad phase"}
		}
		l.Phase = &v
	}
	l.Attributes = ParseAttributes(fields[fieldAttributes])
	return l, nil
}

func column(raw string) *string {
	if raw == "." || raw == "" {
		return nil
	}
	v := Unescape(raw)
	return &v
}

func intColumn(raw string) (*int64, error) {
	c := column(raw)
	if c == nil {
		return nil, nil
	}
	v, err := strconv.ParseInt(*c, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FormatFeatureLine renders l as one LF-terminated GFF3 row with
// canonical escaping and attribute order.
func FormatFeatureLine(l *FeatureLine) string {
	var b strings.Builder
	put := func(s *string) {
		if s == nil {
			b.WriteByte('.')
		} else {
			b.WriteString(Escape(*s))
		}
		b.WriteByte('\t')
	}
	putInt := func(v *int64) {
		if v == nil {
			b.WriteByte('.')
		} else {
			b.WriteString(strconv.FormatInt(*v, 10))
		}
		b.WriteByte('\t')
	}

	put(l.SeqID)
	put(l.Source)
	put(l.Type)
	putInt(l.Start)
	putInt(l.End)
	if l.Score == nil {
		b.WriteString(".\t")
	} else {
		b.WriteString(Escape(formatScore(*l.Score)))
		b.WriteByte('\t')
	}
	put(l.Strand)
	if l.Phase == nil {
		b.WriteString(".\t")
	} else {
		b.WriteString(strconv.Itoa(*l.Phase))
		b.WriteByte('\t')
	}
	b.WriteString(FormatAttributes(l.Attributes))
	b.WriteByte('\n')
	return b.String()
}

// formatScore keeps integral scores in decimal-point form so that a
// column read as "0.0" does not come back as "0".
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ParseDirective parses a ##name line. It returns nil when line does not
// have directive shape. Names are case-sensitive and not otherwise
// normalized; whitespace before "##", between name and value, and at
// the end of the line is dropped.
func ParseDirective(line string) *Directive {
	s := strings.TrimRight(line, " \t\r\n")
	s = strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(s, "##") || strings.HasPrefix(s, "###") {
		return nil
	}
	s = s[2:]
	if s == "" {
		return nil
	}
	name, rest, _ := strings.Cut(s, " ")
	if strings.ContainsAny(name, "\t") {
		name, rest, _ = strings.Cut(s, "\t")
	}
	if name == "" {
		return nil
	}
	d := &Directive{Name: name, Value: strings.TrimLeft(rest, " \t")}

	switch d.Name {
	case "sequence-region":
		f := strings.Fields(d.Value)
		if len(f) > 0 {
			d.SeqID = f[0]
		}
		if len(f) > 1 {
			d.Start = digits(f[1])
		}
		if len(f) > 2 {
			d.End = digits(f[2])
		}
	case "genome-build":
		f := strings.Fields(d.Value)
		if len(f) > 0 {
			d.Source = f[0]
		}
		if len(f) > 1 {
			d.BuildName = f[1]
		}
	}
	return d
}

// digits parses an integer after stripping every non-digit byte, so
// grouped coordinates like 1,234,567 still read.
func digits(s string) int64 {
	var buf []byte
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			buf = append(buf, s[i])
		}
	}
	if len(buf) == 0 {
		return 0
	}
	v, _ := strconv.ParseInt(string(buf), 10, 64)
	return v
}
