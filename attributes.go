package gff3

import (
	"sort"
	"strings"
)

// Attributes is the parsed column-9 mapping: attribute name to its
// ordered values.
type Attributes map[string][]string

// ParseAttributes parses raw column-9 text. "." or the empty string
// yield an empty mapping. Tokens without '=' are discarded; duplicate
// names accumulate in encounter order.
func ParseAttributes(s string) Attributes {
	attrs := make(Attributes)
	s = strings.TrimRight(s, "\r\n")
	if s == "" || s == "." {
		return attrs
	}
	for _, tok := range strings.Split(s, ";") {
		if tok == "" {
			continue
		}
		name, rawval, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		vals := strings.Split(rawval, ",")
		for i := range vals {
			vals[i] = Unescape(vals[i])
		}
		attrs[name] = append(attrs[name], vals...)
	}
	return attrs
}

// attrOrder is the priority of the reserved attribute names in formatted
// output; all other names follow in lexicographic order.
var attrOrder = []string{"ID", "Name", "Alias", "Parent"}

// FormatAttributes renders the column-9 text for attrs, or "." when
// empty. Key order is stable: ID, Name, Alias, Parent, then the rest
// sorted, so repeated formatting is byte-identical.
func FormatAttributes(attrs Attributes) string {
	if len(attrs) == 0 {
		return "."
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	emit := func(k string) {
		vals := attrs[k]
		if len(vals) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(Escape(k))
		b.WriteByte('=')
		for i, v := range vals {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(Escape(v))
		}
	}

	done := make(map[string]bool)
	for _, k := range attrOrder {
		if _, ok := attrs[k]; ok {
			emit(k)
			done[k] = true
		}
	}
	for _, k := range keys {
		if !done[k] {
			emit(k)
		}
	}
	if b.Len() == 0 {
		return "."
	}
	return b.String()
}
