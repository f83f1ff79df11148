package main

import (
	"bufio"
	"io"
	"strings"

	gff3 "github.com/solgenomics/bio-gff3"
)

type cmdFmt struct {
	files []string
	out   io.Writer
}

// run re-emits each input with feature lines pushed through the codec:
// canonical percent-escaping and stable attribute order. Directives,
// comments and sync marks pass through untouched; everything from the
// FASTA section on is copied verbatim.
func (c *cmdFmt) run() {
	bw := bufio.NewWriter(c.out)
	for _, file := range c.files {
		c.reformat(bw, file)
	}
	raiseError(bw.Flush())
}

func (c *cmdFmt) reformat(bw *bufio.Writer, file string) {
	f := openFile(file)
	defer f.Close()

	br := bufio.NewReader(f)
	fasta := false
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			c.line(bw, line, &fasta)
		}
		if err == io.EOF {
			return
		}
		raiseError(err)
	}
}

func (c *cmdFmt) line(bw *bufio.Writer, line string, fasta *bool) {
	if *fasta {
		bw.WriteString(line)
		return
	}
	t := strings.TrimSpace(line)
	switch {
	case t == "", t[0] == '#':
		bw.WriteString(line)
		if d := gff3.ParseDirective(line); d != nil && d.Name == "FASTA" {
			*fasta = true
		}
	case t[0] == '>':
		*fasta = true
		bw.WriteString(line)
	default:
		l, err := gff3.ParseFeatureLine(line)
		raiseError(err)
		bw.WriteString(gff3.FormatFeatureLine(l))
	}
}
