package main

import (
	"io"

	gff3 "github.com/solgenomics/bio-gff3"
)

type cmdSync struct {
	files []string
	out   io.Writer
}

func (c *cmdSync) run() {
	raiseError(gff3.InsertSyncs(c.out, c.files...))
}
