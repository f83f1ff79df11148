package gff3

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bgzf"
)

// lineSource presents an ordered list of inputs as one lazy line
// iterator and remembers where the cursor is for diagnostics.
type lineSource struct {
	srcs []*source
}

type source struct {
	name string
	br   *bufio.Reader
	rc   io.Closer
	line int
}

// openPath opens a GFF3 input. "-" is stdin; names ending in .gz are
// read through bgzf, the block-gzip framing genomics files ship in.
func openPath(path string) (*source, error) {
	if path == "-" {
		return &source{name: "-", br: bufio.NewReader(os.Stdin)}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".gz") {
		zr, err := bgzf.NewReader(f, 0)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return &source{name: path, br: bufio.NewReader(zr), rc: multiCloser{zr, f}}, nil
	}
	return &source{name: path, br: bufio.NewReader(f), rc: f}, nil
}

func newLineSource(srcs ...*source) *lineSource {
	return &lineSource{srcs: srcs}
}

func sourceFromReader(name string, r io.Reader) *source {
	s := &source{name: name, br: bufio.NewReader(r)}
	if rc, ok := r.(io.Closer); ok {
		s.rc = rc
	}
	return s
}

// next returns the next line, newline included except possibly on the
// final line of an input. Exhausted inputs are closed and dropped.
func (ls *lineSource) next() (string, error) {
	for len(ls.srcs) > 0 {
		s := ls.srcs[0]
		line, err := s.br.ReadString('\n')
		if err == nil {
			s.line++
			return line, nil
		}
		if err != io.EOF {
			return "", fmt.Errorf("read %s: %w", s.name, err)
		}
		if line != "" {
			s.line++
			return line, nil
		}
		ls.retire()
	}
	return "", io.EOF
}

// retire closes and drops the current input.
func (ls *lineSource) retire() {
	s := ls.srcs[0]
	if s.rc != nil {
		s.rc.Close()
	}
	ls.srcs = ls.srcs[1:]
}

func (ls *lineSource) currentName() string {
	if len(ls.srcs) == 0 {
		return ""
	}
	return ls.srcs[0].name
}

func (ls *lineSource) currentLine() int {
	if len(ls.srcs) == 0 {
		return 0
	}
	return ls.srcs[0].line
}

// handoff surrenders the rest of the current input as a ReadCloser:
// prefix (an already-consumed line being given back) followed by the
// buffered and unread bytes of the stream. The remaining inputs are
// closed; the parser reads nothing further.
func (ls *lineSource) handoff(prefix string) io.ReadCloser {
	if len(ls.srcs) == 0 {
		return io.NopCloser(strings.NewReader(prefix))
	}
	s := ls.srcs[0]
	ls.srcs = ls.srcs[1:]
	ls.closeAll()
	r := io.Reader(s.br)
	if prefix != "" {
		r = io.MultiReader(strings.NewReader(prefix), s.br)
	}
	return &handoffReader{r: r, c: s.rc}
}

// closeAll closes every remaining input.
func (ls *lineSource) closeAll() {
	for len(ls.srcs) > 0 {
		ls.retire()
	}
}

type handoffReader struct {
	r io.Reader
	c io.Closer
}

func (h *handoffReader) Read(p []byte) (int, error) { return h.r.Read(p) }

func (h *handoffReader) Close() error {
	if h.c == nil {
		return nil
	}
	return h.c.Close()
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
