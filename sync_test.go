package gff3

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func insertSyncs(t *testing.T, content string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, InsertSyncs(&out, writeInput(t, "in.gff3", content)))
	return out.String()
}

func TestInsertSyncs(t *testing.T) {
	input := "chr\t.\tgene\t1\t100\t.\t+\t.\tID=g1\n" +
		"chr\t.\tmRNA\t1\t100\t.\t+\t.\tID=m1;Parent=g1\n" +
		"chr\t.\texon\t1\t50\t.\t+\t.\tParent=m1\n" +
		"chr\t.\tgene\t200\t300\t.\t+\t.\tID=g2\n"

	want := "chr\t.\tgene\t1\t100\t.\t+\t.\tID=g1\n" +
		"chr\t.\tmRNA\t1\t100\t.\t+\t.\tID=m1;Parent=g1\n" +
		"chr\t.\texon\t1\t50\t.\t+\t.\tParent=m1\n" +
		"###\n" +
		"chr\t.\tgene\t200\t300\t.\t+\t.\tID=g2\n"

	require.Equal(t, want, insertSyncs(t, input))
}

func TestInsertSyncsNoMarkInsideBlock(t *testing.T) {
	// every line after the gene still awaits something seen earlier,
	// so no marker may appear inside the block
	input := "chr\t.\tgene\t1\t100\t.\t+\t.\tID=g1\n" +
		"chr\t.\tmRNA\t1\t100\t.\t+\t.\tID=m1;Parent=g1\n" +
		"chr\t.\texon\t1\t50\t.\t+\t.\tParent=m1\n"

	got := insertSyncs(t, input)
	require.Equal(t, input, got)
}

func TestInsertSyncsDropsExisting(t *testing.T) {
	// a pre-existing marker sits at an unsafe point; it must go away
	// and only safe markers remain
	input := "chr\t.\tgene\t1\t100\t.\t+\t.\tID=g1\n" +
		"###\n" +
		"chr\t.\tmRNA\t1\t100\t.\t+\t.\tID=m1;Parent=g1\n"

	want := "chr\t.\tgene\t1\t100\t.\t+\t.\tID=g1\n" +
		"chr\t.\tmRNA\t1\t100\t.\t+\t.\tID=m1;Parent=g1\n"

	require.Equal(t, want, insertSyncs(t, input))
}

func TestInsertSyncsIdempotent(t *testing.T) {
	input := "##gff-version 3\n" +
		"chr\t.\tgene\t1\t100\t.\t+\t.\tID=g1\n" +
		"chr\t.\tmRNA\t1\t100\t.\t+\t.\tID=m1;Parent=g1\n" +
		"chr\t.\texon\t1\t50\t.\t+\t.\tParent=m1\n" +
		"chr\t.\tgene\t200\t300\t.\t+\t.\tID=g2\n" +
		"chr\t.\tmRNA\t200\t300\t.\t+\t.\tID=m2;Parent=g2\n"

	once := insertSyncs(t, input)
	twice := insertSyncs(t, once)
	require.Equal(t, once, twice)
	require.Contains(t, once, "###\n")
}

func TestInsertSyncsMultipleFiles(t *testing.T) {
	// a child in the second file referencing a parent in the first
	// keeps the boundary unsafe
	a := writeInput(t, "a.gff3", "chr\t.\tgene\t1\t100\t.\t+\t.\tID=g1\n")
	b := writeInput(t, "b.gff3", "chr\t.\tmRNA\t1\t100\t.\t+\t.\tID=m1;Parent=g1\n")

	var out bytes.Buffer
	require.NoError(t, InsertSyncs(&out, a, b))
	require.Equal(t,
		"chr\t.\tgene\t1\t100\t.\t+\t.\tID=g1\n"+
			"chr\t.\tmRNA\t1\t100\t.\t+\t.\tID=m1;Parent=g1\n",
		out.String())
}

func TestInsertSyncsFastaUntouched(t *testing.T) {
	input := "chr\t.\tgene\t1\t10\t.\t+\t.\tID=g1\n" +
		"##FASTA\n" +
		">a\n" +
		"ACGT\n" +
		"NNNN\n"

	got := insertSyncs(t, input)
	// no markers inside the FASTA payload
	_, fastaPart, _ := strings.Cut(got, "##FASTA\n")
	require.Equal(t, ">a\nACGT\nNNNN\n", fastaPart)
	require.True(t, strings.HasPrefix(got, "chr\t"))
}

func TestInsertSyncsMissingFile(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, InsertSyncs(&out, filepath.Join(t.TempDir(), "absent.gff3")))
}

func TestBackwardScanner(t *testing.T) {
	content := "one\ntwo\nthree"
	sc := newBackwardScanner(strings.NewReader(content), int64(len(content)))

	line, off, err := sc.next()
	require.NoError(t, err)
	require.Equal(t, "three", line)
	require.Equal(t, int64(8), off)

	line, off, err = sc.next()
	require.NoError(t, err)
	require.Equal(t, "two\n", line)
	require.Equal(t, int64(4), off)

	line, off, err = sc.next()
	require.NoError(t, err)
	require.Equal(t, "one\n", line)
	require.Equal(t, int64(0), off)

	_, _, err = sc.next()
	require.Error(t, err)
}
