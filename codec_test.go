package gff3

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFeatureLineRoundTrip(t *testing.T) {
	line := "FooSeq\tbarsource\tmatch\t234\t234\t0.0\t+\t.\tID=Beep%2Cbonk%3B+Foo\n"
	l, err := ParseFeatureLine(line)
	require.NoError(t, err)

	require.Equal(t, "FooSeq", *l.SeqID)
	require.Equal(t, "barsource", *l.Source)
	require.Equal(t, "match", *l.Type)
	require.Equal(t, int64(234), *l.Start)
	require.Equal(t, int64(234), *l.End)
	require.Equal(t, 0.0, *l.Score)
	require.Equal(t, "+", *l.Strand)
	require.Nil(t, l.Phase)
	require.Equal(t, Attributes{"ID": {"Beep,bonk;+Foo"}}, l.Attributes)

	require.Equal(t, line, FormatFeatureLine(l))
}

func TestParseFeatureLineEscapedSeqID(t *testing.T) {
	line := "Noggin%2C%2B-%25Foo%09bar\tbarsource\tmatch\t234\t234\t0.0\t+\t.\t.\n"
	l, err := ParseFeatureLine(line)
	require.NoError(t, err)
	require.Equal(t, "Noggin,+-%Foo\tbar", *l.SeqID)
	require.Empty(t, l.Attributes)

	// '+' is not in the reserved set, so formatting is not
	// byte-identical to the input, but it parses back equal.
	l2, err := ParseFeatureLine(FormatFeatureLine(l))
	require.NoError(t, err)
	require.Equal(t, l, l2)
}

func TestParseFeatureLineAbsentColumns(t *testing.T) {
	l, err := ParseFeatureLine("chr\t.\t.\t.\t.\t.\t.\t.\t.\n")
	require.NoError(t, err)
	require.Nil(t, l.Source)
	require.Nil(t, l.Type)
	require.Nil(t, l.Start)
	require.Nil(t, l.End)
	require.Nil(t, l.Score)
	require.Nil(t, l.Strand)
	require.Nil(t, l.Phase)
	require.Empty(t, l.Attributes)
	require.Equal(t, "chr\t.\t.\t.\t.\t.\t.\t.\t.\n", FormatFeatureLine(l))
}

func TestParseFeatureLineErrors(t *testing.T) {
	for _, line := range []string{
		"too\tfew\tfields",
		"chr\t.\tgene\tnotanumber\t100\t.\t+\t.\t.",
		"chr\t.\tgene\t1\t100\tscore\t+\t.\t.",
		"chr\t.\tgene\t1\t100\t.\t+\t9\t.",
	} {
		_, err := ParseFeatureLine(line)
		require.Error(t, err, "line %q", line)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
	}
}

func TestParseFeatureLineCRLF(t *testing.T) {
	l, err := ParseFeatureLine("chr\tsrc\tgene\t1\t10\t.\t-\t0\tID=g1\r\n")
	require.NoError(t, err)
	require.Equal(t, 0, *l.Phase)
	require.Equal(t, Attributes{"ID": {"g1"}}, l.Attributes)
	// output always terminates with a single LF
	require.Equal(t, "chr\tsrc\tgene\t1\t10\t.\t-\t0\tID=g1\n", FormatFeatureLine(l))
}

func TestParseDirective(t *testing.T) {
	d := ParseDirective("##gff-version 3\n")
	require.NotNil(t, d)
	require.Equal(t, "gff-version", d.Name)
	require.Equal(t, "3", d.Value)

	d = ParseDirective("##sequence-region ctg123 1 1,497,228\n")
	require.NotNil(t, d)
	require.Equal(t, "sequence-region", d.Name)
	require.Equal(t, "ctg123", d.SeqID)
	require.Equal(t, int64(1), d.Start)
	require.Equal(t, int64(1497228), d.End)

	d = ParseDirective("##genome-build WormBase ws110\n")
	require.NotNil(t, d)
	require.Equal(t, "WormBase", d.Source)
	require.Equal(t, "ws110", d.BuildName)

	d = ParseDirective("##FASTA\n")
	require.NotNil(t, d)
	require.Equal(t, "FASTA", d.Name)
	require.Equal(t, "", d.Value)

	d = ParseDirective("##unknown-directive some payload\n")
	require.NotNil(t, d)
	require.Equal(t, "unknown-directive", d.Name)
	require.Equal(t, "some payload", d.Value)
}

func TestParseDirectiveNot(t *testing.T) {
	for _, line := range []string{
		"# a comment",
		"### sync-ish",
		"###",
		"plain text",
		"##",
		"",
	} {
		require.Nil(t, ParseDirective(line), "line %q", line)
	}
}

func TestParseDirectiveCaseSensitive(t *testing.T) {
	d := ParseDirective("##Fasta")
	require.NotNil(t, d)
	require.Equal(t, "Fasta", d.Name)
	d = ParseDirective("##Sequence-Region x 1 2")
	require.NotNil(t, d)
	require.Equal(t, "Sequence-Region", d.Name)
	require.Empty(t, d.SeqID)
}
