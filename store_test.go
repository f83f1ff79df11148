package gff3

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ucFeature(t *testing.T, id string) *Feature {
	t.Helper()
	l, err := ParseFeatureLine("chr\t.\tgene\t1\t10\t.\t+\t.\tID=" + id)
	require.NoError(t, err)
	return NewFeature(l)
}

func TestMemStoreOutFIFO(t *testing.T) {
	s := NewMemStore()
	require.Equal(t, 0, s.OutLen())
	require.NoError(t, s.PushOut(&Comment{Text: "a"}))
	require.NoError(t, s.PushOut(&Comment{Text: "b"}))
	require.Equal(t, 2, s.OutLen())

	it, err := s.PopOut()
	require.NoError(t, err)
	require.Equal(t, &Comment{Text: "a"}, it)
	it, err = s.PopOut()
	require.NoError(t, err)
	require.Equal(t, &Comment{Text: "b"}, it)

	it, err = s.PopOut()
	require.NoError(t, err)
	require.Nil(t, it)
}

func TestMemStoreUCIndex(t *testing.T) {
	s := NewMemStore()
	f, err := s.GetUC("missing")
	require.NoError(t, err)
	require.Nil(t, f)

	g1 := ucFeature(t, "g1")
	require.NoError(t, s.PutUC("g1", g1, true))
	got, err := s.GetUC("g1")
	require.NoError(t, err)
	require.Same(t, g1, got)
}

func TestMemStoreFlushOrder(t *testing.T) {
	s := NewMemStore()
	g1 := ucFeature(t, "g1")
	g2 := ucFeature(t, "g2")
	// g2 first seen before g1
	require.NoError(t, s.PutUC("g2", g2, true))
	require.NoError(t, s.PutUC("g1", g1, true))
	require.NoError(t, s.Flush())

	it, err := s.PopOut()
	require.NoError(t, err)
	require.Same(t, g2, it)
	it, err = s.PopOut()
	require.NoError(t, err)
	require.Same(t, g1, it)

	// flush cleared the index
	f, err := s.GetUC("g1")
	require.NoError(t, err)
	require.Nil(t, f)
}

func TestMemStoreFlushSkipsNonTop(t *testing.T) {
	s := NewMemStore()
	g1 := ucFeature(t, "g1")
	m1 := ucFeature(t, "m1")
	require.NoError(t, s.PutUC("g1", g1, true))
	require.NoError(t, s.PutUC("m1", m1, false))
	g1.attach(attrParent, m1)
	require.NoError(t, s.Flush())
	require.Equal(t, 1, s.OutLen())
	it, err := s.PopOut()
	require.NoError(t, err)
	require.Same(t, g1, it)
}

func TestMemStoreOrphans(t *testing.T) {
	s := NewMemStore()
	w := ucFeature(t, "child")
	s.AddOrphan("missing", attrParent, w)
	s.AddOrphan("missing", attrDerivesFrom, w)

	b := s.TakeOrphans("missing")
	require.Equal(t, map[string][]*Feature{
		attrParent:      {w},
		attrDerivesFrom: {w},
	}, b)
	require.Nil(t, s.TakeOrphans("missing"))
	require.NoError(t, s.Flush())
}

func TestMemStoreFlushOrphanError(t *testing.T) {
	s := NewMemStore()
	s.AddOrphan("gone", attrParent, ucFeature(t, "child"))
	err := s.Flush()
	var oe *OrphanError
	require.ErrorAs(t, err, &oe)
	require.Contains(t, oe.Refs, "gone")
	require.Equal(t, []string{attrParent}, oe.Refs["gone"])
}

func TestMemStoreFlushDedupesMultiID(t *testing.T) {
	s := NewMemStore()
	l, err := ParseFeatureLine("chr\t.\tgene\t1\t10\t.\t+\t.\tID=a,b")
	require.NoError(t, err)
	f := NewFeature(l)
	require.NoError(t, s.PutUC("a", f, true))
	require.NoError(t, s.PutUC("b", f, true))
	require.NoError(t, s.Flush())
	require.Equal(t, 1, s.OutLen())
}
