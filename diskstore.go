package gff3

import (
	"encoding/binary"
)

// kv is the slice of an embedded key-value store the disk-backed
// TempStores need. Implementations return nil values for absent keys
// and must hand back copies that stay valid outside transactions.
type kv interface {
	put(bucket string, key, val []byte) error
	get(bucket string, key []byte) ([]byte, error)
	del(bucket string, key []byte) error
	first(bucket string) (key, val []byte, err error)
	close() error
}

const (
	bucketUC  = "uc"
	bucketOut = "out"
)

// defaultMaxResident bounds how many under-construction features stay
// live before quiescent subgraphs spill to the key-value store.
const defaultMaxResident = 8192

// diskStore is a TempStore that keeps the emission queue and spilled
// feature subgraphs in an embedded key-value store. The ID index and
// orphan table stay in memory; when the index outgrows maxResident,
// whole top-level subgraphs with no outside references are serialized
// and evicted, then faulted back in on demand.
type diskStore struct {
	kv          kv
	maxResident int

	outSeq uint64
	outLen int

	uc       map[string]*Feature
	topOrder []string
	topSeen  map[string]bool
	orphans  map[string]map[string][]*Feature

	// orphanHold pins features sitting in the orphan table; their
	// subgraphs must not be evicted while a live handle is stored.
	orphanHold map[*Feature]int
	// touched pins features used during the current store operation.
	touched map[*Feature]uint64
	op      uint64
}

func newDiskStore(kv kv, maxResident int) *diskStore {
	if maxResident <= 0 {
		maxResident = defaultMaxResident
	}
	return &diskStore{
		kv:          kv,
		maxResident: maxResident,
		uc:          make(map[string]*Feature),
		topSeen:     make(map[string]bool),
		orphans:     make(map[string]map[string][]*Feature),
		orphanHold:  make(map[*Feature]int),
		touched:     make(map[*Feature]uint64),
	}
}

func (s *diskStore) PushOut(it Item) error {
	data, err := encodeItem(it)
	if err != nil {
		return err
	}
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], s.outSeq)
	s.outSeq++
	if err := s.kv.put(bucketOut, key[:], data); err != nil {
		return err
	}
	s.outLen++
	return nil
}

func (s *diskStore) PopOut() (Item, error) {
	key, val, err := s.kv.first(bucketOut)
	if err != nil || key == nil {
		return nil, err
	}
	it, err := decodeItem(val)
	if err != nil {
		return nil, err
	}
	if err := s.kv.del(bucketOut, key); err != nil {
		return nil, err
	}
	s.outLen--
	return it, nil
}

func (s *diskStore) OutLen() int { return s.outLen }

func (s *diskStore) GetUC(id string) (*Feature, error) {
	s.op++
	if f, ok := s.uc[id]; ok {
		s.touch(f)
		return f, nil
	}
	data, err := s.kv.get(bucketUC, []byte(id))
	if err != nil || data == nil {
		return nil, err
	}
	_, feats, err := decodeFeature(data)
	if err != nil {
		return nil, err
	}
	// Re-register every feature of the faulted subgraph under all of
	// its IDs, and drop the spilled copies so they cannot go stale.
	for _, f := range feats {
		s.touch(f)
		for _, fid := range f.IDs() {
			s.uc[fid] = f
			if err := s.kv.del(bucketUC, []byte(fid)); err != nil {
				return nil, err
			}
		}
	}
	return s.uc[id], nil
}

func (s *diskStore) PutUC(id string, f *Feature, topLevel bool) error {
	s.op++
	s.touch(f)
	if topLevel && !s.topSeen[id] {
		s.topOrder = append(s.topOrder, id)
		s.topSeen[id] = true
	}
	s.uc[id] = f
	return s.maybeEvict()
}

func (s *diskStore) UpdateUC(id string, f *Feature) error {
	s.op++
	s.touch(f)
	s.uc[id] = f
	return nil
}

func (s *diskStore) TakeOrphans(id string) map[string][]*Feature {
	b := s.orphans[id]
	if b == nil {
		return nil
	}
	delete(s.orphans, id)
	for _, waiting := range b {
		for _, f := range waiting {
			if s.orphanHold[f]--; s.orphanHold[f] == 0 {
				delete(s.orphanHold, f)
			}
		}
	}
	return b
}

func (s *diskStore) AddOrphan(id, attr string, f *Feature) {
	b := s.orphans[id]
	if b == nil {
		b = make(map[string][]*Feature)
		s.orphans[id] = b
	}
	b[attr] = append(b[attr], f)
	s.orphanHold[f]++
}

func (s *diskStore) Flush() error {
	if err := orphanError(s.orphans); err != nil {
		return err
	}
	seen := make(map[*Feature]struct{})
	for _, id := range s.topOrder {
		// GetUC faults spilled subgraphs back in and re-registers all
		// of their IDs, so a feature listed under two IDs dedupes by
		// pointer.
		f, err := s.GetUC(id)
		if err != nil {
			return err
		}
		if f == nil || f.attachCount > 0 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if err := s.PushOut(f); err != nil {
			return err
		}
	}
	s.uc = make(map[string]*Feature)
	s.topOrder = nil
	s.topSeen = make(map[string]bool)
	s.orphans = make(map[string]map[string][]*Feature)
	s.orphanHold = make(map[*Feature]int)
	s.touched = make(map[*Feature]uint64)
	return nil
}

func (s *diskStore) Close() error { return s.kv.close() }

func (s *diskStore) touch(f *Feature) { s.touched[f] = s.op }

// maybeEvict spills quiescent top-level subgraphs until the resident
// index fits maxResident again. A subgraph is quiescent when nothing
// outside it holds a reference: its root has no parents, no member is
// pinned by the orphan table or the current operation, and every
// member's attachment count is accounted for by edges inside the
// subgraph.
func (s *diskStore) maybeEvict() error {
	if len(s.uc) <= s.maxResident {
		return nil
	}
	for _, id := range s.topOrder {
		if len(s.uc) <= s.maxResident {
			return nil
		}
		f, ok := s.uc[id]
		if !ok || f.attachCount > 0 {
			continue
		}
		nodes, quiescent := s.component(f)
		if !quiescent {
			continue
		}
		data, err := encodeFeature(f)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			for _, nid := range n.IDs() {
				if err := s.kv.put(bucketUC, []byte(nid), data); err != nil {
					return err
				}
				delete(s.uc, nid)
			}
			delete(s.touched, n)
		}
	}
	return nil
}

// component walks the subgraph under root and reports whether it can
// be spilled safely.
func (s *diskStore) component(root *Feature) ([]*Feature, bool) {
	var nodes []*Feature
	incoming := make(map[*Feature]int)
	index := make(map[*Feature]bool)
	stack := []*Feature{root}
	index[root] = true
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes = append(nodes, f)
		for _, edges := range [][]*Feature{f.ChildFeatures, f.DerivedFeatures} {
			for _, c := range edges {
				incoming[c]++
				if !index[c] {
					index[c] = true
					stack = append(stack, c)
				}
			}
		}
	}
	for _, f := range nodes {
		if f.attachCount != incoming[f] {
			return nil, false
		}
		if s.orphanHold[f] > 0 {
			return nil, false
		}
		if s.touched[f] == s.op {
			return nil, false
		}
	}
	return nodes, true
}
