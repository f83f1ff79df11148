package gff3

// TempStore holds the parser's in-flight state between flush
// boundaries: the queue of emittable items, the under-construction
// features indexed by ID, and the orphan references still awaiting
// their targets. MemStore keeps everything resident; BoltStore and
// LMDBStore spill feature subgraphs to an embedded key-value store
// with the same observable behavior, except that each emitted top-level
// feature is decoded on its own: a child shared by two top-level
// features comes out as one copy under each.
type TempStore interface {
	// Emission queue, FIFO.
	PushOut(it Item) error
	PopOut() (Item, error)
	OutLen() int

	// Under-construction index. PutUC with topLevel also records the id
	// in the ordered top-level list used for flush ordering; UpdateUC
	// rebinds without touching that order.
	GetUC(id string) (*Feature, error)
	PutUC(id string, f *Feature, topLevel bool) error
	UpdateUC(id string, f *Feature) error

	// Pending references keyed by awaited target id. TakeOrphans
	// removes and returns the bucket; the caller attaches its contents.
	TakeOrphans(id string) map[string][]*Feature
	AddOrphan(id, attr string, f *Feature)

	// Flush appends every top-level feature, in first-seen order, to
	// the emission queue and clears the index and the orphan table. A
	// non-empty orphan table is an *OrphanError.
	Flush() error

	Close() error
}

// MemStore is the in-memory TempStore.
type MemStore struct {
	out      []Item
	uc       map[string]*Feature
	topOrder []string
	topSeen  map[string]bool
	orphans  map[string]map[string][]*Feature
}

// NewMemStore returns an empty in-memory TempStore.
func NewMemStore() *MemStore {
	return &MemStore{
		uc:      make(map[string]*Feature),
		topSeen: make(map[string]bool),
		orphans: make(map[string]map[string][]*Feature),
	}
}

func (s *MemStore) PushOut(it Item) error { s.out = append(s.out, it); return nil }

func (s *MemStore) PopOut() (Item, error) {
	if len(s.out) == 0 {
		return nil, nil
	}
	it := s.out[0]
	s.out = s.out[1:]
	return it, nil
}

func (s *MemStore) OutLen() int { return len(s.out) }

func (s *MemStore) GetUC(id string) (*Feature, error) { return s.uc[id], nil }

func (s *MemStore) PutUC(id string, f *Feature, topLevel bool) error {
	if topLevel && !s.topSeen[id] {
		s.topOrder = append(s.topOrder, id)
		s.topSeen[id] = true
	}
	s.uc[id] = f
	return nil
}

func (s *MemStore) UpdateUC(id string, f *Feature) error {
	s.uc[id] = f
	return nil
}

func (s *MemStore) TakeOrphans(id string) map[string][]*Feature {
	b := s.orphans[id]
	if b != nil {
		delete(s.orphans, id)
	}
	return b
}

func (s *MemStore) AddOrphan(id, attr string, f *Feature) {
	b := s.orphans[id]
	if b == nil {
		b = make(map[string][]*Feature)
		s.orphans[id] = b
	}
	b[attr] = append(b[attr], f)
}

func (s *MemStore) Flush() error {
	if err := orphanError(s.orphans); err != nil {
		return err
	}
	seen := make(map[*Feature]struct{})
	for _, id := range s.topOrder {
		f := s.uc[id]
		if f == nil || f.attachCount > 0 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		s.out = append(s.out, f)
	}
	s.uc = make(map[string]*Feature)
	s.topOrder = nil
	s.topSeen = make(map[string]bool)
	s.orphans = make(map[string]map[string][]*Feature)
	return nil
}

func (s *MemStore) Close() error { return nil }

// orphanError converts a non-empty orphan table into an *OrphanError.
func orphanError(orphans map[string]map[string][]*Feature) error {
	if len(orphans) == 0 {
		return nil
	}
	refs := make(map[string][]string)
	for id, bucket := range orphans {
		for attr := range bucket {
			refs[id] = append(refs[id], attr)
		}
	}
	return &OrphanError{Refs: refs}
}
