// Package segment implements the Segment/BuildingSegment/PersistentSegment
// data model of spec.md §3: each segment owns a base_docid, a (possibly
// live-growing) doc_count, and per-index opaque handles downcastable to a
// typed inverted-index segment data structure.
package segment

import (
	"sync/atomic"

	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/posting"
	"github.com/dolmens/tansakuu/internal/termdict"
)

// IndexData is the opaque per-index handle a Segment exposes; callers
// downcast it to *BuildingIndexData or *PersistentIndexData depending on
// the segment kind.
type IndexData interface {
	isIndexData()
}

// Segment is either a BuildingSegment or a PersistentSegment.
type Segment interface {
	BaseDocId() docid.DocId
	DocCount() uint32
	Index(name string) (IndexData, bool)
}

// BuildingIndexData is the building segment's per-index inverted-index
// state: a published, copy-on-write map from term key to that term's
// building posting writer. The map is appended to only by the single
// writer (a brand new term publishes a new map); existing entries are
// mutated in place by their own internal publication protocol (spec.md
// §5), so readers that already hold a *posting.BuildingWriter never need
// to re-acquire the map for that term.
type BuildingIndexData struct {
	format posting.Format
	terms  atomic.Pointer[map[uint64]*posting.BuildingWriter]
}

func (*BuildingIndexData) isIndexData() {}

// NewBuildingIndexData returns an empty per-index state for format.
func NewBuildingIndexData(format posting.Format) *BuildingIndexData {
	d := &BuildingIndexData{format: format}
	empty := map[uint64]*posting.BuildingWriter{}
	d.terms.Store(&empty)
	return d
}

// Lookup returns the building posting writer for key, or (nil, false) if
// the term has never been posted to.
func (d *BuildingIndexData) Lookup(key uint64) (*posting.BuildingWriter, bool) {
	m := *d.terms.Load()
	w, ok := m[key]
	return w, ok
}

// GetOrCreate returns the existing writer for key, creating and publishing
// one lazily on first use. Writer-only (the owning segment's single
// writer goroutine).
func (d *BuildingIndexData) GetOrCreate(key uint64) *posting.BuildingWriter {
	old := *d.terms.Load()
	if w, ok := old[key]; ok {
		return w
	}
	w := posting.NewBuildingWriter(d.format)
	next := make(map[uint64]*posting.BuildingWriter, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[key] = w
	d.terms.Store(&next)
	return w
}

// Terms returns a snapshot of the current term set, for sealing.
func (d *BuildingIndexData) Terms() map[uint64]*posting.BuildingWriter {
	return *d.terms.Load()
}

// PersistentIndexData is the persistent segment's per-index state: the
// loaded dictionary plus the byte ranges it indexes into, already resolved
// through the Directory.
type PersistentIndexData struct {
	Dict                  *termdict.Reader
	PostingBytes          []byte
	SkipListBytes         []byte
	PositionBytes         []byte
	PositionSkipListBytes []byte
	Format                posting.Format
}

func (*PersistentIndexData) isIndexData() {}

// BuildingSegment is a mutable, in-memory, live-growing segment.
type BuildingSegment struct {
	baseDocId docid.DocId
	docCount  atomic.Uint32
	indexes   map[string]*BuildingIndexData
}

// NewBuildingSegment returns an empty building segment starting at
// baseDocId.
func NewBuildingSegment(baseDocId docid.DocId, indexNames []string, formats map[string]posting.Format) *BuildingSegment {
	s := &BuildingSegment{baseDocId: baseDocId, indexes: make(map[string]*BuildingIndexData, len(indexNames))}
	for _, name := range indexNames {
		s.indexes[name] = NewBuildingIndexData(formats[name])
	}
	return s
}

// BaseDocId implements Segment.
func (s *BuildingSegment) BaseDocId() docid.DocId { return s.baseDocId }

// DocCount implements Segment. Acquire-loads the published counter.
func (s *BuildingSegment) DocCount() uint32 { return s.docCount.Load() }

// Index implements Segment.
func (s *BuildingSegment) Index(name string) (IndexData, bool) {
	d, ok := s.indexes[name]
	if !ok {
		return nil, false
	}
	return d, true
}

// EndDoc increments doc_count with release ordering after the writer has
// finished appending the document's data into every index, per spec.md
// §3's invariant: "A docid appended to the tail building segment increments
// its doc_count (published under acquire/release) before any reader can
// observe the new value."
func (s *BuildingSegment) EndDoc() {
	s.docCount.Add(1)
}

// PersistentSegment is an immutable segment backed by memory-mapped or
// loaded byte blobs, produced by the serializer or merger.
type PersistentSegment struct {
	baseDocId docid.DocId
	docCount  uint32
	indexes   map[string]*PersistentIndexData
}

// NewPersistentSegment returns a persistent segment view over already
// loaded index data.
func NewPersistentSegment(baseDocId docid.DocId, docCount uint32, indexes map[string]*PersistentIndexData) *PersistentSegment {
	return &PersistentSegment{baseDocId: baseDocId, docCount: docCount, indexes: indexes}
}

// BaseDocId implements Segment.
func (s *PersistentSegment) BaseDocId() docid.DocId { return s.baseDocId }

// DocCount implements Segment.
func (s *PersistentSegment) DocCount() uint32 { return s.docCount }

// Index implements Segment.
func (s *PersistentSegment) Index(name string) (IndexData, bool) {
	d, ok := s.indexes[name]
	if !ok {
		return nil, false
	}
	return d, true
}
