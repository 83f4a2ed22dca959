// Package table implements the TableData publication protocol of spec.md
// §3/§5: an ordered vector of persistent segments followed by an ordered
// vector of building segments, published as a whole via a single atomic
// pointer swap so that any reader holding a snapshot sees a consistent,
// non-overlapping segment list regardless of what the writer does next.
package table

import (
	"sync/atomic"

	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/segment"
)

// Snapshot is the read-only view of a table a query operates on: an
// ordered, non-overlapping list of persistent segments followed by an
// ordered, non-overlapping list of building segments.
type Snapshot struct {
	Persistent []*segment.PersistentSegment
	Building   []*segment.BuildingSegment
}

// Segments returns every segment in base_docid order.
func (s *Snapshot) Segments() []segment.Segment {
	out := make([]segment.Segment, 0, len(s.Persistent)+len(s.Building))
	for _, p := range s.Persistent {
		out = append(out, p)
	}
	for _, b := range s.Building {
		out = append(out, b)
	}
	return out
}

// Data is the table's mutable root: the single writer builds a new
// Snapshot (e.g. after opening a new building segment, or after a
// background seal/merge replaces segments) and swaps it in; readers take a
// snapshot with Load, entirely lock-free.
type Data struct {
	current atomic.Pointer[Snapshot]
}

// NewData returns a table with an empty snapshot.
func NewData() *Data {
	d := &Data{}
	d.current.Store(&Snapshot{})
	return d
}

// Load returns the current snapshot. Safe for any number of concurrent
// callers; never blocks on the writer.
func (d *Data) Load() *Snapshot {
	return d.current.Load()
}

// Publish atomically replaces the current snapshot. Only the single table
// writer may call this.
func (d *Data) Publish(s *Snapshot) {
	d.current.Store(s)
}

// TailBuildingSegment returns the unique writer target: the last building
// segment in the current snapshot, or nil if none exists yet.
func (d *Data) TailBuildingSegment() *segment.BuildingSegment {
	snap := d.current.Load()
	if len(snap.Building) == 0 {
		return nil
	}
	return snap.Building[len(snap.Building)-1]
}

// NextBaseDocId computes the base_docid a newly appended segment must
// start at: strictly after every existing segment's docid range.
func (d *Data) NextBaseDocId() docid.DocId {
	snap := d.current.Load()
	var last docid.DocId
	var any bool
	for _, p := range snap.Persistent {
		end := p.BaseDocId() + docid.DocId(p.DocCount())
		if !any || end > last {
			last = end
			any = true
		}
	}
	for _, b := range snap.Building {
		end := b.BaseDocId() + docid.DocId(b.DocCount())
		if !any || end > last {
			last = end
			any = true
		}
	}
	if !any {
		return 0
	}
	return last
}
