// Package registry implements the segment registry and negation iterators
// of spec.md §4.9, backed by github.com/RoaringBitmap/roaring for the
// positive-posting bitset used by NegatedPostingIterator and
// AndNotPostingIterator.
package registry

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/dolmens/tansakuu/internal/docid"
)

// SegmentRange is one segment's (base_docid, doc_count) pair.
type SegmentRange struct {
	BaseDocId docid.DocId
	DocCount  uint32
}

// SegmentRegistry holds the ordered segment ranges of a table snapshot.
type SegmentRegistry struct {
	ranges []SegmentRange
}

// NewSegmentRegistry returns a registry over ranges, which must already be
// ordered by strictly increasing BaseDocId and non-overlapping.
func NewSegmentRegistry(ranges []SegmentRange) *SegmentRegistry {
	return &SegmentRegistry{ranges: ranges}
}

// TotalDocCount returns the sum of every segment's doc count.
func (r *SegmentRegistry) TotalDocCount() uint64 {
	var total uint64
	for _, rg := range r.ranges {
		total += uint64(rg.DocCount)
	}
	return total
}

// AllDocsPostingIterator yields every global docid across every segment.
type AllDocsPostingIterator struct {
	registry *SegmentRegistry
	current  docid.DocId
}

// NewAllDocsPostingIterator returns an iterator over every docid in registry.
func NewAllDocsPostingIterator(registry *SegmentRegistry) *AllDocsPostingIterator {
	return &AllDocsPostingIterator{registry: registry, current: docid.InvalidDocId}
}

// Seek advances to the first valid docid >= target.
func (it *AllDocsPostingIterator) Seek(target docid.DocId) docid.DocId {
	if it.current != docid.InvalidDocId && it.current != docid.EndDocId && target <= it.current {
		return it.current
	}
	if target == docid.InvalidDocId {
		target = 0
	}
	for _, rg := range it.registry.ranges {
		end := rg.BaseDocId + docid.DocId(rg.DocCount)
		if target < rg.BaseDocId {
			it.current = rg.BaseDocId
			return it.current
		}
		if target < end {
			it.current = target
			return it.current
		}
	}
	it.current = docid.EndDocId
	return docid.EndDocId
}

// NegatedPostingIterator yields global docids not present in positive, in
// order, per spec.md §4.9.
type NegatedPostingIterator struct {
	registry *SegmentRegistry
	positive *roaring.Bitmap
	current  docid.DocId
}

// NewNegatedPostingIterator returns docids in registry that positive does
// not contain.
func NewNegatedPostingIterator(registry *SegmentRegistry, positive *roaring.Bitmap) *NegatedPostingIterator {
	return &NegatedPostingIterator{registry: registry, positive: positive, current: docid.InvalidDocId}
}

// Seek advances to the first docid >= target that is absent from positive.
func (it *NegatedPostingIterator) Seek(target docid.DocId) docid.DocId {
	if it.current != docid.InvalidDocId && it.current != docid.EndDocId && target <= it.current {
		return it.current
	}
	if target == docid.InvalidDocId {
		target = 0
	}
	total := it.registry.TotalDocCount()
	for d := uint64(target); d < total; d++ {
		if !it.positive.Contains(uint32(d)) {
			it.current = docid.DocId(d)
			return it.current
		}
	}
	it.current = docid.EndDocId
	return docid.EndDocId
}

// AndNotPostingIterator yields docids in a but not in b, per spec.md §4.9's
// "not (field = X) and not null" composition.
type AndNotPostingIterator struct {
	a, b    *roaring.Bitmap
	current docid.DocId
	maxDoc  uint64
}

// NewAndNotPostingIterator returns an iterator over a minus b, bounded by
// maxDoc (exclusive), the registry's total doc count.
func NewAndNotPostingIterator(a, b *roaring.Bitmap, maxDoc uint64) *AndNotPostingIterator {
	return &AndNotPostingIterator{a: a, b: b, current: docid.InvalidDocId, maxDoc: maxDoc}
}

// Seek advances to the first docid >= target present in a but absent from b.
func (it *AndNotPostingIterator) Seek(target docid.DocId) docid.DocId {
	if it.current != docid.InvalidDocId && it.current != docid.EndDocId && target <= it.current {
		return it.current
	}
	if target == docid.InvalidDocId {
		target = 0
	}
	for d := uint64(target); d < it.maxDoc; d++ {
		if it.a.Contains(uint32(d)) && !it.b.Contains(uint32(d)) {
			it.current = docid.DocId(d)
			return it.current
		}
	}
	it.current = docid.EndDocId
	return docid.EndDocId
}
