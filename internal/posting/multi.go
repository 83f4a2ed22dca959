package posting

import (
	"container/heap"

	"github.com/dolmens/tansakuu/internal/docid"
)

// MultiPostingIterator merges N per-posting BufferedPostingIterators that
// share the same base_docid space (spec.md §4.8: "OR of N postings", used
// for union-field indexes). It yields the sorted, deduplicated union of
// docids and does not support SeekPos.
type MultiPostingIterator struct {
	postings []*BufferedPostingIterator
	h        multiHeap
	started  bool
	lastDocId docid.DocId
}

type heapEntry struct {
	docId        docid.DocId
	postingIndex int
}

type multiHeap []heapEntry

func (h multiHeap) Len() int            { return len(h) }
func (h multiHeap) Less(i, j int) bool  { return h[i].docId < h[j].docId }
func (h multiHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *multiHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }
func (h *multiHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// NewMultiPostingIterator returns a merged iterator over postings.
func NewMultiPostingIterator(postings []*BufferedPostingIterator) *MultiPostingIterator {
	return &MultiPostingIterator{postings: postings, lastDocId: docid.InvalidDocId}
}

func (m *MultiPostingIterator) init(target docid.DocId) error {
	m.h = make(multiHeap, 0, len(m.postings))
	for i, p := range m.postings {
		d, err := p.Seek(target)
		if err != nil {
			return err
		}
		if d != docid.EndDocId {
			heap.Push(&m.h, heapEntry{docId: d, postingIndex: i})
		}
	}
	m.started = true
	return nil
}

// Seek advances the merged stream to the first docid >= target, returning
// EndDocId once every posting is exhausted. Duplicate docids across
// postings are folded into a single result.
func (m *MultiPostingIterator) Seek(target docid.DocId) (docid.DocId, error) {
	if !m.started {
		if err := m.init(target); err != nil {
			return docid.InvalidDocId, err
		}
	} else {
		// Re-seek: drain and re-push any entries behind target.
		var refill multiHeap
		for m.h.Len() > 0 {
			e := m.h[0]
			if e.docId >= target {
				break
			}
			heap.Pop(&m.h)
			p := m.postings[e.postingIndex]
			d, err := p.Seek(target)
			if err != nil {
				return docid.InvalidDocId, err
			}
			if d != docid.EndDocId {
				refill = append(refill, heapEntry{docId: d, postingIndex: e.postingIndex})
			}
		}
		for _, e := range refill {
			heap.Push(&m.h, e)
		}
	}

	for m.h.Len() > 0 {
		top := m.h[0]
		if top.docId == m.lastDocId {
			// Duplicate of the last docid already returned: consume
			// silently and re-enqueue that posting's next hit.
			heap.Pop(&m.h)
			p := m.postings[top.postingIndex]
			d, err := p.Seek(top.docId + 1)
			if err != nil {
				return docid.InvalidDocId, err
			}
			if d != docid.EndDocId {
				heap.Push(&m.h, heapEntry{docId: d, postingIndex: top.postingIndex})
			}
			continue
		}
		m.lastDocId = top.docId
		return top.docId, nil
	}
	m.lastDocId = docid.EndDocId
	return docid.EndDocId, nil
}
