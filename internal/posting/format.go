// Package posting implements the posting writer and query-facing iterators
// of spec.md §4.6-§4.8: PostingWriter composes a doc list with an optional
// position list; BufferedPostingIterator walks one logical term across a
// segment list with seek/seek_pos; MultiPostingIterator heap-merges several
// same-base_docid postings for union-field queries.
package posting

import (
	"github.com/dolmens/tansakuu/internal/doclist"
)

// Format describes which channels a posting carries, combining the
// doc-list toggles with whether a position list is stored at all.
type Format struct {
	HasTf          bool
	HasFieldmask   bool
	HasPositions bool
}

func (f Format) docListFormat() doclist.Format {
	return doclist.Format{HasTf: f.HasTf, HasFieldmask: f.HasFieldmask}
}
