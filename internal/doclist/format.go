// Package doclist implements the doc-list encoder/decoder of spec.md §4.3
// and §4.4: the per-term stream of (docid-delta, optional tf, optional
// fieldmask) triples, block-encoded in groups of codec.BlockLen, with a
// skip list created lazily once the posting outgrows a single block.
package doclist

// Format selects which parallel channels a doc list carries alongside
// docids, mirroring the per-index PostingFormat toggles in spec.md §3.
type Format struct {
	HasTf        bool
	HasFieldmask bool
}
