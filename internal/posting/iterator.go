package posting

import (
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/doclist"
	"github.com/dolmens/tansakuu/internal/poslist"
)

// DocDecoder is the shape shared by doclist.Decoder (persistent) and
// doclist.BuildingDecoder (building), letting BufferedPostingIterator walk
// either kind of segment without caring which.
type DocDecoder interface {
	DecodeDocBuffer(target docid.DocId) (bool, error)
	DecodeTfBuffer() error
	DecodeFieldmaskBuffer() error
	Block() *doclist.Block
}

// PosDecoder is the position-list analog of DocDecoder.
type PosDecoder interface {
	DecodePositionBuffer(fromTtf uint64) (bool, error)
	DecodeNextRecord() (bool, error)
	Block() *poslist.Block
}

// SegmentPosting pairs one segment's decoders for a term with that
// segment's global base_docid, per spec.md §4.7's "vector of SegmentPosting
// ordered by base_docid".
type SegmentPosting struct {
	BaseDocId docid.DocId
	Doc       DocDecoder
	Pos       PosDecoder // nil if this posting carries no positions
}

// BufferedPostingIterator is the query-facing iterator of spec.md §4.7.
type BufferedPostingIterator struct {
	segments []SegmentPosting
	segIdx   int

	cur     DocDecoder
	curPos  PosDecoder
	segBase docid.DocId

	block        doclist.Block // cache, with BaseDocId/LastDocId already shifted to global
	cursor       int           // doc_buffer_cursor
	currentDocId docid.DocId

	needDecodeTf        bool
	needDecodeFieldmask bool
	tfBufferCursor      int

	hasPositions          bool
	positionDocId         docid.DocId
	currentTtf            uint64
	currentTf             uint32
	currentPosition       uint32
	currentPositionIndex  int
	posBlockCursor        int
	posBlock              poslist.Block
}

// NewBufferedPostingIterator returns an iterator over segments, which must
// already be ordered by BaseDocId (ascending, non-overlapping).
func NewBufferedPostingIterator(segments []SegmentPosting, hasPositions bool) *BufferedPostingIterator {
	return &BufferedPostingIterator{
		segments:     segments,
		currentDocId: docid.InvalidDocId,
		positionDocId: docid.InvalidDocId,
		hasPositions: hasPositions,
	}
}

// Seek implements spec.md §4.7's seek(target) -> DocId.
func (it *BufferedPostingIterator) Seek(target docid.DocId) (docid.DocId, error) {
	if it.currentDocId != docid.InvalidDocId && it.currentDocId != docid.EndDocId && target <= it.currentDocId {
		return it.currentDocId, nil
	}
	if it.currentDocId == docid.EndDocId {
		return docid.EndDocId, nil
	}
	if target == docid.InvalidDocId {
		target = 0
	}

	for it.cur == nil || it.cursor == it.block.Len || it.block.LastDocId < target {
		ok, err := it.decodeNextBlockAtLeast(target)
		if err != nil {
			return docid.InvalidDocId, err
		}
		if !ok {
			it.currentDocId = docid.EndDocId
			return docid.EndDocId, nil
		}
	}

	for it.currentDocId < target {
		it.currentDocId += docid.DocId(it.block.DocIdDeltas[it.cursor])
		it.cursor++
	}
	return it.currentDocId, nil
}

// decodeNextBlockAtLeast asks the active (or next) segment's decoder for a
// block whose docids reach at least target, advancing segments as each is
// exhausted. Returns false once every segment is exhausted.
func (it *BufferedPostingIterator) decodeNextBlockAtLeast(target docid.DocId) (bool, error) {
	for {
		if it.cur == nil {
			if it.segIdx >= len(it.segments) {
				return false, nil
			}
			seg := it.segments[it.segIdx]
			it.cur = seg.Doc
			it.curPos = seg.Pos
			it.segBase = seg.BaseDocId
		}

		localTarget := docid.DocId(0)
		if target > it.segBase {
			localTarget = target - it.segBase
		}
		ok, err := it.cur.DecodeDocBuffer(localTarget)
		if err != nil {
			return false, err
		}
		if !ok {
			it.cur = nil
			it.segIdx++
			continue
		}

		b := it.cur.Block()
		it.block = doclist.Block{
			DocIdDeltas: b.DocIdDeltas,
			Tfs:         b.Tfs,
			Fieldmasks:  b.Fieldmasks,
			BaseDocId:   it.segBase + b.BaseDocId,
			LastDocId:   it.segBase + b.LastDocId,
			BaseTf:      b.BaseTf,
			Len:         b.Len,
		}
		it.currentDocId = it.block.BaseDocId + docid.DocId(it.block.DocIdDeltas[0])
		it.cursor = 1
		it.currentTtf = it.block.BaseTf
		it.needDecodeTf = true
		it.needDecodeFieldmask = true
		it.tfBufferCursor = 0
		return true, nil
	}
}

// CurrentDocId returns the docid the last Seek call landed on.
func (it *BufferedPostingIterator) CurrentDocId() docid.DocId { return it.currentDocId }

// CurrentTf forces a lazy decode of the tf block (once per block) and
// returns the term frequency of the current document.
func (it *BufferedPostingIterator) CurrentTf() (uint32, error) {
	if it.needDecodeTf {
		if err := it.cur.DecodeTfBuffer(); err != nil {
			return 0, err
		}
		it.block.Tfs = it.cur.Block().Tfs
		it.needDecodeTf = false
	}
	return it.block.Tfs[it.cursor-1], nil
}

// CurrentFieldmask forces a lazy decode of the fieldmask block and returns
// the fieldmask of the current document.
func (it *BufferedPostingIterator) CurrentFieldmask() (uint8, error) {
	if it.needDecodeFieldmask {
		if err := it.cur.DecodeFieldmaskBuffer(); err != nil {
			return 0, err
		}
		it.block.Fieldmasks = it.cur.Block().Fieldmasks
		it.needDecodeFieldmask = false
	}
	return it.block.Fieldmasks[it.cursor-1], nil
}

// SeekPos implements spec.md §4.7's seek_pos(target) -> u32. Preconditions:
// a successful prior Seek that left CurrentDocId() < EndDocId.
func (it *BufferedPostingIterator) SeekPos(target uint32) (uint32, error) {
	if !it.hasPositions {
		return docid.EndPosition, nil
	}
	if it.positionDocId != it.currentDocId {
		if err := it.syncPositionToCurrentDoc(); err != nil {
			return 0, err
		}
	}
	for it.currentPosition < target {
		// Check document exhaustion before touching block storage: a
		// document's last position can land exactly on the final slot of a
		// physical position block, and the next block belongs to a
		// different document.
		if it.currentPositionIndex+1 == int(it.currentTf) {
			it.currentPosition = docid.EndPosition
			return it.currentPosition, nil
		}
		if it.posBlockCursor == it.posBlock.Len {
			ok, err := it.curPos.DecodeNextRecord()
			if err != nil {
				return 0, err
			}
			if !ok {
				it.currentPosition = docid.EndPosition
				return it.currentPosition, nil
			}
			it.posBlock = *it.curPos.Block()
			it.posBlockCursor = 0
		}
		it.currentPositionIndex++
		it.currentPosition += it.posBlock.PositionDeltas[it.posBlockCursor]
		it.posBlockCursor++
	}
	return it.currentPosition, nil
}

func (it *BufferedPostingIterator) syncPositionToCurrentDoc() error {
	if err := it.cur.DecodeTfBuffer(); err != nil {
		return err
	}
	it.block.Tfs = it.cur.Block().Tfs
	it.needDecodeTf = false

	it.currentTf = it.block.Tfs[it.cursor-1]
	for i := it.tfBufferCursor; i < it.cursor-1; i++ {
		it.currentTtf += uint64(it.block.Tfs[i])
	}
	it.tfBufferCursor = it.cursor - 1

	ok, err := it.curPos.DecodePositionBuffer(it.currentTtf)
	if err != nil {
		return err
	}
	if !ok {
		it.currentPosition = docid.EndPosition
		it.positionDocId = it.currentDocId
		it.posBlockCursor = 0
		it.currentPositionIndex = 0
		return nil
	}
	it.posBlock = *it.curPos.Block()
	// idx is the block-local offset of this document's first position.
	// Its encoded delta is already absolute (the encoder resets its
	// per-document delta base to 0 at each EndDoc), so no summation is
	// needed regardless of idx.
	idx := int(it.currentTtf - it.posBlock.StartTtf)
	it.currentPosition = it.posBlock.PositionDeltas[idx]
	it.posBlockCursor = idx + 1
	it.currentPositionIndex = 0
	it.positionDocId = it.currentDocId
	return nil
}
