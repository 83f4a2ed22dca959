package doclist

import (
	"sync/atomic"

	"github.com/dolmens/tansakuu/internal/byteslicelist"
	"github.com/dolmens/tansakuu/internal/codec"
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/skiplist"
)

// BuildingEncoder is the building (in-memory, concurrently-readable)
// doc-list encoder of spec.md §4.3. It is created lazily on first posting
// to a term in the open building segment, and is only ever written by that
// segment's single writer goroutine; any number of readers may concurrently
// call the Snapshot/decode helpers in building_decoder.go.
type BuildingEncoder struct {
	format Format

	// Hot block: pending entries not yet flushed, written before the
	// flushInfo release store that publishes them.
	docIdDeltas [codec.BlockLen]uint32
	tfs         [codec.BlockLen]uint32
	fieldmasks  [codec.BlockLen]uint8

	// flushInfo packs (docCountFlushed<<32 | bufferLen), the single
	// publication point for the hot block above, per spec.md §5's
	// publication protocol. docCountFlushed is the true number of docs
	// flushed so far, not a block count: only the most recent flush can be
	// a partial block (an explicit seal-time Flush call), so this plus the
	// lazy skip list's nil/non-nil state is enough to reconstruct which
	// block layout is on disk.
	flushInfo atomic.Uint64

	chain *byteslicelist.List
	skip  *skiplist.LazyBuildingList

	// Writer-only running state.
	lastDocId       docid.DocId
	currentTf       uint32
	totalTf         uint64
	fieldmask       uint8
	bufferLen       int
	docCountFlushed uint64
}

// NewBuildingEncoder returns an empty doc-list encoder for one term.
func NewBuildingEncoder(format Format) *BuildingEncoder {
	return &BuildingEncoder{
		format: format,
		chain:  byteslicelist.New(),
		skip:   skiplist.NewLazyBuildingList(true),
	}
}

func packFlushInfo(flushedCount uint64, bufferLen int) uint64 {
	return flushedCount<<32 | uint64(uint32(bufferLen))
}

func unpackFlushInfo(v uint64) (flushedCount uint64, bufferLen int) {
	return v >> 32, int(uint32(v))
}

// AddPos records one occurrence at fieldIdx (< 8), aggregating tf and
// fieldmask. Writer-only.
func (e *BuildingEncoder) AddPos(fieldIdx int) {
	if fieldIdx < 0 || fieldIdx >= 8 {
		panic("doclist: AddPos field index out of range")
	}
	e.currentTf++
	e.totalTf++
	e.fieldmask |= 1 << uint(fieldIdx)
}

// SetFieldmask overwrites the aggregated fieldmask byte for the document in
// progress, used when the caller tracks fieldmask independently of AddPos.
func (e *BuildingEncoder) SetFieldmask(fm uint8) {
	e.fieldmask = fm
}

// EndDoc closes out the current document: docid must be strictly greater
// than the previously ended docid. Writer-only.
func (e *BuildingEncoder) EndDoc(id docid.DocId) {
	if e.docCountFlushed+uint64(e.bufferLen) > 0 && id <= e.lastDocId {
		panic("doclist: EndDoc docid not strictly increasing")
	}
	e.docIdDeltas[e.bufferLen] = uint32(id) - uint32(e.lastDocId)
	e.tfs[e.bufferLen] = e.currentTf
	e.fieldmasks[e.bufferLen] = e.fieldmask
	e.lastDocId = id
	e.bufferLen++

	e.flushInfo.Store(packFlushInfo(e.docCountFlushed, e.bufferLen))
	if e.bufferLen == codec.BlockLen {
		e.flushBuffer()
	}
	e.currentTf = 0
	e.fieldmask = 0
}

func (e *BuildingEncoder) flushBuffer() {
	if e.bufferLen == 0 {
		return
	}
	n := e.bufferLen
	var buf []byte
	buf = codec.EncodeU32Block(e.docIdDeltas[:n], buf)
	if e.format.HasTf {
		buf = codec.EncodeU32Block(e.tfs[:n], buf)
	}
	if e.format.HasFieldmask {
		buf = codec.EncodeU8Block(e.fieldmasks[:n], buf)
	}

	e.chain.Append(buf)
	outputOffset := e.chain.TotalSize()
	e.skip.Record(uint64(e.lastDocId), outputOffset, e.totalTf)

	e.docCountFlushed += uint64(n)
	e.bufferLen = 0
	e.flushInfo.Store(packFlushInfo(e.docCountFlushed, 0))
}

// Flush flushes any residual partial block. Writer-only; called when the
// owning building segment is sealed.
func (e *BuildingEncoder) Flush() {
	e.flushBuffer()
}

// Df reports the number of documents encoded so far (flushed or pending).
func (e *BuildingEncoder) Df() uint64 {
	flushedCount, bufferLen := unpackFlushInfo(e.flushInfo.Load())
	return flushedCount + uint64(bufferLen)
}
