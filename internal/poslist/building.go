package poslist

import (
	"sync/atomic"

	"github.com/dolmens/tansakuu/internal/byteslicelist"
	"github.com/dolmens/tansakuu/internal/codec"
	"github.com/dolmens/tansakuu/internal/skiplist"
)

// BuildingEncoder is the building (in-memory, concurrently-readable)
// position-list encoder of spec.md §4.5. Like doclist.BuildingEncoder, it
// is written only by the owning building segment's single writer goroutine.
type BuildingEncoder struct {
	positions [codec.BlockLen]uint32

	// flushInfo packs (flushedCount<<32 | bufferLen), where flushedCount is
	// the true number of positions flushed so far (not a block count): only
	// the most recent flush can be a partial block.
	flushInfo atomic.Uint64

	chain *byteslicelist.List
	skip  *skiplist.LazyBuildingList // hasValue false: position skip carries no value channel

	lastPos         uint32 // writer-only, reset to 0 by EndDoc
	bufferLen       int
	flushedCount    uint64
	cumulativeCount uint64 // total positions ever appended (writer-only)
}

// NewBuildingEncoder returns an empty position-list encoder for one term.
func NewBuildingEncoder() *BuildingEncoder {
	return &BuildingEncoder{
		chain: byteslicelist.New(),
		skip:  skiplist.NewLazyBuildingList(false),
	}
}

func packFlushInfo(flushedCount uint64, bufferLen int) uint64 {
	return flushedCount<<32 | uint64(uint32(bufferLen))
}

func unpackFlushInfo(v uint64) (flushedCount uint64, bufferLen int) {
	return v >> 32, int(uint32(v))
}

// AddPos records one occurrence's absolute position within its document.
// Writer-only.
func (e *BuildingEncoder) AddPos(pos uint32) {
	e.positions[e.bufferLen] = pos - e.lastPos
	e.lastPos = pos
	e.bufferLen++
	e.cumulativeCount++
	e.flushInfo.Store(packFlushInfo(e.flushedCount, e.bufferLen))
	if e.bufferLen == codec.BlockLen {
		e.flushBuffer()
	}
}

// EndDoc resets the per-document delta accumulator; it emits no separator
// into the stream, since document boundaries are recovered from the
// doc-list's tf stream.
func (e *BuildingEncoder) EndDoc() {
	e.lastPos = 0
}

func (e *BuildingEncoder) flushBuffer() {
	if e.bufferLen == 0 {
		return
	}
	n := e.bufferLen
	buf := codec.EncodeU32Block(e.positions[:n], nil)
	e.chain.Append(buf)
	outputOffset := e.chain.TotalSize()
	e.skip.Record(e.cumulativeCount-1, outputOffset, 0)

	e.flushedCount += uint64(n)
	e.bufferLen = 0
	e.flushInfo.Store(packFlushInfo(e.flushedCount, 0))
}

// Flush flushes any residual partial block. Writer-only.
func (e *BuildingEncoder) Flush() {
	e.flushBuffer()
}

// Ttf reports the number of positions encoded so far (flushed or pending).
func (e *BuildingEncoder) Ttf() uint64 {
	flushedCount, bufferLen := unpackFlushInfo(e.flushInfo.Load())
	return flushedCount + uint64(bufferLen)
}
