package poslist

import (
	"github.com/dolmens/tansakuu/internal/codec"
	"github.com/dolmens/tansakuu/internal/skiplist"
)

// Writer is the persistent (single-threaded, streaming) position-list
// encoder used by the serializer and merger.
type Writer struct {
	positions [codec.BlockLen]uint32
	bufferLen int

	lastPos         uint32
	cumulativeCount uint64

	out  []byte
	skip *skiplist.LazyWriter
}

// NewWriter returns an empty persistent position-list writer.
func NewWriter() *Writer {
	return &Writer{skip: skiplist.NewLazyWriter(false)}
}

// AddPos mirrors BuildingEncoder.AddPos.
func (w *Writer) AddPos(pos uint32) {
	w.positions[w.bufferLen] = pos - w.lastPos
	w.lastPos = pos
	w.bufferLen++
	w.cumulativeCount++
	if w.bufferLen == codec.BlockLen {
		w.flushBuffer()
	}
}

// EndDoc mirrors BuildingEncoder.EndDoc.
func (w *Writer) EndDoc() {
	w.lastPos = 0
}

func (w *Writer) flushBuffer() {
	if w.bufferLen == 0 {
		return
	}
	n := w.bufferLen
	w.out = codec.EncodeU32Block(w.positions[:n], w.out)
	w.skip.Record(w.cumulativeCount-1, uint64(len(w.out)), 0)
	w.bufferLen = 0
}

// Flush flushes any residual partial block.
func (w *Writer) Flush() {
	w.flushBuffer()
}

// WrittenBytes returns the encoded position-list bytes.
func (w *Writer) WrittenBytes() []byte { return w.out }

// SkipListBytes returns the serialized skip list region, or nil if ttf
// never exceeded one block.
func (w *Writer) SkipListBytes() []byte { return w.skip.Finish() }

// HasSkipList reports whether a skip list was actually materialized.
func (w *Writer) HasSkipList() bool { return w.skip.Exists() }

// Ttf returns the number of positions written so far.
func (w *Writer) Ttf() uint64 { return w.cumulativeCount }
