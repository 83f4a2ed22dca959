package doclist

import (
	"github.com/dolmens/tansakuu/internal/codec"
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/skiplist"
)

// Writer is the persistent (single-threaded, streaming) doc-list encoder
// used by the serializer and merger (spec.md §4.10): it appends directly to
// an output byte buffer rather than the building segment's concurrently
// readable structures.
type Writer struct {
	format Format

	docIdDeltas [codec.BlockLen]uint32
	tfs         [codec.BlockLen]uint32
	fieldmasks  [codec.BlockLen]uint8
	bufferLen   int

	lastDocId docid.DocId
	currentTf uint32
	totalTf   uint64
	fieldmask uint8
	df        uint64

	out  []byte
	skip *skiplist.LazyWriter
}

// NewWriter returns an empty persistent doc-list writer.
func NewWriter(format Format) *Writer {
	return &Writer{format: format, skip: skiplist.NewLazyWriter(true)}
}

// AddPos mirrors BuildingEncoder.AddPos.
func (w *Writer) AddPos(fieldIdx int) {
	if fieldIdx < 0 || fieldIdx >= 8 {
		panic("doclist: AddPos field index out of range")
	}
	w.currentTf++
	w.totalTf++
	w.fieldmask |= 1 << uint(fieldIdx)
}

// SetFieldmask mirrors BuildingEncoder.SetFieldmask.
func (w *Writer) SetFieldmask(fm uint8) {
	w.fieldmask = fm
}

// EndDoc mirrors BuildingEncoder.EndDoc.
func (w *Writer) EndDoc(id docid.DocId) {
	if w.df > 0 && id <= w.lastDocId {
		panic("doclist: EndDoc docid not strictly increasing")
	}
	w.docIdDeltas[w.bufferLen] = uint32(id) - uint32(w.lastDocId)
	w.tfs[w.bufferLen] = w.currentTf
	w.fieldmasks[w.bufferLen] = w.fieldmask
	w.lastDocId = id
	w.bufferLen++
	w.df++
	if w.bufferLen == codec.BlockLen {
		w.flushBuffer()
	}
	w.currentTf = 0
	w.fieldmask = 0
}

func (w *Writer) flushBuffer() {
	if w.bufferLen == 0 {
		return
	}
	n := w.bufferLen
	w.out = codec.EncodeU32Block(w.docIdDeltas[:n], w.out)
	if w.format.HasTf {
		w.out = codec.EncodeU32Block(w.tfs[:n], w.out)
	}
	if w.format.HasFieldmask {
		w.out = codec.EncodeU8Block(w.fieldmasks[:n], w.out)
	}
	w.skip.Record(uint64(w.lastDocId), uint64(len(w.out)), w.totalTf)
	w.bufferLen = 0
}

// Flush flushes any residual partial block. The skip list is serialized
// separately, by SkipListBytes.
func (w *Writer) Flush() {
	w.flushBuffer()
}

// WrittenBytes returns the encoded doc-list bytes (docids interleaved with
// tf/fieldmask blocks in that fixed per-block order).
func (w *Writer) WrittenBytes() []byte { return w.out }

// SkipListBytes returns the serialized skip list region, or nil if the
// posting never grew past one block.
func (w *Writer) SkipListBytes() []byte { return w.skip.Finish() }

// HasSkipList reports whether a skip list was actually materialized.
func (w *Writer) HasSkipList() bool { return w.skip.Exists() }

// TotalTf returns the accumulated ttf across all documents written so far.
func (w *Writer) TotalTf() uint64 { return w.totalTf }

// Df returns the number of documents written so far.
func (w *Writer) Df() uint64 { return w.df }
