package posting

import (
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/doclist"
	"github.com/dolmens/tansakuu/internal/poslist"
)

// BuildingWriter composes a doclist.BuildingEncoder with an optional
// poslist.BuildingEncoder, per spec.md §4.6. Created lazily on first
// posting to a term in the open building segment; writer-only.
type BuildingWriter struct {
	format Format
	doc    *doclist.BuildingEncoder
	pos    *poslist.BuildingEncoder
}

// NewBuildingWriter returns an empty posting writer for one term.
func NewBuildingWriter(format Format) *BuildingWriter {
	w := &BuildingWriter{format: format, doc: doclist.NewBuildingEncoder(format.docListFormat())}
	if format.HasPositions {
		w.pos = poslist.NewBuildingEncoder()
	}
	return w
}

// AddPos records one occurrence: fieldIdx feeds the doc list's tf/fieldmask
// aggregation, pos feeds the position list if enabled.
func (w *BuildingWriter) AddPos(fieldIdx int, pos uint32) {
	w.doc.AddPos(fieldIdx)
	if w.pos != nil {
		w.pos.AddPos(pos)
	}
}

// SetFieldmask overwrites the aggregated fieldmask byte directly.
func (w *BuildingWriter) SetFieldmask(fm uint8) {
	w.doc.SetFieldmask(fm)
}

// EndDoc closes out the current document.
func (w *BuildingWriter) EndDoc(id docid.DocId) {
	if w.pos != nil {
		w.pos.EndDoc()
	}
	w.doc.EndDoc(id)
}

// Flush flushes both encoders.
func (w *BuildingWriter) Flush() {
	if w.pos != nil {
		w.pos.Flush()
	}
	w.doc.Flush()
}

// DocEncoder exposes the underlying doc-list encoder, for decoder
// construction.
func (w *BuildingWriter) DocEncoder() *doclist.BuildingEncoder { return w.doc }

// PosEncoder exposes the underlying position-list encoder, nil if this
// posting does not carry positions.
func (w *BuildingWriter) PosEncoder() *poslist.BuildingEncoder { return w.pos }

// Df reports the number of documents written so far.
func (w *BuildingWriter) Df() uint64 { return w.doc.Df() }

// ---- Persistent (streaming) writer, used by the serializer/merger ----

// Writer is the persistent posting writer of spec.md §4.10: it streams
// directly into the output `.posting`/`.positions` byte buffers rather than
// the building segment's concurrently readable structures.
type Writer struct {
	format Format
	doc    *doclist.Writer
	pos    *poslist.Writer
}

// NewWriter returns an empty persistent posting writer.
func NewWriter(format Format) *Writer {
	w := &Writer{format: format, doc: doclist.NewWriter(format.docListFormat())}
	if format.HasPositions {
		w.pos = poslist.NewWriter()
	}
	return w
}

// AddPos mirrors BuildingWriter.AddPos.
func (w *Writer) AddPos(fieldIdx int, pos uint32) {
	w.doc.AddPos(fieldIdx)
	if w.pos != nil {
		w.pos.AddPos(pos)
	}
}

// SetFieldmask mirrors BuildingWriter.SetFieldmask.
func (w *Writer) SetFieldmask(fm uint8) {
	w.doc.SetFieldmask(fm)
}

// EndDoc mirrors BuildingWriter.EndDoc.
func (w *Writer) EndDoc(id docid.DocId) {
	if w.pos != nil {
		w.pos.EndDoc()
	}
	w.doc.EndDoc(id)
}

// Flush flushes both encoders.
func (w *Writer) Flush() {
	if w.pos != nil {
		w.pos.Flush()
	}
	w.doc.Flush()
}

// DocWriter exposes the underlying persistent doc-list writer.
func (w *Writer) DocWriter() *doclist.Writer { return w.doc }

// PosWriter exposes the underlying persistent position-list writer, nil if
// this posting does not carry positions.
func (w *Writer) PosWriter() *poslist.Writer { return w.pos }

// Df reports the number of documents written so far.
func (w *Writer) Df() uint64 { return w.doc.Df() }
