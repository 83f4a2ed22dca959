// Package termdict implements the term dictionary of spec.md §4.11/§4.12: a
// sorted SSTable mapping an 8-byte big-endian term key to a TermInfo. The
// ordered-key structure itself is an FST (github.com/blevesearch/vellum,
// the same library blugelabs/ice's segment dictionary is built on — see
// _examples/heroiclabs-nakama/vendor/github.com/blugelabs/ice/v2/segment.go),
// which maps each key to an integer offset into a side area of
// varint-encoded TermInfo records, since an FST's output alphabet is a
// single uint64 per key, not an arbitrary struct.
package termdict

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/blevesearch/vellum"
)

// TermInfo is the per-term metadata stored in the dictionary, per spec.md
// §3 and §6's on-wire layout.
type TermInfo struct {
	Df                     uint64
	DocListStart           uint64
	DocListEnd             uint64
	SkipListStart          uint64
	SkipListEnd            uint64
	Ttf                    uint64
	PositionListStart      uint64
	PositionListEnd        uint64
	PositionSkipListStart  uint64
	PositionSkipListEnd    uint64
}

// TermKeyBytes returns the 8-byte big-endian encoding of a term key, the
// dictionary's FST input alphabet.
func TermKeyBytes(key uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], key)
	return b[:]
}

func encodeTermInfo(ti TermInfo) []byte {
	var buf []byte
	var tmp [binary.MaxVarintLen64]byte
	put := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		buf = append(buf, tmp[:n]...)
	}
	put(ti.Df)
	put(ti.DocListStart)
	put(ti.DocListEnd)
	put(ti.SkipListStart)
	put(ti.SkipListEnd)
	put(ti.Ttf)
	put(ti.PositionListStart)
	put(ti.PositionListEnd)
	put(ti.PositionSkipListStart)
	put(ti.PositionSkipListEnd)
	return buf
}

func decodeTermInfo(data []byte) (TermInfo, error) {
	var ti TermInfo
	pos := 0
	read := func() (uint64, error) {
		v, n := binary.Uvarint(data[pos:])
		if n <= 0 {
			return 0, fmt.Errorf("termdict: truncated TermInfo at offset %d", pos)
		}
		pos += n
		return v, nil
	}
	fields := []*uint64{
		&ti.Df, &ti.DocListStart, &ti.DocListEnd, &ti.SkipListStart, &ti.SkipListEnd,
		&ti.Ttf, &ti.PositionListStart, &ti.PositionListEnd, &ti.PositionSkipListStart, &ti.PositionSkipListEnd,
	}
	for _, f := range fields {
		v, err := read()
		if err != nil {
			return TermInfo{}, err
		}
		*f = v
	}
	return ti, nil
}

// Writer builds the dictionary's FST plus side TermInfo area. Terms must be
// inserted in strictly increasing term-key order, per spec.md §4.10.
type Writer struct {
	buf     bytes.Buffer
	builder *vellum.Builder
	side    []byte
}

// NewWriter returns an empty dictionary writer.
func NewWriter() (*Writer, error) {
	w := &Writer{}
	b, err := vellum.New(&w.buf, nil)
	if err != nil {
		return nil, err
	}
	w.builder = b
	return w, nil
}

// Insert records key -> info. key must be strictly greater than every
// previously inserted key.
func (w *Writer) Insert(key uint64, info TermInfo) error {
	offset := uint64(len(w.side))
	w.side = append(w.side, encodeTermInfo(info)...)
	return w.builder.Insert(TermKeyBytes(key), offset)
}

// Finish closes the FST builder and returns (fstBytes, sideAreaBytes), the
// two byte ranges that make up the `.dict` file.
func (w *Writer) Finish() ([]byte, []byte, error) {
	if err := w.builder.Close(); err != nil {
		return nil, nil, err
	}
	return w.buf.Bytes(), w.side, nil
}

// Reader is a read-only view over a serialized dictionary.
type Reader struct {
	fst  *vellum.FST
	side []byte
}

// NewReader loads a dictionary from its two byte ranges.
func NewReader(fstBytes, sideBytes []byte) (*Reader, error) {
	fst, err := vellum.Load(fstBytes)
	if err != nil {
		return nil, err
	}
	return &Reader{fst: fst, side: sideBytes}, nil
}

// Get implements spec.md §4.11's point get(key) -> Option<TermInfo>.
func (r *Reader) Get(key uint64) (TermInfo, bool, error) {
	offset, found, err := r.fst.Get(TermKeyBytes(key))
	if err != nil {
		return TermInfo{}, false, err
	}
	if !found {
		return TermInfo{}, false, nil
	}
	ti, err := decodeTermInfo(r.side[offset:])
	if err != nil {
		return TermInfo{}, false, err
	}
	return ti, true, nil
}

// Iterator is an ordered forward scan over the dictionary, per spec.md
// §4.11's iter().
type Iterator struct {
	it  *vellum.FSTIterator
	err error
}

// Iter returns a forward iterator starting at the first key >= nil (the
// very first key in the dictionary).
func (r *Reader) Iter() (*Iterator, error) {
	it, err := r.fst.Iterator(nil, nil)
	if err == vellum.ErrIteratorDone {
		return &Iterator{err: vellum.ErrIteratorDone}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Iterator{it: it}, nil
}

// Done reports whether the iterator has been exhausted.
func (it *Iterator) Done() bool { return it.err == vellum.ErrIteratorDone }

// Current returns the current key and its FST-encoded offset. Only valid
// when !Done().
func (it *Iterator) Current() (key []byte, offset uint64) {
	return it.it.Current()
}

// Next advances the iterator.
func (it *Iterator) Next() error {
	if it.Done() {
		return nil
	}
	err := it.it.Next()
	if err == vellum.ErrIteratorDone {
		it.err = err
		return nil
	}
	return err
}

// TermInfoAt decodes the TermInfo stored at a side-area offset (as
// returned by Current), given the reader's side byte area.
func (r *Reader) TermInfoAt(offset uint64) (TermInfo, error) {
	return decodeTermInfo(r.side[offset:])
}
