// Package skiplist implements the skip list described in spec.md §4.2: a
// sequence of (key_delta, offset_delta, optional value_delta) triples
// packed in blocks of codec.BlockLen, indexed by an in-memory directory of
// per-block boundary values so that Seek resolves to a single candidate
// block in O(log(#blocks)) before a linear O(BlockLen) scan inside it.
//
// "Key" is a monotone number (the last docid of a doc-list block, or the
// cumulative position count of a position-list block). "Offset" is the
// cumulative byte offset of the block boundary in the companion
// posting/position stream. "Value", when present, is the cumulative ttf
// at a doc-list block boundary.
package skiplist

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/dolmens/tansakuu/internal/codec"
)

// dirEntry describes one flushed skip-list block: the running totals at
// its start (exclusive of the block's own first entry) and at its end
// (inclusive of its last entry), plus where its encoded bytes live.
type dirEntry struct {
	prevKey, prevOffset, prevValue uint64
	lastKey, lastOffset, lastValue uint64
	dataOffset                    uint64 // byte offset of this block's bytes within the data section
	dataLen                       uint64
	count                          int
}

// SeekResult is the tuple spec.md §4.2 requires from Seek.
type SeekResult struct {
	Found            bool
	PrevKey          uint64
	BlockLastKey     uint64
	StartOffset      uint64
	EndOffset        uint64
	PrevValue        uint64 // valid only when the skip list carries a value channel
	SkippedItemCount int
}

// ---- Persistent writer (used by the serializer/merger; no concurrency) ----

// Writer accumulates skip entries and produces the on-disk bytes for one
// term's skip list region. A Writer is not safe for concurrent use; the
// serializer and merger each own one writer per term, used by a single
// goroutine.
type Writer struct {
	hasValue bool

	pendingKeys    []uint64
	pendingOffsets []uint64
	pendingValues  []uint64

	prevKey, prevOffset, prevValue uint64

	blocks []blockBytes
	dirs   []dirEntry

	dataLen uint64
}

type blockBytes struct {
	data []byte
}

// NewWriter returns a writer for a skip list that optionally carries a
// value channel (doc-list skip lists feeding ttf do; position-list skip
// lists do not).
func NewWriter(hasValue bool) *Writer {
	return &Writer{hasValue: hasValue}
}

// Append records one skip entry: key must be strictly greater than the
// previously appended key.
func (w *Writer) Append(key, offset, value uint64) {
	w.pendingKeys = append(w.pendingKeys, key)
	w.pendingOffsets = append(w.pendingOffsets, offset)
	if w.hasValue {
		w.pendingValues = append(w.pendingValues, value)
	}
	if len(w.pendingKeys) == codec.BlockLen {
		w.flush()
	}
}

// Len reports how many entries have been appended so far (flushed or
// pending).
func (w *Writer) Len() int {
	n := len(w.pendingKeys)
	for _, d := range w.dirs {
		n += d.count
	}
	return n
}

func (w *Writer) flush() {
	if len(w.pendingKeys) == 0 {
		return
	}
	n := len(w.pendingKeys)
	keyDeltas := make([]uint64, n)
	offsetDeltas := make([]uint64, n)
	var valueDeltas []uint64
	if w.hasValue {
		valueDeltas = make([]uint64, n)
	}

	prevKey, prevOffset, prevValue := w.prevKey, w.prevOffset, w.prevValue
	for i := 0; i < n; i++ {
		keyDeltas[i] = w.pendingKeys[i] - prevKey
		offsetDeltas[i] = w.pendingOffsets[i] - prevOffset
		prevKey = w.pendingKeys[i]
		prevOffset = w.pendingOffsets[i]
		if w.hasValue {
			valueDeltas[i] = w.pendingValues[i] - prevValue
			prevValue = w.pendingValues[i]
		}
	}

	var buf []byte
	buf = codec.EncodeU64Block(keyDeltas, buf)
	buf = codec.EncodeU64Block(offsetDeltas, buf)
	if w.hasValue {
		buf = codec.EncodeU64Block(valueDeltas, buf)
	}

	d := dirEntry{
		prevKey:    w.prevKey,
		prevOffset: w.prevOffset,
		prevValue:  w.prevValue,
		lastKey:    prevKey,
		lastOffset: prevOffset,
		lastValue:  prevValue,
		dataOffset: w.dataLen,
		dataLen:    uint64(len(buf)),
		count:      n,
	}
	w.dirs = append(w.dirs, d)
	w.blocks = append(w.blocks, blockBytes{data: buf})
	w.dataLen += uint64(len(buf))

	w.prevKey, w.prevOffset, w.prevValue = prevKey, prevOffset, prevValue
	w.pendingKeys = w.pendingKeys[:0]
	w.pendingOffsets = w.pendingOffsets[:0]
	w.pendingValues = w.pendingValues[:0]
}

// Finish flushes any pending partial block and serializes the directory
// followed by the block data into a single contiguous byte slice, the
// exact bytes that belong in the `.skiplist` (or `.positions.skiplist`)
// file for this term.
func (w *Writer) Finish() []byte {
	w.flush()

	var out []byte
	var tmp [binary.MaxVarintLen64]byte

	putUvarint := func(v uint64) {
		n := binary.PutUvarint(tmp[:], v)
		out = append(out, tmp[:n]...)
	}

	putUvarint(uint64(len(w.dirs)))
	for _, d := range w.dirs {
		putUvarint(d.prevKey)
		putUvarint(d.prevOffset)
		if w.hasValue {
			putUvarint(d.prevValue)
		}
		putUvarint(d.lastKey)
		putUvarint(d.lastOffset)
		if w.hasValue {
			putUvarint(d.lastValue)
		}
		putUvarint(d.dataOffset)
		putUvarint(d.dataLen)
		putUvarint(uint64(d.count))
	}
	for _, b := range w.blocks {
		out = append(out, b.data...)
	}
	return out
}

// ---- Persistent reader ----

// Reader decodes a skip list region previously produced by Writer.Finish,
// given the byte slice that *is* that region (Directory.open_read already
// resolved the file; the caller slices out [start:end)).
type Reader struct {
	hasValue bool
	data     []byte
	dirs     []dirEntry
	dataBase int // byte offset in data where the block-bytes section starts
}

// NewReader parses the directory of data eagerly (cheap: one varint read
// per block boundary, and there are len(df)/BlockLen/BlockLen of them in
// the common case) and defers block payload decoding to Seek.
func NewReader(data []byte, hasValue bool) (*Reader, error) {
	r := &Reader{hasValue: hasValue, data: data}
	pos := 0
	numBlocks, n := binary.Uvarint(data[pos:])
	if n <= 0 {
		return nil, fmt.Errorf("skiplist: bad directory header")
	}
	pos += n
	r.dirs = make([]dirEntry, numBlocks)
	for i := range r.dirs {
		d := &r.dirs[i]
		d.prevKey, pos = readUvarint(data, pos)
		d.prevOffset, pos = readUvarint(data, pos)
		if hasValue {
			d.prevValue, pos = readUvarint(data, pos)
		}
		d.lastKey, pos = readUvarint(data, pos)
		d.lastOffset, pos = readUvarint(data, pos)
		if hasValue {
			d.lastValue, pos = readUvarint(data, pos)
		}
		d.dataOffset, pos = readUvarint(data, pos)
		d.dataLen, pos = readUvarint(data, pos)
		var count uint64
		count, pos = readUvarint(data, pos)
		d.count = int(count)
	}
	r.dataBase = pos
	return r, nil
}

func readUvarint(data []byte, pos int) (uint64, int) {
	v, n := binary.Uvarint(data[pos:])
	return v, pos + n
}

// Seek implements the contract in spec.md §4.2.
func (r *Reader) Seek(target uint64) (SeekResult, error) {
	idx := sort.Search(len(r.dirs), func(i int) bool {
		return r.dirs[i].lastKey >= target
	})
	if idx == len(r.dirs) {
		return SeekResult{}, nil
	}
	d := r.dirs[idx]
	blockData := r.data[r.dataBase+int(d.dataOffset) : r.dataBase+int(d.dataOffset)+int(d.dataLen)]

	keyDeltas := make([]uint64, d.count)
	n, err := codec.DecodeU64Block(blockData, d.count, keyDeltas)
	if err != nil {
		return SeekResult{}, err
	}
	offsetDeltas := make([]uint64, d.count)
	n2, err := codec.DecodeU64Block(blockData[n:], d.count, offsetDeltas)
	if err != nil {
		return SeekResult{}, err
	}
	var valueDeltas []uint64
	if r.hasValue {
		valueDeltas = make([]uint64, d.count)
		if _, err := decodeAt(blockData, n+n2, d.count, valueDeltas); err != nil {
			return SeekResult{}, err
		}
	}

	prevKey, prevOffset, prevValue := d.prevKey, d.prevOffset, d.prevValue
	for j := 0; j < d.count; j++ {
		key := prevKey + keyDeltas[j]
		offset := prevOffset + offsetDeltas[j]
		var value uint64
		if r.hasValue {
			value = prevValue + valueDeltas[j]
		}
		if key >= target {
			return SeekResult{
				Found:            true,
				PrevKey:          prevKey,
				BlockLastKey:     key,
				StartOffset:      prevOffset,
				EndOffset:        offset,
				PrevValue:        prevValue,
				SkippedItemCount: idx*codec.BlockLen + j,
			}, nil
		}
		prevKey, prevOffset, prevValue = key, offset, value
	}
	// Unreachable given d.lastKey >= target, but fall back defensively.
	return SeekResult{
		Found:            true,
		PrevKey:          d.prevKey,
		BlockLastKey:     d.lastKey,
		StartOffset:      d.prevOffset,
		EndOffset:        d.lastOffset,
		PrevValue:        d.prevValue,
		SkippedItemCount: idx*codec.BlockLen + d.count - 1,
	}, nil
}

// NumBlocks reports how many skip blocks exist, mostly for tests.
func (r *Reader) NumBlocks() int { return len(r.dirs) }

func decodeAt(data []byte, pos, n int, dst []uint64) (int, error) {
	return codec.DecodeU64Block(data[pos:], n, dst)
}
