package poslist

import (
	"github.com/dolmens/tansakuu/internal/codec"
	"github.com/dolmens/tansakuu/internal/skiplist"
)

// Decoder implements spec.md §4.5's decode_position_buffer/decode_next_record
// over an already-resident byte slice: the position-list byte range for one
// term, sliced out by the caller using that term's TermInfo. skip is nil
// for ttf <= codec.BlockLen.
type Decoder struct {
	data []byte
	skip *skiplist.Reader
	ttf  uint64

	pos     int
	decoded int // total positions decoded so far, for computing decode_next_record's length
	block   Block
}

// NewDecoder returns a decoder for one term's position-list region.
func NewDecoder(data []byte, skip *skiplist.Reader, ttf uint64) *Decoder {
	return &Decoder{data: data, skip: skip, ttf: ttf}
}

// DecodePositionBuffer implements decode_position_buffer: seeks to the
// block containing fromTtf and decodes it.
func (d *Decoder) DecodePositionBuffer(fromTtf uint64) (bool, error) {
	if d.skip == nil {
		if fromTtf >= d.ttf {
			return false, nil
		}
		n := int(d.ttf)
		return d.decodeAt(0, n, 0)
	}
	res, err := d.skip.Seek(fromTtf)
	if err != nil {
		return false, err
	}
	if !res.Found {
		return false, nil
	}
	startTtf := uint64(res.SkippedItemCount) * codec.BlockLen
	blockLen := codec.BlockLen
	if remaining := int(d.ttf) - int(startTtf); remaining < blockLen {
		blockLen = remaining
	}
	return d.decodeAt(int(res.StartOffset), blockLen, startTtf)
}

// DecodeNextRecord advances one block sequentially from the current byte
// cursor, without consulting the skip list.
func (d *Decoder) DecodeNextRecord() (bool, error) {
	startTtf := uint64(d.decoded)
	if startTtf >= d.ttf {
		return false, nil
	}
	blockLen := codec.BlockLen
	if remaining := int(d.ttf) - int(startTtf); remaining < blockLen {
		blockLen = remaining
	}
	return d.decodeAt(d.pos, blockLen, startTtf)
}

func (d *Decoder) decodeAt(offset, n int, startTtf uint64) (bool, error) {
	deltas := make([]uint32, n)
	consumed, err := codec.DecodeU32Block(d.data[offset:], n, deltas)
	if err != nil {
		return false, err
	}
	d.pos = offset + consumed
	d.decoded = int(startTtf) + n
	d.block = Block{PositionDeltas: deltas, StartTtf: startTtf, Len: n}
	return true, nil
}

// Block returns the most recently decoded position-list block.
func (d *Decoder) Block() *Block { return &d.block }
