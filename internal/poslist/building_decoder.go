package poslist

import (
	"github.com/dolmens/tansakuu/internal/codec"
)

// BuildingDecoder decodes a term's position list straight out of its
// BuildingEncoder, following the same flush_info acquire protocol as
// doclist.BuildingDecoder.
type BuildingDecoder struct {
	enc *BuildingEncoder

	pos       int
	data      []byte
	fromChain bool
	decoded   int

	block Block
}

// NewBuildingDecoder returns a decoder over enc.
func NewBuildingDecoder(enc *BuildingEncoder) *BuildingDecoder {
	return &BuildingDecoder{enc: enc}
}

// DecodePositionBuffer mirrors Decoder.DecodePositionBuffer over the
// building encoder's current state.
func (d *BuildingDecoder) DecodePositionBuffer(fromTtf uint64) (bool, error) {
	e := d.enc
	flushInfoSnapshot := e.flushInfo.Load()
	flushedCount, bufferLen := unpackFlushInfo(flushInfoSnapshot)

	sk := e.skip.Load()
	if sk != nil {
		res, err := sk.BuildingSeek(fromTtf)
		if err != nil {
			return false, err
		}
		if res.Found {
			startTtf := uint64(res.SkippedItemCount) * codec.BlockLen
			ttf := flushedCount + uint64(bufferLen)
			blockLen := codec.BlockLen
			if remaining := int(ttf) - int(startTtf); remaining < blockLen {
				blockLen = remaining
			}
			data := e.chain.ReadAt(res.StartOffset, res.EndOffset)
			return d.decodeAt(data, blockLen, startTtf, true)
		}
		return d.decodeHotBuffer(e, bufferLen, flushedCount)
	}

	if flushedCount == 0 {
		return d.decodeHotBuffer(e, bufferLen, 0)
	}
	// sk == nil means a skip list has not been materialized yet, which only
	// happens before a second block is flushed: the single flushed block
	// holds exactly flushedCount positions.
	if fromTtf < flushedCount {
		data := e.chain.ReadAt(0, e.chain.TotalSize())
		return d.decodeAt(data, int(flushedCount), 0, true)
	}
	return d.decodeHotBuffer(e, bufferLen, flushedCount)
}

// DecodeNextRecord advances one block past the one last decoded. A building
// posting has no stable byte layout to walk blindly (blocks live in
// separate chain nodes), so this simply re-resolves the next block's
// location through the same acquire-snapshot path DecodePositionBuffer
// uses, keyed off how many positions have been decoded so far. The hot
// buffer is always the tail of the list, so once it has been decoded there
// is no next record.
func (d *BuildingDecoder) DecodeNextRecord() (bool, error) {
	if d.decoded > 0 && !d.fromChain {
		return false, nil
	}
	return d.DecodePositionBuffer(uint64(d.decoded))
}

func (d *BuildingDecoder) decodeAt(data []byte, n int, startTtf uint64, fromChain bool) (bool, error) {
	deltas := make([]uint32, n)
	consumed, err := codec.DecodeU32Block(data, n, deltas)
	if err != nil {
		return false, err
	}
	d.data = data
	d.pos = consumed
	d.fromChain = fromChain
	d.decoded = int(startTtf) + n
	d.block = Block{PositionDeltas: deltas, StartTtf: startTtf, Len: n}
	return true, nil
}

func (d *BuildingDecoder) decodeHotBuffer(e *BuildingEncoder, bufferLen int, startTtf uint64) (bool, error) {
	if bufferLen == 0 {
		return false, nil
	}
	local := make([]uint32, bufferLen)
	copy(local, e.positions[:bufferLen])
	d.fromChain = false
	d.decoded = int(startTtf) + bufferLen
	d.block = Block{PositionDeltas: local, StartTtf: startTtf, Len: bufferLen}
	return true, nil
}

// Block returns the most recently decoded position-list block.
func (d *BuildingDecoder) Block() *Block { return &d.block }
