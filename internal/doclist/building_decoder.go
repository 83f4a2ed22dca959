package doclist

import (
	"github.com/dolmens/tansakuu/internal/codec"
	"github.com/dolmens/tansakuu/internal/docid"
)

// BuildingDecoder decodes a term's doc list straight out of its
// BuildingEncoder, following the acquire protocol of spec.md §5: a
// flush_info snapshot is taken once per DecodeDocBuffer call, so a
// concurrent flush that happens afterwards is simply not observed by this
// call (the caller will see it on its next seek).
type BuildingDecoder struct {
	enc *BuildingEncoder

	pos       int
	data      []byte // the flushed block's bytes, when the current block came from the chain
	fromChain bool
	tfDecoded bool
	fmDecoded bool

	block Block
}

// NewBuildingDecoder returns a decoder over enc.
func NewBuildingDecoder(enc *BuildingEncoder) *BuildingDecoder {
	return &BuildingDecoder{enc: enc}
}

// DecodeDocBuffer mirrors doclist.Decoder.DecodeDocBuffer over the building
// encoder's current state.
func (d *BuildingDecoder) DecodeDocBuffer(target docid.DocId) (bool, error) {
	d.tfDecoded = false
	d.fmDecoded = false
	e := d.enc

	flushInfoSnapshot := e.flushInfo.Load()
	flushedDocCount, bufferLen := unpackFlushInfo(flushInfoSnapshot)

	sk := e.skip.Load()
	if sk != nil {
		res, err := sk.BuildingSeek(uint64(target))
		if err != nil {
			return false, err
		}
		if res.Found {
			return d.decodeChainBlock(res.StartOffset, res.EndOffset, res.PrevKey, res.PrevValue, res.SkippedItemCount)
		}
		// Beyond every flushed block: fall back to the hot buffer.
		baseKey, _, baseValue, _ := sk.LastBoundary()
		return d.decodeHotBuffer(e, target, bufferLen, docid.DocId(baseKey), baseValue)
	}

	if flushedDocCount == 0 {
		return d.decodeHotBuffer(e, target, bufferLen, 0, 0)
	}
	// sk == nil means a skip list has not been materialized yet, which only
	// happens before a second block is flushed (see LazyBuildingList): the
	// single flushed block holds exactly flushedDocCount docs.
	data := e.chain.ReadAt(0, e.chain.TotalSize())
	found, err := d.decodeChainBytes(data, int(flushedDocCount), 0, 0, 0)
	if err != nil {
		return false, err
	}
	if found && d.block.LastDocId >= target {
		return true, nil
	}
	return d.decodeHotBuffer(e, target, bufferLen, d.block.LastDocId, d.block.BaseTf+sumU32(d.block.Tfs))
}

func sumU32(vals []uint32) uint64 {
	var s uint64
	for _, v := range vals {
		s += uint64(v)
	}
	return s
}

func (d *BuildingDecoder) decodeChainBlock(startOffset, endOffset, prevKey, prevValue uint64, skippedItemCount int) (bool, error) {
	e := d.enc
	blockLen := codec.BlockLen
	if remaining := int(e.Df()) - skippedItemCount*codec.BlockLen; remaining < blockLen {
		blockLen = remaining
	}
	data := e.chain.ReadAt(startOffset, endOffset)
	return d.decodeChainBytes(data, blockLen, prevKey, prevValue, skippedItemCount)
}

func (d *BuildingDecoder) decodeChainBytes(data []byte, blockLen int, prevKey, prevValue uint64, skippedItemCount int) (bool, error) {
	e := d.enc
	deltas := make([]uint32, blockLen)
	consumed, err := codec.DecodeU32Block(data, blockLen, deltas)
	if err != nil {
		return false, err
	}
	d.data = data
	d.pos = consumed
	d.fromChain = true

	var sum uint32
	for _, delta := range deltas {
		sum += delta
	}
	d.block = Block{
		DocIdDeltas: deltas,
		BaseDocId:   docid.DocId(prevKey),
		LastDocId:   docid.DocId(prevKey) + docid.DocId(sum),
		BaseTf:      prevValue,
		Len:         blockLen,
	}
	if e.format.HasTf {
		// Eagerly decode tf here too, since the ttf base for a following
		// block (the no-skip-yet single-flushed-block case) is derived
		// from summing this block's tfs, not just its last docid.
		if err := d.DecodeTfBuffer(); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (d *BuildingDecoder) decodeHotBuffer(e *BuildingEncoder, target docid.DocId, bufferLen int, baseDocId docid.DocId, baseTf uint64) (bool, error) {
	localDeltas := make([]uint32, bufferLen)
	localTfs := make([]uint32, bufferLen)
	localFms := make([]uint8, bufferLen)
	copy(localDeltas, e.docIdDeltas[:bufferLen])
	if e.format.HasTf {
		copy(localTfs, e.tfs[:bufferLen])
	}
	if e.format.HasFieldmask {
		copy(localFms, e.fieldmasks[:bufferLen])
	}

	d.fromChain = false
	var sum uint32
	for _, delta := range localDeltas {
		sum += delta
	}
	d.block = Block{
		DocIdDeltas: localDeltas,
		Tfs:         localTfs,
		Fieldmasks:  localFms,
		BaseDocId:   baseDocId,
		LastDocId:   baseDocId + docid.DocId(sum),
		BaseTf:      baseTf,
		Len:         bufferLen,
	}
	d.tfDecoded = e.format.HasTf
	d.fmDecoded = e.format.HasFieldmask
	if bufferLen == 0 || d.block.LastDocId < target {
		return false, nil
	}
	return true, nil
}

// DecodeTfBuffer decodes the tf channel of the block last produced by
// DecodeDocBuffer, when the block came from the chain (hot-buffer blocks
// already have tf populated directly, no packed bytes to decode).
func (d *BuildingDecoder) DecodeTfBuffer() error {
	if !d.enc.format.HasTf || d.tfDecoded {
		return nil
	}
	if !d.fromChain {
		d.tfDecoded = true
		return nil
	}
	dst := make([]uint32, d.block.Len)
	n, err := codec.DecodeU32Block(d.data[d.pos:], d.block.Len, dst)
	if err != nil {
		return err
	}
	d.block.Tfs = dst
	d.pos += n
	d.tfDecoded = true
	return nil
}

// DecodeFieldmaskBuffer decodes the fieldmask channel of the current block.
func (d *BuildingDecoder) DecodeFieldmaskBuffer() error {
	if !d.enc.format.HasFieldmask || d.fmDecoded {
		return nil
	}
	if !d.fromChain {
		d.fmDecoded = true
		return nil
	}
	dst := make([]uint8, d.block.Len)
	n, err := codec.DecodeU8Block(d.data[d.pos:], d.block.Len, dst)
	if err != nil {
		return err
	}
	d.block.Fieldmasks = dst
	d.pos += n
	d.fmDecoded = true
	return nil
}

// Block returns the most recently decoded doc-list block.
func (d *BuildingDecoder) Block() *Block { return &d.block }
