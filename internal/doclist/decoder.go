package doclist

import (
	"github.com/dolmens/tansakuu/internal/codec"
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/skiplist"
)

// Block is the parallel-array cache spec.md §4.7 keeps per active doc-list
// block: DocIdDeltas[0] is relative to BaseDocId, every following entry is
// relative to its predecessor's absolute docid.
type Block struct {
	DocIdDeltas []uint32
	Tfs         []uint32
	Fieldmasks  []uint8
	BaseDocId   docid.DocId
	LastDocId   docid.DocId
	BaseTf      uint64
	Len         int
}

// Decoder implements spec.md §4.4 over an already-resident byte slice: the
// doc-list byte range for one term, sliced out of the `.posting` file (or,
// for a persistent segment read through Directory, out of the mapped
// region) by the caller using that term's TermInfo. skip is nil for a short
// list (df <= 128); otherwise it is the term's `.skiplist` reader.
type Decoder struct {
	format Format
	data   []byte
	skip   *skiplist.Reader
	df     uint64

	pos              int // byte offset in data where the next undecoded channel starts
	tfDecoded        bool
	fmDecoded        bool
	shortListDecoded bool

	block Block
}

// NewDecoder returns a decoder for one term's doc-list region.
func NewDecoder(format Format, data []byte, skip *skiplist.Reader, df uint64) *Decoder {
	return &Decoder{format: format, data: data, skip: skip, df: df}
}

// DecodeDocBuffer implements spec.md §4.4's decode_doc_buffer: it returns
// false once the list is exhausted relative to target, true with d.Block()
// populated otherwise.
func (d *Decoder) DecodeDocBuffer(target docid.DocId) (bool, error) {
	d.tfDecoded = false
	d.fmDecoded = false

	if d.skip == nil {
		return d.decodeShortList(target)
	}
	return d.decodeLongListBlock(target)
}

func (d *Decoder) decodeShortList(target docid.DocId) (bool, error) {
	if d.shortListDecoded {
		return false, nil
	}
	n := int(d.df)
	deltas := make([]uint32, n)
	consumed, err := codec.DecodeU32Block(d.data, n, deltas)
	if err != nil {
		return false, err
	}
	d.shortListDecoded = true
	d.pos = consumed

	var sum uint32
	for _, delta := range deltas {
		sum += delta
	}
	d.block = Block{
		DocIdDeltas: deltas,
		BaseDocId:   0,
		LastDocId:   docid.DocId(sum),
		BaseTf:      0,
		Len:         n,
	}
	if docid.DocId(sum) < target {
		return false, nil
	}
	return true, nil
}

func (d *Decoder) decodeLongListBlock(target docid.DocId) (bool, error) {
	res, err := d.skip.Seek(uint64(target))
	if err != nil {
		return false, err
	}
	if !res.Found {
		return false, nil
	}
	blockLen := codec.BlockLen
	if remaining := int(d.df) - res.SkippedItemCount*codec.BlockLen; remaining < blockLen {
		blockLen = remaining
	}
	start := int(res.StartOffset)
	deltas := make([]uint32, blockLen)
	consumed, err := codec.DecodeU32Block(d.data[start:], blockLen, deltas)
	if err != nil {
		return false, err
	}
	d.pos = start + consumed
	d.block = Block{
		DocIdDeltas: deltas,
		BaseDocId:   docid.DocId(res.PrevKey),
		LastDocId:   docid.DocId(res.BlockLastKey),
		BaseTf:      res.PrevValue,
		Len:         blockLen,
	}
	return true, nil
}

// DecodeTfBuffer decodes the tf channel of the block last produced by
// DecodeDocBuffer, if the format carries one. Must be called before
// DecodeFieldmaskBuffer since both share the same byte cursor.
func (d *Decoder) DecodeTfBuffer() error {
	if !d.format.HasTf || d.tfDecoded {
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

// DecodeFieldmaskBuffer decodes the fieldmask channel of the current block,
// if the format carries one.
func (d *Decoder) DecodeFieldmaskBuffer() error {
	if !d.format.HasFieldmask || d.fmDecoded {
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
func (d *Decoder) Block() *Block { return &d.block }
