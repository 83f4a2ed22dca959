// Package codec implements the block codec described in the core's design:
// a group-varint encoding for blocks of up to BlockLen uint32 values (doc
// deltas, term frequencies, skip-list keys/offsets) and a plain byte-copy
// codec for blocks of uint8 values (fieldmasks). Both codecs operate on
// already-resident byte slices rather than io.Reader/io.Writer, mirroring
// the Directory contract's "byte slice (random-access)" read surface.
//
// The framing (a compact per-group header followed by packed payload bytes)
// follows the same shape as the chunked coders in blugelabs/ice
// (vendor/github.com/blugelabs/ice/v2/intdecoder.go,
// vendor/github.com/blugelabs/ice/v2/documentcoder.go): a small header
// upfront, then tightly packed values, decoded into a caller-provided
// buffer of known length.
package codec

import "fmt"

// BlockLen is the fixed block size used throughout the core: doc-list
// blocks, position-list blocks, and skip-list blocks are all at most this
// many elements.
const BlockLen = 128

// groupSize is the number of values covered by a single group-varint
// header byte (4 values, 2 bits of byte-width each).
const groupSize = 4

// EncodeU32Block appends the group-varint encoding of src (len(src) <=
// BlockLen) to out and returns the extended slice. Each group of 4 values
// is prefixed by one header byte whose 2-bit fields record the byte-width
// (1..4) used for each value in the group; the last, possibly short, group
// is padded with zero values for framing purposes only (decode is told the
// true element count out of band and never reads past it).
func EncodeU32Block(src []uint32, out []byte) []byte {
	for i := 0; i < len(src); i += groupSize {
		var group [groupSize]uint32
		n := copy(group[:], src[i:])
		var header byte
		for j := 0; j < groupSize; j++ {
			width := byteWidth(group[j])
			header |= byte(width-1) << (uint(j) * 2)
		}
		out = append(out, header)
		for j := 0; j < n; j++ {
			width := byteWidth(group[j])
			out = appendLittleEndian(out, group[j], width)
		}
	}
	return out
}

// DecodeU32Block decodes exactly n values from data (starting at offset 0)
// into dst[:n] and returns the number of bytes consumed.
func DecodeU32Block(data []byte, n int, dst []uint32) (consumed int, err error) {
	if n > len(dst) {
		return 0, fmt.Errorf("codec: dst too small for %d values", n)
	}
	pos := 0
	for i := 0; i < n; i += groupSize {
		if pos >= len(data) {
			return 0, fmt.Errorf("codec: truncated block header at group %d", i/groupSize)
		}
		header := data[pos]
		pos++
		remaining := n - i
		if remaining > groupSize {
			remaining = groupSize
		}
		for j := 0; j < remaining; j++ {
			width := int((header>>(uint(j)*2))&0x3) + 1
			v, err := readLittleEndian(data, pos, width)
			if err != nil {
				return 0, err
			}
			dst[i+j] = v
			pos += width
		}
	}
	return pos, nil
}

// EncodedU32BlockLen returns the number of bytes EncodeU32Block would
// produce for src, without allocating.
func EncodedU32BlockLen(src []uint32) int {
	n := 0
	for i := 0; i < len(src); i += groupSize {
		n++ // header byte
		end := i + groupSize
		if end > len(src) {
			end = len(src)
		}
		for _, v := range src[i:end] {
			n += byteWidth(v)
		}
	}
	return n
}

func byteWidth(v uint32) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFF:
		return 3
	default:
		return 4
	}
}

func appendLittleEndian(out []byte, v uint32, width int) []byte {
	for i := 0; i < width; i++ {
		out = append(out, byte(v>>(uint(i)*8)))
	}
	return out
}

func readLittleEndian(data []byte, pos, width int) (uint32, error) {
	if pos+width > len(data) {
		return 0, fmt.Errorf("codec: truncated value at offset %d width %d", pos, width)
	}
	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(data[pos+i]) << (uint(i) * 8)
	}
	return v, nil
}

// EncodeU8Block appends the raw bytes of src to out. A block of at most
// BlockLen uint8 values (fieldmasks) never exceeds one byte per value, so
// no packing header is needed.
func EncodeU8Block(src []uint8, out []byte) []byte {
	return append(out, src...)
}

// DecodeU8Block decodes exactly n values from data into dst[:n] and returns
// the number of bytes consumed (== n).
func DecodeU8Block(data []byte, n int, dst []uint8) (consumed int, err error) {
	if n > len(dst) || n > len(data) {
		return 0, fmt.Errorf("codec: truncated fieldmask block, want %d have %d", n, len(data))
	}
	copy(dst[:n], data[:n])
	return n, nil
}

// u64GroupSize is smaller than the u32 group size because each header byte
// has room for only two 3-bit (width 1..8) fields plus two spare bits.
const u64GroupSize = 2

// EncodeU64Block appends the group-varint encoding of src (len(src) <=
// BlockLen) to out. Used for skip-list keys/offsets/values, which may
// exceed 32 bits for large posting files.
func EncodeU64Block(src []uint64, out []byte) []byte {
	for i := 0; i < len(src); i += u64GroupSize {
		var group [u64GroupSize]uint64
		n := copy(group[:], src[i:])
		var header byte
		for j := 0; j < u64GroupSize; j++ {
			width := byteWidth64(group[j])
			header |= byte(width-1) << (uint(j) * 3)
		}
		out = append(out, header)
		for j := 0; j < n; j++ {
			width := byteWidth64(group[j])
			out = appendLittleEndian64(out, group[j], width)
		}
	}
	return out
}

// DecodeU64Block decodes exactly n values from data into dst[:n] and
// returns the number of bytes consumed.
func DecodeU64Block(data []byte, n int, dst []uint64) (consumed int, err error) {
	if n > len(dst) {
		return 0, fmt.Errorf("codec: dst too small for %d values", n)
	}
	pos := 0
	for i := 0; i < n; i += u64GroupSize {
		if pos >= len(data) {
			return 0, fmt.Errorf("codec: truncated u64 block header at group %d", i/u64GroupSize)
		}
		header := data[pos]
		pos++
		remaining := n - i
		if remaining > u64GroupSize {
			remaining = u64GroupSize
		}
		for j := 0; j < remaining; j++ {
			width := int((header>>(uint(j)*3))&0x7) + 1
			v, err := readLittleEndian64(data, pos, width)
			if err != nil {
				return 0, err
			}
			dst[i+j] = v
			pos += width
		}
	}
	return pos, nil
}

// EncodedU64BlockLen returns the number of bytes EncodeU64Block would
// produce for src.
func EncodedU64BlockLen(src []uint64) int {
	n := 0
	for i := 0; i < len(src); i += u64GroupSize {
		n++
		end := i + u64GroupSize
		if end > len(src) {
			end = len(src)
		}
		for _, v := range src[i:end] {
			n += byteWidth64(v)
		}
	}
	return n
}

func byteWidth64(v uint64) int {
	w := 1
	for v > 0xFF {
		v >>= 8
		w++
	}
	return w
}

func appendLittleEndian64(out []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		out = append(out, byte(v>>(uint(i)*8)))
	}
	return out
}

func readLittleEndian64(data []byte, pos, width int) (uint64, error) {
	if pos+width > len(data) {
		return 0, fmt.Errorf("codec: truncated value at offset %d width %d", pos, width)
	}
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(data[pos+i]) << (uint(i) * 8)
	}
	return v, nil
}
