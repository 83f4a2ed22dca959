package codec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeU32Block_RoundTrip(t *testing.T) {
	cases := [][]uint32{
		{},
		{0},
		{1, 2, 3},
		{0, 0xFF, 0x100, 0xFFFF, 0x10000, 0xFFFFFF, 0x1000000, 0xFFFFFFFF},
	}
	for _, src := range cases {
		out := EncodeU32Block(src, nil)
		require.Equal(t, EncodedU32BlockLen(src), len(out))
		dst := make([]uint32, len(src))
		n, err := DecodeU32Block(out, len(src), dst)
		require.NoError(t, err)
		require.Equal(t, len(out), n)
		require.Equal(t, src, dst)
	}
}

func TestEncodeDecodeU32Block_FullBlockRandom(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	src := make([]uint32, BlockLen)
	for i := range src {
		src[i] = r.Uint32() >> (r.Intn(4) * 8)
	}
	out := EncodeU32Block(src, nil)
	dst := make([]uint32, BlockLen)
	n, err := DecodeU32Block(out, BlockLen, dst)
	require.NoError(t, err)
	require.Equal(t, len(out), n)
	require.Equal(t, src, dst)
}

func TestEncodeDecodeU32Block_ShortTail(t *testing.T) {
	src := []uint32{10, 20, 30, 40, 50}
	out := EncodeU32Block(src, nil)
	dst := make([]uint32, len(src))
	n, err := DecodeU32Block(out, len(src), dst)
	require.NoError(t, err)
	require.Equal(t, n, len(out))
	require.Equal(t, src, dst)
}

func TestEncodeDecodeU8Block_RoundTrip(t *testing.T) {
	src := []uint8{0x01, 0xFF, 0x00, 0x80}
	out := EncodeU8Block(src, nil)
	require.Equal(t, src, []uint8(out))
	dst := make([]uint8, len(src))
	n, err := DecodeU8Block(out, len(src), dst)
	require.NoError(t, err)
	require.Equal(t, len(src), n)
	require.Equal(t, src, dst)
}

func TestEncodeDecodeU64Block_RoundTrip(t *testing.T) {
	src := []uint64{0, 1, 0xFFFFFFFF, 0x1FFFFFFFFF, 0xFFFFFFFFFFFFFFFF, 300}
	out := EncodeU64Block(src, nil)
	require.Equal(t, EncodedU64BlockLen(src), len(out))
	dst := make([]uint64, len(src))
	n, err := DecodeU64Block(out, len(src), dst)
	require.NoError(t, err)
	require.Equal(t, len(out), n)
	require.Equal(t, src, dst)
}

func TestDecodeU32Block_Truncated(t *testing.T) {
	src := []uint32{1, 2, 3, 4, 5}
	out := EncodeU32Block(src, nil)
	dst := make([]uint32, len(src))
	_, err := DecodeU32Block(out[:len(out)-1], len(src), dst)
	require.Error(t, err)
}
