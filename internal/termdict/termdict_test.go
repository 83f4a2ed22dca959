package termdict

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w, err := NewWriter()
	require.NoError(t, err)

	infos := map[uint64]TermInfo{
		1: {Df: 3, DocListStart: 0, DocListEnd: 10, Ttf: 7},
		5: {Df: 1, DocListStart: 10, DocListEnd: 12, Ttf: 1},
		9: {Df: 2, DocListStart: 12, DocListEnd: 20, Ttf: 4, PositionListStart: 0, PositionListEnd: 6},
	}
	for _, key := range []uint64{1, 5, 9} {
		require.NoError(t, w.Insert(key, infos[key]))
	}

	fstBytes, sideBytes, err := w.Finish()
	require.NoError(t, err)

	r, err := NewReader(fstBytes, sideBytes)
	require.NoError(t, err)

	for _, key := range []uint64{1, 5, 9} {
		got, found, err := r.Get(key)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, infos[key], got)
	}

	_, found, err := r.Get(2)
	require.NoError(t, err)
	require.False(t, found)
}

func TestIteratorScansInKeyOrder(t *testing.T) {
	w, err := NewWriter()
	require.NoError(t, err)
	require.NoError(t, w.Insert(2, TermInfo{Df: 1}))
	require.NoError(t, w.Insert(4, TermInfo{Df: 2}))
	require.NoError(t, w.Insert(6, TermInfo{Df: 3}))

	fstBytes, sideBytes, err := w.Finish()
	require.NoError(t, err)

	r, err := NewReader(fstBytes, sideBytes)
	require.NoError(t, err)

	it, err := r.Iter()
	require.NoError(t, err)

	var keys []uint64
	for !it.Done() {
		keyBytes, offset := it.Current()
		var key uint64
		for _, b := range keyBytes {
			key = key<<8 | uint64(b)
		}
		keys = append(keys, key)
		ti, err := r.TermInfoAt(offset)
		require.NoError(t, err)
		require.EqualValues(t, key/2, ti.Df)
		require.NoError(t, it.Next())
	}
	require.Equal(t, []uint64{2, 4, 6}, keys)
}
