package skiplist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderSeekFindsContainingBlock(t *testing.T) {
	w := NewWriter(true)
	// 3 blocks worth of entries: keys 1..300 step 1, one entry per doc,
	// values tracking ttf.
	for i := uint64(1); i <= 300; i++ {
		w.Append(i, i*2, i*3)
	}
	data := w.Finish()

	r, err := NewReader(data, true)
	require.NoError(t, err)
	require.Equal(t, 3, r.NumBlocks())

	res, err := r.Seek(150)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.GreaterOrEqual(t, res.BlockLastKey, uint64(150))
	require.Less(t, res.PrevKey, uint64(150))

	res, err = r.Seek(1000)
	require.NoError(t, err)
	require.False(t, res.Found)
}

func TestWriterReaderSeekFirstEntry(t *testing.T) {
	w := NewWriter(false)
	w.Append(5, 100, 0)
	w.Append(10, 200, 0)
	data := w.Finish()

	r, err := NewReader(data, false)
	require.NoError(t, err)

	res, err := r.Seek(0)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, uint64(5), res.BlockLastKey)
	require.Equal(t, uint64(0), res.PrevKey)
	require.Equal(t, uint64(0), res.StartOffset)
	require.Equal(t, uint64(100), res.EndOffset)
}

func TestBuildingListSeekAcrossFlushedAndHotBlocks(t *testing.T) {
	l := NewBuildingList(true)
	for i := uint64(0); i < 200; i++ {
		l.Append(i, i*10, i)
	}

	// First 128 entries flushed; remaining 72 still hot.
	res, err := l.BuildingSeek(50)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, uint64(50), res.BlockLastKey)

	res, err = l.BuildingSeek(150)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, uint64(150), res.BlockLastKey)

	res, err = l.BuildingSeek(500)
	require.NoError(t, err)
	require.False(t, res.Found)
}

func TestBuildingListLastBoundary(t *testing.T) {
	l := NewBuildingList(false)
	_, _, _, ok := l.LastBoundary()
	require.False(t, ok)

	for i := uint64(0); i < 128; i++ {
		l.Append(i, i, 0)
	}
	key, offset, _, ok := l.LastBoundary()
	require.True(t, ok)
	require.Equal(t, uint64(127), key)
	require.Equal(t, uint64(127), offset)
}
