package doclist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/skiplist"
)

func TestWriterDecoderShortListRoundTrip(t *testing.T) {
	format := Format{HasTf: true, HasFieldmask: true}
	w := NewWriter(format)
	w.AddPos(0)
	w.AddPos(1)
	w.EndDoc(0)
	w.AddPos(2)
	w.EndDoc(5)
	w.Flush()

	require.False(t, w.HasSkipList())
	require.EqualValues(t, 2, w.Df())
	require.EqualValues(t, 3, w.TotalTf())

	dec := NewDecoder(format, w.WrittenBytes(), nil, w.Df())
	found, err := dec.DecodeDocBuffer(0)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, docid.DocId(5), dec.Block().LastDocId)

	require.NoError(t, dec.DecodeTfBuffer())
	require.Equal(t, []uint32{2, 1}, dec.Block().Tfs)
	require.NoError(t, dec.DecodeFieldmaskBuffer())
	require.Equal(t, []uint8{3, 4}, dec.Block().Fieldmasks)
}

// A 261-docid posting (2 full blocks plus a trailing partial block) must
// build a skip list and let the decoder seek directly into the third block
// without decoding the first two, per spec.md §8's seal/reload scenario.
func TestWriterDecoderLongListSkipAssistedSeek(t *testing.T) {
	format := Format{HasTf: true}
	w := NewWriter(format)
	total := 261
	for i := 0; i < total; i++ {
		w.AddPos(0)
		w.EndDoc(docid.DocId(i))
	}
	w.Flush()

	require.True(t, w.HasSkipList())
	require.EqualValues(t, total, w.Df())

	reader, err := skiplist.NewReader(w.SkipListBytes(), true)
	require.NoError(t, err)

	dec := NewDecoder(format, w.WrittenBytes(), reader, w.Df())
	found, err := dec.DecodeDocBuffer(docid.DocId(260))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, docid.DocId(260), dec.Block().LastDocId)
	require.Equal(t, 5, dec.Block().Len) // 261 - 2*128 = 5

	require.NoError(t, dec.DecodeTfBuffer())
	for _, tf := range dec.Block().Tfs {
		require.EqualValues(t, 1, tf)
	}
}
