package posting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolmens/tansakuu/internal/codec"
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/doclist"
	"github.com/dolmens/tansakuu/internal/poslist"
)

// Concurrent-reader-sees-prefix: a reader that snapshots flush_info before a
// writer appends a new document must observe only the prefix that existed
// at snapshot time, per spec.md §8's first boundary scenario.
func TestBuildingWriterConcurrentReaderSeesPrefix(t *testing.T) {
	format := Format{HasTf: true, HasFieldmask: true, HasPositions: true}
	w := NewBuildingWriter(format)

	w.AddPos(0, 0)
	w.AddPos(0, 1)
	w.AddPos(0, 2)
	w.EndDoc(0)

	docDec := doclist.NewBuildingDecoder(w.DocEncoder())
	found, err := docDec.DecodeDocBuffer(0)
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, docDec.DecodeTfBuffer())
	require.Equal(t, docid.DocId(0), docDec.Block().LastDocId)
	require.EqualValues(t, 3, docDec.Block().Tfs[0])

	w.AddPos(0, 0)
	w.AddPos(0, 1)
	w.AddPos(0, 2)
	w.AddPos(0, 3)
	w.EndDoc(1)
	w.AddPos(0, 0)
	w.AddPos(0, 1)
	w.AddPos(0, 2)
	w.AddPos(0, 3)
	w.AddPos(0, 4)
	w.EndDoc(2)

	// Two more documents were appended after the snapshot above was taken;
	// the already-taken snapshot must not reflect them.
	require.Equal(t, docid.DocId(0), docDec.Block().LastDocId)

	docDec2 := doclist.NewBuildingDecoder(w.DocEncoder())
	found, err = docDec2.DecodeDocBuffer(0)
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, docDec2.DecodeTfBuffer())
	require.Equal(t, docid.DocId(2), docDec2.Block().LastDocId)
	require.EqualValues(t, []uint32{3, 4, 5}, docDec2.Block().Tfs)

	posDec := poslist.NewBuildingDecoder(w.PosEncoder())
	ok, err := posDec.DecodePositionBuffer(0)
	require.NoError(t, err)
	require.True(t, ok)
	// Deltas reset per EndDoc: doc0 {0,1,2} -> [0,1,1], doc1 {0,1,2,3} ->
	// [0,1,1,1], doc2 {0,1,2,3,4} -> [0,1,1,1,1], all still hot-buffer
	// resident since Flush was never called.
	require.Equal(t, []uint32{0, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 1}, posDec.Block().PositionDeltas)
}

func buildTermPosting(t *testing.T, baseDocId docid.DocId, docs [][]uint32) SegmentPosting {
	t.Helper()
	format := Format{HasTf: true, HasFieldmask: true, HasPositions: true}
	w := NewBuildingWriter(format)
	var id docid.DocId
	for _, positions := range docs {
		for _, p := range positions {
			w.AddPos(0, p)
		}
		w.EndDoc(id)
		id++
	}
	w.Flush()

	return SegmentPosting{
		BaseDocId: baseDocId,
		Doc:       doclist.NewBuildingDecoder(w.DocEncoder()),
		Pos:       poslist.NewBuildingDecoder(w.PosEncoder()),
	}
}

// Two-building-segment multi-posting dedup: the same term appears in both
// segments, at local docids that translate to overlapping global docids; the
// merged iterator must yield each global docid once.
func TestMultiPostingIteratorDedupesAcrossSegments(t *testing.T) {
	// segA (base 0, local docids 0,1,2) covers globals {0,1,2}; segB (base
	// 1, local docids 0,1) covers globals {1,2}. The overlap at globals 1
	// and 2 must collapse to a single hit each in the merged stream.
	segA := buildTermPosting(t, 0, [][]uint32{{0}, {1}, {2}})
	segB := buildTermPosting(t, 1, [][]uint32{{0}, {1}})

	pA := NewBufferedPostingIterator([]SegmentPosting{segA}, true)
	pB := NewBufferedPostingIterator([]SegmentPosting{segB}, true)

	m := NewMultiPostingIterator([]*BufferedPostingIterator{pA, pB})

	var got []docid.DocId
	d := docid.DocId(0)
	for {
		next, err := m.Seek(d)
		require.NoError(t, err)
		if next == docid.EndDocId {
			break
		}
		got = append(got, next)
		d = next + 1
	}
	require.Equal(t, []docid.DocId{0, 1, 2}, got)
}

func TestBufferedPostingIteratorSeekPosAcrossDocuments(t *testing.T) {
	seg := buildTermPosting(t, 0, [][]uint32{{0, 5, 9}, {2, 4}})
	it := NewBufferedPostingIterator([]SegmentPosting{seg}, true)

	d, err := it.Seek(0)
	require.NoError(t, err)
	require.Equal(t, docid.DocId(0), d)
	p, err := it.SeekPos(0)
	require.NoError(t, err)
	require.EqualValues(t, 0, p)
	p, err = it.SeekPos(6)
	require.NoError(t, err)
	require.EqualValues(t, 9, p)
	p, err = it.SeekPos(10)
	require.NoError(t, err)
	require.Equal(t, uint32(docid.EndPosition), p)

	d, err = it.Seek(1)
	require.NoError(t, err)
	require.Equal(t, docid.DocId(1), d)
	p, err = it.SeekPos(0)
	require.NoError(t, err)
	require.EqualValues(t, 2, p)
}

// A document whose last position exactly fills the final slot of a flushed
// position block must still report EndPosition on its own, rather than
// spilling into the next physical block (which belongs to the following
// document).
func TestBufferedPostingIteratorSeekPosAtBlockBoundary(t *testing.T) {
	doc0 := make([]uint32, codec.BlockLen)
	for i := range doc0 {
		doc0[i] = uint32(i)
	}
	seg := buildTermPosting(t, 0, [][]uint32{doc0, {5}})
	it := NewBufferedPostingIterator([]SegmentPosting{seg}, true)

	d, err := it.Seek(0)
	require.NoError(t, err)
	require.Equal(t, docid.DocId(0), d)
	p, err := it.SeekPos(uint32(codec.BlockLen))
	require.NoError(t, err)
	require.Equal(t, uint32(docid.EndPosition), p)

	d, err = it.Seek(1)
	require.NoError(t, err)
	require.Equal(t, docid.DocId(1), d)
	p, err = it.SeekPos(0)
	require.NoError(t, err)
	require.EqualValues(t, 5, p)
}
