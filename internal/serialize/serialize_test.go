package serialize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolmens/tansakuu/internal/directory"
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/posting"
	"github.com/dolmens/tansakuu/internal/segment"
)

func addDocs(w *posting.BuildingWriter, n int, positionsPerDoc int) {
	for d := 0; d < n; d++ {
		for p := 0; p < positionsPerDoc; p++ {
			w.AddPos(0, uint32(p*3))
		}
		w.SetFieldmask(0x1)
		w.EndDoc(docid.DocId(d))
	}
	w.Flush()
}

func TestSerializeIndexShortListRoundTrip(t *testing.T) {
	format := posting.Format{HasTf: true, HasFieldmask: true, HasPositions: true}
	w := posting.NewBuildingWriter(format)
	addDocs(w, 10, 2)

	terms := map[uint64]*posting.BuildingWriter{42: w}
	dir := directory.NewMemDirectory()

	idx, err := SerializeIndex(dir, "seg0", "body", format, terms, nil)
	require.NoError(t, err)

	doc, pos, ti, ok, err := OpenTermDecoders(idx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 10, ti.Df)

	seg := posting.SegmentPosting{BaseDocId: 0, Doc: doc, Pos: pos}
	it := posting.NewBufferedPostingIterator([]posting.SegmentPosting{seg}, true)

	for d := docid.DocId(0); d < 10; d++ {
		got, err := it.Seek(d)
		require.NoError(t, err)
		require.Equal(t, d, got)
		tf, err := it.CurrentTf()
		require.NoError(t, err)
		require.EqualValues(t, 2, tf)
		fm, err := it.CurrentFieldmask()
		require.NoError(t, err)
		require.EqualValues(t, 0x1, fm)
		p0, err := it.SeekPos(0)
		require.NoError(t, err)
		require.EqualValues(t, 0, p0)
		p1, err := it.SeekPos(p0+1)
		require.NoError(t, err)
		require.EqualValues(t, 3, p1)
	}
	end, err := it.Seek(10)
	require.NoError(t, err)
	require.Equal(t, docid.EndDocId, end)
}

func TestSerializeIndexLongListWithSkip(t *testing.T) {
	format := posting.Format{HasTf: true, HasFieldmask: false, HasPositions: false}
	w := posting.NewBuildingWriter(format)
	addDocs(w, 300, 1)

	terms := map[uint64]*posting.BuildingWriter{7: w}
	dir := directory.NewMemDirectory()

	idx, err := SerializeIndex(dir, "seg0", "tag", format, terms, nil)
	require.NoError(t, err)

	doc, _, ti, ok, err := OpenTermDecoders(idx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 300, ti.Df)

	seg := posting.SegmentPosting{BaseDocId: 0, Doc: doc}
	it := posting.NewBufferedPostingIterator([]posting.SegmentPosting{seg}, false)

	got, err := it.Seek(150)
	require.NoError(t, err)
	require.Equal(t, docid.DocId(150), got)

	got, err = it.Seek(299)
	require.NoError(t, err)
	require.Equal(t, docid.DocId(299), got)

	end, err := it.Seek(300)
	require.NoError(t, err)
	require.Equal(t, docid.EndDocId, end)
}

func TestSerializeIndexRemapDropsDeletedRows(t *testing.T) {
	format := posting.Format{HasTf: true}
	w := posting.NewBuildingWriter(format)
	addDocs(w, 5, 1)

	remap := DocIdMap{0, docid.InvalidDocId, 1, docid.InvalidDocId, 2}
	terms := map[uint64]*posting.BuildingWriter{1: w}
	dir := directory.NewMemDirectory()

	idx, err := SerializeIndex(dir, "seg0", "body", format, terms, remap)
	require.NoError(t, err)

	doc, _, ti, ok, err := OpenTermDecoders(idx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 3, ti.Df)

	seg := posting.SegmentPosting{BaseDocId: 0, Doc: doc}
	it := posting.NewBufferedPostingIterator([]posting.SegmentPosting{seg}, false)
	for _, want := range []docid.DocId{0, 1, 2} {
		got, err := it.Seek(want)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	end, err := it.Seek(3)
	require.NoError(t, err)
	require.Equal(t, docid.EndDocId, end)
}

func TestMergeIndexCombinesTwoSegments(t *testing.T) {
	format := posting.Format{HasTf: true}

	w1 := posting.NewBuildingWriter(format)
	addDocs(w1, 3, 1) // local docids 0,1,2
	dir1 := directory.NewMemDirectory()
	idx1, err := SerializeIndex(dir1, "seg0", "body", format, map[uint64]*posting.BuildingWriter{9: w1}, nil)
	require.NoError(t, err)

	w2 := posting.NewBuildingWriter(format)
	addDocs(w2, 2, 1) // local docids 0,1
	dir2 := directory.NewMemDirectory()
	idx2, err := SerializeIndex(dir2, "seg0", "body", format, map[uint64]*posting.BuildingWriter{9: w2}, nil)
	require.NoError(t, err)

	// Merge into a single segment: seg1's local docids {0,1,2} -> global
	// {0,1,2}; seg2's local docids {0,1} -> global {3,4}.
	mappings := []DocIdMap{
		{0, 1, 2},
		{3, 4},
	}
	merged := directory.NewMemDirectory()
	out, err := MergeIndex(merged, "merged", "body", format, []*segment.PersistentIndexData{idx1, idx2}, mappings)
	require.NoError(t, err)

	doc, _, ti, ok, err := OpenTermDecoders(out, 9)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 5, ti.Df)

	seg := posting.SegmentPosting{BaseDocId: 0, Doc: doc}
	it := posting.NewBufferedPostingIterator([]posting.SegmentPosting{seg}, false)
	for _, want := range []docid.DocId{0, 1, 2, 3, 4} {
		got, err := it.Seek(want)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	end, err := it.Seek(5)
	require.NoError(t, err)
	require.Equal(t, docid.EndDocId, end)
}
