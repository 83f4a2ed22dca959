package registry

import (
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/require"

	"github.com/dolmens/tansakuu/internal/docid"
)

func fourSegmentRegistry() *SegmentRegistry {
	return NewSegmentRegistry([]SegmentRange{
		{BaseDocId: 0, DocCount: 100},
		{BaseDocId: 100, DocCount: 50},
		{BaseDocId: 150, DocCount: 200},
		{BaseDocId: 350, DocCount: 25},
	})
}

func TestAllDocsPostingIteratorCrossesSegmentBoundaries(t *testing.T) {
	r := fourSegmentRegistry()
	require.EqualValues(t, 375, r.TotalDocCount())

	it := NewAllDocsPostingIterator(r)
	require.Equal(t, docid.DocId(0), it.Seek(0))
	require.Equal(t, docid.DocId(99), it.Seek(99))
	require.Equal(t, docid.DocId(100), it.Seek(100))
	require.Equal(t, docid.DocId(349), it.Seek(349))
	require.Equal(t, docid.DocId(374), it.Seek(374))
	require.Equal(t, docid.EndDocId, it.Seek(375))
}

// Nullable-bitset negation: 5 docs are null in the first segment and 3 in
// the third, per spec.md §8's boundary scenario. NegatedPostingIterator must
// skip exactly those 8 docids, in order, across segment boundaries.
func TestNegatedPostingIteratorSkipsNullDocs(t *testing.T) {
	r := fourSegmentRegistry()
	nulls := roaring.New()
	for _, d := range []uint32{2, 7, 13, 40, 99} { // 5 nulls in segment 0
		nulls.Add(d)
	}
	for _, d := range []uint32{150, 200, 349} { // 3 nulls in segment 2
		nulls.Add(d)
	}

	it := NewNegatedPostingIterator(r, nulls)

	var got []docid.DocId
	d := docid.DocId(0)
	for {
		next := it.Seek(d)
		if next == docid.EndDocId {
			break
		}
		got = append(got, next)
		d = next + 1
	}

	require.Len(t, got, int(r.TotalDocCount())-8)
	for _, excluded := range []docid.DocId{2, 7, 13, 40, 99, 150, 200, 349} {
		require.NotContains(t, got, excluded)
	}
	require.Equal(t, docid.DocId(0), got[0])
	require.Equal(t, docid.DocId(374), got[len(got)-1])
}

func TestAndNotPostingIterator(t *testing.T) {
	a := roaring.New()
	a.AddMany([]uint32{1, 2, 3, 4, 5})
	b := roaring.New()
	b.AddMany([]uint32{2, 4})

	it := NewAndNotPostingIterator(a, b, 10)
	require.Equal(t, docid.DocId(1), it.Seek(0))
	require.Equal(t, docid.DocId(3), it.Seek(2))
	require.Equal(t, docid.DocId(5), it.Seek(4))
	require.Equal(t, docid.EndDocId, it.Seek(6))
}
