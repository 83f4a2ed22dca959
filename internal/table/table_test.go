package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/posting"
	"github.com/dolmens/tansakuu/internal/segment"
)

func TestNewDataStartsEmpty(t *testing.T) {
	d := NewData()
	snap := d.Load()
	require.Empty(t, snap.Segments())
	require.Nil(t, d.TailBuildingSegment())
	require.Equal(t, docid.DocId(0), d.NextBaseDocId())
}

func TestPublishIsVisibleToReaders(t *testing.T) {
	d := NewData()
	persistent := segment.NewPersistentSegment(0, 10, nil)
	building := segment.NewBuildingSegment(10, []string{"body"}, map[string]posting.Format{"body": {HasTf: true}})

	d.Publish(&Snapshot{
		Persistent: []*segment.PersistentSegment{persistent},
		Building:   []*segment.BuildingSegment{building},
	})

	snap := d.Load()
	require.Len(t, snap.Segments(), 2)
	require.Same(t, building, d.TailBuildingSegment())
}

func TestNextBaseDocIdAccountsForLiveDocCount(t *testing.T) {
	d := NewData()
	persistent := segment.NewPersistentSegment(0, 100, nil)
	building := segment.NewBuildingSegment(100, []string{"body"}, map[string]posting.Format{"body": {HasTf: true}})
	building.EndDoc()
	building.EndDoc()
	building.EndDoc()

	d.Publish(&Snapshot{
		Persistent: []*segment.PersistentSegment{persistent},
		Building:   []*segment.BuildingSegment{building},
	})

	require.Equal(t, docid.DocId(103), d.NextBaseDocId())
}

// A stale reader holding an older snapshot must never observe a Publish
// issued after it took that snapshot.
func TestLoadReturnsConsistentSnapshotAcrossPublish(t *testing.T) {
	d := NewData()
	first := segment.NewPersistentSegment(0, 5, nil)
	d.Publish(&Snapshot{Persistent: []*segment.PersistentSegment{first}})

	held := d.Load()

	second := segment.NewPersistentSegment(5, 5, nil)
	d.Publish(&Snapshot{Persistent: []*segment.PersistentSegment{first, second}})

	require.Len(t, held.Segments(), 1)
	require.Len(t, d.Load().Segments(), 2)
}
