package docid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelsAreDistinctFromOrdinaryIds(t *testing.T) {
	require.NotEqual(t, InvalidDocId, EndDocId)
	require.Greater(t, uint32(InvalidDocId), uint32(1<<20))
	require.Greater(t, uint32(EndDocId), uint32(1<<20))
	require.Less(t, DocId(0), InvalidDocId)
	require.Less(t, DocId(0), EndDocId)
}
