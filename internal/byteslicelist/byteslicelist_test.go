package byteslicelist

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndReadAtWithinSingleNode(t *testing.T) {
	l := New()
	off := l.Append([]byte("hello"))
	require.EqualValues(t, 0, off)
	require.EqualValues(t, 5, l.TotalSize())
	require.Equal(t, []byte("hello"), l.ReadAt(0, 5))
	require.Equal(t, []byte("ell"), l.ReadAt(1, 4))
}

func TestReadAtSpanningMultipleNodes(t *testing.T) {
	l := New()
	l.Append([]byte("abc"))
	l.Append([]byte("def"))
	l.Append([]byte("ghi"))

	require.Equal(t, []byte("abcdefghi"), l.ReadAt(0, 9))
	require.Equal(t, []byte("cdefg"), l.ReadAt(2, 7))
}

func TestReadAtEmptyRange(t *testing.T) {
	l := New()
	l.Append([]byte("abc"))
	require.Nil(t, l.ReadAt(2, 2))
	require.Nil(t, l.ReadAt(3, 1))
}

// A reader that acquires TotalSize() before a concurrent Append must not
// observe the node that Append is still in the middle of publishing.
func TestConcurrentReadObservesOnlyPublishedPrefix(t *testing.T) {
	l := New()
	l.Append([]byte("first"))

	var wg sync.WaitGroup
	wg.Add(1)
	start := make(chan struct{})
	go func() {
		defer wg.Done()
		<-start
		l.Append([]byte("second"))
	}()

	snapshot := l.TotalSize()
	close(start)
	wg.Wait()

	require.EqualValues(t, 5, snapshot)
	require.Equal(t, []byte("first"), l.ReadAt(0, snapshot))
}
