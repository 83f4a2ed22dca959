// Package byteslicelist implements the append-only chain of heap-allocated
// byte slices that backs a building posting's flushed blocks (spec.md
// §3, "ByteSliceList"). A single writer goroutine appends whole encoded
// blocks; any number of reader goroutines may concurrently read previously
// published bytes without taking a lock.
//
// The chain is a singly-linked list of immutable nodes published through
// an atomic pointer, the same "publish a node, then advance" idiom
// documented for BuildingDocListBlock in spec.md §9: a reader that loads
// the head (or resumes from a node it already holds) and follows next
// pointers will never observe a partially-written node, because a node's
// payload is fully populated before the pointer that makes it reachable is
// stored.
package byteslicelist

import (
	"sync/atomic"
)

type node struct {
	data []byte
	next atomic.Pointer[node]
}

// List is an append-only chain of byte slices. The zero value is not
// usable; construct with New.
type List struct {
	head atomic.Pointer[node] // sentinel, never nil after New
	tail *node                // writer-only append cursor
	size atomic.Uint64        // total published bytes, released last
}

// New returns an empty list.
func New() *List {
	sentinel := &node{}
	l := &List{}
	l.head.Store(sentinel)
	l.tail = sentinel
	return l
}

// Append copies b into a new node at the end of the chain and returns the
// byte offset at which it starts. Must only be called by the single
// writer. Safe to call concurrently with any number of readers.
func (l *List) Append(b []byte) (offset uint64) {
	offset = l.size.Load()
	cp := make([]byte, len(b))
	copy(cp, b)
	n := &node{data: cp}
	l.tail.next.Store(n) // publish the node
	l.tail = n
	l.size.Store(offset + uint64(len(b))) // release: total_size publication
	return offset
}

// TotalSize returns the number of bytes published so far. A reader
// acquires this to know how much of the chain is safe to traverse.
func (l *List) TotalSize() uint64 {
	return l.size.Load()
}

// ReadAt returns a byte slice view of [start, end) across the chain. The
// caller must have already established (e.g. via a flush_info acquire
// load) that end <= TotalSize() at some point no earlier than this call.
// If the requested range happens to lie entirely within one node (the
// common case, since each Append writes one already-encoded block) no
// copy is made; a range spanning multiple nodes is copied into a fresh
// slice.
func (l *List) ReadAt(start, end uint64) []byte {
	if end <= start {
		return nil
	}
	var out []byte
	var pos uint64
	for n := l.head.Load().next.Load(); n != nil; n = n.next.Load() {
		nodeStart := pos
		nodeEnd := pos + uint64(len(n.data))
		pos = nodeEnd
		if nodeEnd <= start {
			continue
		}
		if nodeStart >= end {
			break
		}
		lo := uint64(0)
		if start > nodeStart {
			lo = start - nodeStart
		}
		hi := uint64(len(n.data))
		if end < nodeEnd {
			hi = end - nodeStart
		}
		segment := n.data[lo:hi]
		if out == nil && nodeStart <= start && nodeEnd >= end {
			// Entirely within this node: return a view, no copy.
			return segment
		}
		out = append(out, segment...)
		if pos >= end {
			break
		}
	}
	return out
}
