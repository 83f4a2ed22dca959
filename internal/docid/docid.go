// Package docid defines the global document identifier type and its
// sentinel values, shared by every package in the posting list core.
package docid

// DocId is a 32-bit global identifier assigned monotonically at ingest.
type DocId uint32

const (
	// InvalidDocId marks the pre-seek state of an iterator: seek has never
	// been called.
	InvalidDocId DocId = 1<<32 - 1
	// EndDocId marks an exhausted iterator. Distinct from InvalidDocId so
	// callers can tell "never seeked" apart from "ran out of postings".
	EndDocId DocId = 1<<32 - 2
)

// EndPosition marks an exhausted seek_pos stream.
const EndPosition uint32 = 1<<32 - 1
