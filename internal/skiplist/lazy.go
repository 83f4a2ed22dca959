package skiplist

import "sync/atomic"

// Doc-list and position-list skip lists are not created until the owning
// posting has grown past one block (spec.md §3: "a building skip list: one
// entry per flushed block, produced lazily only when the posting has
// exceeded MAX_UNCOMPRESSED_DOC_LIST_LEN (128)"). Concretely this means the
// first flushed block's own boundary is held back (not yet known to need an
// entry) until a second block is flushed, at which point both the first
// block's retroactive entry and the second block's entry are appended to a
// newly-created skip list.

type boundary struct {
	key, offset, value uint64
}

// LazyWriter wraps a persistent Writer, deferring its creation until a
// second block is flushed. Used by the serializer/merger's doc-list and
// position-list encoders, which run single-threaded.
type LazyWriter struct {
	hasValue bool
	w        *Writer
	pending  *boundary
}

func NewLazyWriter(hasValue bool) *LazyWriter {
	return &LazyWriter{hasValue: hasValue}
}

// Record is called once per flushed block with that block's own boundary
// values.
func (b *LazyWriter) Record(key, offset, value uint64) {
	if b.w == nil {
		if b.pending == nil {
			p := boundary{key, offset, value}
			b.pending = &p
			return
		}
		b.w = NewWriter(b.hasValue)
		b.w.Append(b.pending.key, b.pending.offset, b.pending.value)
		b.pending = nil
	}
	b.w.Append(key, offset, value)
}

// Exists reports whether a skip list has actually been materialized (i.e.
// more than one block has ever been flushed).
func (b *LazyWriter) Exists() bool { return b.w != nil }

// Finish returns the serialized skip list bytes, or nil if Exists is false.
func (b *LazyWriter) Finish() []byte {
	if b.w == nil {
		return nil
	}
	return b.w.Finish()
}

// LazyBuildingList is the building-segment analog of LazyWriter: it
// publishes a *BuildingList pointer only once a second block is flushed, so
// a concurrent reader can tell "still short-list" (nil) from "long-list,
// skip list active" (non-nil) with a single atomic load.
type LazyBuildingList struct {
	hasValue bool
	list     atomic.Pointer[BuildingList] // published once, on first second-block flush
	pending  *boundary                    // writer-only
}

func NewLazyBuildingList(hasValue bool) *LazyBuildingList {
	return &LazyBuildingList{hasValue: hasValue}
}

// Record is writer-only, called once per flushed block with that block's
// own boundary values.
func (b *LazyBuildingList) Record(key, offset, value uint64) {
	l := b.list.Load()
	if l == nil {
		if b.pending == nil {
			p := boundary{key, offset, value}
			b.pending = &p
			return
		}
		l = NewBuildingList(b.hasValue)
		l.Append(b.pending.key, b.pending.offset, b.pending.value)
		b.pending = nil
		b.list.Store(l)
	}
	l.Append(key, offset, value)
}

// Load returns the current building skip list, or nil if still in
// short-list mode. Safe to call from any reader goroutine: the pointer is
// published with a release store in Record and observed here with an
// acquire load, so a reader that sees a non-nil list also sees the first
// Append the writer made to it.
func (b *LazyBuildingList) Load() *BuildingList { return b.list.Load() }
