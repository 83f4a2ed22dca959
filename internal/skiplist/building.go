package skiplist

import (
	"sync/atomic"

	"github.com/dolmens/tansakuu/internal/byteslicelist"
	"github.com/dolmens/tansakuu/internal/codec"
)

// BuildingList is the building (in-memory, concurrently-readable) skip
// list described in spec.md §4.3's last paragraph: "one entry per flushed
// [doc-list] block, produced lazily only when the posting has exceeded
// MAX_UNCOMPRESSED_DOC_LIST_LEN." Its own hot block + flush_info
// publication mirrors doclist.BuildingEncoder's: the hot-block slots are
// plain arrays, published by a single flushInfo store rather than per-slot
// atomics.
type BuildingList struct {
	hasValue bool

	// Hot block: at most codec.BlockLen pending entries, written by the
	// single writer before the flushInfo release store that publishes
	// them.
	keys    [codec.BlockLen]uint64
	offsets [codec.BlockLen]uint64
	values  [codec.BlockLen]uint64

	// flushInfo packs (flushedBlockCount<<32 | bufferLen), the single
	// acquire/release publication point for the hot block above.
	flushInfo atomic.Uint64

	chain *byteslicelist.List

	// dir is published copy-on-write: each flush allocates a new backing
	// array (small; there is at most one flushed skip entry per 128*128
	// docs) and swaps the pointer after the corresponding chain.Append.
	dir atomic.Pointer[[]dirEntry]

	// Writer-only running state.
	prevKey, prevOffset, prevValue uint64
	bufferLen                      int
}

// NewBuildingList returns an empty building skip list.
func NewBuildingList(hasValue bool) *BuildingList {
	l := &BuildingList{hasValue: hasValue, chain: byteslicelist.New()}
	empty := []dirEntry{}
	l.dir.Store(&empty)
	return l
}

func packFlushInfo(flushedCount uint64, bufferLen int) uint64 {
	return flushedCount<<32 | uint64(uint32(bufferLen))
}

func unpackFlushInfo(v uint64) (flushedCount uint64, bufferLen int) {
	return v >> 32, int(uint32(v))
}

// Append records one skip entry. Only the single writer goroutine may call
// this.
func (l *BuildingList) Append(key, offset, value uint64) {
	l.keys[l.bufferLen] = key - l.prevKey
	l.offsets[l.bufferLen] = offset - l.prevOffset
	if l.hasValue {
		l.values[l.bufferLen] = value - l.prevValue
	}
	l.prevKey, l.prevOffset, l.prevValue = key, offset, value
	l.bufferLen++
	flushedCount, _ := unpackFlushInfo(l.flushInfo.Load())
	l.flushInfo.Store(packFlushInfo(flushedCount, l.bufferLen))
	if l.bufferLen == codec.BlockLen {
		l.flushBuffer()
	}
}

func (l *BuildingList) flushBuffer() {
	if l.bufferLen == 0 {
		return
	}
	n := l.bufferLen
	var buf []byte
	buf = codec.EncodeU64Block(l.keys[:n], buf)
	buf = codec.EncodeU64Block(l.offsets[:n], buf)
	if l.hasValue {
		buf = codec.EncodeU64Block(l.values[:n], buf)
	}

	flushedCount, _ := unpackFlushInfo(l.flushInfo.Load())

	oldDir := *l.dir.Load()
	var base dirEntry
	if len(oldDir) > 0 {
		last := oldDir[len(oldDir)-1]
		base = dirEntry{prevKey: last.lastKey, prevOffset: last.lastOffset, prevValue: last.lastValue}
	}
	// Recompute this block's absolute prev values from the running totals
	// *before* this flush (tracked implicitly: l.prevKey/offset/value are
	// already the running totals *after* the last Append in this block,
	// so the "prev" for this block is whatever the running totals were
	// before the first Append of this block; we recover it from oldDir).
	newEntry := dirEntry{
		prevKey:    base.prevKey,
		prevOffset: base.prevOffset,
		prevValue:  base.prevValue,
		lastKey:    l.prevKey,
		lastOffset: l.prevOffset,
		lastValue:  l.prevValue,
		count:      n,
	}
	newEntry.dataOffset = l.chain.Append(buf)
	newEntry.dataLen = uint64(len(buf))

	newDir := make([]dirEntry, len(oldDir)+1)
	copy(newDir, oldDir)
	newDir[len(oldDir)] = newEntry
	l.dir.Store(&newDir)

	l.bufferLen = 0
	l.flushInfo.Store(packFlushInfo(flushedCount+1, 0))
}

// LastBoundary returns the running totals as of the most recently appended
// entry, whether it sits in a flushed block or still in the hot block, for
// callers that need a base to decode a not-yet-skip-tracked trailing region
// (e.g. doclist.BuildingDecoder's hot-buffer fallback). ok is false if no
// entry has been appended yet.
func (l *BuildingList) LastBoundary() (key, offset, value uint64, ok bool) {
	flushedCount, bufferLen := unpackFlushInfo(l.flushInfo.Load())
	dirSnapshot := *l.dir.Load()
	if flushedCount > 0 && uint64(len(dirSnapshot)) >= flushedCount {
		last := dirSnapshot[flushedCount-1]
		key, offset, value, ok = last.lastKey, last.lastOffset, last.lastValue, true
	}
	for j := 0; j < bufferLen; j++ {
		key += l.keys[j]
		offset += l.offsets[j]
		if l.hasValue {
			value += l.values[j]
		}
		ok = true
	}
	return key, offset, value, ok
}

// BuildingSeek mirrors Reader.Seek over a building skip list: pending
// entries in the hot block are consulted directly (no decode needed, they
// are already plain values); flushed entries fall back to the published
// directory + chain bytes.
func (l *BuildingList) BuildingSeek(target uint64) (SeekResult, error) {
	flushInfoSnapshot := l.flushInfo.Load()
	flushedCount, bufferLen := unpackFlushInfo(flushInfoSnapshot)

	dirSnapshot := *l.dir.Load()
	for i := 0; i < len(dirSnapshot) && uint64(i) < flushedCount; i++ {
		d := dirSnapshot[i]
		if d.lastKey < target {
			continue
		}
		blockData := l.chain.ReadAt(d.dataOffset, d.dataOffset+d.dataLen)
		keyDeltas := make([]uint64, d.count)
		n, err := codec.DecodeU64Block(blockData, d.count, keyDeltas)
		if err != nil {
			return SeekResult{}, err
		}
		offsetDeltas := make([]uint64, d.count)
		n2, err := codec.DecodeU64Block(blockData[n:], d.count, offsetDeltas)
		if err != nil {
			return SeekResult{}, err
		}
		var valueDeltas []uint64
		if l.hasValue {
			valueDeltas = make([]uint64, d.count)
			if _, err := codec.DecodeU64Block(blockData[n+n2:], d.count, valueDeltas); err != nil {
				return SeekResult{}, err
			}
		}
		prevKey, prevOffset, prevValue := d.prevKey, d.prevOffset, d.prevValue
		for j := 0; j < d.count; j++ {
			key := prevKey + keyDeltas[j]
			offset := prevOffset + offsetDeltas[j]
			var value uint64
			if l.hasValue {
				value = prevValue + valueDeltas[j]
			}
			if key >= target {
				return SeekResult{
					Found:            true,
					PrevKey:          prevKey,
					BlockLastKey:     key,
					StartOffset:      prevOffset,
					EndOffset:        offset,
					PrevValue:        prevValue,
					SkippedItemCount: i*codec.BlockLen + j,
				}, nil
			}
			prevKey, prevOffset, prevValue = key, offset, value
		}
	}

	// Fall back to the still-pending hot block (snapshotted locally; safe
	// copy taken under the flushInfo acquire above).
	var baseKey, baseOffset, baseValue uint64
	if len(dirSnapshot) > 0 && uint64(len(dirSnapshot)) <= flushedCount {
		last := dirSnapshot[len(dirSnapshot)-1]
		baseKey, baseOffset, baseValue = last.lastKey, last.lastOffset, last.lastValue
	}
	localKeys := make([]uint64, bufferLen)
	localOffsets := make([]uint64, bufferLen)
	localValues := make([]uint64, bufferLen)
	copy(localKeys, l.keys[:bufferLen])
	copy(localOffsets, l.offsets[:bufferLen])
	if l.hasValue {
		copy(localValues, l.values[:bufferLen])
	}

	prevKey, prevOffset, prevValue := baseKey, baseOffset, baseValue
	for j := 0; j < bufferLen; j++ {
		key := prevKey + localKeys[j]
		offset := prevOffset + localOffsets[j]
		var value uint64
		if l.hasValue {
			value = prevValue + localValues[j]
		}
		if key >= target {
			return SeekResult{
				Found:            true,
				PrevKey:          prevKey,
				BlockLastKey:     key,
				StartOffset:      prevOffset,
				EndOffset:        offset,
				PrevValue:        prevValue,
				SkippedItemCount: int(flushedCount)*codec.BlockLen + j,
			}, nil
		}
		prevKey, prevOffset, prevValue = key, offset, value
	}

	return SeekResult{}, nil
}
