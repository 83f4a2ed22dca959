package serialize

import (
	"encoding/binary"
	"sort"

	"github.com/dolmens/tansakuu/internal/directory"
	"github.com/dolmens/tansakuu/internal/posting"
	"github.com/dolmens/tansakuu/internal/segment"
	"github.com/dolmens/tansakuu/internal/termdict"
)

// MergeIndex implements spec.md §4.10's Merger for one index: it builds
// the sorted union of every source segment's term keys and, for each term,
// re-decodes each source's posting in order and re-emits it with mappings
// applied, exactly like SerializeIndex does for a single building segment.
// sources and mappings must have the same length, one entry per source
// segment, ordered the way the caller wants new docids assigned (the
// caller's mappings must keep the overall new-docid sequence monotone
// across segment boundaries).
func MergeIndex(dir directory.Directory, prefix, indexName string, format posting.Format, sources []*segment.PersistentIndexData, mappings []DocIdMap) (*segment.PersistentIndexData, error) {
	keys, err := unionTermKeys(sources)
	if err != nil {
		return nil, err
	}

	dictWriter, err := termdict.NewWriter()
	if err != nil {
		return nil, err
	}

	var postingBuf, skipBuf, posBuf, posSkipBuf []byte

	for _, key := range keys {
		w := posting.NewWriter(format)
		for segIdx, src := range sources {
			doc, pos, _, ok, err := OpenTermDecoders(src, key)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			segPosting := posting.SegmentPosting{BaseDocId: 0, Doc: doc}
			if format.HasPositions {
				segPosting.Pos = pos
			}
			it := posting.NewBufferedPostingIterator([]posting.SegmentPosting{segPosting}, format.HasPositions)
			if err := copyPostingInto(w, it, format, mappings[segIdx]); err != nil {
				return nil, err
			}
		}
		w.Flush()

		if w.Df() == 0 {
			// Every hit behind this term, across every source, was
			// dropped by the remap (e.g. all deleted rows).
			continue
		}

		docBytes := w.DocWriter().WrittenBytes()
		skipBytes := w.DocWriter().SkipListBytes()
		var posBytes, posSkipBytes []byte
		if format.HasPositions {
			posBytes = w.PosWriter().WrittenBytes()
			posSkipBytes = w.PosWriter().SkipListBytes()
		}

		ti := termdict.TermInfo{
			Df:                    w.Df(),
			Ttf:                   w.DocWriter().TotalTf(),
			DocListStart:          uint64(len(postingBuf)),
			DocListEnd:            uint64(len(postingBuf) + len(docBytes)),
			SkipListStart:         uint64(len(skipBuf)),
			SkipListEnd:           uint64(len(skipBuf) + len(skipBytes)),
			PositionListStart:     uint64(len(posBuf)),
			PositionListEnd:       uint64(len(posBuf) + len(posBytes)),
			PositionSkipListStart: uint64(len(posSkipBuf)),
			PositionSkipListEnd:   uint64(len(posSkipBuf) + len(posSkipBytes)),
		}

		postingBuf = append(postingBuf, docBytes...)
		skipBuf = append(skipBuf, skipBytes...)
		posBuf = append(posBuf, posBytes...)
		posSkipBuf = append(posSkipBuf, posSkipBytes...)

		if err := dictWriter.Insert(key, ti); err != nil {
			return nil, err
		}
	}

	fstBytes, sideBytes, err := dictWriter.Finish()
	if err != nil {
		return nil, err
	}

	if err := writeFile(dir, fileName(prefix, indexName, ".dict"), writeDictFile(fstBytes, sideBytes)); err != nil {
		return nil, err
	}
	if err := writeFile(dir, fileName(prefix, indexName, ".posting"), postingBuf); err != nil {
		return nil, err
	}
	if err := writeFile(dir, fileName(prefix, indexName, ".skiplist"), skipBuf); err != nil {
		return nil, err
	}
	if format.HasPositions {
		if err := writeFile(dir, fileName(prefix, indexName, ".positions"), posBuf); err != nil {
			return nil, err
		}
		if err := writeFile(dir, fileName(prefix, indexName, ".positions.skiplist"), posSkipBuf); err != nil {
			return nil, err
		}
	}

	return LoadIndex(dir, prefix, indexName, format)
}

// unionTermKeys walks every source's dictionary in order and returns the
// sorted set of distinct term keys across all of them. Each source
// dictionary is already sorted, but a simple collect-then-sort is used
// here rather than an N-way merge, since the term counts this engine deals
// with comfortably fit in memory as a key list.
func unionTermKeys(sources []*segment.PersistentIndexData) ([]uint64, error) {
	seen := make(map[uint64]struct{})
	for _, src := range sources {
		it, err := src.Dict.Iter()
		if err != nil {
			return nil, err
		}
		for !it.Done() {
			keyBytes, _ := it.Current()
			seen[binary.BigEndian.Uint64(keyBytes)] = struct{}{}
			if err := it.Next(); err != nil {
				return nil, err
			}
		}
	}
	keys := make([]uint64, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}
