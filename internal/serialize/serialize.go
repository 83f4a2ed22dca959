// Package serialize implements the serializer and merger of spec.md §4.10:
// turning a building segment's in-memory postings into persistent,
// Directory-backed files, and combining several persistent segments plus
// per-segment docid remaps into one. Both procedures share the same trick
// (spec.md §9, "serializer reuses iterator"): they never copy opaque
// building bytes directly, they re-decode each source posting through the
// standard posting.BufferedPostingIterator and re-encode it with a
// persistent posting.Writer, which gets docid remapping and compaction for
// free and guarantees the on-disk format is correct regardless of how the
// building posting fragmented across its ByteSliceList chain.
package serialize

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/dolmens/tansakuu/internal/directory"
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/doclist"
	"github.com/dolmens/tansakuu/internal/poslist"
	"github.com/dolmens/tansakuu/internal/posting"
	"github.com/dolmens/tansakuu/internal/segment"
	"github.com/dolmens/tansakuu/internal/skiplist"
	"github.com/dolmens/tansakuu/internal/termdict"
)

// DocIdMap is a per-segment docid remap: DocIdMap[oldLocalDocId] is the new
// docid to emit, or docid.InvalidDocId if that document was deleted by a
// compaction and should be dropped. A nil DocIdMap is the identity map.
type DocIdMap []docid.DocId

func (m DocIdMap) translate(old docid.DocId) (docid.DocId, bool) {
	if m == nil {
		return old, true
	}
	if int(old) >= len(m) || m[old] == docid.InvalidDocId {
		return docid.InvalidDocId, false
	}
	return m[old], true
}

func fileName(prefix, indexName, suffix string) string {
	return fmt.Sprintf("%s.%s%s", prefix, indexName, suffix)
}

// writeDictFile packs the FST bytes and the side TermInfo area into one
// blob: an 8-byte little-endian length prefix for the FST region followed
// by the FST bytes then the side bytes, so a single Directory file serves
// the dictionary the way spec.md §4.10 enumerates it as one of five
// writers.
func writeDictFile(fstBytes, sideBytes []byte) []byte {
	out := make([]byte, 8+len(fstBytes)+len(sideBytes))
	binary.LittleEndian.PutUint64(out, uint64(len(fstBytes)))
	copy(out[8:], fstBytes)
	copy(out[8+len(fstBytes):], sideBytes)
	return out
}

func readDictFile(data []byte) (fstBytes, sideBytes []byte, err error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("serialize: dict file truncated")
	}
	n := binary.LittleEndian.Uint64(data)
	if 8+n > uint64(len(data)) {
		return nil, nil, fmt.Errorf("serialize: dict file fst length out of range")
	}
	return data[8 : 8+n], data[8+n:], nil
}

// SerializeIndex writes one index's full term set out to dir under
// prefix, per spec.md §4.10's Serializer. terms must be the building
// index's term map (segment.BuildingIndexData.Terms()); remap, if
// non-nil, is applied to every docid before it is written.
func SerializeIndex(dir directory.Directory, prefix, indexName string, format posting.Format, terms map[uint64]*posting.BuildingWriter, remap DocIdMap) (*segment.PersistentIndexData, error) {
	keys := make([]uint64, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	dictWriter, err := termdict.NewWriter()
	if err != nil {
		return nil, err
	}

	var postingBuf, skipBuf, posBuf, posSkipBuf []byte

	for _, key := range keys {
		bw := terms[key]
		if bw.Df() == 0 {
			continue
		}
		ti, docBytes, skipBytes, posBytes, posSkipBytes, err := serializeBuildingTerm(format, bw, remap)
		if err != nil {
			return nil, err
		}
		if ti.Df == 0 {
			// Every document behind this term was remapped away.
			continue
		}
		ti.DocListStart = uint64(len(postingBuf))
		ti.DocListEnd = ti.DocListStart + uint64(len(docBytes))
		ti.SkipListStart = uint64(len(skipBuf))
		ti.SkipListEnd = ti.SkipListStart + uint64(len(skipBytes))
		ti.PositionListStart = uint64(len(posBuf))
		ti.PositionListEnd = ti.PositionListStart + uint64(len(posBytes))
		ti.PositionSkipListStart = uint64(len(posSkipBuf))
		ti.PositionSkipListEnd = ti.PositionSkipListStart + uint64(len(posSkipBytes))

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

// serializeBuildingTerm re-decodes one building posting through a
// BufferedPostingIterator and re-encodes it with a fresh persistent
// posting.Writer, applying remap along the way.
func serializeBuildingTerm(format posting.Format, bw *posting.BuildingWriter, remap DocIdMap) (termdict.TermInfo, []byte, []byte, []byte, []byte, error) {
	docDec := doclist.NewBuildingDecoder(bw.DocEncoder())
	var posDec *poslist.BuildingDecoder
	if format.HasPositions {
		posDec = poslist.NewBuildingDecoder(bw.PosEncoder())
	}
	seg := posting.SegmentPosting{BaseDocId: 0, Doc: docDec}
	if posDec != nil {
		seg.Pos = posDec
	}
	it := posting.NewBufferedPostingIterator([]posting.SegmentPosting{seg}, format.HasPositions)

	w := posting.NewWriter(format)
	if err := copyPostingInto(w, it, format, remap); err != nil {
		return termdict.TermInfo{}, nil, nil, nil, nil, err
	}
	w.Flush()

	ti := termdict.TermInfo{Df: w.Df(), Ttf: w.DocWriter().TotalTf()}
	var posBytes, posSkipBytes []byte
	if format.HasPositions {
		posBytes = w.PosWriter().WrittenBytes()
		posSkipBytes = w.PosWriter().SkipListBytes()
	}
	return ti, w.DocWriter().WrittenBytes(), w.DocWriter().SkipListBytes(), posBytes, posSkipBytes, nil
}

// copyPostingInto walks src from docid 0, remapping and re-emitting every
// hit into w, per spec.md §4.10 steps 3/2 (shared by Serializer and
// Merger).
func copyPostingInto(w *posting.Writer, src *posting.BufferedPostingIterator, format posting.Format, remap DocIdMap) error {
	d := docid.DocId(0)
	for {
		cur, err := src.Seek(d)
		if err != nil {
			return err
		}
		if cur == docid.EndDocId {
			return nil
		}
		d = cur + 1

		newId, ok := remap.translate(cur)
		if !ok {
			continue
		}

		tf, err := src.CurrentTf()
		if err != nil {
			return err
		}
		var fm uint8
		if format.HasFieldmask {
			fm, err = src.CurrentFieldmask()
			if err != nil {
				return err
			}
		}

		if format.HasPositions {
			var p uint32
			for i := uint32(0); i < tf; i++ {
				p, err = src.SeekPos(p)
				if err != nil {
					return err
				}
				w.AddPos(0, p)
				p++
			}
		} else {
			for i := uint32(0); i < tf; i++ {
				w.AddPos(0, 0)
			}
		}
		if format.HasFieldmask {
			w.SetFieldmask(fm)
		}
		w.EndDoc(newId)
	}
}

func writeFile(dir directory.Directory, name string, data []byte) error {
	w, err := dir.OpenWrite(name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// LoadIndex opens an already-serialized index back from dir, per spec.md
// §8's "serialize-then-load is the identity" property.
func LoadIndex(dir directory.Directory, prefix, indexName string, format posting.Format) (*segment.PersistentIndexData, error) {
	dictBytes, err := dir.OpenRead(fileName(prefix, indexName, ".dict"))
	if err != nil {
		return nil, err
	}
	fstBytes, sideBytes, err := readDictFile(dictBytes)
	if err != nil {
		return nil, err
	}
	dict, err := termdict.NewReader(fstBytes, sideBytes)
	if err != nil {
		return nil, err
	}

	postingBytes, err := dir.OpenRead(fileName(prefix, indexName, ".posting"))
	if err != nil {
		return nil, err
	}
	skipBytes, err := dir.OpenRead(fileName(prefix, indexName, ".skiplist"))
	if err != nil {
		return nil, err
	}

	idx := &segment.PersistentIndexData{
		Dict:          dict,
		PostingBytes:  postingBytes,
		SkipListBytes: skipBytes,
		Format:        format,
	}
	if format.HasPositions {
		posBytes, err := dir.OpenRead(fileName(prefix, indexName, ".positions"))
		if err != nil {
			return nil, err
		}
		posSkipBytes, err := dir.OpenRead(fileName(prefix, indexName, ".positions.skiplist"))
		if err != nil {
			return nil, err
		}
		idx.PositionBytes = posBytes
		idx.PositionSkipListBytes = posSkipBytes
	}
	return idx, nil
}

// OpenTermDecoders builds the persistent DocDecoder/PosDecoder pair for one
// term of an already-loaded PersistentIndexData, ready to plug into a
// posting.SegmentPosting. ok is false if the term is absent.
func OpenTermDecoders(idx *segment.PersistentIndexData, key uint64) (doc *doclist.Decoder, pos *poslist.Decoder, ti termdict.TermInfo, ok bool, err error) {
	info, found, err := idx.Dict.Get(key)
	if err != nil || !found {
		return nil, nil, termdict.TermInfo{}, false, err
	}

	var docSkip *skiplist.Reader
	if info.SkipListEnd > info.SkipListStart {
		docSkip, err = skiplist.NewReader(idx.SkipListBytes[info.SkipListStart:info.SkipListEnd], true)
		if err != nil {
			return nil, nil, termdict.TermInfo{}, false, err
		}
	}
	docFormat := doclist.Format{HasTf: idx.Format.HasTf, HasFieldmask: idx.Format.HasFieldmask}
	doc = doclist.NewDecoder(docFormat, idx.PostingBytes[info.DocListStart:info.DocListEnd], docSkip, info.Df)

	if idx.Format.HasPositions {
		var posSkip *skiplist.Reader
		if info.PositionSkipListEnd > info.PositionSkipListStart {
			posSkip, err = skiplist.NewReader(idx.PositionSkipListBytes[info.PositionSkipListStart:info.PositionSkipListEnd], false)
			if err != nil {
				return nil, nil, termdict.TermInfo{}, false, err
			}
		}
		pos = poslist.NewDecoder(idx.PositionBytes[info.PositionListStart:info.PositionListEnd], posSkip, info.Ttf)
	}

	return doc, pos, info, true, nil
}
