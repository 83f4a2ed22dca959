// Command tansakuuctl is a small demonstrator CLI for the engine core,
// following the teacher's preference for the standard flag package over a
// CLI framework it never pulls in itself. It ingests newline-delimited
// "field=value" postings from a file into a single in-memory index, seals
// it to a Directory, then prints every term's posting list back out —
// enough to exercise ingest, seal, and query without the schema/query
// layers spec.md marks as external collaborators.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/dolmens/tansakuu/internal/directory"
	"github.com/dolmens/tansakuu/internal/docid"
	"github.com/dolmens/tansakuu/internal/posting"
	"github.com/dolmens/tansakuu/internal/segment"
	"github.com/dolmens/tansakuu/internal/serialize"
)

const indexName = "default"

func main() {
	dataDir := flag.String("data", "", "directory to write the sealed segment into (empty uses an in-memory directory)")
	inPath := flag.String("in", "", "path to a newline-delimited field=value posting file")
	flag.Parse()

	if *inPath == "" {
		log.Fatal("tansakuuctl: -in is required")
	}

	var dir directory.Directory
	if *dataDir == "" {
		dir = directory.NewMemDirectory()
	} else {
		fsDir, err := directory.NewFSDirectory(*dataDir)
		if err != nil {
			log.Fatalf("tansakuuctl: %v", err)
		}
		dir = fsDir
	}
	defer dir.Close()

	format := posting.Format{HasTf: true, HasFieldmask: true, HasPositions: true}
	seg := segment.NewBuildingSegment(0, []string{indexName}, map[string]posting.Format{indexName: format})

	terms, err := ingest(seg, *inPath)
	if err != nil {
		log.Fatalf("tansakuuctl: ingest: %v", err)
	}

	idxData, _ := seg.Index(indexName)
	buildingIdx := idxData.(*segment.BuildingIndexData)
	for _, w := range buildingIdx.Terms() {
		w.Flush()
	}

	persisted, err := serialize.SerializeIndex(dir, "seg0", indexName, format, buildingIdx.Terms(), nil)
	if err != nil {
		log.Fatalf("tansakuuctl: seal: %v", err)
	}

	printPostings(persisted, terms)
}

// fieldBits assigns a stable bit position to each distinct field name seen
// in the input, in first-seen order, capped at the 8 bits a fieldmask
// byte carries.
type fieldBits struct {
	bit map[string]int
}

func newFieldBits() *fieldBits { return &fieldBits{bit: make(map[string]int)} }

func (f *fieldBits) indexOf(name string) int {
	if i, ok := f.bit[name]; ok {
		return i
	}
	i := len(f.bit)
	if i >= 8 {
		i = 7
	}
	f.bit[name] = i
	return i
}

// termKey hashes a term's text to the uint64 key the posting core indexes
// by; terms returns the reverse mapping for the final printout.
func termKey(text string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return h.Sum64()
}

func ingest(seg *segment.BuildingSegment, path string) (map[uint64]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idxData, _ := seg.Index(indexName)
	buildingIdx := idxData.(*segment.BuildingIndexData)
	fields := newFieldBits()
	terms := make(map[uint64]string)

	scanner := bufio.NewScanner(f)
	var nextDocId docid.DocId
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		touched := make(map[uint64]*posting.BuildingWriter)
		var pos uint32
		for _, tok := range strings.Fields(line) {
			field, value, ok := strings.Cut(tok, "=")
			if !ok {
				continue
			}
			key := termKey(value)
			terms[key] = value
			w := buildingIdx.GetOrCreate(key)
			w.AddPos(fields.indexOf(field), pos)
			pos++
			touched[key] = w
		}
		for _, w := range touched {
			w.EndDoc(nextDocId)
		}
		seg.EndDoc()
		nextDocId++
	}
	return terms, scanner.Err()
}

func printPostings(idx *segment.PersistentIndexData, termText map[uint64]string) {
	it, err := idx.Dict.Iter()
	if err != nil {
		log.Fatalf("tansakuuctl: %v", err)
	}

	type row struct {
		key  uint64
		text string
	}
	var rows []row
	for !it.Done() {
		keyBytes, _ := it.Current()
		key := bigEndianUint64(keyBytes)
		rows = append(rows, row{key: key, text: termText[key]})
		if err := it.Next(); err != nil {
			log.Fatalf("tansakuuctl: %v", err)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].text < rows[j].text })

	for _, r := range rows {
		doc, pos, ti, ok, err := serialize.OpenTermDecoders(idx, r.key)
		if err != nil || !ok {
			continue
		}
		seg := posting.SegmentPosting{BaseDocId: 0, Doc: doc, Pos: pos}
		pit := posting.NewBufferedPostingIterator([]posting.SegmentPosting{seg}, idx.Format.HasPositions)

		fmt.Printf("%s\tdf=%d ttf=%d\t", r.text, ti.Df, ti.Ttf)
		d := docid.DocId(0)
		first := true
		for {
			got, err := pit.Seek(d)
			if err != nil {
				log.Fatalf("tansakuuctl: %v", err)
			}
			if got == docid.EndDocId {
				break
			}
			tf, _ := pit.CurrentTf()
			if !first {
				fmt.Print(", ")
			}
			first = false
			fmt.Printf("%d(tf=%d)", got, tf)
			d = got + 1
		}
		fmt.Println()
	}
}

func bigEndianUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
