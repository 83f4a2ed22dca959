// Package directory implements the Directory abstraction of spec.md §6.1:
// a small contract for writing a file once and later reading it back as a
// random-access byte slice, with two implementations — an mmap-backed
// on-disk directory for real deployments and an in-memory directory for
// tests and ephemeral/embedded use. Grounded in bluge's filesystem
// directory (_examples/heroiclabs-nakama/vendor/github.com/blugelabs/bluge/index/directory_fs.go),
// which follows the same open_write/load-via-mmap shape.
package directory

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	mmap "github.com/blevesearch/mmap-go"
)

// Writer is a single-shot, write-then-close output stream, per spec.md
// §6.1's "open_write(path) -> writer (terminates write on drop)". Callers
// must call Close to make the written bytes durable and visible to OpenRead.
type Writer interface {
	Write(p []byte) (int, error)
	Close() error
}

// Directory is the storage contract the serializer and merger write
// through, and segment loading reads through.
type Directory interface {
	// OpenWrite returns a fresh writer for path, truncating any existing
	// content.
	OpenWrite(path string) (Writer, error)
	// OpenRead returns the full contents of path as a random-access byte
	// slice. The slice must remain valid until Close.
	OpenRead(path string) ([]byte, error)
	// Remove deletes path, if present.
	Remove(path string) error
	// Close releases any resources (mmaps, file handles) the directory
	// is holding open.
	Close() error
}

// FSDirectory is an on-disk Directory. Reads are served through an
// mmap-go read-only mapping, following directory_fs.go's LoadMMapAlways;
// writes go through a plain *os.File, synced and closed on Writer.Close.
type FSDirectory struct {
	path string

	mu     sync.Mutex
	mapped map[string]mmap.MMap
}

// NewFSDirectory returns a Directory rooted at path, creating it if it
// does not already exist.
func NewFSDirectory(path string) (*FSDirectory, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("directory: create %q: %w", path, err)
	}
	return &FSDirectory{path: path, mapped: make(map[string]mmap.MMap)}, nil
}

type fsWriter struct {
	f *os.File
}

func (w *fsWriter) Write(p []byte) (int, error) { return w.f.Write(p) }

func (w *fsWriter) Close() error {
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

// OpenWrite implements Directory.
func (d *FSDirectory) OpenWrite(path string) (Writer, error) {
	full := filepath.Join(d.path, path)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("directory: open_write %q: %w", full, err)
	}
	return &fsWriter{f: f}, nil
}

// OpenRead implements Directory. The returned slice is a live view into an
// mmap kept open until Close; callers must not hold it past the
// directory's lifetime.
func (d *FSDirectory) OpenRead(path string) ([]byte, error) {
	full := filepath.Join(d.path, path)

	d.mu.Lock()
	if mm, ok := d.mapped[path]; ok {
		d.mu.Unlock()
		return []byte(mm), nil
	}
	d.mu.Unlock()

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("directory: open_read %q: %w", full, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		// mmap.Map refuses zero-length files; an empty byte range is a
		// valid file content (e.g. a format with no positions channel).
		return []byte{}, nil
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("directory: mmap %q: %w", full, err)
	}

	d.mu.Lock()
	d.mapped[path] = mm
	d.mu.Unlock()

	return []byte(mm), nil
}

// Remove implements Directory.
func (d *FSDirectory) Remove(path string) error {
	d.mu.Lock()
	if mm, ok := d.mapped[path]; ok {
		_ = mm.Unmap()
		delete(d.mapped, path)
	}
	d.mu.Unlock()
	full := filepath.Join(d.path, path)
	err := os.Remove(full)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close implements Directory, unmapping every file this directory has
// opened for reading.
func (d *FSDirectory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for path, mm := range d.mapped {
		if err := mm.Unmap(); err != nil && first == nil {
			first = err
		}
		delete(d.mapped, path)
	}
	return first
}

// MemDirectory is an in-memory Directory for tests and for embedding the
// engine without a filesystem, per spec.md §6.1's "an in-memory directory
// (for tests / ephemeral use)".
type MemDirectory struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemDirectory returns an empty in-memory directory.
func NewMemDirectory() *MemDirectory {
	return &MemDirectory{files: make(map[string][]byte)}
}

type memWriter struct {
	dir  *MemDirectory
	path string
	buf  bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memWriter) Close() error {
	w.dir.mu.Lock()
	defer w.dir.mu.Unlock()
	w.dir.files[w.path] = w.buf.Bytes()
	return nil
}

// OpenWrite implements Directory.
func (d *MemDirectory) OpenWrite(path string) (Writer, error) {
	return &memWriter{dir: d, path: path}, nil
}

// OpenRead implements Directory.
func (d *MemDirectory) OpenRead(path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.files[path]
	if !ok {
		return nil, fmt.Errorf("directory: %q does not exist", path)
	}
	return b, nil
}

// Remove implements Directory.
func (d *MemDirectory) Remove(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	return nil
}

// Close implements Directory; MemDirectory holds no external resources.
func (d *MemDirectory) Close() error { return nil }
