// Package spill implements the on-disk partition store backing disk-backed
// Collections: one lz4-compressed gob stream per partition, written once and
// re-read by streaming so a partition never needs to fit in memory.
package spill

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4"
)

// A FileRef identifies one spilled partition: its file plus its record count.
type FileRef struct {
	Path  string
	Count int
}

// A Writer appends records to a single spill file.
type Writer[A any] struct {
	f   *os.File
	lzw *lz4.Writer
	enc *gob.Encoder
	ref FileRef
}

// Create opens a spill file for the given node under dir. File names derive
// from node identity, so re-executing a node overwrites its own file and
// never collides with a sibling's.
func Create[A any](dir string, nodeID uint64) (*Writer[A], error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("part-%016x", nodeID))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	lzw := lz4.NewWriter(f)
	return &Writer[A]{
		f:   f,
		lzw: lzw,
		enc: gob.NewEncoder(lzw),
		ref: FileRef{Path: path},
	}, nil
}

// Append writes one record to the spill file
func (w *Writer[A]) Append(v A) error {
	if err := w.enc.Encode(&v); err != nil {
		return err
	}
	w.ref.Count++
	return nil
}

// Close flushes and closes the spill file, returning a FileRef for re-reading it
func (w *Writer[A]) Close() (FileRef, error) {
	if err := w.lzw.Close(); err != nil {
		w.f.Close()
		return FileRef{}, err
	}
	if err := w.f.Close(); err != nil {
		return FileRef{}, err
	}
	return w.ref, nil
}

// Discard abandons a partially written spill file, closing it and removing it
// from disk. Used on error paths where the partition will never be read back.
func (w *Writer[A]) Discard() {
	w.lzw.Close()
	w.f.Close()
	os.Remove(w.ref.Path)
}

// Read streams every record of a spilled partition through fn, in the order
// they were appended, without loading the file wholesale.
func Read[A any](ref FileRef, fn func(A) error) error {
	f, err := os.Open(ref.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := gob.NewDecoder(lz4.NewReader(f))
	for i := 0; i < ref.Count; i++ {
		var v A
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("Unable to decode record %d of %s: %w", i, ref.Path, err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}
