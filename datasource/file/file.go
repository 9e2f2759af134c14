// Package file provides the file-backed input boundary for Sheaf: a path
// plus a target chunk size in bytes become a Collection of lines, one
// partition per chunk. Only existence is checked eagerly; the bytes of each
// chunk are read by its partition's node when the graph runs.
package file

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	sheaf "github.com/go-sheaf/sheaf"
	"github.com/go-sheaf/sheaf/errors"
)

// FromFile produces a memory-backed Collection of the lines of path, split
// into partitions of roughly chunkSize bytes. It returns a MissingInputError
// immediately when path does not exist, rather than deferring the failure
// into the graph.
func FromFile(path string, chunkSize int) (*sheaf.Collection[string], error) {
	if chunkSize < 1 {
		return nil, errors.InvalidChunkSizeError{Size: chunkSize}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.MissingInputError{Path: path, Err: err}
	}
	size := fi.Size()
	numChunks := int((size + int64(chunkSize) - 1) / int64(chunkSize))
	if numChunks < 1 {
		numChunks = 1
	}
	loaders := make([]sheaf.PartitionLoader[string], numChunks)
	for i := 0; i < numChunks; i++ {
		start := int64(i) * int64(chunkSize)
		end := start + int64(chunkSize)
		loaders[i] = func(_ context.Context) ([]string, error) {
			return loadChunk(path, start, end)
		}
	}
	return sheaf.FromLoaders(loaders), nil
}

// loadChunk reads the lines of one byte range of path. A chunk owns every
// line which starts inside [start, end): a reader positioned past byte zero
// first discards the tail of the line straddling its start (that line belongs
// to the previous chunk, which reads past its own end to finish it).
func loadChunk(path string, start, end int64) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.MissingInputError{Path: path, Err: err}
	}
	defer f.Close()

	pos := start
	if start > 0 {
		// back up one byte so a line beginning exactly at start survives
		pos = start - 1
		if _, err := f.Seek(pos, io.SeekStart); err != nil {
			return nil, err
		}
	}
	br := bufio.NewReader(f)
	if start > 0 {
		skipped, err := br.ReadString('\n')
		pos += int64(len(skipped))
		if err == io.EOF {
			return []string{}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	var lines []string
	for pos < end {
		s, err := br.ReadString('\n')
		if len(s) > 0 {
			pos += int64(len(s))
			lines = append(lines, strings.TrimSuffix(s, "\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return lines, nil
}
