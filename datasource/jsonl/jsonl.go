// Package jsonl provides a JSON-lines input boundary for Sheaf, parsing each
// line of a chunked text source into a field-accessible Record.
package jsonl

import (
	"fmt"

	"github.com/tidwall/gjson"

	sheaf "github.com/go-sheaf/sheaf"
	"github.com/go-sheaf/sheaf/datasource/file"
)

// A Record is one parsed line of a JSON-lines source. Fields are accessed by
// gjson path syntax, e.g. record.Get("user.name").String().
type Record = gjson.Result

// FromFile produces a Collection of Records from the JSON-lines file at path,
// chunked into partitions of roughly chunkSize bytes. A missing path surfaces
// immediately; a malformed line fails its partition's node when the graph
// runs, which is the execution-error contract for bad input records.
func FromFile(path string, chunkSize int) (*sheaf.Collection[Record], error) {
	lines, err := file.FromFile(path, chunkSize)
	if err != nil {
		return nil, err
	}
	return sheaf.Map(lines, func(line string) Record {
		if !gjson.Valid(line) {
			panic(fmt.Sprintf("malformed JSON line: %.80q", line))
		}
		return gjson.Parse(line)
	}), nil
}
