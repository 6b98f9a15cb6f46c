// Package docsource adapts external systems into the document stream the
// index builder consumes: newline-delimited files, PostgreSQL result
// sets, and Kafka ingest topics. Every source yields raw document bodies
// in a single pass; analysis happens at the builder.
package docsource

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"os"
)

// Source streams raw document bodies. Iteration stops early on failure;
// Err reports what went wrong once the sequence ends.
type Source interface {
	Documents(ctx context.Context) iter.Seq[string]
	Err() error
}

// File reads one document per line from a plain text file.
type File struct {
	path string
	err  error
}

// NewFile returns a Source over the given newline-delimited file.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Documents(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		file, err := os.Open(f.path)
		if err != nil {
			f.err = fmt.Errorf("opening document file: %w", err)
			return
		}
		defer file.Close()
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			if ctx.Err() != nil {
				f.err = ctx.Err()
				return
			}
			if !yield(scanner.Text()) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			f.err = fmt.Errorf("reading document file: %w", err)
		}
	}
}

func (f *File) Err() error { return f.err }
