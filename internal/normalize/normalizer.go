// Package normalize turns raw records into uniform, deduplicated flat records.
package normalize

import (
	"fmt"
	"strconv"

	"github.com/vvka-141/pgload/internal/record"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// Normalizer flattens, aligns and deduplicates a batch of raw records.
type Normalizer struct {
	separator string
	logger    pgload.Logger
}

// New creates a Normalizer. An empty separator selects pgload.DefaultSeparator.
func New(separator string, logger pgload.Logger) *Normalizer {
	if separator == "" {
		separator = pgload.DefaultSeparator
	}
	return &Normalizer{separator: separator, logger: logger}
}

// Result is the normalized batch.
type Result struct {
	// Records carry exactly the keys in Columns; absent fields are nil.
	Records []record.Flat

	// Columns is the union of keys across the batch in first-seen order.
	Columns []string

	// Read is the number of input records
	Read int

	// Removed is Read - len(Records)
	Removed int
}

// Normalize flattens every record, fills the union key set, and drops exact
// duplicates. When duplicates were removed a single Info entry reports how many.
// A record that cannot be flattened fails the batch with pgload.ErrExtraction.
func (n *Normalizer) Normalize(raw []record.Value) (*Result, error) {
	flats := make([]record.Flat, 0, len(raw))
	var columns []string
	seen := make(map[string]struct{})

	for i, v := range raw {
		flat, keys, err := Flatten(v, n.separator)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", pgload.ErrExtraction, i, err)
		}
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
		flats = append(flats, flat)
	}

	for _, f := range flats {
		for _, c := range columns {
			if _, ok := f[c]; !ok {
				f[c] = nil
			}
		}
	}

	out, removed := Dedup(flats)

	if removed > 0 && n.logger != nil {
		n.logger.Info("%s", DuplicatesRemovedMessage(removed))
	}

	n.verbose("normalized %d record(s) into %d column(s), %d unique", len(raw), len(columns), len(out))

	return &Result{
		Records: out,
		Columns: columns,
		Read:    len(raw),
		Removed: removed,
	}, nil
}

// DuplicatesRemovedMessage is the log text for n removed duplicates.
func DuplicatesRemovedMessage(n int) string {
	if n == 1 {
		return "1 duplicate removed"
	}
	return strconv.Itoa(n) + " duplicates removed"
}

func (n *Normalizer) verbose(format string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Verbose(format, args...)
	}
}
