// Package extract reads the input document into raw records.
package extract

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vvka-141/pgload/internal/record"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// File reads the JSON document at path. The document must be an array of
// objects. Every failure wraps pgload.ErrExtraction.
func File(path string) ([]record.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgload.ErrExtraction, err)
	}
	defer f.Close()

	records, err := Reader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Reader is File over an arbitrary reader.
func Reader(r io.Reader) ([]record.Value, error) {
	dec := json.NewDecoder(r)
	// UseNumber so integer columns are not routed through float64.
	dec.UseNumber()

	root, err := record.Decode(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", pgload.ErrExtraction)
		}
		return nil, fmt.Errorf("%w: malformed JSON: %w", pgload.ErrExtraction, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level array", pgload.ErrExtraction)
	}

	if root.Kind() != record.KindArray {
		return nil, fmt.Errorf("%w: top-level value is %s, want array of objects", pgload.ErrExtraction, root.Kind())
	}

	items := root.Items()
	for i, item := range items {
		if item.Kind() != record.KindObject {
			return nil, fmt.Errorf("%w: element %d is %s, want object", pgload.ErrExtraction, i, item.Kind())
		}
	}
	return items, nil
}
