package normalize

import (
	"fmt"

	"github.com/vvka-141/pgload/internal/record"
)

// Flatten collapses nested objects of an object Value into a single-level
// record, joining key paths parent-first with sep. Arrays are leaves and are
// stored as their JSON text. keys lists the produced keys in document order.
//
// When two paths produce the same key ("a_b" and {"a":{"b":..}}), the one
// that comes later in the document wins. An array that cannot be encoded
// back to JSON is an error.
func Flatten(v record.Value, sep string) (flat record.Flat, keys []string, err error) {
	flat = make(record.Flat)
	if err := flattenInto(flat, &keys, "", v, sep); err != nil {
		return nil, nil, err
	}
	return flat, keys, nil
}

func flattenInto(dst record.Flat, keys *[]string, prefix string, v record.Value, sep string) error {
	for _, f := range v.Fields() {
		key := f.Key
		if prefix != "" {
			key = prefix + sep + f.Key
		}

		switch f.Value.Kind() {
		case record.KindObject:
			if err := flattenInto(dst, keys, key, f.Value, sep); err != nil {
				return err
			}
		case record.KindArray:
			// Decoded arrays always encode; only hand-built values can fail here.
			b, err := f.Value.MarshalJSON()
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			put(dst, keys, key, string(b))
		default:
			put(dst, keys, key, f.Value.Interface())
		}
	}
	return nil
}

func put(dst record.Flat, keys *[]string, key string, val any) {
	if _, seen := dst[key]; !seen {
		*keys = append(*keys, key)
	}
	dst[key] = val
}
