package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/vvka-141/pgload/internal/record"
)

// Dedup drops records whose every field equals an earlier record's.
// Key order does not matter. The first occurrence is kept and output order
// is first-seen order. Records are bucketed by an xxh3 fingerprint of their
// canonical encoding; a bucket hit is confirmed by comparing the encodings.
func Dedup(in []record.Flat) (out []record.Flat, removed int) {
	type kept struct {
		canon []byte
	}
	buckets := make(map[uint64][]kept, len(in))
	out = make([]record.Flat, 0, len(in))

	for _, rec := range in {
		canon := canonical(rec)
		h := xxh3.Hash(canon)

		dup := false
		for _, k := range buckets[h] {
			if bytes.Equal(k.canon, canon) {
				dup = true
				break
			}
		}
		if dup {
			removed++
			continue
		}

		buckets[h] = append(buckets[h], kept{canon: canon})
		out = append(out, rec)
	}
	return out, removed
}

// canonical encodes rec with sorted keys and type-tagged values so that equal
// records encode to equal bytes. Numbers are compared by value: 30 and 30.0
// are the same.
func canonical(rec record.Flat) []byte {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		writeLenPrefixed(&buf, k)
		switch v := rec[k].(type) {
		case nil:
			buf.WriteByte('n')
		case string:
			buf.WriteByte('s')
			writeLenPrefixed(&buf, v)
		case json.Number:
			buf.WriteByte('d')
			writeLenPrefixed(&buf, canonicalNumber(v))
		case bool:
			if v {
				buf.WriteString("bt")
			} else {
				buf.WriteString("bf")
			}
		default:
			buf.WriteByte('x')
			writeLenPrefixed(&buf, fmt.Sprintf("%T:%v", v, v))
		}
	}
	return buf.Bytes()
}

func writeLenPrefixed(buf *bytes.Buffer, s string) {
	buf.WriteString(strconv.Itoa(len(s)))
	buf.WriteByte(':')
	buf.WriteString(s)
}

func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	r, ok := new(big.Rat).SetString(n.String())
	if !ok {
		return n.String()
	}
	return r.RatString()
}
