package upsert

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/vvka-141/pgload/internal/schema"
)

// coerce converts a flat record value to the Go type bound for column c.
// INTEGER columns take integral numbers and numeric strings; text columns
// take any scalar rendered as text.
func coerce(c schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch c.Kind {
	case schema.KindInteger, schema.KindSerial:
		return toInt32(v)
	default:
		return toText(v)
	}
}

func toInt32(v any) (any, error) {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return nil, fmt.Errorf("cannot store %T as integer", v)
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return checkInt32(i, s)
	}

	// "30.0" and "3e1" are still integers
	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if !r.Num().IsInt64() {
		return nil, fmt.Errorf("%q is out of range for integer", s)
	}
	return checkInt32(r.Num().Int64(), s)
}

func checkInt32(i int64, s string) (any, error) {
	if i < math.MinInt32 || i > math.MaxInt32 {
		return nil, fmt.Errorf("%q is out of range for integer", s)
	}
	return int32(i), nil
}

func toText(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return nil, fmt.Errorf("cannot store %T as text", v)
	}
}
