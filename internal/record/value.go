package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Field is one key of an object, in document order.
type Field struct {
	Key   string
	Value Value
}

// Value is a node of a decoded JSON document.
// The zero Value is null.
type Value struct {
	kind   Kind
	scalar any
	fields []Field
	items  []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Scalar wraps a string, json.Number or bool. nil yields Null.
func Scalar(v any) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindScalar, scalar: v}
}

// Object builds an object from fields in the given order.
func Object(fields ...Field) Value {
	return Value{kind: KindObject, fields: fields}
}

// Array builds an array value.
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

func (v Value) Kind() Kind { return v.kind }

// Fields returns the fields of an object, nil for other kinds.
func (v Value) Fields() []Field { return v.fields }

// Items returns the elements of an array, nil for other kinds.
func (v Value) Items() []Value { return v.items }

// Interface returns the scalar payload, or nil for null and containers.
func (v Value) Interface() any { return v.scalar }

// Get returns the value stored under key in an object.
func (v Value) Get(key string) (Value, bool) {
	for i := len(v.fields) - 1; i >= 0; i-- {
		if v.fields[i].Key == key {
			return v.fields[i].Value, true
		}
	}
	return Value{}, false
}

// MarshalJSON encodes the value back to JSON, keeping object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindScalar:
		b, err := json.Marshal(v.scalar)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindObject:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(f.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}
