package record

// Flat is a single-level record. Values are nil, string, json.Number or bool.
type Flat map[string]any

// ToValue turns a flat record back into an object Value with the given
// column order. Columns missing from f become null fields.
func (f Flat) ToValue(columns []string) Value {
	fields := make([]Field, 0, len(columns))
	for _, c := range columns {
		fields = append(fields, Field{Key: c, Value: Scalar(f[c])})
	}
	return Object(fields...)
}
