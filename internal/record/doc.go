// Package record defines the two shapes a person record takes during a run.
//
// A Value is the raw record as read from the input document: a tagged tree
// of objects, arrays and scalars. Object fields keep document order so that
// flattened columns come out in first-seen order.
//
// A Flat is the single-level mapping produced by the normalizer. Its values
// are scalars only: nil, string, json.Number or bool.
package record
