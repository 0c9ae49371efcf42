// Package types implements the fixed-width field type system used to
// interpret the raw bytes of a record. Every field occupies a known,
// constant number of bytes at a known offset inside a record buffer; there
// is no variable-length encoding anywhere in this package.
package types

// Type identifies which concrete Field implementation a FieldMeta's bytes
// should be decoded with.
type Type int

const (
	IntType Type = iota
	CharType
)

func (t Type) String() string {
	switch t {
	case IntType:
		return "INT"
	case CharType:
		return "CHAR"
	default:
		return "UNKNOWN"
	}
}

// Len returns the on-disk width of a field of this type, in bytes. CharType
// has no fixed width of its own: callers must track the declared length
// separately (schema.FieldMeta.Length), so Len panics for it.
func (t Type) Len() int {
	switch t {
	case IntType:
		return 4
	default:
		panic("types: Len has no fixed width for " + t.String())
	}
}
