package types

import "storemy/pkg/primitives"

// Field is a typed view over a span of bytes inside a record buffer. A
// Field never owns its bytes; Decode reads them out of the caller's buffer
// and Encode writes them back in place. This mirrors how a record is
// actually stored on a page: a flat byte array sliced by offset and
// length, not a collection of boxed values.
type Field interface {
	// GetType reports which Type this Field decodes.
	GetType() Type

	// Encode writes this field's value into dst, which must be exactly
	// Width() bytes long.
	Encode(dst []byte) error

	// Decode reads this field's value out of src, which must be exactly
	// Width() bytes long.
	Decode(src []byte) error

	// Width returns the number of bytes this field occupies.
	Width() int

	// Compare evaluates op between this field's value and other's.
	// Both fields must be of the same Type.
	Compare(op primitives.Predicate, other Field) (bool, error)

	// SortKey returns an order-preserving byte encoding of this field's
	// value: bytes.Compare on two SortKeys agrees with Compare's ordering.
	// This is not the same as Encode for every type. Int4Field's on-disk
	// form is little-endian and does not sort correctly as raw bytes, so
	// the index layer builds its keys from SortKey, never from Encode.
	SortKey() []byte

	String() string

	Equals(other Field) bool
}
