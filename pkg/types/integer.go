package types

import (
	"encoding/binary"
	"fmt"

	"storemy/pkg/primitives"
)

// Int4Field is a signed 32-bit integer stored little-endian, matching the
// "int4" field type used throughout the worked examples.
type Int4Field struct {
	Value int32
}

func NewInt4Field(v int32) *Int4Field {
	return &Int4Field{Value: v}
}

func (f *Int4Field) GetType() Type { return IntType }

func (f *Int4Field) Width() int { return 4 }

func (f *Int4Field) Encode(dst []byte) error {
	if len(dst) != 4 {
		return fmt.Errorf("types: Int4Field.Encode: dst must be 4 bytes, got %d", len(dst))
	}
	binary.LittleEndian.PutUint32(dst, uint32(f.Value))
	return nil
}

func (f *Int4Field) Decode(src []byte) error {
	if len(src) != 4 {
		return fmt.Errorf("types: Int4Field.Decode: src must be 4 bytes, got %d", len(src))
	}
	f.Value = int32(binary.LittleEndian.Uint32(src))
	return nil
}

// SortKey returns a big-endian encoding with the sign bit flipped, so
// bytes.Compare on two SortKeys matches signed integer ordering. Encode
// uses little-endian instead, which does not sort correctly as raw bytes.
func (f *Int4Field) SortKey() []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(f.Value)^0x80000000)
	return out
}

func (f *Int4Field) String() string {
	return fmt.Sprintf("%d", f.Value)
}

func (f *Int4Field) Equals(other Field) bool {
	o, ok := other.(*Int4Field)
	return ok && o.Value == f.Value
}

func (f *Int4Field) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*Int4Field)
	if !ok {
		return false, fmt.Errorf("types: Int4Field.Compare: other field is %T, not *Int4Field", other)
	}
	switch op {
	case primitives.Equals:
		return f.Value == o.Value, nil
	case primitives.NotEqual, primitives.NotEqualsBracket:
		return f.Value != o.Value, nil
	case primitives.LessThan:
		return f.Value < o.Value, nil
	case primitives.LessThanOrEqual:
		return f.Value <= o.Value, nil
	case primitives.GreaterThan:
		return f.Value > o.Value, nil
	case primitives.GreaterThanOrEqual:
		return f.Value >= o.Value, nil
	default:
		return false, fmt.Errorf("types: Int4Field.Compare: unsupported predicate %s", op)
	}
}
