package types

import (
	"bytes"
	"fmt"

	"storemy/pkg/primitives"
)

// CharField is a fixed-width, NUL-padded byte string, matching the "charN"
// field type. Its width is set at construction time from the owning
// FieldMeta, not inferred from the value, since a CharField with a short
// value must still occupy its full declared width on disk.
type CharField struct {
	Value []byte
	width int
}

// NewCharField constructs a CharField of the given declared width. value is
// truncated if it is longer than width, and right-padded with NUL bytes if
// shorter.
func NewCharField(value string, width int) *CharField {
	buf := make([]byte, width)
	copy(buf, value)
	return &CharField{Value: buf, width: width}
}

func (f *CharField) GetType() Type { return CharType }

func (f *CharField) Width() int { return f.width }

func (f *CharField) Encode(dst []byte) error {
	if len(dst) != f.width {
		return fmt.Errorf("types: CharField.Encode: dst must be %d bytes, got %d", f.width, len(dst))
	}
	copy(dst, f.Value)
	return nil
}

func (f *CharField) Decode(src []byte) error {
	if len(src) != f.width {
		return fmt.Errorf("types: CharField.Decode: src must be %d bytes, got %d", f.width, len(src))
	}
	f.Value = append(f.Value[:0], src...)
	return nil
}

// SortKey is the field's raw bytes: NUL-padded fixed-width byte strings
// already sort correctly under bytes.Compare, so this matches Encode.
func (f *CharField) SortKey() []byte {
	return append([]byte(nil), f.Value...)
}

// String returns the value with trailing NUL padding stripped.
func (f *CharField) String() string {
	return string(bytes.TrimRight(f.Value, "\x00"))
}

func (f *CharField) Equals(other Field) bool {
	o, ok := other.(*CharField)
	return ok && bytes.Equal(o.Value, f.Value)
}

func (f *CharField) Compare(op primitives.Predicate, other Field) (bool, error) {
	o, ok := other.(*CharField)
	if !ok {
		return false, fmt.Errorf("types: CharField.Compare: other field is %T, not *CharField", other)
	}
	cmp := bytes.Compare(f.Value, o.Value)
	switch op {
	case primitives.Equals:
		return cmp == 0, nil
	case primitives.NotEqual, primitives.NotEqualsBracket:
		return cmp != 0, nil
	case primitives.LessThan:
		return cmp < 0, nil
	case primitives.LessThanOrEqual:
		return cmp <= 0, nil
	case primitives.GreaterThan:
		return cmp > 0, nil
	case primitives.GreaterThanOrEqual:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("types: CharField.Compare: unsupported predicate %s", op)
	}
}
