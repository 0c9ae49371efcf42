package types

import (
	"testing"

	"storemy/pkg/primitives"
)

func TestInt4Field_EncodeDecodeRoundTrip(t *testing.T) {
	f := NewInt4Field(-42)
	buf := make([]byte, f.Width())
	if err := f.Encode(buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got Int4Field
	if err := got.Decode(buf); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Value != -42 {
		t.Errorf("expected -42, got %d", got.Value)
	}
}

func TestInt4Field_Compare(t *testing.T) {
	tests := []struct {
		name string
		op   primitives.Predicate
		a, b int32
		want bool
	}{
		{"equal true", primitives.Equals, 5, 5, true},
		{"equal false", primitives.Equals, 5, 6, false},
		{"less than", primitives.LessThan, 3, 5, true},
		{"greater than", primitives.GreaterThan, 9, 5, true},
		{"not equal", primitives.NotEqual, 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := NewInt4Field(tt.a), NewInt4Field(tt.b)
			got, err := a.Compare(tt.op, b)
			if err != nil {
				t.Fatalf("Compare: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInt4Field_SortKey_PreservesOrder(t *testing.T) {
	values := []int32{-100, -1, 0, 1, 42, 1000}
	for i := 0; i < len(values)-1; i++ {
		lo := NewInt4Field(values[i]).SortKey()
		hi := NewInt4Field(values[i+1]).SortKey()
		if string(lo) >= string(hi) {
			t.Errorf("SortKey(%d) did not sort before SortKey(%d)", values[i], values[i+1])
		}
	}
}

func TestInt4Field_Encode_WrongWidth(t *testing.T) {
	f := NewInt4Field(1)
	if err := f.Encode(make([]byte, 3)); err == nil {
		t.Errorf("expected error for undersized buffer")
	}
}
