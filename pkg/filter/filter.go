// Package filter implements condition filters as a tagged variant instead
// of a class hierarchy with downcasts: a ConditionFilter is either a Leaf
// (one field compared against one constant) or a Composite (several
// filters joined by AND/OR). Index selection switches on the concrete Go
// type, never on reflection.
package filter

import (
	"storemy/pkg/primitives"
	"storemy/pkg/types"
)

// ConditionFilter evaluates against one record's raw bytes.
type ConditionFilter interface {
	Matches(record []byte) (bool, error)
}

// Leaf compares the field at [Offset, Offset+Length) against Value using
// Op. This is the only shape the table layer's findIndexForScan can turn
// into an index scan.
type Leaf struct {
	Offset int
	Length int
	Op     primitives.Predicate
	Value  types.Field
}

func (l *Leaf) Matches(record []byte) (bool, error) {
	field := l.Value // any Field of the same concrete type works as the decode target
	decoded := newFieldLike(field)
	if err := decoded.Decode(record[l.Offset : l.Offset+l.Length]); err != nil {
		return false, err
	}
	return decoded.Compare(l.Op, l.Value)
}

// newFieldLike returns a zero-valued Field of the same concrete type as
// like, so Leaf.Matches can decode into it without the caller passing a
// separate decode target.
func newFieldLike(like types.Field) types.Field {
	switch v := like.(type) {
	case *types.Int4Field:
		return &types.Int4Field{}
	case *types.CharField:
		return types.NewCharField("", v.Width())
	default:
		panic("filter: unsupported field type in Leaf")
	}
}

// Conjunction selects how Composite combines its children.
type Conjunction int

const (
	And Conjunction = iota
	Or
)

// Composite joins Children with a Conjunction. An empty Composite under
// And vacuously matches everything; under Or it matches nothing.
type Composite struct {
	Children   []ConditionFilter
	Conjunction Conjunction
}

func (c *Composite) Matches(record []byte) (bool, error) {
	if c.Conjunction == Or {
		for _, child := range c.Children {
			ok, err := child.Matches(record)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	for _, child := range c.Children {
		ok, err := child.Matches(record)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// UsableLeaf reports the first Leaf reachable from f that can drive an
// index scan: f itself if it is a Leaf, or the first child of an And
// Composite (walked in order) that is itself usable. An Or Composite has no
// usable leaf: an index scan over one child would miss records that match
// only another. There is no cost model; this is "any usable index",
// matching the scan-selection contract.
func UsableLeaf(f ConditionFilter) (*Leaf, bool) {
	switch v := f.(type) {
	case *Leaf:
		return v, true
	case *Composite:
		if v.Conjunction != And {
			return nil, false
		}
		for _, child := range v.Children {
			if leaf, ok := UsableLeaf(child); ok {
				return leaf, true
			}
		}
		return nil, false
	default:
		return nil, false
	}
}
