package meta

import (
	"errors"
	"iter"
	"slices"
)

// ErrAlreadySet is returned when a single-value field is written twice.
var ErrAlreadySet = errors.New("field already has a value")

// FieldKind tells whether a field holds one value or many.
type FieldKind int

const (
	Single FieldKind = iota
	Multi
)

func (k FieldKind) String() string {
	if k == Multi {
		return "multi"
	}
	return "single"
}

// FieldValue is the storage slot for one declared field of a record.
// A Single slot accepts one write, a Multi slot is append-only.
type FieldValue struct {
	kind   FieldKind
	values []string
}

// NewFieldValue returns an empty slot of the given kind.
func NewFieldValue(kind FieldKind) *FieldValue {
	return &FieldValue{kind: kind}
}

// Add stores v. A second write to a Single slot returns ErrAlreadySet and
// keeps the first value.
func (f *FieldValue) Add(v string) error {
	if f.kind == Single && len(f.values) > 0 {
		return ErrAlreadySet
	}
	f.values = append(f.values, v)
	return nil
}

func (f *FieldValue) Kind() FieldKind { return f.kind }

func (f *FieldValue) Len() int {
	if f == nil {
		return 0
	}
	return len(f.values)
}

func (f *FieldValue) IsEmpty() bool { return f.Len() == 0 }

// First returns the first stored value, or "" when the slot is empty.
func (f *FieldValue) First() string {
	if f.Len() == 0 {
		return ""
	}
	return f.values[0]
}

// Values returns a copy of the stored values.
func (f *FieldValue) Values() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.values)
}

// All yields the stored values in write order.
func (f *FieldValue) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		if f == nil {
			return
		}
		for _, v := range f.values {
			if !yield(v) {
				return
			}
		}
	}
}
