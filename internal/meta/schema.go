package meta

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultCodeLang is the fence language used when a code field names none.
const DefaultCodeLang = "yml"

var (
	ErrInvalidSchema = errors.New("invalid type schema")
	ErrUnknownField  = errors.New("unknown field")
)

// FieldSchema declares one field of a record type.
type FieldSchema struct {
	Key      string
	Label    string
	Order    int
	Kind     FieldKind
	Inline   bool
	NewPage  bool
	PerPage  int
	Code     bool
	CodeLang string
	// Hidden fields are parsed and matched against but never displayed.
	Hidden bool
	// Default is displayed when the field was never written.
	Default string
}

// Lang returns the code fence language for the field.
func (f FieldSchema) Lang() string {
	if f.CodeLang == "" {
		return DefaultCodeLang
	}
	return f.CodeLang
}

// Matcher scores a record against an already normalized query.
type Matcher interface {
	Match(r *Record, query string) MatchLevel
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(r *Record, query string) MatchLevel

func (f MatcherFunc) Match(r *Record, query string) MatchLevel { return f(r, query) }

// TypeSchema declares a record type. Fields are fixed once the schema is
// registered.
type TypeSchema struct {
	Name    string
	Fields  []FieldSchema
	Matcher Matcher
	// Label renders the short identifier used in lists. When nil the first
	// field's value is used.
	Label func(r *Record) string
	// PatternField names a field holding a regular expression that is
	// compiled when the record closes and tried before the Matcher.
	PatternField string

	index map[string]int
}

// compile validates the schema and freezes its field order.
func (s *TypeSchema) compile() error {
	if s == nil {
		return fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	if s.Name == "" || s.Name != strings.ToLower(s.Name) || strings.TrimSpace(s.Name) != s.Name {
		return fmt.Errorf("%w: type name %q must be non-empty lowercase", ErrInvalidSchema, s.Name)
	}
	if s.Name == Wildcard {
		return fmt.Errorf("%w: type name %q is reserved", ErrInvalidSchema, s.Name)
	}
	if s.Matcher == nil {
		return fmt.Errorf("%w: type %q has no matcher", ErrInvalidSchema, s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: type %q declares no fields", ErrInvalidSchema, s.Name)
	}

	fields := slices.Clone(s.Fields)
	slices.SortStableFunc(fields, func(a, b FieldSchema) int { return a.Order - b.Order })

	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Key == "" || f.Key != strings.ToLower(f.Key) {
			return fmt.Errorf("%w: type %q has field key %q, want non-empty lowercase", ErrInvalidSchema, s.Name, f.Key)
		}
		if _, dup := index[f.Key]; dup {
			return fmt.Errorf("%w: type %q declares field %q twice", ErrInvalidSchema, s.Name, f.Key)
		}
		if f.PerPage < 0 {
			return fmt.Errorf("%w: field %s.%s has negative per-page cap", ErrInvalidSchema, s.Name, f.Key)
		}
		if f.Label == "" {
			fields[i].Label = f.Key
		}
		index[f.Key] = i
	}
	if s.PatternField != "" {
		if _, ok := index[s.PatternField]; !ok {
			return fmt.Errorf("%w: pattern field %q is not declared on %q", ErrInvalidSchema, s.PatternField, s.Name)
		}
	}

	s.Fields = fields
	s.index = index
	return nil
}

// Field looks up a field by key.
func (s *TypeSchema) Field(key string) (FieldSchema, bool) {
	i, ok := s.index[key]
	if !ok {
		return FieldSchema{}, false
	}
	return s.Fields[i], true
}

// New returns an empty record of this type. The schema must be registered.
func (s *TypeSchema) New() *Record {
	values := make([]*FieldValue, len(s.Fields))
	for i, f := range s.Fields {
		values[i] = NewFieldValue(f.Kind)
	}
	return &Record{schema: s, values: values}
}
