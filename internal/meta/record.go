package meta

import (
	"fmt"
	"regexp"
	"strings"
)

// Location points at the line that opened a record.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Record is one parsed meta entry of a registered type.
type Record struct {
	schema  *TypeSchema
	values  []*FieldValue
	pattern *regexp.Regexp

	Source Location
}

func (r *Record) Schema() *TypeSchema { return r.schema }

func (r *Record) Type() string { return r.schema.Name }

// Value returns the slot for key, or nil when the type has no such field.
func (r *Record) Value(key string) *FieldValue {
	i, ok := r.schema.index[key]
	if !ok {
		return nil
	}
	return r.values[i]
}

// Get returns the first value of key, falling back to the field default.
func (r *Record) Get(key string) string {
	if v := r.Value(key); !v.IsEmpty() {
		return v.First()
	}
	if f, ok := r.schema.Field(key); ok {
		return f.Default
	}
	return ""
}

// Set writes v into the slot for key following its single/multi rule.
func (r *Record) Set(key, v string) error {
	slot := r.Value(key)
	if slot == nil {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.schema.Name, key)
	}
	return slot.Add(v)
}

// Finalize prepares the record for searching. It compiles the pattern field
// when the type declares one; an invalid pattern is returned as an error and
// the record stays usable without it.
func (r *Record) Finalize() error {
	if r.schema.PatternField == "" {
		return nil
	}
	src := strings.TrimSpace(r.Get(r.schema.PatternField))
	if src == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + src)
	if err != nil {
		return fmt.Errorf("compile %s pattern: %w", r.schema.Name, err)
	}
	r.pattern = re
	return nil
}

// Pattern returns the compiled pattern, if any.
func (r *Record) Pattern() *regexp.Regexp { return r.pattern }

// Matches scores the record against a normalized query.
func (r *Record) Matches(query string) MatchLevel {
	if query == "" {
		return None
	}
	return r.schema.Matcher.Match(r, query)
}

// ListLabel is the short identifier shown in lists and page titles.
func (r *Record) ListLabel() string {
	if r.schema.Label != nil {
		return r.schema.Label(r)
	}
	return r.Get(r.schema.Fields[0].Key)
}
