package meta

import (
	"cmp"
	"slices"
	"strings"
)

// Result pairs a record with how well it matched.
type Result struct {
	Record *Record
	Level  MatchLevel
}

// Query is a normalized search input.
type Query struct {
	Text string
	// All is set when the caller asked for every record instead of a search.
	All bool
}

// ParseQuery case-folds and trims raw input. The bare word "all" requests a
// full listing; a single leading backslash escapes it so "\all" searches for
// the literal word.
func ParseQuery(raw string) Query {
	q := strings.ToLower(strings.TrimSpace(raw))
	if q == Wildcard {
		return Query{All: true}
	}
	if rest, ok := strings.CutPrefix(q, `\`); ok {
		q = strings.TrimSpace(rest)
	}
	return Query{Text: q}
}

// Normalize case-folds and trims a query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Search scores every record of typ (or every type for Wildcard) against
// query and returns the ones that matched at all. Results are unordered;
// see SortResults.
func (r *Registry) Search(typ, query string) ([]Result, error) {
	if err := r.checkType(typ); err != nil {
		return nil, err
	}
	return r.Snapshot().Search(typ, query)
}

// Search is Registry.Search against one generation.
func (s *Snapshot) Search(typ, query string) ([]Result, error) {
	q := Normalize(query)
	if q == "" {
		return nil, nil
	}
	records, err := s.AllOf(typ)
	if err != nil {
		return nil, err
	}
	var out []Result
	for _, rec := range records {
		if level := rec.Matches(q); level > None {
			out = append(out, Result{Record: rec, Level: level})
		}
	}
	return out, nil
}

// SortResults orders results best level first, then by list label.
func SortResults(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		if c := cmp.Compare(b.Level, a.Level); c != 0 {
			return c
		}
		return cmp.Compare(a.Record.ListLabel(), b.Record.ListLabel())
	})
}

// Best returns the highest level among results, or None.
func Best(results []Result) MatchLevel {
	best := None
	for _, res := range results {
		best = max(best, res.Level)
	}
	return best
}
