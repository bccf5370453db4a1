package meta

import (
	"strings"
	"unicode/utf8"
)

// MaxEditDistance bounds the Levenshtein distance accepted by IsTextSimilar.
const MaxEditDistance = 3

// Policy is the table-driven Matcher used by the built-in types.
//
// Every candidate name is scored with BasicMatch (or DottedMatch when Dotted
// is set) and, when Fuzzy is set, IsTextSimilar. The best level across all
// names wins. Secondary names a field searched for the query as a last
// resort, yielding Backup.
type Policy struct {
	Names     func(r *Record) []string
	Secondary string
	Fuzzy     bool
	Dotted    bool
	// Suffix is stripped from the leading segment of dotted names and
	// queries, so "locationtag.world" compares as "location.world".
	Suffix string
	// QueryPrefix is optional in queries and removed before comparison.
	// Patterns are tried against the query with the prefix present.
	QueryPrefix string
	// Clean rewrites both sides before comparison.
	Clean func(string) string
}

// Match implements Matcher.
func (p Policy) Match(r *Record, query string) MatchLevel {
	q := strings.TrimPrefix(query, p.QueryPrefix)
	if p.Clean != nil {
		q = p.Clean(q)
	}
	if q == "" {
		return None
	}
	if re := r.Pattern(); re != nil && re.MatchString(p.QueryPrefix+q) {
		return Exact
	}
	if p.Suffix != "" {
		q = stripLeadingSuffix(q, p.Suffix)
	}

	best := None
	if p.Names != nil {
		for _, name := range p.Names(r) {
			n := strings.ToLower(strings.TrimSpace(name))
			if p.Clean != nil {
				n = p.Clean(n)
			}
			if p.Suffix != "" {
				n = stripLeadingSuffix(n, p.Suffix)
			}
			if n == "" {
				continue
			}
			var level MatchLevel
			if p.Dotted {
				level = DottedMatch(n, q)
			} else {
				level = BasicMatch(n, q)
			}
			if p.Fuzzy && level == None && IsTextSimilar(n, q) {
				level = DidYouMean
			}
			best = max(best, level)
			if best == Exact {
				return Exact
			}
		}
	}

	if best < Backup && p.Secondary != "" && utf8.RuneCountInString(q) > 3 {
		if strings.Contains(strings.ToLower(r.Get(p.Secondary)), q) {
			best = Backup
		}
	}
	return best
}

// BasicMatch scores query against name with the exact, prefix and substring
// rules. Both sides are expected to be lowercase.
func BasicMatch(name, query string) MatchLevel {
	switch {
	case query == "":
		return None
	case name == query:
		return Exact
	case strings.HasPrefix(name, query):
		diff := utf8.RuneCountInString(name) - utf8.RuneCountInString(query)
		if diff >= 1 && diff <= 3 {
			return VerySimilar
		}
		return Similar
	case strings.Contains(name, query):
		return Partial
	default:
		return None
	}
}

// DottedMatch compares dot-separated paths segment by segment and returns
// the weakest segment level. A query with more segments than the name never
// matches. The name is split into at most as many segments as the query, so
// the last query segment is compared against the remainder of the name.
func DottedMatch(name, query string) MatchLevel {
	qs := strings.Split(query, ".")
	if len(qs) > strings.Count(name, ".")+1 {
		return None
	}
	ns := strings.SplitN(name, ".", len(qs))
	level := Exact
	for i := range qs {
		level = min(level, BasicMatch(ns[i], qs[i]))
		if level == None {
			return None
		}
	}
	return level
}

// IsTextSimilar reports whether a and b share their first or last character
// and are within MaxEditDistance edits of each other.
func IsTextSimilar(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ra, rb := []rune(a), []rune(b)
	if ra[0] != rb[0] && ra[len(ra)-1] != rb[len(rb)-1] {
		return false
	}
	return Levenshtein(a, b) <= MaxEditDistance
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// StripTag reduces a tag reference like "<player.flag[x].expiration>" or
// "<@link tag Foo@bar.baz>" to its bare dotted path.
func StripTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "<")
	tag = strings.TrimSuffix(tag, ">")
	for {
		open := strings.IndexByte(tag, '[')
		if open < 0 {
			break
		}
		end := strings.IndexByte(tag[open:], ']')
		if end < 0 {
			tag = tag[:open]
			break
		}
		tag = tag[:open] + tag[open+end+1:]
	}
	if at := strings.IndexByte(tag, '@'); at >= 0 {
		tag = tag[at+1:]
	}
	return tag
}

// stripLeadingSuffix removes suffix from the first segment of a dotted path.
func stripLeadingSuffix(s, suffix string) string {
	dot := strings.IndexByte(s, '.')
	if dot <= len(suffix) {
		return s
	}
	head := s[:dot]
	if !strings.HasSuffix(head, suffix) {
		return s
	}
	return head[:len(head)-len(suffix)] + s[dot:]
}

// FieldNames returns a Names function yielding the first value of each key.
func FieldNames(keys ...string) func(*Record) []string {
	return func(r *Record) []string {
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, r.Get(k))
		}
		return out
	}
}

// LineNames returns a Names function yielding every non-empty line of every
// value of key. Used for fields that document several names at once.
func LineNames(key string) func(*Record) []string {
	return func(r *Record) []string {
		var out []string
		for v := range r.Value(key).All() {
			for line := range strings.SplitSeq(v, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					out = append(out, line)
				}
			}
		}
		return out
	}
}
