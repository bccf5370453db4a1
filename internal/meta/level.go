package meta

// MatchLevel ranks how well a record matches a query.
// Levels are ordered, so the builtin min and max apply directly.
type MatchLevel int

const (
	None MatchLevel = iota
	DidYouMean
	Backup
	Partial
	Similar
	VerySimilar
	Exact
)

// Levels lists every level that represents a match, best first.
var Levels = []MatchLevel{Exact, VerySimilar, Similar, Partial, Backup, DidYouMean}

func (l MatchLevel) String() string {
	switch l {
	case None:
		return "none"
	case DidYouMean:
		return "did_you_mean"
	case Backup:
		return "backup"
	case Partial:
		return "partial"
	case Similar:
		return "similar"
	case VerySimilar:
		return "very_similar"
	case Exact:
		return "exact"
	default:
		return "unknown"
	}
}

// Title is the heading used when a single record is shown for this level.
func (l MatchLevel) Title() string {
	switch l {
	case DidYouMean:
		return "Did you mean"
	case Backup:
		return "Backup match"
	case Partial:
		return "Partial match"
	case Similar:
		return "Similar match"
	case VerySimilar:
		return "Most likely match"
	case Exact:
		return "Exact match"
	default:
		return "No match"
	}
}

// PluralTitle is the heading used when several records share this level.
func (l MatchLevel) PluralTitle() string {
	if l == DidYouMean || l == None {
		return l.Title()
	}
	return l.Title() + "es"
}
