package parser

import "fmt"

// Kind classifies a parse warning.
type Kind int

const (
	UnknownType Kind = iota
	MalformedOpen
	UnknownField
	DuplicateValue
	InvalidPattern
	Unterminated
)

func (k Kind) String() string {
	switch k {
	case UnknownType:
		return "unknown_type"
	case MalformedOpen:
		return "malformed_open"
	case UnknownField:
		return "unknown_field"
	case DuplicateValue:
		return "duplicate_value"
	case InvalidPattern:
		return "invalid_pattern"
	case Unterminated:
		return "unterminated"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal problem found while parsing.
type Warning struct {
	File string
	Line int
	Kind Kind
	// Detail names the offending type, field or error.
	Detail string
	// Raw is the source line, when one applies.
	Raw string
}

// Message is the one-line description used as the report header.
func (w Warning) Message() string {
	switch w.Kind {
	case UnknownType:
		return fmt.Sprintf("Unknown meta type on line %d in file: %s", w.Line, w.File)
	case MalformedOpen:
		return fmt.Sprintf("Invalid opening meta formatting on line %d in file: %s", w.Line, w.File)
	case UnknownField:
		return fmt.Sprintf("Unknown property %s on line %d in file: %s", w.Detail, w.Line, w.File)
	case DuplicateValue:
		return fmt.Sprintf("Invalid multi-section meta %s on line %d in file: %s", w.Detail, w.Line, w.File)
	case InvalidPattern:
		return fmt.Sprintf("Invalid pattern in meta opened on line %d in file: %s", w.Line, w.File)
	case Unterminated:
		return fmt.Sprintf("Unterminated %s meta opened on line %d in file: %s", w.Detail, w.Line, w.File)
	default:
		return fmt.Sprintf("Meta problem on line %d in file: %s", w.Line, w.File)
	}
}

// Lines renders the warning as report lines: the message, then the
// offending detail and raw source line where they add information.
func (w Warning) Lines() []string {
	lines := []string{w.Message()}
	switch w.Kind {
	case UnknownType:
		lines = append(lines, fmt.Sprintf("'%s'", w.Detail))
	case InvalidPattern:
		lines = append(lines, w.Detail)
	}
	if w.Raw != "" {
		lines = append(lines, w.Raw)
	}
	return lines
}
