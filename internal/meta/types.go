package meta

import "strings"

// Built-in record types.
const (
	TypeCommand   = "command"
	TypeTag       = "tag"
	TypeMechanism = "mechanism"
	TypeEvent     = "event"
	TypeAction    = "action"
	TypeLanguage  = "language"
)

// Builtins returns fresh copies of the built-in schemas in registration
// order. Each call returns new values so separate registries never share
// state.
func Builtins() []*TypeSchema {
	return []*TypeSchema{
		commandSchema(),
		tagSchema(),
		mechanismSchema(),
		eventSchema(),
		actionSchema(),
		languageSchema(),
	}
}

// NewBuiltinRegistry returns a registry with every built-in type registered.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(Builtins()...)
	return r
}

func commandSchema() *TypeSchema {
	return &TypeSchema{
		Name: TypeCommand,
		Fields: []FieldSchema{
			{Key: "name", Label: "Name", Order: 0, Inline: true},
			{Key: "required", Label: "Args Required", Order: 1, Inline: true},
			{Key: "group", Label: "Group", Order: 2, Inline: true, Default: "none"},
			{Key: "syntax", Label: "Syntax", Order: 3},
			{Key: "short", Label: "Description", Order: 4},
			{Key: "tags", Label: "Tags", Order: 5},
			{Key: "description", Label: "Long Description", Order: 6, NewPage: true},
			{Key: "usage", Label: "Usage", Order: 7, Kind: Multi, Code: true, NewPage: true, PerPage: 2},
			{Key: "author", Label: "Initial Author", Order: 8, NewPage: true},
		},
		Matcher: Policy{Names: FieldNames("name")},
	}
}

func tagSchema() *TypeSchema {
	return &TypeSchema{
		Name: TypeTag,
		Fields: []FieldSchema{
			{Key: "attribute", Label: "Attribute", Order: 0, Inline: true},
			{Key: "returns", Label: "Returns", Order: 1, Inline: true},
			{Key: "group", Label: "Group", Order: 2, Inline: true},
			{Key: "mechanism", Label: "Mechanism", Order: 3, Inline: true},
			{Key: "description", Label: "Description", Order: 4},
			{Key: "plugin", Label: "Required Plugins", Order: 5},
		},
		Matcher: Policy{Names: FieldNames("attribute"), Dotted: true, Clean: StripTag},
	}
}

func mechanismSchema() *TypeSchema {
	return &TypeSchema{
		Name: TypeMechanism,
		Fields: []FieldSchema{
			{Key: "object", Label: "Object", Order: 0, Inline: true},
			{Key: "name", Label: "Name", Order: 1, Inline: true},
			{Key: "input", Label: "Input", Order: 2, Inline: true},
			{Key: "description", Label: "Description", Order: 3},
			{Key: "tags", Label: "Tags", Order: 4},
		},
		Matcher: Policy{Names: mechanismName, Suffix: "tag", Fuzzy: true},
		Label: func(r *Record) string {
			return "!m " + r.Get("object") + "." + r.Get("name")
		},
	}
}

func mechanismName(r *Record) []string {
	return []string{r.Get("object") + "." + r.Get("name")}
}

func eventSchema() *TypeSchema {
	return &TypeSchema{
		Name: TypeEvent,
		Fields: []FieldSchema{
			{Key: "events", Label: "Events", Order: 0},
			{Key: "switch", Label: "Switch", Order: 1, Kind: Multi, Inline: true},
			{Key: "triggers", Label: "Triggers", Order: 2},
			{Key: "context", Label: "Context", Order: 3},
			{Key: "determine", Label: "Determine", Order: 4},
			{Key: "cancellable", Label: "Cancellable", Order: 5},
			{Key: "regex", Label: "Regex", Order: 6, Hidden: true},
		},
		Matcher:      Policy{Names: LineNames("events"), Secondary: "triggers", QueryPrefix: "on "},
		Label:        func(r *Record) string { return strings.Join(LineNames("events")(r), ", ") },
		PatternField: "regex",
	}
}

func actionSchema() *TypeSchema {
	return &TypeSchema{
		Name: TypeAction,
		Fields: []FieldSchema{
			{Key: "actions", Label: "Actions", Order: 0},
			{Key: "triggers", Label: "Triggers", Order: 1},
			{Key: "context", Label: "Context", Order: 2},
			{Key: "determine", Label: "Determine", Order: 3},
		},
		Matcher: Policy{Names: LineNames("actions"), Secondary: "triggers", QueryPrefix: "on ", Fuzzy: true},
		Label: func(r *Record) string {
			return "!a " + strings.Join(LineNames("actions")(r), ", !a ")
		},
	}
}

func languageSchema() *TypeSchema {
	return &TypeSchema{
		Name: TypeLanguage,
		Fields: []FieldSchema{
			{Key: "name", Label: "Name", Order: 0, Inline: true},
			{Key: "group", Label: "Group", Order: 1, Inline: true, Default: "none"},
			{Key: "description", Label: "Description", Order: 2},
		},
		Matcher: Policy{Names: FieldNames("name"), Fuzzy: true},
		Label:   func(r *Record) string { return "!l " + r.Get("name") },
	}
}
