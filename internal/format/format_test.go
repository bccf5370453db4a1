package format

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/metadex/internal/meta"
)

func register(t *testing.T, s *meta.TypeSchema) *meta.TypeSchema {
	t.Helper()
	require.NoError(t, meta.NewRegistry().Register(s))
	return s
}

func record(t *testing.T, s *meta.TypeSchema, kv ...string) *meta.Record {
	t.Helper()
	rec := s.New()
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, rec.Set(kv[i], kv[i+1]))
	}
	require.NoError(t, rec.Finalize())
	return rec
}

func TestPaginateList_RoundTrip(t *testing.T) {
	var items []string
	for i := range 200 {
		items = append(items, fmt.Sprintf("item-%d", i))
	}
	id := func(s string) string { return s }

	for _, budget := range []int{12, 40, 100, 1500} {
		t.Run(fmt.Sprint(budget), func(t *testing.T) {
			pages := PaginateList(items, id, budget, ", ")
			require.NotEmpty(t, pages)
			for _, p := range pages {
				assert.Less(t, utf8.RuneCountInString(p), budget)
			}
			assert.Equal(t, strings.Join(items, ", "), strings.Join(pages, ", "))
		})
	}
}

func TestPaginateList_Edges(t *testing.T) {
	id := func(s string) string { return s }

	assert.Empty(t, PaginateList(nil, id, 10, ", "))
	assert.Equal(t, []string{"a, b"}, PaginateList([]string{"a", "b"}, id, 10, ", "))

	// An item at the budget still lands on its own page.
	pages := PaginateList([]string{"a", "0123456789", "b"}, id, 10, ", ")
	assert.Equal(t, []string{"a", "0123456789", "b"}, pages)
}

func TestPaginateList_Labeler(t *testing.T) {
	pages := PaginateList([]int{1, 2, 3}, func(i int) string { return fmt.Sprintf("#%d", i) }, 1500, " | ")
	assert.Equal(t, []string{"#1 | #2 | #3"}, pages)
}

func TestListPages(t *testing.T) {
	f := New(Limits{ListBudget: 13})
	pages := f.ListPages("All known commands", []string{"give", "take", "teleport", "narrate"})
	require.Len(t, pages, 3)
	assert.Equal(t, "give, take", pages[0].Description)
	assert.Equal(t, "All known commands", pages[1].Title)
	assert.Equal(t, StyleList, pages[2].Style)
	assert.Equal(t, "Page 3/3", pages[2].Footer())
}

func TestRecordPages_UsagePerPage(t *testing.T) {
	s := register(t, &meta.TypeSchema{
		Name: "command",
		Fields: []meta.FieldSchema{
			{Key: "name", Label: "Name", Order: 0},
			{Key: "usage", Label: "Usage", Order: 1, Kind: meta.Multi, PerPage: 2},
		},
		Matcher: meta.Policy{Names: meta.FieldNames("name")},
	})
	rec := record(t, s, "name", "teleport", "usage", "- teleport a", "usage", "- teleport b", "usage", "- teleport c")

	pages := New(Limits{}).RecordPages(rec, meta.Exact.Title())
	require.Len(t, pages, 2)

	first := pages[0]
	assert.Equal(t, "Exact match", first.Title)
	require.Len(t, first.Sections, 3)
	assert.Equal(t, "Name", first.Sections[0].Label)
	assert.Equal(t, "teleport", first.Sections[0].Body)
	assert.Equal(t, "Usage #1", first.Sections[1].Label)
	assert.Equal(t, "Usage #2", first.Sections[2].Label)

	require.Len(t, pages[1].Sections, 1)
	assert.Equal(t, "Usage #3", pages[1].Sections[0].Label)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, 2, pages[1].Total)
}

func TestRecordPages_BuiltinCommand(t *testing.T) {
	reg := meta.NewBuiltinRegistry()
	s, ok := reg.Schema(meta.TypeCommand)
	require.True(t, ok)

	rec := record(t, s,
		"name", "Teleport",
		"syntax", "teleport (<entity>|...) [<location>]",
		"description", "Moves an entity. See <@link language location tags>.",
		"usage", "Use to go home.\n- teleport <player> <player.bed_spawn>",
	)
	pages := New(Limits{}).RecordPages(rec, "Exact match")
	require.Len(t, pages, 3)

	byLabel := map[string]Section{}
	for _, p := range pages {
		for _, sec := range p.Sections {
			byLabel[sec.Label] = sec
		}
	}
	assert.Equal(t, "none", byLabel["Group"].Body, "default displayed")
	assert.True(t, byLabel["Name"].Inline)
	assert.Equal(t, `teleport \(<entity\>|...) \[<location\>]`, byLabel["Syntax"].Body)
	assert.Equal(t, "Moves an entity. See location tags.", byLabel["Long Description"].Body)
	assert.Equal(t, "```yml\nUse to go home.\n- teleport <player> <player.bed_spawn>\n```", byLabel["Usage #1"].Body)

	assert.Equal(t, "Long Description", pages[1].Sections[0].Label)
	assert.Equal(t, "Usage #1", pages[2].Sections[0].Label)
}

func TestRecordPages_HiddenSkipped(t *testing.T) {
	reg := meta.NewBuiltinRegistry()
	s, _ := reg.Schema(meta.TypeEvent)
	rec := record(t, s, "events", "player breaks block", "regex", "^player breaks")

	pages := New(Limits{}).RecordPages(rec, "t")
	for _, p := range pages {
		for _, sec := range p.Sections {
			assert.NotEqual(t, "Regex", sec.Label)
		}
	}
}

func TestRecordPages_LongFieldSplits(t *testing.T) {
	s := register(t, &meta.TypeSchema{
		Name:    "language",
		Fields:  []meta.FieldSchema{{Key: "description", Label: "Description"}},
		Matcher: meta.Policy{Names: meta.FieldNames("description")},
	})
	line := strings.Repeat("word ", 39) + "end\n" // 199 runes
	rec := record(t, s, "description", strings.Repeat(line, 12))

	pages := New(Limits{}).RecordPages(rec, "t")
	var sections []Section
	for _, p := range pages {
		assert.LessOrEqual(t, p.Len(), 1250+1000)
		sections = append(sections, p.Sections...)
	}
	require.Len(t, sections, 3)
	assert.Equal(t, "Description", sections[0].Label)
	assert.Equal(t, "Description [Continued]", sections[1].Label)
	for _, sec := range sections {
		assert.LessOrEqual(t, utf8.RuneCountInString(sec.Body), 1000)
	}
	assert.Greater(t, len(pages), 1, "two full chunks pass the page break")
}

func TestRecordPages_Empty(t *testing.T) {
	s := register(t, &meta.TypeSchema{
		Name:    "x",
		Fields:  []meta.FieldSchema{{Key: "name"}},
		Matcher: meta.Policy{Names: meta.FieldNames("name")},
	})
	assert.Empty(t, New(Limits{}).RecordPages(s.New(), "t"))
}

func TestResultPages(t *testing.T) {
	s := register(t, &meta.TypeSchema{
		Name:    "command",
		Fields:  []meta.FieldSchema{{Key: "name"}},
		Matcher: meta.Policy{Names: meta.FieldNames("name")},
	})
	results := []meta.Result{
		{Record: record(t, s, "name", "teleport"), Level: meta.VerySimilar},
		{Record: record(t, s, "name", "telport"), Level: meta.VerySimilar},
		{Record: record(t, s, "name", "tell"), Level: meta.Partial},
		{Record: record(t, s, "name", "kill"), Level: meta.DidYouMean},
	}

	pages := New(Limits{}).ResultPages("Results", results)
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Sections, 3)
	assert.Equal(t, Section{Label: "Most likely matches", Body: "teleport, telport"}, pages[0].Sections[0])
	assert.Equal(t, Section{Label: "Partial matches", Body: "tell"}, pages[0].Sections[1])
	assert.Equal(t, Section{Label: "Did you mean", Body: "kill"}, pages[0].Sections[2])
}

func TestResultPages_Overflow(t *testing.T) {
	s := register(t, &meta.TypeSchema{
		Name:    "command",
		Fields:  []meta.FieldSchema{{Key: "name"}},
		Matcher: meta.Policy{Names: meta.FieldNames("name")},
	})
	var results []meta.Result
	for i := range 300 {
		results = append(results, meta.Result{Record: record(t, s, "name", fmt.Sprintf("command-%03d", i)), Level: meta.Similar})
	}

	pages := New(Limits{}).ResultPages("Results", results)
	require.Greater(t, len(pages), 1)

	var labels []string
	for i, p := range pages {
		assert.LessOrEqual(t, p.Len(), 1500)
		for _, sec := range p.Sections {
			assert.LessOrEqual(t, utf8.RuneCountInString(sec.Body), 1000)
			labels = append(labels, strings.Split(sec.Body, ", ")...)
		}
		if i > 0 {
			assert.Equal(t, "Similar matches [Continued]", p.Sections[0].Label)
		}
	}
	assert.Len(t, labels, 300)
	assert.Equal(t, "command-000", labels[0])
	assert.Equal(t, "command-299", labels[299])
}
