package render

import (
	"bytes"
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/metadex/internal/format"
)

func samplePages() []format.Page {
	return format.Number([]format.Page{
		{
			Title: "Exact match",
			Style: format.StyleRecord,
			Sections: []format.Section{
				{Label: "Name", Body: "teleport", Inline: true},
				{Label: "Group", Body: "entity", Inline: true},
				{Label: "Description", Body: "Teleports the player."},
			},
		},
		{Title: "Exact match", Style: format.StyleRecord, Sections: []format.Section{{Label: "Usage #1", Body: "- teleport <player>"}}},
		{Title: "Exact match", Style: format.StyleRecord, Sections: []format.Section{{Label: "Usage #2", Body: "- teleport spawn"}}},
	})
}

func TestPage(t *testing.T) {
	out := Page(samplePages()[0])
	for _, want := range []string{"Exact match", "Name", "teleport", "Group", "entity", "Description", "Teleports the player.", "Page 1/3"} {
		assert.Contains(t, out, want)
	}
}

func TestPage_SinglePageHasNoFooter(t *testing.T) {
	p := format.Number([]format.Page{{Style: format.StyleError, Description: "No commands were found matching the specified input."}})[0]
	out := Page(p)
	assert.Contains(t, out, "No commands were found")
	assert.NotContains(t, out, "Page 1/1")
}

func TestPages(t *testing.T) {
	out := Pages(samplePages())
	assert.Contains(t, out, "Usage #1")
	assert.Contains(t, out, "Usage #2")
	assert.Equal(t, "3 pages", Summary(samplePages()))
	assert.Equal(t, "1 page", Summary(samplePages()[:1]))
}

func press(m tea.Model, k string) tea.Model {
	var msg tea.KeyMsg
	switch k {
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next
}

func TestPager_Navigation(t *testing.T) {
	var m tea.Model = NewPager(samplePages())

	m = press(m, "n")
	assert.Equal(t, 1, m.(Pager).Current())
	m = press(m, "right")
	m = press(m, "right")
	assert.Equal(t, 2, m.(Pager).Current(), "clamped at the last page")
	m = press(m, "f")
	assert.Equal(t, 0, m.(Pager).Current())
	m = press(m, "left")
	assert.Equal(t, 0, m.(Pager).Current(), "clamped at the first page")
	m = press(m, "L")
	assert.Equal(t, 2, m.(Pager).Current())
	assert.Contains(t, m.View(), "Page 3/3")
	assert.Contains(t, m.View(), "quit")
}

func TestPager_Quit(t *testing.T) {
	m := NewPager(samplePages())
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.True(t, next.(Pager).quitting)
	assert.Empty(t, next.View())
}

func TestRunPager_SinglePagePrints(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunPager(context.Background(), samplePages()[:1], nil, &out))
	assert.Contains(t, out.String(), "teleport")
}
