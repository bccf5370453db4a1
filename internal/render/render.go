// Package render draws pages for the terminal: lipgloss styling for plain
// output and a bubbletea pager for interactive browsing.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/metadex/internal/format"
)

// Width is the content width pages are wrapped to.
const Width = 80

var (
	// Gold for lists and results, blue for records, red for errors.
	accent = map[format.Style]lipgloss.Color{
		format.StyleList:   lipgloss.Color("220"),
		format.StyleRecord: lipgloss.Color("39"),
		format.StyleError:  lipgloss.Color("196"),
	}

	labelStyle = lipgloss.NewStyle().Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Width(Width - 4)

	inlineStyle = lipgloss.NewStyle().
			MarginRight(3)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)
)

func containerStyle(s format.Style) lipgloss.Style {
	c, ok := accent[s]
	if !ok {
		c = accent[format.StyleList]
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Padding(0, 1)
}

func titleStyle(s format.Style) lipgloss.Style {
	c, ok := accent[s]
	if !ok {
		c = accent[format.StyleList]
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).MarginBottom(1)
}

// Page renders one page in a bordered box. Consecutive inline sections sit
// side by side.
func Page(p format.Page) string {
	var blocks []string
	if p.Title != "" {
		blocks = append(blocks, titleStyle(p.Style).Render(p.Title))
	}
	if p.Description != "" {
		blocks = append(blocks, bodyStyle.Render(p.Description))
	}

	var row []string
	flushRow := func() {
		if len(row) > 0 {
			blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	for _, sec := range p.Sections {
		if sec.Inline {
			row = append(row, inlineStyle.Render(section(sec)))
			continue
		}
		flushRow()
		blocks = append(blocks, section(sec))
	}
	flushRow()

	if p.Total > 1 {
		blocks = append(blocks, footerStyle.Render(p.Footer()))
	}
	return containerStyle(p.Style).Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}

func section(sec format.Section) string {
	return labelStyle.Render(sec.Label) + "\n" + bodyStyle.Render(sec.Body)
}

// Pages renders every page, one after another.
func Pages(pages []format.Page) string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = Page(p)
	}
	return strings.Join(out, "\n")
}

// Summary is a one-line description of how many pages an answer has.
func Summary(pages []format.Page) string {
	if len(pages) == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", len(pages))
}
