package render

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/metadex/internal/format"
)

type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding
	Quit  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("n", "right", "l", "pgdown", " "),
			key.WithHelp("n/→", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left", "h", "pgup"),
			key.WithHelp("p/←", "prev"),
		),
		First: key.NewBinding(
			key.WithKeys("f", "home", "g"),
			key.WithHelp("f", "first"),
		),
		Last: key.NewBinding(
			key.WithKeys("L", "end", "G"),
			key.WithHelp("L", "last"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

var (
	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Pager is the bubbletea model for browsing pages.
type Pager struct {
	pages    []format.Page
	current  int
	keys     keyMap
	quitting bool
}

// NewPager starts on the first page.
func NewPager(pages []format.Page) Pager {
	return Pager{pages: pages, keys: defaultKeys()}
}

// Current is the zero-based index of the page on screen.
func (m Pager) Current() int { return m.current }

func (m Pager) Init() tea.Cmd { return nil }

// Update moves between pages; moves past either end stay put.
func (m Pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	last := len(m.pages) - 1
	switch {
	case key.Matches(km, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(km, m.keys.Next):
		m.current = min(last, m.current+1)
	case key.Matches(km, m.keys.Prev):
		m.current = max(0, m.current-1)
	case key.Matches(km, m.keys.First):
		m.current = 0
	case key.Matches(km, m.keys.Last):
		m.current = max(0, last)
	}
	return m, nil
}

func (m Pager) View() string {
	if m.quitting || len(m.pages) == 0 {
		return ""
	}
	return Page(m.pages[m.current]) + "\n" + m.help() + "\n"
}

func (m Pager) help() string {
	var parts []string
	for _, b := range []key.Binding{m.keys.Prev, m.keys.Next, m.keys.First, m.keys.Last, m.keys.Quit} {
		h := b.Help()
		parts = append(parts, helpKeyStyle.Render("["+h.Key+"]")+" "+helpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// RunPager browses pages until the user quits or ctx is done. A single
// page is printed without starting the pager.
func RunPager(ctx context.Context, pages []format.Page, in io.Reader, out io.Writer) error {
	if len(pages) <= 1 {
		_, err := io.WriteString(out, Pages(pages)+"\n")
		return err
	}
	p := tea.NewProgram(NewPager(pages),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	return err
}
