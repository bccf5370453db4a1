package format

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Style hints how a page should be colored by a renderer.
type Style string

const (
	StyleList   Style = "list"
	StyleRecord Style = "record"
	StyleError  Style = "error"
)

// Section is one labeled block of a page.
type Section struct {
	Label  string `json:"label"`
	Body   string `json:"body"`
	Inline bool   `json:"inline,omitempty"`
}

// Page is one self-contained unit of output.
type Page struct {
	Title       string    `json:"title"`
	Style       Style     `json:"style"`
	Description string    `json:"description,omitempty"`
	Sections    []Section `json:"sections,omitempty"`
	Number      int       `json:"number"`
	Total       int       `json:"total"`
}

// Footer renders the page position, e.g. "Page 2/5".
func (p Page) Footer() string {
	return fmt.Sprintf("Page %d/%d", p.Number, p.Total)
}

// Len is the rune count of the page content, excluding title and footer.
func (p Page) Len() int {
	n := utf8.RuneCountInString(p.Description)
	for _, s := range p.Sections {
		n += utf8.RuneCountInString(s.Body)
	}
	return n
}

// Text renders the page as plain text.
func (p Page) Text() string {
	var b strings.Builder
	if p.Title != "" {
		b.WriteString(p.Title)
		b.WriteString("\n\n")
	}
	if p.Description != "" {
		b.WriteString(p.Description)
		b.WriteString("\n")
	}
	for _, s := range p.Sections {
		b.WriteString(s.Label)
		b.WriteString(":\n")
		b.WriteString(s.Body)
		b.WriteString("\n\n")
	}
	if p.Total > 1 {
		b.WriteString(p.Footer())
		b.WriteString("\n")
	}
	return b.String()
}

// Number sets the position fields of every page.
func Number(pages []Page) []Page {
	for i := range pages {
		pages[i].Number = i + 1
		pages[i].Total = len(pages)
	}
	return pages
}

// Limits bounds page sizes.
type Limits struct {
	ListBudget int
	Separator  string
	FieldMax   int
	PageBreak  int
	PageMax    int
}

// DefaultLimits returns the standard page sizes.
func DefaultLimits() Limits {
	return Limits{
		ListBudget: 1500,
		Separator:  ", ",
		FieldMax:   1000,
		PageBreak:  1250,
		PageMax:    1500,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.ListBudget <= 0 {
		l.ListBudget = d.ListBudget
	}
	if l.Separator == "" {
		l.Separator = d.Separator
	}
	if l.FieldMax <= 0 {
		l.FieldMax = d.FieldMax
	}
	if l.PageBreak <= 0 {
		l.PageBreak = d.PageBreak
	}
	if l.PageMax <= 0 {
		l.PageMax = d.PageMax
	}
	return l
}

// Formatter builds pages under a fixed set of limits.
type Formatter struct {
	limits Limits
}

// New returns a formatter; zero fields of limits take their defaults.
func New(limits Limits) *Formatter {
	return &Formatter{limits: limits.withDefaults()}
}

func (f *Formatter) Limits() Limits { return f.limits }

// builder accumulates sections and closes pages.
type builder struct {
	title string
	style Style
	pages []Page
	cur   Page
	size  int
}

func newBuilder(title string, style Style) *builder {
	b := &builder{title: title, style: style}
	b.cur = Page{Title: title, Style: style}
	return b
}

func (b *builder) add(s Section) {
	b.cur.Sections = append(b.cur.Sections, s)
	b.size += utf8.RuneCountInString(s.Body)
}

// flush closes the current page if it holds anything.
func (b *builder) flush() {
	if len(b.cur.Sections) == 0 && b.cur.Description == "" {
		return
	}
	b.pages = append(b.pages, b.cur)
	b.cur = Page{Title: b.title, Style: b.style}
	b.size = 0
}

func (b *builder) finish() []Page {
	b.flush()
	return Number(b.pages)
}
