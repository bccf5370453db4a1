package format

import (
	"strings"
	"unicode/utf8"
)

// PaginateList greedily joins the labels of items with sep into pages.
// A page is closed when it would reach budget with the next item and a
// trailing separator appended. An item longer than budget still gets a page
// of its own.
func PaginateList[T any](items []T, label func(T) string, budget int, sep string) []string {
	var (
		pages []string
		page  strings.Builder
		size  int
		empty = true
	)
	sepLen := utf8.RuneCountInString(sep)
	for _, item := range items {
		val := label(item)
		n := utf8.RuneCountInString(val)
		if !empty && size+sepLen+n+sepLen >= budget {
			pages = append(pages, page.String())
			page.Reset()
			size, empty = 0, true
		}
		if !empty {
			page.WriteString(sep)
			size += sepLen
		}
		page.WriteString(val)
		size += n
		empty = false
	}
	if !empty {
		pages = append(pages, page.String())
	}
	return pages
}

// ListPages lays labels out as described list pages under title.
func (f *Formatter) ListPages(title string, labels []string) []Page {
	chunks := PaginateList(labels, func(s string) string { return s }, f.limits.ListBudget, f.limits.Separator)
	pages := make([]Page, len(chunks))
	for i, c := range chunks {
		pages[i] = Page{Title: title, Style: StyleList, Description: c}
	}
	return Number(pages)
}
