package format

import (
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/metadex/internal/meta"
)

// ResultPages groups sorted results by level under plural level titles.
// Each group's labels are joined into sections of at most FieldMax runes on
// pages of at most PageMax; a new group starts a new page once the page
// content passes PageBreak.
func (f *Formatter) ResultPages(title string, results []meta.Result) []Page {
	b := newBuilder(title, StyleList)
	sep := f.limits.Separator
	sepLen := utf8.RuneCountInString(sep)

	var (
		label string
		value strings.Builder
		size  int
		last  = meta.None
		open  bool
	)
	closeSection := func() {
		if size > 0 {
			b.add(Section{Label: label, Body: value.String()})
		}
		value.Reset()
		size = 0
	}

	for _, res := range results {
		if !open || res.Level != last {
			closeSection()
			label = res.Level.PluralTitle()
			last = res.Level
			open = true
			if b.size > f.limits.PageBreak {
				b.flush()
			}
		}
		item := res.Record.ListLabel()
		n := utf8.RuneCountInString(item)
		grown := size + n
		if size > 0 {
			grown += sepLen
		}
		if size > 0 && (grown+sepLen > f.limits.FieldMax || grown+sepLen+b.size > f.limits.PageMax) {
			closeSection()
			b.flush()
			label = res.Level.PluralTitle() + continued
			grown = n
		}
		if size > 0 {
			value.WriteString(sep)
		}
		value.WriteString(item)
		size = grown
	}
	closeSection()
	return b.finish()
}
