package format

import (
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/metadex/internal/meta"
)

const continued = " [Continued]"

// RecordPages lays out rec's fields in schema order under title.
func (f *Formatter) RecordPages(rec *meta.Record, title string) []Page {
	b := newBuilder(title, StyleRecord)
	for _, field := range rec.Schema().Fields {
		if field.Hidden {
			continue
		}
		switch field.Kind {
		case meta.Multi:
			f.multiField(b, field, rec.Value(field.Key))
		default:
			f.singleField(b, field, rec.Get(field.Key))
		}
	}
	return b.finish()
}

func (f *Formatter) singleField(b *builder, field meta.FieldSchema, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if field.NewPage {
		b.flush()
	}

	if field.Code {
		for i, chunk := range Split(text, f.limits.FieldMax-fenceOverhead(field.Lang())) {
			f.place(b, Section{
				Label:  chunkLabel(field.Label, i),
				Body:   Fence(field.Lang(), strings.TrimRight(chunk, "\n ")),
				Inline: field.Inline && i == 0,
			})
		}
		return
	}

	text = StripLinks(text)
	inCode := false
	for i, chunk := range Split(text, f.limits.FieldMax) {
		f.place(b, Section{
			Label:  chunkLabel(field.Label, i),
			Body:   ParseCode(strings.TrimRight(chunk, "\n "), field.Lang(), &inCode),
			Inline: field.Inline && i == 0,
		})
	}
}

func (f *Formatter) multiField(b *builder, field meta.FieldSchema, v *meta.FieldValue) {
	if v.IsEmpty() {
		return
	}
	if field.NewPage {
		b.flush()
	}
	count := 0
	for i, item := range v.Values() {
		label := field.Label + " #" + strconv.Itoa(i+1)
		var body string
		if field.Code {
			body = Fence(field.Lang(), item)
		} else {
			inCode := false
			body = ParseCode(StripLinks(item), field.Lang(), &inCode)
		}
		b.add(Section{Label: label, Body: body, Inline: field.Inline})
		count++
		if field.PerPage > 0 && count == field.PerPage {
			b.flush()
			count = 0
		} else if b.size > f.limits.PageBreak {
			b.flush()
		}
	}
}

// place adds s and breaks the page once it passes PageBreak.
func (f *Formatter) place(b *builder, s Section) {
	b.add(s)
	if b.size > f.limits.PageBreak {
		b.flush()
	}
}

func chunkLabel(label string, i int) string {
	if i == 0 {
		return label
	}
	return label + continued
}
