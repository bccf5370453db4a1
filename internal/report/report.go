package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fyrsmithlabs/metadex/internal/parser"
)

// Kind classifies a report entry.
type Kind string

const (
	KindParse        Kind = "parse"
	KindFetchFailure Kind = "fetch_failure"
	KindOversize     Kind = "oversize"
	KindReadFailure  Kind = "read_failure"
)

// Entry is one report item: a header plus detail lines.
type Entry struct {
	Kind    Kind     `json:"kind"`
	File    string   `json:"file,omitempty"`
	Line    int      `json:"line,omitempty"`
	Header  string   `json:"header"`
	Details []string `json:"details,omitempty"`
}

// Report is the ordered set of entries produced by a reload.
type Report struct {
	ReloadID string
	Started  time.Time
	Entries  []Entry
}

func New(reloadID string, started time.Time) *Report {
	return &Report{ReloadID: reloadID, Started: started}
}

func (r *Report) Add(e Entry) {
	r.Entries = append(r.Entries, e)
}

// AddWarnings appends parser warnings in order.
func (r *Report) AddWarnings(ws []parser.Warning) {
	for _, w := range ws {
		lines := w.Lines()
		r.Add(Entry{
			Kind:    KindParse,
			File:    w.File,
			Line:    w.Line,
			Header:  lines[0],
			Details: lines[1:],
		})
	}
}

// AddFetchFailure records a repository that was skipped.
func (r *Report) AddFetchFailure(source string, err error) {
	r.Add(Entry{
		Kind:    KindFetchFailure,
		Header:  fmt.Sprintf("Failed to fetch repository: %s", source),
		Details: []string{err.Error()},
	})
}

// AddOversize records a file skipped for exceeding max bytes.
func (r *Report) AddOversize(path string, size, max int64) {
	r.Add(Entry{
		Kind:   KindOversize,
		File:   path,
		Header: fmt.Sprintf("Skipped file larger than %d bytes (%d): %s", max, size, path),
	})
}

// AddReadFailure records a file that could not be parsed at all.
func (r *Report) AddReadFailure(path string, err error) {
	r.Add(Entry{
		Kind:    KindReadFailure,
		File:    path,
		Header:  fmt.Sprintf("Failed to read file: %s", path),
		Details: []string{err.Error()},
	})
}

func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Entries)
}

// Count returns the number of entries of kind k.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, e := range r.Entries {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Header is the line written ahead of the entries of every reload.
func (r *Report) Header() string {
	return fmt.Sprintf("=== reload %s at %s: %d warning(s) ===",
		r.ReloadID, r.Started.UTC().Format(time.RFC3339), r.Len())
}

// Render produces the text form, passing every line through clean.
func (r *Report) Render(clean func(string) string) string {
	if clean == nil {
		clean = func(s string) string { return s }
	}
	var b strings.Builder
	b.WriteString(r.Header())
	b.WriteByte('\n')
	for _, e := range r.Entries {
		b.WriteString(clean(e.Header))
		b.WriteByte('\n')
		for _, d := range e.Details {
			b.WriteString(clean(d))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// WriteTo writes the unredacted text form to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, r.Render(nil))
	return int64(n), err
}
