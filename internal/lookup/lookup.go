// Package lookup turns a raw query into display pages. Every surface (CLI,
// HTTP, MCP) answers through the same Service so they agree on when a
// record is shown in full and when results are grouped.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/metadex/internal/format"
	"github.com/fyrsmithlabs/metadex/internal/meta"
	"github.com/fyrsmithlabs/metadex/internal/pages"
)

// ErrEmptyQuery is returned for blank input.
var ErrEmptyQuery = errors.New("empty query")

// Index is the part of index.Service a lookup needs.
type Index interface {
	Search(ctx context.Context, typ, query string) ([]meta.Result, error)
	AllOf(typ string) ([]*meta.Record, error)
}

// Kind says which view an answer holds.
type Kind string

const (
	KindList    Kind = "list"
	KindRecord  Kind = "record"
	KindResults Kind = "results"
	KindNone    Kind = "none"
)

// Answer is the outcome of one lookup.
type Answer struct {
	Kind    Kind            `json:"kind"`
	Type    string          `json:"type"`
	Query   string          `json:"query,omitempty"`
	Level   meta.MatchLevel `json:"-"`
	Best    string          `json:"best,omitempty"`
	Results int             `json:"results"`
	View    pages.View      `json:"view"`
	// Pages holds every page of the answer for callers that page locally.
	Pages []format.Page `json:"-"`
}

// Service answers queries against an index.
type Service struct {
	index     Index
	formatter *format.Formatter
	store     *pages.Store
}

// New returns a lookup service. Multi-page answers are kept in store so
// they can be navigated later.
func New(index Index, formatter *format.Formatter, store *pages.Store) *Service {
	if formatter == nil {
		formatter = format.New(format.DefaultLimits())
	}
	if store == nil {
		store = pages.NewStore(0, 0)
	}
	return &Service{index: index, formatter: formatter, store: store}
}

// Lookup searches typ for raw. The bare word "all" lists every record of
// the type. With listOnly the results are always grouped, even when one of
// them is exact.
func (s *Service) Lookup(ctx context.Context, typ, raw string, listOnly bool) (*Answer, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	q := meta.ParseQuery(raw)
	if q.All {
		return s.List(typ)
	}
	if q.Text == "" {
		return nil, ErrEmptyQuery
	}

	results, err := s.index.Search(ctx, typ, q.Text)
	if err != nil {
		return nil, err
	}
	meta.SortResults(results)

	ans := &Answer{Type: typ, Query: q.Text, Results: len(results)}
	if len(results) == 0 {
		ans.Kind = KindNone
		s.open(ans, []format.Page{notFound(typ)})
		return ans, nil
	}

	first := results[0]
	ans.Level = first.Level
	ans.Best = first.Level.String()
	if !listOnly && (first.Level == meta.Exact || len(results) == 1) {
		ans.Kind = KindRecord
		s.open(ans, s.formatter.RecordPages(first.Record, first.Level.Title()))
		return ans, nil
	}
	ans.Kind = KindResults
	s.open(ans, s.formatter.ResultPages(resultsTitle(typ, q.Text), results))
	return ans, nil
}

// List pages out the list label of every record of typ.
func (s *Service) List(typ string) (*Answer, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	records, err := s.index.AllOf(typ)
	if err != nil {
		return nil, err
	}
	ans := &Answer{Type: typ, Results: len(records)}
	if len(records) == 0 {
		ans.Kind = KindNone
		s.open(ans, []format.Page{notFound(typ)})
		return ans, nil
	}
	labels := make([]string, len(records))
	for i, rec := range records {
		labels[i] = rec.ListLabel()
	}
	ans.Kind = KindList
	s.open(ans, s.formatter.ListPages(listTitle(typ), labels))
	return ans, nil
}

// Navigate moves within a stored multi-page answer. nav is one of first,
// prev, next, last (or their initials) or a page number.
func (s *Service) Navigate(id, nav string) (pages.View, error) {
	n, err := pages.ParseNav(nav)
	if err != nil {
		return pages.View{}, err
	}
	return s.store.Navigate(id, n)
}

// Purge forgets every stored answer. Called after a reload so old pages
// are not navigated against a new generation.
func (s *Service) Purge() { s.store.Purge() }

func (s *Service) open(ans *Answer, ps []format.Page) {
	ans.Pages = ps
	ans.View, _ = s.store.Open(ps)
}

func notFound(typ string) format.Page {
	msg := "Nothing was found matching the specified input."
	if typ != meta.Wildcard {
		msg = fmt.Sprintf("No %ss were found matching the specified input.", typ)
	}
	return format.Number([]format.Page{{Style: format.StyleError, Description: msg}})[0]
}

func listTitle(typ string) string {
	if typ == meta.Wildcard {
		return "All known meta"
	}
	return "All known " + typ + "s"
}

func resultsTitle(typ, query string) string {
	if typ == meta.Wildcard {
		return fmt.Sprintf("Results for %q", query)
	}
	return fmt.Sprintf("%s results for %q", typ, query)
}
