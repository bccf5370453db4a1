package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metadex/internal/format"
	"github.com/fyrsmithlabs/metadex/internal/index"
	"github.com/fyrsmithlabs/metadex/internal/lookup"
)

// Tool names.
const (
	toolSearch = "meta_search"
	toolList   = "meta_list"
	toolTypes  = "meta_types"
	toolReload = "meta_reload"
)

type searchInput struct {
	Type     string `json:"type" jsonschema:"Meta type to search: command, tag, mechanism, event, action, language, or all"`
	Query    string `json:"query" jsonschema:"Search text; the bare word all lists every record, a leading backslash searches for it literally"`
	ListOnly bool   `json:"list_only,omitempty" jsonschema:"Always return grouped results instead of a single record"`
}

type listInput struct {
	Type string `json:"type" jsonschema:"Meta type to list"`
}

type typesInput struct{}

type reloadInput struct{}

type sectionOutput struct {
	Label string `json:"label"`
	Body  string `json:"body"`
}

type pageOutput struct {
	Title       string          `json:"title,omitempty"`
	Style       string          `json:"style"`
	Description string          `json:"description,omitempty"`
	Sections    []sectionOutput `json:"sections,omitempty"`
	Number      int             `json:"number"`
	Total       int             `json:"total"`
}

type answerOutput struct {
	Kind    string       `json:"kind" jsonschema:"list, record, results, or none"`
	Type    string       `json:"type"`
	Query   string       `json:"query,omitempty"`
	Best    string       `json:"best,omitempty" jsonschema:"Best match level"`
	Results int          `json:"results" jsonschema:"Number of matching records"`
	Pages   []pageOutput `json:"pages"`
}

type typeOutput struct {
	Name   string   `json:"name"`
	Count  int      `json:"count"`
	Fields []string `json:"fields"`
}

type typesOutput struct {
	Types []typeOutput `json:"types"`
}

type countOutput struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type reloadOutput struct {
	ID            string        `json:"id"`
	Generation    uint64        `json:"generation"`
	Duration      string        `json:"duration"`
	Total         int           `json:"total"`
	Counts        []countOutput `json:"counts"`
	Files         int           `json:"files"`
	Warnings      int           `json:"warnings"`
	FetchFailures int           `json:"fetch_failures"`
	ReportError   string        `json:"report_error,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolSearch,
		Description: "Fuzzy search the meta documentation index. Returns one record in full for an exact or only match, otherwise matches grouped by level.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchInput) (*mcp.CallToolResult, answerOutput, error) {
		var toolErr error
		defer s.track(ctx, toolSearch)(&toolErr)

		ans, err := s.lookup.Lookup(ctx, args.Type, args.Query, args.ListOnly)
		if err != nil {
			toolErr = fmt.Errorf("search failed: %w", err)
			return nil, answerOutput{}, toolErr
		}
		s.metrics.Answer(ctx, toolSearch, ans.Kind)
		return textResult(ans.Pages), toAnswerOutput(ans), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolList,
		Description: "List every record of a meta type by its short label.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listInput) (*mcp.CallToolResult, answerOutput, error) {
		var toolErr error
		defer s.track(ctx, toolList)(&toolErr)

		ans, err := s.lookup.List(args.Type)
		if err != nil {
			toolErr = fmt.Errorf("list failed: %w", err)
			return nil, answerOutput{}, toolErr
		}
		s.metrics.Answer(ctx, toolList, ans.Kind)
		return textResult(ans.Pages), toAnswerOutput(ans), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolTypes,
		Description: "List the registered meta types, their fields, and how many records each has.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ typesInput) (*mcp.CallToolResult, typesOutput, error) {
		var toolErr error
		defer s.track(ctx, toolTypes)(&toolErr)

		reg := s.index.Registry()
		counts := make(map[string]int)
		for _, tc := range reg.Counts() {
			counts[tc.Type] = tc.Count
		}
		out := typesOutput{Types: []typeOutput{}}
		var lines []string
		for _, name := range reg.Types() {
			schema, ok := reg.Schema(name)
			if !ok {
				continue
			}
			t := typeOutput{Name: name, Count: counts[name], Fields: make([]string, 0, len(schema.Fields))}
			for _, f := range schema.Fields {
				t.Fields = append(t.Fields, f.Key)
			}
			out.Types = append(out.Types, t)
			lines = append(lines, fmt.Sprintf("%s (%d): %s", name, t.Count, strings.Join(t.Fields, ", ")))
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: strings.Join(lines, "\n")}},
		}, out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        toolReload,
		Description: "Fetch every configured repository, re-parse it, and publish a new index generation.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ reloadInput) (*mcp.CallToolResult, reloadOutput, error) {
		var toolErr error
		defer s.track(ctx, toolReload)(&toolErr)

		res, err := s.index.Reload(ctx)
		if err != nil {
			toolErr = fmt.Errorf("reload failed: %w", err)
			return nil, reloadOutput{}, toolErr
		}
		out := toReloadOutput(res)
		s.logger.Info("reload via mcp", zap.String("reload_id", res.ID), zap.Uint64("generation", res.Generation))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(
				"Reloaded generation %d: %d records, %d warnings", res.Generation, res.Total, res.Warnings)}},
		}, out, nil
	})
}

// track counts one call. Usage: defer s.track(ctx, name)(&err).
func (s *Server) track(ctx context.Context, tool string) func(*error) {
	done := s.metrics.Start(ctx, tool)
	return func(err *error) { done(*err) }
}

func textResult(pages []format.Page) *mcp.CallToolResult {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text()
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: strings.Join(texts, "\n\n")}},
	}
}

func toAnswerOutput(ans *lookup.Answer) answerOutput {
	out := answerOutput{
		Kind:    string(ans.Kind),
		Type:    ans.Type,
		Query:   ans.Query,
		Best:    ans.Best,
		Results: ans.Results,
		Pages:   make([]pageOutput, 0, len(ans.Pages)),
	}
	for _, p := range ans.Pages {
		po := pageOutput{
			Title:       p.Title,
			Style:       string(p.Style),
			Description: p.Description,
			Number:      p.Number,
			Total:       p.Total,
		}
		for _, sec := range p.Sections {
			po.Sections = append(po.Sections, sectionOutput{Label: sec.Label, Body: sec.Body})
		}
		out.Pages = append(out.Pages, po)
	}
	return out
}

func toReloadOutput(res *index.Result) reloadOutput {
	out := reloadOutput{
		ID:            res.ID,
		Generation:    res.Generation,
		Duration:      res.Duration.String(),
		Total:         res.Total,
		Files:         res.Files,
		Warnings:      res.Warnings,
		FetchFailures: res.FetchFailures,
		ReportError:   res.ReportError,
		Counts:        make([]countOutput, 0, len(res.Counts)),
	}
	for _, c := range res.Counts {
		out.Counts = append(out.Counts, countOutput{Type: c.Type, Count: c.Count})
	}
	return out
}
