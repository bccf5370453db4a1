package main

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/metadex/internal/format"
	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
	"github.com/fyrsmithlabs/metadex/internal/render"
)

var (
	listOnly    bool
	interactive bool
	jsonOutput  bool
)

func init() {
	searchCmd.Flags().BoolVar(&listOnly, "list-only", false, "group results even when one matches exactly")
	searchCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse multi-page answers in a pager")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the answer as JSON")
	listCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse multi-page answers in a pager")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the answer as JSON")
	typesCmd.Flags().BoolVar(&jsonOutput, "json", false, "print types as JSON")
	reloadCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the reload summary as JSON")
}

var searchCmd = &cobra.Command{
	Use:   "search <type> <query...>",
	Short: "Look up meta by name",
	Long: `Reload the index, then search one type (or "all") for a query.

An exact match, or a single match of any level, is shown in full. Anything
else is grouped by match level. The query "all" lists every record.

Examples:
  # Show one command
  metadex search command teleport

  # Everything that looks like "tele"
  metadex search all tele --list-only

  # Browse long answers
  metadex search event click -i`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

var listCmd = &cobra.Command{
	Use:   "list <type>",
	Short: "List every record of a type",
	Long: `Reload the index, then list the names of every record of a type, or of
every type with "all".

Examples:
  metadex list command
  metadex list all -i`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Show registered types, their fields and record counts",
	Args:  cobra.NoArgs,
	RunE:  runTypes,
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Fetch and parse every source once and write the reload report",
	Long: `Fetch every configured repository, parse its files and write the reload
report. Useful to check a configuration or a repository before serving it.

Examples:
  metadex reload
  metadex reload --json`,
	Args: cobra.NoArgs,
	RunE: runReload,
}

// loaded returns an app with a freshly published index. Logs go to stderr
// and default to warnings only.
func loaded(ctx context.Context) (*app, error) {
	a, err := newApp(ctx, logSettings{out: os.Stderr, level: cmp.Or(logLevel, "warn"), console: true})
	if err != nil {
		return nil, err
	}
	if _, err := a.reload(ctx); err != nil {
		_ = a.close(context.Background())
		return nil, fmt.Errorf("reload: %w", err)
	}
	return a, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loaded(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	ans, err := a.lookup.Lookup(ctx, args[0], strings.Join(args[1:], " "), listOnly)
	if err != nil {
		return err
	}
	return printAnswer(ctx, cmd, ans)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loaded(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	ans, err := a.lookup.List(args[0])
	if err != nil {
		return err
	}
	return printAnswer(ctx, cmd, ans)
}

func runTypes(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loaded(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	types := describeTypes(a.index.Registry())
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, types)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tRECORDS\tFIELDS")
	for _, t := range types {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Type, t.Count, strings.Join(t.Fields, ", "))
	}
	return tw.Flush()
}

type typeSummary struct {
	Type   string   `json:"type"`
	Count  int      `json:"count"`
	Fields []string `json:"fields"`
}

// describeTypes lists every registered type in registration order with the
// keys of its visible fields.
func describeTypes(reg *meta.Registry) []typeSummary {
	var out []typeSummary
	for _, c := range reg.Counts() {
		ts := typeSummary{Type: c.Type, Count: c.Count, Fields: []string{}}
		if schema, ok := reg.Schema(c.Type); ok {
			for _, f := range schema.Fields {
				if !f.Hidden {
					ts.Fields = append(ts.Fields, f.Key)
				}
			}
		}
		out = append(out, ts)
	}
	return out
}

func runReload(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, logSettings{out: os.Stderr, level: logLevel, console: true})
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	res, err := a.reload(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, res)
	}
	fmt.Fprintf(out, "Reloaded %d records from %d files in %s\n", res.Total, res.Files, res.Duration.Round(time.Millisecond))
	for _, c := range res.Counts {
		fmt.Fprintf(out, "  %-12s %d\n", c.Type, c.Count)
	}
	if res.Warnings > 0 || res.FetchFailures > 0 {
		fmt.Fprintf(out, "%d warnings, %d fetch failures; see %s\n", res.Warnings, res.FetchFailures, a.cfg.Meta.ReportPath)
	}
	return nil
}

// jsonAnswer carries every page rather than the first page's view.
type jsonAnswer struct {
	*lookup.Answer
	Pages []format.Page `json:"pages"`
}

func printAnswer(ctx context.Context, cmd *cobra.Command, ans *lookup.Answer) error {
	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return writeJSON(out, jsonAnswer{Answer: ans, Pages: ans.Pages})
	case interactive:
		return render.RunPager(ctx, ans.Pages, cmd.InOrStdin(), out)
	default:
		_, err := fmt.Fprintln(out, render.Pages(ans.Pages))
		return err
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
