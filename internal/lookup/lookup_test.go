package lookup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/metadex/internal/format"
	"github.com/fyrsmithlabs/metadex/internal/meta"
	"github.com/fyrsmithlabs/metadex/internal/pages"
)

// registryIndex adapts a bare registry to Index.
type registryIndex struct{ reg *meta.Registry }

func (r registryIndex) Search(_ context.Context, typ, query string) ([]meta.Result, error) {
	return r.reg.Search(typ, query)
}

func (r registryIndex) AllOf(typ string) ([]*meta.Record, error) { return r.reg.AllOf(typ) }

func newService(t *testing.T, names ...string) *Service {
	t.Helper()
	reg := meta.NewBuiltinRegistry()
	schema, ok := reg.Schema(meta.TypeCommand)
	require.True(t, ok)

	b := reg.NewBuilder()
	for _, name := range names {
		rec := schema.New()
		require.NoError(t, rec.Set("name", name))
		require.NoError(t, rec.Set("short", "Does "+name+"."))
		require.NoError(t, rec.Finalize())
		require.NoError(t, b.Add(rec))
	}
	b.Publish()
	return New(registryIndex{reg}, format.New(format.DefaultLimits()), pages.NewStore(16, time.Minute))
}

func TestLookup_ExactShowsRecord(t *testing.T) {
	s := newService(t, "teleport", "tell", "narrate")

	ans, err := s.Lookup(context.Background(), "Command", "  TELL ", false)
	require.NoError(t, err)
	assert.Equal(t, KindRecord, ans.Kind)
	assert.Equal(t, "command", ans.Type)
	assert.Equal(t, "tell", ans.Query)
	assert.Equal(t, meta.Exact, ans.Level)
	assert.Equal(t, meta.Exact.Title(), ans.View.Page.Title)
	assert.Equal(t, format.StyleRecord, ans.View.Page.Style)
}

func TestLookup_SingleResultShowsRecord(t *testing.T) {
	s := newService(t, "teleport", "tell", "narrate")

	ans, err := s.Lookup(context.Background(), "command", "arra", false)
	require.NoError(t, err)
	assert.Equal(t, KindRecord, ans.Kind)
	assert.Equal(t, 1, ans.Results)
	assert.Equal(t, meta.Partial.Title(), ans.View.Page.Title)
}

func TestLookup_GroupsSeveralResults(t *testing.T) {
	s := newService(t, "teleport", "tell", "narrate")

	ans, err := s.Lookup(context.Background(), "command", "tel", false)
	require.NoError(t, err)
	assert.Equal(t, KindResults, ans.Kind)
	assert.Equal(t, 2, ans.Results)
	assert.Equal(t, meta.VerySimilar, ans.Level)

	page := ans.View.Page
	assert.Equal(t, format.StyleList, page.Style)
	require.Len(t, page.Sections, 2)
	assert.Equal(t, meta.VerySimilar.PluralTitle(), page.Sections[0].Label)
	assert.Equal(t, "tell", page.Sections[0].Body)
	assert.Equal(t, meta.Similar.PluralTitle(), page.Sections[1].Label)
	assert.Equal(t, "teleport", page.Sections[1].Body)
	assert.Empty(t, ans.View.SessionID, "single page answers need no session")
}

func TestLookup_ListOnlyGroupsExact(t *testing.T) {
	s := newService(t, "teleport", "tell")

	ans, err := s.Lookup(context.Background(), "command", "tell", true)
	require.NoError(t, err)
	assert.Equal(t, KindResults, ans.Kind)
	require.Len(t, ans.View.Page.Sections, 1)
	assert.Equal(t, meta.Exact.PluralTitle(), ans.View.Page.Sections[0].Label)
}

func TestLookup_NoResults(t *testing.T) {
	s := newService(t, "teleport")

	ans, err := s.Lookup(context.Background(), "command", "zzzz", false)
	require.NoError(t, err)
	assert.Equal(t, KindNone, ans.Kind)
	assert.Equal(t, format.StyleError, ans.View.Page.Style)
	assert.Equal(t, "No commands were found matching the specified input.", ans.View.Page.Description)
}

func TestLookup_AllListsLabels(t *testing.T) {
	s := newService(t, "teleport", "tell")

	ans, err := s.Lookup(context.Background(), "command", "ALL", false)
	require.NoError(t, err)
	assert.Equal(t, KindList, ans.Kind)
	assert.Equal(t, "All known commands", ans.View.Page.Title)
	assert.Equal(t, "teleport, tell", ans.View.Page.Description)
}

func TestLookup_EscapedAllSearches(t *testing.T) {
	s := newService(t, "all", "tell")

	ans, err := s.Lookup(context.Background(), "command", `\all`, false)
	require.NoError(t, err)
	assert.Equal(t, KindRecord, ans.Kind)
	assert.Equal(t, meta.Exact, ans.Level)
}

func TestLookup_Errors(t *testing.T) {
	s := newService(t, "teleport")

	_, err := s.Lookup(context.Background(), "command", "   ", false)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = s.Lookup(context.Background(), "widget", "x", false)
	assert.ErrorIs(t, err, meta.ErrUnknownType)

	_, err = s.List("widget")
	assert.ErrorIs(t, err, meta.ErrUnknownType)
}

func TestNavigate(t *testing.T) {
	names := make([]string, 400)
	for i := range names {
		names[i] = fmt.Sprintf("command%03d", i)
	}
	s := newService(t, names...)

	ans, err := s.List("command")
	require.NoError(t, err)
	require.Greater(t, len(ans.Pages), 2)
	require.NotEmpty(t, ans.View.SessionID)
	assert.Equal(t, 1, ans.View.Page.Number)

	view, err := s.Navigate(ans.View.SessionID, "next")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Page.Number)

	view, err = s.Navigate(ans.View.SessionID, "l")
	require.NoError(t, err)
	assert.Equal(t, len(ans.Pages), view.Page.Number)

	_, err = s.Navigate(ans.View.SessionID, "sideways")
	assert.ErrorIs(t, err, pages.ErrInvalidNav)

	s.Purge()
	_, err = s.Navigate(ans.View.SessionID, "first")
	assert.ErrorIs(t, err, pages.ErrSessionNotFound)
}
