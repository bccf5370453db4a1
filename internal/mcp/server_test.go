package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/metadex/internal/index"
	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
)

type stubIndex struct {
	reg *meta.Registry
	err error
}

func (s *stubIndex) Reload(context.Context) (*index.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &index.Result{
		ID:         "r1",
		Generation: 7,
		Duration:   time.Second,
		Counts:     s.reg.Counts(),
		Total:      s.reg.Snapshot().Total(),
	}, nil
}

func (s *stubIndex) Registry() *meta.Registry { return s.reg }

func (s *stubIndex) Search(_ context.Context, typ, query string) ([]meta.Result, error) {
	return s.reg.Search(typ, query)
}

func (s *stubIndex) AllOf(typ string) ([]*meta.Record, error) { return s.reg.AllOf(typ) }

func newStubIndex(t *testing.T, names ...string) *stubIndex {
	t.Helper()
	reg := meta.NewBuiltinRegistry()
	schema, ok := reg.Schema(meta.TypeCommand)
	require.True(t, ok)
	b := reg.NewBuilder()
	for _, name := range names {
		rec := schema.New()
		require.NoError(t, rec.Set("name", name))
		require.NoError(t, rec.Finalize())
		require.NoError(t, b.Add(rec))
	}
	b.Publish()
	return &stubIndex{reg: reg}
}

// connect wires a client to s over in-memory transports.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := s.mcp.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call[T any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (T, *mcp.CallToolResult) {
	t.Helper()
	var out T
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if res.IsError {
		return out, res
	}
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out))
	return out, res
}

func TestNewServer(t *testing.T) {
	idx := newStubIndex(t)
	lk := lookup.New(idx, nil, nil)

	s, err := NewServer(nil, idx, lk)
	require.NoError(t, err)
	assert.NotNil(t, s.mcp)

	_, err = NewServer(nil, nil, lk)
	assert.Error(t, err)
	_, err = NewServer(nil, idx, nil)
	assert.Error(t, err)
}

func TestTools(t *testing.T) {
	idx := newStubIndex(t, "teleport", "tell", "narrate")
	s, err := NewServer(DefaultConfig(), idx, lookup.New(idx, nil, nil))
	require.NoError(t, err)
	cs := connect(t, s)

	t.Run("tools are listed", func(t *testing.T) {
		res, err := cs.ListTools(context.Background(), nil)
		require.NoError(t, err)
		var names []string
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{toolSearch, toolList, toolTypes, toolReload}, names)
	})

	t.Run("search exact", func(t *testing.T) {
		out, res := call[answerOutput](t, cs, toolSearch, map[string]any{"type": "command", "query": "tell"})
		require.False(t, res.IsError)
		assert.Equal(t, "record", out.Kind)
		assert.Equal(t, meta.Exact.String(), out.Best)
		require.Len(t, out.Pages, 1)
		assert.Equal(t, meta.Exact.Title(), out.Pages[0].Title)

		require.NotEmpty(t, res.Content)
		text, ok := res.Content[0].(*mcp.TextContent)
		require.True(t, ok)
		assert.Contains(t, text.Text, "tell")
	})

	t.Run("search list_only groups", func(t *testing.T) {
		out, res := call[answerOutput](t, cs, toolSearch, map[string]any{"type": "command", "query": "tel", "list_only": true})
		require.False(t, res.IsError)
		assert.Equal(t, "results", out.Kind)
		assert.Equal(t, 2, out.Results)
	})

	t.Run("unknown type is a tool error", func(t *testing.T) {
		_, res := call[answerOutput](t, cs, toolSearch, map[string]any{"type": "widget", "query": "x"})
		assert.True(t, res.IsError)
	})

	t.Run("list", func(t *testing.T) {
		out, res := call[answerOutput](t, cs, toolList, map[string]any{"type": "command"})
		require.False(t, res.IsError)
		assert.Equal(t, "list", out.Kind)
		require.Len(t, out.Pages, 1)
		assert.Equal(t, "teleport, tell, narrate", out.Pages[0].Description)
	})

	t.Run("types", func(t *testing.T) {
		out, res := call[typesOutput](t, cs, toolTypes, map[string]any{})
		require.False(t, res.IsError)
		require.Len(t, out.Types, 6)
		assert.Equal(t, meta.TypeCommand, out.Types[0].Name)
		assert.Equal(t, 3, out.Types[0].Count)
	})

	t.Run("reload", func(t *testing.T) {
		out, res := call[reloadOutput](t, cs, toolReload, map[string]any{})
		require.False(t, res.IsError)
		assert.Equal(t, uint64(7), out.Generation)
		assert.Equal(t, "1s", out.Duration)
		assert.Equal(t, 3, out.Total)
	})
}

func TestReloadFailure(t *testing.T) {
	idx := newStubIndex(t)
	idx.err = errors.New("disk full")
	s, err := NewServer(nil, idx, lookup.New(idx, nil, nil))
	require.NoError(t, err)
	cs := connect(t, s)

	_, res := call[reloadOutput](t, cs, toolReload, map[string]any{})
	assert.True(t, res.IsError)
}
