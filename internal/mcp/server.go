package mcp

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metadex/internal/index"
	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
)

// Index is the part of index.Service the tools use.
type Index interface {
	Reload(ctx context.Context) (*index.Result, error)
	Registry() *meta.Registry
}

const instructions = `metadex indexes meta documentation written in source comments.
Start with meta_types to see which types exist. meta_search looks a name up:
an exact name returns its record, anything else a ranked list. meta_list
returns every record of a type. Run meta_reload after the sources change.`

// Config names the server to clients. Zero fields take defaults.
type Config struct {
	Name         string
	Version      string
	Instructions string
	Logger       *zap.Logger
}

func DefaultConfig() *Config {
	return &Config{Name: "metadex", Version: "dev", Instructions: instructions, Logger: zap.NewNop()}
}

// Server exposes the index and lookups as MCP tools.
type Server struct {
	mcp     *mcp.Server
	index   Index
	lookup  *lookup.Service
	metrics *Metrics
	logger  *zap.Logger
}

func NewServer(cfg *Config, idx Index, lk *lookup.Service) (*Server, error) {
	if idx == nil || lk == nil {
		return nil, errors.New("index and lookup services are required")
	}
	def := DefaultConfig()
	if cfg == nil {
		cfg = def
	}
	logger := cmp.Or(cfg.Logger, def.Logger)

	impl := &mcp.Implementation{
		Name:    cmp.Or(cfg.Name, def.Name),
		Version: cmp.Or(cfg.Version, def.Version),
	}
	s := &Server{
		mcp:     mcp.NewServer(impl, &mcp.ServerOptions{Instructions: cmp.Or(cfg.Instructions, def.Instructions)}),
		index:   idx,
		lookup:  lk,
		metrics: NewMetrics(logger),
		logger:  logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdin and stdout until ctx ends or the client hangs up.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Serve runs one session over t.
func (s *Server) Serve(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("mcp session starting")
	if err := s.mcp.Run(ctx, t); err != nil {
		return fmt.Errorf("mcp session: %w", err)
	}
	return nil
}
