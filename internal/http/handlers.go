package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
	"github.com/fyrsmithlabs/metadex/internal/pages"
)

// handleHealth reports liveness and the published generation.
func (s *Server) handleHealth(c echo.Context) error {
	snap := s.index.Registry().Snapshot()
	resp := HealthResponse{
		Status:     "ok",
		Generation: snap.Generation(),
		Records:    snap.Total(),
	}
	if snap.Generation() > 0 {
		at := snap.LoadedAt()
		resp.PublishedAt = &at
	}
	if last := s.index.LastReload(); last != nil {
		resp.LastReload = &last.Started
	}
	return c.JSON(http.StatusOK, resp)
}

// handleTypes lists every registered schema with its record count.
func (s *Server) handleTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, TypesResponse{Types: typeInfos(s.index.Registry())})
}

// handleSearch runs a lookup. q is required; list_only forces grouped results.
func (s *Server) handleSearch(c echo.Context) error {
	listOnly := false
	if v := c.QueryParam("list_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "list_only must be a boolean")
		}
		listOnly = b
	}
	ans, err := s.lookup.Lookup(c.Request().Context(), c.Param("type"), c.QueryParam("q"), listOnly)
	if err != nil {
		return s.httpError(c, err)
	}
	return c.JSON(http.StatusOK, ans)
}

func (s *Server) handleList(c echo.Context) error {
	ans, err := s.lookup.List(c.Param("type"))
	if err != nil {
		return s.httpError(c, err)
	}
	return c.JSON(http.StatusOK, ans)
}

// handlePage navigates a stored multi-page answer.
func (s *Server) handlePage(c echo.Context) error {
	view, err := s.lookup.Navigate(c.Param("id"), c.QueryParam("nav"))
	if err != nil {
		return s.httpError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// handleReload rebuilds the index. Requests beyond the configured rate get
// 429. The reload outlives a client that disconnects mid-way.
func (s *Server) handleReload(c echo.Context) error {
	if !s.limiter.Allow() {
		return echo.NewHTTPError(http.StatusTooManyRequests, "reload rate limit exceeded")
	}
	res, err := s.index.Reload(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		return s.httpError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, meta.ErrUnknownType), errors.Is(err, pages.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, lookup.ErrEmptyQuery), errors.Is(err, pages.ErrInvalidNav):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.logger.Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
