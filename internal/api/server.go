// Package api exposes the chart engine over HTTP: a typed REST surface
// for chart state and a WebSocket stream of engine events.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/summit-enterprise/stock-pro-sub000/internal/engine"
	"github.com/summit-enterprise/stock-pro-sub000/internal/layout"
)

// Server binds the engine and the layout store to the HTTP surface.
type Server struct {
	engine  *engine.Engine
	layouts *layout.Store
}

// NewServer builds the router: REST endpoints under /api/v1, the event
// stream at /api/v1/stream, docs at /docs.
func NewServer(eng *engine.Engine, layouts *layout.Store) http.Handler {
	s := &Server{engine: eng, layouts: layouts}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Chart Engine API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/api/v1/stream", s.streamHandler)

	s.registerChartHandlers(api)
	s.registerIndicatorHandlers(api)
	s.registerDrawingHandlers(api)
	s.registerLayoutHandlers(api)

	return router
}

// mapErr translates engine errors onto HTTP statuses. Selection-cap and
// not-mounted conflicts map to 409; feed failures surface as 502 so a
// client can tell them apart from its own bad input.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, engine.ErrSelectionFull):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, engine.ErrNotMounted):
		return huma.Error409Conflict(err.Error())
	}
	return huma.Error502BadGateway(err.Error())
}
