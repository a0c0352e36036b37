package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/summit-enterprise/stock-pro-sub000/internal/layout"
)

func (s *Server) registerLayoutHandlers(api huma.API) {
	type layoutOutput struct {
		Body layout.Layout
	}

	huma.Register(api, huma.Operation{OperationID: "save-layout", Method: http.MethodPost, Path: "/api/v1/layouts", Summary: "Save the current drawn lines for the mounted symbol", Tags: []string{"Layouts"}},
		func(ctx context.Context, _ *struct{}) (*layoutOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			saved := layout.Layout{
				Symbol:  s.engine.Symbol(),
				SavedAt: time.Now().UTC(),
				Lines:   d.Lines(),
			}
			if err := s.layouts.Save(saved); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			return &layoutOutput{Body: saved}, nil
		})

	type layoutListOutput struct {
		Body struct {
			Layouts []layout.Layout `json:"layouts"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-layouts", Method: http.MethodGet, Path: "/api/v1/layouts", Summary: "List saved layouts", Tags: []string{"Layouts"}},
		func(ctx context.Context, _ *struct{}) (*layoutListOutput, error) {
			layouts, err := s.layouts.List()
			if err != nil {
				return nil, huma.Error500InternalServerError(err.Error())
			}
			out := &layoutListOutput{}
			out.Body.Layouts = layouts
			return out, nil
		})

	type symbolInput struct {
		Symbol string `path:"symbol"`
	}

	huma.Register(api, huma.Operation{OperationID: "get-layout", Method: http.MethodGet, Path: "/api/v1/layouts/{symbol}", Summary: "Get a saved layout", Tags: []string{"Layouts"}},
		func(ctx context.Context, input *symbolInput) (*layoutOutput, error) {
			saved, err := s.layouts.Get(input.Symbol)
			if err != nil {
				return nil, layoutErr(err)
			}
			return &layoutOutput{Body: saved}, nil
		})

	type restoreOutput struct {
		Body struct {
			Symbol string `json:"symbol"`
			Lines  int    `json:"lines"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "restore-layout", Method: http.MethodPost, Path: "/api/v1/layouts/{symbol}/restore", Summary: "Restore a saved layout onto the chart", Tags: []string{"Layouts"}},
		func(ctx context.Context, input *symbolInput) (*restoreOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			saved, err := s.layouts.Get(input.Symbol)
			if err != nil {
				return nil, layoutErr(err)
			}
			if saved.Symbol != s.engine.Symbol() {
				return nil, huma.Error409Conflict("layout is for " + saved.Symbol + ", chart shows " + s.engine.Symbol())
			}
			d.Restore(saved.Lines)
			s.engine.NotifyDrawing("restore", len(saved.Lines))
			out := &restoreOutput{}
			out.Body.Symbol = saved.Symbol
			out.Body.Lines = len(saved.Lines)
			return out, nil
		})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "delete-layout", Method: http.MethodDelete, Path: "/api/v1/layouts/{symbol}", Summary: "Delete a saved layout", Tags: []string{"Layouts"}},
		func(ctx context.Context, input *symbolInput) (*statusOutput, error) {
			if err := s.layouts.Delete(input.Symbol); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			out := &statusOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})
}

func layoutErr(err error) error {
	if strings.Contains(err.Error(), "not found") {
		return huma.Error404NotFound(err.Error())
	}
	return huma.Error400BadRequest(err.Error())
}
