package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/summit-enterprise/stock-pro-sub000/internal/drawing"
)

// drawings returns the engine's drawing controller or a 409 when the main
// pane has not come up yet.
func (s *Server) drawings() (*drawing.Controller, error) {
	d := s.engine.Drawings()
	if d == nil {
		return nil, huma.Error409Conflict("no chart mounted")
	}
	return d, nil
}

func (s *Server) registerDrawingHandlers(api huma.API) {
	type toolInput struct {
		Body struct {
			Tool string `json:"tool" required:"true" doc:"none, trendline, or horizontal"`
		}
	}
	type toolOutput struct {
		Body struct {
			Tool string `json:"tool"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "set-drawing-tool", Method: http.MethodPut, Path: "/api/v1/chart/drawing/tool", Summary: "Select drawing tool", Tags: []string{"Drawing"}},
		func(ctx context.Context, input *toolInput) (*toolOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			tool, err := drawing.ParseTool(input.Body.Tool)
			if err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			d.SetTool(tool)
			out := &toolOutput{}
			out.Body.Tool = tool.String()
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-drawing-tool", Method: http.MethodGet, Path: "/api/v1/chart/drawing/tool", Summary: "Get active drawing tool", Tags: []string{"Drawing"}},
		func(ctx context.Context, _ *struct{}) (*toolOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			out := &toolOutput{}
			out.Body.Tool = d.Tool().String()
			return out, nil
		})

	type clickInput struct {
		Body struct {
			X float64 `json:"x" required:"true" doc:"Pane-local x coordinate in pixels"`
			Y float64 `json:"y" required:"true" doc:"Pane-local y coordinate in pixels"`
		}
	}
	type clickOutput struct {
		Body struct {
			Committed bool          `json:"committed"`
			Line      *drawing.Line `json:"line,omitempty"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "drawing-click", Method: http.MethodPost, Path: "/api/v1/chart/drawing/click", Summary: "Feed one pointer click", Tags: []string{"Drawing"}},
		func(ctx context.Context, input *clickInput) (*clickOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			line, err := d.Click(input.Body.X, input.Body.Y)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &clickOutput{}
			out.Body.Committed = line != nil
			out.Body.Line = line
			if line != nil {
				s.engine.NotifyDrawing("commit", len(d.Lines()))
			}
			return out, nil
		})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "cancel-drawing", Method: http.MethodPost, Path: "/api/v1/chart/drawing/cancel", Summary: "Deselect the drawing tool", Tags: []string{"Drawing"}},
		func(ctx context.Context, _ *struct{}) (*statusOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			d.Cancel()
			out := &statusOutput{}
			out.Body.Status = "cancelled"
			return out, nil
		})

	type linesOutput struct {
		Body struct {
			Lines []drawing.Line `json:"lines"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-drawings", Method: http.MethodGet, Path: "/api/v1/chart/drawings", Summary: "List drawn lines", Tags: []string{"Drawing"}},
		func(ctx context.Context, _ *struct{}) (*linesOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			out := &linesOutput{}
			out.Body.Lines = d.Lines()
			return out, nil
		})

	type lineIDInput struct {
		ID string `path:"id"`
	}

	huma.Register(api, huma.Operation{OperationID: "remove-drawing", Method: http.MethodDelete, Path: "/api/v1/chart/drawings/{id}", Summary: "Remove one drawn line", Tags: []string{"Drawing"}},
		func(ctx context.Context, input *lineIDInput) (*statusOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			if !d.Remove(input.ID) {
				return nil, huma.Error404NotFound("line not found: " + input.ID)
			}
			s.engine.NotifyDrawing("remove", len(d.Lines()))
			out := &statusOutput{}
			out.Body.Status = "removed"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-drawings", Method: http.MethodDelete, Path: "/api/v1/chart/drawings", Summary: "Remove all drawn lines", Tags: []string{"Drawing"}},
		func(ctx context.Context, _ *struct{}) (*statusOutput, error) {
			d, err := s.drawings()
			if err != nil {
				return nil, err
			}
			d.Clear()
			s.engine.NotifyDrawing("clear", 0)
			out := &statusOutput{}
			out.Body.Status = "cleared"
			return out, nil
		})
}
