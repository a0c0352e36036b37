package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/summit-enterprise/stock-pro-sub000/internal/datacache"
	"github.com/summit-enterprise/stock-pro-sub000/internal/engine"
	"github.com/summit-enterprise/stock-pro-sub000/internal/indicator"
	"github.com/summit-enterprise/stock-pro-sub000/internal/market"
)

type chartStateBody struct {
	Symbol     string              `json:"symbol"`
	Range      string              `json:"range"`
	Bars       int                 `json:"bars"`
	Indicators []indicator.Spec    `json:"indicators"`
	Panes      []engine.PaneStatus `json:"panes"`
}

func (s *Server) chartState() chartStateBody {
	return chartStateBody{
		Symbol:     s.engine.Symbol(),
		Range:      string(s.engine.Range()),
		Bars:       len(s.engine.Window()),
		Indicators: s.engine.Selected(),
		Panes:      s.engine.Panes(),
	}
}

func (s *Server) registerChartHandlers(api huma.API) {
	type chartStateOutput struct {
		Body chartStateBody
	}

	huma.Register(api, huma.Operation{OperationID: "get-chart", Method: http.MethodGet, Path: "/api/v1/chart", Summary: "Get chart state", Tags: []string{"Chart"}},
		func(ctx context.Context, _ *struct{}) (*chartStateOutput, error) {
			return &chartStateOutput{Body: s.chartState()}, nil
		})

	type setSymbolInput struct {
		Body struct {
			Symbol string `json:"symbol" required:"true" doc:"Ticker symbol, e.g. AAPL or ^GSPC"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "set-symbol", Method: http.MethodPut, Path: "/api/v1/chart/symbol", Summary: "Switch symbol", Tags: []string{"Chart"}},
		func(ctx context.Context, input *setSymbolInput) (*chartStateOutput, error) {
			if input.Body.Symbol == "" {
				return nil, huma.Error400BadRequest("symbol is required")
			}
			if err := s.engine.Mount(ctx, input.Body.Symbol); err != nil {
				return nil, mapErr(err)
			}
			return &chartStateOutput{Body: s.chartState()}, nil
		})

	type setRangeInput struct {
		Body struct {
			Range string `json:"range" required:"true" doc:"Named range: 1D 1W 1M 3M 6M 1Y 2Y 5Y MAX"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "set-range", Method: http.MethodPut, Path: "/api/v1/chart/range", Summary: "Switch time range", Tags: []string{"Chart"}},
		func(ctx context.Context, input *setRangeInput) (*chartStateOutput, error) {
			if _, err := datacache.ParseRange(input.Body.Range); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			if err := s.engine.SetRange(ctx, input.Body.Range); err != nil {
				return nil, mapErr(err)
			}
			return &chartStateOutput{Body: s.chartState()}, nil
		})

	type windowOutput struct {
		Body struct {
			Symbol string       `json:"symbol"`
			Range  string       `json:"range"`
			Bars   []market.Bar `json:"bars"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "get-window", Method: http.MethodGet, Path: "/api/v1/chart/window", Summary: "Get rendered bars", Tags: []string{"Chart"}},
		func(ctx context.Context, _ *struct{}) (*windowOutput, error) {
			out := &windowOutput{}
			out.Body.Symbol = s.engine.Symbol()
			out.Body.Range = string(s.engine.Range())
			out.Body.Bars = s.engine.Window()
			return out, nil
		})

	type resizeInput struct {
		Body struct {
			Width  int `json:"width" required:"true" minimum:"1"`
			Height int `json:"height" required:"true" minimum:"1"`
		}
	}
	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "resize-chart", Method: http.MethodPost, Path: "/api/v1/chart/resize", Summary: "Resize all panes", Tags: []string{"Chart"}},
		func(ctx context.Context, input *resizeInput) (*statusOutput, error) {
			s.engine.Resize(input.Body.Width, input.Body.Height)
			out := &statusOutput{}
			out.Body.Status = "resized"
			return out, nil
		})

	type panesOutput struct {
		Body struct {
			Panes []engine.PaneStatus `json:"panes"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-panes", Method: http.MethodGet, Path: "/api/v1/chart/panes", Summary: "List pane lifecycle states", Tags: []string{"Chart"}},
		func(ctx context.Context, _ *struct{}) (*panesOutput, error) {
			out := &panesOutput{}
			out.Body.Panes = s.engine.Panes()
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/api/v1/health", Summary: "Health check", Tags: []string{"Chart"}},
		func(ctx context.Context, _ *struct{}) (*statusOutput, error) {
			out := &statusOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}
