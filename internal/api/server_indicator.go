package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/summit-enterprise/stock-pro-sub000/internal/indicator"
)

func (s *Server) registerIndicatorHandlers(api huma.API) {
	type indicatorListOutput struct {
		Body struct {
			Indicators []indicator.Spec `json:"indicators"`
			Limit      int              `json:"limit"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "list-indicators", Method: http.MethodGet, Path: "/api/v1/chart/indicators", Summary: "List selected indicators", Tags: []string{"Indicators"}},
		func(ctx context.Context, _ *struct{}) (*indicatorListOutput, error) {
			out := &indicatorListOutput{}
			out.Body.Indicators = s.engine.Selected()
			out.Body.Limit = indicator.MaxSelected
			return out, nil
		})

	type toggleInput struct {
		ID string `path:"id" doc:"Indicator tag, e.g. SMA_50, RSI_14, MACD_12_26_9"`
	}
	type toggleOutput struct {
		Body struct {
			ID       string `json:"id"`
			Selected bool   `json:"selected"`
			Count    int    `json:"count"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "toggle-indicator", Method: http.MethodPost, Path: "/api/v1/chart/indicators/{id}/toggle", Summary: "Toggle an indicator", Tags: []string{"Indicators"}},
		func(ctx context.Context, input *toggleInput) (*toggleOutput, error) {
			spec, err := indicator.Parse(input.ID)
			if err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			selected, err := s.engine.ToggleIndicator(spec.ID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &toggleOutput{}
			out.Body.ID = spec.ID
			out.Body.Selected = selected
			out.Body.Count = len(s.engine.Selected())
			return out, nil
		})

	type clearedOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "clear-indicators", Method: http.MethodDelete, Path: "/api/v1/chart/indicators", Summary: "Deselect all indicators", Tags: []string{"Indicators"}},
		func(ctx context.Context, _ *struct{}) (*clearedOutput, error) {
			s.engine.ClearIndicators()
			out := &clearedOutput{}
			out.Body.Status = "cleared"
			return out, nil
		})
}
