package api

import (
	"math"

	"bmcount/app"
	"bmcount/domain/brunnermunzel"
	"bmcount/domain/countdata"
)

// TestRequest is the body of POST /v1/brunnermunzel. Count Maps are keyed
// by the decimal form of each value; "NaN" marks missing values.
type TestRequest struct {
	Name         string         `json:"name,omitempty"`
	X            map[string]int `json:"x" binding:"required"`
	Y            map[string]int `json:"y" binding:"required"`
	Alternative  string         `json:"alternative,omitempty"`
	Distribution string         `json:"distribution,omitempty"`
	NaNPolicy    string         `json:"nan_policy,omitempty"`
}

// BatchRequest is the body of POST /v1/brunnermunzel/batch
type BatchRequest struct {
	Comparisons []TestRequest `json:"comparisons" binding:"required,min=1,dive"`
}

// RankRequest is the body of POST /v1/rank
type RankRequest struct {
	Counts map[string]int `json:"counts" binding:"required"`
	Method string         `json:"method,omitempty"`
}

// JoinRequest is the body of POST /v1/join
type JoinRequest struct {
	Maps []map[string]int `json:"maps"`
}

// TestResponse reports one test. NaN and infinite quantities are null,
// as JSON cannot carry them.
type TestResponse struct {
	Name         string   `json:"name,omitempty"`
	Statistic    *float64 `json:"statistic"`
	PValue       *float64 `json:"pvalue"`
	DF           *float64 `json:"df"`
	NX           int      `json:"nx"`
	NY           int      `json:"ny"`
	Alternative  string   `json:"alternative"`
	Distribution string   `json:"distribution"`
	NaNPolicy    string   `json:"nan_policy"`
	Error        *Error   `json:"error,omitempty"`
}

// BatchResponse reports every comparison of a batch in request order
type BatchResponse struct {
	Results []TestResponse `json:"results"`
	Failed  int            `json:"failed"`
}

// RankResponse lists values in ascending order with their ranks
type RankResponse struct {
	Values []string           `json:"values"`
	Ranks  map[string]float64 `json:"ranks"`
}

// JoinResponse carries the merged Count Map
type JoinResponse struct {
	Counts map[string]int `json:"counts"`
	Size   int            `json:"size"`
}

// Error is the error body
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an error for failed requests
type ErrorResponse struct {
	Error     Error  `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// nullable maps NaN and infinities to nil so they serialize as null.
func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func (r TestRequest) toComparison() (app.Comparison, error) {
	x, err := countdata.ParseKeys(r.X)
	if err != nil {
		return app.Comparison{}, err
	}
	y, err := countdata.ParseKeys(r.Y)
	if err != nil {
		return app.Comparison{}, err
	}
	opts, err := brunnermunzel.ParseOverrides(r.Alternative, r.Distribution, r.NaNPolicy)
	if err != nil {
		return app.Comparison{}, err
	}
	return app.Comparison{Name: r.Name, X: x, Y: y, Options: opts}, nil
}

func toTestResponse(r app.ComparisonResult) TestResponse {
	resp := TestResponse{
		Name:         r.Name,
		Statistic:    nullable(r.Result.Statistic),
		PValue:       nullable(r.Result.PValue),
		DF:           nullable(r.Result.DF),
		NX:           r.NX,
		NY:           r.NY,
		Alternative:  string(r.Options.Alternative),
		Distribution: string(r.Options.Distribution),
		NaNPolicy:    string(r.Options.NaNPolicy),
	}
	if r.Err != nil {
		resp.Statistic, resp.PValue, resp.DF = nil, nil, nil
		resp.Error = toError(r.Err)
	}
	return resp
}
