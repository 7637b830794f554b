package api

import (
	"net/http"

	"bmcount/app"
	"bmcount/domain/countdata"
	"bmcount/internal"
	"bmcount/internal/errors"

	"github.com/gin-gonic/gin"
)

// Handler serves the count-data test endpoints
type Handler struct {
	service      *app.ComparisonService
	maxBatchSize int
	logger       *internal.Logger
}

// NewHandler creates a new handler
func NewHandler(service *app.ComparisonService, maxBatchSize int, logger *internal.Logger) *Handler {
	return &Handler{
		service:      service,
		maxBatchSize: maxBatchSize,
		logger:       logger.With("api"),
	}
}

// NewRouter builds the gin engine with every route registered
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(h.logger))

	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	v1.POST("/brunnermunzel", h.Test)
	v1.POST("/brunnermunzel/batch", h.Batch)
	v1.POST("/rank", h.Rank)
	v1.POST("/join", h.Join)

	return r
}

// Health reports liveness and the default test options
func (h *Handler) Health(c *gin.Context) {
	defaults := h.service.Defaults()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"alternative":  defaults.Alternative,
		"distribution": defaults.Distribution,
		"nan_policy":   defaults.NaNPolicy,
	})
}

// Test runs one Brunner-Munzel test
func (h *Handler) Test(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.ValidationError(err.Error()))
		return
	}

	comparison, err := req.toComparison()
	if err != nil {
		h.fail(c, err)
		return
	}

	res := h.service.Compare(c.Request.Context(), comparison)
	if res.Err != nil {
		h.fail(c, res.Err)
		return
	}
	c.JSON(http.StatusOK, toTestResponse(res))
}

// Batch runs many tests concurrently. Invalid comparisons are reported in
// place; the request fails only if the body itself is malformed.
func (h *Handler) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.ValidationError(err.Error()))
		return
	}
	if len(req.Comparisons) > h.maxBatchSize {
		h.fail(c, errors.ValidationError("batch exceeds the maximum size"))
		return
	}

	resp := BatchResponse{Results: make([]TestResponse, len(req.Comparisons))}
	comparisons := make([]app.Comparison, 0, len(req.Comparisons))
	index := make([]int, 0, len(req.Comparisons))
	for i, r := range req.Comparisons {
		comparison, err := r.toComparison()
		if err != nil {
			resp.Results[i] = TestResponse{Name: r.Name, Error: toError(err)}
			resp.Failed++
			continue
		}
		comparisons = append(comparisons, comparison)
		index = append(index, i)
	}

	results, err := h.service.CompareBatch(c.Request.Context(), comparisons)
	if err != nil {
		h.fail(c, err)
		return
	}
	for j, r := range results {
		resp.Results[index[j]] = toTestResponse(r)
		if r.Err != nil {
			resp.Failed++
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Rank assigns average ranks to a Count Map
func (h *Handler) Rank(c *gin.Context) {
	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.ValidationError(err.Error()))
		return
	}

	method, err := countdata.ParseRankMethod(req.Method)
	if err != nil {
		h.fail(c, err)
		return
	}
	counts, err := countdata.ParseKeys(req.Counts)
	if err != nil {
		h.fail(c, err)
		return
	}
	ranks, err := countdata.Rank(counts, method)
	if err != nil {
		h.fail(c, err)
		return
	}

	values, byValue := countdata.FormatRanks(ranks)
	c.JSON(http.StatusOK, RankResponse{Values: values, Ranks: byValue})
}

// Join merges Count Maps
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.ValidationError(err.Error()))
		return
	}

	maps := make([]countdata.CountMap[float64], 0, len(req.Maps))
	for _, raw := range req.Maps {
		m, err := countdata.ParseKeys(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		maps = append(maps, m)
	}

	joined := countdata.Join(maps...)
	c.JSON(http.StatusOK, JoinResponse{Counts: countdata.FormatKeys(joined), Size: countdata.Size(joined)})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     *toError(err),
		RequestID: c.GetString(requestIDKey),
	})
}

func toError(err error) *Error {
	return &Error{Code: errors.GetCode(err), Message: err.Error()}
}
