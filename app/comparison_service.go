package app

import (
	"context"
	"fmt"
	"time"

	"bmcount/domain/brunnermunzel"
	"bmcount/domain/countdata"
	"bmcount/internal"
	"bmcount/internal/errors"
	"bmcount/ports"

	"golang.org/x/sync/errgroup"
)

// ComparisonService runs Brunner-Munzel tests on count data
type ComparisonService struct {
	defaults    brunnermunzel.Options
	concurrency int
	logger      *internal.Logger
}

// Comparison is one two-sample test request. Empty option fields fall back
// to the service defaults.
type Comparison struct {
	Name    string
	X, Y    countdata.CountMap[float64]
	Options brunnermunzel.Options
}

// ComparisonResult pairs a comparison with its outcome. Err is set instead
// of Result when that comparison failed.
type ComparisonResult struct {
	Name    string
	Options brunnermunzel.Options
	NX, NY  int
	Result  brunnermunzel.Result
	Err     error
}

// NewComparisonService creates a comparison service. concurrency bounds
// how many comparisons of a batch run at once.
func NewComparisonService(defaults brunnermunzel.Options, concurrency int, logger *internal.Logger) *ComparisonService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ComparisonService{
		defaults:    defaults,
		concurrency: concurrency,
		logger:      logger.With("ComparisonService"),
	}
}

// Defaults returns the options applied to empty option fields.
func (s *ComparisonService) Defaults() brunnermunzel.Options {
	return s.defaults
}

// Resolve fills the empty fields of opts from the service defaults.
func (s *ComparisonService) Resolve(opts brunnermunzel.Options) brunnermunzel.Options {
	if opts.Alternative == "" {
		opts.Alternative = s.defaults.Alternative
	}
	if opts.Distribution == "" {
		opts.Distribution = s.defaults.Distribution
	}
	if opts.NaNPolicy == "" {
		opts.NaNPolicy = s.defaults.NaNPolicy
	}
	return opts
}

// Compare runs a single comparison
func (s *ComparisonService) Compare(ctx context.Context, c Comparison) ComparisonResult {
	opts := s.Resolve(c.Options)
	out := ComparisonResult{
		Name:    c.Name,
		Options: opts,
		NX:      countdata.Size(c.X),
		NY:      countdata.Size(c.Y),
	}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	start := time.Now()
	res, err := brunnermunzel.FromCountData(c.X, c.Y, opts)
	if err != nil {
		s.logger.Warn("comparison %q rejected: %v", c.Name, err)
		out.Err = errors.FromDomain(err)
		return out
	}
	out.Result = res

	if res.IsNaN() {
		s.logger.Info("comparison %q is undefined (nx=%d, ny=%d)", c.Name, out.NX, out.NY)
	}
	s.logger.Debug("comparison %q: W=%g p=%g in %s (%d+%d distinct values)",
		c.Name, res.Statistic, res.PValue, time.Since(start), len(c.X), len(c.Y))
	return out
}

// CompareGroups loads two groups from src and compares them.
func (s *ComparisonService) CompareGroups(ctx context.Context, src ports.CountSource, xGroup, yGroup string, opts brunnermunzel.Options) (ComparisonResult, error) {
	x, err := src.LoadCounts(ctx, xGroup)
	if err != nil {
		return ComparisonResult{}, errors.Wrapf(err, "failed to load group %s", xGroup)
	}
	y, err := src.LoadCounts(ctx, yGroup)
	if err != nil {
		return ComparisonResult{}, errors.Wrapf(err, "failed to load group %s", yGroup)
	}

	res := s.Compare(ctx, Comparison{
		Name:    fmt.Sprintf("%s vs %s", xGroup, yGroup),
		X:       x,
		Y:       y,
		Options: opts,
	})
	return res, res.Err
}

// CompareBatch runs comparisons concurrently. Results keep the order of
// the input; a failing comparison does not stop the others. Only context
// cancellation fails the whole batch.
func (s *ComparisonService) CompareBatch(ctx context.Context, comparisons []Comparison) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, len(comparisons))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	start := time.Now()
	for i, c := range comparisons {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Compare(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Info("batch of %d comparisons done in %s (%d failed)", len(comparisons), time.Since(start), failed)
	return results, nil
}
