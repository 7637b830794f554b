package app

import (
	"context"

	"bmcount/domain/countdata"
	"bmcount/internal/errors"
	"bmcount/ports"
)

// staticSource serves Count Maps held in memory
type staticSource struct {
	groups []string
	counts map[string]countdata.CountMap[float64]
}

// NewStaticSource creates a CountSource over in-memory groups, listed in
// the order given by groups.
func NewStaticSource(groups []string, counts map[string]countdata.CountMap[float64]) ports.CountSource {
	return &staticSource{groups: groups, counts: counts}
}

func (s *staticSource) Groups(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.groups...), nil
}

func (s *staticSource) LoadCounts(ctx context.Context, group string) (countdata.CountMap[float64], error) {
	counts, ok := s.counts[group]
	if !ok {
		return nil, errors.NotFound("group " + group)
	}
	return countdata.Join(counts), nil
}
