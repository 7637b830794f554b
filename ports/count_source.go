package ports

import (
	"context"

	"bmcount/domain/countdata"
)

// CountSource provides count-aggregated samples by group name
type CountSource interface {
	// Groups lists the group names the source can load, in a stable order.
	Groups(ctx context.Context) ([]string, error)
	// LoadCounts returns the Count Map of one group. Missing values are
	// keyed by NaN.
	LoadCounts(ctx context.Context, group string) (countdata.CountMap[float64], error)
}
