// Package brunnermunzel computes the Brunner-Munzel test directly from
// count-aggregated samples.
//
// The result matches running the array-based test on the samples expanded
// into raw observations, but the work is proportional to the number of
// distinct values rather than to the sample sizes.
package brunnermunzel

import (
	"math"

	"bmcount/domain/core"
	"bmcount/domain/countdata"
	"bmcount/internal/distributions"
)

// Result holds the outcome of a Brunner-Munzel test.
type Result struct {
	// Statistic is the Brunner-Munzel W statistic.
	Statistic float64
	// PValue is one- or two-sided depending on the Alternative.
	PValue float64
	// DF is the Welch-Satterthwaite degrees of freedom used for the t
	// reference distribution. It is NaN for the normal reference.
	DF float64
}

// IsNaN reports whether the test was undefined for its input: a sample was
// empty, or missing values were propagated.
func (r Result) IsNaN() bool {
	return math.IsNaN(r.Statistic) && math.IsNaN(r.PValue)
}

func nanResult() Result {
	return Result{Statistic: math.NaN(), PValue: math.NaN(), DF: math.NaN()}
}

// FromCountData computes the Brunner-Munzel test on count data x and y.
//
// It fails with core.ErrNegativeCount if either sample holds a negative
// count, with core.ErrMissingValue if a sample holds NaN under the Raise
// policy, and with an invalid-argument error for unknown options. An empty
// sample, or NaN under the Propagate policy, is not an error: the result is
// NaN for both the statistic and the p-value.
func FromCountData[V countdata.Value](x, y countdata.CountMap[V], opts Options) (Result, error) {
	opts, err := opts.normalize()
	if err != nil {
		return Result{}, err
	}

	if countdata.Validate(x) != nil {
		return Result{}, core.NewNegativeCountError("x")
	}
	if countdata.Validate(y) != nil {
		return Result{}, core.NewNegativeCountError("y")
	}

	if countdata.HasMissing(x) || countdata.HasMissing(y) {
		switch opts.NaNPolicy {
		case Raise:
			if countdata.HasMissing(x) {
				return Result{}, core.NewMissingValueError("x")
			}
			return Result{}, core.NewMissingValueError("y")
		case Propagate:
			return nanResult(), nil
		case Omit:
			x = countdata.DropMissing(x)
			y = countdata.DropMissing(y)
		}
	}

	nx := float64(countdata.Size(x))
	ny := float64(countdata.Size(y))
	if nx == 0 || ny == 0 {
		return nanResult(), nil
	}

	// Neither Rank call can fail past this point: counts are validated,
	// missing values are gone and the method is fixed.
	rankc, err := countdata.Rank(countdata.Join(x, y), countdata.RankAverage)
	if err != nil {
		return Result{}, err
	}
	rankx, err := countdata.Rank(x, countdata.RankAverage)
	if err != nil {
		return Result{}, err
	}
	ranky, err := countdata.Rank(y, countdata.RankAverage)
	if err != nil {
		return Result{}, err
	}

	rankcxMean := weightedMean(x, rankc, nx)
	rankcyMean := weightedMean(y, rankc, ny)
	rankxMean := weightedMean(x, rankx, nx)
	rankyMean := weightedMean(y, ranky, ny)

	sx := placementVariance(x, rankc, rankx, rankcxMean, rankxMean, nx)
	sy := placementVariance(y, rankc, ranky, rankcyMean, rankyMean, ny)

	wbfn := nx * ny * (rankcyMean - rankcxMean)
	wbfn /= (nx + ny) * math.Sqrt(nx*sx+ny*sy)

	res := Result{Statistic: wbfn, DF: math.NaN()}

	var p float64
	switch opts.Distribution {
	case StudentsT:
		dfNumer := math.Pow(nx*sx+ny*sy, 2)
		dfDenom := math.Pow(nx*sx, 2) / (nx - 1)
		dfDenom += math.Pow(ny*sy, 2) / (ny - 1)
		res.DF = dfNumer / dfDenom
		p = distributions.StudentsTCDF(wbfn, res.DF)
	case Normal:
		p = distributions.NormalCDF(wbfn)
	}

	switch opts.Alternative {
	case Greater:
	case Less:
		p = 1 - p
	case TwoSided:
		p = 2 * math.Min(p, 1-p)
	}
	res.PValue = p

	return res, nil
}

// weightedMean averages ranks over the occurrences recorded in counts.
func weightedMean[V countdata.Value](counts countdata.CountMap[V], ranks countdata.RankMap[V], n float64) float64 {
	sum := 0.0
	for v, c := range counts {
		if c == 0 {
			continue
		}
		sum += ranks[v] * float64(c)
	}
	return sum / n
}

// placementVariance is the sample variance of the placements (pooled rank
// minus within-group rank) of one group.
func placementVariance[V countdata.Value](counts countdata.CountMap[V], pooled, within countdata.RankMap[V], pooledMean, withinMean, n float64) float64 {
	sum := 0.0
	for v, c := range counts {
		if c == 0 {
			continue
		}
		d := pooled[v] - within[v] - pooledMean + withinMean
		sum += d * d * float64(c)
	}
	return sum / (n - 1)
}
