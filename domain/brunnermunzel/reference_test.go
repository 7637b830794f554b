package brunnermunzel

import (
	"math"
	"sort"

	"bmcount/domain/core"
	"bmcount/internal/distributions"

	"github.com/montanaflynn/stats"
)

// referenceTest is the array-based Brunner-Munzel test on raw observations.
// It ranks positionally with average ties, the way the test is defined,
// and shares nothing with FromCountData except the distribution functions.
func referenceTest(x, y []float64, opts Options) (Result, error) {
	opts, err := opts.normalize()
	if err != nil {
		return Result{}, err
	}

	if containsNaN(x) || containsNaN(y) {
		switch opts.NaNPolicy {
		case Raise:
			return Result{}, core.ErrMissingValue
		case Propagate:
			return nanResult(), nil
		case Omit:
			x, y = withoutNaN(x), withoutNaN(y)
		}
	}
	if len(x) == 0 || len(y) == 0 {
		return nanResult(), nil
	}

	nx, ny := float64(len(x)), float64(len(y))
	combined := append(append([]float64(nil), x...), y...)
	rankc := averageRanks(combined)
	rankcx, rankcy := rankc[:len(x)], rankc[len(x):]
	rankx := averageRanks(x)
	ranky := averageRanks(y)

	rankcxMean, _ := stats.Mean(rankcx)
	rankcyMean, _ := stats.Mean(rankcy)

	sx, _ := stats.SampleVariance(placements(rankcx, rankx))
	sy, _ := stats.SampleVariance(placements(rankcy, ranky))

	w := nx * ny * (rankcyMean - rankcxMean) / ((nx + ny) * math.Sqrt(nx*sx+ny*sy))
	res := Result{Statistic: w, DF: math.NaN()}

	var p float64
	if opts.Distribution == StudentsT {
		a, b := nx*sx, ny*sy
		res.DF = (a + b) * (a + b) / (a*a/(nx-1) + b*b/(ny-1))
		p = distributions.StudentsTCDF(w, res.DF)
	} else {
		p = distributions.NormalCDF(w)
	}

	switch opts.Alternative {
	case Less:
		p = 1 - p
	case TwoSided:
		p = 2 * math.Min(p, 1-p)
	}
	res.PValue = p
	return res, nil
}

// averageRanks returns the 1-based positional rank of every element of
// data, ties receiving the mean of the positions they occupy.
func averageRanks(data []float64) []float64 {
	order := make([]int, len(data))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return data[order[a]] < data[order[b]] })

	ranks := make([]float64, len(data))
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && data[order[j]] == data[order[i]] {
			j++
		}
		// Positions i+1 .. j share their mean.
		rank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = rank
		}
		i = j
	}
	return ranks
}

func placements(pooled, within []float64) stats.Float64Data {
	d := make(stats.Float64Data, len(pooled))
	for i := range pooled {
		d[i] = pooled[i] - within[i]
	}
	return d
}

func containsNaN(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func withoutNaN(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
