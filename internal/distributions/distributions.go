package distributions

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// StudentsTCDF evaluates the Student's t cumulative distribution function
// with df degrees of freedom at t. df need not be an integer.
//
// gonum panics inside the incomplete beta function on NaN arguments, so a
// NaN statistic or a non-positive/NaN df yields NaN here instead.
func StudentsTCDF(t, df float64) float64 {
	if math.IsNaN(t) || math.IsNaN(df) || df <= 0 {
		return math.NaN()
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return tDist.CDF(t)
}

// NormalCDF computes cumulative distribution function for standard normal
func NormalCDF(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	return distuv.UnitNormal.CDF(x)
}
