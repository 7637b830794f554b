package countdata

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Value is the key type of a Count Map. Float keys may carry NaN as the
// missing-value marker; integer keys never do.
type Value interface {
	constraints.Integer | constraints.Float
}

// CountMap maps a value to the number of times it was observed. It is the
// aggregated form of a multiset: {1: 3, 2: 1} stands for [1, 1, 1, 2].
type CountMap[V Value] map[V]int

// RankMap maps each distinct value to the average rank it would receive
// if its Count Map were expanded and ranked positionally.
type RankMap[V Value] map[V]float64

// RankMethod selects how tied values share ranks.
type RankMethod string

const (
	// RankAverage assigns every tied occurrence the mean of the ranks the
	// ties would occupy.
	RankAverage RankMethod = "average"
)

// ParseRankMethod validates a rank method name. An empty name selects
// RankAverage.
func ParseRankMethod(s string) (RankMethod, error) {
	switch RankMethod(s) {
	case "", RankAverage:
		return RankAverage, nil
	}
	return "", unknownRankMethod(s)
}

// IsMissing reports whether v is the missing-value marker.
func IsMissing[V Value](v V) bool {
	return math.IsNaN(float64(v))
}
