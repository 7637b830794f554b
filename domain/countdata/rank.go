package countdata

import (
	"fmt"
	"slices"

	"bmcount/domain/core"
)

// Rank assigns each distinct value of x its average rank, as if x were
// expanded into a sorted multiset and ranked from 1. The walk is over
// distinct values only, so the cost does not depend on the counts.
//
// A value with count 0 occupies an empty span and is given the rank cursor
// at its position; it shifts nothing. A map whose total count is 0 yields
// an empty RankMap.
func Rank[V Value](x CountMap[V], method RankMethod) (RankMap[V], error) {
	if method != RankAverage {
		return nil, unknownRankMethod(string(method))
	}
	if err := Validate(x); err != nil {
		return nil, err
	}
	if HasMissing(x) {
		return nil, core.ErrMissingValueNotRanked
	}

	ranks := make(RankMap[V], len(x))
	if Size(x) == 0 {
		return ranks, nil
	}

	cursor := 1
	for _, v := range SortedKeys(x) {
		c := x[v]
		if c == 0 {
			ranks[v] = float64(cursor)
			continue
		}
		lo, hi := cursor, cursor+c-1
		ranks[v] = float64(lo+hi) / 2
		cursor += c
	}
	return ranks, nil
}

// SortedKeys returns the keys of x in ascending order. Missing-value keys
// are left out.
func SortedKeys[V Value](x CountMap[V]) []V {
	keys := make([]V, 0, len(x))
	for v := range x {
		if IsMissing(v) {
			continue
		}
		keys = append(keys, v)
	}
	slices.Sort(keys)
	return keys
}

func unknownRankMethod(method string) error {
	return fmt.Errorf("%w %q", core.ErrUnknownRankMethod, method)
}
