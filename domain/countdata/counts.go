package countdata

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"bmcount/domain/core"
)

// Size returns the total number of observations in x.
func Size[V Value](x CountMap[V]) int {
	n := 0
	for _, c := range x {
		n += c
	}
	return n
}

// Validate rejects a Count Map that holds a negative count.
func Validate[V Value](x CountMap[V]) error {
	for v, c := range x {
		if c < 0 {
			return fmt.Errorf("%w: value %v has count %d", core.ErrNegativeCount, v, c)
		}
	}
	return nil
}

// HasMissing reports whether any key of x is the missing-value marker.
func HasMissing[V Value](x CountMap[V]) bool {
	for v := range x {
		if IsMissing(v) {
			return true
		}
	}
	return false
}

// DropMissing returns a copy of x without missing-value keys.
func DropMissing[V Value](x CountMap[V]) CountMap[V] {
	ret := make(CountMap[V], len(x))
	for v, c := range x {
		if IsMissing(v) {
			continue
		}
		ret[v] = c
	}
	return ret
}

// Tabulate counts the occurrences of each value in a raw sample.
func Tabulate[V Value](values []V) CountMap[V] {
	ret := make(CountMap[V])
	for _, v := range values {
		ret[v]++
	}
	return ret
}

// Expand materializes x as a sorted raw sample, missing values last.
// Entries with non-positive counts contribute nothing.
func Expand[V Value](x CountMap[V]) []V {
	out := make([]V, 0, Size(x))
	for _, v := range SortedKeys(x) {
		for i := 0; i < x[v]; i++ {
			out = append(out, v)
		}
	}
	for v, c := range x {
		if !IsMissing(v) {
			continue
		}
		for i := 0; i < c; i++ {
			out = append(out, v)
		}
	}
	return out
}

// ParseKeys converts a string-keyed Count Map, as found in JSON documents
// and table files, into a float-keyed one. "NaN" (any case) and the empty
// string denote the missing-value marker.
func ParseKeys(raw map[string]int) (CountMap[float64], error) {
	ret := make(CountMap[float64], len(raw))
	for k, c := range raw {
		v, err := ParseValue(k)
		if err != nil {
			return nil, err
		}
		ret[v] += c
	}
	return ret, nil
}

// ParseValue parses one value cell.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrMalformedValue, s)
	}
	return v, nil
}

// FormatKeys is the inverse of ParseKeys. Missing-value entries are summed
// under "NaN".
func FormatKeys(x CountMap[float64]) map[string]int {
	ret := make(map[string]int, len(x))
	for v, c := range x {
		ret[FormatValue(v)] += c
	}
	return ret
}

// FormatValue renders a value in its shortest round-tripping form.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatRanks renders a RankMap with string keys in ascending value order.
func FormatRanks(r RankMap[float64]) ([]string, map[string]float64) {
	values := make([]float64, 0, len(r))
	for v := range r {
		values = append(values, v)
	}
	sort.Float64s(values)

	keys := make([]string, len(values))
	ranks := make(map[string]float64, len(values))
	for i, v := range values {
		keys[i] = FormatValue(v)
		ranks[keys[i]] = r[v]
	}
	return keys, ranks
}
