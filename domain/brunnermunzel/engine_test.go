package brunnermunzel

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"bmcount/domain/core"
	"bmcount/domain/countdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alternatives = []Alternative{TwoSided, Less, Greater}
	references   = []Distribution{StudentsT, Normal}
	nanPolicies  = []NaNPolicy{Propagate, Raise, Omit}
)

func allOptions() []Options {
	var out []Options
	for _, a := range alternatives {
		for _, d := range references {
			for _, p := range nanPolicies {
				out = append(out, Options{Alternative: a, Distribution: d, NaNPolicy: p})
			}
		}
	}
	return out
}

// fixtures mirror the shapes count data takes in practice: integer and
// fractional values, missing values, zero counts and empty samples.
func fixtures() map[string]countdata.CountMap[float64] {
	return map[string]countdata.CountMap[float64]{
		"ints":       {0: 1, 1: 2, 2: 3},
		"floats":     {0.5: 1, 1.5: 2, 2.5: 3},
		"mixed":      {0: 1, 1: 2, 2.5: 3},
		"nan":        {math.NaN(): 1, 1: 2, 2.5: 3},
		"zero count": {0: 0, 1: 2, 2.5: 3},
		"empty":      {},
		"all zero":   {0: 0, 1: 0, 2.5: 0},
	}
}

func TestFromCountData_ConcreteScenario(t *testing.T) {
	x := countdata.CountMap[int]{1: 11, 2: 2, 4: 1}
	y := countdata.CountMap[int]{1: 3, 2: 1, 3: 4, 4: 2, 5: 1}

	res, err := FromCountData(x, y, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 3.1374674823029505, res.Statistic, 1e-12)
	assert.InDelta(t, 0.005786208666151538, res.PValue, 1e-10)
	assert.False(t, math.IsNaN(res.DF))
}

func TestFromCountData_MatchesExpandedReference(t *testing.T) {
	for xName, x := range fixtures() {
		for yName, y := range fixtures() {
			for _, opts := range allOptions() {
				name := fmt.Sprintf("%s/%s/%s/%s/%s", xName, yName, opts.Alternative, opts.Distribution, opts.NaNPolicy)
				t.Run(name, func(t *testing.T) {
					want, wantErr := referenceTest(countdata.Expand(x), countdata.Expand(y), opts)
					got, err := FromCountData(x, y, opts)

					if wantErr != nil {
						assert.ErrorIs(t, err, core.ErrMissingValue)
						return
					}
					require.NoError(t, err)
					assertClose(t, want.Statistic, got.Statistic, "statistic")
					assertClose(t, want.PValue, got.PValue, "pvalue")
				})
			}
		}
	}
}

// TestFromCountData_RandomEquivalence compares against the reference on
// larger random samples with heavy ties.
func TestFromCountData_RandomEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for i := 0; i < 200; i++ {
		x, y := randomSample(rng), randomSample(rng)
		opts := allOptions()[rng.Intn(len(allOptions()))]

		want, err := referenceTest(countdata.Expand(x), countdata.Expand(y), opts)
		require.NoError(t, err)
		got, err := FromCountData(x, y, opts)
		require.NoError(t, err)

		assertClose(t, want.Statistic, got.Statistic, "statistic")
		assertClose(t, want.PValue, got.PValue, "pvalue")
		assertClose(t, want.DF, got.DF, "df")
	}
}

func TestFromCountData_NegativeCounts(t *testing.T) {
	cases := []struct {
		x, y countdata.CountMap[int]
	}{
		{countdata.CountMap[int]{0: -1, 1: 2}, countdata.CountMap[int]{0: 1, 1: 2}},
		{countdata.CountMap[int]{0: 1, 1: 2}, countdata.CountMap[int]{0: -1, 1: 2}},
		{countdata.CountMap[int]{0: -1, 1: 2}, countdata.CountMap[int]{0: -1, 1: 2}},
	}
	for _, tc := range cases {
		for _, opts := range allOptions() {
			res, err := FromCountData(tc.x, tc.y, opts)
			assert.ErrorIs(t, err, core.ErrNegativeCount)
			assert.True(t, core.IsInvalidArgument(err))
			assert.False(t, core.IsInvalidInput(err))
			assert.Equal(t, Result{}, res)
		}
	}
}

func TestFromCountData_ZeroSizeShortCircuit(t *testing.T) {
	res, err := FromCountData(countdata.CountMap[int]{}, countdata.CountMap[int]{0: 1, 1: 2}, Options{})
	require.NoError(t, err)
	assert.True(t, res.IsNaN())

	res, err = FromCountData(countdata.CountMap[int]{0: 1, 1: 2}, countdata.CountMap[int]{5: 0}, Options{})
	require.NoError(t, err)
	assert.True(t, res.IsNaN())
}

func TestFromCountData_NaNPolicies(t *testing.T) {
	x := countdata.CountMap[float64]{math.NaN(): 4, 1: 2, 3: 1}
	y := countdata.CountMap[float64]{1: 1, 2: 3, 4: 2}

	res, err := FromCountData(x, y, Options{NaNPolicy: Propagate})
	require.NoError(t, err)
	assert.True(t, res.IsNaN())

	_, err = FromCountData(x, y, Options{NaNPolicy: Raise})
	assert.ErrorIs(t, err, core.ErrMissingValue)
	assert.True(t, core.IsInvalidInput(err))
	assert.False(t, core.IsInvalidArgument(err))

	omitted, err := FromCountData(x, y, Options{NaNPolicy: Omit})
	require.NoError(t, err)
	clean, err := FromCountData(countdata.DropMissing(x), y, Options{})
	require.NoError(t, err)
	assertClose(t, clean.Statistic, omitted.Statistic, "statistic")
	assertClose(t, clean.PValue, omitted.PValue, "pvalue")
	assert.False(t, math.IsNaN(omitted.Statistic))
}

func TestFromCountData_ZeroCountEntriesAreInert(t *testing.T) {
	x := countdata.CountMap[float64]{1: 11, 2: 2, 4: 1}
	y := countdata.CountMap[float64]{1: 3, 2: 1, 3: 4, 4: 2, 5: 1}
	base, err := FromCountData(x, y, Options{})
	require.NoError(t, err)

	for _, extra := range []float64{-3, 0, 1.5, 3, 10} {
		xz := countdata.Join(x, countdata.CountMap[float64]{extra: 0})
		yz := countdata.Join(y, countdata.CountMap[float64]{extra + 0.25: 0})

		got, err := FromCountData(xz, y, Options{})
		require.NoError(t, err)
		assertClose(t, base.Statistic, got.Statistic, "statistic")
		assertClose(t, base.PValue, got.PValue, "pvalue")

		got, err = FromCountData(x, yz, Options{})
		require.NoError(t, err)
		assertClose(t, base.Statistic, got.Statistic, "statistic")
		assertClose(t, base.PValue, got.PValue, "pvalue")
	}
}

func TestFromCountData_Alternatives(t *testing.T) {
	x := countdata.CountMap[int]{1: 11, 2: 2, 4: 1}
	y := countdata.CountMap[int]{1: 3, 2: 1, 3: 4, 4: 2, 5: 1}

	greater, err := FromCountData(x, y, Options{Alternative: Greater})
	require.NoError(t, err)
	less, err := FromCountData(x, y, Options{Alternative: Less})
	require.NoError(t, err)
	two, err := FromCountData(x, y, Options{Alternative: TwoSided})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, greater.PValue+less.PValue, 1e-12)
	assert.InDelta(t, 2*math.Min(greater.PValue, less.PValue), two.PValue, 1e-12)
	// y ranks higher than x, so "x greater" is implausible.
	assert.Greater(t, greater.PValue, 0.5)
}

func TestFromCountData_NormalHasNoDF(t *testing.T) {
	x := countdata.CountMap[int]{1: 11, 2: 2, 4: 1}
	y := countdata.CountMap[int]{1: 3, 2: 1, 3: 4, 4: 2, 5: 1}

	res, err := FromCountData(x, y, Options{Distribution: Normal})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.DF))
	assert.InDelta(t, 3.1374674823029505, res.Statistic, 1e-12)
}

func TestFromCountData_SwapNegatesStatistic(t *testing.T) {
	x := countdata.CountMap[int]{1: 4, 2: 3, 3: 1}
	y := countdata.CountMap[int]{2: 2, 3: 3, 4: 2}

	xy, err := FromCountData(x, y, Options{})
	require.NoError(t, err)
	yx, err := FromCountData(y, x, Options{})
	require.NoError(t, err)

	assert.InDelta(t, xy.Statistic, -yx.Statistic, 1e-12)
	assert.InDelta(t, xy.PValue, yx.PValue, 1e-12)
}

func TestFromCountData_InvalidOptions(t *testing.T) {
	x := countdata.CountMap[int]{0: 1, 1: 2}

	for _, opts := range []Options{
		{Alternative: "sideways"},
		{Distribution: "cauchy"},
		{NaNPolicy: "ignore"},
	} {
		_, err := FromCountData(x, x, opts)
		assert.True(t, core.IsInvalidArgument(err), "options %+v", opts)
	}

	_, err := FromCountData(countdata.CountMap[int]{}, x, Options{Distribution: "cauchy"})
	assert.ErrorIs(t, err, core.ErrUnknownDistribution)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)

	opts, err = ParseOptions("less", "normal", "omit")
	require.NoError(t, err)
	assert.Equal(t, Options{Alternative: Less, Distribution: Normal, NaNPolicy: Omit}, opts)

	_, err = ParseOptions("two-sided", "t", "drop")
	assert.ErrorIs(t, err, core.ErrUnknownNaNPolicy)
	_, err = ParseOptions("both", "t", "omit")
	assert.ErrorIs(t, err, core.ErrUnknownAlternative)
	_, err = ParseOptions("less", "z", "omit")
	assert.ErrorIs(t, err, core.ErrUnknownDistribution)
}

func assertClose(t *testing.T, want, got float64, what string) {
	t.Helper()
	if math.IsNaN(want) || math.IsNaN(got) {
		assert.True(t, math.IsNaN(want) && math.IsNaN(got), "%s: want %v, got %v", what, want, got)
		return
	}
	if want == got {
		return
	}
	tol := 1e-9 * math.Max(1, math.Max(math.Abs(want), math.Abs(got)))
	assert.InDelta(t, want, got, tol, what)
}

func randomSample(rng *rand.Rand) countdata.CountMap[float64] {
	x := make(countdata.CountMap[float64])
	for len(x) < 2 || countdata.Size(x) < 3 {
		x[float64(rng.Intn(12))] += rng.Intn(20)
	}
	return x
}

func TestParseOverrides(t *testing.T) {
	opts, err := ParseOverrides("", "normal", "")
	require.NoError(t, err)
	assert.Equal(t, Options{Distribution: Normal}, opts)

	_, err = ParseOverrides("", "", "skip")
	assert.ErrorIs(t, err, core.ErrUnknownNaNPolicy)
}
