package brunnermunzel

import (
	"fmt"

	"bmcount/domain/core"
)

// Alternative defines the alternative hypothesis.
type Alternative string

const (
	TwoSided Alternative = "two-sided"
	// Less is one-sided: x tends to be smaller than y.
	Less Alternative = "less"
	// Greater is one-sided: x tends to be larger than y.
	Greater Alternative = "greater"
)

// Distribution defines the reference distribution of the W statistic.
type Distribution string

const (
	StudentsT Distribution = "t"
	Normal    Distribution = "normal"
)

// NaNPolicy defines what happens when a sample carries the missing-value
// marker.
type NaNPolicy string

const (
	// Propagate returns NaN for both the statistic and the p-value.
	Propagate NaNPolicy = "propagate"
	// Raise fails with core.ErrMissingValue.
	Raise NaNPolicy = "raise"
	// Omit drops missing values and proceeds.
	Omit NaNPolicy = "omit"
)

// Options configures FromCountData. Empty fields take the defaults
// (two-sided, t, propagate).
type Options struct {
	Alternative  Alternative
	Distribution Distribution
	NaNPolicy    NaNPolicy
}

// DefaultOptions returns the two-sided t test that propagates NaN.
func DefaultOptions() Options {
	return Options{
		Alternative:  TwoSided,
		Distribution: StudentsT,
		NaNPolicy:    Propagate,
	}
}

// ParseAlternative validates an alternative name; empty selects TwoSided.
func ParseAlternative(s string) (Alternative, error) {
	switch a := Alternative(s); a {
	case "":
		return TwoSided, nil
	case TwoSided, Less, Greater:
		return a, nil
	}
	return "", fmt.Errorf("%w, got %q", core.ErrUnknownAlternative, s)
}

// ParseDistribution validates a distribution name; empty selects StudentsT.
func ParseDistribution(s string) (Distribution, error) {
	switch d := Distribution(s); d {
	case "":
		return StudentsT, nil
	case StudentsT, Normal:
		return d, nil
	}
	return "", fmt.Errorf("%w, got %q", core.ErrUnknownDistribution, s)
}

// ParseNaNPolicy validates a policy name; empty selects Propagate.
func ParseNaNPolicy(s string) (NaNPolicy, error) {
	switch p := NaNPolicy(s); p {
	case "":
		return Propagate, nil
	case Propagate, Raise, Omit:
		return p, nil
	}
	return "", fmt.Errorf("%w, got %q", core.ErrUnknownNaNPolicy, s)
}

// ParseOptions builds Options from their string names.
func ParseOptions(alternative, distribution, nanPolicy string) (Options, error) {
	var (
		opts Options
		err  error
	)
	if opts.Alternative, err = ParseAlternative(alternative); err != nil {
		return Options{}, err
	}
	if opts.Distribution, err = ParseDistribution(distribution); err != nil {
		return Options{}, err
	}
	if opts.NaNPolicy, err = ParseNaNPolicy(nanPolicy); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// normalize fills defaults and rejects unknown values.
func (o Options) normalize() (Options, error) {
	return ParseOptions(string(o.Alternative), string(o.Distribution), string(o.NaNPolicy))
}

// ParseOverrides validates option names like ParseOptions but leaves empty
// names empty, so that a later default can fill them.
func ParseOverrides(alternative, distribution, nanPolicy string) (Options, error) {
	var opts Options
	if alternative != "" {
		a, err := ParseAlternative(alternative)
		if err != nil {
			return Options{}, err
		}
		opts.Alternative = a
	}
	if distribution != "" {
		d, err := ParseDistribution(distribution)
		if err != nil {
			return Options{}, err
		}
		opts.Distribution = d
	}
	if nanPolicy != "" {
		p, err := ParseNaNPolicy(nanPolicy)
		if err != nil {
			return Options{}, err
		}
		opts.NaNPolicy = p
	}
	return opts, nil
}
