package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Argument errors: the caller asked for something the computation cannot accept
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNegativeCount         = fmt.Errorf("%w: the input contains negative counts", ErrInvalidArgument)
	ErrUnknownRankMethod     = fmt.Errorf("%w: unknown rank method", ErrInvalidArgument)
	ErrUnknownAlternative    = fmt.Errorf("%w: alternative should be 'less', 'greater' or 'two-sided'", ErrInvalidArgument)
	ErrUnknownDistribution   = fmt.Errorf("%w: distribution should be 't' or 'normal'", ErrInvalidArgument)
	ErrUnknownNaNPolicy      = fmt.Errorf("%w: nan_policy should be 'propagate', 'raise' or 'omit'", ErrInvalidArgument)
	ErrMalformedValue        = fmt.Errorf("%w: value is not a number", ErrInvalidArgument)
	ErrMissingValueNotRanked = fmt.Errorf("%w: missing values cannot be ranked", ErrInvalidArgument)

	// Input errors: the data itself is rejected under the configured policy
	ErrInvalidInput = errors.New("invalid input")
	ErrMissingValue = fmt.Errorf("%w: the input contains nan values", ErrInvalidInput)
)

// NewNegativeCountError reports which sample carried a negative count.
func NewNegativeCountError(sample string) error {
	return fmt.Errorf("%w (sample %s)", ErrNegativeCount, sample)
}

// NewMissingValueError reports which sample carried the missing marker.
func NewMissingValueError(sample string) error {
	return fmt.Errorf("%w (sample %s)", ErrMissingValue, sample)
}

// Error checking helpers
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
