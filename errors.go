package stakefolio

import "errors"

var (
	// ErrUnknownStakeState is returned when a lifecycle state has no bucket.
	ErrUnknownStakeState = errors.New("unknown stake state")
	// ErrEmptyWindow is returned when a yield window does not span a positive duration.
	ErrEmptyWindow = errors.New("empty yield window")
	// ErrInvalidConfig is returned when thresholds or bands are missing or out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrBreakdownExceedsVariance is returned when a variance breakdown explains more than the variance.
	ErrBreakdownExceedsVariance = errors.New("variance breakdown exceeds total variance")
	// ErrNonIntegerGwei is returned when an amount has a fraction of gwei.
	ErrNonIntegerGwei = errors.New("amount is not a whole number of gwei")
)
