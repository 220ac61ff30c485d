package stakefolio

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DetectionConfig holds the thresholds of the five exception checks.
// There is no default: every field must be set by the caller.
type DetectionConfig struct {
	// PortfolioValueChangeThreshold is the relative change of total value, e.g. 0.05.
	PortfolioValueChangeThreshold float64 `json:"portfolioValueChangeThreshold" validate:"gte=0"`
	// ValidatorCountChangeThreshold is the relative change of the validator count.
	ValidatorCountChangeThreshold float64 `json:"validatorCountChangeThreshold" validate:"gte=0"`
	// InTransitStuckDays is how many days stake may stay before activation.
	InTransitStuckDays int `json:"inTransitStuckDays" validate:"gt=0"`
	// RewardsAnomalyThreshold is the relative deviation of the latest reward from the mean.
	RewardsAnomalyThreshold float64 `json:"rewardsAnomalyThreshold" validate:"gte=0"`
	// PerformanceDivergenceThreshold is the relative shortfall of a custodian's yield below the mean.
	PerformanceDivergenceThreshold float64 `json:"performanceDivergenceThreshold" validate:"gte=0"`
}

// Validate rejects negative, NaN or missing thresholds.
func (c DetectionConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: detection: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ReconciliationBands are the variance percentages separating report statuses:
//
//	variance <= ReconciledMax       -> reconciled
//	variance <= VarianceDetectedMax -> variance_detected
//	otherwise                       -> requires_investigation
//
// The reference deployment uses 0.001 (0.1%) and 0.01 (1%).
type ReconciliationBands struct {
	ReconciledMax       float64 `json:"reconciledMax" validate:"gte=0"`
	VarianceDetectedMax float64 `json:"varianceDetectedMax" validate:"gte=0,gtefield=ReconciledMax"`
}

// Validate rejects negative or NaN bands, and bands out of order.
func (b ReconciliationBands) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: reconciliation bands: %w", ErrInvalidConfig, err)
	}
	return nil
}
