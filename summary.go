package stakefolio

import (
	"time"
)

// PortfolioSummary is the portfolio-level view derived from validator records
// and reward events.
type PortfolioSummary struct {
	TotalValue     Gwei                  `json:"totalValue"`
	BlendedAPY     Rate                  `json:"blendedApy"`
	ValidatorCount int                   `json:"validatorCount"`
	Buckets        StateBuckets          `json:"buckets"`
	Allocations    []CustodianAllocation `json:"allocations"`
	Window         Window                `json:"window"`
	AsOf           time.Time             `json:"asOf"`

	// Period labels the window when the caller knows it, e.g. 2025-03 or 2025-W13.
	Period string `json:"period,omitempty"`
}

// NewPortfolioSummary aggregates validators into state buckets and custodian
// allocations, and blends the custodians' trailing yields.
//
// A zero asOf is replaced by the current time.
func NewPortfolioSummary(validators []ValidatorRecord, rewards []RewardEvent, window Window, asOf time.Time) (PortfolioSummary, error) {
	buckets, err := AggregateByStateBucket(validators)
	if err != nil {
		return PortfolioSummary{}, err
	}
	allocations, err := RollupByCustodian(validators, rewards, window)
	if err != nil {
		return PortfolioSummary{}, err
	}
	total, count, blended := Blend(allocations)
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return PortfolioSummary{
		TotalValue:     total,
		BlendedAPY:     blended,
		ValidatorCount: count,
		Buckets:        buckets,
		Allocations:    allocations,
		Window:         window,
		AsOf:           asOf,
	}, nil
}

// Allocation returns the allocation of custodian id.
func (s PortfolioSummary) Allocation(id string) (CustodianAllocation, bool) {
	for _, a := range s.Allocations {
		if a.ID == id {
			return a, true
		}
	}
	return CustodianAllocation{}, false
}

// Snapshot is the part of a summary that is compared from one run to the next.
type Snapshot struct {
	Value          Gwei      `json:"value"`
	ValidatorCount int       `json:"validatorCount"`
	AsOf           time.Time `json:"asOf"`
}

// Snapshot returns the comparable part of the summary.
func (s PortfolioSummary) Snapshot() Snapshot {
	return Snapshot{Value: s.TotalValue, ValidatorCount: s.ValidatorCount, AsOf: s.AsOf}
}
