package stakefolio

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"
)

// TransitValidator is a validator whose stake is waiting for activation.
type TransitValidator struct {
	ValidatorID  string
	State        StakeState
	TransitStart time.Time
}

// TransitValidators lists the validators in a pre-activation state that
// have a known transit start.
func TransitValidators(validators []ValidatorRecord) []TransitValidator {
	var res []TransitValidator
	for _, v := range validators {
		if v.State.PreActivation() && !v.TransitStart.IsZero() {
			res = append(res, TransitValidator{ValidatorID: v.ID, State: v.State, TransitStart: v.TransitStart})
		}
	}
	return res
}

// RewardPoint is the reward earned by the portfolio on a date.
type RewardPoint struct {
	Date   time.Time `json:"date"`
	Amount Gwei      `json:"amount"`
}

// CustodianPerformance is the trailing yield of a custodian.
type CustodianPerformance struct {
	CustodianID string `json:"custodianId"`
	Name        string `json:"name"`
	TrailingAPY Rate   `json:"trailingApy"`
}

// Performances returns the performance of each allocation. names maps
// custodian IDs to display names; the ID is used when there is none.
func Performances(allocations []CustodianAllocation, names map[string]string) []CustodianPerformance {
	res := make([]CustodianPerformance, 0, len(allocations))
	for _, a := range allocations {
		name := names[a.ID]
		if name == "" {
			name = a.ID
		}
		res = append(res, CustodianPerformance{CustodianID: a.ID, Name: name, TrailingAPY: a.TrailingAPY})
	}
	return res
}

// DetectionState is everything the checks look at.
type DetectionState struct {
	Previous    Snapshot
	Current     Snapshot
	Transit     []TransitValidator
	Rewards     []RewardPoint // ordered by date
	Performance []CustodianPerformance
}

// Run validates the configuration then runs the five checks and returns
// their exceptions in check order: portfolio value, validator count,
// in-transit, rewards, performance.
//
// Stuck transits are measured against the detector's clock.
func (d *Detector) Run(state DetectionState, cfg DetectionConfig) ([]Exception, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var res []Exception
	if e := d.PortfolioValueChange(state.Previous, state.Current, cfg.PortfolioValueChangeThreshold); e != nil {
		res = append(res, *e)
	}
	if e := d.ValidatorCountChange(state.Previous.ValidatorCount, state.Current.ValidatorCount, cfg.ValidatorCountChangeThreshold); e != nil {
		res = append(res, *e)
	}
	res = append(res, d.InTransitStuck(state.Transit, d.clock.Now(), cfg.InTransitStuckDays)...)
	if e := d.RewardsAnomaly(state.Rewards, cfg.RewardsAnomalyThreshold); e != nil {
		res = append(res, *e)
	}
	res = append(res, d.PerformanceDivergence(state.Performance, cfg.PerformanceDivergenceThreshold)...)
	return res, nil
}

// PortfolioValueChange reports when the total value moved by more than
// threshold (relative to the previous value) between two snapshots.
// Such a move is always of high severity. A zero previous value is not compared.
func (d *Detector) PortfolioValueChange(previous, current Snapshot, threshold float64) *Exception {
	if previous.Value.IsZero() {
		return nil
	}
	change := current.Value.Sub(previous.Value)
	ratio := change.Abs().Ratio(previous.Value.Abs())
	if ratio <= threshold {
		return nil
	}
	verb := "increased"
	if change.IsNegative() {
		verb = "decreased"
	}
	e := d.NewException(ExceptionPayload{
		Type:     PortfolioValueChange,
		Severity: SeverityHigh,
		Title:    fmt.Sprintf("Portfolio value %s by %.2f%%", verb, ratio*100),
		Description: fmt.Sprintf("Total value went from %s on %s to %s on %s (%s), above the %.2f%% threshold.",
			previous.Value, previous.AsOf.Format(time.DateOnly),
			current.Value, current.AsOf.Format(time.DateOnly),
			change.SignedString(), threshold*100),
	})
	return &e
}

// ValidatorCountChange reports when the number of validators moved by more
// than threshold relative to the previous count. The change is of high
// severity beyond twice the threshold, medium otherwise.
func (d *Detector) ValidatorCountChange(previous, current int, threshold float64) *Exception {
	if previous <= 0 {
		return nil
	}
	delta := current - previous
	ratio := math.Abs(float64(delta)) / float64(previous)
	if ratio <= threshold {
		return nil
	}
	e := d.NewException(ExceptionPayload{
		Type:     ValidatorCountChange,
		Severity: escalate(ratio, threshold),
		Title:    fmt.Sprintf("Validator count changed by %+d", delta),
		Description: fmt.Sprintf("Validator count went from %d to %d (%+.2f%%), above the %.2f%% threshold.",
			previous, current, float64(delta)/float64(previous)*100, threshold*100),
	})
	return &e
}

// InTransitStuck reports every pre-activation validator whose transit
// started more than maxDays before now. It is of high severity beyond twice
// maxDays, medium otherwise.
func (d *Detector) InTransitStuck(validators []TransitValidator, now time.Time, maxDays int) []Exception {
	var res []Exception
	for _, v := range validators {
		if !v.State.PreActivation() || v.TransitStart.IsZero() {
			continue
		}
		days := now.Sub(v.TransitStart).Hours() / 24
		if days <= float64(maxDays) {
			continue
		}
		res = append(res, d.NewException(ExceptionPayload{
			Type:     InTransitStuck,
			Severity: escalate(days, float64(maxDays)),
			Title:    fmt.Sprintf("Validator %s stuck in %s for %d days", v.ValidatorID, v.State, int(days)),
			Description: fmt.Sprintf("Validator %s entered %s on %s, %.1f days ago, more than the %d days allowed.",
				v.ValidatorID, v.State, v.TransitStart.Format(time.DateOnly), days, maxDays),
			Evidence: []EvidenceLink{ValidatorEvidence(v.ValidatorID)},
		}))
	}
	return res
}

// RewardsAnomaly compares the most recent reward to the mean of the rewards
// before it, and reports when it deviates by more than threshold in either
// direction. A drop is of high severity, a spike medium.
//
// It needs at least two points, and a non-zero mean.
func (d *Detector) RewardsAnomaly(history []RewardPoint, threshold float64) *Exception {
	if len(history) < 2 {
		return nil
	}
	points := slices.Clone(history)
	slices.SortStableFunc(points, func(a, b RewardPoint) int { return a.Date.Compare(b.Date) })
	latest := points[len(points)-1]
	preceding := points[:len(points)-1]

	var sum Gwei
	for _, p := range preceding {
		sum = sum.Add(p.Amount)
	}
	if sum.IsZero() {
		return nil
	}
	// (latest - sum/n) / (sum/n) computed exactly as (n*latest - sum) / sum.
	n := int64(len(preceding))
	deviation := latest.Amount.Mul(n).Sub(sum).Ratio(sum)
	if math.Abs(deviation) <= threshold {
		return nil
	}
	direction, severity := "spike", SeverityMedium
	if deviation < 0 {
		direction, severity = "drop", SeverityHigh
	}
	mean := sum.Div(n)
	e := d.NewException(ExceptionPayload{
		Type:     RewardsAnomaly,
		Severity: severity,
		Title:    fmt.Sprintf("Rewards %s of %+.2f%% on %s", direction, deviation*100, latest.Date.Format(time.DateOnly)),
		Description: fmt.Sprintf("Rewards of %s on %s against a mean of %s over the %d preceding points, beyond the %.2f%% threshold.",
			latest.Amount, latest.Date.Format(time.DateOnly), mean, n, threshold*100),
		Evidence: []EvidenceLink{{Kind: EvidenceEvent, Ref: latest.Date.Format(time.DateOnly), Label: "rewards"}},
	})
	return &e
}

// PerformanceDivergence reports every custodian whose trailing yield falls
// more than threshold below the mean yield of all custodians, relative to
// that mean. It is of high severity beyond twice the threshold, medium otherwise.
func (d *Detector) PerformanceDivergence(performances []CustodianPerformance, threshold float64) []Exception {
	if len(performances) == 0 {
		return nil
	}
	var sum float64
	for _, p := range performances {
		sum += float64(p.TrailingAPY)
	}
	mean := sum / float64(len(performances))
	if mean <= 0 {
		return nil
	}
	var res []Exception
	for _, p := range performances {
		shortfall := (mean - float64(p.TrailingAPY)) / mean
		if shortfall <= threshold {
			continue
		}
		name := cmp.Or(p.Name, p.CustodianID)
		res = append(res, d.NewException(ExceptionPayload{
			Type:     PerformanceDivergence,
			Severity: escalate(shortfall, threshold),
			Title:    fmt.Sprintf("%s yield trails the portfolio", name),
			Description: fmt.Sprintf("%s earns %s against a mean of %s across %d custodians, %.2f%% below, beyond the %.2f%% threshold.",
				name, p.TrailingAPY, Rate(mean), len(performances), shortfall*100, threshold*100),
			Evidence: []EvidenceLink{CustodianEvidence(p.CustodianID, p.Name)},
		}))
	}
	return res
}

// escalate returns high when value is beyond twice the limit, medium otherwise.
func escalate(value, limit float64) Severity {
	if value > 2*limit {
		return SeverityHigh
	}
	return SeverityMedium
}
