package stakefolio

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// Direction tells which side of a reconciliation reports more.
type Direction string

const (
	Match          Direction = "match"
	InternalHigher Direction = "internal_higher"
	ExternalHigher Direction = "external_higher"
)

// Variance is the difference between an internal and an external total.
type Variance struct {
	Signed     Gwei      // internal - external
	Amount     Gwei      // |internal - external|
	Percentage float64   // Amount / internal, in [0, +inf)
	Direction  Direction // Match iff Amount is zero
}

// DetectVariance compares an internal total to an external one.
//
// The percentage is relative to the internal total. When the internal total
// is zero and the external is not, the whole external amount is unaccounted
// for and the percentage is 1.
func DetectVariance(internal, external Gwei) Variance {
	signed := internal.Sub(external)
	if signed.IsZero() {
		return Variance{Direction: Match}
	}
	v := Variance{
		Signed:    signed,
		Amount:    signed.Abs(),
		Direction: InternalHigher,
	}
	if signed.IsNegative() {
		v.Direction = ExternalHigher
	}
	if internal.IsZero() {
		v.Percentage = 1
	} else {
		v.Percentage = v.Amount.Ratio(internal.Abs())
	}
	return v
}

// VarianceCategoryTag names a cause of variance.
type VarianceCategoryTag string

const (
	TimingDifference    VarianceCategoryTag = "timing_difference"
	RewardAccrual       VarianceCategoryTag = "reward_accrual"
	FeeDifference       VarianceCategoryTag = "fee_difference"
	PendingTransactions VarianceCategoryTag = "pending_transactions"
	Unexplained         VarianceCategoryTag = "unexplained"
	MissingInternalData VarianceCategoryTag = "missing_internal_data"
)

// Explanation returns the fixed, human readable explanation of the tag.
func (t VarianceCategoryTag) Explanation() string {
	switch t {
	case TimingDifference:
		return "Statement and ledger were cut at different times; the difference settles in the next period."
	case RewardAccrual:
		return "Rewards accrued on chain but not yet credited on one side."
	case FeeDifference:
		return "Custodian or operator fees are accounted for differently on each side."
	case PendingTransactions:
		return "Deposits or withdrawals initiated but not yet settled."
	case Unexplained:
		return "No known cause; the difference must be investigated."
	case MissingInternalData:
		return "The custodian reports holdings for which no internal record exists."
	default:
		return string(t)
	}
}

// VarianceCategory is a labeled and evidenced portion of a variance.
type VarianceCategory struct {
	Tag         VarianceCategoryTag `json:"category"`
	Amount      Gwei                `json:"amount"`
	Explanation string              `json:"explanation"`
	Evidence    []EvidenceLink      `json:"evidence"`
}

// VarianceBreakdown is an optional decomposition of a variance. Zero
// buckets are omitted from the categories: nothing forces the buckets to
// add up to the whole variance.
type VarianceBreakdown struct {
	TimingDifference    Gwei `json:"timingDifference"`
	RewardAccrual       Gwei `json:"rewardAccrual"`
	FeeDifference       Gwei `json:"feeDifference"`
	PendingTransactions Gwei `json:"pendingTransactions"`
	Unexplained         Gwei `json:"unexplained"`
}

// CategorizeVariance emits one category per non-zero bucket of the
// breakdown, in a fixed order, each carrying the evidence.
//
// It fails if the buckets explain more than the total variance in absolute
// value.
func CategorizeVariance(total Gwei, breakdown VarianceBreakdown, evidence []EvidenceLink) ([]VarianceCategory, error) {
	buckets := []struct {
		tag    VarianceCategoryTag
		amount Gwei
	}{
		{TimingDifference, breakdown.TimingDifference},
		{RewardAccrual, breakdown.RewardAccrual},
		{FeeDifference, breakdown.FeeDifference},
		{PendingTransactions, breakdown.PendingTransactions},
		{Unexplained, breakdown.Unexplained},
	}
	var explained Gwei
	var res []VarianceCategory
	for _, b := range buckets {
		if b.amount.IsZero() {
			continue
		}
		explained = explained.Add(b.amount.Abs())
		res = append(res, newCategory(b.tag, b.amount, evidence))
	}
	if explained.GreaterThan(total.Abs()) {
		return nil, fmt.Errorf("%w: %s explained out of %s", ErrBreakdownExceedsVariance, explained, total.Abs())
	}
	return res, nil
}

func newCategory(tag VarianceCategoryTag, amount Gwei, evidence []EvidenceLink) VarianceCategory {
	return VarianceCategory{
		Tag:         tag,
		Amount:      amount,
		Explanation: tag.Explanation(),
		Evidence:    append([]EvidenceLink{}, evidence...),
	}
}

// ReconciliationStatus is the outcome of a reconciliation.
type ReconciliationStatus string

const (
	Reconciled            ReconciliationStatus = "reconciled"
	VarianceDetected      ReconciliationStatus = "variance_detected"
	RequiresInvestigation ReconciliationStatus = "requires_investigation"
)

// InternalTotal is what the ledger holds for one source (a custodian).
type InternalTotal struct {
	Source     string   `json:"source"`
	TotalValue Gwei     `json:"totalValue"`
	Validators []string `json:"validators"` // IDs of the validators behind the total
}

// InternalTotals groups the validators' balances by custodian. Totals are
// sorted by source and list their validators in ID order.
func InternalTotals(validators []ValidatorRecord) []InternalTotal {
	index := make(map[string]int)
	var res []InternalTotal
	for _, v := range validators {
		i, ok := index[v.CustodianID]
		if !ok {
			i = len(res)
			index[v.CustodianID] = i
			res = append(res, InternalTotal{Source: v.CustodianID})
		}
		res[i].TotalValue = res[i].TotalValue.Add(v.Balance)
		res[i].Validators = append(res[i].Validators, v.ID)
	}
	for i := range res {
		slices.Sort(res[i].Validators)
	}
	slices.SortFunc(res, func(a, b InternalTotal) int { return cmp.Compare(a.Source, b.Source) })
	return res
}

// CustodianStatement is the total reported by a third party.
type CustodianStatement struct {
	Source     string    `json:"source"`
	TotalValue Gwei      `json:"totalValue"`
	ReportDate time.Time `json:"reportDate"`
}

// ReconciliationReport is the audit record of a reconciliation.
type ReconciliationReport struct {
	Source             string               `json:"source"`
	ReportDate         time.Time            `json:"reportDate"`
	InternalTotal      Gwei                 `json:"internalTotal"`
	ExternalTotal      Gwei                 `json:"externalTotal"`
	Variance           Gwei                 `json:"variance"` // internal - external
	VarianceAmount     Gwei                 `json:"varianceAmount"`
	VariancePercentage float64              `json:"variancePercentage"`
	Direction          Direction            `json:"direction"`
	Categories         []VarianceCategory   `json:"categories"`
	Status             ReconciliationStatus `json:"status"`
}

// Unattributed returns the part of the variance no category explains.
func (r ReconciliationReport) Unattributed() Gwei {
	rest := r.VarianceAmount
	for _, c := range r.Categories {
		rest = rest.Sub(c.Amount.Abs())
	}
	return rest
}

// Reconciler compares internal totals to custodian statements.
type Reconciler struct {
	bands ReconciliationBands
	options
}

// NewReconciler returns a Reconciler classifying variances with bands.
func NewReconciler(bands ReconciliationBands, opts ...Option) (*Reconciler, error) {
	if err := bands.Validate(); err != nil {
		return nil, err
	}
	return &Reconciler{bands: bands, options: newOptions(opts)}, nil
}

// Bands returns the status bands in use.
func (r *Reconciler) Bands() ReconciliationBands { return r.bands }

// Status classifies a variance.
func (r *Reconciler) Status(v Variance) ReconciliationStatus {
	switch {
	case v.Amount.IsZero(), v.Percentage <= r.bands.ReconciledMax:
		return Reconciled
	case v.Percentage <= r.bands.VarianceDetectedMax:
		return VarianceDetected
	default:
		return RequiresInvestigation
	}
}

// CreateReport reconciles one internal total with one statement.
//
// When breakdown is nil and there is a variance, the whole variance is
// reported as unexplained and attributed to every validator behind the
// internal total. evidence is attached to every category of a breakdown.
//
// The report is dated with the statement, or with the reconciler's clock
// when the statement has no date.
func (r *Reconciler) CreateReport(internal InternalTotal, external CustodianStatement, breakdown *VarianceBreakdown, evidence []EvidenceLink) (ReconciliationReport, error) {
	v := DetectVariance(internal.TotalValue, external.TotalValue)
	var categories []VarianceCategory
	switch {
	case breakdown != nil:
		var err error
		categories, err = CategorizeVariance(v.Signed, *breakdown, evidence)
		if err != nil {
			return ReconciliationReport{}, fmt.Errorf("reconciling %q: %w", cmp.Or(external.Source, internal.Source), err)
		}
	case !v.Amount.IsZero():
		refs := make([]EvidenceLink, 0, len(internal.Validators))
		for _, id := range internal.Validators {
			refs = append(refs, ValidatorEvidence(id))
		}
		categories = []VarianceCategory{newCategory(Unexplained, v.Amount, refs)}
	}
	return ReconciliationReport{
		Source:             cmp.Or(external.Source, internal.Source),
		ReportDate:         r.reportDate(external),
		InternalTotal:      internal.TotalValue,
		ExternalTotal:      external.TotalValue,
		Variance:           v.Signed,
		VarianceAmount:     v.Amount,
		VariancePercentage: v.Percentage,
		Direction:          v.Direction,
		Categories:         categories,
		Status:             r.Status(v),
	}, nil
}

func (r *Reconciler) reportDate(s CustodianStatement) time.Time {
	if s.ReportDate.IsZero() {
		return r.clock.Now().UTC()
	}
	return s.ReportDate
}

// ReconcileAll reconciles every statement with the internal total of the
// same source. Reports follow the order of the statements.
//
// A statement without internal total is not an error: it yields a report
// requiring investigation, with a 100% variance in a single
// missing_internal_data category.
func (r *Reconciler) ReconcileAll(internals []InternalTotal, statements []CustodianStatement) ([]ReconciliationReport, error) {
	bySource := make(map[string]InternalTotal, len(internals))
	for _, it := range internals {
		if _, dup := bySource[it.Source]; dup {
			return nil, fmt.Errorf("%w: duplicate internal total for source %q", ErrInvalidConfig, it.Source)
		}
		bySource[it.Source] = it
	}
	res := make([]ReconciliationReport, 0, len(statements))
	for _, s := range statements {
		internal, ok := bySource[s.Source]
		if !ok {
			res = append(res, r.missingInternal(s))
			continue
		}
		report, err := r.CreateReport(internal, s, nil, nil)
		if err != nil {
			return nil, err
		}
		res = append(res, report)
	}
	return res, nil
}

func (r *Reconciler) missingInternal(s CustodianStatement) ReconciliationReport {
	amount := s.TotalValue.Abs()
	direction := ExternalHigher
	switch {
	case s.TotalValue.IsZero():
		direction = Match
	case s.TotalValue.IsNegative():
		direction = InternalHigher
	}
	return ReconciliationReport{
		Source:             s.Source,
		ReportDate:         r.reportDate(s),
		ExternalTotal:      s.TotalValue,
		Variance:           s.TotalValue.Neg(),
		VarianceAmount:     amount,
		VariancePercentage: 1,
		Direction:          direction,
		Categories: []VarianceCategory{
			newCategory(MissingInternalData, amount, []EvidenceLink{ExternalEvidence(s.Source, "custodian statement")}),
		},
		Status: RequiresInvestigation,
	}
}
