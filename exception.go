package stakefolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ExceptionType identifies the check that raised an exception.
type ExceptionType string

const (
	PortfolioValueChange  ExceptionType = "portfolio_value_change"
	ValidatorCountChange  ExceptionType = "validator_count_change"
	InTransitStuck        ExceptionType = "in_transit_stuck"
	RewardsAnomaly        ExceptionType = "rewards_anomaly"
	PerformanceDivergence ExceptionType = "performance_divergence"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ExceptionStatus is owned by the workflow handling exceptions. The engine
// only ever creates exceptions in the StatusNew state.
type ExceptionStatus string

const (
	StatusNew           ExceptionStatus = "new"
	StatusInvestigating ExceptionStatus = "investigating"
	StatusResolved      ExceptionStatus = "resolved"
)

// EvidenceKind is the kind of entity an EvidenceLink points to.
type EvidenceKind string

const (
	EvidenceValidator EvidenceKind = "validator"
	EvidenceCustodian EvidenceKind = "custodian"
	EvidenceEvent     EvidenceKind = "event"
	EvidenceExternal  EvidenceKind = "external"
)

// EvidenceLink is a typed reference attached to a finding for audit.
type EvidenceLink struct {
	Kind  EvidenceKind `json:"kind"`
	Ref   string       `json:"ref"`
	Label string       `json:"label,omitempty"`
}

func ValidatorEvidence(id string) EvidenceLink { return EvidenceLink{Kind: EvidenceValidator, Ref: id} }
func CustodianEvidence(id, name string) EvidenceLink {
	return EvidenceLink{Kind: EvidenceCustodian, Ref: id, Label: name}
}
func ExternalEvidence(ref, label string) EvidenceLink {
	return EvidenceLink{Kind: EvidenceExternal, Ref: ref, Label: label}
}

// ExceptionPayload is what a check reports, before identity is assigned.
type ExceptionPayload struct {
	Type        ExceptionType
	Severity    Severity
	Title       string
	Description string
	Evidence    []EvidenceLink
}

// Exception is an anomaly detected in the portfolio.
type Exception struct {
	ID          string          `json:"id"`
	Type        ExceptionType   `json:"type"`
	Severity    Severity        `json:"severity"`
	Status      ExceptionStatus `json:"status"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Evidence    []EvidenceLink  `json:"evidence"`
	DetectedAt  time.Time       `json:"detectedAt"`
}

// Option configures a Detector or a Reconciler.
type Option func(*options)

type options struct {
	clock clockwork.Clock
	newID func() string
}

func newOptions(opts []Option) options {
	o := options{
		clock: clockwork.NewRealClock(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock sets the clock used to timestamp findings.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithIDGenerator sets the function used to identify exceptions.
func WithIDGenerator(f func() string) Option {
	return func(o *options) { o.newID = f }
}

// Detector runs the exception checks. Checks are independent and read-only;
// the detector only owns how exceptions are identified and timestamped.
type Detector struct {
	options
}

// NewDetector returns a Detector using uuids and the real clock unless told otherwise.
func NewDetector(opts ...Option) *Detector {
	return &Detector{options: newOptions(opts)}
}

// NewException identifies and timestamps a payload. Every exception of the
// engine is built here.
func (d *Detector) NewException(p ExceptionPayload) Exception {
	return Exception{
		ID:          d.newID(),
		Type:        p.Type,
		Severity:    p.Severity,
		Status:      StatusNew,
		Title:       p.Title,
		Description: p.Description,
		Evidence:    append([]EvidenceLink{}, p.Evidence...),
		DetectedAt:  d.clock.Now().UTC(),
	}
}
