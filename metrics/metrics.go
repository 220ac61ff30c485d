// Package metrics exposes the engine outputs as Prometheus gauges, written
// to a node exporter textfile by the command line.
package metrics

import (
	"github.com/etnz/stakefolio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the gauges of one run.
type Recorder struct {
	registry *prometheus.Registry

	totalValue     prometheus.Gauge
	blendedAPY     prometheus.Gauge
	validators     prometheus.Gauge
	bucketValue    *prometheus.GaugeVec
	custodianValue *prometheus.GaugeVec
	custodianAPY   *prometheus.GaugeVec
	exceptions     *prometheus.GaugeVec
	reports        *prometheus.GaugeVec
	variance       *prometheus.GaugeVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		totalValue: f.NewGauge(prometheus.GaugeOpts{
			Name: "stakefolio_portfolio_value_gwei",
			Help: "Total value of the portfolio in gwei",
		}),
		blendedAPY: f.NewGauge(prometheus.GaugeOpts{
			Name: "stakefolio_portfolio_blended_apy_ratio",
			Help: "Value weighted trailing APY of the portfolio",
		}),
		validators: f.NewGauge(prometheus.GaugeOpts{
			Name: "stakefolio_portfolio_validators",
			Help: "Number of validators in the portfolio",
		}),
		bucketValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakefolio_state_bucket_value_gwei",
			Help: "Value held by validators in a lifecycle state, in gwei",
		}, []string{"state"}),
		custodianValue: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakefolio_custodian_value_gwei",
			Help: "Value held through a custodian, in gwei",
		}, []string{"custodian"}),
		custodianAPY: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakefolio_custodian_trailing_apy_ratio",
			Help: "Trailing APY of a custodian",
		}, []string{"custodian"}),
		exceptions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakefolio_exceptions",
			Help: "Number of exceptions detected by the last run",
		}, []string{"type", "severity"}),
		reports: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakefolio_reconciliation_reports",
			Help: "Number of reconciliation reports per status",
		}, []string{"status"}),
		variance: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakefolio_reconciliation_variance_ratio",
			Help: "Variance between internal and custodian totals, relative to the internal total",
		}, []string{"source"}),
	}
}

// Gatherer returns the registry holding the gauges.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// ObserveSummary sets the portfolio gauges.
func (r *Recorder) ObserveSummary(s stakefolio.PortfolioSummary) {
	r.totalValue.Set(s.TotalValue.Decimal().InexactFloat64())
	r.blendedAPY.Set(float64(s.BlendedAPY))
	r.validators.Set(float64(s.ValidatorCount))
	for state, v := range s.Buckets.All() {
		r.bucketValue.WithLabelValues(string(state)).Set(v.Decimal().InexactFloat64())
	}
	r.custodianValue.Reset()
	r.custodianAPY.Reset()
	for _, a := range s.Allocations {
		r.custodianValue.WithLabelValues(a.ID).Set(a.Value.Decimal().InexactFloat64())
		r.custodianAPY.WithLabelValues(a.ID).Set(float64(a.TrailingAPY))
	}
}

// ObserveExceptions counts exceptions by type and severity.
func (r *Recorder) ObserveExceptions(exceptions []stakefolio.Exception) {
	r.exceptions.Reset()
	for _, e := range exceptions {
		r.exceptions.WithLabelValues(string(e.Type), string(e.Severity)).Inc()
	}
}

// ObserveReports counts reports by status and sets the variance of each source.
func (r *Recorder) ObserveReports(reports []stakefolio.ReconciliationReport) {
	r.reports.Reset()
	r.variance.Reset()
	for _, s := range []stakefolio.ReconciliationStatus{stakefolio.Reconciled, stakefolio.VarianceDetected, stakefolio.RequiresInvestigation} {
		r.reports.WithLabelValues(string(s))
	}
	for _, rep := range reports {
		r.reports.WithLabelValues(string(rep.Status)).Inc()
		r.variance.WithLabelValues(rep.Source).Set(rep.VariancePercentage)
	}
}

// WriteTextfile writes the gauges in the text exposition format, for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
