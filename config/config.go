// Package config reads the stakectl configuration file.
//
//	log:
//	  level: info
//	  format: console
//	taxonomy: canonical
//	detection:
//	  portfolio_value_change_threshold: 0.05
//	  validator_count_change_threshold: 0.1
//	  in_transit_stuck_days: 7
//	  rewards_anomaly_threshold: 0.5
//	  performance_divergence_threshold: 0.2
//	reconciliation:
//	  reconciled_max: 0.001
//	  variance_detected_max: 0.01
//	custodians:
//	  coinbase: Coinbase Prime
//	statements:
//	  coinbase:
//	    total_path: $.account.staked
//	    unit: eth
//
// Thresholds and bands have no default: a missing one is an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/etnz/stakefolio"
	"github.com/etnz/stakefolio/logging"
	"github.com/etnz/stakefolio/statement"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	EnvLogLevel  = "STAKEFOLIO_LOG_LEVEL"
	EnvLogFormat = "STAKEFOLIO_LOG_FORMAT"
)

type Config struct {
	Log      logging.Config `yaml:"log"`
	Taxonomy string         `yaml:"taxonomy" default:"canonical" validate:"oneof=canonical legacy"`

	Detection struct {
		PortfolioValueChangeThreshold  *float64 `yaml:"portfolio_value_change_threshold" validate:"required,gte=0"`
		ValidatorCountChangeThreshold  *float64 `yaml:"validator_count_change_threshold" validate:"required,gte=0"`
		InTransitStuckDays             *int     `yaml:"in_transit_stuck_days" validate:"required,gt=0"`
		RewardsAnomalyThreshold        *float64 `yaml:"rewards_anomaly_threshold" validate:"required,gte=0"`
		PerformanceDivergenceThreshold *float64 `yaml:"performance_divergence_threshold" validate:"required,gte=0"`
	} `yaml:"detection"`

	Reconciliation struct {
		ReconciledMax       *float64 `yaml:"reconciled_max" validate:"required,gte=0"`
		VarianceDetectedMax *float64 `yaml:"variance_detected_max" validate:"required,gte=0"`
	} `yaml:"reconciliation"`

	// Custodians maps custodian IDs to display names.
	Custodians map[string]string `yaml:"custodians,omitempty"`
	// Statements maps custodian IDs to the format of their JSON export.
	Statements map[string]statement.Format `yaml:"statements,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// report fields by their yaml name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Parse parses a YAML configuration, sets defaults and validates it.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.setDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides the logging with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) setDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	for id, f := range c.Statements {
		if err := defaults.Set(&f); err != nil {
			return fmt.Errorf("config defaults for statement %q: %w", id, err)
		}
		if f.Source == "" && f.SourcePath == "" {
			f.Source = id
		}
		c.Statements[id] = f
	}
	return nil
}

// Validate checks that every threshold is set and in range.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, errorMessage(fe))
		}
		return fmt.Errorf("%w: %s", stakefolio.ErrInvalidConfig, strings.Join(msgs, "; "))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", stakefolio.ErrInvalidConfig, err)
	}
	return c.Bands().Validate()
}

// errorMessage describes a field error with its yaml path, e.g.
// "detection.in_transit_stuck_days is required".
func errorMessage(fe validator.FieldError) string {
	_, field, _ := strings.Cut(fe.Namespace(), ".") // drop the root type name
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// DetectionConfig returns the thresholds of the exception checks. It must
// only be called on a validated configuration.
func (c *Config) DetectionConfig() stakefolio.DetectionConfig {
	d := c.Detection
	return stakefolio.DetectionConfig{
		PortfolioValueChangeThreshold:  *d.PortfolioValueChangeThreshold,
		ValidatorCountChangeThreshold:  *d.ValidatorCountChangeThreshold,
		InTransitStuckDays:             *d.InTransitStuckDays,
		RewardsAnomalyThreshold:        *d.RewardsAnomalyThreshold,
		PerformanceDivergenceThreshold: *d.PerformanceDivergenceThreshold,
	}
}

// Bands returns the reconciliation status bands, zero when unset.
func (c *Config) Bands() stakefolio.ReconciliationBands {
	var b stakefolio.ReconciliationBands
	if c.Reconciliation.ReconciledMax != nil {
		b.ReconciledMax = *c.Reconciliation.ReconciledMax
	}
	if c.Reconciliation.VarianceDetectedMax != nil {
		b.VarianceDetectedMax = *c.Reconciliation.VarianceDetectedMax
	}
	return b
}

// StateTaxonomy returns the taxonomy of the validators' states.
func (c *Config) StateTaxonomy() stakefolio.Taxonomy {
	t, _ := stakefolio.ParseTaxonomy(c.Taxonomy)
	return t
}

// Encode writes the configuration as YAML.
func (c *Config) Encode() ([]byte, error) {
	return yaml.Marshal(c)
}
