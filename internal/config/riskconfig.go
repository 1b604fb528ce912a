package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
)

// RiskWeights are the per-factor multipliers applied before summing a risk score.
type RiskWeights struct {
	Security     float64 `yaml:"security"`
	Coverage     float64 `yaml:"coverage"`
	Churn        float64 `yaml:"churn"`
	Complexity   float64 `yaml:"complexity"`
	APIExposure  float64 `yaml:"api_exposure"`
	A11y         float64 `yaml:"a11y"`
	Performance  float64 `yaml:"performance"`
}

// BandThreshold names one configured priority band and its minimum score.
type BandThreshold struct {
	Name     string  `yaml:"name"`
	MinScore float64 `yaml:"min_score"`
}

// RiskConfig controls the risk aggregator's weights, bands, and score cap.
type RiskConfig struct {
	Weights  RiskWeights     `yaml:"weights"`
	Bands    []BandThreshold `yaml:"bands"`
	MaxTotal float64         `yaml:"max_total"`
}

// riskDoc mirrors the on-disk document shape: scoring.weights, scoring.caps.max_total, prioritization.bands.
type riskDoc struct {
	Scoring struct {
		Weights map[string]float64 `yaml:"weights"`
		Caps    struct {
			MaxTotal *float64 `yaml:"max_total"`
		} `yaml:"caps"`
	} `yaml:"scoring"`
	Prioritization struct {
		Bands []BandThreshold `yaml:"bands"`
	} `yaml:"prioritization"`
}

// DefaultRiskConfig returns the weights, bands, and cap spec.md §3 specifies as defaults.
func DefaultRiskConfig() *RiskConfig {
	return &RiskConfig{
		Weights: RiskWeights{
			Security:    3.0,
			Coverage:    2.0,
			Churn:       2.0,
			Complexity:  1.5,
			APIExposure: 1.0,
			A11y:        0.5,
			Performance: 1.0,
		},
		Bands: []BandThreshold{
			{Name: "P0", MinScore: 80},
			{Name: "P1", MinScore: 65},
			{Name: "P2", MinScore: 50},
			{Name: "P3", MinScore: 0},
		},
		MaxTotal: 100,
	}
}

// WeightOf looks up a named factor weight, returning 0 for unknown names.
func (w RiskWeights) WeightOf(factor string) float64 {
	switch factor {
	case "security":
		return w.Security
	case "coverage":
		return w.Coverage
	case "churn":
		return w.Churn
	case "complexity":
		return w.Complexity
	case "api_exposure":
		return w.APIExposure
	case "a11y":
		return w.A11y
	case "performance":
		return w.Performance
	}
	return 0
}

// LoadRiskConfig reads a risk-config YAML document, falling back to
// defaults for a missing file, unrecognized weight names, or an absent
// bands list, per spec.md §4.9.
func LoadRiskConfig(path string) (*RiskConfig, error) {
	defaults := DefaultRiskConfig()
	if path == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, qaerr.Wrap(qaerr.KindIO, "read risk config", err)
	}

	var doc riskDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, qaerr.Wrap(qaerr.KindValidation, "parse risk config", err)
	}

	cfg := DefaultRiskConfig()
	for name, v := range doc.Scoring.Weights {
		switch name {
		case "security":
			cfg.Weights.Security = v
		case "coverage":
			cfg.Weights.Coverage = v
		case "churn":
			cfg.Weights.Churn = v
		case "complexity":
			cfg.Weights.Complexity = v
		case "api_exposure":
			cfg.Weights.APIExposure = v
		case "a11y":
			cfg.Weights.A11y = v
		case "performance":
			cfg.Weights.Performance = v
		default:
			// unknown weight names are silently dropped, per spec.md §4.9
		}
	}
	if doc.Scoring.Caps.MaxTotal != nil {
		cfg.MaxTotal = *doc.Scoring.Caps.MaxTotal
	}
	if len(doc.Prioritization.Bands) > 0 {
		cfg.Bands = doc.Prioritization.Bands
	}
	return cfg, nil
}
