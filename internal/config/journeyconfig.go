package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
)

// Journey is one named business-level flow mapped to component globs.
type Journey struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Components []string `yaml:"components"`
	APIs       []string `yaml:"apis"`
	Acceptance []string `yaml:"acceptance"`
}

// JourneyConfig is the parsed journey-definition document.
type JourneyConfig struct {
	Product         string             `yaml:"product"`
	Journeys        []Journey          `yaml:"journeys"`
	CoverageTargets map[string]float64 `yaml:"coverage_targets"`
}

// journeyDoc mirrors the on-disk document; coverage_targets values may
// arrive as ints or floats and are coerced to float64.
type journeyDoc struct {
	Product         string                 `yaml:"product"`
	Journeys        []Journey              `yaml:"journeys"`
	CoverageTargets map[string]interface{} `yaml:"coverage_targets"`
}

// LoadJourneyConfig reads a journey-definition YAML document, returning an
// empty config (no journeys) when the file is absent, per spec.md §4.9.
func LoadJourneyConfig(path string) (*JourneyConfig, error) {
	empty := &JourneyConfig{CoverageTargets: map[string]float64{}}
	if path == "" {
		return empty, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return nil, qaerr.Wrap(qaerr.KindIO, "read journey config", err)
	}

	var doc journeyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, qaerr.Wrap(qaerr.KindValidation, "parse journey config", err)
	}

	targets := map[string]float64{}
	for k, v := range doc.CoverageTargets {
		switch n := v.(type) {
		case float64:
			targets[k] = n
		case int:
			targets[k] = float64(n)
		}
	}
	return &JourneyConfig{
		Product:         doc.Product,
		Journeys:        doc.Journeys,
		CoverageTargets: targets,
	}, nil
}
