package sweep

import (
	"fmt"
	"os"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
	"orderBlocks/internal/structure"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive integer range of candle ranges to try.
type Range struct {
	Min  int `yaml:"min"`
	Max  int `yaml:"max"`
	Step int `yaml:"step"`
}

// Values expands the range. A non-positive step is treated as 1.
func (r Range) Values() []int {
	step := r.Step
	if step <= 0 {
		step = 1
	}
	var values []int
	for v := r.Min; v <= r.Max; v += step {
		values = append(values, v)
	}
	return values
}

// Plan lists the parameter sets to sweep. Each value of CandleRange is
// combined with the Base toggles; Sets are appended as given.
type Plan struct {
	Base        domain.AnalysisParams   `yaml:"base"`
	CandleRange *Range                  `yaml:"candle_range"`
	Sets        []domain.AnalysisParams `yaml:"sets"`
}

// LoadPlan reads a Plan from a YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a YAML plan.
func ParsePlan(data []byte) (*Plan, error) {
	plan := &Plan{
		Base: structure.DefaultConfig().Params(),
	}
	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, fmt.Errorf("parse sweep plan: %w: %w", ports.ErrConfigurationError, err)
	}
	return plan, nil
}

// Configs expands the plan into validated detector configs.
func (p *Plan) Configs() ([]structure.Config, error) {
	var params []domain.AnalysisParams
	if p.CandleRange != nil {
		for _, v := range p.CandleRange.Values() {
			set := p.Base
			set.CandleRange = v
			params = append(params, set)
		}
	}
	params = append(params, p.Sets...)
	if len(params) == 0 {
		return nil, fmt.Errorf("sweep plan has no parameter sets: %w", ports.ErrConfigurationError)
	}

	configs := make([]structure.Config, 0, len(params))
	for i, set := range params {
		cfg := structure.ConfigFromParams(set)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("parameter set %d: %w", i, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}
