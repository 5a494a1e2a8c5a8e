package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RiskDefaults holds the baseline per-trade risk parameters a bot falls
// back to before the signal pipeline's dynamic adjustment (§4.4) perturbs
// them for a single action. Unlike Config (environment-sourced), these are
// tuning knobs an operator is expected to hand-edit, so they live in a YAML
// file rather than env vars.
type RiskDefaults struct {
	StopLossPct      float64       `yaml:"stop_loss_pct"`
	TakeProfitPct    float64       `yaml:"take_profit_pct"`
	MinConfidence    float64       `yaml:"min_confidence"`
	MaxHold          time.Duration `yaml:"max_hold"`
	CooldownAfterNSF time.Duration `yaml:"cooldown_after_insufficient_funds"`
	ATRStopLossMult  float64       `yaml:"atr_stop_loss_multiplier"`
	ATRTakeProfitMult float64      `yaml:"atr_take_profit_multiplier"`
}

// DefaultRiskDefaults returns the baseline risk parameters: SL 3%, TP 5%,
// confidence gate 0.70, max hold 24h.
func DefaultRiskDefaults() RiskDefaults {
	return RiskDefaults{
		StopLossPct:       0.03,
		TakeProfitPct:     0.05,
		MinConfidence:     0.70,
		MaxHold:           24 * time.Hour,
		CooldownAfterNSF:  300 * time.Second,
		ATRStopLossMult:   2.0,
		ATRTakeProfitMult: 4.0,
	}
}

// LoadRiskDefaults reads a YAML risk-defaults file if present, falling back
// to DefaultRiskDefaults when the path is empty or the file does not exist.
func LoadRiskDefaults(path string) (RiskDefaults, error) {
	out := DefaultRiskDefaults()
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, fmt.Errorf("read risk defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("parse risk defaults: %w", err)
	}
	return out, nil
}
