package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXCHANGE_API_KEY", "")
	t.Setenv("CHECK_INTERVAL_SECONDS", "")
	t.Setenv("MIN_CONFIDENCE", "")

	cfg := Load()

	if cfg.CheckIntervalSeconds != 900 {
		t.Errorf("CheckIntervalSeconds = %d, want 900", cfg.CheckIntervalSeconds)
	}
	if cfg.MinConfidence != 0.70 {
		t.Errorf("MinConfidence = %v, want 0.70", cfg.MinConfidence)
	}
	if cfg.DefaultSLPct != 0.03 || cfg.DefaultTPPct != 0.05 {
		t.Errorf("unexpected SL/TP defaults: %v/%v", cfg.DefaultSLPct, cfg.DefaultTPPct)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHECK_INTERVAL_SECONDS", "60")
	t.Setenv("MIN_CONFIDENCE", "0.5")
	t.Setenv("DB_TYPE", "POSTGRES")

	cfg := Load()

	if cfg.CheckIntervalSeconds != 60 {
		t.Errorf("CheckIntervalSeconds = %d, want 60", cfg.CheckIntervalSeconds)
	}
	if cfg.MinConfidence != 0.5 {
		t.Errorf("MinConfidence = %v, want 0.5", cfg.MinConfidence)
	}
	if cfg.DBType != "postgres" {
		t.Errorf("DBType = %q, want lowercased postgres", cfg.DBType)
	}
}
