// FILE: config.go
// Runtime configuration model: the mcpt-config (security/date-range
// metadata) and the search-config (every knob enumerated in spec §3's
// "Search configuration"), plus the Ops struct wiring ops knobs (port,
// seed, horizon) read from the environment.
//
// Grounded on the teacher's config.go (Config struct + loadConfigFromEnv
// shape) for the ops knobs, and
// original_source/libs/timeserieslib/McptConfigurationFileReader.cpp for
// the exact mcpt-config field names (Symbol, IRPath, FileFormat,
// ISDateStart, ISDateEnd, OOSDateStart, OOSDateEnd, TimeFrame).
package config

import (
	"fmt"
	"time"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/decimal"
)

// ConfigError is returned when a positional CLI argument or a config file
// field fails validation (spec §6, "ConfigError at construction").
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return "ConfigError: " + e.Msg }

// Ops holds the runtime knobs read from the environment (ambient stack).
type Ops struct {
	Port    int
	Seed    int64
	Horizon int
}

// LoadOpsFromEnv mirrors the teacher's loadConfigFromEnv: env-first with
// sane defaults.
func LoadOpsFromEnv() Ops {
	return Ops{
		Port:    getEnvInt("PALSEARCH_PORT", 9090),
		Seed:    int64(getEnvInt("PALSEARCH_SEED", 0)),
		Horizon: getEnvInt("PALSEARCH_HORIZON", backtest.DefaultHorizon),
	}
}

// McptConfig is the security/date-range metadata file (field names mirror
// McptConfigurationFileReader.cpp).
type McptConfig struct {
	Symbol      string
	IRPath      string
	FileFormat  string
	ISDateStart time.Time
	ISDateEnd   time.Time
	OOSDateStart time.Time
	OOSDateEnd   time.Time
	TimeFrame   string
}

const mcptDateLayout = "20060102"

// LoadMcptConfig parses the mcpt-config key=value file.
func LoadMcptConfig(path string) (McptConfig, error) {
	kv, err := ReadKeyValueFile(path)
	if err != nil {
		return McptConfig{}, fmt.Errorf("mcpt-config: %w", err)
	}
	parseDate := func(key string) (time.Time, error) {
		v, ok := kv[key]
		if !ok || v == "" {
			return time.Time{}, &ConfigError{Msg: fmt.Sprintf("mcpt-config missing %s", key)}
		}
		t, err := time.Parse(mcptDateLayout, v)
		if err != nil {
			return time.Time{}, &ConfigError{Msg: fmt.Sprintf("mcpt-config %s: %v", key, err)}
		}
		return t, nil
	}
	isStart, err := parseDate("ISDateStart")
	if err != nil {
		return McptConfig{}, err
	}
	isEnd, err := parseDate("ISDateEnd")
	if err != nil {
		return McptConfig{}, err
	}
	oosStart, err := parseDate("OOSDateStart")
	if err != nil {
		return McptConfig{}, err
	}
	oosEnd, err := parseDate("OOSDateEnd")
	if err != nil {
		return McptConfig{}, err
	}
	symbol := kv["Symbol"]
	if symbol == "" {
		return McptConfig{}, &ConfigError{Msg: "mcpt-config missing Symbol"}
	}
	return McptConfig{
		Symbol:       symbol,
		IRPath:       kv["IRPath"],
		FileFormat:   kv["FileFormat"],
		ISDateStart:  isStart,
		ISDateEnd:    isEnd,
		OOSDateStart: oosStart,
		OOSDateEnd:   oosEnd,
		TimeFrame:    kv["TimeFrame"],
	}, nil
}

// SearchConfig enumerates every field in spec §3's "Search configuration."
type SearchConfig struct {
	MaxDepth                     int
	MinTrades                    uint32
	MaxInactivitySpan            uint32
	MaxConsecutiveLosers         uint32
	PassingStratNumPerRound      int
	ProfitFactorCriterion        decimal.Decimal
	PalProfitabilitySafetyFactor decimal.Decimal
	ActivityMultiplier           decimal.Decimal
	StepRedundancyMultiplier     decimal.Decimal
	SurvivalFilterMultiplier     decimal.Decimal
	NumPermutations              int
	ProfitTargetPct              decimal.Decimal
	StopLossPct                  decimal.Decimal
	Alpha                        decimal.Decimal
}

func requireInt(kv map[string]string, key string) (int, error) {
	v, ok := kv[key]
	if !ok {
		return 0, &ConfigError{Msg: "search-config missing " + key}
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, &ConfigError{Msg: "search-config " + key + ": " + err.Error()}
	}
	if n <= 0 {
		return 0, &ConfigError{Msg: "search-config " + key + " must be positive"}
	}
	return n, nil
}

func requireDecimal(kv map[string]string, key string) (decimal.Decimal, error) {
	v, ok := kv[key]
	if !ok {
		return decimal.Zero, &ConfigError{Msg: "search-config missing " + key}
	}
	d, err := decimal.FromString(v)
	if err != nil {
		return decimal.Zero, &ConfigError{Msg: "search-config " + key + ": " + err.Error()}
	}
	if !d.IsPositive() {
		return decimal.Zero, &ConfigError{Msg: "search-config " + key + " must be positive"}
	}
	return d, nil
}

// LoadSearchConfig parses the search-config key=value file. Every numeric
// field must be present and positive (spec §6, "violations fail with
// ConfigError at construction").
func LoadSearchConfig(path string) (SearchConfig, error) {
	kv, err := ReadKeyValueFile(path)
	if err != nil {
		return SearchConfig{}, fmt.Errorf("search-config: %w", err)
	}

	var cfg SearchConfig
	var e error
	if cfg.MaxDepth, e = requireInt(kv, "MaxDepth"); e != nil {
		return SearchConfig{}, e
	}
	minTrades, e := requireInt(kv, "MinTrades")
	if e != nil {
		return SearchConfig{}, e
	}
	cfg.MinTrades = uint32(minTrades)
	maxInactivity, e := requireInt(kv, "MaxInactivitySpan")
	if e != nil {
		return SearchConfig{}, e
	}
	cfg.MaxInactivitySpan = uint32(maxInactivity)
	maxLosers, e := requireInt(kv, "MaxConsecutiveLosers")
	if e != nil {
		return SearchConfig{}, e
	}
	cfg.MaxConsecutiveLosers = uint32(maxLosers)
	if cfg.PassingStratNumPerRound, e = requireInt(kv, "PassingStratNumPerRound"); e != nil {
		return SearchConfig{}, e
	}
	if cfg.ProfitFactorCriterion, e = requireDecimal(kv, "ProfitFactorCriterion"); e != nil {
		return SearchConfig{}, e
	}
	if cfg.PalProfitabilitySafetyFactor, e = requireDecimal(kv, "PalProfitabilitySafetyFactor"); e != nil {
		return SearchConfig{}, e
	}
	if cfg.ActivityMultiplier, e = requireDecimal(kv, "ActivityMultiplier"); e != nil {
		return SearchConfig{}, e
	}
	if cfg.StepRedundancyMultiplier, e = requireDecimal(kv, "StepRedundancyMultiplier"); e != nil {
		return SearchConfig{}, e
	}
	if cfg.SurvivalFilterMultiplier, e = requireDecimal(kv, "SurvivalFilterMultiplier"); e != nil {
		return SearchConfig{}, e
	}
	numPerm, e := requireInt(kv, "NumPermutations")
	if e != nil {
		return SearchConfig{}, e
	}
	if numPerm < 100 {
		return SearchConfig{}, &ConfigError{Msg: "search-config NumPermutations must be >= 100"}
	}
	cfg.NumPermutations = numPerm
	if cfg.ProfitTargetPct, e = requireDecimal(kv, "ProfitTargetPct"); e != nil {
		return SearchConfig{}, e
	}
	if cfg.StopLossPct, e = requireDecimal(kv, "StopLossPct"); e != nil {
		return SearchConfig{}, e
	}
	if cfg.Alpha, e = requireDecimal(kv, "Alpha"); e != nil {
		return SearchConfig{}, e
	}
	return cfg, nil
}

// Risk derives the backtest.RiskParams this search config specifies.
func (c SearchConfig) Risk() backtest.RiskParams {
	return backtest.RiskParams{ProfitTargetPct: c.ProfitTargetPct, StopLossPct: c.StopLossPct}
}
