package config

import (
	"fmt"

	"github.com/Veraticus/spice-forecast/internal/classification"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/pattern"
	"github.com/Veraticus/spice-forecast/internal/profile"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyDatabasePath = "database.path"

	KeyMaxAmountCV                = "analysis.max_amount_cv"
	KeyMaxDaySpread               = "analysis.max_day_spread"
	KeySingleOccurrenceConfidence = "analysis.single_occurrence_confidence"
	KeyAcceptanceRules            = "analysis.acceptance_rules"
	KeyExtraPatterns              = "analysis.patterns"
	KeyFixedMCCs                  = "analysis.fixed_mccs"

	KeyMinTransactions = "analysis.min_transactions"
	KeySpikeMultiplier = "analysis.spike_multiplier"
	KeySpikeWindow     = "analysis.spike_window"
	KeyShareThreshold  = "analysis.share_threshold"
	KeySteadyTolerance = "analysis.steady_tolerance"
	KeyPaydays         = "analysis.paydays"
	KeyHolidays        = "analysis.holidays"

	KeyCacheTTL       = "forecast.cache_ttl"
	KeyCacheCapacity  = "forecast.cache_capacity"
	KeyMaxHorizonDays = "forecast.max_horizon_days"
	KeyDefaultHorizon = "forecast.default_horizon"
)

// AnalysisConfig holds the options for every analysis component.
type AnalysisConfig struct {
	DatabasePath   string
	Holidays       []model.HolidayConfig
	Classification classification.Options
	Forecast       forecast.Options
	Profile        profile.Options
	DefaultHorizon int
}

type ruleConfig struct {
	Name                string  `mapstructure:"name"`
	MinConfidence       float64 `mapstructure:"min_confidence"`
	RequirePatternMatch bool    `mapstructure:"require_pattern_match"`
}

type patternConfig struct {
	Name     string `mapstructure:"name"`
	Category string `mapstructure:"category"`
	Regex    string `mapstructure:"regex"`
	Priority int    `mapstructure:"priority"`
}

// DefaultAnalysisConfig returns the built-in configuration.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		DatabasePath:   DatabasePath(""),
		Holidays:       pattern.DefaultHolidays(),
		Classification: classification.DefaultOptions(),
		Forecast:       forecast.DefaultOptions(),
		Profile:        profile.DefaultOptions(),
		DefaultHorizon: forecast.DefaultHorizonDays,
	}
}

// LoadAnalysisConfig reads the analysis configuration from the global viper instance.
func LoadAnalysisConfig() (*AnalysisConfig, error) {
	return LoadAnalysisConfigFrom(viper.GetViper())
}

// LoadAnalysisConfigFrom overlays the keys set in v onto the defaults and
// validates the result. Extra patterns are added to the built-in list; the
// other list and map keys replace their defaults.
func LoadAnalysisConfigFrom(v *viper.Viper) (*AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()

	cfg.DatabasePath = DatabasePath(v.GetString(KeyDatabasePath))

	if err := loadClassification(v, &cfg.Classification); err != nil {
		return nil, err
	}
	loadProfile(v, &cfg.Profile)
	if err := loadHolidays(v, cfg); err != nil {
		return nil, err
	}
	loadForecast(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadClassification(v *viper.Viper, opts *classification.Options) error {
	if v.IsSet(KeyMaxAmountCV) {
		opts.MaxAmountCV = v.GetFloat64(KeyMaxAmountCV)
	}
	if v.IsSet(KeyMaxDaySpread) {
		opts.MaxDaySpread = v.GetFloat64(KeyMaxDaySpread)
	}
	if v.IsSet(KeySingleOccurrenceConfidence) {
		opts.SingleOccurrenceConfidence = v.GetFloat64(KeySingleOccurrenceConfidence)
	}

	if v.IsSet(KeyAcceptanceRules) {
		var rules []ruleConfig
		if err := v.UnmarshalKey(KeyAcceptanceRules, &rules); err != nil {
			return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyAcceptanceRules, err)
		}
		opts.AcceptanceRules = make([]classification.AcceptanceRule, 0, len(rules))
		for _, r := range rules {
			opts.AcceptanceRules = append(opts.AcceptanceRules, classification.AcceptanceRule{
				Name:                r.Name,
				MinConfidence:       r.MinConfidence,
				RequirePatternMatch: r.RequirePatternMatch,
			})
		}
	}

	if v.IsSet(KeyExtraPatterns) {
		var patterns []patternConfig
		if err := v.UnmarshalKey(KeyExtraPatterns, &patterns); err != nil {
			return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyExtraPatterns, err)
		}
		for _, p := range patterns {
			opts.Patterns = append(opts.Patterns, classification.Pattern{
				Name:     p.Name,
				Category: p.Category,
				Regex:    p.Regex,
				Priority: p.Priority,
			})
		}
	}

	if v.IsSet(KeyFixedMCCs) {
		opts.FixedMCCs = v.GetStringMapString(KeyFixedMCCs)
	}
	return nil
}

func loadProfile(v *viper.Viper, opts *profile.Options) {
	if v.IsSet(KeyMinTransactions) {
		opts.MinTransactions = v.GetInt(KeyMinTransactions)
	}
	if v.IsSet(KeySpikeMultiplier) {
		opts.SpikeMultiplier = v.GetFloat64(KeySpikeMultiplier)
	}
	if v.IsSet(KeySpikeWindow) {
		opts.SpikeWindow = v.GetInt(KeySpikeWindow)
	}
	if v.IsSet(KeyShareThreshold) {
		opts.ShareThreshold = v.GetFloat64(KeyShareThreshold)
	}
	if v.IsSet(KeySteadyTolerance) {
		opts.SteadyTolerance = v.GetFloat64(KeySteadyTolerance)
	}
	if v.IsSet(KeyPaydays) {
		opts.Paydays = v.GetIntSlice(KeyPaydays)
	}
}

func loadHolidays(v *viper.Viper, cfg *AnalysisConfig) error {
	if !v.IsSet(KeyHolidays) {
		return nil
	}

	var holidays []model.HolidayConfig
	if err := v.UnmarshalKey(KeyHolidays, &holidays); err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrInvalidConfig, KeyHolidays, err)
	}
	cfg.Holidays = holidays
	return nil
}

func loadForecast(v *viper.Viper, cfg *AnalysisConfig) {
	if v.IsSet(KeyCacheTTL) {
		cfg.Forecast.CacheTTL = v.GetDuration(KeyCacheTTL)
	}
	if v.IsSet(KeyCacheCapacity) {
		cfg.Forecast.CacheCapacity = v.GetInt(KeyCacheCapacity)
	}
	if v.IsSet(KeyMaxHorizonDays) {
		cfg.Forecast.MaxHorizonDays = v.GetInt(KeyMaxHorizonDays)
	}
	if v.IsSet(KeyDefaultHorizon) {
		cfg.DefaultHorizon = v.GetInt(KeyDefaultHorizon)
	}
}

// Validate checks every component's options.
func (c *AnalysisConfig) Validate() error {
	if err := c.Classification.Validate(); err != nil {
		return fmt.Errorf("classification: %w", err)
	}
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if err := pattern.ValidateHolidays(c.Holidays); err != nil {
		return fmt.Errorf("holidays: %w", err)
	}
	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	if c.DefaultHorizon < 1 || c.DefaultHorizon > c.Forecast.MaxHorizonDays {
		return fmt.Errorf("%w: default horizon %d outside 1-%d", common.ErrInvalidConfig, c.DefaultHorizon, c.Forecast.MaxHorizonDays)
	}
	return nil
}
