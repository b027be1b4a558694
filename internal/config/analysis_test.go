package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/spice-forecast/internal/classification"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/Veraticus/spice-forecast/internal/pattern"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAnalysisConfig_Defaults(t *testing.T) {
	cfg, err := LoadAnalysisConfigFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, classification.DefaultMaxAmountCV, cfg.Classification.MaxAmountCV)
	assert.Len(t, cfg.Classification.Patterns, len(classification.DefaultRecurringPatterns()))
	assert.Equal(t, pattern.DefaultHolidays(), cfg.Holidays)
	assert.Equal(t, forecast.DefaultCacheTTL, cfg.Forecast.CacheTTL)
	assert.Equal(t, forecast.DefaultCacheCapacity, cfg.Forecast.CacheCapacity)
	assert.Equal(t, forecast.DefaultHorizonDays, cfg.DefaultHorizon)
	assert.Equal(t, ExpandPath(DefaultDatabasePath), cfg.DatabasePath)
}

func TestLoadAnalysisConfig_FromYAML(t *testing.T) {
	yaml := `
database:
  path: /tmp/spice-test.db
analysis:
  max_amount_cv: 0.2
  single_occurrence_confidence: 0.4
  min_transactions: 10
  paydays: [5, 20]
  acceptance_rules:
    - name: strict
      min_confidence: 0.8
  patterns:
    - name: Gym
      category: Fitness
      regex: "(?i)gym"
      priority: 50
  fixed_mccs:
    "4900": Utilities
  holidays:
    - name: Tax Day
      month: 4
      start_day: 13
      end_day: 15
      default_multiplier: 1.1
forecast:
  cache_ttl: 90s
  cache_capacity: 3
  default_horizon: 14
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadAnalysisConfigFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/spice-test.db", cfg.DatabasePath)
	assert.InDelta(t, 0.2, cfg.Classification.MaxAmountCV, 1e-9)
	assert.InDelta(t, 0.4, cfg.Classification.SingleOccurrenceConfidence, 1e-9)
	assert.Equal(t, []classification.AcceptanceRule{{Name: "strict", MinConfidence: 0.8}}, cfg.Classification.AcceptanceRules)
	assert.Equal(t, map[string]string{"4900": "Utilities"}, cfg.Classification.FixedMCCs)

	patterns := cfg.Classification.Patterns
	require.Len(t, patterns, len(classification.DefaultRecurringPatterns())+1)
	assert.Equal(t, "Gym", patterns[len(patterns)-1].Name)

	assert.Equal(t, 10, cfg.Profile.MinTransactions)
	assert.Equal(t, []int{5, 20}, cfg.Profile.Paydays)

	require.Len(t, cfg.Holidays, 1)
	assert.Equal(t, time.April, cfg.Holidays[0].Month)
	assert.InDelta(t, 1.1, cfg.Holidays[0].DefaultMultiplier, 1e-9)

	assert.Equal(t, 90*time.Second, cfg.Forecast.CacheTTL)
	assert.Equal(t, 3, cfg.Forecast.CacheCapacity)
	assert.Equal(t, 14, cfg.DefaultHorizon)
}

func TestLoadAnalysisConfig_Invalid(t *testing.T) {
	tests := []struct {
		value any
		name  string
		key   string
	}{
		{name: "negative amount CV", key: KeyMaxAmountCV, value: -1.0},
		{name: "confidence above one", key: KeySingleOccurrenceConfidence, value: 1.5},
		{name: "payday out of range", key: KeyPaydays, value: []int{32}},
		{name: "zero spike multiplier", key: KeySpikeMultiplier, value: 0.0},
		{name: "negative cache capacity", key: KeyCacheCapacity, value: -1},
		{name: "horizon above maximum", key: KeyDefaultHorizon, value: 400},
		{name: "zero horizon", key: KeyDefaultHorizon, value: 0},
		{name: "empty acceptance rules", key: KeyAcceptanceRules, value: []map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := LoadAnalysisConfigFrom(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadAnalysisConfig_OverlappingHolidays(t *testing.T) {
	v := viper.New()
	v.Set(KeyHolidays, []map[string]any{
		{"name": "A", "month": 12, "start_day": 1, "end_day": 10, "default_multiplier": 1.5},
		{"name": "B", "month": 12, "start_day": 10, "end_day": 20, "default_multiplier": 1.5},
	})

	_, err := LoadAnalysisConfigFrom(v)
	assert.ErrorIs(t, err, common.ErrOverlappingHolidays)
}

func TestLoadAnalysisConfig_GlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set(KeyCacheCapacity, 0)

	cfg, err := LoadAnalysisConfig()
	require.NoError(t, err)
	assert.Zero(t, cfg.Forecast.CacheCapacity)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SPICE_TEST_DIR", "/data")

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "~", want: home},
		{input: "~/spice.db", want: filepath.Join(home, "spice.db")},
		{input: "$SPICE_TEST_DIR/spice.db", want: "/data/spice.db"},
		{input: "/abs/spice.db", want: "/abs/spice.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, ExpandPath(DefaultDatabasePath), DatabasePath("  "))
	assert.Equal(t, "/tmp/x.db", DatabasePath("/tmp/x.db"))
}
