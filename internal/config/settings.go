package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/koperasi/internal/analytics"
	"github.com/Veraticus/koperasi/internal/common"
	"github.com/Veraticus/koperasi/internal/pattern"
	"github.com/Veraticus/koperasi/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyDatabasePath      = "database.path"
	KeyLedgerBackend     = "ledger.backend"
	KeyLedgerBoltPath    = "ledger.bolt_path"
	KeyKeywordBoost      = "classifier.keyword_boost"
	KeyEdgeThreshold     = "classifier.edge_threshold"
	KeyEdgePenalty       = "classifier.edge_penalty"
	KeyOverrunErrorRatio = "validation.overrun_error_ratio"
	KeyMinAccuracyRate   = "analytics.min_accuracy_rate"
	KeyMaxOverrideRate   = "analytics.max_override_rate"
	KeyImportConfidence  = "import.min_confidence"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
)

// Ledger backends.
const (
	LedgerBackendSQLite = "sqlite"
	LedgerBackendBolt   = "bolt"
)

// SetDefaults registers the built-in value of every key on v.
func SetDefaults(v *viper.Viper) {
	def := pattern.DefaultScoring()
	thresholds := analytics.DefaultThresholds()

	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyLedgerBackend, LedgerBackendSQLite)
	v.SetDefault(KeyLedgerBoltPath, DefaultBoltPath)
	v.SetDefault(KeyKeywordBoost, def.KeywordBoost)
	v.SetDefault(KeyEdgeThreshold, def.EdgeThreshold)
	v.SetDefault(KeyEdgePenalty, def.EdgePenalty)
	v.SetDefault(KeyOverrunErrorRatio, validation.DefaultOverrunErrorRatio.String())
	v.SetDefault(KeyMinAccuracyRate, thresholds.MinAccuracyRate)
	v.SetDefault(KeyMaxOverrideRate, thresholds.MaxOverrideRate)
	v.SetDefault(KeyImportConfidence, 0.0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Scoring reads the classifier tunables. Out-of-range values fall back to
// the defaults.
func Scoring(v *viper.Viper) pattern.Scoring {
	return pattern.Scoring{
		KeywordBoost:  v.GetFloat64(KeyKeywordBoost),
		EdgeThreshold: v.GetFloat64(KeyEdgeThreshold),
		EdgePenalty:   v.GetFloat64(KeyEdgePenalty),
	}.Normalize()
}

// ValidationOptions reads the validator tunables.
func ValidationOptions(v *viper.Viper) (validation.Options, error) {
	raw := strings.TrimSpace(v.GetString(KeyOverrunErrorRatio))
	if raw == "" {
		return validation.Options{}, nil
	}
	ratio, err := decimal.NewFromString(raw)
	if err != nil {
		return validation.Options{}, fmt.Errorf("%w: %s=%q: %w", common.ErrInvalidConfig, KeyOverrunErrorRatio, raw, err)
	}
	if ratio.LessThan(decimal.NewFromInt(1)) {
		return validation.Options{}, fmt.Errorf("%w: %s must be at least 1, got %s", common.ErrInvalidConfig, KeyOverrunErrorRatio, ratio)
	}
	return validation.Options{OverrunErrorRatio: ratio}, nil
}

// Thresholds reads the dashboard alert thresholds.
func Thresholds(v *viper.Viper) analytics.Thresholds {
	return analytics.Thresholds{
		MinAccuracyRate: v.GetFloat64(KeyMinAccuracyRate),
		MaxOverrideRate: v.GetFloat64(KeyMaxOverrideRate),
	}
}

// LedgerBackend returns the configured ledger backend.
func LedgerBackend(v *viper.Viper) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(v.GetString(KeyLedgerBackend)))
	switch backend {
	case "", LedgerBackendSQLite:
		return LedgerBackendSQLite, nil
	case LedgerBackendBolt:
		return LedgerBackendBolt, nil
	}
	return "", fmt.Errorf("%w: %s=%q (want %s or %s)", common.ErrInvalidConfig, KeyLedgerBackend, backend, LedgerBackendSQLite, LedgerBackendBolt)
}
