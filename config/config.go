// Package config loads and merges DiffConfig, the tunable surface spec
// §6.5 describes. Loading follows the teacher's
// ParseGeneratorConfig/MergeGeneratorConfig shape in
// database/database.go: decode strictly from YAML into a plain struct,
// then let a later config override a base one field by field (non-zero
// fields of the later config win).
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type HardeningMode string

const (
	OnLimitReturnError         HardeningMode = "ReturnError"
	OnLimitReturnPartialResult HardeningMode = "ReturnPartialResult"
	OnLimitSilentFallback      HardeningMode = "SilentFallback"
)

type AlignmentConfig struct {
	MaxAlignRows int `yaml:"max_align_rows"`
	MaxAlignCols int `yaml:"max_align_cols"`
}

type MovesConfig struct {
	MaxMoveDetectionRows int  `yaml:"max_move_detection_rows"`
	MaxMoveDetectionCols int  `yaml:"max_move_detection_cols"`
	MaxMoveIterations    int  `yaml:"max_move_iterations"`
	EnableFuzzyMoves     bool `yaml:"enable_fuzzy_moves"`
}

type PreflightConfig struct {
	PreflightMinRows          int     `yaml:"preflight_min_rows"`
	InOrderMismatchMax        int     `yaml:"in_order_mismatch_max"`
	InOrderMatchRatioMin      float64 `yaml:"in_order_match_ratio_min"`
	BailoutSimilarityThreshold float64 `yaml:"bailout_similarity_threshold"`
	MaxContextRows            int     `yaml:"max_context_rows"`
}

type HardeningConfig struct {
	OnLimitExceeded HardeningMode `yaml:"on_limit_exceeded"`
	MemoryCapBytes  int64         `yaml:"memory_cap_bytes"`
	TimeoutMs       int64         `yaml:"timeout_ms"`
}

// DiffConfig is the full tunable surface for one diff run (spec §6.5).
type DiffConfig struct {
	Alignment AlignmentConfig `yaml:"alignment"`
	Moves     MovesConfig     `yaml:"moves"`
	Preflight PreflightConfig `yaml:"preflight"`
	Hardening HardeningConfig `yaml:"hardening"`

	DenseRowReplaceRatio    float64 `yaml:"dense_row_replace_ratio"`
	DenseRowReplaceMinCols  int     `yaml:"dense_row_replace_min_cols"`
	DenseRectReplaceMinRows int     `yaml:"dense_rect_replace_min_rows"`
	IncludeUnchangedCells   bool    `yaml:"include_unchanged_cells"`
}

// Default returns the conservative built-in tunables used when no config
// file is supplied.
func Default() DiffConfig {
	return DiffConfig{
		Alignment: AlignmentConfig{MaxAlignRows: 20000, MaxAlignCols: 2000},
		Moves: MovesConfig{
			MaxMoveDetectionRows: 20000,
			MaxMoveDetectionCols: 2000,
			MaxMoveIterations:    8,
			EnableFuzzyMoves:     false,
		},
		Preflight: PreflightConfig{
			PreflightMinRows:           64,
			InOrderMismatchMax:         32,
			InOrderMatchRatioMin:       0.6,
			BailoutSimilarityThreshold: 0.05,
			MaxContextRows:             4096,
		},
		Hardening: HardeningConfig{
			OnLimitExceeded: OnLimitReturnPartialResult,
			MemoryCapBytes:  1 << 30,
			TimeoutMs:       30000,
		},
		DenseRowReplaceRatio:    0.7,
		DenseRowReplaceMinCols:  4,
		DenseRectReplaceMinRows: 3,
		IncludeUnchangedCells:   false,
	}
}

// ParseString decodes a DiffConfig from yamlString, starting from Default()
// so unset fields keep their defaults rather than zero values.
func ParseString(yamlString string) (DiffConfig, error) {
	cfg := Default()
	if yamlString == "" {
		return cfg, nil
	}
	if err := yaml.UnmarshalStrict([]byte(yamlString), &cfg); err != nil {
		return DiffConfig{}, err
	}
	return cfg, nil
}

// ParseFile reads configFile and decodes it the same way ParseString does.
// An empty path returns Default().
func ParseFile(configFile string) (DiffConfig, error) {
	if configFile == "" {
		return Default(), nil
	}
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return DiffConfig{}, err
	}
	return ParseString(string(buf))
}

// Merge layers override on top of base: any field in override that
// differs from the zero value replaces the corresponding field in base.
// Booleans are the one field class this can't distinguish "unset" from
// "explicitly false" for; DiffConfig has exactly two (EnableFuzzyMoves,
// IncludeUnchangedCells), and both default to false, so "override didn't
// set it" and "override set it to false" are indistinguishable and
// intentionally collapse to the same outcome.
func Merge(base, override DiffConfig) DiffConfig {
	result := base

	if override.Alignment.MaxAlignRows != 0 {
		result.Alignment.MaxAlignRows = override.Alignment.MaxAlignRows
	}
	if override.Alignment.MaxAlignCols != 0 {
		result.Alignment.MaxAlignCols = override.Alignment.MaxAlignCols
	}

	if override.Moves.MaxMoveDetectionRows != 0 {
		result.Moves.MaxMoveDetectionRows = override.Moves.MaxMoveDetectionRows
	}
	if override.Moves.MaxMoveDetectionCols != 0 {
		result.Moves.MaxMoveDetectionCols = override.Moves.MaxMoveDetectionCols
	}
	if override.Moves.MaxMoveIterations != 0 {
		result.Moves.MaxMoveIterations = override.Moves.MaxMoveIterations
	}
	if override.Moves.EnableFuzzyMoves {
		result.Moves.EnableFuzzyMoves = true
	}

	if override.Preflight.PreflightMinRows != 0 {
		result.Preflight.PreflightMinRows = override.Preflight.PreflightMinRows
	}
	if override.Preflight.InOrderMismatchMax != 0 {
		result.Preflight.InOrderMismatchMax = override.Preflight.InOrderMismatchMax
	}
	if override.Preflight.InOrderMatchRatioMin != 0 {
		result.Preflight.InOrderMatchRatioMin = override.Preflight.InOrderMatchRatioMin
	}
	if override.Preflight.BailoutSimilarityThreshold != 0 {
		result.Preflight.BailoutSimilarityThreshold = override.Preflight.BailoutSimilarityThreshold
	}
	if override.Preflight.MaxContextRows != 0 {
		result.Preflight.MaxContextRows = override.Preflight.MaxContextRows
	}

	if override.Hardening.OnLimitExceeded != "" {
		result.Hardening.OnLimitExceeded = override.Hardening.OnLimitExceeded
	}
	if override.Hardening.MemoryCapBytes != 0 {
		result.Hardening.MemoryCapBytes = override.Hardening.MemoryCapBytes
	}
	if override.Hardening.TimeoutMs != 0 {
		result.Hardening.TimeoutMs = override.Hardening.TimeoutMs
	}

	if override.DenseRowReplaceRatio != 0 {
		result.DenseRowReplaceRatio = override.DenseRowReplaceRatio
	}
	if override.DenseRowReplaceMinCols != 0 {
		result.DenseRowReplaceMinCols = override.DenseRowReplaceMinCols
	}
	if override.DenseRectReplaceMinRows != 0 {
		result.DenseRectReplaceMinRows = override.DenseRectReplaceMinRows
	}
	if override.IncludeUnchangedCells {
		result.IncludeUnchangedCells = true
	}

	return result
}
