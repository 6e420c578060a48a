package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/config"
)

func TestDefaultIsInternallyConsistent(t *testing.T) {
	d := config.Default()
	require.Greater(t, d.Alignment.MaxAlignRows, 0)
	require.Equal(t, config.OnLimitReturnPartialResult, d.Hardening.OnLimitExceeded)
}

func TestParseStringOverridesOnlySetFields(t *testing.T) {
	cfg, err := config.ParseString(`
alignment:
  max_align_rows: 500
hardening:
  timeout_ms: 1000
`)
	require.NoError(t, err)
	require.Equal(t, 500, cfg.Alignment.MaxAlignRows)
	require.Equal(t, config.Default().Alignment.MaxAlignCols, cfg.Alignment.MaxAlignCols)
	require.Equal(t, int64(1000), cfg.Hardening.TimeoutMs)
}

func TestParseStringEmptyReturnsDefault(t *testing.T) {
	cfg, err := config.ParseString("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestParseStringRejectsUnknownFields(t *testing.T) {
	_, err := config.ParseString("not_a_real_field: 1\n")
	require.Error(t, err)
}

func TestMergeOverridesNonZeroFields(t *testing.T) {
	base := config.Default()
	override := config.DiffConfig{
		Alignment: config.AlignmentConfig{MaxAlignRows: 10},
	}
	merged := config.Merge(base, override)
	require.Equal(t, 10, merged.Alignment.MaxAlignRows)
	require.Equal(t, base.Alignment.MaxAlignCols, merged.Alignment.MaxAlignCols)
}
