package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/config"
	"github.com/sqldef/gridiff/grid"
)

func TestParseColumnLetters(t *testing.T) {
	cols, err := parseColumnLetters("A,C,AA")
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 2, 26}, cols)
}

func TestParseColumnLettersLowercaseAndSpaces(t *testing.T) {
	cols, err := parseColumnLetters(" a , b ")
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 1}, cols)
}

func TestParseColumnLettersRejectsInvalidInput(t *testing.T) {
	_, err := parseColumnLetters("A,,C")
	require.Error(t, err)

	_, err = parseColumnLetters("A1")
	require.Error(t, err)
}

func TestAutoDetectKeyColumnsPicksFirstUniqueColumn(t *testing.T) {
	g := grid.New(3, 2)
	// Column 0 repeats "x"; column 1 is all distinct.
	for r := uint32(0); r < 3; r++ {
		v := grid.NewText(1)
		g.Set(r, 0, grid.Cell{Value: &v})
	}
	for r := uint32(0); r < 3; r++ {
		v := grid.NewNumber(float64(r))
		g.Set(r, 1, grid.Cell{Value: &v})
	}

	cols := autoDetectKeyColumns(g)
	require.Equal(t, []uint32{1}, cols)
}

func TestAutoDetectKeyColumnsFallsBackToZero(t *testing.T) {
	g := grid.New(2, 1)
	v := grid.NewNumber(1)
	g.Set(0, 0, grid.Cell{Value: &v})
	g.Set(1, 0, grid.Cell{Value: &v})

	cols := autoDetectKeyColumns(g)
	require.Equal(t, []uint32{0}, cols)
}

func TestApplyModeFlagsFastDisablesFuzzyMoves(t *testing.T) {
	cfg := applyModeFlags(config.Default(), diffOptions{Fast: true})
	require.False(t, cfg.Moves.EnableFuzzyMoves)
}

func TestApplyModeFlagsPreciseEnablesFuzzyMoves(t *testing.T) {
	cfg := applyModeFlags(config.Default(), diffOptions{Precise: true})
	require.True(t, cfg.Moves.EnableFuzzyMoves)
}
