package formula_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/formula"
)

func TestShiftTranslatesRelativeComponents(t *testing.T) {
	n := mustParse(t, "A1")
	shifted := formula.Shift(n, 2, 1, formula.RelativeOnly).(formula.CellRef)
	require.Equal(t, uint32(2), shifted.Row.Value)
	require.Equal(t, uint32(1), shifted.Col.Value)
}

func TestShiftPreservesAbsoluteUnderRelativeOnly(t *testing.T) {
	n := mustParse(t, "$A$1")
	shifted := formula.Shift(n, 5, 5, formula.RelativeOnly).(formula.CellRef)
	require.Equal(t, uint32(0), shifted.Row.Value)
	require.Equal(t, uint32(0), shifted.Col.Value)
}

func TestShiftTranslatesAbsoluteUnderAllMode(t *testing.T) {
	n := mustParse(t, "$A$1")
	shifted := formula.Shift(n, 5, 5, formula.All).(formula.CellRef)
	require.Equal(t, uint32(5), shifted.Row.Value)
	require.Equal(t, uint32(5), shifted.Col.Value)
}

func TestShiftSaturatesAtZero(t *testing.T) {
	n := mustParse(t, "A1")
	shifted := formula.Shift(n, -5, -5, formula.RelativeOnly).(formula.CellRef)
	require.Equal(t, uint32(0), shifted.Row.Value)
	require.Equal(t, uint32(0), shifted.Col.Value)
}

func TestShiftLeavesOffsetInvariant(t *testing.T) {
	n := mustParse(t, "R[-3]C")
	shifted := formula.Shift(n, 10, 10, formula.RelativeOnly).(formula.CellRef)
	require.Equal(t, int32(-3), shifted.Row.Offset)
}

func TestEquivalentModuloShift(t *testing.T) {
	a := mustParse(t, "A1+B1")
	b := mustParse(t, "A2+B2")
	require.True(t, formula.EquivalentModuloShift(a, b, 1, 0))
	require.False(t, formula.EquivalentModuloShift(a, b, 0, 0))
}
