package hardening_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/hardening"
)

func TestCheckTimeoutZeroAbortsImmediately(t *testing.T) {
	c := hardening.New(0, 0, 0, nil)
	var warnings []string
	require.True(t, c.CheckTimeout(&warnings))
	require.Len(t, warnings, 1)
	require.True(t, c.ShouldAbort())
}

func TestCheckTimeoutTripsAndWarnsOnce(t *testing.T) {
	c := hardening.New(time.Millisecond, 0, 0, nil)
	time.Sleep(5 * time.Millisecond)

	var warnings []string
	require.True(t, c.CheckTimeout(&warnings))
	require.Len(t, warnings, 1)
	require.True(t, c.ShouldAbort())

	require.True(t, c.CheckTimeout(&warnings))
	require.Len(t, warnings, 1) // no duplicate warning on the second check
}

func TestMemoryGuardOrWarn(t *testing.T) {
	c := hardening.New(0, 100, 0, nil)
	var warnings []string
	require.False(t, c.MemoryGuardOrWarn(50, &warnings, "gridview"))
	require.True(t, c.MemoryGuardOrWarn(200, &warnings, "gridview"))
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "gridview")
}

func TestMemoryGuardOrWarnZeroCapAbortsOnAnyEstimate(t *testing.T) {
	c := hardening.New(0, 0, 0, nil)
	var warnings []string
	require.True(t, c.MemoryGuardOrWarn(1, &warnings, "sheet"))
	require.Len(t, warnings, 1)
}

func TestProgressClampsAndForwards(t *testing.T) {
	var got []float64
	c := hardening.New(0, 0, 0, func(phase string, fraction float64) {
		got = append(got, fraction)
	})
	c.Progress("cell_diff", 1.5)
	c.Progress("cell_diff", -1)
	require.Equal(t, []float64{1, 0}, got)
}

func TestOpBudgetExceeded(t *testing.T) {
	c := hardening.New(0, 0, 10, nil)
	require.False(t, c.OpBudgetExceeded(5))
	require.True(t, c.OpBudgetExceeded(11))
}
