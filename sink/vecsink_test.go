package sink_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/sink"
	"github.com/sqldef/gridiff/stringpool"
)

func TestVecSinkCollectsOpsInOrder(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")

	s := sink.NewVecSink()
	require.NoError(t, s.Begin(pool.Strings()))
	require.NoError(t, s.Emit(diffop.NewSheetAdded(sheet)))
	require.NoError(t, s.Emit(diffop.RowAdded{Base: diffop.Base{SheetID: sheet}, RowIdx: 3}))
	require.NoError(t, s.Finish())

	require.Len(t, s.Ops(), 2)
	require.Equal(t, diffop.KindSheetAdded, s.Ops()[0].Kind())
	require.Equal(t, []string{"Sheet1"}, s.Strings())
}

func TestVecSinkRejectsDoubleBegin(t *testing.T) {
	s := sink.NewVecSink()
	require.NoError(t, s.Begin(nil))
	require.Error(t, s.Begin(nil))
}

func TestFinishGuardCallsFinishUnlessDisarmed(t *testing.T) {
	s := sink.NewVecSink()
	require.NoError(t, s.Begin(nil))

	func() {
		g := sink.NewFinishGuard(s)
		defer g.Close()
	}()

	require.Error(t, s.Finish()) // already finished by the guard
}

func TestFinishGuardDisarmSkipsFinish(t *testing.T) {
	s := sink.NewVecSink()
	require.NoError(t, s.Begin(nil))
	require.NoError(t, s.Finish())

	g := sink.NewFinishGuard(s)
	g.Disarm()
	g.Close()
	require.Error(t, s.Finish()) // still only finished once, by us
}
