package align_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/align"
	"github.com/sqldef/gridiff/config"
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

func TestDiffNoChangeProducesNoOps(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	rows := map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1), 1: numCell(2)},
		1: {0: numCell(3), 1: numCell(4)},
	}
	old := rowGrid(2, 2, rows)
	new_ := rowGrid(2, 2, rows)

	ops := align.Diff(pool, formula.NewCache(pool), sheet, old, new_, config.Default())
	require.Empty(t, ops)
}

func TestDiffInsertedRowProducesRowAdded(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	old := rowGrid(2, 1, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1)},
		1: {0: numCell(2)},
	})
	new_ := rowGrid(3, 1, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1)},
		1: {0: numCell(99)},
		2: {0: numCell(2)},
	})

	ops := align.Diff(pool, formula.NewCache(pool), sheet, old, new_, config.Default())

	var added []uint32
	for _, op := range ops {
		if ra, ok := op.(diffop.RowAdded); ok {
			added = append(added, ra.RowIdx)
		}
	}
	require.Equal(t, []uint32{1}, added)
}

func TestDiffRemovedRowProducesRowRemoved(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	old := rowGrid(3, 1, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1)},
		1: {0: numCell(99)},
		2: {0: numCell(2)},
	})
	new_ := rowGrid(2, 1, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1)},
		1: {0: numCell(2)},
	})

	ops := align.Diff(pool, formula.NewCache(pool), sheet, old, new_, config.Default())

	var removed []uint32
	for _, op := range ops {
		if rr, ok := op.(diffop.RowRemoved); ok {
			removed = append(removed, rr.RowIdx)
		}
	}
	require.Equal(t, []uint32{1}, removed)
}

func TestDiffEditedCellProducesCellEdited(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	old := rowGrid(1, 3, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1), 1: numCell(2), 2: numCell(3)},
	})
	new_ := rowGrid(1, 3, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1), 1: numCell(200), 2: numCell(3)},
	})

	ops := align.Diff(pool, formula.NewCache(pool), sheet, old, new_, config.Default())
	require.Len(t, ops, 1)
	ce, ok := ops[0].(diffop.CellEdited)
	require.True(t, ok)
	require.Equal(t, uint32(1), ce.Addr.Col)
	require.Equal(t, diffop.FormulaUnchanged, ce.FormulaDiff)
}

func TestDiffDenseRowCollapsesToRowReplaced(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	old := rowGrid(1, 4, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1), 1: numCell(2), 2: numCell(3), 3: numCell(4)},
	})
	new_ := rowGrid(1, 4, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(10), 1: numCell(20), 2: numCell(30), 3: numCell(40)},
	})

	cfg := config.Default()
	cfg.DenseRowReplaceRatio = 0.5
	cfg.DenseRowReplaceMinCols = 2

	ops := align.Diff(pool, formula.NewCache(pool), sheet, old, new_, cfg)
	require.Len(t, ops, 1)
	_, ok := ops[0].(diffop.RowReplaced)
	require.True(t, ok)
}

func TestDiffCellsFormulaShiftClassifiesFormattingOnly(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	old := rowGrid(1, 1, map[uint32]map[uint32]grid.Cell{0: {0: formulaCell(pool, "A1+1", 2)}})
	new_ := rowGrid(1, 1, map[uint32]map[uint32]grid.Cell{0: {0: formulaCell(pool, "A2+1", 2)}})

	ops := align.DiffCells(pool, formula.NewCache(pool), sheet, old, new_, 0, 0, 1, 0, false)
	require.Len(t, ops, 1)
	ce := ops[0].(diffop.CellEdited)
	require.Equal(t, diffop.FormulaFormattingOnly, ce.FormulaDiff)
}

// TestDiffMultiRowContentEditWithoutAnchorsStaysMatched guards the
// lcsSignatures gap-reconciliation fix: three rows all change value in
// place (no row is an AMR anchor, since every signature differs on both
// sides), yet none of them moved, were inserted, or were removed. The
// result must be three CellEdited ops, not a RowRemoved/RowAdded pile.
func TestDiffMultiRowContentEditWithoutAnchorsStaysMatched(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	old := rowGrid(3, 1, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(1)},
		1: {0: numCell(2)},
		2: {0: numCell(3)},
	})
	new_ := rowGrid(3, 1, map[uint32]map[uint32]grid.Cell{
		0: {0: numCell(10)},
		1: {0: numCell(20)},
		2: {0: numCell(30)},
	})

	ops := align.Diff(pool, formula.NewCache(pool), sheet, old, new_, config.Default())
	require.Len(t, ops, 3)
	for _, op := range ops {
		_, ok := op.(diffop.CellEdited)
		require.True(t, ok, "expected only CellEdited ops, got: %#v", ops)
	}
}

func TestIsSingleColumnBlockChangeRequiresContiguity(t *testing.T) {
	require.True(t, align.IsSingleColumnBlockChange(align.Pairing{Inserted: []uint32{2, 3, 4}}))
	require.False(t, align.IsSingleColumnBlockChange(align.Pairing{Inserted: []uint32{2, 4}}))
	require.False(t, align.IsSingleColumnBlockChange(align.Pairing{}))
}
