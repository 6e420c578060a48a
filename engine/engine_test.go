package engine

import (
	"testing"
	"time"

	"github.com/sqldef/gridiff/config"
	"github.com/sqldef/gridiff/dbalign"
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/hardening"
	"github.com/sqldef/gridiff/stringpool"
	"github.com/stretchr/testify/require"
)

func numCell(v float64) grid.Cell {
	val := grid.NewNumber(v)
	return grid.Cell{Value: &val}
}

func txtCell(pool *stringpool.Pool, s string) grid.Cell {
	v := grid.NewText(pool.Intern(s))
	return grid.Cell{Value: &v}
}

func newHardening() *hardening.Controller {
	return hardening.New(time.Hour, 1<<62, 1<<30, nil)
}

func runSheetDiff(t *testing.T, old, new *grid.Grid) (*stringpool.Pool, []diffop.Op) {
	t.Helper()
	pool := stringpool.New()
	cache := formula.NewCache(pool)
	sheet := pool.Intern("Sheet1")
	var warnings []string
	ops, err := DiffSheet(pool, cache, "Sheet1", sheet, old, new, config.Default(), newHardening(), &warnings)
	require.NoError(t, err)
	return pool, ops
}

// TestS1SingleCellEdit: 2x2 grid, B1 changes from 2 to 3.
func TestS1SingleCellEdit(t *testing.T) {
	old := grid.New(2, 2)
	old.Set(0, 0, numCell(1))
	old.Set(0, 1, numCell(2))

	newGrid := grid.New(2, 2)
	newGrid.Set(0, 0, numCell(1))
	newGrid.Set(0, 1, numCell(3))

	_, ops := runSheetDiff(t, old, newGrid)
	require.Len(t, ops, 1)
	edit, ok := ops[0].(diffop.CellEdited)
	require.True(t, ok, "expected CellEdited, got %#v", ops[0])
	require.EqualValues(t, 0, edit.Addr.Row)
	require.EqualValues(t, 1, edit.Addr.Col)
	require.NotNil(t, edit.From.Value)
	require.NotNil(t, edit.To.Value)
	require.Equal(t, 2.0, edit.From.Value.Number())
	require.Equal(t, 3.0, edit.To.Value.Number())
}

// TestS2RowAdded: 3 rows become 4, with the new row inserted in the middle;
// column count is equal on both sides so this is the "dimensions differ"
// unequal-row-count branch feeding the advanced alignment pipeline.
func TestS2RowAdded(t *testing.T) {
	pool := stringpool.New()
	cache := formula.NewCache(pool)
	sheet := pool.Intern("Sheet1")

	old := grid.New(3, 1)
	old.Set(0, 0, txtCell(pool, "A"))
	old.Set(1, 0, txtCell(pool, "B"))
	old.Set(2, 0, txtCell(pool, "C"))

	newGrid := grid.New(4, 1)
	newGrid.Set(0, 0, txtCell(pool, "A"))
	newGrid.Set(1, 0, txtCell(pool, "B"))
	newGrid.Set(2, 0, txtCell(pool, "X"))
	newGrid.Set(3, 0, txtCell(pool, "C"))

	var warnings []string
	ops, err := DiffSheet(pool, cache, "Sheet1", sheet, old, newGrid, config.Default(), newHardening(), &warnings)
	require.NoError(t, err)

	var adds []diffop.RowAdded
	for _, op := range ops {
		if a, ok := op.(diffop.RowAdded); ok {
			adds = append(adds, a)
		}
	}
	require.Len(t, adds, 1, "ops: %#v", ops)
	require.EqualValues(t, 2, adds[0].RowIdx)
}

// TestS3RowSwapDetectedAsMove: two rows of a 3x3 grid swap; the engine must
// report it via BlockMovedRows rather than a pile of CellEdited ops.
func TestS3RowSwapDetectedAsMove(t *testing.T) {
	old := grid.New(3, 3)
	for r := uint32(0); r < 3; r++ {
		for c := uint32(0); c < 3; c++ {
			old.Set(r, c, numCell(float64(r*10+c)))
		}
	}

	// Rows 1 and 2 swapped; row 0 unchanged.
	newGrid := grid.New(3, 3)
	for c := uint32(0); c < 3; c++ {
		row0, _ := old.Get(0, c)
		row1, _ := old.Get(1, c)
		row2, _ := old.Get(2, c)
		newGrid.Set(0, c, row0)
		newGrid.Set(1, c, row2)
		newGrid.Set(2, c, row1)
	}

	_, ops := runSheetDiff(t, old, newGrid)

	// A full-width row swap is a valid BlockMovedRect (the rectangle
	// detector runs before the row-run detector per spec §4.4.5's ordering,
	// and a 1-row-high, full-column-width rectangle is an equally correct
	// description of a whole-row relocation) as well as BlockMovedRows; the
	// invariant under test is that no individual CellEdited survives.
	var cellEdits, moveOps int
	for _, op := range ops {
		switch op.(type) {
		case diffop.CellEdited:
			cellEdits++
		case diffop.BlockMovedRows, diffop.BlockMovedRect:
			moveOps++
		}
	}
	require.Zero(t, cellEdits, "expected no CellEdited ops for a pure row swap, got: %#v", ops)
	require.GreaterOrEqual(t, moveOps, 1, "expected at least one block-move op, got: %#v", ops)
}

// TestS6FormulaMoveIsFormattingOnly is S6/testable property 5: when a
// formula cell relocates by a known row delta and its relative references
// shift by the same amount, the matched-pair cell diff (spec §4.4.9) must
// classify the change as FormattingOnly rather than SemanticChange. This
// drives the engine's matched-pair path through dbalign, whose row
// alignment is key-driven (not signature-based), so the row delta between
// old row 0 and new row 3 is exact and unambiguous -- avoiding any
// dependence on whether move-mask detection happens to recognize the
// relocation (exact-match move detection, per spec §9, is not required to
// be formula-shift-aware).
func TestS6FormulaMoveIsFormattingOnly(t *testing.T) {
	pool := stringpool.New()
	cache := formula.NewCache(pool)
	sheet := pool.Intern("Sheet1")

	old := grid.New(1, 2)
	old.Set(0, 0, txtCell(pool, "key"))
	f1 := pool.Intern("SUM(A2:A3)")
	old.Set(0, 1, grid.Cell{Formula: &f1})

	newGrid := grid.New(4, 2)
	newGrid.Set(3, 0, txtCell(pool, "key"))
	f2 := pool.Intern("SUM(A5:A6)")
	newGrid.Set(3, 1, grid.Cell{Formula: &f2})

	ops, err := dbalign.Diff(pool, cache, sheet, old, newGrid, []uint32{0}, true)
	require.NoError(t, err)
	require.Len(t, ops, 1)

	edit, ok := ops[0].(diffop.CellEdited)
	require.True(t, ok, "expected CellEdited, got %#v", ops[0])
	require.Equal(t, diffop.FormulaFormattingOnly, edit.FormulaDiff)
}

// TestIdentityProducesNoOps is testable property 2.
func TestIdentityProducesNoOps(t *testing.T) {
	pool := stringpool.New()
	g := grid.New(5, 5)
	for r := uint32(0); r < 5; r++ {
		for c := uint32(0); c < 5; c++ {
			g.Set(r, c, txtCell(pool, "x"))
		}
	}
	cache := formula.NewCache(pool)
	sheet := pool.Intern("Sheet1")
	var warnings []string
	ops, err := DiffSheet(pool, cache, "Sheet1", sheet, g, g, config.Default(), newHardening(), &warnings)
	require.NoError(t, err)
	require.Empty(t, ops)
}

// TestFullPipelineDiffBuildsGridView is testable property 6's non-bailout
// half. Unequal row counts skip the fast-path and preflight entirely and go
// straight to the advanced alignment pipeline (spec §4.4.7/§4.4.8): AlignRows
// matches the three untouched rows, DiffMatchedRows diffs each matched pair
// cell-by-cell through Grid.View, so a GridView actually gets built for both
// sides even though the matched rows carry no changes.
func TestFullPipelineDiffBuildsGridView(t *testing.T) {
	pool := stringpool.New()
	old := grid.New(3, 2)
	old.Set(0, 0, txtCell(pool, "alpha"))
	old.Set(1, 0, txtCell(pool, "bravo"))
	old.Set(2, 0, txtCell(pool, "charlie"))

	newGrid := grid.New(4, 2)
	newGrid.Set(0, 0, txtCell(pool, "alpha"))
	newGrid.Set(1, 0, txtCell(pool, "bravo"))
	newGrid.Set(2, 0, txtCell(pool, "charlie"))
	newGrid.Set(3, 0, txtCell(pool, "delta"))

	grid.ResetViewBuildCount()
	_, ops := runSheetDiff(t, old, newGrid)
	require.NotEmpty(t, ops)
	require.Greater(t, grid.ViewBuildCount(), 0, "expected the full alignment pipeline to build at least one GridView")
}

// TestDissimilarBailoutSkipsGridView is testable property 6's bailout half:
// when preflight's Jaccard similarity falls below BailoutSimilarityThreshold,
// DiffSheet must take the ShortCircuitDissimilar positional path without
// ever constructing a GridView.
func TestDissimilarBailoutSkipsGridView(t *testing.T) {
	pool := stringpool.New()
	const nrows = 64
	old := grid.New(uint32(nrows), 2)
	newGrid := grid.New(uint32(nrows), 2)
	for r := 0; r < nrows; r++ {
		old.Set(uint32(r), 0, txtCell(pool, "old"))
		old.Set(uint32(r), 1, txtCell(pool, "value-"+string(rune('a'+r%26))+string(rune('A'+(r/26)%26))))
		newGrid.Set(uint32(r), 0, txtCell(pool, "new"))
		newGrid.Set(uint32(r), 1, txtCell(pool, "other-"+string(rune('z'-r%26))+string(rune('Z'-(r/26)%26))))
	}

	grid.ResetViewBuildCount()
	_, ops := runSheetDiff(t, old, newGrid)
	require.NotEmpty(t, ops)
	require.Equal(t, 0, grid.ViewBuildCount(), "dissimilar-bailout preflight must never build a GridView")
}
