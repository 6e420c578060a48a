package dbalign

import (
	"testing"

	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
	"github.com/stretchr/testify/require"
)

func textCell(pool *stringpool.Pool, s string) grid.Cell {
	v := grid.NewText(pool.Intern(s))
	return grid.Cell{Value: &v}
}

// TestDiffReorderInvariance is S4/testable property 4: permuting key rows
// with unchanged values produces zero ops.
func TestDiffReorderInvariance(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	cache := formula.NewCache(pool)

	old := grid.New(3, 2)
	old.Set(0, 0, textCell(pool, "k1"))
	old.Set(0, 1, textCell(pool, "v1"))
	old.Set(1, 0, textCell(pool, "k2"))
	old.Set(1, 1, textCell(pool, "v2"))
	old.Set(2, 0, textCell(pool, "k3"))
	old.Set(2, 1, textCell(pool, "v3"))

	newGrid := grid.New(3, 2)
	newGrid.Set(0, 0, textCell(pool, "k2"))
	newGrid.Set(0, 1, textCell(pool, "v2"))
	newGrid.Set(1, 0, textCell(pool, "k3"))
	newGrid.Set(1, 1, textCell(pool, "v3"))
	newGrid.Set(2, 0, textCell(pool, "k1"))
	newGrid.Set(2, 1, textCell(pool, "v1"))

	ops, err := Diff(pool, cache, sheet, old, newGrid, []uint32{0}, false)
	require.NoError(t, err)
	require.Empty(t, ops)
}

// TestDiffKeyChangeEmitsAddRemove is S5: a key disappearing and a new key
// appearing emits RowRemoved + RowAdded (in that order), not a CellEdited.
func TestDiffKeyChangeEmitsAddRemove(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	cache := formula.NewCache(pool)

	old := grid.New(3, 2)
	old.Set(0, 0, textCell(pool, "k1"))
	old.Set(0, 1, textCell(pool, "v1"))
	old.Set(1, 0, textCell(pool, "k2"))
	old.Set(1, 1, textCell(pool, "v2"))
	old.Set(2, 0, textCell(pool, "k3"))
	old.Set(2, 1, textCell(pool, "v3"))

	newGrid := grid.New(3, 2)
	newGrid.Set(0, 0, textCell(pool, "k1"))
	newGrid.Set(0, 1, textCell(pool, "v1"))
	newGrid.Set(1, 0, textCell(pool, "k4"))
	newGrid.Set(1, 1, textCell(pool, "v4_new"))
	newGrid.Set(2, 0, textCell(pool, "k3"))
	newGrid.Set(2, 1, textCell(pool, "v3"))

	ops, err := Diff(pool, cache, sheet, old, newGrid, []uint32{0}, false)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	removed, ok := ops[0].(diffop.RowRemoved)
	require.True(t, ok, "expected first op to be RowRemoved, got %#v", ops[0])
	require.EqualValues(t, 1, removed.RowIdx)

	added, ok := ops[1].(diffop.RowAdded)
	require.True(t, ok, "expected second op to be RowAdded, got %#v", ops[1])
	require.EqualValues(t, 1, added.RowIdx)
}

// TestDiffDuplicateKeysFails covers spec §4.5 step 2: a duplicated key on
// either side fails the whole mode rather than silently picking one row.
func TestDiffDuplicateKeysFails(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	cache := formula.NewCache(pool)

	old := grid.New(3, 2)
	old.Set(0, 0, textCell(pool, "k1"))
	old.Set(0, 1, textCell(pool, "v1"))
	old.Set(1, 0, textCell(pool, "k1"))
	old.Set(1, 1, textCell(pool, "v1dup"))
	old.Set(2, 0, textCell(pool, "k3"))
	old.Set(2, 1, textCell(pool, "v3"))

	newGrid := grid.New(3, 2)
	newGrid.Set(0, 0, textCell(pool, "k1"))
	newGrid.Set(0, 1, textCell(pool, "v1"))
	newGrid.Set(1, 0, textCell(pool, "k2"))
	newGrid.Set(1, 1, textCell(pool, "v2"))
	newGrid.Set(2, 0, textCell(pool, "k3"))
	newGrid.Set(2, 1, textCell(pool, "v3"))

	ops, err := Diff(pool, cache, sheet, old, newGrid, []uint32{0}, false)
	require.Nil(t, ops)
	require.Error(t, err)

	var dup *ErrDuplicateKeys
	require.ErrorAs(t, err, &dup)
	require.NotEmpty(t, dup.Clusters)
}

// TestDiffMatchedPairsEditsNonKeyColumns checks that a row matched by an
// unchanged key reports its changed non-key cell as a single CellEdited in
// that column.
func TestDiffMatchedPairsEditsNonKeyColumns(t *testing.T) {
	pool := stringpool.New()
	sheet := pool.Intern("Sheet1")
	cache := formula.NewCache(pool)

	old := grid.New(1, 2)
	old.Set(0, 0, textCell(pool, "k1"))
	old.Set(0, 1, textCell(pool, "v1"))

	newGrid := grid.New(1, 2)
	newGrid.Set(0, 0, textCell(pool, "k1"))
	newGrid.Set(0, 1, textCell(pool, "v1-changed"))

	ops, err := Diff(pool, cache, sheet, old, newGrid, []uint32{0}, false)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	edit, ok := ops[0].(diffop.CellEdited)
	require.True(t, ok)
	require.EqualValues(t, 1, edit.Addr.Col)
}
