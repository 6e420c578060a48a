// Package dbalign implements database-mode table diff (spec §4.5):
// key-based row alignment that ignores row and column order, with
// duplicate-key cluster detection. It reuses the same "build a map on each
// side, partition into left-only/right-only/matched" shape as modeldiff
// and, ultimately, the teacher's own column-reconciliation loop in
// schema/generator.go -- here the map key is a row's key-column tuple
// instead of a column name.
package dbalign

import (
	"sort"

	"github.com/sqldef/gridiff/align"
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

// ErrDuplicateKeys is returned when either grid has more than one row
// sharing the same key-column tuple, per spec §4.5 step 2 / §7's
// DuplicateKeys error kind. The caller falls back to spreadsheet mode with
// a warning; Clusters holds one DuplicateKeyCluster op per colliding key,
// so the warning path still has something concrete to show.
type ErrDuplicateKeys struct {
	Clusters []diffop.DuplicateKeyCluster
}

func (e *ErrDuplicateKeys) Error() string {
	return "dbalign: duplicate keys found in one or both grids"
}

// keyTuple is the ordered tuple of CellValues from the key columns, used as
// a map key. CellValue isn't itself comparable-by-value when it holds a
// pointer-like payload, but grid.CellValue's fields are all plain scalars,
// so the struct is directly usable as a Go map key component; keyTuple
// joins several of them behind a single string so a variable number of key
// columns can still key one map.
type keyTuple string

func buildKey(g *grid.Grid, row uint32, keyColumns []uint32) keyTuple {
	var sb []byte
	for _, col := range keyColumns {
		c, ok := g.Get(row, col)
		sb = append(sb, 0)
		if !ok || c.Value == nil {
			continue
		}
		sb = append(sb, byte(c.Value.Kind()))
		switch c.Value.Kind() {
		case grid.Number:
			sb = appendFloat(sb, c.Value.Number())
		case grid.Text, grid.Error:
			sb = appendUint(sb, uint64(c.Value.TextID()))
		case grid.Bool:
			if c.Value.Bool() {
				sb = append(sb, 1)
			}
		}
	}
	return keyTuple(sb)
}

func appendFloat(b []byte, f float64) []byte {
	return appendUint(b, uint64(int64(f*1e9)))
}

func appendUint(b []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}

// Diff implements spec §4.5. keyColumns are the column indices (common to
// both grids) that make up the row key. On success it returns ops in the
// order: RowRemoved (left-only keys), RowAdded (right-only keys), then
// matched-pair cell edits -- key columns are skipped since they define the
// alignment rather than participating in it.
func Diff(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, keyColumns []uint32, includeUnchanged bool) ([]diffop.Op, error) {
	oldRowsByKey := make(map[keyTuple][]uint32)
	for row := uint32(0); row < old.NRows(); row++ {
		if rowEmpty(old, row) {
			continue
		}
		k := buildKey(old, row, keyColumns)
		oldRowsByKey[k] = append(oldRowsByKey[k], row)
	}
	newRowsByKey := make(map[keyTuple][]uint32)
	for row := uint32(0); row < new.NRows(); row++ {
		if rowEmpty(new, row) {
			continue
		}
		k := buildKey(new, row, keyColumns)
		newRowsByKey[k] = append(newRowsByKey[k], row)
	}

	var clusters []diffop.DuplicateKeyCluster
	for k, rows := range oldRowsByKey {
		if len(rows) > 1 {
			clusters = append(clusters, diffop.DuplicateKeyCluster{Base: diffop.Base{SheetID: sheet}, KeyRepr: pool.Intern(string(k)), OldRows: rows})
		}
	}
	for k, rows := range newRowsByKey {
		if len(rows) > 1 {
			clusters = append(clusters, diffop.DuplicateKeyCluster{Base: diffop.Base{SheetID: sheet}, KeyRepr: pool.Intern(string(k)), NewRows: rows})
		}
	}
	if len(clusters) > 0 {
		sortClusters(clusters)
		return nil, &ErrDuplicateKeys{Clusters: clusters}
	}

	var leftOnly, rightOnly []keyTuple
	var matched [][2]uint32
	for k, rows := range oldRowsByKey {
		if newRows, ok := newRowsByKey[k]; ok {
			matched = append(matched, [2]uint32{rows[0], newRows[0]})
		} else {
			leftOnly = append(leftOnly, k)
		}
	}
	for k := range newRowsByKey {
		if _, ok := oldRowsByKey[k]; !ok {
			rightOnly = append(rightOnly, k)
		}
	}

	sort.Slice(leftOnly, func(i, j int) bool { return oldRowsByKey[leftOnly[i]][0] < oldRowsByKey[leftOnly[j]][0] })
	sort.Slice(rightOnly, func(i, j int) bool { return newRowsByKey[rightOnly[i]][0] < newRowsByKey[rightOnly[j]][0] })
	sort.Slice(matched, func(i, j int) bool { return matched[i][1] < matched[j][1] })

	ncols := old.NCols()
	if new.NCols() > ncols {
		ncols = new.NCols()
	}
	keySet := make(map[uint32]bool, len(keyColumns))
	for _, c := range keyColumns {
		keySet[c] = true
	}

	var ops []diffop.Op
	for _, k := range leftOnly {
		ops = append(ops, diffop.RowRemoved{Base: diffop.Base{SheetID: sheet}, RowIdx: oldRowsByKey[k][0]})
	}
	for _, k := range rightOnly {
		ops = append(ops, diffop.RowAdded{Base: diffop.Base{SheetID: sheet}, RowIdx: newRowsByKey[k][0]})
	}
	for _, pair := range matched {
		oldRow, newRow := pair[0], pair[1]
		for col := uint32(0); col < ncols; col++ {
			if keySet[col] {
				continue
			}
			ops = append(ops, diffCell(pool, cache, sheet, old, new, oldRow, newRow, col, includeUnchanged)...)
		}
	}

	return ops, nil
}

func rowEmpty(g *grid.Grid, row uint32) bool {
	for col := uint32(0); col < g.NCols(); col++ {
		if _, ok := g.Get(row, col); ok {
			return false
		}
	}
	return true
}

func sortClusters(c []diffop.DuplicateKeyCluster) {
	sort.Slice(c, func(i, j int) bool { return c[i].KeyRepr < c[j].KeyRepr })
}

// diffCell reuses align.DiffCells restricted to a single column, keeping
// the formula-shift classification consistent with the sheet-mode
// CellEdited emission (spec §4.5 step 4: row_delta = new_row-old_row,
// col_delta = 0 since database mode never attributes a column move).
func diffCell(pool *stringpool.Pool, cache *formula.Cache, sheet stringpool.StringId, old, new *grid.Grid, oldRow, newRow, col uint32, includeUnchanged bool) []diffop.Op {
	rowDelta := int64(newRow) - int64(oldRow)
	return align.DiffCellRange(pool, cache, sheet, old, new, oldRow, newRow, col, col+1, rowDelta, 0, includeUnchanged)
}
