package align_test

import (
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
)

func numCell(f float64) grid.Cell {
	v := grid.NewNumber(f)
	return grid.Cell{Value: &v}
}

func formulaCell(pool *stringpool.Pool, text string, value float64) grid.Cell {
	id := pool.Intern(text)
	v := grid.NewNumber(value)
	return grid.Cell{Value: &v, Formula: &id}
}

func rowGrid(nrows, ncols uint32, rows map[uint32]map[uint32]grid.Cell) *grid.Grid {
	g := grid.New(nrows, ncols)
	for r, cols := range rows {
		for c, cell := range cols {
			g.Set(r, c, cell)
		}
	}
	return g
}
