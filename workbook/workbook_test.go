package workbook_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/workbook"
)

func TestSheetByNameFindsMatch(t *testing.T) {
	wb := &workbook.Workbook{
		Sheets: []workbook.Sheet{
			{Name: "Sheet1", Grid: grid.New(1, 1)},
			{Name: "Sheet2", Grid: grid.New(2, 2)},
		},
	}

	sheet, ok := wb.SheetByName("Sheet2")
	require.True(t, ok)
	require.EqualValues(t, 2, sheet.Grid.NRows())
}

func TestSheetByNameReportsAbsence(t *testing.T) {
	wb := &workbook.Workbook{}
	_, ok := wb.SheetByName("Missing")
	require.False(t, ok)
}
