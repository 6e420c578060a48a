// Package ioformat decodes the JSON workbook snapshot format cmd/gridiff
// accepts in place of a real XLSX/XLSB/PBIX reader (spec §6.2: the core is
// format-agnostic and reads are external). It is a thin, literal mapping
// from JSON onto grid.Grid/workbook.Workbook -- no normalization, no
// inference -- since its only job is to exercise the engine end-to-end with
// a serialization an external reader could plausibly emit.
package ioformat

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/stringpool"
	"github.com/sqldef/gridiff/workbook"
)

type cellJSON struct {
	Row     uint32     `json:"row"`
	Col     uint32     `json:"col"`
	Value   *valueJSON `json:"value,omitempty"`
	Formula *string    `json:"formula,omitempty"`
}

type valueJSON struct {
	Kind   string   `json:"kind"`
	Number *float64 `json:"number,omitempty"`
	Text   *string  `json:"text,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
}

type sheetJSON struct {
	Name  string     `json:"name"`
	Rows  uint32     `json:"rows"`
	Cols  uint32     `json:"cols"`
	Cells []cellJSON `json:"cells"`
}

type vbaModuleJSON struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type namedRangeJSON struct {
	Name     string `json:"name"`
	Scope    string `json:"scope"`
	RefersTo string `json:"refers_to"`
}

type chartJSON struct {
	Name       string `json:"name"`
	Sheet      string `json:"sheet"`
	Definition string `json:"definition"`
}

type queryStepJSON struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type queryJSON struct {
	Name     string            `json:"name"`
	Steps    []queryStepJSON   `json:"steps"`
	Metadata map[string]string `json:"metadata"`
}

type modelColumnJSON struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

type measureJSON struct {
	Name          string `json:"name"`
	Expression    string `json:"expression"`
	FormatString  string `json:"format_string"`
	DisplayFolder string `json:"display_folder"`
}

type modelTableJSON struct {
	Name     string            `json:"name"`
	Columns  []modelColumnJSON `json:"columns"`
	Measures []measureJSON     `json:"measures"`
}

type relationshipJSON struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

type modelJSON struct {
	Tables        []modelTableJSON   `json:"tables"`
	Relationships []relationshipJSON `json:"relationships"`
}

type workbookJSON struct {
	Sheets      []sheetJSON      `json:"sheets"`
	VBAModules  []vbaModuleJSON  `json:"vba_modules"`
	NamedRanges []namedRangeJSON `json:"named_ranges"`
	Charts      []chartJSON      `json:"charts"`
	Queries     []queryJSON      `json:"queries"`
	Model       *modelJSON       `json:"model"`
}

// LoadWorkbook reads and decodes a workbook snapshot from path, interning
// every string it contains into pool. Callers comparing two workbooks must
// pass the same pool to both calls, in either order, since StringIds are
// only comparable within the pool that produced them (engine.Run's
// precondition).
func LoadWorkbook(path string, pool *stringpool.Pool) (*workbook.Workbook, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: read %s: %w", path, err)
	}

	var wj workbookJSON
	if err := json.Unmarshal(buf, &wj); err != nil {
		return nil, fmt.Errorf("ioformat: parse %s: %w", path, err)
	}

	wb := &workbook.Workbook{}

	for _, sj := range wj.Sheets {
		g, err := decodeSheet(sj, pool)
		if err != nil {
			return nil, fmt.Errorf("ioformat: sheet %q: %w", sj.Name, err)
		}
		wb.Sheets = append(wb.Sheets, workbook.Sheet{Name: sj.Name, Grid: g})
	}

	for _, m := range wj.VBAModules {
		wb.VBAModules = append(wb.VBAModules, workbook.VBAModule{Name: m.Name, Code: m.Code})
	}
	for _, n := range wj.NamedRanges {
		wb.NamedRanges = append(wb.NamedRanges, workbook.NamedRange{Name: n.Name, Scope: n.Scope, RefersTo: n.RefersTo})
	}
	for _, c := range wj.Charts {
		wb.Charts = append(wb.Charts, workbook.Chart{Name: c.Name, Sheet: c.Sheet, Definition: c.Definition})
	}
	for _, q := range wj.Queries {
		steps := make([]workbook.QueryStep, 0, len(q.Steps))
		for _, s := range q.Steps {
			steps = append(steps, workbook.QueryStep{Name: s.Name, Text: s.Text})
		}
		wb.Queries = append(wb.Queries, workbook.Query{Name: q.Name, Steps: steps, Metadata: q.Metadata})
	}

	if wj.Model != nil {
		model := &workbook.Model{}
		for _, t := range wj.Model.Tables {
			cols := make([]workbook.ModelColumn, 0, len(t.Columns))
			for _, c := range t.Columns {
				cols = append(cols, workbook.ModelColumn{Name: c.Name, DataType: c.DataType})
			}
			measures := make([]workbook.Measure, 0, len(t.Measures))
			for _, m := range t.Measures {
				measures = append(measures, workbook.Measure{
					Name:          m.Name,
					Expression:    m.Expression,
					FormatString:  m.FormatString,
					DisplayFolder: m.DisplayFolder,
				})
			}
			model.Tables = append(model.Tables, workbook.ModelTable{Name: t.Name, Columns: cols, Measures: measures})
		}
		for _, r := range wj.Model.Relationships {
			model.Relationships = append(model.Relationships, workbook.Relationship{
				FromTable: r.FromTable, FromColumn: r.FromColumn,
				ToTable: r.ToTable, ToColumn: r.ToColumn,
			})
		}
		wb.Model = model
	}

	return wb, nil
}

func decodeSheet(sj sheetJSON, pool *stringpool.Pool) (*grid.Grid, error) {
	g := grid.New(sj.Rows, sj.Cols)
	for _, cj := range sj.Cells {
		cell, err := decodeCell(cj, pool)
		if err != nil {
			return nil, fmt.Errorf("cell (%d,%d): %w", cj.Row, cj.Col, err)
		}
		g.Set(cj.Row, cj.Col, cell)
	}
	return g, nil
}

func decodeCell(cj cellJSON, pool *stringpool.Pool) (grid.Cell, error) {
	var cell grid.Cell
	if cj.Value != nil {
		v, err := decodeValue(*cj.Value, pool)
		if err != nil {
			return grid.Cell{}, err
		}
		cell.Value = &v
	}
	if cj.Formula != nil {
		id := pool.Intern(*cj.Formula)
		cell.Formula = &id
	}
	return cell, nil
}

func decodeValue(vj valueJSON, pool *stringpool.Pool) (grid.CellValue, error) {
	switch vj.Kind {
	case "number":
		if vj.Number == nil {
			return grid.CellValue{}, fmt.Errorf("ioformat: number value missing \"number\"")
		}
		return grid.NewNumber(*vj.Number), nil
	case "text":
		if vj.Text == nil {
			return grid.CellValue{}, fmt.Errorf("ioformat: text value missing \"text\"")
		}
		return grid.NewText(pool.Intern(*vj.Text)), nil
	case "bool":
		if vj.Bool == nil {
			return grid.CellValue{}, fmt.Errorf("ioformat: bool value missing \"bool\"")
		}
		return grid.NewBool(*vj.Bool), nil
	case "error":
		if vj.Text == nil {
			return grid.CellValue{}, fmt.Errorf("ioformat: error value missing \"text\"")
		}
		return grid.NewError(pool.Intern(*vj.Text)), nil
	default:
		return grid.CellValue{}, fmt.Errorf("ioformat: unknown value kind %q", vj.Kind)
	}
}
