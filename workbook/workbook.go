// Package workbook defines the parsed, in-memory shape of one workbook or
// PBIX package that the engine diffs (spec §6.2: "the core accepts parsed
// Workbook/PbixPackage values; it is format-agnostic"). Nothing here reads
// a file -- OPC/ZIP extraction and XLSX/XLSB/PBIX parsing are external
// collaborators the spec places out of scope (§1).
package workbook

import "github.com/sqldef/gridiff/grid"

// Sheet pairs a worksheet's name with its parsed grid.
type Sheet struct {
	Name string
	Grid *grid.Grid
}

// VBAModule is one VBA project module, compared as opaque text (a
// line-level VBA diff is out of this spec's scope; presence, absence, and
// "did the body change" are all that's tracked).
type VBAModule struct {
	Name string
	Code string
}

// NamedRange is a workbook- or sheet-scoped defined name together with the
// range/formula text it refers to.
type NamedRange struct {
	Name  string
	Scope string // "" for workbook-scoped, else the owning sheet's name
	RefersTo string
}

// Chart is a chart object's definition, compared as an opaque text blob
// (series references, chart type, etc. serialized by the external reader).
type Chart struct {
	Name       string
	Sheet      string
	Definition string
}

// QueryStep is one step of a Power Query M expression, in declared order.
type QueryStep struct {
	Name string
	Text string
}

// Query is one Power Query query: its ordered steps plus the metadata
// attributes spec §4's QueryMetadataChanged reports on (load destination,
// refresh-on-open, etc).
type Query struct {
	Name     string
	Steps    []QueryStep
	Metadata map[string]string
}

// ModelColumn is one tabular-model column within a table.
type ModelColumn struct {
	Name     string
	DataType string
}

// Measure is one DAX measure defined on a tabular-model table.
type Measure struct {
	Name         string
	Expression   string
	FormatString string
	DisplayFolder string
}

// ModelTable is one table in the Power BI tabular model (distinct from a
// worksheet grid: it has typed columns and measures, no cell grid).
type ModelTable struct {
	Name     string
	Columns  []ModelColumn
	Measures []Measure
}

// Relationship links two tabular-model tables by column.
type Relationship struct {
	FromTable, FromColumn string
	ToTable, ToColumn     string
}

// Model is the tabular data model carried by a PBIX/PBIT package.
type Model struct {
	Tables        []ModelTable
	Relationships []Relationship
}

// Workbook is the full parsed input to one side of a diff.
type Workbook struct {
	Sheets      []Sheet
	VBAModules  []VBAModule
	NamedRanges []NamedRange
	Charts      []Chart
	Queries     []Query
	Model       *Model
}

// SheetByName returns the sheet named name, or (nil, false) if absent.
func (w *Workbook) SheetByName(name string) (Sheet, bool) {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}
