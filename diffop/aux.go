package diffop

import "github.com/sqldef/gridiff/stringpool"

// VBA module ops. A module's code body is compared as opaque text (spec's
// auxiliary-object supplement); only presence/absence/content-changed is
// tracked, not a line-level diff.
type VBAModuleAdded struct {
	Base
	Module stringpool.StringId
}

func (VBAModuleAdded) Kind() Kind { return KindVBAModuleAdded }

type VBAModuleRemoved struct {
	Base
	Module stringpool.StringId
}

func (VBAModuleRemoved) Kind() Kind { return KindVBAModuleRemoved }

type VBAModuleChanged struct {
	Base
	Module stringpool.StringId
}

func (VBAModuleChanged) Kind() Kind { return KindVBAModuleChanged }

// Named range ops, keyed by (sheet-scope or workbook-scope) name.
type NamedRangeAdded struct {
	Base
	Name stringpool.StringId
}

func (NamedRangeAdded) Kind() Kind { return KindNamedRangeAdded }

type NamedRangeRemoved struct {
	Base
	Name stringpool.StringId
}

func (NamedRangeRemoved) Kind() Kind { return KindNamedRangeRemoved }

type NamedRangeChanged struct {
	Base
	Name stringpool.StringId
}

func (NamedRangeChanged) Kind() Kind { return KindNamedRangeChanged }

// Chart ops, keyed by chart name within its owning sheet.
type ChartAdded struct {
	Base
	Name stringpool.StringId
}

func (ChartAdded) Kind() Kind { return KindChartAdded }

type ChartRemoved struct {
	Base
	Name stringpool.StringId
}

func (ChartRemoved) Kind() Kind { return KindChartRemoved }

type ChartChanged struct {
	Base
	Name stringpool.StringId
}

func (ChartChanged) Kind() Kind { return KindChartChanged }
