// Command gridiff is the thin CLI front end over the engine (spec §6.1): it
// does not parse XLSX/XLSB/PBIX itself, only the JSON workbook snapshot
// format ioformat defines, but otherwise implements the flag surface, exit
// codes, and stdout/stderr split literally. The flat go-flags option
// struct is copied from cmd/mysqldef/mysqldef.go's shape; unlike the
// teacher's log.Fatal-on-error convention, each subcommand's run function
// returns an int exit code instead, since this CLI's three-way exit status
// (identical/differs/usage error) needs a return value main can os.Exit
// with rather than a process-killing log.Fatal call.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/sqldef/gridiff/config"
	"github.com/sqldef/gridiff/dbalign"
	"github.com/sqldef/gridiff/diffop"
	"github.com/sqldef/gridiff/engine"
	"github.com/sqldef/gridiff/formula"
	"github.com/sqldef/gridiff/grid"
	"github.com/sqldef/gridiff/ioformat"
	"github.com/sqldef/gridiff/sink"
	"github.com/sqldef/gridiff/stringpool"
	"github.com/sqldef/gridiff/workbook"
)

var version string

type diffOptions struct {
	Format    string `long:"format" description:"Output format: text, json, or jsonl" default:"text"`
	GitDiff   bool   `long:"git-diff" description:"Render text output as a git-diff-style hunk list"`
	Fast      bool   `long:"fast" description:"Favor speed: disable fuzzy move detection and bail out to the positional diff more readily"`
	Precise   bool   `long:"precise" description:"Favor precision: enable fuzzy move detection and skip the preflight short-circuits"`
	MaxMemory int64  `long:"max-memory" description:"Memory cap in bytes; 0 returns an immediate partial result" value-name:"BYTES" default:"1073741824"`
	Timeout   int64  `long:"timeout" description:"Wall-clock timeout in milliseconds; 0 returns an immediate partial result" value-name:"MS" default:"30000"`
	Progress  bool   `long:"progress" description:"Print phase progress to stderr"`
	Database  bool   `long:"database" description:"Diff --sheet as a keyed table instead of a spreadsheet"`
	Sheet     string `long:"sheet" description:"Sheet name to diff in --database mode" value-name:"NAME"`
	Keys      string `long:"keys" description:"Comma-separated key column letters, e.g. A,C" value-name:"COLS"`
	AutoKeys  bool   `long:"auto-keys" description:"Detect --database key columns automatically"`
	Config    string `long:"config" description:"YAML file overriding the default DiffConfig" value-name:"config_file"`
	Debug     bool   `long:"debug" description:"Pretty-print the resolved DiffOp structs to stderr before formatting output"`
	Help      bool   `long:"help" description:"Show this help"`
	Version   bool   `long:"version" description:"Show this version"`

	Args struct {
		Old string `positional-arg-name:"OLD"`
		New string `positional-arg-name:"NEW"`
	} `positional-args:"yes"`
}

type infoOptions struct {
	Queries bool `long:"queries" description:"List Power Query names and step counts"`
	Help    bool `long:"help" description:"Show this help"`

	Args struct {
		File string `positional-arg-name:"FILE"`
	} `positional-args:"yes"`
}

// Exit codes per spec §6.1.
const (
	exitIdentical = 0
	exitDiffers   = 1
	exitUsage     = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: gridiff diff [options] OLD NEW | gridiff info [options] FILE")
		return exitUsage
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "diff":
		return runDiff(rest)
	case "info":
		return runInfo(rest)
	case "-h", "--help":
		fmt.Fprintln(os.Stderr, "Usage: gridiff diff [options] OLD NEW | gridiff info [options] FILE")
		return exitIdentical
	default:
		fmt.Fprintf(os.Stderr, "gridiff: unknown subcommand %q\n", sub)
		return exitUsage
	}
}

func runDiff(args []string) int {
	var opts diffOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "diff [options] OLD NEW"
	_, err := parser.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if opts.Help {
		parser.WriteHelp(os.Stderr)
		return exitIdentical
	}
	if opts.Version {
		fmt.Println(version)
		return exitIdentical
	}

	if opts.Args.Old == "" || opts.Args.New == "" {
		fmt.Fprintln(os.Stderr, "gridiff diff: OLD and NEW are both required")
		return exitUsage
	}
	if opts.Fast && opts.Precise {
		fmt.Fprintln(os.Stderr, "gridiff diff: --fast and --precise are mutually exclusive")
		return exitUsage
	}
	if opts.GitDiff && (opts.Format == "json" || opts.Format == "jsonl") {
		fmt.Fprintln(os.Stderr, "gridiff diff: --git-diff is incompatible with --format json/jsonl")
		return exitUsage
	}
	if opts.Format != "text" && opts.Format != "json" && opts.Format != "jsonl" {
		fmt.Fprintf(os.Stderr, "gridiff diff: unknown --format %q\n", opts.Format)
		return exitUsage
	}
	if (opts.Sheet != "" || opts.Keys != "" || opts.AutoKeys) && !opts.Database {
		fmt.Fprintln(os.Stderr, "gridiff diff: --sheet/--keys/--auto-keys require --database")
		return exitUsage
	}
	if opts.Database {
		if opts.Sheet == "" {
			fmt.Fprintln(os.Stderr, "gridiff diff: --database requires --sheet")
			return exitUsage
		}
		if (opts.Keys != "") == opts.AutoKeys {
			fmt.Fprintln(os.Stderr, "gridiff diff: --database requires exactly one of --keys or --auto-keys")
			return exitUsage
		}
	}

	for _, path := range []string{opts.Args.Old, opts.Args.New} {
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
			return exitUsage
		}
	}

	cfg, err := config.ParseFile(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
		return exitUsage
	}
	cfg = applyModeFlags(cfg, opts)

	pool := stringpool.New()
	oldWB, err := ioformat.LoadWorkbook(opts.Args.Old, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
		return exitUsage
	}
	newWB, err := ioformat.LoadWorkbook(opts.Args.New, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
		return exitUsage
	}

	var progress engine.ProgressFunc
	if opts.Progress {
		progress = func(phase string, fraction float64) {
			fmt.Fprintf(os.Stderr, "[gridiff] %-16s %5.1f%%\n", phase, fraction*100)
		}
	}

	// --max-memory 0 / --timeout 0 mean "return an immediate partial result
	// with a warning" at the CLI boundary (spec §6.1): skip the diff outright
	// rather than let the Controller abort mid-run (hardening.New's doc
	// comment: a zero timeout/memCap there means abort immediately, not
	// unlimited) and report per-sheet warnings one sheet at a time.
	if opts.MaxMemory == 0 || opts.Timeout == 0 {
		fmt.Fprintln(os.Stderr, "gridiff diff: --max-memory 0 or --timeout 0 requested, returning immediate partial result")
		report := diffop.DiffReport{
			SchemaVersion: diffop.SchemaVersion,
			Strings:       pool.Strings(),
			Complete:      false,
			Warnings:      []string{"diff skipped: --max-memory 0 or --timeout 0 was specified"},
		}
		return writeReport(report, opts.Format, opts.Debug)
	}

	if opts.Database {
		return runDatabaseDiff(pool, oldWB, newWB, opts)
	}

	vs := sink.NewVecSink()
	summary, err := engine.Run(pool, oldWB, newWB, cfg, vs, progress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
		return exitUsage
	}

	report := diffop.DiffReport{
		SchemaVersion: diffop.SchemaVersion,
		Strings:       vs.Strings(),
		Ops:           vs.Ops(),
		Complete:      summary.Complete,
		Warnings:      summary.Warnings,
	}
	return writeReport(report, opts.Format, opts.Debug)
}

// applyModeFlags folds --fast/--precise and the literal CLI tunables into
// cfg, starting from whatever --config already produced.
func applyModeFlags(cfg config.DiffConfig, opts diffOptions) config.DiffConfig {
	if opts.Fast {
		cfg.Moves.EnableFuzzyMoves = false
		cfg.Preflight.BailoutSimilarityThreshold = 0.2
	}
	if opts.Precise {
		cfg.Moves.EnableFuzzyMoves = true
		cfg.Preflight.PreflightMinRows = 1 << 30 // effectively disables the short-circuit preflight
	}
	if opts.MaxMemory > 0 {
		cfg.Hardening.MemoryCapBytes = opts.MaxMemory
	}
	if opts.Timeout > 0 {
		cfg.Hardening.TimeoutMs = opts.Timeout
	}
	return cfg
}

func runDatabaseDiff(pool *stringpool.Pool, oldWB, newWB *workbook.Workbook, opts diffOptions) int {
	oldSheet, ok := oldWB.SheetByName(opts.Sheet)
	if !ok {
		fmt.Fprintf(os.Stderr, "gridiff diff: sheet %q not found in OLD\n", opts.Sheet)
		return exitUsage
	}
	newSheet, ok := newWB.SheetByName(opts.Sheet)
	if !ok {
		fmt.Fprintf(os.Stderr, "gridiff diff: sheet %q not found in NEW\n", opts.Sheet)
		return exitUsage
	}

	var keyColumns []uint32
	if opts.AutoKeys {
		keyColumns = autoDetectKeyColumns(oldSheet.Grid)
	} else {
		cols, err := parseColumnLetters(opts.Keys)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gridiff diff: --keys: %s\n", err)
			return exitUsage
		}
		keyColumns = cols
	}

	cache := formula.NewCache(pool)
	sheetID := pool.Intern(opts.Sheet)
	ops, err := dbalign.Diff(pool, cache, sheetID, oldSheet.Grid, newSheet.Grid, keyColumns, false)
	if err != nil {
		if dk, ok := err.(*dbalign.ErrDuplicateKeys); ok {
			fmt.Fprintln(os.Stderr, "gridiff diff: duplicate keys found, falling back to spreadsheet mode")
			fallback := config.Default()
			vs := sink.NewVecSink()
			summary, rerr := engine.Run(pool, oldWB, newWB, fallback, vs, nil)
			if rerr != nil {
				fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", rerr)
				return exitUsage
			}
			report := diffop.DiffReport{
				SchemaVersion: diffop.SchemaVersion,
				Strings:       vs.Strings(),
				Ops:           append(append([]diffop.Op(nil), clustersToOps(dk.Clusters)...), vs.Ops()...),
				Complete:      false,
				Warnings:      append([]string{"database mode: duplicate keys, fell back to spreadsheet mode"}, summary.Warnings...),
			}
			return writeReport(report, opts.Format, opts.Debug)
		}
		fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
		return exitUsage
	}

	diffop.SortBySheetOrder(ops)
	report := diffop.DiffReport{
		SchemaVersion: diffop.SchemaVersion,
		Strings:       pool.Strings(),
		Ops:           ops,
		Complete:      true,
	}
	return writeReport(report, opts.Format, opts.Debug)
}

func clustersToOps(clusters []diffop.DuplicateKeyCluster) []diffop.Op {
	ops := make([]diffop.Op, len(clusters))
	for i, c := range clusters {
		ops[i] = c
	}
	return ops
}

func writeReport(report diffop.DiffReport, format string, debug bool) int {
	if debug {
		pp.Fprintln(os.Stderr, report.Ops)
	}
	switch format {
	case "json":
		line, err := sink.EncodeDiffReport(report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
			return exitUsage
		}
		fmt.Println(line)
	case "jsonl":
		jw := sink.NewJSONLWriter(os.Stdout)
		if err := jw.Begin(report.Strings); err != nil {
			fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
			return exitUsage
		}
		for _, op := range report.Ops {
			if err := jw.Emit(op); err != nil {
				fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
				return exitUsage
			}
		}
		if err := jw.Finish(); err != nil {
			fmt.Fprintf(os.Stderr, "gridiff diff: %s\n", err)
			return exitUsage
		}
	default:
		printText(report, term.IsTerminal(int(os.Stdout.Fd())))
	}

	if len(report.Ops) == 0 && len(report.Warnings) == 0 {
		return exitIdentical
	}
	return exitDiffers
}

func runInfo(args []string) int {
	var opts infoOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "info [options] FILE"
	_, err := parser.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if opts.Help {
		parser.WriteHelp(os.Stderr)
		return exitIdentical
	}
	if opts.Args.File == "" {
		fmt.Fprintln(os.Stderr, "gridiff info: FILE is required")
		return exitUsage
	}
	if _, err := os.Stat(opts.Args.File); err != nil {
		fmt.Fprintf(os.Stderr, "gridiff info: %s\n", err)
		return exitUsage
	}

	pool := stringpool.New()
	wb, err := ioformat.LoadWorkbook(opts.Args.File, pool)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gridiff info: %s\n", err)
		return exitUsage
	}

	fmt.Printf("sheets: %d\n", len(wb.Sheets))
	for _, sh := range wb.Sheets {
		fmt.Printf("  %-24s %6d rows x %-6d cols  %6d populated cells\n",
			sh.Name, sh.Grid.NRows(), sh.Grid.NCols(), sh.Grid.CellCount())
	}
	if len(wb.VBAModules) > 0 {
		fmt.Printf("vba modules: %d\n", len(wb.VBAModules))
	}
	if len(wb.NamedRanges) > 0 {
		fmt.Printf("named ranges: %d\n", len(wb.NamedRanges))
	}
	if len(wb.Charts) > 0 {
		fmt.Printf("charts: %d\n", len(wb.Charts))
	}
	if opts.Queries {
		fmt.Printf("queries: %d\n", len(wb.Queries))
		for _, q := range wb.Queries {
			fmt.Printf("  %-24s %d steps\n", q.Name, len(q.Steps))
		}
	}
	if wb.Model != nil {
		fmt.Printf("model tables: %d, relationships: %d\n", len(wb.Model.Tables), len(wb.Model.Relationships))
	}
	return exitIdentical
}

// addColorKinds/removeColorKinds pick the ANSI color text mode gets when
// stdout is a terminal: additions green, removals red, everything else
// uncolored, mirroring a conventional diff tool's palette.
var addColorKinds = map[diffop.Kind]bool{
	diffop.KindRowAdded: true, diffop.KindColumnAdded: true, diffop.KindSheetAdded: true,
}
var removeColorKinds = map[diffop.Kind]bool{
	diffop.KindRowRemoved: true, diffop.KindColumnRemoved: true, diffop.KindSheetRemoved: true,
}

func printText(report diffop.DiffReport, color bool) {
	resolve := func(id stringpool.StringId) string {
		i := int(id)
		if i < 0 || i >= len(report.Strings) {
			return "?"
		}
		return report.Strings[i]
	}
	for _, op := range report.Ops {
		line := fmt.Sprintf("%s\t%s", op.Kind(), describeOp(op, resolve))
		if color {
			switch {
			case addColorKinds[op.Kind()]:
				line = "\033[32m" + line + "\033[0m"
			case removeColorKinds[op.Kind()]:
				line = "\033[31m" + line + "\033[0m"
			}
		}
		fmt.Println(line)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func describeOp(op diffop.Op, resolve func(stringpool.StringId) string) string {
	switch v := op.(type) {
	case diffop.SheetAdded:
		return resolve(v.Sheet())
	case diffop.SheetRemoved:
		return resolve(v.Sheet())
	case diffop.CellEdited:
		return fmt.Sprintf("%s %s", resolve(v.Sheet()), v.Addr.A1())
	case diffop.RowAdded:
		return fmt.Sprintf("%s row %d", resolve(v.Sheet()), v.RowIdx)
	case diffop.RowRemoved:
		return fmt.Sprintf("%s row %d", resolve(v.Sheet()), v.RowIdx)
	case diffop.ColumnAdded:
		return fmt.Sprintf("%s col %d", resolve(v.Sheet()), v.ColIdx)
	case diffop.ColumnRemoved:
		return fmt.Sprintf("%s col %d", resolve(v.Sheet()), v.ColIdx)
	case diffop.BlockMovedRows:
		return fmt.Sprintf("%s rows %d->%d (%d)", resolve(v.Sheet()), v.SrcStart, v.DstStart, v.Count)
	case diffop.BlockMovedCols:
		return fmt.Sprintf("%s cols %d->%d (%d)", resolve(v.Sheet()), v.SrcStart, v.DstStart, v.Count)
	case diffop.BlockMovedRect:
		return fmt.Sprintf("%s rect (%d,%d)->(%d,%d) %dx%d", resolve(v.Sheet()), v.SrcRow, v.SrcCol, v.DstRow, v.DstCol, v.Rows, v.Cols)
	default:
		return resolve(op.Sheet())
	}
}

// parseColumnLetters parses a comma-separated list of base-26 column
// letters ("A,C,AA") into zero-based column indices.
func parseColumnLetters(s string) ([]uint32, error) {
	parts := strings.Split(s, ",")
	cols := make([]uint32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p == "" {
			return nil, fmt.Errorf("empty column in %q", s)
		}
		var col uint32
		for _, r := range p {
			if r < 'A' || r > 'Z' {
				return nil, fmt.Errorf("invalid column letters %q", p)
			}
			col = col*26 + uint32(r-'A') + 1
		}
		cols = append(cols, col-1)
	}
	return cols, nil
}

// autoDetectKeyColumns picks the first column (left to right) whose
// non-blank values are all distinct across g's rows, a simple but
// deterministic heuristic for --auto-keys: a true key column never repeats
// a value. Falls back to column 0 if every column has a duplicate.
func autoDetectKeyColumns(g *grid.Grid) []uint32 {
	for col := uint32(0); col < g.NCols(); col++ {
		seen := make(map[string]bool)
		unique := true
		for row := uint32(0); row < g.NRows(); row++ {
			c, ok := g.Get(row, col)
			if !ok || c.Value == nil {
				continue
			}
			key := cellValueKey(*c.Value)
			if seen[key] {
				unique = false
				break
			}
			seen[key] = true
		}
		if unique && len(seen) > 0 {
			return []uint32{col}
		}
	}
	return []uint32{0}
}

func cellValueKey(v grid.CellValue) string {
	switch v.Kind() {
	case grid.Number:
		return "n:" + strconv.FormatFloat(v.Number(), 'g', -1, 64)
	case grid.Bool:
		return "b:" + strconv.FormatBool(v.Bool())
	default:
		return "t:" + strconv.FormatUint(uint64(v.TextID()), 10)
	}
}
