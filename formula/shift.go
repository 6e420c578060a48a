package formula

// ShiftMode controls whether Absolute reference components move with a
// shift or stay pinned.
type ShiftMode int

const (
	// RelativeOnly leaves Absolute components untouched; only Relative
	// components are translated. This is the mode equivalence-modulo-shift
	// uses (spec §4.3).
	RelativeOnly ShiftMode = iota
	// All translates both Relative and Absolute components, used when a
	// whole block (including its anchors) is known to have moved together.
	All
)

// Shift returns a new AST with every Relative row/col component adjusted by
// (rowDelta, colDelta), saturating to [0, math.MaxUint32]. Offset
// components are invariant since they already represent a delta. Absolute
// components are preserved under RelativeOnly and translated under All.
func Shift(n Node, rowDelta, colDelta int64, mode ShiftMode) Node {
	switch v := n.(type) {
	case Number, Text, Boolean, Error:
		return v
	case CellRef:
		return shiftCellRef(v, rowDelta, colDelta, mode)
	case RangeRef:
		return RangeRef{
			Sheet:    v.Sheet,
			From:     shiftCellRef(v.From, rowDelta, colDelta, mode),
			To:       shiftCellRef(v.To, rowDelta, colDelta, mode),
			WholeRow: v.WholeRow,
			WholeCol: v.WholeCol,
		}
	case NamedRef:
		return v
	case FunctionCall:
		args := make([]Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = Shift(a, rowDelta, colDelta, mode)
		}
		return FunctionCall{Name: v.Name, Args: args}
	case UnaryOp:
		return UnaryOp{Op: v.Op, Arg: Shift(v.Arg, rowDelta, colDelta, mode), Post: v.Post}
	case BinaryOp:
		return BinaryOp{Op: v.Op, Left: Shift(v.Left, rowDelta, colDelta, mode), Right: Shift(v.Right, rowDelta, colDelta, mode)}
	case Array:
		rows := make([][]Node, len(v.Rows))
		for i, row := range v.Rows {
			newRow := make([]Node, len(row))
			for j, e := range row {
				newRow[j] = Shift(e, rowDelta, colDelta, mode)
			}
			rows[i] = newRow
		}
		return Array{Rows: rows}
	default:
		return n
	}
}

func shiftCellRef(ref CellRef, rowDelta, colDelta int64, mode ShiftMode) CellRef {
	return CellRef{
		Sheet: ref.Sheet,
		Row:   shiftComponent(ref.Row, rowDelta, mode),
		Col:   shiftComponent(ref.Col, colDelta, mode),
		Spill: ref.Spill,
	}
}

func shiftComponent(c RefComponent, delta int64, mode ShiftMode) RefComponent {
	switch c.Kind {
	case Relative:
		return RefComponent{Kind: Relative, Value: saturateAdd(c.Value, delta)}
	case Absolute:
		if mode == All {
			return RefComponent{Kind: Absolute, Value: saturateAdd(c.Value, delta)}
		}
		return c
	default: // Offset is already a delta, invariant under shift
		return c
	}
}

func saturateAdd(v uint32, delta int64) uint32 {
	sum := int64(v) + delta
	if sum < 0 {
		return 0
	}
	if sum > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(sum)
}
