package formula

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonicalize applies the idempotent rewrite described in spec §4.3:
// function/sheet names uppercased, commutative function arguments and
// commutative binary operands sorted by Render, range endpoints ordered so
// the lexicographically smaller Render comes first.
func Canonicalize(n Node) Node {
	switch v := n.(type) {
	case Number, Text, Boolean, Error:
		return v
	case CellRef:
		return CellRef{Sheet: strings.ToUpper(v.Sheet), Row: v.Row, Col: v.Col, Spill: v.Spill}
	case RangeRef:
		from := Canonicalize(v.From).(CellRef)
		to := Canonicalize(v.To).(CellRef)
		if Render(to) < Render(from) {
			from, to = to, from
		}
		return RangeRef{Sheet: strings.ToUpper(v.Sheet), From: from, To: to, WholeRow: v.WholeRow, WholeCol: v.WholeCol}
	case NamedRef:
		return NamedRef{Name: strings.ToUpper(v.Name), Raw: v.Raw}
	case FunctionCall:
		name := strings.ToUpper(v.Name)
		args := make([]Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = Canonicalize(a)
		}
		if commutativeFuncs[name] {
			sort.SliceStable(args, func(i, j int) bool { return Render(args[i]) < Render(args[j]) })
		}
		return FunctionCall{Name: name, Args: args}
	case UnaryOp:
		return UnaryOp{Op: v.Op, Arg: Canonicalize(v.Arg), Post: v.Post}
	case BinaryOp:
		left := Canonicalize(v.Left)
		right := Canonicalize(v.Right)
		if commutativeOps[v.Op] && Render(right) < Render(left) {
			left, right = right, left
		}
		return BinaryOp{Op: v.Op, Left: left, Right: right}
	case Array:
		rows := make([][]Node, len(v.Rows))
		for i, row := range v.Rows {
			newRow := make([]Node, len(row))
			for j, e := range row {
				newRow[j] = Canonicalize(e)
			}
			rows[i] = newRow
		}
		return Array{Rows: rows}
	default:
		return n
	}
}

// Render produces a deterministic debug form of n, used both as the
// commutative-argument sort key during canonicalization and as the
// equality check between two canonicalized trees.
func Render(n Node) string {
	var sb strings.Builder
	render(&sb, n)
	return sb.String()
}

func render(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case Number:
		fmt.Fprintf(sb, "Num(%s)", strconv.FormatFloat(float64(v), 'g', -1, 64))
	case Text:
		fmt.Fprintf(sb, "Text(%q)", string(v))
	case Boolean:
		fmt.Fprintf(sb, "Bool(%t)", bool(v))
	case Error:
		fmt.Fprintf(sb, "Err(%s)", v.Code)
	case CellRef:
		fmt.Fprintf(sb, "Cell(%s,%s,%s,%t)", v.Sheet, v.Row, v.Col, v.Spill)
	case RangeRef:
		sb.WriteString("Range(")
		render(sb, v.From)
		sb.WriteByte(',')
		render(sb, v.To)
		fmt.Fprintf(sb, ",wr=%t,wc=%t)", v.WholeRow, v.WholeCol)
	case NamedRef:
		fmt.Fprintf(sb, "Named(%s,%s)", v.Name, v.Raw)
	case FunctionCall:
		fmt.Fprintf(sb, "Call(%s", v.Name)
		for _, a := range v.Args {
			sb.WriteByte(',')
			render(sb, a)
		}
		sb.WriteByte(')')
	case UnaryOp:
		fmt.Fprintf(sb, "Unary(%s,post=%t,", v.Op, v.Post)
		render(sb, v.Arg)
		sb.WriteByte(')')
	case BinaryOp:
		fmt.Fprintf(sb, "Binary(%s,", v.Op)
		render(sb, v.Left)
		sb.WriteByte(',')
		render(sb, v.Right)
		sb.WriteByte(')')
	case Array:
		sb.WriteString("Array(")
		for i, row := range v.Rows {
			if i > 0 {
				sb.WriteByte(';')
			}
			for j, e := range row {
				if j > 0 {
					sb.WriteByte(',')
				}
				render(sb, e)
			}
		}
		sb.WriteByte(')')
	default:
		sb.WriteString("?")
	}
}
