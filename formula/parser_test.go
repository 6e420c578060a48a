package formula_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/formula"
)

func TestParseNumberStringBool(t *testing.T) {
	n, err := formula.Parse("3.5")
	require.NoError(t, err)
	require.Equal(t, formula.Number(3.5), n)

	s, err := formula.Parse(`"a""b"`)
	require.NoError(t, err)
	require.Equal(t, formula.Text(`a"b`), s)

	b, err := formula.Parse("TRUE")
	require.NoError(t, err)
	require.Equal(t, formula.Boolean(true), b)
}

func TestParseErrorLiteral(t *testing.T) {
	n, err := formula.Parse("#DIV/0!")
	require.NoError(t, err)
	require.Equal(t, formula.Error{Code: "#DIV/0!"}, n)
}

func TestParseCellRefA1(t *testing.T) {
	n, err := formula.Parse("$A$1")
	require.NoError(t, err)
	ref, ok := n.(formula.CellRef)
	require.True(t, ok)
	require.Equal(t, formula.Absolute, ref.Col.Kind)
	require.Equal(t, formula.Absolute, ref.Row.Kind)
	require.Equal(t, uint32(0), ref.Col.Value)
	require.Equal(t, uint32(0), ref.Row.Value)
}

func TestParseCellRefRelative(t *testing.T) {
	n, err := formula.Parse("B2")
	require.NoError(t, err)
	ref := n.(formula.CellRef)
	require.Equal(t, formula.Relative, ref.Col.Kind)
	require.Equal(t, uint32(1), ref.Col.Value)
	require.Equal(t, uint32(1), ref.Row.Value)
}

func TestParseSheetQualifiedRef(t *testing.T) {
	n, err := formula.Parse("'My Sheet'!A1")
	require.NoError(t, err)
	ref := n.(formula.CellRef)
	require.Equal(t, "My Sheet", ref.Sheet)
}

func TestParseRange(t *testing.T) {
	n, err := formula.Parse("A1:B5")
	require.NoError(t, err)
	rng, ok := n.(formula.RangeRef)
	require.True(t, ok)
	require.False(t, rng.WholeRow)
	require.False(t, rng.WholeCol)
}

func TestParseWholeRowRange(t *testing.T) {
	n, err := formula.Parse("1:3")
	require.NoError(t, err)
	rng := n.(formula.RangeRef)
	require.True(t, rng.WholeRow)
}

func TestParseR1C1(t *testing.T) {
	n, err := formula.Parse("R[-3]C")
	require.NoError(t, err)
	ref := n.(formula.CellRef)
	require.Equal(t, formula.Offset, ref.Row.Kind)
	require.Equal(t, int32(-3), ref.Row.Offset)
	require.Equal(t, formula.Offset, ref.Col.Kind)
	require.Equal(t, int32(0), ref.Col.Offset)
}

func TestParseFunctionCall(t *testing.T) {
	n, err := formula.Parse("sum(A1,B1)")
	require.NoError(t, err)
	call, ok := n.(formula.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "SUM", call.Name)
	require.Len(t, call.Args, 2)
}

func TestParseBinaryPrecedence(t *testing.T) {
	n, err := formula.Parse("1+2*3")
	require.NoError(t, err)
	bin := n.(formula.BinaryOp)
	require.Equal(t, "+", bin.Op)
	rhs := bin.Right.(formula.BinaryOp)
	require.Equal(t, "*", rhs.Op)
}

func TestParsePowerRightAssociative(t *testing.T) {
	n, err := formula.Parse("2^3^2")
	require.NoError(t, err)
	bin := n.(formula.BinaryOp)
	require.Equal(t, "^", bin.Op)
	_, leftIsNumber := bin.Left.(formula.Number)
	require.True(t, leftIsNumber)
	_, rightIsBinary := bin.Right.(formula.BinaryOp)
	require.True(t, rightIsBinary)
}

func TestParseUnaryAndPercent(t *testing.T) {
	n, err := formula.Parse("-5%")
	require.NoError(t, err)
	outer := n.(formula.UnaryOp)
	require.Equal(t, "-", outer.Op)
	require.False(t, outer.Post)
	inner := outer.Arg.(formula.UnaryOp)
	require.Equal(t, "%", inner.Op)
	require.True(t, inner.Post)
}

func TestParseArray(t *testing.T) {
	n, err := formula.Parse("{1,2;3,4}")
	require.NoError(t, err)
	arr := n.(formula.Array)
	require.Len(t, arr.Rows, 2)
	require.Len(t, arr.Rows[0], 2)
}

func TestParseNamedRef(t *testing.T) {
	n, err := formula.Parse("MyRange")
	require.NoError(t, err)
	ref := n.(formula.NamedRef)
	require.Equal(t, "MyRange", ref.Name)
}

func TestParseTrailingGarbageErrors(t *testing.T) {
	_, err := formula.Parse("1 1")
	require.Error(t, err)
}
