package formula_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqldef/gridiff/formula"
)

func strptr(s string) *string { return &s }

func TestClassifyBothAbsent(t *testing.T) {
	require.Equal(t, formula.Unchanged, formula.Classify(nil, nil, 0, 0))
}

func TestClassifyAddedRemoved(t *testing.T) {
	require.Equal(t, formula.Added, formula.Classify(nil, strptr("=A1"), 0, 0))
	require.Equal(t, formula.Removed, formula.Classify(strptr("=A1"), nil, 0, 0))
}

func TestClassifyByteEqualIsUnchanged(t *testing.T) {
	require.Equal(t, formula.Unchanged, formula.Classify(strptr("=A1+B1"), strptr("=A1+B1"), 0, 0))
}

func TestClassifyShiftEquivalentIsFormattingOnly(t *testing.T) {
	require.Equal(t, formula.FormattingOnly, formula.Classify(strptr("A1+B1"), strptr("A2+B2"), 1, 0))
}

func TestClassifySameCanonicalDifferentTextIsFormattingOnly(t *testing.T) {
	require.Equal(t, formula.FormattingOnly, formula.Classify(strptr("sum(A1,B1)"), strptr("SUM(B1,A1)"), 0, 0))
}

func TestClassifyParseFailureWithDifferingTextIsTextChange(t *testing.T) {
	require.Equal(t, formula.TextChange, formula.Classify(strptr("1 1"), strptr("2 2"), 0, 0))
}

func TestClassifySemanticChange(t *testing.T) {
	require.Equal(t, formula.SemanticChange, formula.Classify(strptr("A1+B1"), strptr("A1-B1"), 0, 0))
}
