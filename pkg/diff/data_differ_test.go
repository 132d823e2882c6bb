package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/tablecheck/pkg/core"
)

func TestDataDifferRawEquality(t *testing.T) {
	source := rowsOf(t, []any{"Yes"}, []any{"Yes"})
	target := rowsOf(t, []any{"Yes"}, []any{"Y"})

	report := NewDataDiffer(nil).Compare(source, target, []string{"flag"}, []string{"FLAG"})
	require.Len(t, report, 2)

	assert.True(t, report[0].Match)
	assert.False(t, report[1].Match, "data comparison must not normalize")

	for _, rec := range report {
		assert.Equal(t, core.Data, rec.Kind)
		assert.Equal(t, "flag", rec.SourceColumn)
		assert.Equal(t, "FLAG", rec.TargetColumn)
	}
}

func TestDataDifferTypedValues(t *testing.T) {
	source := rowsOf(t, []any{int64(1), 2.5, nil, true})
	target := rowsOf(t, []any{1.0, 2.5, nil, "true"})

	report := NewDataDiffer(nil).Compare(source, target,
		[]string{"a", "b", "c", "d"}, []string{"a", "b", "c", "d"})
	require.Len(t, report, 4)

	assert.True(t, report[0].Match, "integer 1 equals float 1.0")
	assert.True(t, report[1].Match)
	assert.True(t, report[2].Match, "null equals null")
	assert.False(t, report[3].Match, "boolean never equals string")
}

func TestDataDifferRowTruncation(t *testing.T) {
	source := rowsOf(t, []any{"a"}, []any{"b"}, []any{"c"})
	target := rowsOf(t, []any{"a"}, []any{"x"})

	report := NewDataDiffer(nil).Compare(source, target, []string{"c"}, []string{"c"})
	require.Len(t, report, 2)
	assert.Equal(t, 0, report[0].Row)
	assert.Equal(t, 1, report[1].Row)
	assert.True(t, report[0].Match)
	assert.False(t, report[1].Match)
}

func TestDataDifferOrdering(t *testing.T) {
	source := rowsOf(t, []any{"a", "b"}, []any{"c", "d"})
	target := rowsOf(t, []any{"a", "b"}, []any{"c", "d"})

	report := NewDataDiffer(nil).Compare(source, target, []string{"x", "y"}, []string{"p", "q"})
	require.Len(t, report, 4)

	want := []struct {
		row      int
		src, tgt string
	}{
		{0, "x", "p"}, {0, "y", "q"},
		{1, "x", "p"}, {1, "y", "q"},
	}
	for i, w := range want {
		assert.Equal(t, w.row, report[i].Row)
		assert.Equal(t, w.src, report[i].SourceColumn)
		assert.Equal(t, w.tgt, report[i].TargetColumn)
		assert.True(t, report[i].Match)
	}
}

func TestDataDifferDuplicateColumnNames(t *testing.T) {
	source := rowsOf(t, []any{"first", "second"})
	target := rowsOf(t, []any{"first", "second"})

	report := NewDataDiffer(nil).Compare(source, target, []string{"dup", "dup"}, []string{"a", "b"})
	require.Len(t, report, 2)

	// Both source lookups resolve to the leftmost "dup".
	assert.Equal(t, core.String("first"), report[0].Expected)
	assert.Equal(t, core.String("first"), report[1].Expected)
	assert.True(t, report[0].Match)
	assert.False(t, report[1].Match)
}

func TestDataDifferRaggedRows(t *testing.T) {
	source := rowsOf(t, []any{"a", "b"})
	target := rowsOf(t, []any{"a"})

	report := NewDataDiffer(nil).Compare(source, target, []string{"c0", "c1"}, []string{"c0", "c1"})
	require.Len(t, report, 2)
	assert.True(t, report[1].Actual.IsMissing())
	assert.False(t, report[1].Match)

	// A cell neither side has is never a match.
	source = rowsOf(t, []any{"a"})
	report = NewDataDiffer(nil).Compare(source, target, []string{"c0", "c1"}, []string{"c0", "c1"})
	require.Len(t, report, 2)
	assert.True(t, report[0].Match)
	assert.True(t, report[1].Expected.IsMissing())
	assert.True(t, report[1].Actual.IsMissing())
	assert.False(t, report[1].Match)
}

func TestPrepareData(t *testing.T) {
	source, err := core.DatasetFromValues([]string{"id", "name", "age"}, [][]any{
		{int64(1), "ann", int64(30)},
		{int64(2), "bob", int64(40)},
	})
	require.NoError(t, err)
	target, err := core.DatasetFromValues([]string{"AGE", "ID"}, [][]any{
		{int64(30), int64(1)},
		{int64(41), int64(2)},
	})
	require.NoError(t, err)

	t.Run("length mismatch", func(t *testing.T) {
		_, _, err := PrepareData(source, target, []int{0, 1, 2}, []int{0, 1})
		require.Error(t, err)
		assert.True(t, core.IsLengthMismatch(err))
	})

	t.Run("index out of range", func(t *testing.T) {
		_, _, err := PrepareData(source, target, []int{0}, []int{7})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target")
	})

	t.Run("reorders to pairs", func(t *testing.T) {
		src, tgt, err := PrepareData(source, target, []int{0, 2}, []int{1, 0})
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "age"}, src.Columns)
		assert.Equal(t, []string{"ID", "AGE"}, tgt.Columns)

		report := NewDataDiffer(nil).Compare(src.Rows, tgt.Rows, src.Columns, tgt.Columns)
		require.Len(t, report, 4)
		assert.Equal(t, 3, report.Matched())
		assert.False(t, report[3].Match)
		assert.Equal(t, "age", report[3].SourceColumn)
	})
}
