package sift

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTable_DuplicateColumn_ReturnsError(t *testing.T) {
	_, err := NewTable([]string{"a", "b", "a"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewTable_EmptyColumnList_ReturnsError(t *testing.T) {
	_, err := NewTable(nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewTableFromColumns_LengthMismatch_ReturnsError(t *testing.T) {
	_, err := NewTableFromColumns([]string{"a", "b"}, [][]float64{{1, 2}, {3}})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTable_AppendRowAndRow_RoundTrip(t *testing.T) {
	tbl, err := NewTable([]string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.AppendRow([]float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.AppendRow([]float64{3, 4}); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 2, tbl.NumRows())
	row, err := tbl.Row(1)
	assert.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, row)
}

func TestTable_AppendRow_WrongArity_ReturnsError(t *testing.T) {
	tbl, _ := NewTable([]string{"x", "y"})
	err := tbl.AppendRow([]float64{1})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestTable_Column_ReturnsCopy(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"x"}, [][]float64{{1, 2, 3}})
	col, err := tbl.Column("x")
	if err != nil {
		t.Fatal(err)
	}
	col[0] = 99
	again, _ := tbl.Column("x")
	if again[0] != 1 {
		t.Errorf("mutating a returned column changed the table: got %v", again[0])
	}
}

func TestTable_Select_MissingColumns_SchemaMismatch(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a", "b"}, [][]float64{{1}, {2}})
	_, err := tbl.Select("a", "c", "d")
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	assert.Contains(t, err.Error(), "c")
	assert.Contains(t, err.Error(), "d")
}

func TestTable_Select_PreservesRequestedOrder(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a", "b", "c"}, [][]float64{{1}, {2}, {3}})
	sel, err := tbl.Select("c", "a")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{"c", "a"}, sel.Columns())
	row, _ := sel.Row(0)
	assert.Equal(t, []float64{3, 1}, row)
}

func TestTable_SetColumn_ReplacesExisting(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a"}, [][]float64{{1, 2}})
	if err := tbl.SetColumn("a", []float64{5, 6}); err != nil {
		t.Fatal(err)
	}
	col, _ := tbl.Column("a")
	assert.Equal(t, []float64{5, 6}, col)
	assert.Equal(t, 1, tbl.NumCols())
}

func TestTable_SetColumn_AppendsNew(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a"}, [][]float64{{1, 2}})
	if err := tbl.SetColumn("b", []float64{3, 4}); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []string{"a", "b"}, tbl.Columns())

	err := tbl.SetColumn("c", []float64{1})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for short column, got %v", err)
	}
}

func TestTable_DropMissing_RemovesNaNAndInfRows(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a", "b"}, [][]float64{
		{1, math.NaN(), 3, 4},
		{10, 20, math.Inf(1), 40},
	})
	clean := tbl.DropMissing()
	assert.Equal(t, 2, clean.NumRows())
	a, _ := clean.Column("a")
	assert.Equal(t, []float64{1, 4}, a)
}

func TestTable_SortByColumns_TieBreaksOnSecond(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a", "b"}, [][]float64{
		{2, 1, 2, 1},
		{9, 5, 3, 7},
	})
	if err := tbl.SortByColumns("a", "b"); err != nil {
		t.Fatal(err)
	}
	a, _ := tbl.Column("a")
	b, _ := tbl.Column("b")
	assert.Equal(t, []float64{1, 1, 2, 2}, a)
	assert.Equal(t, []float64{5, 7, 3, 9}, b)
}

func TestTable_SortByColumns_MissingKey_SchemaMismatch(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a"}, [][]float64{{1}})
	err := tbl.SortByColumns("nope")
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestTable_Matrix_RowMajorLayout(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a", "b"}, [][]float64{
		{1, 3},
		{2, 4},
	})
	m := tbl.Matrix()
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 2.0, m.At(0, 1))
	assert.Equal(t, 3.0, m.At(1, 0))
	assert.Equal(t, 4.0, m.At(1, 1))
}

func TestTable_Clone_IsIndependent(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a"}, [][]float64{{1, 2}})
	cp := tbl.Clone()
	if err := cp.SetColumn("a", []float64{9, 9}); err != nil {
		t.Fatal(err)
	}
	orig, _ := tbl.Column("a")
	assert.Equal(t, []float64{1, 2}, orig)
}

func TestTable_FilterRows(t *testing.T) {
	tbl, _ := NewTableFromColumns([]string{"a"}, [][]float64{{1, 2, 3, 4}})
	even := tbl.FilterRows(func(row int) bool { return row%2 == 0 })
	col, _ := even.Column("a")
	assert.Equal(t, []float64{1, 3}, col)
}
