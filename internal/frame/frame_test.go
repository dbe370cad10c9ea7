package frame

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewGota().FromColumns([]Column{
		{Name: "name", Values: []any{"apple", "bread", "cod", "dates"}},
		{Name: "group", Values: []any{"fruit", "cereal", "fish", "fruit"}},
		{Name: "kcal", Values: []any{52, 265, 82, nil}},
		{Name: "fat", Values: []any{0.2, 3.2, 0.7, 0.4}},
	})
	require.NoError(t, err)
	return f
}

func TestFromColumnsStrict(t *testing.T) {
	_, err := NewGota().FromColumns([]Column{
		{Name: "x", Values: []any{1, 2.5, 3}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.Equal(t, "TypeMismatch", Kind(err))
	assert.Contains(t, err.Error(), "strict=false")
}

func TestFromColumnsLenient(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   DType
	}{
		{"int and float", []any{1, 2.5, nil}, Float64},
		{"bool and int", []any{true, 3}, Int64},
		{"int and string", []any{1, "two"}, Utf8},
		{"date and datetime", []any{NewDate(2024, 1, 2), time.Date(2024, 1, 3, 4, 5, 6, 0, time.UTC)}, Datetime},
		{"all null", []any{nil, nil}, Utf8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewGota().FromColumns([]Column{{Name: "x", Values: tt.values}}, Strict(false))
			require.NoError(t, err)
			got, ok := f.Schema().Lookup("x")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromColumnsExplicitSchema(t *testing.T) {
	f, err := NewGota().FromColumns([]Column{
		{Name: "id", Values: []any{1, 2}},
		{Name: "score", Values: []any{1, 2}},
	}, WithSchema(Field{Name: "score", Type: Float64}))
	require.NoError(t, err)
	assert.Equal(t, Schema{{"id", Int64}, {"score", Float64}}, f.Schema())

	_, err = NewGota().FromColumns([]Column{
		{Name: "id", Values: []any{"a", "b"}},
	}, WithSchema(Field{Name: "id", Type: Int64}))
	assert.Equal(t, "TypeMismatch", Kind(err))

	_, err = NewGota().FromColumns([]Column{
		{Name: "id", Values: []any{1}},
	}, WithSchema(Field{Name: "missing", Type: Int64}))
	assert.Equal(t, "SchemaMismatch", Kind(err))
}

func TestFromColumnsShape(t *testing.T) {
	_, err := NewGota().FromColumns([]Column{
		{Name: "a", Values: []any{1, 2}},
		{Name: "b", Values: []any{1}},
	})
	assert.Equal(t, "ShapeMismatch", Kind(err))

	_, err = NewGota().FromColumns([]Column{
		{Name: "a", Values: []any{1}},
		{Name: "a", Values: []any{2}},
	})
	assert.Equal(t, "SchemaMismatch", Kind(err))
}

func TestReadCSV(t *testing.T) {
	csv := "id,name,kcal\n1,apple,52\n2,bread,\n3,cod,82.5\n"
	f, err := NewGota().ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)

	rows, cols := f.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, Schema{{"id", Int64}, {"name", Utf8}, {"kcal", Float64}}, f.Schema())

	kcal, err := f.Column("kcal")
	require.NoError(t, err)
	assert.True(t, kcal.IsNull(1))
}

func TestColumnVersusSelect(t *testing.T) {
	f := sampleFrame(t)

	s, err := f.Column("kcal")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, Int64, s.DType())

	sub, err := f.SelectNames("kcal")
	require.NoError(t, err)
	rows, cols := sub.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 1, cols)

	_, err = f.Column("nope")
	assert.Equal(t, "SchemaMismatch", Kind(err))
}

func TestSelectors(t *testing.T) {
	f := sampleFrame(t)

	tests := []struct {
		name string
		sels []Selector
		want []string
	}{
		{"numeric", []Selector{Numeric()}, []string{"kcal", "fat"}},
		{"exclude", []Selector{Exclude("name", "fat")}, []string{"group", "kcal"}},
		{"contains", []Selector{Contains("a")}, []string{"name", "kcal", "fat"}},
		{"union keeps first order", []Selector{ByName("fat"), Numeric()}, []string{"fat", "kcal"}},
		{"except", []Selector{Except(All(), Numeric())}, []string{"name", "group"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Select(tt.sels...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Columns())
		})
	}

	_, err := f.Select(Contains("zzz"))
	assert.Equal(t, "SchemaMismatch", Kind(err))
}

func TestToMatrix(t *testing.T) {
	f := sampleFrame(t)

	_, err := f.ToMatrix()
	require.Error(t, err)
	assert.Equal(t, "IncompatibleCast", Kind(err))

	num, err := f.Select(Numeric())
	require.NoError(t, err)
	m, err := num.ToMatrix()
	require.NoError(t, err)
	require.Len(t, m, 4)
	assert.Equal(t, []float64{265, 3.2}, m[1])
	assert.True(t, math.IsNaN(m[3][0]))
}

func TestToMaps(t *testing.T) {
	maps := sampleFrame(t).ToMaps()
	require.Len(t, maps, 4)
	assert.Equal(t, "apple", maps[0]["name"])
	assert.Equal(t, int64(52), maps[0]["kcal"])
	assert.Nil(t, maps[3]["kcal"])
}

func TestHeadTailFilter(t *testing.T) {
	f := sampleFrame(t)

	assert.Equal(t, 2, f.Head(2).Height())
	assert.Equal(t, 4, f.Head(10).Height())

	tail := f.Tail(1)
	cell, err := tail.Cell(0, "name")
	require.NoError(t, err)
	assert.Equal(t, "dates", cell)

	fruit, err := f.Filter(func(r Row) bool { return r.Str("group") == "fruit" })
	require.NoError(t, err)
	assert.Equal(t, 2, fruit.Height())

	none, err := f.Filter(func(Row) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, 0, none.Height())
	assert.Equal(t, f.Columns(), none.Columns())
}

func TestRowUnknownColumn(t *testing.T) {
	f := sampleFrame(t)

	_, err := f.Filter(func(r Row) bool { return r.Str("nope") == "" })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.Contains(t, err.Error(), `"nope"`)

	visited := 0
	err = f.Rows(func(r Row) {
		visited++
		assert.True(t, math.IsNaN(r.Float("missing")))
		assert.True(t, r.IsNull("missing"))
		assert.Equal(t, "apple", r.Str("name"))
	})
	assert.Equal(t, "SchemaMismatch", Kind(err))
	assert.Equal(t, 1, visited)

	require.NoError(t, f.Rows(func(r Row) { _ = r.Float("kcal") }))
}

func TestSortNullsLast(t *testing.T) {
	f := sampleFrame(t)

	for _, desc := range []bool{false, true} {
		sorted, err := f.Sort("kcal", desc)
		require.NoError(t, err)
		last, err := sorted.Cell(3, "name")
		require.NoError(t, err)
		assert.Equal(t, "dates", last)

		first, err := sorted.Cell(0, "name")
		require.NoError(t, err)
		if desc {
			assert.Equal(t, "bread", first)
		} else {
			assert.Equal(t, "apple", first)
		}
		assert.Equal(t, f.Schema(), sorted.Schema())
	}

	byName, err := f.Sort("name", true)
	require.NoError(t, err)
	names, _ := byName.Column("name")
	assert.Equal(t, []string{"dates", "cod", "bread", "apple"}, names.Strings())

	_, err = f.Sort("nope", false)
	assert.Equal(t, "SchemaMismatch", Kind(err))

	empty, err := f.Head(0).Sort("kcal", false)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Height())
}

func TestSortStableTies(t *testing.T) {
	f, err := NewGota().FromColumns([]Column{
		{Name: "k", Values: []any{2, 1, 2, nil, 1}},
		{Name: "pos", Values: []any{0, 1, 2, 3, 4}},
	})
	require.NoError(t, err)

	for desc, want := range map[bool][]int64{
		false: {1, 4, 0, 2, 3},
		true:  {0, 2, 1, 4, 3},
	} {
		sorted, err := f.Sort("k", desc)
		require.NoError(t, err)
		pos := make([]int64, 0, 5)
		for _, m := range sorted.ToMaps() {
			pos = append(pos, m["pos"].(int64))
		}
		assert.Equal(t, want, pos, "descending=%v", desc)
	}
}

func TestWithColumnsAndExpressions(t *testing.T) {
	f := sampleFrame(t)
	kcal, err := f.Column("kcal")
	require.NoError(t, err)
	fat, err := f.Column("fat")
	require.NoError(t, err)

	logged := kcal.MapFloat("log_kcal", math.Log10)
	total, err := SumHorizontal("total", kcal, fat)
	require.NoError(t, err)

	out, err := f.WithColumns(logged, total)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "group", "kcal", "fat", "log_kcal", "total"}, out.Columns())

	lc, _ := out.Column("log_kcal")
	assert.True(t, lc.IsNull(3))
	tc, _ := out.Column("total")
	assert.InDelta(t, 0.4, tc.Floats()[3], 1e-9)

	short := Floats("short", []float64{1})
	_, err = f.WithColumns(short)
	assert.Equal(t, "ShapeMismatch", Kind(err))
}

func TestFloatsKeepInfinity(t *testing.T) {
	s := Floats("x", []float64{1, math.Inf(-1), math.NaN(), math.Inf(1)})
	assert.False(t, s.IsNull(1))
	assert.True(t, s.IsNull(2))
	assert.False(t, s.IsNull(3))
	assert.Equal(t, []any{1.0, math.Inf(-1), nil, math.Inf(1)}, s.Values())

	logged := s.MapFloat("log", math.Log10)
	assert.True(t, math.IsInf(logged.Floats()[3], 1))
	assert.True(t, logged.IsNull(2))
}

func TestGroupBy(t *testing.T) {
	f := sampleFrame(t)

	g, err := f.GroupBy("group").Agg(MeanOf("fat", "mean_fat"), CountRows("n"), ListOf("name", "names", ","))
	require.NoError(t, err)
	assert.Equal(t, []string{"group", "mean_fat", "n", "names"}, g.Columns())
	require.Equal(t, 3, g.Height())

	maps := g.ToMaps()
	assert.Equal(t, "cereal", maps[0]["group"])
	assert.Equal(t, "fruit", maps[2]["group"])
	assert.InDelta(t, 0.3, maps[2]["mean_fat"].(float64), 1e-9)
	assert.Equal(t, int64(2), maps[2]["n"])
	assert.Equal(t, "apple,dates", maps[2]["names"])

	mean, err := f.GroupBy("group").Mean()
	require.NoError(t, err)
	assert.Equal(t, []string{"group", "kcal", "fat"}, mean.Columns())
	m := mean.ToMaps()
	assert.InDelta(t, 52.0, m[2]["kcal"].(float64), 1e-9)

	_, err = f.GroupBy("nope").Mean()
	assert.Equal(t, "SchemaMismatch", Kind(err))
}

func TestJoin(t *testing.T) {
	f := sampleFrame(t)
	labels, err := NewGota().FromColumns([]Column{
		{Name: "group", Values: []any{"fruit", "fish"}},
		{Name: "label", Values: []any{"sweet", "sea"}},
	})
	require.NoError(t, err)

	inner, err := f.Join(labels, Inner, "group")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.Height())
	assert.Equal(t, []string{"name", "group", "kcal", "fat", "label"}, inner.Columns())

	left, err := f.Join(labels, Left, "group")
	require.NoError(t, err)
	assert.Equal(t, 4, left.Height())
	var missing int
	require.NoError(t, left.Rows(func(r Row) {
		if r.IsNull("label") {
			missing++
		}
	}))
	assert.Equal(t, 1, missing)

	vocab, err := NewGota().FromColumns([]Column{{Name: "tag", Values: []any{"a", "b", "c"}}})
	require.NoError(t, err)
	cross, err := labels.Join(vocab, Cross)
	require.NoError(t, err)
	assert.Equal(t, 6, cross.Height())

	_, err = f.Join(labels, Inner)
	assert.Equal(t, "SchemaMismatch", Kind(err))
}

func TestUniqueAndFillNull(t *testing.T) {
	f := sampleFrame(t)
	u, err := f.Unique("group")
	require.NoError(t, err)
	col, _ := u.Column("group")
	assert.Equal(t, []string{"fruit", "cereal", "fish"}, col.Strings())

	nullable, err := NewGota().FromColumns([]Column{{Name: "s", Values: []any{"b", nil, "a", "b", nil}}})
	require.NoError(t, err)
	u, err = nullable.Unique("s")
	require.NoError(t, err)
	col, _ = u.Column("s")
	require.Equal(t, 3, col.Len())
	assert.Equal(t, "b", col.Strings()[0])
	assert.Equal(t, "a", col.Strings()[2])
	assert.True(t, col.IsNull(1))

	_, err = f.Unique("nope")
	assert.Equal(t, "SchemaMismatch", Kind(err))

	withNull, err := NewGota().FromColumns([]Column{{Name: "s", Values: []any{"x", nil}}})
	require.NoError(t, err)
	filled, err := withNull.FillNull("s", "")
	require.NoError(t, err)
	c, _ := filled.Column("s")
	assert.False(t, c.IsNull(1))

	_, err = f.FillNull("kcal", "0")
	assert.Equal(t, "TypeMismatch", Kind(err))
}

func TestGlimpse(t *testing.T) {
	out := sampleFrame(t).Glimpse()
	assert.Contains(t, out, "Rows: 4")
	assert.Contains(t, out, "Columns: 4")
	assert.Contains(t, out, `<str> "apple"`)
	assert.Contains(t, out, "<i64> 52, 265, 82, null")
}
