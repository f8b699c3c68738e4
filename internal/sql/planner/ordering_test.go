package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/sql/expr"
)

func TestIsSortingIndex(t *testing.T) {
	f := newFixture(t)
	p := f.table("p")
	pxy, pz := p.Indexes[0], p.Indexes[1]
	require.Equal(t, "p_xy", pxy.Name)
	require.Equal(t, "p_z", pz.Name)

	ms := NewMaskSet(64)
	for _, c := range []int{0, 1} {
		_, err := ms.Register(c)
		require.NoError(t, err)
	}
	x := f.col(0, "p", "x")
	y := f.col(0, "p", "y")
	z := f.col(0, "p", "z")
	id := f.col(0, "p", "id")
	other := f.col(1, "t", "v")

	asc := func(e *expr.ColumnRef) OrderTerm { return OrderTerm{Expr: e} }
	desc := func(e *expr.ColumnRef) OrderTerm { return OrderTerm{Expr: e, Desc: true} }

	tests := []struct {
		name    string
		index   int // 0 for p_xy, 1 for p_z
		orderBy []OrderTerm
		nEq     int
		ok      bool
		reverse bool
	}{
		{"index order", 0, []OrderTerm{asc(x), asc(y)}, 0, true, false},
		{"reversed", 0, []OrderTerm{desc(x), desc(y)}, 0, true, true},
		{"mixed directions", 0, []OrderTerm{asc(x), desc(y)}, 0, false, false},
		{"prefix of the index", 0, []OrderTerm{asc(x)}, 0, true, false},
		{"skips pinned column", 0, []OrderTerm{asc(y)}, 1, true, false},
		{"pinned column direction is free", 0, []OrderTerm{desc(x), asc(y)}, 1, true, false},
		{"second column without pin", 0, []OrderTerm{asc(y)}, 0, false, false},
		{"unique index ends the order", 0, []OrderTerm{asc(x), asc(y), asc(z)}, 0, true, false},
		{"other table after unique key", 0, []OrderTerm{asc(x), asc(y), asc(other)}, 0, false, false},
		{"other table first", 0, []OrderTerm{asc(other)}, 0, false, false},
		{"descending index", 1, []OrderTerm{asc(z)}, 0, true, true},
		{"descending index reversed", 1, []OrderTerm{desc(z)}, 0, true, false},
		{"rowid tiebreak agrees", 1, []OrderTerm{asc(z), desc(id)}, 0, true, true},
		{"rowid tiebreak disagrees", 1, []OrderTerm{asc(z), asc(id)}, 0, false, false},
		{"non-unique index stops at rowid", 1, []OrderTerm{asc(z), desc(id), asc(x)}, 0, true, true},
		{"non-unique index without rowid", 1, []OrderTerm{asc(z), asc(x)}, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index := pxy
			if tt.index == 1 {
				index = pz
			}
			reverse, ok := ms.IsSortingIndex(index, p, 0, tt.orderBy, tt.nEq)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.reverse, reverse)
			}
		})
	}
}

func TestIsSortingIndex_Collation(t *testing.T) {
	f := newFixture(t)
	w := f.table("w")
	ms := NewMaskSet(64)
	_, err := ms.Register(0)
	require.NoError(t, err)
	x := f.col(0, "w", "x")

	_, ok := ms.IsSortingIndex(w.Indexes[0], w, 0, []OrderTerm{{Expr: x}}, 0)
	assert.True(t, ok)
	_, ok = ms.IsSortingIndex(w.Indexes[0], w, 0, []OrderTerm{{Expr: x, Collation: "binary"}}, 0)
	assert.False(t, ok)
	_, ok = ms.IsSortingIndex(w.Indexes[0], w, 0, []OrderTerm{{Expr: x, Collation: "nocase"}}, 0)
	assert.True(t, ok)
}

func TestSortableByRowid(t *testing.T) {
	f := newFixture(t)
	ms := NewMaskSet(64)
	for _, c := range []int{0, 1} {
		_, err := ms.Register(c)
		require.NoError(t, err)
	}
	id := f.col(0, "p", "id")
	x := f.col(0, "p", "x")
	other := f.col(1, "t", "v")

	rev, ok := ms.SortableByRowid(0, []OrderTerm{{Expr: id}})
	assert.True(t, ok)
	assert.False(t, rev)

	rev, ok = ms.SortableByRowid(0, []OrderTerm{{Expr: id, Desc: true}, {Expr: x}})
	assert.True(t, ok)
	assert.True(t, rev)

	_, ok = ms.SortableByRowid(0, []OrderTerm{{Expr: id}, {Expr: other}})
	assert.False(t, ok)
	_, ok = ms.SortableByRowid(0, []OrderTerm{{Expr: x}})
	assert.False(t, ok)
	_, ok = ms.SortableByRowid(1, []OrderTerm{{Expr: id}})
	assert.False(t, ok)
	_, ok = ms.SortableByRowid(0, nil)
	assert.False(t, ok)
}
