package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_TwoPages(t *testing.T) {
	e := NewEngine(makeProducts(14, "a"))

	v := e.Snapshot()
	assert.Equal(t, 14, v.TotalItems)
	assert.Equal(t, 2, v.TotalPages)
	assert.Len(t, v.Products, 12)
	assert.True(t, v.Pager.Visible)

	e.SetPage(2)
	page2 := e.VisibleProducts()
	require.Len(t, page2, 2)
	assert.Equal(t, 13, page2[0].ID)
	assert.Equal(t, 14, page2[1].ID)
}

func TestEngine_SearchResetsPage(t *testing.T) {
	ps := makeProducts(30, "men's clothing")
	ps[27].Title = "Casual Shirt"
	e := NewEngine(ps)

	e.SetPage(3)
	require.Equal(t, 3, e.State().Page)

	e.SetSearch("shirt")
	st := e.State()
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, "shirt", st.Search)

	got := e.VisibleProducts()
	require.Len(t, got, 1)
	assert.Equal(t, 28, got[0].ID)
	assert.Equal(t, 1, e.TotalPages())
}

func TestEngine_SameSearchKeepsPage(t *testing.T) {
	e := NewEngine(makeProducts(30, "a"))
	e.SetSearch("item")
	e.SetPage(2)

	e.SetSearch("item")
	assert.Equal(t, 2, e.State().Page)

	e.SetCategory("all")
	assert.Equal(t, 2, e.State().Page)
}

func TestEngine_CategoryFilter(t *testing.T) {
	ps := append(makeProducts(3, "jewelery"), Product{ID: 50, Title: "Monitor", Category: "electronics"})
	e := NewEngine(ps)

	assert.Equal(t, []string{"all", "jewelery", "electronics"}, e.Categories())

	e.SetCategory("electronics")
	got := e.VisibleProducts()
	require.Len(t, got, 1)
	assert.Equal(t, 50, got[0].ID)

	e.SetCategory("")
	assert.Equal(t, AllCategories, e.State().Category)
	assert.Len(t, e.VisibleProducts(), 4)
}

func TestEngine_PageClamped(t *testing.T) {
	e := NewEngine(makeProducts(14, "a"))

	e.SetPage(99)
	assert.Equal(t, 2, e.State().Page)

	e.SetPage(-1)
	assert.Equal(t, 1, e.State().Page)
}

func TestEngine_EmptyResult(t *testing.T) {
	e := NewEngine(makeProducts(5, "a"))
	e.SetSearch("nothing matches this")

	v := e.Snapshot()
	assert.Empty(t, v.Products)
	assert.Equal(t, 0, v.TotalItems)
	assert.Equal(t, 0, v.TotalPages)
	assert.Equal(t, 1, v.Page)
	assert.False(t, v.Pager.Visible)
}

func TestEngine_EveryMatchOnExactlyOnePage(t *testing.T) {
	e := NewEngine(SeedProducts(), WithPageSize(3))
	e.SetSearch("e")

	seen := map[int]int{}
	total := e.TotalPages()
	for p := 1; p <= total; p++ {
		e.SetPage(p)
		for _, prod := range e.VisibleProducts() {
			seen[prod.ID]++
		}
	}

	want := Filter(SeedProducts(), "e", AllCategories)
	assert.Len(t, seen, len(want))
	for _, p := range want {
		assert.Equal(t, 1, seen[p.ID], "product %d", p.ID)
	}
}

func TestEngine_TypeSearchDebounced(t *testing.T) {
	var timers manualTimers
	ps := makeProducts(20, "a")
	ps[4].Title = "Linen shirt"
	e := NewEngine(ps, WithSearchDebounce(300*time.Millisecond, timers.AfterFunc))
	e.SetPage(2)

	e.TypeSearch("sh")
	e.TypeSearch("shirt")

	assert.Equal(t, "", e.State().Search)
	assert.Equal(t, 2, e.State().Page)
	pending, ok := e.PendingSearch()
	assert.True(t, ok)
	assert.Equal(t, "shirt", pending)

	timers.fireAll()

	st := e.State()
	assert.Equal(t, "shirt", st.Search)
	assert.Equal(t, 1, st.Page)
	assert.Len(t, e.VisibleProducts(), 1)
}

func TestEngine_FlushSearch(t *testing.T) {
	var timers manualTimers
	e := NewEngine(makeProducts(3, "a"), WithSearchDebounce(time.Minute, timers.AfterFunc))

	e.TypeSearch("item 2")
	require.True(t, e.FlushSearch())
	assert.Equal(t, "item 2", e.State().Search)
	assert.Len(t, e.VisibleProducts(), 1)
	assert.False(t, e.FlushSearch())
}

func TestEngine_SetProductsKeepsFilters(t *testing.T) {
	e := NewEngine(nil)
	e.SetCategory("jewelery")
	assert.Equal(t, 0, e.Len())

	e.SetProducts(SeedProducts())
	assert.Equal(t, 20, e.Len())
	assert.Equal(t, "jewelery", e.State().Category)
	assert.Len(t, e.VisibleProducts(), 4)
}

func TestEngine_SetPageSize(t *testing.T) {
	e := NewEngine(makeProducts(14, "a"))
	e.SetPage(2)

	e.SetPageSize(5)
	assert.Equal(t, 1, e.State().Page)
	assert.Equal(t, 3, e.TotalPages())

	e.SetPageSize(0)
	assert.Equal(t, 5, e.State().PageSize)
}

func TestEngine_Lookup(t *testing.T) {
	e := NewEngine(SeedProducts())

	got := e.Lookup([]string{"5", "999", "1", "abc"})
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
}
