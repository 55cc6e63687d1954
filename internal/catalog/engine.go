package catalog

import (
	"sync"
	"time"
)

// FilterState is the user-controlled part of a catalog view.
type FilterState struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// View is everything needed to render one catalog page.
type View struct {
	FilterState
	Products   []Product `json:"products"`
	TotalItems int       `json:"total_items"`
	TotalPages int       `json:"total_pages"`
	Categories []string  `json:"categories"`
	Pager      Pager     `json:"pager"`
}

// Engine derives filtered and paginated views from a collection fetched once.
// The match set is recomputed from the full collection on every filter
// change; there is no incremental index.
type Engine struct {
	mu       sync.Mutex
	all      []Product
	search   string
	category string
	page     int
	pageSize int
	matched  []Product
	cats     []string

	typing *Debouncer[string]
}

type EngineOption func(*engineConfig)

type engineConfig struct {
	pageSize int
	delay    time.Duration
	after    AfterFunc
}

func WithPageSize(n int) EngineOption {
	return func(c *engineConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithSearchDebounce sets the quiet period for TypeSearch and, optionally,
// the timer factory used to schedule it.
func WithSearchDebounce(d time.Duration, after AfterFunc) EngineOption {
	return func(c *engineConfig) {
		c.delay = d
		c.after = after
	}
}

func NewEngine(products []Product, opts ...EngineOption) *Engine {
	cfg := engineConfig{pageSize: DefaultPageSize, delay: DefaultSearchDebounce}
	for _, o := range opts {
		o(&cfg)
	}

	e := &Engine{
		category: AllCategories,
		page:     1,
		pageSize: cfg.pageSize,
	}
	e.typing = NewDebouncer(cfg.delay, cfg.after, e.SetSearch)
	e.setProductsLocked(products)
	return e
}

// SetProducts replaces the collection, e.g. after a retried fetch. The
// filters are kept and the page goes back to 1.
func (e *Engine) SetProducts(products []Product) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setProductsLocked(products)
}

func (e *Engine) setProductsLocked(products []Product) {
	e.all = append([]Product(nil), products...)
	e.cats = Categories(e.all)
	e.refilterLocked()
}

// SetSearch applies search text immediately. A change resets to page 1.
func (e *Engine) SetSearch(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if text == e.search {
		return
	}
	e.search = text
	e.refilterLocked()
}

// TypeSearch records a keystroke-level search value; it is applied once the
// input has been quiet for the debounce delay.
func (e *Engine) TypeSearch(text string) {
	e.typing.Push(text)
}

// FlushSearch applies pending typed input now.
func (e *Engine) FlushSearch() bool {
	return e.typing.Flush()
}

// PendingSearch returns typed input that has not been applied yet.
func (e *Engine) PendingSearch() (string, bool) {
	return e.typing.Pending()
}

// SetCategory selects a category, or AllCategories. A change resets to page 1.
func (e *Engine) SetCategory(cat string) {
	if cat == "" {
		cat = AllCategories
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if cat == e.category {
		return
	}
	e.category = cat
	e.refilterLocked()
}

// SetPage moves to page n, clamped into the valid range.
func (e *Engine) SetPage(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.page = ClampPage(n, TotalPages(len(e.matched), e.pageSize))
}

// SetPageSize changes the page size and resets to page 1.
func (e *Engine) SetPageSize(n int) {
	if n <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if n == e.pageSize {
		return
	}
	e.pageSize = n
	e.page = 1
}

func (e *Engine) refilterLocked() {
	e.matched = Filter(e.all, e.search, e.category)
	e.page = 1
}

// VisibleProducts returns the products of the current page.
func (e *Engine) VisibleProducts() []Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return PageSlice(e.matched, e.page, e.pageSize)
}

func (e *Engine) TotalPages() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return TotalPages(len(e.matched), e.pageSize)
}

func (e *Engine) State() FilterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() FilterState {
	return FilterState{
		Search:   e.search,
		Category: e.category,
		Page:     e.page,
		PageSize: e.pageSize,
	}
}

// Categories returns the category options: "all" then each observed category.
func (e *Engine) Categories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.cats...)
}

func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := TotalPages(len(e.matched), e.pageSize)
	return View{
		FilterState: e.stateLocked(),
		Products:    PageSlice(e.matched, e.page, e.pageSize),
		TotalItems:  len(e.matched),
		TotalPages:  total,
		Categories:  append([]string(nil), e.cats...),
		Pager:       PageWindow(e.page, total),
	}
}

// Lookup returns the products whose ids (as decimal strings) are listed, in
// the order given. Unknown ids are skipped.
func (e *Engine) Lookup(ids []string) []Product {
	e.mu.Lock()
	defer e.mu.Unlock()

	byID := make(map[string]Product, len(e.all))
	for _, p := range e.all {
		byID[p.Key()] = p
	}

	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Len is the size of the full collection.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.all)
}
