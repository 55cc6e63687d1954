package catalog

import "strings"

// AllCategories is the category sentinel meaning "no category filter".
const AllCategories = "all"

// DefaultPageSize is the number of products shown per page.
const DefaultPageSize = 12

// maxPagerLinks is how many numbered links the pager shows before it
// collapses ranges into ellipses.
const maxPagerLinks = 5

// Matches reports whether p passes the search text and category filters.
// Search is a case-insensitive substring test against title or description.
func Matches(p Product, search, category string) bool {
	if category != AllCategories && category != "" && p.Category != category {
		return false
	}
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// Filter returns the products matching search and category, in input order.
func Filter(ps []Product, search, category string) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		if Matches(p, search, category) {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists "all" followed by each distinct category in first-seen
// order.
func Categories(ps []Product) []string {
	seen := make(map[string]struct{}, 8)
	out := []string{AllCategories}
	for _, p := range ps {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// TotalPages is ceil(n/size), and 0 for an empty set.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// ClampPage keeps page within [1, max(1,totalPages)].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// PageSlice returns the products of 1-based page. Out-of-range pages are
// empty.
func PageSlice(ps []Product, page, size int) []Product {
	if page < 1 || size <= 0 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(ps) {
		return nil
	}
	end := min(start+size, len(ps))

	out := make([]Product, end-start)
	copy(out, ps[start:end])
	return out
}

// PageLink is one entry of the pager; Ellipsis entries have no Number.
type PageLink struct {
	Number   int  `json:"number,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Pager describes the pagination control. It is hidden for one page or less.
type Pager struct {
	Visible bool       `json:"visible"`
	HasPrev bool       `json:"has_prev"`
	HasNext bool       `json:"has_next"`
	Links   []PageLink `json:"links,omitempty"`
}

// PageWindow builds the pager for current out of total pages.
func PageWindow(current, total int) Pager {
	if total <= 1 {
		return Pager{}
	}

	var nums []int
	switch {
	case total <= maxPagerLinks:
		nums = seq(1, total)
	case current <= 3:
		nums = append(seq(1, 4), 0, total)
	case current >= total-2:
		nums = append([]int{1, 0}, seq(total-3, total)...)
	default:
		nums = append(append([]int{1, 0}, seq(current-1, current+1)...), 0, total)
	}

	links := make([]PageLink, 0, len(nums))
	for _, n := range nums {
		if n == 0 {
			links = append(links, PageLink{Ellipsis: true})
			continue
		}
		links = append(links, PageLink{Number: n, Current: n == current})
	}

	return Pager{
		Visible: true,
		HasPrev: current > 1,
		HasNext: current < total,
		Links:   links,
	}
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
