package catalog

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Product is one catalog entry as served by the catalog source. Products are
// immutable once fetched.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
}

// Rating is the average score in [0,5] and the number of raters.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Key is the product id in the string form lists and URLs use.
func (p Product) Key() string {
	return strconv.Itoa(p.ID)
}
