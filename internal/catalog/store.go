package catalog

import (
	"context"
	"errors"
)

var ErrInvalidProduct = errors.New("invalid product")

type Store interface {
	Ping(ctx context.Context) error
	ListSortedByID(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int) (Product, bool, error)
}

func validProduct(p Product) error {
	switch {
	case p.ID <= 0:
		return errors.Join(ErrInvalidProduct, errors.New("id must be positive"))
	case p.Price.IsNegative():
		return errors.Join(ErrInvalidProduct, errors.New("price must not be negative"))
	case p.Rating.Rate < 0 || p.Rating.Rate > 5:
		return errors.Join(ErrInvalidProduct, errors.New("rating must be within [0,5]"))
	case p.Rating.Count < 0:
		return errors.Join(ErrInvalidProduct, errors.New("rating count must not be negative"))
	}
	return nil
}
