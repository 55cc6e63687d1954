package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"FashionHub/pkg/kit"
)

type PostgresStore struct {
	db kit.DB
}

func NewPostgresStore(db kit.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const productColumns = `id, title, price, description, category, image, rating_rate, rating_count`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return kit.WithTimeout(ctx, kit.PingTimeout, s.db.Ping)
}

func (s *PostgresStore) ListSortedByID(ctx context.Context) ([]Product, error) {
	var out []Product

	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		rows, err := s.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 32)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Product, bool, error) {
	var p Product

	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, true, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Price, &p.Description, &p.Category, &p.Image,
		&p.Rating.Rate, &p.Rating.Count)
	return p, err
}
