package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[int]Product
}

// NewMemStore returns a store holding ps. Invalid products are rejected.
func NewMemStore(ps ...Product) (*MemStore, error) {
	s := &MemStore{m: make(map[int]Product, len(ps))}
	for _, p := range ps {
		if err := validProduct(p); err != nil {
			return nil, fmt.Errorf("product %d: %w", p.ID, err)
		}
		s.m[p.ID] = p
	}
	return s, nil
}

// NewSeededStore is the in-memory store used when no database is configured.
func NewSeededStore() *MemStore {
	s, err := NewMemStore(SeedProducts()...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) ListSortedByID(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

// SeedProducts is the demo collection.
func SeedProducts() []Product {
	return []Product{
		seed(1, "Fjallraven Foldsack No. 1 Backpack", "109.95", "Your perfect pack for everyday use and walks in the forest. Stash your laptop (up to 15 inches) in the padded sleeve.", "men's clothing", 3.9, 120),
		seed(2, "Mens Casual Premium Slim Fit T-Shirts", "22.3", "Slim-fitting style, contrast raglan long sleeve, three-button henley placket, light weight and soft fabric.", "men's clothing", 4.1, 259),
		seed(3, "Mens Cotton Jacket", "55.99", "Great outerwear jacket for Spring, Autumn and Winter, suitable for many occasions, such as working, hiking, camping.", "men's clothing", 4.7, 500),
		seed(4, "Mens Casual Slim Fit", "15.99", "The color could be slightly different between on the screen and in practice. Please note that body builds vary by person.", "men's clothing", 2.1, 430),
		seed(5, "John Hardy Women's Legends Naga Bracelet", "695", "From our Legends Collection, the Naga was inspired by the mythical water dragon that protects the ocean's pearl.", "jewelery", 4.6, 400),
		seed(6, "Solid Gold Petite Micropave", "168", "Satisfaction guaranteed. Return or exchange any order within 30 days.", "jewelery", 3.9, 70),
		seed(7, "White Gold Plated Princess", "9.99", "Classic created wedding engagement solitaire diamond promise ring for her.", "jewelery", 3, 400),
		seed(8, "Pierced Owl Rose Gold Plated Stainless Steel Double", "10.99", "Rose gold plated double flared tunnel plug earrings. Made of 316L stainless steel.", "jewelery", 1.9, 100),
		seed(9, "WD 2TB Elements Portable External Hard Drive", "64", "USB 3.0 and USB 2.0 compatibility, fast data transfers, improve PC performance, high capacity.", "electronics", 3.3, 203),
		seed(10, "SanDisk SSD PLUS 1TB Internal SSD", "109", "Easy upgrade for faster boot up, shutdown, application load and response.", "electronics", 2.9, 470),
		seed(11, "Silicon Power 256GB SSD 3D NAND", "109", "3D NAND flash are applied to deliver high transfer speeds. Remarkable transfer speeds that enable faster bootup.", "electronics", 4.8, 319),
		seed(12, "WD 4TB Gaming Drive Works with Playstation 4", "114", "Expand your PS4 gaming experience, play anywhere. Fast and easy setup.", "electronics", 4.8, 400),
		seed(13, "Acer SB220Q 21.5 inch Full HD IPS Ultra-Thin Monitor", "599", "21.5 inches Full HD widescreen IPS display and Radeon free sync technology.", "electronics", 2.9, 250),
		seed(14, "Samsung 49-Inch CHG90 Curved Gaming Monitor", "999.99", "49 inch super ultrawide 32:9 curved gaming monitor with dual 27 inch screen side by side.", "electronics", 2.2, 140),
		seed(15, "BIYLACLESEN Women's 3-in-1 Snowboard Jacket", "56.99", "Detachable liner fabric: warm fleece. Detachable functional liner for skiing.", "women's clothing", 2.6, 235),
		seed(16, "Lock and Love Women's Removable Hooded Faux Leather Moto Biker Jacket", "29.95", "100% polyurethane shell, 100% polyester lining, faux leather material for style and comfort.", "women's clothing", 2.9, 340),
		seed(17, "Rain Jacket Women Windbreaker Striped Climbing Raincoats", "39.99", "Lightweight perfect for trip or casual wear. Long sleeve with hooded, adjustable drawstring waist design.", "women's clothing", 3.8, 679),
		seed(18, "MBJ Women's Solid Short Sleeve Boat Neck V", "9.85", "95% rayon 5% spandex, made in USA or imported, lightweight fabric with great stretch for comfort.", "women's clothing", 4.7, 130),
		seed(19, "Opna Women's Short Sleeve Moisture", "7.95", "100% polyester, machine wash, lightweight, roomy and highly breathable shirt with moisture wicking fabric.", "women's clothing", 4.5, 146),
		seed(20, "DANVOUY Womens T Shirt Casual Cotton Short", "12.99", "95% cotton 5% spandex, casual, short sleeve, letter print, v-neck, fashion tees.", "women's clothing", 3.6, 145),
	}
}

func seed(id int, title, price, desc, category string, rate float64, count int) Product {
	return Product{
		ID:          id,
		Title:       title,
		Price:       decimal.RequireFromString(price),
		Description: desc,
		Category:    category,
		Image:       fmt.Sprintf("https://fakestoreapi.com/img/%d.jpg", id),
		Rating:      Rating{Rate: rate, Count: count},
	}
}
