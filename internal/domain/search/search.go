package search

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/samber/lo"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	// RelevanceFloor is the rank a full-text hit must exceed to be returned.
	RelevanceFloor = 0.1
	// MaxRecommendations caps the size of a recommendation list.
	MaxRecommendations = 4
)

// BadRequestError is returned for recommendation requests that cannot be
// served.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return "bad request: " + e.Reason
}

// ShuffleFunc permutes products in place.
type ShuffleFunc func([]product.Product)

// RandomShuffle shuffles with the process-wide math/rand/v2 source.
func RandomShuffle(ps []product.Product) {
	rand.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
}

// Service ranks and filters catalog products.
type Service struct {
	products product.Repository
	shuffle  ShuffleFunc
}

// Option configures a Service.
type Option func(*Service)

// WithShuffle replaces the recommendation shuffle.
func WithShuffle(fn ShuffleFunc) Option {
	return func(s *Service) { s.shuffle = fn }
}

// NewService creates a search Service.
func NewService(products product.Repository, opts ...Option) *Service {
	s := &Service{
		products: products,
		shuffle:  RandomShuffle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns products matching query. An empty query lists the whole
// catalog ordered by id. rawCategory limits results to one category when it
// parses as a valid code and is ignored otherwise.
func (s *Service) Search(ctx context.Context, query, rawCategory string) ([]product.Product, error) {
	category, _ := product.ParseCategory(rawCategory)

	query = strings.TrimSpace(query)
	if query == "" {
		ps, err := s.products.List(ctx, product.ListFilter{Category: category})
		if err != nil {
			return nil, errors.Wrap(err, "list products")
		}
		return ps, nil
	}

	matches, err := s.products.Search(ctx, query, category)
	if err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	return Rank(matches, category), nil
}

// Rank drops hits at or below RelevanceFloor and outside category (when
// valid), then orders by descending rank with ties broken by id.
func Rank(matches []product.Match, category product.Category) []product.Product {
	kept := lo.Filter(matches, func(m product.Match, _ int) bool {
		if category.Valid() && m.Product.Category != category {
			return false
		}
		return m.Rank > RelevanceFloor
	})
	slices.SortStableFunc(kept, func(a, b product.Match) int {
		if c := cmp.Compare(b.Rank, a.Rank); c != 0 {
			return c
		}
		return cmp.Compare(a.Product.ID, b.Product.ID)
	})
	return lo.Map(kept, func(m product.Match, _ int) product.Product {
		return m.Product
	})
}

// Recommendations returns up to MaxRecommendations other products from the
// category of id in random order.
func (s *Service) Recommendations(ctx context.Context, id int64) ([]product.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, &BadRequestError{Reason: "product does not exist"}
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}

	related, err := s.products.ListByCategory(ctx, p.Category, p.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list related products")
	}
	related = lo.Reject(related, func(r product.Product, _ int) bool {
		return r.ID == p.ID
	})
	s.shuffle(related)
	if len(related) > MaxRecommendations {
		related = related[:MaxRecommendations]
	}
	return related, nil
}
