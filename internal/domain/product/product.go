package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups and writes.
var (
	ErrNotFound = errors.New("product not found")
	ErrInUse    = errors.New("product is referenced by an order")
)

// MaxQuantity bounds the units of one product in a cart line or order line.
const MaxQuantity = 1000

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Name        string
	Slug        string
	Price       decimal.Decimal
	ListPrice   decimal.Decimal
	Description string
	Category    Category
	Featured    bool
	New         bool
	OnSale      bool
	Images      ImageSet
}

// ImageSet holds object-store keys of the product image renditions.
type ImageSet struct {
	Thumbnail string // 100x100
	Medium    string // 690x400
	Large     string // 1920x1080
}

// ListFilter narrows List results. Zero values disable a condition.
type ListFilter struct {
	Featured bool
	New      bool
	Category Category
}

// Match is a full-text search hit.
type Match struct {
	Product Product
	Rank    float64
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	// Search returns every product whose search vector matches query,
	// restricted to category when it is valid. Rank is not filtered.
	Search(ctx context.Context, query string, category Category) ([]Match, error)
	// ListByCategory returns products of category other than excludeID.
	ListByCategory(ctx context.Context, category Category, excludeID int64) ([]Product, error)
}

// Writer defines catalog mutations.
type Writer interface {
	// Upsert inserts p or updates the product with the same slug, setting p.ID.
	Upsert(ctx context.Context, p *Product) error
	// Delete removes a product. Returns ErrInUse when an order item references it.
	Delete(ctx context.Context, id int64) error
}

// Normalize derives the slug from the name. Call before every write.
func (p *Product) Normalize() {
	p.Slug = Slugify(p.Name)
}

// Validate checks catalog invariants.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return errors.New("name required")
	case p.Slug == "":
		return errors.Errorf("name %q yields an empty slug", p.Name)
	case p.Price.IsNegative():
		return errors.Errorf("price %s must not be negative", p.Price)
	case p.ListPrice.IsNegative():
		return errors.Errorf("list price %s must not be negative", p.ListPrice)
	case !p.Category.Valid():
		return errors.Errorf("invalid category %d", p.Category)
	case p.Slug != Slugify(p.Name):
		return errors.Errorf("slug %q does not match name %q", p.Slug, p.Name)
	}
	return nil
}
