package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
)

const productColumns = `p.id, p.name, p.slug, p.price, p.list_price, p.description, p.category,
	p.featured, p.new, p.on_sale, p.image_thumbnail, p.image_medium, p.image_large`

const (
	listProductsSQL = `SELECT ` + productColumns + `
		FROM products p
		WHERE ($1 = FALSE OR p.featured)
		  AND ($2 = FALSE OR p.new)
		  AND ($3 = 0 OR p.category = $3)
		ORDER BY p.id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	getProductBySlugSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.slug = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1) ORDER BY p.id`

	searchProductsSQL = `SELECT ` + productColumns + `, ts_rank(p.search_vector, q)::float8 AS rank
		FROM products p, websearch_to_tsquery('english', $1) q
		WHERE p.search_vector @@ q
		  AND ($2 = 0 OR p.category = $2)`

	listByCategorySQL = `SELECT ` + productColumns + `
		FROM products p
		WHERE p.category = $1 AND p.id <> $2
		ORDER BY p.id`

	upsertProductSQL = `INSERT INTO products (name, slug, price, list_price, description, category,
			featured, new, on_sale, image_thumbnail, image_medium, image_large)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			list_price = EXCLUDED.list_price,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			featured = EXCLUDED.featured,
			new = EXCLUDED.new,
			on_sale = EXCLUDED.on_sale,
			image_thumbnail = EXCLUDED.image_thumbnail,
			image_medium = EXCLUDED.image_medium,
			image_large = EXCLUDED.image_large
		RETURNING id`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ product.Writer     = (*ProductRepository)(nil)
)

// ProductRepository implements product.Repository and product.Writer backed
// by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the catalog ordered by ID, narrowed by filter.
func (r *ProductRepository) List(ctx context.Context, filter product.ListFilter) ([]product.Product, error) {
	category := int16(0)
	if filter.Category.Valid() {
		category = int16(filter.Category)
	}
	rows, err := r.pool.Query(ctx, listProductsSQL, filter.Featured, filter.New, category)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return r.getOne(ctx, getProductByIDSQL, id)
}

// GetBySlug returns a single product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.getOne(ctx, getProductBySlugSQL, slug)
}

func (r *ProductRepository) getOne(ctx context.Context, sql string, key any) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, key)
	if err != nil {
		return nil, fmt.Errorf("getting product %v: %w", key, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %v: %w", key, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	return productsByIDs(ctx, r.pool, getProductsByIDsSQL, ids)
}

func productsByIDs(ctx context.Context, q querier, sql string, ids []int64) ([]product.Product, error) {
	rows, err := q.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Search returns full-text matches for query with their ts_rank, name
// weighted above description.
func (r *ProductRepository) Search(ctx context.Context, query string, category product.Category) ([]product.Match, error) {
	cat := int16(0)
	if category.Valid() {
		cat = int16(category)
	}
	rows, err := r.pool.Query(ctx, searchProductsSQL, query, cat)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Match, error) {
		var m product.Match
		err := row.Scan(append(productDest(&m.Product), &m.Rank)...)
		return m, err
	})
}

// ListByCategory returns products of category except excludeID.
func (r *ProductRepository) ListByCategory(ctx context.Context, category product.Category, excludeID int64) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listByCategorySQL, int16(category), excludeID)
	if err != nil {
		return nil, fmt.Errorf("listing category %d: %w", category, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Upsert inserts p or updates the product with the same slug. The slug is
// always rederived from the name.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid product %q: %w", p.Name, err)
	}
	err := r.pool.QueryRow(ctx, upsertProductSQL,
		p.Name, p.Slug, p.Price, p.ListPrice, p.Description, int16(p.Category),
		p.Featured, p.New, p.OnSale,
		p.Images.Thumbnail, p.Images.Medium, p.Images.Large,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.Slug, err)
	}
	return nil
}

// Delete removes a product. Products referenced by an order item are
// protected by the foreign key and yield product.ErrInUse.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return product.ErrInUse
		}
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func productDest(p *product.Product) []any {
	return []any{
		&p.ID, &p.Name, &p.Slug, &p.Price, &p.ListPrice, &p.Description, &p.Category,
		&p.Featured, &p.New, &p.OnSale,
		&p.Images.Thumbnail, &p.Images.Medium, &p.Images.Large,
	}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(productDest(&p)...)
	return p, err
}
