package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/repository"
)

const productColumns = `id, name, description, price::text, category, image_url, stock, is_active, created_at, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// TryReserve decrements in a single conditional UPDATE, so two buyers of the
// last unit can never both succeed.
func (r *ProductRepository) TryReserve(ctx context.Context, id string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, catalog.ErrInvalidQuantity
	}

	const query = `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND is_active AND stock >= $2
		RETURNING stock;
	`
	var left int
	err := r.pool.QueryRow(ctx, query, id, quantity).Scan(&left)
	if err == nil {
		return left, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("reserve product %s: %w", id, err)
	}

	// Nothing updated: find out why.
	var active bool
	err = r.pool.QueryRow(ctx, `SELECT stock, is_active FROM products WHERE id = $1`, id).Scan(&left, &active)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, catalog.ErrProductNotFound
	case err != nil:
		return 0, fmt.Errorf("reserve product %s: %w", id, err)
	case !active:
		return 0, catalog.ErrProductNotFound
	default:
		return left, catalog.ErrInsufficientStock
	}
}

func (r *ProductRepository) ReleaseReservation(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return catalog.ErrInvalidQuantity
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
		id, quantity)
	if err != nil {
		return fmt.Errorf("release product %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) ListActive(ctx context.Context, filter repository.ProductFilter) ([]catalog.Product, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + productColumns + ` FROM products WHERE is_active`)
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		fmt.Fprintf(&sb, " AND category = $%d", len(args))
	}
	if filter.AvailableOnly {
		sb.WriteString(" AND stock > 0")
	}
	sb.WriteString(" ORDER BY created_at DESC, id")

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpsertProduct inserts or replaces a product, keeping its original
// created_at.
func (r *ProductRepository) UpsertProduct(ctx context.Context, p *catalog.Product) error {
	if p.Stock < 0 {
		return catalog.ErrInvalidStock
	}

	const query = `
		INSERT INTO products (id, name, description, price, category, image_url, stock, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			stock = EXCLUDED.stock,
			is_active = EXCLUDED.is_active,
			updated_at = now();
	`
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		catalog.RoundCents(p.Price).StringFixed(2),
		string(p.Category),
		p.ImageURL,
		p.Stock,
		p.Active,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*catalog.Product, error) {
	var (
		p        catalog.Product
		price    string
		category string
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&price,
		&category,
		&p.ImageURL,
		&p.Stock,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	p.Category = catalog.Category(category)
	return &p, nil
}
