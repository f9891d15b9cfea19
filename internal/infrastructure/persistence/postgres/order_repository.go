package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domain "storefront/internal/domain/order"
)

const (
	orderColumns = `id, order_number, items, total_amount::text, customer, status,
		payment_method, payment_status, delivery_type, notes, created_at, updated_at`

	uniqueViolation = "23505"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) NextOrderSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next order sequence: %w", err)
	}
	return seq, nil
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return fmt.Errorf("order is nil")
	}

	items, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}

	const query = `
		INSERT INTO orders (id, order_number, items, total_amount, customer, status,
			payment_method, payment_status, delivery_type, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = r.pool.Exec(ctx, query,
		order.ID,
		order.Number,
		items,
		order.TotalAmount.StringFixed(2),
		customer,
		string(order.Status),
		string(order.PaymentMethod),
		string(order.PaymentStatus),
		string(order.DeliveryType),
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateIdentity
	}
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.Number, err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	return o, nil
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, order_number DESC`)
}

func (r *OrderRepository) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC, order_number DESC`,
		string(status))
}

func (r *OrderRepository) FindCreatedBetween(ctx context.Context, start, end time.Time) ([]*domain.Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC, order_number DESC`,
		start, end)
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// MaxOrderSequence covers both the sequence, which counts numbers burned by
// failed inserts, and stored numbers issued by another counter.
func (r *OrderRepository) MaxOrderSequence(ctx context.Context) (int64, error) {
	const query = `
		SELECT GREATEST(
			(SELECT CASE WHEN is_called THEN last_value ELSE 0 END FROM order_number_seq),
			(SELECT COALESCE(MAX(substring(order_number FROM '([0-9]+)$')::bigint), 0) FROM orders)
		);
	`
	var highest int64
	if err := r.pool.QueryRow(ctx, query).Scan(&highest); err != nil {
		return 0, fmt.Errorf("max order sequence: %w", err)
	}
	return highest, nil
}

// UpdateStatus is a compare-and-set on the status column.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current string
	err = r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("read order %s status: %w", id, err)
	}
	return &domain.StatusConflictError{Expected: from, Actual: domain.Status(current), To: to}
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o               domain.Order
		items, customer []byte
		total           string
		status          string
		payment         string
		paymentStatus   string
		deliver         string
	)
	if err := row.Scan(
		&o.ID,
		&o.Number,
		&items,
		&total,
		&customer,
		&status,
		&payment,
		&paymentStatus,
		&deliver,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Lines); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}

	o.Status = domain.Status(status)
	o.PaymentMethod = domain.PaymentMethod(payment)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	o.DeliveryType = domain.DeliveryType(deliver)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return &o, nil
}
