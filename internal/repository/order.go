package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

// OrderBuilder turns the locked cart lines into the order to persist. Returning
// an error aborts the checkout and leaves the cart untouched.
type OrderBuilder func(lines []model.CartItem) (*model.Order, error)

type OrderRepository interface {
	CreateFromCart(ctx context.Context, cartID uuid.UUID, build OrderBuilder) (*model.Order, error)
	SetReference(ctx context.Context, orderID uuid.UUID, reference string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByReference(ctx context.Context, reference string) (*model.Order, error)
	List(ctx context.Context, userID *uuid.UUID) ([]model.Order, error)
	MarkPaid(ctx context.Context, reference string) (*model.Order, bool, error)
	MarkFulfilled(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	ListUnfulfilled(ctx context.Context, paidBefore time.Time, limit int) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

const orderSelect = `SELECT o.id, o.user_id, COALESCE(u.email, ''), o.status, o.total_amount, o.delivery_fee,
	o.address, o.city, o.state, o.paystack_reference, o.paid_at, o.fulfilled_at, o.created_at, o.updated_at
	FROM orders o LEFT JOIN users u ON u.id = o.user_id`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(
		&o.ID, &o.UserID, &o.Email, &o.Status, &o.TotalAmount, &o.DeliveryFee,
		&o.Address, &o.City, &o.State, &o.PaystackReference, &o.PaidAt, &o.FulfilledAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *pgOrderRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// CreateFromCart is the checkout transaction: the cart row is locked, its lines
// read, the order and its items inserted and the lines deleted, all or nothing.
// A concurrent checkout of the same cart blocks on the lock and then sees no
// lines.
func (r *pgOrderRepo) CreateFromCart(ctx context.Context, cartID uuid.UUID, build OrderBuilder) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM carts WHERE id = $1 FOR UPDATE`, cartID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock cart: %w", err)
	}

	lines, err := queryCartLines(ctx, tx, cartID, true)
	if err != nil {
		return nil, err
	}

	order, err := build(lines)
	if err != nil {
		return nil, err
	}

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, total_amount, delivery_fee, address, city, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`,
		order.ID, order.UserID, string(order.Status), order.TotalAmount, order.DeliveryFee,
		order.Address, order.City, order.State,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())`,
			order.Items[i].ID, order.ID, order.Items[i].ProductID, order.Items[i].Quantity, order.Items[i].Price,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// SetReference makes reference the order's current payment reference, as long
// as the order is not yet paid. Earlier references stay resolvable.
func (r *pgOrderRepo) SetReference(ctx context.Context, orderID uuid.UUID, reference string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE orders SET paystack_reference = $2, updated_at = NOW() WHERE id = $1 AND paid_at IS NULL`,
		orderID, reference,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("set payment reference: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO payment_references (reference, order_id, created_at) VALUES ($1, $2, NOW())`,
		reference, orderID,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("record payment reference: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, orderSelect+` WHERE o.id = $1`, id)
}

// GetByReference resolves any reference ever issued for an order, not only
// the current one.
func (r *pgOrderRepo) GetByReference(ctx context.Context, reference string) (*model.Order, error) {
	return r.getOne(ctx,
		orderSelect+` WHERE o.id = (SELECT order_id FROM payment_references WHERE reference = $1)`, reference)
}

func (r *pgOrderRepo) getOne(ctx context.Context, query string, arg any) (*model.Order, error) {
	order := &model.Order{}
	if err := scanOrder(r.pool.QueryRow(ctx, query, arg), order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.itemsFor(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

// List returns orders newest first; a nil userID lists every order.
func (r *pgOrderRepo) List(ctx context.Context, userID *uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		orderSelect+` WHERE ($1::uuid IS NULL OR o.user_id = $1) ORDER BY o.created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []model.Order
		ids    []uuid.UUID
	)
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *pgOrderRepo) itemsFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
		 FROM order_items oi JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1) ORDER BY oi.created_at, oi.id`, orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.OrderItem, len(orderIDs))
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, rows.Err()
}

// MarkPaid flips the order that reference was issued for to paid exactly
// once, and makes reference its current one. The bool reports whether this
// call performed the transition; a nil order means the reference is unknown.
func (r *pgOrderRepo) MarkPaid(ctx context.Context, reference string) (*model.Order, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = 'paid', paid_at = NOW(), paystack_reference = $1, updated_at = NOW()
		 WHERE id = (SELECT order_id FROM payment_references WHERE reference = $1) AND paid_at IS NULL
		 RETURNING id`, reference,
	).Scan(&id)
	transitioned := true
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("mark order paid: %w", err)
		}
		transitioned = false
	}

	order, err := r.GetByReference(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	return order, transitioned, nil
}

// MarkFulfilled claims a paid order for stock fulfilment inside tx. It
// returns false when the order was already fulfilled, so the caller's stock
// changes must not be applied.
func (r *pgOrderRepo) MarkFulfilled(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	ct, err := tx.Exec(ctx,
		`UPDATE orders SET fulfilled_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND paid_at IS NOT NULL AND fulfilled_at IS NULL`, id,
	)
	if err != nil {
		return false, fmt.Errorf("mark order fulfilled: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// ListUnfulfilled returns paid orders whose stock has not been taken yet,
// oldest payment first. Items are not loaded.
func (r *pgOrderRepo) ListUnfulfilled(ctx context.Context, paidBefore time.Time, limit int) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		orderSelect+` WHERE o.paid_at IS NOT NULL AND o.fulfilled_at IS NULL AND o.paid_at < $1
		ORDER BY o.paid_at LIMIT $2`, paidBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unfulfilled orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
