package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	FindBySession(ctx context.Context, sessionID string) (*model.Cart, error)
	GetCartWithItems(ctx context.Context, cartID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, item *model.CartItem) error
	AdjustItem(ctx context.Context, cartID, itemID uuid.UUID, delta int) (int, error)
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
	MergeCarts(ctx context.Context, fromCartID, toCartID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

// GetOrCreateCart inserts with ON CONFLICT DO NOTHING first so concurrent first
// requests for the same owner converge on one row.
func (r *pgCartRepo) GetOrCreateCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	var (
		insertQ, selectQ string
		key              any
	)
	if owner.Anonymous() {
		insertQ = `INSERT INTO carts (id, session_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) ON CONFLICT (session_id) DO NOTHING`
		selectQ = `SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE session_id = $1`
		key = owner.SessionID
	} else {
		insertQ = `INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) ON CONFLICT (user_id) DO NOTHING`
		selectQ = `SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE user_id = $1`
		key = owner.UserID
	}

	if _, err := r.pool.Exec(ctx, insertQ, uuid.New(), key); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	cart := &model.Cart{}
	if err := r.pool.QueryRow(ctx, selectQ, key).Scan(
		&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) FindBySession(ctx context.Context, sessionID string) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE session_id = $1`, sessionID,
	).Scan(&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find cart by session: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetCartWithItems(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE id = $1`, cartID,
	).Scan(&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	items, err := queryCartLines(ctx, r.pool, cartID, false)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryCartLines reads lines joined with the live product name and price.
// With lock set the lines are locked for the enclosing transaction.
func queryCartLines(ctx context.Context, q querier, cartID uuid.UUID, lock bool) ([]model.CartItem, error) {
	query := `SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.price, ci.quantity, ci.created_at, ci.updated_at
			  FROM cart_items ci JOIN products p ON p.id = ci.product_id
			  WHERE ci.cart_id = $1 ORDER BY ci.created_at, ci.id`
	if lock {
		query += ` FOR UPDATE OF ci`
	}
	rows, err := q.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName, &item.Price,
			&item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddItem is a single upsert so concurrent adds of the same product never lose
// an increment. The line is capped at model.MaxLineQuantity. item.Quantity
// holds the resulting line quantity on return.
func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	query := `INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, LEAST($5::int, GREATEST(1, $4::int)), NOW(), NOW())
			  ON CONFLICT (cart_id, product_id) DO UPDATE
			  SET quantity = LEAST($5::int, GREATEST(1, cart_items.quantity + $4::int)), updated_at = NOW()
			  RETURNING id, quantity, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, uuid.New(), item.CartID, item.ProductID, item.Quantity, model.MaxLineQuantity).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

// AdjustItem changes a line's quantity by delta and deletes the line once it
// reaches zero. It returns the remaining quantity (0 when deleted).
func (r *pgCartRepo) AdjustItem(ctx context.Context, cartID, itemID uuid.UUID, delta int) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var quantity int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM cart_items WHERE id = $1 AND cart_id = $2 FOR UPDATE`, itemID, cartID,
	).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lock cart item: %w", err)
	}

	quantity = min(quantity+delta, model.MaxLineQuantity)
	if quantity <= 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
			return 0, fmt.Errorf("delete cart item: %w", err)
		}
		quantity = 0
	} else {
		if _, err := tx.Exec(ctx,
			`UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE id = $1`, itemID, quantity,
		); err != nil {
			return 0, fmt.Errorf("update cart item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return quantity, nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// MergeCarts moves every line of fromCartID into toCartID, adding quantities
// for products present in both, then deletes the source cart.
func (r *pgCartRepo) MergeCarts(ctx context.Context, fromCartID, toCartID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at, updated_at)
		 SELECT gen_random_uuid(), $2, product_id, quantity, NOW(), NOW() FROM cart_items WHERE cart_id = $1
		 ON CONFLICT (cart_id, product_id) DO UPDATE
		 SET quantity = LEAST($3::int, cart_items.quantity + EXCLUDED.quantity), updated_at = NOW()`,
		fromCartID, toCartID, model.MaxLineQuantity,
	)
	if err != nil {
		return fmt.Errorf("merge cart items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, fromCartID); err != nil {
		return fmt.Errorf("delete merged cart: %w", err)
	}
	return tx.Commit(ctx)
}
