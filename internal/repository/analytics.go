package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type SalesSummary struct {
	TotalOrders     int
	PendingOrders   int
	CompletedOrders int
	TotalRevenue    decimal.Decimal
}

type DailySales struct {
	Day    time.Time
	Total  decimal.Decimal
	Orders int
}

type ProductSales struct {
	ProductName  string
	QuantitySold int
	Revenue      decimal.Decimal
}

type AnalyticsRepository interface {
	Summary(ctx context.Context) (*SalesSummary, error)
	DailySales(ctx context.Context, since time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
}

type pgAnalyticsRepo struct{ pool *pgxpool.Pool }

func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &pgAnalyticsRepo{pool: pool}
}

// Every order is counted once, by its current status, so replayed payment
// confirmations can not inflate revenue.
func (r *pgAnalyticsRepo) Summary(ctx context.Context) (*SalesSummary, error) {
	s := &SalesSummary{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status IN ('pending', 'shipped')),
		        COUNT(*) FILTER (WHERE status IN ('delivered', 'completed', 'cancelled')),
		        COALESCE(SUM(total_amount) FILTER (WHERE status IN ('paid', 'shipped', 'delivered', 'completed')), 0)
		 FROM orders`,
	).Scan(&s.TotalOrders, &s.PendingOrders, &s.CompletedOrders, &s.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}
	return s, nil
}

func (r *pgAnalyticsRepo) DailySales(ctx context.Context, since time.Time) ([]DailySales, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('day', created_at) AS day, SUM(total_amount), COUNT(*)
		 FROM orders WHERE status = 'paid' AND created_at >= $1
		 GROUP BY day ORDER BY day`, since,
	)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()

	var out []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.Total, &d.Orders); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *pgAnalyticsRepo) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name, SUM(oi.quantity)::int AS quantity_sold, SUM(oi.price * oi.quantity) AS revenue
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 JOIN products p ON p.id = oi.product_id
		 WHERE o.status = 'paid'
		 GROUP BY p.name ORDER BY quantity_sold DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var out []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductName, &p.QuantitySold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan product sales: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
