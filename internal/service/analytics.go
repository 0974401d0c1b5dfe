package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

const (
	salesWindowDays = 7
	topProductLimit = 5
)

type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo, now: time.Now}
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	summary, err := s.analyticsRepo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("sales summary: %w", err)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(salesWindowDays - 1))
	daily, err := s.analyticsRepo.DailySales(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}

	top, err := s.analyticsRepo.TopProducts(ctx, topProductLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	resp := &dto.DashboardResponse{
		Summary: dto.SummaryResponse{
			TotalOrders:     summary.TotalOrders,
			PendingOrders:   summary.PendingOrders,
			CompletedOrders: summary.CompletedOrders,
			TotalRevenue:    summary.TotalRevenue,
		},
		DailySales:  make([]dto.DailySalesResponse, 0, len(daily)),
		TopProducts: make([]dto.ProductSalesResponse, 0, len(top)),
	}
	for _, d := range daily {
		resp.DailySales = append(resp.DailySales, dto.DailySalesResponse{
			Day: d.Day.Format(time.DateOnly), Total: d.Total, Orders: d.Orders,
		})
	}
	for _, p := range top {
		resp.TopProducts = append(resp.TopProducts, dto.ProductSalesResponse{
			ProductName: p.ProductName, QuantitySold: p.QuantitySold, Revenue: p.Revenue,
		})
	}
	return resp, nil
}
