package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/bafain/orders-service/internal/domain"
	"github.com/bafain/orders-service/internal/repository"
)

// dashboardRecentLimit is fixed: the admin dashboard always shows the
// eight most recent orders.
const dashboardRecentLimit = 8

// StatsService is read-only: it scans the store through the normalizer
// and never applies a transition.
type StatsService struct {
	store repository.OrderStore
}

func NewStatsService(store repository.OrderStore) *StatsService {
	return &StatsService{store: store}
}

// OrderStats counts the caller's orders per canonical bucket. Every
// bucket is present in the result, zero or not; excluded orders are
// counted nowhere.
func (s *StatsService) OrderStats(ctx context.Context, ownerID string) (map[domain.Bucket]int, error) {
	orders, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store.ListByOwner: %w", err)
	}

	counts := make(map[domain.Bucket]int, 3)
	for _, b := range domain.Buckets() {
		counts[b] = 0
	}
	for _, o := range orders {
		b := domain.NormalizeStatus(string(o.Status))
		if _, ok := counts[b]; ok {
			counts[b]++
		}
	}
	return counts, nil
}

func (s *StatsService) RecentOrders(ctx context.Context, ownerID string, limit int) ([]domain.Order, error) {
	orders, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("store.ListByOwner: %w", err)
	}

	sortByCreatedDesc(orders)
	if limit >= 0 && limit < len(orders) {
		orders = orders[:limit]
	}
	return orders, nil
}

type DashboardSummary struct {
	TotalOrders   int   `json:"total_orders"`
	PaidOrders    int   `json:"paid_orders"`
	PendingOrders int   `json:"pending_orders"`
	TotalRevenue  int64 `json:"total_revenue"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type YearSales struct {
	Year          int       `json:"year"`
	MonthlyTotals [12]int64 `json:"monthly_totals"`
}

type Dashboard struct {
	Summary        DashboardSummary `json:"summary"`
	OrdersByStatus []StatusCount    `json:"orders_by_status"`
	MonthlySales   []YearSales      `json:"monthly_sales"`
	RecentOrders   []domain.Order   `json:"recent_orders"`
}

// AdminDashboard aggregates over all orders. Revenue sums cover paid
// orders only; the by-status breakdown uses raw statuses, not buckets.
func (s *StatsService) AdminDashboard(ctx context.Context) (*Dashboard, error) {
	orders, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ListAll: %w", err)
	}

	paid := lo.Filter(orders, func(o domain.Order, _ int) bool {
		return o.PaymentStatus == domain.PaymentPaid
	})
	revenue := lo.SumBy(paid, func(o domain.Order) int64 { return o.Total })

	byStatus := lo.CountValuesBy(orders, func(o domain.Order) string {
		if o.Status == "" {
			return "unknown"
		}
		return string(o.Status)
	})
	ordersByStatus := make([]StatusCount, 0, len(byStatus))
	for status, count := range byStatus {
		ordersByStatus = append(ordersByStatus, StatusCount{Status: status, Count: count})
	}
	sort.Slice(ordersByStatus, func(i, j int) bool {
		if ordersByStatus[i].Count != ordersByStatus[j].Count {
			return ordersByStatus[i].Count > ordersByStatus[j].Count
		}
		return ordersByStatus[i].Status < ordersByStatus[j].Status
	})

	sales := make(map[int]*YearSales)
	for _, o := range paid {
		year := o.CreatedAt.Year()
		ys, ok := sales[year]
		if !ok {
			ys = &YearSales{Year: year}
			sales[year] = ys
		}
		ys.MonthlyTotals[int(o.CreatedAt.Month())-1] += o.Total
	}
	years := lo.Keys(sales)
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	monthlySales := make([]YearSales, 0, len(years))
	for _, y := range years {
		monthlySales = append(monthlySales, *sales[y])
	}

	sortByCreatedDesc(orders)
	recent := orders
	if len(recent) > dashboardRecentLimit {
		recent = recent[:dashboardRecentLimit]
	}

	return &Dashboard{
		Summary: DashboardSummary{
			TotalOrders:   len(orders),
			PaidOrders:    len(paid),
			PendingOrders: len(orders) - len(paid),
			TotalRevenue:  revenue,
		},
		OrdersByStatus: ordersByStatus,
		MonthlySales:   monthlySales,
		RecentOrders:   recent,
	}, nil
}
