package application

import (
	"sort"
	"strings"

	"github.com/bafain/orders-service/internal/domain"
)

// ListOrdersInput is shared by the customer and admin listing paths.
type ListOrdersInput struct {
	Status string
	Query  string
	Page   int
	Limit  int
}

// filterOrders keeps orders whose status matches exactly (when given)
// and whose id or customer note contains the query, case-insensitively.
func filterOrders(orders []domain.Order, status, query string) []domain.Order {
	q := strings.ToLower(strings.TrimSpace(query))

	var out []domain.Order
	for _, o := range orders {
		if status != "" && string(o.Status) != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(o.ID), q) &&
			!strings.Contains(strings.ToLower(o.CustomerNote), q) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func sortByCreatedDesc(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// paginate slices the filtered set; total is taken before slicing by the
// caller. A page past the end yields an empty slice, not an error.
func paginate(orders []domain.Order, page, limit int) []domain.Order {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= len(orders) {
		return []domain.Order{}
	}
	end := start + limit
	if end > len(orders) {
		end = len(orders)
	}
	return orders[start:end]
}

func listOrders(orders []domain.Order, in ListOrdersInput) ([]domain.Order, int) {
	filtered := filterOrders(orders, in.Status, in.Query)
	sortByCreatedDesc(filtered)
	return paginate(filtered, in.Page, in.Limit), len(filtered)
}
