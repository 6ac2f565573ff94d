package presentation

import (
	"encoding/json"
	"net/http"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/bafain/orders-service/internal/application"
	"github.com/bafain/orders-service/internal/auth"
	"github.com/bafain/orders-service/internal/logger"
	"github.com/bafain/orders-service/internal/presentation/helpers"
)

var demoShippingFees = []int64{50000, 150000}

// GenerateOrders seeds demo orders owned by the calling admin. Handy for
// exercising dashboards against an empty store.
func (h *OrdersHandler) GenerateOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := h.adminIdentity(w, r, auth.OrderWriteRoles...)
	if !ok {
		return
	}

	n := helpers.QueryInt(r, "count", 1)
	if n > 1000 {
		n = 1000
	}

	var created []string
	for i := 0; i < n; i++ {
		ord, err := h.svc.CreateOrder(r.Context(), id.UID, demoOrderInput())
		if err != nil {
			logger.Warn("generate: create failed", "err", err)
			continue
		}
		created = append(created, ord.ID)
	}

	helpers.WriteJSON(w, http.StatusCreated, map[string]any{
		"status":      "ok",
		"created_ids": created,
	})
}

func demoOrderInput() application.CreateOrderInput {
	address, _ := json.Marshal(map[string]any{
		"full_name":     gofakeit.Name(),
		"phone":         gofakeit.Phone(),
		"email":         gofakeit.Email(),
		"address_line1": gofakeit.Street(),
		"city":          gofakeit.City(),
		"postal_code":   gofakeit.Zip(),
		"province":      gofakeit.State(),
	})

	var subtotal int64
	count := gofakeit.Number(1, 3)
	items := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		price := int64(gofakeit.Number(10_000, 500_000))
		qty := int64(gofakeit.Number(1, 4))
		subtotal += price * qty
		items = append(items, map[string]any{
			"name":  gofakeit.ProductName(),
			"price": price,
			"qty":   qty,
		})
	}
	itemsJSON, _ := json.Marshal(items)

	fee := demoShippingFees[gofakeit.Number(0, len(demoShippingFees)-1)]
	shipping, _ := json.Marshal(map[string]any{"id": "standar", "price": fee})
	payment, _ := json.Marshal(map[string]any{"id": "bca", "label": "BCA Virtual Account"})

	return application.CreateOrderInput{
		Address:        address,
		ShippingOption: shipping,
		PaymentMethod:  payment,
		Items:          itemsJSON,
		CustomerNote:   gofakeit.Sentence(6),
		Subtotal:       subtotal,
		ShippingFee:    fee,
	}
}
