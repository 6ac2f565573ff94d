package presentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bafain/orders-service/internal/application"
	"github.com/bafain/orders-service/internal/auth"
	"github.com/bafain/orders-service/internal/domain"
	"github.com/bafain/orders-service/internal/presentation/helpers"
	"github.com/bafain/orders-service/internal/ratelimit"
	"github.com/bafain/orders-service/internal/repository"
)

const (
	defaultPageLimit   = 10
	defaultRecentLimit = 5
)

type OrdersHandler struct {
	svc     *application.OrdersService
	stats   *application.StatsService
	admin   *application.AdminService
	ids     auth.IdentityResolver
	gate    auth.AdminGate
	limiter ratelimit.Limiter
}

func NewOrdersHandler(
	svc *application.OrdersService,
	stats *application.StatsService,
	admin *application.AdminService,
	ids auth.IdentityResolver,
	gate auth.AdminGate,
	limiter ratelimit.Limiter,
) *OrdersHandler {
	return &OrdersHandler{
		svc:     svc,
		stats:   stats,
		admin:   admin,
		ids:     ids,
		gate:    gate,
		limiter: limiter,
	}
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.With(h.rateLimit).Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
		r.Post("/{id}/received", h.ConfirmReceived)
		r.With(h.rateLimit).Post("/{id}/check-payment", h.CheckPayment)
		r.Get("/{id}/notes", h.ListOrderNotes)
		r.Post("/{id}/notes", h.AddOrderNote)
	})

	r.Get("/profile/order-stats", h.OrderStats)
	r.Get("/profile/recent-orders", h.RecentOrders)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/dashboard", h.AdminDashboard)
		r.Get("/orders", h.AdminListOrders)
		r.Patch("/orders/{id}", h.AdminUpdateStatus)
		r.Put("/orders/{id}/shipment", h.AdminUpdateShipment)
		r.Post("/orders/generate", h.GenerateOrders)
	})
}

type createOrderRequest struct {
	Address        json.RawMessage `json:"address"`
	ShippingOption json.RawMessage `json:"shipping_option"`
	PaymentMethod  json.RawMessage `json:"payment_method"`
	Items          json.RawMessage `json:"items"`
	CustomerNote   string          `json:"customer_note"`
	Subtotal       int64           `json:"subtotal"`
	ShippingFee    int64           `json:"shipping_fee"`
	TaxAmount      *int64          `json:"tax_amount"`
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Subtotal < 0 || req.ShippingFee < 0 || (req.TaxAmount != nil && *req.TaxAmount < 0) {
		helpers.HttpError(w, http.StatusBadRequest, "amounts must be non-negative")
		return
	}

	ord, err := h.svc.CreateOrder(r.Context(), owner, application.CreateOrderInput{
		Address:        req.Address,
		ShippingOption: req.ShippingOption,
		PaymentMethod:  req.PaymentMethod,
		Items:          req.Items,
		CustomerNote:   req.CustomerNote,
		Subtotal:       req.Subtotal,
		ShippingFee:    req.ShippingFee,
		TaxAmount:      req.TaxAmount,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, map[string]any{"order": ord})
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	in := listInput(r)
	orders, total, err := h.svc.ListOrders(r.Context(), owner, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"page":   in.Page,
		"limit":  in.Limit,
		"total":  total,
	})
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	ord, err := h.svc.GetOrderDetail(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"order": ord})
}

func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	ord, err := h.svc.CancelOrder(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id": ord.ID,
		"status":   ord.Status,
		"message":  "Order cancelled",
	})
}

func (h *OrdersHandler) ConfirmReceived(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	ord, err := h.svc.ConfirmReceived(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id": ord.ID,
		"status":   ord.Status,
		"message":  "Order marked as received",
	})
}

func (h *OrdersHandler) CheckPayment(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	ord, msg, err := h.svc.CheckPayment(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id":       ord.ID,
		"status":         ord.Status,
		"payment_status": ord.PaymentStatus,
		"message":        msg,
	})
}

type orderNoteRequest struct {
	Note string `json:"note"`
}

func (h *OrdersHandler) AddOrderNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req orderNoteRequest
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Note) == "" {
		helpers.HttpError(w, http.StatusBadRequest, "note is required")
		return
	}

	orderID := chi.URLParam(r, "id")
	notes, err := h.svc.AddOrderNote(r.Context(), owner, orderID, req.Note)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id": orderID,
		"notes":    notes,
	})
}

func (h *OrdersHandler) ListOrderNotes(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "id")
	notes, err := h.svc.ListOrderNotes(r.Context(), owner, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if notes == nil {
		notes = []domain.Note{}
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id": orderID,
		"notes":    notes,
	})
}

func (h *OrdersHandler) OrderStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	counts, err := h.stats.OrderStats(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

func (h *OrdersHandler) RecentOrders(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	limit := helpers.QueryInt(r, "limit", defaultRecentLimit)
	orders, err := h.stats.RecentOrders(r.Context(), owner, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *OrdersHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminIdentity(w, r, auth.ReadRoles...); !ok {
		return
	}

	dash, err := h.stats.AdminDashboard(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dash)
}

func (h *OrdersHandler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminIdentity(w, r, auth.ReadRoles...); !ok {
		return
	}

	in := listInput(r)
	orders, total, err := h.admin.ListOrders(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"page":   in.Page,
		"limit":  in.Limit,
		"total":  total,
	})
}

type adminOrderUpdateRequest struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminIdentity(w, r, auth.OrderWriteRoles...); !ok {
		return
	}

	var req adminOrderUpdateRequest
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	ord, err := h.admin.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id": ord.ID,
		"status":   ord.Status,
		"message":  "Order updated",
	})
}

type adminShipmentRequest struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	ETA            string `json:"eta"`
}

func (h *OrdersHandler) AdminUpdateShipment(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.adminIdentity(w, r, auth.OrderWriteRoles...); !ok {
		return
	}

	var req adminShipmentRequest
	if err := helpers.DecodeJSON(r.Body, &req); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	ord, err := h.admin.UpdateShipment(r.Context(), chi.URLParam(r, "id"), domain.Shipment{
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		ETA:            req.ETA,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id": ord.ID,
		"shipment": ord.Shipment,
		"message":  "Shipment updated",
	})
}

func (h *OrdersHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		helpers.HttpError(w, http.StatusUnauthorized, "Invalid or expired token")
		return "", false
	}

	owner, err := h.ids.Verify(r.Context(), token)
	if err != nil {
		helpers.HttpError(w, http.StatusUnauthorized, "Invalid or expired token")
		return "", false
	}
	return owner, true
}

func (h *OrdersHandler) adminIdentity(w http.ResponseWriter, r *http.Request, roles ...auth.Role) (auth.AdminIdentity, bool) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		helpers.HttpError(w, http.StatusUnauthorized, "Invalid or expired token")
		return auth.AdminIdentity{}, false
	}

	id, err := h.gate.RequireRole(r.Context(), token, roles...)
	if err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			helpers.HttpError(w, http.StatusForbidden, "Admin access required")
		} else {
			helpers.HttpError(w, http.StatusUnauthorized, "Invalid or expired token")
		}
		return auth.AdminIdentity{}, false
	}
	return id, true
}

func listInput(r *http.Request) application.ListOrdersInput {
	return application.ListOrdersInput{
		Status: r.URL.Query().Get("status"),
		Query:  r.URL.Query().Get("q"),
		Page:   helpers.QueryInt(r, "page", 1),
		Limit:  helpers.QueryInt(r, "limit", defaultPageLimit),
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		helpers.HttpError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrInvalidStatus):
		helpers.HttpError(w, http.StatusBadRequest, "invalid status")
	default:
		helpers.HttpError(w, http.StatusServiceUnavailable, "storage unavailable")
	}
}

// rateLimit keys attempts by route and client address; a shared limiter
// failure rejects the request rather than waving it through.
func (h *OrdersHandler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.Path + ":" + clientIP(r)
		retryAfter, err := h.limiter.Allow(r.Context(), key)
		if err != nil {
			if errors.Is(err, ratelimit.ErrTooManyAttempts) {
				if retryAfter > 0 {
					w.Header().Set("Retry-After", formatSeconds(retryAfter))
				}
				helpers.HttpError(w, http.StatusTooManyRequests, "Too many attempts. Try again later.")
				return
			}
			helpers.HttpError(w, http.StatusServiceUnavailable, "Rate limiter unavailable")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.ToLower(strings.TrimSpace(first))
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}

func formatSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
