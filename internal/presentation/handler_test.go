package presentation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/bafain/orders-service/internal/application"
	"github.com/bafain/orders-service/internal/auth"
	"github.com/bafain/orders-service/internal/logger"
	"github.com/bafain/orders-service/internal/ratelimit"
	"github.com/bafain/orders-service/internal/repository"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newRouter(t *testing.T, limiter ratelimit.Limiter) chi.Router {
	t.Helper()

	store := repository.NewMemoryStore()
	clock := application.SystemClock()
	events := application.NoopPublisher{}
	resolver := auth.NewJWTResolver(testSecret)

	h := NewOrdersHandler(
		application.NewOrdersService(store, clock, events),
		application.NewStatsService(store),
		application.NewAdminService(store, clock, events),
		resolver,
		resolver,
		limiter,
	)

	r := chi.NewRouter()
	h.Register(r)
	return r
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func doJSON(t *testing.T, r chi.Router, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateOrderEndpoint(t *testing.T) {
	r := newRouter(t, nil)
	user := token(t, jwt.MapClaims{"uid": "user-1"})

	rec := doJSON(t, r, http.MethodPost, "/orders", user, map[string]any{
		"subtotal":     100000,
		"shipping_fee": 50000,
		"items":        []map[string]any{{"sku": "A-1", "qty": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	order := decodeBody(t, rec)["order"].(map[string]any)
	require.Equal(t, "awaiting-payment", order["status"])
	require.Equal(t, "pending", order["payment_status"])
	require.Equal(t, float64(16500), order["tax_amount"])
	require.Equal(t, float64(166500), order["total"])
	require.NotEmpty(t, order["id"])
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	r := newRouter(t, nil)
	user := token(t, jwt.MapClaims{"uid": "user-1"})

	rec := doJSON(t, r, http.MethodPost, "/orders", user, map[string]any{"subtotal": -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/orders", user, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEndpointsRequireToken(t *testing.T) {
	r := newRouter(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/orders"},
		{http.MethodGet, "/orders/some-id"},
		{http.MethodGet, "/profile/order-stats"},
		{http.MethodGet, "/admin/dashboard"},
	} {
		rec := doJSON(t, r, tc.method, tc.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := doJSON(t, r, http.MethodGet, "/orders", "Bearer garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderOwnershipHidden(t *testing.T) {
	r := newRouter(t, nil)
	owner := token(t, jwt.MapClaims{"uid": "user-1"})
	other := token(t, jwt.MapClaims{"uid": "user-2"})

	rec := doJSON(t, r, http.MethodPost, "/orders", owner, map[string]any{"subtotal": 1000})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, r, http.MethodGet, "/orders/"+id, other, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Identical shape for a missing order.
	rec = doJSON(t, r, http.MethodGet, "/orders/does-not-exist", other, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckPaymentEndpoint(t *testing.T) {
	r := newRouter(t, nil)
	user := token(t, jwt.MapClaims{"uid": "user-1"})

	rec := doJSON(t, r, http.MethodPost, "/orders", user, map[string]any{"subtotal": 1000})
	id := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	rec = doJSON(t, r, http.MethodPost, "/orders/"+id+"/check-payment", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "in-queue", body["status"])
	require.Equal(t, "paid", body["payment_status"])
	require.Equal(t, "Payment verified", body["message"])
}

func TestAdminRoleGate(t *testing.T) {
	r := newRouter(t, nil)
	viewer := token(t, jwt.MapClaims{"uid": "viewer-1", "role": "viewer"})
	admin := token(t, jwt.MapClaims{"uid": "admin-1", "role": "admin"})
	user := token(t, jwt.MapClaims{"uid": "user-1"})

	rec := doJSON(t, r, http.MethodPost, "/orders", user, map[string]any{"subtotal": 1000})
	id := decodeBody(t, rec)["order"].(map[string]any)["id"].(string)

	// Viewer may read the dashboard but not touch orders.
	rec = doJSON(t, r, http.MethodGet, "/admin/dashboard", viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPatch, "/admin/orders/"+id, viewer, map[string]any{"status": "selesai"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// A plain customer token has no role claim at all.
	rec = doJSON(t, r, http.MethodGet, "/admin/dashboard", user, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Empty status falls back to the in-progress default.
	rec = doJSON(t, r, http.MethodPatch, "/admin/orders/"+id, admin, map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "diproses", decodeBody(t, rec)["status"])

	rec = doJSON(t, r, http.MethodPatch, "/admin/orders/"+id, admin, map[string]any{"status": "bogus"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPut, "/admin/orders/"+id+"/shipment", admin, map[string]any{
		"carrier":         "jne",
		"tracking_number": "JNE123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitedRoutes(t *testing.T) {
	limiter := ratelimit.NewLocal(ratelimit.Config{
		Window:      time.Minute,
		MaxAttempts: 2,
		Block:       5 * time.Minute,
	})
	r := newRouter(t, limiter)
	user := token(t, jwt.MapClaims{"uid": "user-1"})

	for i := 0; i < 2; i++ {
		rec := doJSON(t, r, http.MethodPost, "/orders", user, map[string]any{"subtotal": 1000})
		require.Equal(t, http.StatusCreated, rec.Code, "attempt %d", i+1)
	}

	rec := doJSON(t, r, http.MethodPost, "/orders", user, map[string]any{"subtotal": 1000})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "300", rec.Header().Get("Retry-After"))

	// Listing is not rate limited.
	rec = doJSON(t, r, http.MethodGet, "/orders", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
