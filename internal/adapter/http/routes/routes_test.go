package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homeservices/internal/adapter/http/handlers"
	"homeservices/internal/adapter/http/middleware"
	"homeservices/internal/adapter/persistence/memory"
	"homeservices/internal/domain/entities"
	"homeservices/internal/infrastructure/config"
	"homeservices/internal/infrastructure/notify"
	"homeservices/internal/infrastructure/payments"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type testAPI struct {
	t       *testing.T
	router  *gin.Engine
	gateway *payments.MockGateway
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret:       testSecret,
		CORSOrigins:     "*",
		PaymentCurrency: "USD",
		QuoteTTL:        time.Hour,
	}
	gateway := payments.NewMockGateway("mock-secret", zap.NewNop())
	app := NewApp(cfg, zap.NewNop(), Dependencies{
		Store:   memory.NewStore().Bundle(),
		Gateway: gateway,
		Broker:  notify.NewLocalBroker(),
		Checks:  map[string]handlers.HealthCheck{"store": func(context.Context) error { return nil }},
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.Start(ctx)

	return &testAPI{t: t, router: app.Router, gateway: gateway}
}

func (a *testAPI) token(userID string, role entities.Role) string {
	a.t.Helper()
	tok, err := middleware.SignToken(testSecret, userID, role, time.Hour)
	require.NoError(a.t, err)
	return tok
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) register(admin, name, email string, role entities.Role, specialties ...string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/v1/users", admin, map[string]any{
		"name": name, "email": email, "role": role, "specialties": specialties,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](a.t, w)["id"].(string)
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/v1/ping", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/v1/health", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/v1/services", "", nil).Code)
}

func TestRoleGuards(t *testing.T) {
	api := newTestAPI(t)
	customer := api.token("cust-1", entities.RoleCustomer)
	technician := api.token("tech-1", entities.RoleTechnician)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/v1/admin/stats", customer, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/v1/users", customer, map[string]any{}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/v1/quotes", customer, map[string]any{"service_id": "s"}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/v1/services", technician, map[string]any{}).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, "/v1/quotes/q-1/accept", technician, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/v1/payments/intent", technician, map[string]any{"quote_id": "q"}).Code)
}

func TestQuoteToPaymentFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token("admin-1", entities.RoleAdmin)

	customerID := api.register(admin, "Carla", "carla@example.com", entities.RoleCustomer)
	techAID := api.register(admin, "Tomas", "tomas@example.com", entities.RoleTechnician, "plumbing")
	techBID := api.register(admin, "Rita", "rita@example.com", entities.RoleTechnician, "plumbing")
	customer := api.token(customerID, entities.RoleCustomer)
	techA := api.token(techAID, entities.RoleTechnician)
	techB := api.token(techBID, entities.RoleTechnician)

	w := api.do(http.MethodPost, "/v1/services", customer, map[string]any{
		"category": "plumbing", "title": "Leaking sink", "description": "Kitchen sink drips", "urgency": "high",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	serviceID := decode[map[string]any](t, w)["id"].(string)

	w = api.do(http.MethodGet, "/v1/services", techA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	quote := func(token, amount string) string {
		w := api.do(http.MethodPost, "/v1/quotes", token, map[string]any{
			"service_id": serviceID, "amount": amount, "labor_cost": amount, "description": "replace trap",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[map[string]any](t, w)["id"].(string)
	}
	quoteA := quote(techA, "120")
	quoteB := quote(techB, "95.5")

	w = api.do(http.MethodPatch, "/v1/quotes/"+quoteB+"/accept", customer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode[struct {
		Quote   map[string]any `json:"quote"`
		Service map[string]any `json:"service"`
	}](t, w)
	assert.Equal(t, "accepted", accepted.Quote["status"])
	assert.Equal(t, "accepted", accepted.Service["status"])
	assert.Equal(t, techBID, accepted.Service["assigned_technician_id"])

	w = api.do(http.MethodGet, "/v1/quotes/"+quoteA, customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rejected", decode[map[string]any](t, w)["status"])

	w = api.do(http.MethodPatch, "/v1/quotes/"+quoteA+"/accept", customer, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/v1/payments/intent", customer, map[string]any{"quote_id": quoteB})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	intent := decode[struct {
		ClientSecret string         `json:"client_secret"`
		Payment      map[string]any `json:"payment"`
	}](t, w)
	assert.NotEmpty(t, intent.ClientSecret)
	assert.Equal(t, "95.50", intent.Payment["amount"])
	paymentID := intent.Payment["id"].(string)

	w = api.do(http.MethodPost, "/v1/payments/intent", customer, map[string]any{"quote_id": quoteB})
	require.Equal(t, http.StatusConflict, w.Code)
	var dup struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dup))
	assert.Equal(t, "DUPLICATE_PAYMENT", dup.Code)
	assert.Equal(t, paymentID, dup.Details["id"])

	w = api.do(http.MethodPost, "/v1/payments/"+paymentID+"/confirm", customer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decode[map[string]any](t, w)["status"])

	w = api.do(http.MethodGet, "/v1/services/"+serviceID, customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "in_progress", decode[map[string]any](t, w)["status"])

	w = api.do(http.MethodGet, "/v1/technicians/me/services", techB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = api.do(http.MethodGet, "/v1/payments", techB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
}

func TestWebhookRoute(t *testing.T) {
	api := newTestAPI(t)

	body := []byte(`{"id":"evt_1","type":"payment_succeeded","intent_id":"mock_pi_unknown"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Mock-Signature", api.gateway.Sign(body))
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("X-Mock-Signature", "forged")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
