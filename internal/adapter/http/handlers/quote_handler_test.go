package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"homeservices/internal/adapter/http/handlers/mocks"
	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestQuoteHandler_CreateQuote(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIQuoteUseCase(ctrl)
		h := NewQuoteHandler(uc, zap.NewNop())

		r := newTestRouter("tech-1", entities.RoleTechnician)
		r.POST("/v1/quotes", h.CreateQuote)

		w := doJSON(r, http.MethodPost, "/v1/quotes", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing service id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIQuoteUseCase(ctrl)
		h := NewQuoteHandler(uc, zap.NewNop())

		r := newTestRouter("tech-1", entities.RoleTechnician)
		r.POST("/v1/quotes", h.CreateQuote)

		w := doJSON(r, http.MethodPost, "/v1/quotes", `{"amount":"10"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service not quotable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIQuoteUseCase(ctrl)
		h := NewQuoteHandler(uc, zap.NewNop())

		r := newTestRouter("tech-1", entities.RoleTechnician)
		r.POST("/v1/quotes", h.CreateQuote)

		uc.EXPECT().CreateQuote(gomock.Any(), gomock.Any()).Return(entities.Quote{}, usecase.ErrServiceNotQuotable)

		w := doJSON(r, http.MethodPost, "/v1/quotes", `{"service_id":"svc-1","amount":"100"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SERVICE_NOT_QUOTABLE", decodeError(t, w).Code)
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIQuoteUseCase(ctrl)
		h := NewQuoteHandler(uc, zap.NewNop())

		r := newTestRouter("tech-1", entities.RoleTechnician)
		r.POST("/v1/quotes", h.CreateQuote)

		uc.EXPECT().CreateQuote(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, in usecase.CreateQuoteInput) (entities.Quote, error) {
				assert.Equal(t, "tech-1", in.TechnicianID)
				assert.Equal(t, "svc-1", in.ServiceID)
				assert.True(t, in.Amount.Equal(decimal.RequireFromString("100.5")))
				return entities.Quote{
					ID:           "q-1",
					ServiceID:    in.ServiceID,
					TechnicianID: in.TechnicianID,
					Amount:       in.Amount,
					Status:       entities.QuoteStatusPending,
					ExpiresAt:    time.Now().Add(time.Hour),
				}, nil
			})

		w := doJSON(r, http.MethodPost, "/v1/quotes", `{"service_id":"svc-1","amount":"100.5"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "q-1", body["id"])
		assert.Equal(t, "100.50", body["amount"])
		assert.Equal(t, "pending", body["status"])
	})
}

func TestQuoteHandler_AcceptQuote(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIQuoteUseCase(ctrl)
		h := NewQuoteHandler(uc, zap.NewNop())

		r := newTestRouter("cust-1", entities.RoleCustomer)
		r.PATCH("/v1/quotes/:id/accept", h.AcceptQuote)

		uc.EXPECT().AcceptQuote(gomock.Any(), "q-1", "cust-1").Return(entities.Quote{}, entities.Service{}, usecase.ErrQuoteExpired)

		w := doJSON(r, http.MethodPatch, "/v1/quotes/q-1/accept", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "QUOTE_EXPIRED", decodeError(t, w).Code)
	})

	t.Run("not owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIQuoteUseCase(ctrl)
		h := NewQuoteHandler(uc, zap.NewNop())

		r := newTestRouter("cust-2", entities.RoleCustomer)
		r.PATCH("/v1/quotes/:id/accept", h.AcceptQuote)

		uc.EXPECT().AcceptQuote(gomock.Any(), "q-1", "cust-2").Return(entities.Quote{}, entities.Service{}, usecase.ErrNotServiceOwner)

		w := doJSON(r, http.MethodPatch, "/v1/quotes/q-1/accept", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("success returns quote and service", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIQuoteUseCase(ctrl)
		h := NewQuoteHandler(uc, zap.NewNop())

		r := newTestRouter("cust-1", entities.RoleCustomer)
		r.PATCH("/v1/quotes/:id/accept", h.AcceptQuote)

		uc.EXPECT().AcceptQuote(gomock.Any(), "q-1", "cust-1").Return(
			entities.Quote{ID: "q-1", ServiceID: "svc-1", Status: entities.QuoteStatusAccepted},
			entities.Service{ID: "svc-1", Status: entities.ServiceStatusAccepted, AcceptedQuoteID: "q-1", AssignedTechnicianID: "tech-1"},
			nil)

		w := doJSON(r, http.MethodPatch, "/v1/quotes/q-1/accept", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Quote   map[string]any `json:"quote"`
			Service map[string]any `json:"service"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "accepted", body.Quote["status"])
		assert.Equal(t, "accepted", body.Service["status"])
		assert.Equal(t, "tech-1", body.Service["assigned_technician_id"])
	})
}

func TestQuoteHandler_RejectListGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIQuoteUseCase(ctrl)
	h := NewQuoteHandler(uc, zap.NewNop())

	r := newTestRouter("cust-1", entities.RoleCustomer)
	r.PATCH("/v1/quotes/:id/reject", h.RejectQuote)
	r.GET("/v1/quotes", h.ListQuotes)
	r.GET("/v1/quotes/:id", h.GetQuote)

	uc.EXPECT().RejectQuote(gomock.Any(), "q-1", "cust-1").Return(entities.Quote{}, usecase.ErrQuoteNotPending)
	uc.EXPECT().ListQuotes(gomock.Any(), "cust-1", entities.RoleCustomer).Return([]entities.Quote{{ID: "q-1"}, {ID: "q-2"}}, nil)
	uc.EXPECT().GetQuote(gomock.Any(), "q-9", "cust-1", entities.RoleCustomer).Return(entities.Quote{}, usecase.ErrQuoteNotFound)

	w := doJSON(r, http.MethodPatch, "/v1/quotes/q-1/reject", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodGet, "/v1/quotes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = doJSON(r, http.MethodGet, "/v1/quotes/q-9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "QUOTE_NOT_FOUND", decodeError(t, w).Code)
}
