package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase"
	"homeservices/pkg/validation"

	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", usecase.ErrQuoteNotFound, http.StatusNotFound, "QUOTE_NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("load: %w", usecase.ErrServiceNotFound), http.StatusNotFound, "SERVICE_NOT_FOUND"},
		{"forbidden", usecase.ErrNotServiceOwner, http.StatusForbidden, "FORBIDDEN"},
		{"conflict", usecase.ErrQuoteNotPending, http.StatusConflict, "QUOTE_NOT_PENDING"},
		{"expired", usecase.ErrQuoteExpired, http.StatusConflict, "QUOTE_EXPIRED"},
		{"signature", usecase.ErrInvalidWebhookSignature, http.StatusUnauthorized, "INVALID_SIGNATURE"},
		{"gateway", usecase.ErrPaymentGatewayFailure, http.StatusBadGateway, "PAYMENT_GATEWAY_ERROR"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := mapError(tc.err)
			assert.Equal(t, tc.status, appErr.HTTPStatus)
			assert.Equal(t, tc.code, appErr.Code)
		})
	}
}

func TestMapError_Details(t *testing.T) {
	invalid := validation.Violations{"amount": "must_be_positive"}.Err()
	appErr := mapError(invalid)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, validation.Violations{"amount": "must_be_positive"}, appErr.Details)

	dup := &usecase.DuplicatePaymentError{Existing: entities.Payment{ID: "p-1", Status: entities.PaymentStatusPending}}
	appErr = mapError(dup)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	assert.Equal(t, "DUPLICATE_PAYMENT", appErr.Code)
	assert.NotNil(t, appErr.Details)

	notCompleted := &usecase.PaymentNotCompletedError{Payment: entities.Payment{ID: "p-1", Status: entities.PaymentStatusFailed}}
	appErr = mapError(notCompleted)
	assert.Equal(t, "PAYMENT_NOT_COMPLETED", appErr.Code)
}
