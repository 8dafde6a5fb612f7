package interfaces

import (
	"context"
	"errors"

	"homeservices/internal/domain/entities"
)

// ErrInvalidSignature is returned by ParseWebhook when the payload is not authentic.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// IPaymentGateway abstracts external payment providers (Stripe, Mercado Pago).
//
// The payment workflow only needs to open an intent, read its state back and
// trust webhook events after signature verification.
type IPaymentGateway interface {
	Name() string
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (entities.GatewayIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (entities.GatewayIntentState, error)
	ParseWebhook(ctx context.Context, payload []byte, signature string) (entities.GatewayEvent, error)
}

// ErrMalformedWebhook is returned by ParseWebhook when an authentic payload cannot be decoded.
var ErrMalformedWebhook = errors.New("malformed webhook payload")
