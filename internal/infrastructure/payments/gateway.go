package payments

import (
	"errors"
	"fmt"
	"strings"

	"homeservices/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const (
	ProviderStripe      = "stripe"
	ProviderMercadoPago = "mercadopago"
	ProviderMock        = "mock"
)

var ErrUnknownGateway = errors.New("unknown payment gateway")

// Options carries the credentials of every supported provider; only the
// selected provider's fields are read.
type Options struct {
	Provider                 string
	StripeSecretKey          string
	StripeWebhookSecret      string
	MercadoPagoAccessToken   string
	MercadoPagoWebhookSecret string
	MercadoPagoPayerEmail    string
	MockSecret               string
}

// New builds the gateway selected by opts.Provider.
func New(opts Options, logger *zap.Logger) (interfaces.IPaymentGateway, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderStripe:
		return NewStripeGateway(opts.StripeSecretKey, opts.StripeWebhookSecret, logger)
	case ProviderMercadoPago:
		return NewMercadoPagoGateway(opts.MercadoPagoAccessToken, opts.MercadoPagoWebhookSecret, opts.MercadoPagoPayerEmail, logger)
	case ProviderMock, "":
		return NewMockGateway(opts.MockSecret, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, opts.Provider)
	}
}
