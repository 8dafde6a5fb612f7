package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

var ErrMissingStripeSecretKey = errors.New("missing STRIPE_SECRET_KEY")

const (
	stripeEventSucceeded = "payment_intent.succeeded"
	stripeEventFailed    = "payment_intent.payment_failed"
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

var _ interfaces.IPaymentGateway = (*StripeGateway)(nil)

func NewStripeGateway(secretKey, webhookSecret string, logger *zap.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		logger.Error("[payment][gateway] missing STRIPE_SECRET_KEY")
		return nil, ErrMissingStripeSecretKey
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	logger.Info("[payment][gateway] Stripe client initialized")
	return &StripeGateway{api: api, webhookSecret: webhookSecret, logger: logger}, nil
}

func (g *StripeGateway) Name() string { return ProviderStripe }

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (entities.GatewayIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Error("[payment][gateway] stripe create intent failed", zap.Error(err))
		return entities.GatewayIntent{}, fmt.Errorf("stripe create intent: %w", err)
	}
	g.logger.Info("[payment][gateway] stripe create intent success", zap.String("intent_id", pi.ID))
	return entities.GatewayIntent{IntentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (entities.GatewayIntentState, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		g.logger.Error("[payment][gateway] stripe retrieve intent failed", zap.String("intent_id", intentID), zap.Error(err))
		return entities.GatewayIntentState{}, fmt.Errorf("stripe retrieve intent: %w", err)
	}
	return stripeIntentState(pi), nil
}

func (g *StripeGateway) ParseWebhook(_ context.Context, payload []byte, signature string) (entities.GatewayEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		g.logger.Warn("[payment][gateway] stripe webhook rejected", zap.Error(err))
		return entities.GatewayEvent{}, interfaces.ErrInvalidSignature
	}

	out := entities.GatewayEvent{ID: event.ID, Type: entities.GatewayEventIgnored}
	switch string(event.Type) {
	case stripeEventSucceeded:
		out.Type = entities.GatewayEventPaymentSucceeded
	case stripeEventFailed:
		out.Type = entities.GatewayEventPaymentFailed
	default:
		return out, nil
	}

	var pi stripe.PaymentIntent
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &pi) != nil || pi.ID == "" {
		return entities.GatewayEvent{}, interfaces.ErrMalformedWebhook
	}
	out.IntentID = pi.ID
	out.ChargeID = stripeIntentState(&pi).ChargeID
	return out, nil
}

func stripeIntentState(pi *stripe.PaymentIntent) entities.GatewayIntentState {
	state := entities.GatewayIntentState{}
	if pi.LatestCharge != nil {
		state.ChargeID = pi.LatestCharge.ID
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		state.Status = entities.GatewayIntentSucceeded
	case stripe.PaymentIntentStatusProcessing:
		state.Status = entities.GatewayIntentProcessing
	case stripe.PaymentIntentStatusCanceled:
		state.Status = entities.GatewayIntentFailed
	default:
		state.Status = entities.GatewayIntentPending
	}
	return state
}
