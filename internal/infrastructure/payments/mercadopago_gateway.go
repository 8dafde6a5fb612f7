package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")

const mercadoPagoPaymentMethod = "pix"

// mercadoPagoClient is the part of payment.Client the gateway uses.
type mercadoPagoClient interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// MercadoPagoGateway maps intents onto Mercado Pago payments: the payment id is
// both the intent id and the opaque client handle. Webhooks only carry the
// payment id, so the event type is derived from the payment read back.
type MercadoPagoGateway struct {
	client        mercadoPagoClient
	webhookSecret string
	payerEmail    string
	logger        *zap.Logger
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(accessToken, webhookSecret, payerEmail string, logger *zap.Logger) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		logger.Error("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingMercadoPagoAccessToken
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		logger.Error("[payment][gateway] failed creating sdk config", zap.Error(err))
		return nil, err
	}
	logger.Info("[payment][gateway] Mercado Pago client initialized")
	return newMercadoPagoGateway(payment.NewClient(cfg), webhookSecret, payerEmail, logger), nil
}

func newMercadoPagoGateway(client mercadoPagoClient, webhookSecret, payerEmail string, logger *zap.Logger) *MercadoPagoGateway {
	return &MercadoPagoGateway{client: client, webhookSecret: webhookSecret, payerEmail: payerEmail, logger: logger}
}

func (g *MercadoPagoGateway) Name() string { return ProviderMercadoPago }

func (g *MercadoPagoGateway) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (entities.GatewayIntent, error) {
	g.logger.Info("[payment][gateway] mercadopago create start", zap.Int64("amount_minor", amountMinorUnits), zap.String("currency", currency))

	meta := make(map[string]any, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	req := payment.Request{
		TransactionAmount: decimal.New(amountMinorUnits, -entities.CurrencyExponent(currency)).InexactFloat64(),
		Description:       "Service quote " + metadata["quoteId"],
		PaymentMethodID:   mercadoPagoPaymentMethod,
		ExternalReference: metadata["quoteId"],
		Payer:             &payment.PayerRequest{Email: g.payerEmail},
		Metadata:          meta,
	}
	resp, err := g.client.Create(ctx, req)
	if err != nil {
		g.logger.Error("[payment][gateway] mercadopago create failed", zap.Error(err))
		return entities.GatewayIntent{}, fmt.Errorf("mercadopago create payment: %w", err)
	}
	id := strconv.Itoa(resp.ID)
	g.logger.Info("[payment][gateway] mercadopago create success", zap.String("provider_payment_id", id), zap.String("provider_status", resp.Status))
	return entities.GatewayIntent{IntentID: id, ClientSecret: id}, nil
}

func (g *MercadoPagoGateway) RetrieveIntent(ctx context.Context, intentID string) (entities.GatewayIntentState, error) {
	id, err := strconv.Atoi(intentID)
	if err != nil {
		return entities.GatewayIntentState{}, fmt.Errorf("mercadopago payment id %q: %w", intentID, err)
	}
	resp, err := g.client.Get(ctx, id)
	if err != nil {
		g.logger.Error("[payment][gateway] mercadopago get failed", zap.String("provider_payment_id", intentID), zap.Error(err))
		return entities.GatewayIntentState{}, fmt.Errorf("mercadopago get payment: %w", err)
	}
	return entities.GatewayIntentState{Status: mercadoPagoStatus(resp.Status), ChargeID: intentID}, nil
}

type mercadoPagoNotification struct {
	ID     json.Number `json:"id"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// ParseWebhook verifies the x-signature header ("ts=<unix>,v1=<hex>") against
// the manifest "id:<data.id>;ts:<ts>;" and resolves the payment state.
func (g *MercadoPagoGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (entities.GatewayEvent, error) {
	var n mercadoPagoNotification
	if err := json.Unmarshal(payload, &n); err != nil || n.Data.ID == "" {
		g.logger.Warn("[payment][gateway] mercadopago webhook undecodable")
		return entities.GatewayEvent{}, interfaces.ErrInvalidSignature
	}
	if !g.validSignature(n.Data.ID.String(), signature) {
		g.logger.Warn("[payment][gateway] mercadopago webhook signature mismatch", zap.String("data_id", n.Data.ID.String()))
		return entities.GatewayEvent{}, interfaces.ErrInvalidSignature
	}

	out := entities.GatewayEvent{ID: n.ID.String(), Type: entities.GatewayEventIgnored, IntentID: n.Data.ID.String()}
	if n.Type != "payment" {
		return out, nil
	}
	state, err := g.RetrieveIntent(ctx, out.IntentID)
	if err != nil {
		return entities.GatewayEvent{}, err
	}
	switch state.Status {
	case entities.GatewayIntentSucceeded:
		out.Type = entities.GatewayEventPaymentSucceeded
		out.ChargeID = state.ChargeID
	case entities.GatewayIntentFailed:
		out.Type = entities.GatewayEventPaymentFailed
	}
	return out, nil
}

func (g *MercadoPagoGateway) validSignature(dataID, header string) bool {
	if g.webhookSecret == "" {
		return false
	}
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return false
	}
	expected := mercadoPagoSignature(g.webhookSecret, dataID, ts)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(v1)))
}

func mercadoPagoSignature(secret, dataID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("id:" + strings.ToLower(dataID) + ";ts:" + ts + ";"))
	return hex.EncodeToString(mac.Sum(nil))
}

func mercadoPagoStatus(status string) entities.GatewayIntentStatus {
	switch status {
	case "approved":
		return entities.GatewayIntentSucceeded
	case "in_process", "authorized", "in_mediation":
		return entities.GatewayIntentProcessing
	case "rejected", "cancelled", "refunded", "charged_back":
		return entities.GatewayIntentFailed
	default:
		return entities.GatewayIntentPending
	}
}
