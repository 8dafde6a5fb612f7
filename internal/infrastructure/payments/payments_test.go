package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

func TestNew_SelectsProvider(t *testing.T) {
	gw, err := New(Options{Provider: "MOCK", MockSecret: "s"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, gw.Name())

	_, err = New(Options{Provider: "stripe"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingStripeSecretKey)

	_, err = New(Options{Provider: "mercadopago"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingMercadoPagoAccessToken)

	_, err = New(Options{Provider: "paypal"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownGateway)
}

func TestMockGateway(t *testing.T) {
	ctx := context.Background()
	gw := NewMockGateway("whsec", zap.NewNop())

	intent, err := gw.CreateIntent(ctx, 15010, "USD", nil)
	require.NoError(t, err)
	state, err := gw.RetrieveIntent(ctx, intent.IntentID)
	require.NoError(t, err)
	assert.Equal(t, entities.GatewayIntentSucceeded, state.Status)

	gw.SetIntentState(intent.IntentID, entities.GatewayIntentState{Status: entities.GatewayIntentFailed})
	state, err = gw.RetrieveIntent(ctx, intent.IntentID)
	require.NoError(t, err)
	assert.Equal(t, entities.GatewayIntentFailed, state.Status)

	payload := []byte(`{"id":"evt_1","type":"payment_succeeded","intent_id":"` + intent.IntentID + `","charge_id":"ch_1"}`)
	ev, err := gw.ParseWebhook(ctx, payload, gw.Sign(payload))
	require.NoError(t, err)
	assert.Equal(t, entities.GatewayEventPaymentSucceeded, ev.Type)
	assert.Equal(t, intent.IntentID, ev.IntentID)

	_, err = gw.ParseWebhook(ctx, payload, "deadbeef")
	assert.ErrorIs(t, err, interfaces.ErrInvalidSignature)

	other := []byte(`{"id":"evt_2","type":"refund_created","intent_id":"x"}`)
	ev, err = gw.ParseWebhook(ctx, other, gw.Sign(other))
	require.NoError(t, err)
	assert.Equal(t, entities.GatewayEventIgnored, ev.Type)
}

type fakeMercadoPago struct {
	created payment.Request
	status  string
	err     error
}

func (f *fakeMercadoPago) Create(_ context.Context, req payment.Request) (*payment.Response, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Response{ID: 42, Status: "pending"}, nil
}

func (f *fakeMercadoPago) Get(_ context.Context, id int) (*payment.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Response{ID: id, Status: f.status}, nil
}

func TestMercadoPagoGateway_CreateIntent(t *testing.T) {
	fake := &fakeMercadoPago{}
	gw := newMercadoPagoGateway(fake, "secret", "payer@example.com", zap.NewNop())

	intent, err := gw.CreateIntent(context.Background(), 15010, "BRL", map[string]string{"quoteId": "q-1"})
	require.NoError(t, err)
	assert.Equal(t, "42", intent.IntentID)
	assert.InDelta(t, 150.10, fake.created.TransactionAmount, 0.0001)
	assert.Equal(t, "q-1", fake.created.ExternalReference)
	assert.Equal(t, "payer@example.com", fake.created.Payer.Email)

	fake.err = errors.New("boom")
	_, err = gw.CreateIntent(context.Background(), 100, "BRL", nil)
	assert.Error(t, err)
}

func TestMercadoPagoGateway_ParseWebhook(t *testing.T) {
	ctx := context.Background()
	fake := &fakeMercadoPago{status: "approved"}
	gw := newMercadoPagoGateway(fake, "secret", "", zap.NewNop())
	payload := []byte(`{"id":123,"type":"payment","action":"payment.updated","data":{"id":"42"}}`)
	header := "ts=1704908010,v1=" + mercadoPagoSignature("secret", "42", "1704908010")

	ev, err := gw.ParseWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.Equal(t, entities.GatewayEventPaymentSucceeded, ev.Type)
	assert.Equal(t, "42", ev.IntentID)

	fake.status = "rejected"
	ev, err = gw.ParseWebhook(ctx, payload, header)
	require.NoError(t, err)
	assert.Equal(t, entities.GatewayEventPaymentFailed, ev.Type)

	_, err = gw.ParseWebhook(ctx, payload, "ts=1704908010,v1=00")
	assert.ErrorIs(t, err, interfaces.ErrInvalidSignature)

	_, err = gw.ParseWebhook(ctx, payload, "")
	assert.ErrorIs(t, err, interfaces.ErrInvalidSignature)
}

func TestMercadoPagoStatus(t *testing.T) {
	cases := map[string]entities.GatewayIntentStatus{
		"approved":   entities.GatewayIntentSucceeded,
		"in_process": entities.GatewayIntentProcessing,
		"rejected":   entities.GatewayIntentFailed,
		"pending":    entities.GatewayIntentPending,
	}
	for in, want := range cases {
		assert.Equal(t, want, mercadoPagoStatus(in), in)
	}
}

func TestStripeGateway_ParseWebhook(t *testing.T) {
	gw, err := NewStripeGateway("sk_test_123", "whsec_test", zap.NewNop())
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent","status":"succeeded","latest_charge":"ch_1"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	ev, err := gw.ParseWebhook(context.Background(), payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, entities.GatewayEventPaymentSucceeded, ev.Type)
	assert.Equal(t, "pi_1", ev.IntentID)
	assert.Equal(t, "ch_1", ev.ChargeID)

	_, err = gw.ParseWebhook(context.Background(), payload, "t=1,v1=bad")
	assert.ErrorIs(t, err, interfaces.ErrInvalidSignature)
}
