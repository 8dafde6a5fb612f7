package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockGateway is an in-process gateway for local runs. Intents succeed unless
// overridden with SetIntentState; webhooks are signed with hex HMAC-SHA256 of
// the raw body.
type MockGateway struct {
	mu      sync.Mutex
	secret  string
	intents map[string]entities.GatewayIntentState
	logger  *zap.Logger
}

var _ interfaces.IPaymentGateway = (*MockGateway)(nil)

// MockWebhookEvent is the body accepted by MockGateway.ParseWebhook.
type MockWebhookEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	IntentID string `json:"intent_id"`
	ChargeID string `json:"charge_id,omitempty"`
}

func NewMockGateway(secret string, logger *zap.Logger) *MockGateway {
	logger.Info("[payment][gateway] mock mode enabled")
	return &MockGateway{secret: secret, intents: map[string]entities.GatewayIntentState{}, logger: logger}
}

func (g *MockGateway) Name() string { return ProviderMock }

func (g *MockGateway) CreateIntent(_ context.Context, amountMinorUnits int64, currency string, _ map[string]string) (entities.GatewayIntent, error) {
	id := "mock_pi_" + uuid.NewString()
	g.mu.Lock()
	g.intents[id] = entities.GatewayIntentState{Status: entities.GatewayIntentSucceeded, ChargeID: "mock_ch_" + uuid.NewString()}
	g.mu.Unlock()
	g.logger.Info("[payment][gateway] mock create success", zap.String("intent_id", id), zap.Int64("amount_minor", amountMinorUnits), zap.String("currency", currency))
	return entities.GatewayIntent{IntentID: id, ClientSecret: id + "_secret"}, nil
}

// SetIntentState overrides what RetrieveIntent reports for intentID.
func (g *MockGateway) SetIntentState(intentID string, state entities.GatewayIntentState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[intentID] = state
}

func (g *MockGateway) RetrieveIntent(_ context.Context, intentID string) (entities.GatewayIntentState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, ok := g.intents[intentID]
	if !ok {
		return entities.GatewayIntentState{}, fmt.Errorf("mock intent %s not found", intentID)
	}
	return state, nil
}

func (g *MockGateway) ParseWebhook(_ context.Context, payload []byte, signature string) (entities.GatewayEvent, error) {
	if g.secret == "" || !hmac.Equal([]byte(g.Sign(payload)), []byte(signature)) {
		return entities.GatewayEvent{}, interfaces.ErrInvalidSignature
	}
	var ev MockWebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return entities.GatewayEvent{}, interfaces.ErrMalformedWebhook
	}
	out := entities.GatewayEvent{ID: ev.ID, Type: entities.GatewayEventIgnored, IntentID: ev.IntentID, ChargeID: ev.ChargeID}
	switch entities.GatewayEventType(ev.Type) {
	case entities.GatewayEventPaymentSucceeded, entities.GatewayEventPaymentFailed:
		out.Type = entities.GatewayEventType(ev.Type)
	}
	return out, nil
}

// Sign returns the signature ParseWebhook expects for payload.
func (g *MockGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
