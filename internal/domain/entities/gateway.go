package entities

// GatewayIntent is the handle returned by the payment gateway for a new intent.
type GatewayIntent struct {
	IntentID     string
	ClientSecret string
}

// GatewayIntentStatus is the gateway-side state of an intent, normalized across providers.
type GatewayIntentStatus string

const (
	GatewayIntentSucceeded  GatewayIntentStatus = "succeeded"
	GatewayIntentProcessing GatewayIntentStatus = "processing"
	GatewayIntentPending    GatewayIntentStatus = "pending"
	GatewayIntentFailed     GatewayIntentStatus = "failed"
)

type GatewayIntentState struct {
	Status   GatewayIntentStatus
	ChargeID string
}

type GatewayEventType string

const (
	GatewayEventPaymentSucceeded GatewayEventType = "payment_succeeded"
	GatewayEventPaymentFailed    GatewayEventType = "payment_failed"
	GatewayEventIgnored          GatewayEventType = "ignored"
)

// GatewayEvent is a verified webhook event.
type GatewayEvent struct {
	ID       string
	Type     GatewayEventType
	IntentID string
	ChargeID string
}
