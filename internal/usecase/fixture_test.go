package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"homeservices/internal/adapter/persistence/memory"
	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"
	mock_interfaces "homeservices/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type sentEvent struct {
	Channel string
	Event   string
}

// recordingNotifier keeps every notification so tests can count them.
type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, channel, event string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{Channel: channel, Event: event})
}

func (n *recordingNotifier) count(channel, event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.Channel == channel && e.Event == event {
			c++
		}
	}
	return c
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	mem      *memory.Store
	store    interfaces.Store
	gateway  *mock_interfaces.MockIPaymentGateway
	notifier *recordingNotifier
	now      time.Time

	users    *UserUseCase
	services *ServiceUseCase
	quotes   *QuoteUseCase
	payments *PaymentUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := mock_interfaces.NewMockIPaymentGateway(ctrl)
	gateway.EXPECT().Name().Return("mock").AnyTimes()

	mem := memory.NewStore()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		mem:      mem,
		store:    mem.Bundle(),
		gateway:  gateway,
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.wire()
	return f
}

// wire (re)builds the use cases on top of f.store, so tests can swap a port first.
func (f *fixture) wire() {
	logger := zap.NewNop()
	clock := func() time.Time { return f.now }

	f.users = NewUserUseCase(f.store.Users, logger)
	f.users.now = clock
	f.services = NewServiceUseCase(f.store, f.users, f.notifier, logger)
	f.services.now = clock
	f.quotes = NewQuoteUseCase(f.store, f.notifier, entities.DefaultQuoteTTL, logger)
	f.quotes.now = clock
	f.payments = NewPaymentUseCase(f.store, f.gateway, f.notifier, "usd", logger)
	f.payments.now = clock
}

func (f *fixture) customer(name string) entities.User {
	f.t.Helper()
	u, err := f.users.RegisterUser(f.ctx, RegisterUserInput{Name: name, Email: name + "@example.com", Role: entities.RoleCustomer})
	require.NoError(f.t, err)
	return u
}

func (f *fixture) technician(name string, specialties ...entities.Category) entities.User {
	f.t.Helper()
	u, err := f.users.RegisterUser(f.ctx, RegisterUserInput{
		Name:        name,
		Email:       name + "@example.com",
		Role:        entities.RoleTechnician,
		Specialties: specialties,
	})
	require.NoError(f.t, err)
	return u
}

func (f *fixture) service(owner entities.User) entities.Service {
	f.t.Helper()
	svc, err := f.services.CreateService(f.ctx, entities.RoleCustomer, CreateServiceInput{
		OwnerID:     owner.ID,
		Category:    entities.CategoryPlumbing,
		Title:       "Leaking sink",
		Description: "Kitchen sink leaks under the cabinet",
	})
	require.NoError(f.t, err)
	return svc
}

func (f *fixture) quote(svc entities.Service, tech entities.User, amount string) entities.Quote {
	f.t.Helper()
	q, err := f.quotes.CreateQuote(f.ctx, CreateQuoteInput{
		ServiceID:    svc.ID,
		TechnicianID: tech.ID,
		Amount:       decimal.RequireFromString(amount),
		LaborCost:    decimal.RequireFromString(amount),
		Description:  "fix leak",
	})
	require.NoError(f.t, err)
	return q
}

// acceptedQuote builds owner, technician, service and an accepted quote.
func (f *fixture) acceptedQuote(amount string) (entities.User, entities.User, entities.Service, entities.Quote) {
	f.t.Helper()
	owner := f.customer("owner")
	tech := f.technician("tech", entities.CategoryPlumbing)
	svc := f.service(owner)
	q := f.quote(svc, tech, amount)
	q, svc, err := f.quotes.AcceptQuote(f.ctx, q.ID, owner.ID)
	require.NoError(f.t, err)
	return owner, tech, svc, q
}

func (f *fixture) expectIntent(intentID string) {
	f.gateway.EXPECT().
		CreateIntent(gomock.Any(), gomock.Any(), "USD", gomock.Any()).
		Return(entities.GatewayIntent{IntentID: intentID, ClientSecret: intentID + "_secret"}, nil)
}

func (f *fixture) mustService(id string) entities.Service {
	f.t.Helper()
	svc, err := f.store.Services.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return svc
}

func (f *fixture) mustQuote(id string) entities.Quote {
	f.t.Helper()
	q, err := f.store.Quotes.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return q
}

func (f *fixture) mustPayment(id string) entities.Payment {
	f.t.Helper()
	p, err := f.store.Payments.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return p
}
