package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*Store, entities.Service) {
	t.Helper()
	s := NewStore()
	now := time.Now().UTC()
	svc, err := s.Services().Create(context.Background(), entities.Service{
		ID: "svc-1", UserID: "cust-1", Status: entities.ServiceStatusPending, CreatedAt: now,
	})
	require.NoError(t, err)
	for _, id := range []string{"q-1", "q-2", "q-3"} {
		require.NoError(t, s.CreateQuote(context.Background(), entities.Quote{
			ID: id, ServiceID: svc.ID, TechnicianID: "tech-" + id, Amount: decimal.NewFromInt(10),
			Status: entities.QuoteStatusPending, CreatedAt: now,
		}))
	}
	return s, svc
}

func TestAcceptQuote_Cascade(t *testing.T) {
	s, svc := seed(t)
	ctx := context.Background()

	err := s.AcceptQuote(ctx, interfaces.AcceptQuoteCommand{
		QuoteID: "q-2", ServiceID: svc.ID, TechnicianID: "tech-q-2", SiblingIDs: []string{"q-1", "q-3"}, At: time.Now().UTC(),
	})
	require.NoError(t, err)

	for id, want := range map[string]entities.QuoteStatus{
		"q-1": entities.QuoteStatusRejected,
		"q-2": entities.QuoteStatusAccepted,
		"q-3": entities.QuoteStatusRejected,
	} {
		q, err := s.Quotes().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, q.Status, id)
	}
	got, _ := s.Services().GetByID(ctx, svc.ID)
	assert.Equal(t, entities.ServiceStatusAccepted, got.Status)
	assert.Equal(t, "tech-q-2", got.AssignedTechnicianID)

	err = s.AcceptQuote(ctx, interfaces.AcceptQuoteCommand{QuoteID: "q-1", ServiceID: svc.ID, At: time.Now().UTC()})
	assert.ErrorIs(t, err, interfaces.ErrConditionFailed)
}

func TestAcceptQuote_StaleSiblingLeavesStateUntouched(t *testing.T) {
	s, svc := seed(t)
	ctx := context.Background()

	_, err := s.Quotes().TransitionStatus(ctx, "q-3", entities.QuoteStatusPending, entities.QuoteStatusRejected, time.Now().UTC())
	require.NoError(t, err)

	err = s.AcceptQuote(ctx, interfaces.AcceptQuoteCommand{
		QuoteID: "q-2", ServiceID: svc.ID, SiblingIDs: []string{"q-1", "q-3"}, At: time.Now().UTC(),
	})
	require.ErrorIs(t, err, interfaces.ErrConditionFailed)

	q1, _ := s.Quotes().GetByID(ctx, "q-1")
	q2, _ := s.Quotes().GetByID(ctx, "q-2")
	assert.Equal(t, entities.QuoteStatusPending, q1.Status)
	assert.Equal(t, entities.QuoteStatusPending, q2.Status)
}

func TestCreatePayment_SingleClaimUnderContention(t *testing.T) {
	s, svc := seed(t)
	ctx := context.Background()
	require.NoError(t, s.AcceptQuote(ctx, interfaces.AcceptQuoteCommand{
		QuoteID: "q-1", ServiceID: svc.ID, SiblingIDs: []string{"q-2", "q-3"}, At: time.Now().UTC(),
	}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.CreatePayment(ctx, entities.Payment{
				ID: "pay-" + string(rune('a'+i)), QuoteID: "q-1", ServiceID: svc.ID, Status: entities.PaymentStatusPending,
			})
			if err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())

	q, _ := s.Quotes().GetByID(ctx, "q-1")
	require.NotEmpty(t, q.ActivePaymentID)

	require.NoError(t, s.FailPayment(ctx, q.ActivePaymentID, "q-1", time.Now().UTC()))
	q, _ = s.Quotes().GetByID(ctx, "q-1")
	assert.Empty(t, q.ActivePaymentID)
	assert.NoError(t, s.CreatePayment(ctx, entities.Payment{ID: "pay-retry", QuoteID: "q-1", Status: entities.PaymentStatusPending}))
}

func TestCompletePayment_OnlyOnce(t *testing.T) {
	s, svc := seed(t)
	ctx := context.Background()
	require.NoError(t, s.AcceptQuote(ctx, interfaces.AcceptQuoteCommand{
		QuoteID: "q-1", ServiceID: svc.ID, SiblingIDs: []string{"q-2", "q-3"}, At: time.Now().UTC(),
	}))
	require.NoError(t, s.CreatePayment(ctx, entities.Payment{ID: "pay-1", QuoteID: "q-1", ServiceID: svc.ID, Status: entities.PaymentStatusPending}))

	require.NoError(t, s.CompletePayment(ctx, "pay-1", svc.ID, "ch_1", time.Now().UTC()))
	assert.ErrorIs(t, s.CompletePayment(ctx, "pay-1", svc.ID, "ch_2", time.Now().UTC()), interfaces.ErrConditionFailed)

	p, _ := s.Payments().GetByID(ctx, "pay-1")
	assert.Equal(t, entities.PaymentStatusCompleted, p.Status)
	assert.Equal(t, "ch_1", p.ExternalChargeID)
	assert.NotNil(t, p.PaidAt)
	got, _ := s.Services().GetByID(ctx, svc.ID)
	assert.Equal(t, entities.ServiceStatusInProgress, got.Status)
}

func TestUserRepository_EmailUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, err := s.Users().Create(ctx, entities.User{ID: "u-1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = s.Users().Create(ctx, entities.User{ID: "u-2", Email: "A@example.com"})
	assert.ErrorIs(t, err, interfaces.ErrDuplicateKey)
}

func TestCreateQuote_OneActivePerTechnician(t *testing.T) {
	s, svc := seed(t)
	ctx := context.Background()
	again := entities.Quote{
		ID: "q-4", ServiceID: svc.ID, TechnicianID: "tech-q-1", Amount: decimal.NewFromInt(12),
		Status: entities.QuoteStatusPending, CreatedAt: time.Now().UTC(),
	}

	assert.ErrorIs(t, s.CreateQuote(ctx, again), interfaces.ErrDuplicateKey)

	_, err := s.Quotes().TransitionStatus(ctx, "q-1", entities.QuoteStatusPending, entities.QuoteStatusRejected, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, s.CreateQuote(ctx, again))
}
