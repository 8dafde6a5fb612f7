package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"
	"homeservices/pkg"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"150":     15000,
		"99.99":   9999,
		"10.005":  1001,
		"0.01":    1,
		"1234.50": 123450,
	}
	for in, want := range cases {
		assert.Equal(t, want, MinorUnits(decimal.RequireFromString(in), "USD"), in)
	}

	assert.Equal(t, int64(1500), MinorUnits(decimal.RequireFromString("1500"), "JPY"))
	assert.Equal(t, int64(1501), MinorUnits(decimal.RequireFromString("1500.5"), "jpy"))
	assert.Equal(t, int64(12345), MinorUnits(decimal.RequireFromString("12.345"), "KWD"))
}

func TestPaymentUseCase_CreatePaymentIntent(t *testing.T) {
	t.Run("quote not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.payments.CreatePaymentIntent(f.ctx, "missing", "owner")
		assert.ErrorIs(t, err, ErrQuoteNotFound)
	})

	t.Run("quote not accepted", func(t *testing.T) {
		f := newFixture(t)
		owner := f.customer("owner")
		q := f.quote(f.service(owner), f.technician("tech"), "100")
		_, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		assert.ErrorIs(t, err, ErrQuoteNotAccepted)
		assert.Equal(t, pkg.KindConflict, pkg.KindOf(err))
	})

	t.Run("only the owner can pay", func(t *testing.T) {
		f := newFixture(t)
		_, tech, _, q := f.acceptedQuote("100")
		_, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, tech.ID)
		assert.ErrorIs(t, err, ErrNotServiceOwner)
	})

	t.Run("gateway failure writes nothing", func(t *testing.T) {
		f := newFixture(t)
		owner, _, _, q := f.acceptedQuote("100")
		f.gateway.EXPECT().CreateIntent(gomock.Any(), int64(10000), "USD", gomock.Any()).
			Return(entities.GatewayIntent{}, errors.New("card network down"))

		_, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		assert.ErrorIs(t, err, ErrPaymentGatewayFailure)
		assert.Equal(t, pkg.KindUpstreamFailure, pkg.KindOf(err))

		list, err := f.store.Payments.List(f.ctx, entities.PaymentFilter{QuoteID: q.ID})
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.Empty(t, f.mustQuote(q.ID).ActivePaymentID)
	})

	t.Run("metadata identifies the job", func(t *testing.T) {
		f := newFixture(t)
		owner, tech, svc, q := f.acceptedQuote("42.50")
		f.gateway.EXPECT().CreateIntent(gomock.Any(), int64(4250), "USD", map[string]string{
			"quoteId":      q.ID,
			"serviceId":    svc.ID,
			"userId":       owner.ID,
			"technicianId": tech.ID,
		}).Return(entities.GatewayIntent{IntentID: "pi_meta", ClientSecret: "secret"}, nil)

		intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "mock", intent.Payment.Gateway)
		assert.Equal(t, "USD", intent.Payment.Currency)
		assert.Equal(t, "pi_meta", intent.Payment.ExternalIntentID)
		assert.Equal(t, intent.Payment.ID, f.mustQuote(q.ID).ActivePaymentID)
	})
}

func TestPaymentUseCase_CreatePaymentIntent_ConcurrentCallsCreateOnePayment(t *testing.T) {
	const n = 10
	f := newFixture(t)
	owner, _, _, q := f.acceptedQuote("100")
	f.gateway.EXPECT().CreateIntent(gomock.Any(), int64(10000), "USD", gomock.Any()).
		Return(entities.GatewayIntent{IntentID: "pi_race", ClientSecret: "s"}, nil).
		MinTimes(1).MaxTimes(n)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.payments.CreatePaymentIntent(context.Background(), q.ID, owner.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicatePayment)
	}
	assert.Equal(t, 1, ok)

	list, err := f.store.Payments.List(f.ctx, entities.PaymentFilter{QuoteID: q.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPaymentUseCase_ConfirmPayment(t *testing.T) {
	t.Run("succeeded intent completes payment and starts service", func(t *testing.T) {
		f := newFixture(t)
		owner, tech, svc, q := f.acceptedQuote("100")
		f.expectIntent("pi_ok")
		intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)

		f.gateway.EXPECT().RetrieveIntent(gomock.Any(), "pi_ok").
			Return(entities.GatewayIntentState{Status: entities.GatewayIntentSucceeded, ChargeID: "ch_ok"}, nil)
		paid, err := f.payments.ConfirmPayment(f.ctx, intent.Payment.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.PaymentStatusCompleted, paid.Status)
		assert.Equal(t, entities.ServiceStatusInProgress, f.mustService(svc.ID).Status)
		assert.Equal(t, 1, f.notifier.count(entities.TechnicianChannel(tech.ID), entities.EventPaymentReceived))

		// Second confirmation does not reach the gateway nor notify again.
		again, err := f.payments.ConfirmPayment(f.ctx, intent.Payment.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.PaymentStatusCompleted, again.Status)
		assert.Equal(t, 1, f.notifier.count(entities.ServiceChannel(svc.ID), entities.EventPaymentCompleted))
	})

	t.Run("unpaid intent fails payment and frees the quote", func(t *testing.T) {
		f := newFixture(t)
		owner, _, svc, q := f.acceptedQuote("100")
		f.expectIntent("pi_1")
		first, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)

		f.gateway.EXPECT().RetrieveIntent(gomock.Any(), "pi_1").
			Return(entities.GatewayIntentState{Status: entities.GatewayIntentPending}, nil)
		_, err = f.payments.ConfirmPayment(f.ctx, first.Payment.ID, owner.ID)
		var notCompleted *PaymentNotCompletedError
		require.True(t, errors.As(err, &notCompleted))
		assert.Equal(t, entities.PaymentStatusFailed, notCompleted.Payment.Status)
		assert.Equal(t, pkg.KindConflict, pkg.KindOf(err))
		assert.Equal(t, entities.PaymentStatusFailed, f.mustPayment(first.Payment.ID).Status)
		assert.Equal(t, entities.ServiceStatusAccepted, f.mustService(svc.ID).Status)

		f.expectIntent("pi_2")
		second, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)
		assert.NotEqual(t, first.Payment.ID, second.Payment.ID)
	})

	t.Run("gateway error leaves payment untouched", func(t *testing.T) {
		f := newFixture(t)
		owner, _, _, q := f.acceptedQuote("100")
		f.expectIntent("pi_err")
		intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)

		f.gateway.EXPECT().RetrieveIntent(gomock.Any(), "pi_err").Return(entities.GatewayIntentState{}, errors.New("timeout"))
		_, err = f.payments.ConfirmPayment(f.ctx, intent.Payment.ID, owner.ID)
		assert.Equal(t, pkg.KindUpstreamFailure, pkg.KindOf(err))
		assert.Equal(t, entities.PaymentStatusPending, f.mustPayment(intent.Payment.ID).Status)
	})

	t.Run("forbidden and not found", func(t *testing.T) {
		f := newFixture(t)
		owner, tech, _, q := f.acceptedQuote("100")
		f.expectIntent("pi_x")
		intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)

		_, err = f.payments.ConfirmPayment(f.ctx, intent.Payment.ID, tech.ID)
		assert.ErrorIs(t, err, ErrNotPaymentOwner)
		_, err = f.payments.ConfirmPayment(f.ctx, "missing", owner.ID)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})

	t.Run("service cancelled before payment lands", func(t *testing.T) {
		f := newFixture(t)
		owner, _, svc, q := f.acceptedQuote("100")
		f.expectIntent("pi_late")
		intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)
		_, err = f.services.UpdateServiceStatus(f.ctx, svc.ID, "admin", entities.RoleAdmin, entities.ServiceStatusCancelled)
		require.NoError(t, err)

		f.gateway.EXPECT().RetrieveIntent(gomock.Any(), "pi_late").
			Return(entities.GatewayIntentState{Status: entities.GatewayIntentSucceeded}, nil)
		_, err = f.payments.ConfirmPayment(f.ctx, intent.Payment.ID, owner.ID)
		assert.ErrorIs(t, err, ErrServiceNotPayable)
		assert.Equal(t, entities.PaymentStatusPending, f.mustPayment(intent.Payment.ID).Status)
	})
}

func TestPaymentUseCase_HandleGatewayWebhook(t *testing.T) {
	t.Run("bad signature changes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), "forged").
			Return(entities.GatewayEvent{}, interfaces.ErrInvalidSignature)
		err := f.payments.HandleGatewayWebhook(f.ctx, []byte(`{}`), "forged")
		assert.ErrorIs(t, err, ErrInvalidWebhookSignature)
		assert.Equal(t, pkg.KindUnauthorized, pkg.KindOf(err))
	})

	t.Run("malformed payload", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(entities.GatewayEvent{}, interfaces.ErrMalformedWebhook)
		err := f.payments.HandleGatewayWebhook(f.ctx, []byte(`{`), "sig")
		assert.Equal(t, pkg.KindValidation, pkg.KindOf(err))
	})

	t.Run("unknown intent and other events are acknowledged", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(entities.GatewayEvent{Type: entities.GatewayEventPaymentSucceeded, IntentID: "pi_unknown"}, nil)
		assert.NoError(t, f.payments.HandleGatewayWebhook(f.ctx, []byte(`{}`), "sig"))

		f.gateway.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(entities.GatewayEvent{Type: entities.GatewayEventIgnored}, nil)
		assert.NoError(t, f.payments.HandleGatewayWebhook(f.ctx, []byte(`{}`), "sig"))
	})

	t.Run("replayed success is a no-op", func(t *testing.T) {
		f := newFixture(t)
		owner, _, svc, q := f.acceptedQuote("100")
		f.expectIntent("pi_replay")
		intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)

		ev := entities.GatewayEvent{ID: "evt", Type: entities.GatewayEventPaymentSucceeded, IntentID: "pi_replay", ChargeID: "ch"}
		f.gateway.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any()).Return(ev, nil).Times(3)
		require.NoError(t, f.payments.HandleGatewayWebhook(f.ctx, []byte(`{}`), "sig"))
		first := f.mustPayment(intent.Payment.ID)
		require.NotNil(t, first.PaidAt)
		started := f.mustService(svc.ID)

		for i := 0; i < 2; i++ {
			f.now = f.now.Add(time.Hour)
			require.NoError(t, f.payments.HandleGatewayWebhook(f.ctx, []byte(`{}`), "sig"))
		}
		paid := f.mustPayment(intent.Payment.ID)
		assert.Equal(t, entities.PaymentStatusCompleted, paid.Status)
		require.NotNil(t, paid.PaidAt)
		assert.True(t, first.PaidAt.Equal(*paid.PaidAt))
		assert.Equal(t, first.UpdatedAt, paid.UpdatedAt)
		after := f.mustService(svc.ID)
		assert.Equal(t, entities.ServiceStatusInProgress, after.Status)
		assert.Equal(t, started.UpdatedAt, after.UpdatedAt)
		assert.Equal(t, 1, f.notifier.count(entities.ServiceChannel(svc.ID), entities.EventPaymentCompleted))
	})

	t.Run("failure event releases the quote", func(t *testing.T) {
		f := newFixture(t)
		owner, _, _, q := f.acceptedQuote("100")
		f.expectIntent("pi_fail")
		intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)

		f.gateway.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(entities.GatewayEvent{Type: entities.GatewayEventPaymentFailed, IntentID: "pi_fail"}, nil).Times(2)
		require.NoError(t, f.payments.HandleGatewayWebhook(f.ctx, []byte(`{}`), "sig"))
		require.NoError(t, f.payments.HandleGatewayWebhook(f.ctx, []byte(`{}`), "sig"))
		assert.Equal(t, entities.PaymentStatusFailed, f.mustPayment(intent.Payment.ID).Status)
		assert.Empty(t, f.mustQuote(q.ID).ActivePaymentID)
		assert.Equal(t, 1, f.notifier.count(entities.UserChannel(owner.ID), entities.EventPaymentFailed))
	})

	t.Run("webhook and confirm racing complete once", func(t *testing.T) {
		f := newFixture(t)
		owner, _, svc, q := f.acceptedQuote("100")
		f.expectIntent("pi_both")
		intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
		require.NoError(t, err)

		f.gateway.EXPECT().ParseWebhook(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(entities.GatewayEvent{Type: entities.GatewayEventPaymentSucceeded, IntentID: "pi_both"}, nil)
		f.gateway.EXPECT().RetrieveIntent(gomock.Any(), "pi_both").
			Return(entities.GatewayIntentState{Status: entities.GatewayIntentSucceeded}, nil).MaxTimes(1)

		var wg sync.WaitGroup
		var webhookErr, confirmErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			webhookErr = f.payments.HandleGatewayWebhook(context.Background(), []byte(`{}`), "sig")
		}()
		go func() {
			defer wg.Done()
			_, confirmErr = f.payments.ConfirmPayment(context.Background(), intent.Payment.ID, owner.ID)
		}()
		wg.Wait()

		assert.NoError(t, webhookErr)
		assert.NoError(t, confirmErr)
		assert.Equal(t, entities.PaymentStatusCompleted, f.mustPayment(intent.Payment.ID).Status)
		assert.Equal(t, entities.ServiceStatusInProgress, f.mustService(svc.ID).Status)
		assert.Equal(t, 1, f.notifier.count(entities.ServiceChannel(svc.ID), entities.EventPaymentCompleted))
	})
}

func TestPaymentUseCase_ListAndGet(t *testing.T) {
	f := newFixture(t)
	owner, tech, _, q := f.acceptedQuote("100")
	f.expectIntent("pi_list")
	intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
	require.NoError(t, err)
	stranger := f.customer("stranger")

	for _, c := range []struct {
		id   string
		role entities.Role
		want int
	}{
		{owner.ID, entities.RoleCustomer, 1},
		{tech.ID, entities.RoleTechnician, 1},
		{"admin", entities.RoleAdmin, 1},
		{stranger.ID, entities.RoleCustomer, 0},
	} {
		list, err := f.payments.ListPayments(f.ctx, c.id, c.role)
		require.NoError(t, err)
		assert.Len(t, list, c.want)
	}

	got, err := f.payments.GetPayment(f.ctx, intent.Payment.ID, tech.ID, entities.RoleTechnician)
	require.NoError(t, err)
	assert.Equal(t, intent.Payment.ID, got.ID)
	_, err = f.payments.GetPayment(f.ctx, intent.Payment.ID, stranger.ID, entities.RoleCustomer)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
