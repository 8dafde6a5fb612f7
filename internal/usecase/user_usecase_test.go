package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"
	mock_interfaces "homeservices/internal/usecase/interfaces/mocks"
	"homeservices/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestUserUseCase_RegisterUser(t *testing.T) {
	f := newFixture(t)
	u, err := f.users.RegisterUser(f.ctx, RegisterUserInput{Name: " Ana ", Email: " Ana@Example.com ", Role: entities.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.True(t, u.Active)

	_, err = f.users.RegisterUser(f.ctx, RegisterUserInput{Name: "Ana 2", Email: "ANA@example.com", Role: entities.RoleCustomer})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.users.RegisterUser(f.ctx, RegisterUserInput{Name: "x", Email: "nope", Role: "superuser", Specialties: []entities.Category{"roofing"}})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid_value", verr.Violations["email"])
	assert.Equal(t, "invalid_value", verr.Violations["role"])
	assert.Equal(t, "invalid_value", verr.Violations["specialties"])
}

func TestUserUseCase_RegisterUser_DuplicateKeyFromStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIUserRepository(ctrl)
	uc := NewUserUseCase(repo, zap.NewNop())

	repo.EXPECT().GetByEmail(gomock.Any(), "bo@example.com").Return(entities.User{}, nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.User{}, interfaces.ErrDuplicateKey)

	_, err := uc.RegisterUser(context.Background(), RegisterUserInput{Name: "Bo", Email: "bo@example.com", Role: entities.RoleCustomer})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserUseCase_Profiles(t *testing.T) {
	f := newFixture(t)
	customer := f.customer("carol")
	tech := f.technician("tom", entities.CategoryGas)

	name := "Carol Smith"
	phone := " 555-0100 "
	updated, err := f.users.UpdateProfile(f.ctx, customer.ID, UpdateProfileInput{
		Name:    &name,
		Phone:   &phone,
		Address: &entities.Address{City: "Porto"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Carol Smith", updated.Name)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.Equal(t, "Porto", updated.Address.City)

	blank := " "
	_, err = f.users.UpdateProfile(f.ctx, customer.ID, UpdateProfileInput{Name: &blank})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	_, err = f.users.UpdateTechnicianProfile(f.ctx, customer.ID, UpdateTechnicianProfileInput{})
	assert.ErrorIs(t, err, ErrTechniciansOnly)

	years := 7
	techUpdated, err := f.users.UpdateTechnicianProfile(f.ctx, tech.ID, UpdateTechnicianProfileInput{
		Specialties:     []entities.Category{entities.CategoryGas, entities.CategoryElectrical},
		ExperienceYears: &years,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, techUpdated.TechnicianProfile.ExperienceYears)
	assert.True(t, techUpdated.TechnicianProfile.HasSpecialty(entities.CategoryElectrical))

	_, err = f.users.GetProfile(f.ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserUseCase_ListTechnicians(t *testing.T) {
	f := newFixture(t)
	low := f.technician("low", entities.CategoryPlumbing)
	high := f.technician("high", entities.CategoryPlumbing)
	f.technician("sparky", entities.CategoryElectrical)
	f.customer("not-a-tech")

	_, err := f.users.RecordReview(f.ctx, low.ID, 2)
	require.NoError(t, err)
	_, err = f.users.RecordReview(f.ctx, high.ID, 5)
	require.NoError(t, err)

	plumbers, err := f.users.ListTechnicians(f.ctx, entities.CategoryPlumbing)
	require.NoError(t, err)
	require.Len(t, plumbers, 2)
	assert.Equal(t, high.ID, plumbers[0].ID)

	all, err := f.users.ListTechnicians(f.ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.users.ListTechnicians(f.ctx, "roofing")
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestUserUseCase_RecordReview(t *testing.T) {
	t.Run("running average", func(t *testing.T) {
		f := newFixture(t)
		tech := f.technician("tech")
		_, err := f.users.RecordReview(f.ctx, tech.ID, 5)
		require.NoError(t, err)
		got, err := f.users.RecordReview(f.ctx, tech.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, got.TechnicianProfile.TotalReviews)
		assert.InDelta(t, 4.0, got.TechnicianProfile.Rating, 1e-9)
	})

	t.Run("concurrent reviews are all counted", func(t *testing.T) {
		const n = 20
		f := newFixture(t)
		tech := f.technician("tech")
		var wg sync.WaitGroup
		var mu sync.Mutex
		failed := 0
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.users.RecordReview(context.Background(), tech.ID, 4); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		got, err := f.users.GetProfile(f.ctx, tech.ID)
		require.NoError(t, err)
		assert.Equal(t, n-failed, got.TechnicianProfile.TotalReviews)
		assert.InDelta(t, 4.0, got.TechnicianProfile.Rating, 1e-9)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIUserRepository(ctrl)
		uc := NewUserUseCase(repo, zap.NewNop())
		tech := entities.User{ID: "t1", Role: entities.RoleTechnician}

		repo.EXPECT().GetByID(gomock.Any(), "t1").Return(tech, nil).Times(maxRatingAttempts)
		repo.EXPECT().UpdateRating(gomock.Any(), "t1", 0, gomock.Any(), gomock.Any()).
			Return(interfaces.ErrConditionFailed).Times(maxRatingAttempts)

		_, err := uc.RecordReview(context.Background(), "t1", 5)
		assert.ErrorIs(t, err, ErrConcurrentUpdate)
	})
}

func TestStatsUseCase_GetStats(t *testing.T) {
	f := newFixture(t)
	owner, _, _, q := f.acceptedQuote("120.50")
	f.expectIntent("pi_stats")
	intent, err := f.payments.CreatePaymentIntent(f.ctx, q.ID, owner.ID)
	require.NoError(t, err)
	f.gateway.EXPECT().RetrieveIntent(gomock.Any(), "pi_stats").
		Return(entities.GatewayIntentState{Status: entities.GatewayIntentSucceeded}, nil)
	_, err = f.payments.ConfirmPayment(f.ctx, intent.Payment.ID, owner.ID)
	require.NoError(t, err)

	stats, err := NewStatsUseCase(f.store).GetStats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UsersByRole[entities.RoleCustomer])
	assert.Equal(t, 1, stats.UsersByRole[entities.RoleTechnician])
	assert.Equal(t, 1, stats.ServicesByStatus[entities.ServiceStatusInProgress])
	assert.Equal(t, 1, stats.QuotesByStatus[entities.QuoteStatusAccepted])
	assert.Equal(t, 1, stats.PaymentsByStatus[entities.PaymentStatusCompleted])
	assert.Equal(t, "120.50", stats.Revenue)
}
