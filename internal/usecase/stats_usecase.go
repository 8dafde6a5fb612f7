package usecase

import (
	"context"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

type IStatsUseCase interface {
	GetStats(ctx context.Context) (entities.Stats, error)
}

type StatsUseCase struct {
	store interfaces.Store
}

var _ IStatsUseCase = (*StatsUseCase)(nil)

func NewStatsUseCase(store interfaces.Store) *StatsUseCase {
	return &StatsUseCase{store: store}
}

// GetStats counts every entity by role or status. Revenue is the sum of
// completed payments, rendered with two decimals.
func (u *StatsUseCase) GetStats(ctx context.Context) (entities.Stats, error) {
	users, err := u.store.Users.List(ctx, entities.UserFilter{})
	if err != nil {
		return entities.Stats{}, err
	}
	services, err := u.store.Services.List(ctx, entities.ServiceFilter{})
	if err != nil {
		return entities.Stats{}, err
	}
	quotes, err := u.store.Quotes.List(ctx, entities.QuoteFilter{})
	if err != nil {
		return entities.Stats{}, err
	}
	payments, err := u.store.Payments.List(ctx, entities.PaymentFilter{})
	if err != nil {
		return entities.Stats{}, err
	}

	stats := entities.Stats{
		UsersByRole:      map[entities.Role]int{},
		ServicesByStatus: map[entities.ServiceStatus]int{},
		QuotesByStatus:   map[entities.QuoteStatus]int{},
		PaymentsByStatus: map[entities.PaymentStatus]int{},
	}
	for _, usr := range users {
		stats.UsersByRole[usr.Role]++
	}
	for _, s := range services {
		stats.ServicesByStatus[s.Status]++
	}
	for _, q := range quotes {
		stats.QuotesByStatus[q.Status]++
	}
	revenue := decimal.Zero
	for _, p := range payments {
		stats.PaymentsByStatus[p.Status]++
		if p.Status == entities.PaymentStatusCompleted {
			revenue = revenue.Add(p.Amount)
		}
	}
	stats.Revenue = revenue.StringFixed(2)
	return stats, nil
}
