package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"
	"homeservices/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateServiceInput struct {
	OwnerID       string
	Category      entities.Category
	Title         string
	Description   string
	Urgency       entities.Urgency
	Address       entities.Address
	PreferredDate *time.Time
}

// ServiceDetails is a service together with the quotes submitted for it.
type ServiceDetails struct {
	Service entities.Service `json:"service"`
	Quotes  []entities.Quote `json:"quotes"`
}

type IServiceUseCase interface {
	CreateService(ctx context.Context, role entities.Role, in CreateServiceInput) (entities.Service, error)
	ListServices(ctx context.Context, requesterID string, role entities.Role) ([]entities.Service, error)
	GetService(ctx context.Context, serviceID, requesterID string, role entities.Role) (ServiceDetails, error)
	ListAssignedServices(ctx context.Context, technicianID string) ([]entities.Service, error)
	UpdateServiceStatus(ctx context.Context, serviceID, requesterID string, role entities.Role, status entities.ServiceStatus) (entities.Service, error)
	RateService(ctx context.Context, serviceID, requesterID string, rating int, review string) (entities.Service, error)
}

type ServiceUseCase struct {
	store    interfaces.Store
	users    IUserUseCase
	notifier interfaces.INotifier
	logger   *zap.Logger
	now      func() time.Time
}

var _ IServiceUseCase = (*ServiceUseCase)(nil)

func NewServiceUseCase(store interfaces.Store, users IUserUseCase, notifier interfaces.INotifier, logger *zap.Logger) *ServiceUseCase {
	return &ServiceUseCase{store: store, users: users, notifier: notifier, logger: logger, now: utcNow}
}

func (u *ServiceUseCase) CreateService(ctx context.Context, role entities.Role, in CreateServiceInput) (entities.Service, error) {
	if role != entities.RoleCustomer {
		return entities.Service{}, ErrCustomersOnly
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Urgency == "" {
		in.Urgency = entities.UrgencyMedium
	}

	v := validation.Violations{}
	validation.Required("title", in.Title, v)
	validation.Required("description", in.Description, v)
	validation.OneOf("category", string(in.Category), categoryNames(), v)
	validation.OneOf("urgency", string(in.Urgency), urgencyNames(), v)
	if err := v.Err(); err != nil {
		return entities.Service{}, err
	}

	now := u.now()
	svc := entities.Service{
		ID:            uuid.NewString(),
		UserID:        in.OwnerID,
		Category:      in.Category,
		Title:         in.Title,
		Description:   in.Description,
		Urgency:       in.Urgency,
		Address:       in.Address,
		PreferredDate: in.PreferredDate,
		Status:        entities.ServiceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := u.store.Services.Create(ctx, svc)
	if err != nil {
		u.logger.Error("[service][usecase] create failed", zap.String("user_id", in.OwnerID), zap.Error(err))
		return entities.Service{}, err
	}
	u.logger.Info("[service][usecase] create success", zap.String("service_id", created.ID), zap.String("category", string(created.Category)))
	u.notifier.Notify(ctx, entities.ChannelTechnicians, entities.EventNewService, map[string]any{"service": created})
	return created, nil
}

func (u *ServiceUseCase) ListServices(ctx context.Context, requesterID string, role entities.Role) ([]entities.Service, error) {
	switch role {
	case entities.RoleAdmin:
		return u.store.Services.List(ctx, entities.ServiceFilter{})
	case entities.RoleCustomer:
		return u.store.Services.List(ctx, entities.ServiceFilter{UserID: requesterID})
	case entities.RoleTechnician:
		filter := entities.ServiceFilter{Statuses: entities.QuotableServiceStatuses}
		tech, err := u.store.Users.GetByID(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		filter.Categories = tech.TechnicianProfile.Specialties
		return u.store.Services.List(ctx, filter)
	}
	return nil, ErrAccessDenied
}

func (u *ServiceUseCase) GetService(ctx context.Context, serviceID, requesterID string, role entities.Role) (ServiceDetails, error) {
	svc, err := u.loadService(ctx, serviceID)
	if err != nil {
		return ServiceDetails{}, err
	}
	if role == entities.RoleCustomer && svc.UserID != requesterID {
		return ServiceDetails{}, ErrNotServiceOwner
	}
	filter := entities.QuoteFilter{ServiceIDs: []string{svc.ID}}
	if role == entities.RoleTechnician && svc.AssignedTechnicianID != requesterID {
		// Technicians only see their own quotes on services they do not hold.
		filter.TechnicianID = requesterID
	}
	quotes, err := u.store.Quotes.List(ctx, filter)
	if err != nil {
		return ServiceDetails{}, err
	}
	return ServiceDetails{Service: svc, Quotes: quotes}, nil
}

func (u *ServiceUseCase) ListAssignedServices(ctx context.Context, technicianID string) ([]entities.Service, error) {
	return u.store.Services.List(ctx, entities.ServiceFilter{
		AssignedTechnicianID: technicianID,
		Statuses: []entities.ServiceStatus{
			entities.ServiceStatusAccepted,
			entities.ServiceStatusInProgress,
			entities.ServiceStatusCompleted,
		},
	})
}

func (u *ServiceUseCase) UpdateServiceStatus(ctx context.Context, serviceID, requesterID string, role entities.Role, status entities.ServiceStatus) (entities.Service, error) {
	v := validation.Violations{}
	validation.OneOf("status", string(status), serviceStatusNames(), v)
	if err := v.Err(); err != nil {
		return entities.Service{}, err
	}

	svc, err := u.loadService(ctx, serviceID)
	if err != nil {
		return entities.Service{}, err
	}
	if role != entities.RoleAdmin && svc.UserID != requesterID {
		return entities.Service{}, ErrNotServiceOwner
	}
	if !transitionAllowed(svc.Status, status, role) {
		return entities.Service{}, ErrInvalidStatusTransition
	}

	updated, err := u.store.Services.TransitionStatus(ctx, svc.ID, []entities.ServiceStatus{svc.Status}, status, u.now())
	if errors.Is(err, interfaces.ErrConditionFailed) {
		return entities.Service{}, ErrConcurrentUpdate
	}
	if err != nil {
		return entities.Service{}, err
	}
	u.logger.Info("[service][usecase] status updated", zap.String("service_id", svc.ID), zap.String("from", string(svc.Status)), zap.String("to", string(status)))
	u.notifier.Notify(ctx, entities.ServiceChannel(svc.ID), entities.EventServiceUpdated, map[string]any{"service": updated})
	return updated, nil
}

func (u *ServiceUseCase) RateService(ctx context.Context, serviceID, requesterID string, rating int, review string) (entities.Service, error) {
	v := validation.Violations{}
	validation.RangeInt("rating", rating, 1, 5, v)
	if err := v.Err(); err != nil {
		return entities.Service{}, err
	}

	svc, err := u.loadService(ctx, serviceID)
	if err != nil {
		return entities.Service{}, err
	}
	if svc.UserID != requesterID {
		return entities.Service{}, ErrNotServiceOwner
	}
	if svc.Status != entities.ServiceStatusCompleted {
		return entities.Service{}, ErrServiceNotCompleted
	}
	if svc.Rating != 0 {
		return entities.Service{}, ErrServiceAlreadyRated
	}

	// Technicians known only by token have no profile to fold the rating into.
	recompute := svc.AssignedTechnicianID != ""
	if recompute {
		_, err := u.users.GetProfile(ctx, svc.AssignedTechnicianID)
		switch {
		case errors.Is(err, ErrUserNotFound):
			u.logger.Warn("[service][usecase] technician has no profile, rating not aggregated", zap.String("service_id", svc.ID), zap.String("technician_id", svc.AssignedTechnicianID))
			recompute = false
		case err != nil:
			return entities.Service{}, err
		}
	}

	now := u.now()
	rated, err := u.store.Services.SetRating(ctx, svc.ID, rating, strings.TrimSpace(review), now)
	if errors.Is(err, interfaces.ErrConditionFailed) {
		return entities.Service{}, ErrServiceAlreadyRated
	}
	if err != nil {
		return entities.Service{}, err
	}

	if recompute {
		if _, err := u.users.RecordReview(ctx, svc.AssignedTechnicianID, rating); err != nil {
			u.logger.Error("[service][usecase] technician rating update failed, reverting", zap.String("service_id", svc.ID), zap.String("technician_id", svc.AssignedTechnicianID), zap.Error(err))
			if undoErr := u.store.Services.ClearRating(ctx, svc.ID, rating, now); undoErr != nil {
				u.logger.Error("[service][usecase] rating revert failed", zap.String("service_id", svc.ID), zap.Error(undoErr))
			}
			return entities.Service{}, err
		}
	}
	u.logger.Info("[service][usecase] rated", zap.String("service_id", svc.ID), zap.Int("rating", rating))
	return rated, nil
}

func (u *ServiceUseCase) loadService(ctx context.Context, serviceID string) (entities.Service, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return entities.Service{}, ErrServiceNotFound
	}
	svc, err := u.store.Services.GetByID(ctx, serviceID)
	if err != nil {
		return entities.Service{}, err
	}
	if svc.ID == "" {
		return entities.Service{}, ErrServiceNotFound
	}
	return svc, nil
}

// transitionAllowed lists the manual status changes. Every other change is
// driven by the quote and payment workflows.
func transitionAllowed(from, to entities.ServiceStatus, role entities.Role) bool {
	switch to {
	case entities.ServiceStatusCancelled:
		if from == entities.ServiceStatusPending || from == entities.ServiceStatusQuoted {
			return true
		}
		return role == entities.RoleAdmin && from == entities.ServiceStatusAccepted
	case entities.ServiceStatusCompleted:
		return from == entities.ServiceStatusInProgress
	}
	return false
}

func urgencyNames() []string {
	out := make([]string, 0, len(entities.Urgencies))
	for _, u := range entities.Urgencies {
		out = append(out, string(u))
	}
	return out
}

func serviceStatusNames() []string {
	return []string{
		string(entities.ServiceStatusPending),
		string(entities.ServiceStatusQuoted),
		string(entities.ServiceStatusAccepted),
		string(entities.ServiceStatusInProgress),
		string(entities.ServiceStatusCompleted),
		string(entities.ServiceStatusCancelled),
	}
}
