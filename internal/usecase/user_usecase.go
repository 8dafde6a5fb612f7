package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"
	"homeservices/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxRatingAttempts = 5

type RegisterUserInput struct {
	Name            string
	Email           string
	Phone           string
	Role            entities.Role
	Specialties     []entities.Category
	ExperienceYears int
}

// UpdateProfileInput carries optional fields; nil means unchanged.
type UpdateProfileInput struct {
	Name    *string
	Phone   *string
	Address *entities.Address
}

type UpdateTechnicianProfileInput struct {
	Specialties     []entities.Category
	ExperienceYears *int
}

type IUserUseCase interface {
	RegisterUser(ctx context.Context, in RegisterUserInput) (entities.User, error)
	GetProfile(ctx context.Context, userID string) (entities.User, error)
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (entities.User, error)
	UpdateTechnicianProfile(ctx context.Context, userID string, in UpdateTechnicianProfileInput) (entities.User, error)
	ListTechnicians(ctx context.Context, category entities.Category) ([]entities.User, error)
	RecordReview(ctx context.Context, technicianID string, rating int) (entities.User, error)
}

type UserUseCase struct {
	repo   interfaces.IUserRepository
	logger *zap.Logger
	now    func() time.Time
}

var _ IUserUseCase = (*UserUseCase)(nil)

func NewUserUseCase(repo interfaces.IUserRepository, logger *zap.Logger) *UserUseCase {
	return &UserUseCase{repo: repo, logger: logger, now: utcNow}
}

func (u *UserUseCase) RegisterUser(ctx context.Context, in RegisterUserInput) (entities.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("email", in.Email, v)
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		v["email"] = "invalid_value"
	}
	validation.OneOf("role", string(in.Role), roleNames(), v)
	validateCategories("specialties", in.Specialties, v)
	if in.ExperienceYears < 0 {
		v["experience_years"] = "must_not_be_negative"
	}
	if err := v.Err(); err != nil {
		return entities.User{}, err
	}

	existing, err := u.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return entities.User{}, err
	}
	if existing.ID != "" {
		return entities.User{}, ErrEmailTaken
	}

	now := u.now()
	user := entities.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     strings.TrimSpace(in.Phone),
		Role:      in.Role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Role == entities.RoleTechnician {
		user.TechnicianProfile = entities.TechnicianProfile{
			Specialties:     in.Specialties,
			ExperienceYears: in.ExperienceYears,
		}
	}
	created, err := u.repo.Create(ctx, user)
	if errors.Is(err, interfaces.ErrDuplicateKey) {
		return entities.User{}, ErrEmailTaken
	}
	if err != nil {
		return entities.User{}, err
	}
	u.logger.Info("[user][usecase] register success", zap.String("user_id", created.ID), zap.String("role", string(created.Role)))
	return created, nil
}

func (u *UserUseCase) GetProfile(ctx context.Context, userID string) (entities.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.User{}, ErrUserNotFound
	}
	user, err := u.repo.GetByID(ctx, userID)
	if err != nil {
		return entities.User{}, err
	}
	if user.ID == "" {
		return entities.User{}, ErrUserNotFound
	}
	return user, nil
}

func (u *UserUseCase) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (entities.User, error) {
	user, err := u.GetProfile(ctx, userID)
	if err != nil {
		return entities.User{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return entities.User{}, validation.Violations{"name": "required"}.Err()
		}
		user.Name = name
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	user.UpdatedAt = u.now()
	return u.save(ctx, user)
}

func (u *UserUseCase) UpdateTechnicianProfile(ctx context.Context, userID string, in UpdateTechnicianProfileInput) (entities.User, error) {
	user, err := u.GetProfile(ctx, userID)
	if err != nil {
		return entities.User{}, err
	}
	if user.Role != entities.RoleTechnician {
		return entities.User{}, ErrTechniciansOnly
	}

	v := validation.Violations{}
	validateCategories("specialties", in.Specialties, v)
	if in.ExperienceYears != nil && *in.ExperienceYears < 0 {
		v["experience_years"] = "must_not_be_negative"
	}
	if err := v.Err(); err != nil {
		return entities.User{}, err
	}

	if in.Specialties != nil {
		user.TechnicianProfile.Specialties = in.Specialties
	}
	if in.ExperienceYears != nil {
		user.TechnicianProfile.ExperienceYears = *in.ExperienceYears
	}
	user.UpdatedAt = u.now()
	return u.save(ctx, user)
}

// ListTechnicians returns active technicians, best rated first. An empty
// category lists every technician.
func (u *UserUseCase) ListTechnicians(ctx context.Context, category entities.Category) ([]entities.User, error) {
	if category != "" {
		v := validation.Violations{}
		validateCategories("category", []entities.Category{category}, v)
		if err := v.Err(); err != nil {
			return nil, err
		}
	}
	techs, err := u.repo.List(ctx, entities.UserFilter{Role: entities.RoleTechnician, Specialty: category, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(techs, func(i, j int) bool {
		return techs[i].TechnicianProfile.Rating > techs[j].TechnicianProfile.Rating
	})
	return techs, nil
}

// RecordReview folds one rating into the technician's running average. Updates
// are compare-and-swap on the review count, so concurrent reviews never lose a vote.
func (u *UserUseCase) RecordReview(ctx context.Context, technicianID string, rating int) (entities.User, error) {
	for attempt := 1; attempt <= maxRatingAttempts; attempt++ {
		tech, err := u.GetProfile(ctx, technicianID)
		if err != nil {
			return entities.User{}, err
		}
		next := tech.TechnicianProfile.ApplyReview(rating)
		now := u.now()
		err = u.repo.UpdateRating(ctx, tech.ID, tech.TechnicianProfile.TotalReviews, next, now)
		if errors.Is(err, interfaces.ErrConditionFailed) {
			u.logger.Warn("[user][usecase] rating update raced, retrying", zap.String("technician_id", tech.ID), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return entities.User{}, err
		}
		tech.TechnicianProfile = next
		tech.UpdatedAt = now
		u.logger.Info("[user][usecase] rating updated", zap.String("technician_id", tech.ID), zap.Float64("rating", next.Rating), zap.Int("total_reviews", next.TotalReviews))
		return tech, nil
	}
	return entities.User{}, ErrConcurrentUpdate
}

func (u *UserUseCase) save(ctx context.Context, user entities.User) (entities.User, error) {
	updated, err := u.repo.UpdateProfile(ctx, user)
	if err != nil {
		return entities.User{}, err
	}
	if updated.ID == "" {
		return entities.User{}, ErrUserNotFound
	}
	return updated, nil
}

func roleNames() []string {
	out := make([]string, 0, len(entities.Roles))
	for _, r := range entities.Roles {
		out = append(out, string(r))
	}
	return out
}

func categoryNames() []string {
	out := make([]string, 0, len(entities.Categories))
	for _, c := range entities.Categories {
		out = append(out, string(c))
	}
	return out
}

func validateCategories(field string, categories []entities.Category, v validation.Violations) {
	allowed := categoryNames()
	for _, c := range categories {
		validation.OneOf(field, string(c), allowed, v)
	}
}
