package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase/interfaces"

	"gorm.io/gorm"
)

var (
	_ interfaces.IUserRepository    = (*UserRepository)(nil)
	_ interfaces.IServiceRepository = (*ServiceRepository)(nil)
	_ interfaces.IQuoteRepository   = (*QuoteRepository)(nil)
	_ interfaces.IPaymentRepository = (*PaymentRepository)(nil)
	_ interfaces.IWorkflowStore     = (*WorkflowStore)(nil)
)

// NewStore wires every repository over the same connection pool.
func NewStore(db *gorm.DB) interfaces.Store {
	return interfaces.Store{
		Users:    &UserRepository{db: db},
		Services: &ServiceRepository{db: db},
		Quotes:   &QuoteRepository{db: db},
		Payments: &PaymentRepository{db: db},
		Workflow: &WorkflowStore{db: db},
	}
}

// first loads one row into dst and reports whether it exists.
func first(db *gorm.DB, dst any, query string, args ...any) (bool, error) {
	err := db.Where(query, args...).Take(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// guardedUpdate applies values to the rows matching query and fails with
// ErrConditionFailed when none matched.
func guardedUpdate(db *gorm.DB, model any, values map[string]any, query string, args ...any) error {
	res := db.Model(model).Where(query, args...).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return interfaces.ErrConditionFailed
	}
	return nil
}

func stringsOf[S ~string](list []S) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, string(s))
	}
	return out
}

// Users

type UserRepository struct{ db *gorm.DB }

func (r *UserRepository) Create(ctx context.Context, u entities.User) (entities.User, error) {
	existing, err := r.GetByEmail(ctx, u.Email)
	if err != nil {
		return entities.User{}, err
	}
	if existing.ID != "" {
		return entities.User{}, interfaces.ErrDuplicateKey
	}
	row := toUserRow(u)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entities.User{}, interfaces.ErrDuplicateKey
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (entities.User, error) {
	var row userRow
	ok, err := first(r.db.WithContext(ctx), &row, "id = ?", id)
	if err != nil || !ok {
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (entities.User, error) {
	var row userRow
	ok, err := first(r.db.WithContext(ctx), &row, "email = ?", strings.ToLower(email))
	if err != nil || !ok {
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *UserRepository) List(ctx context.Context, filter entities.UserFilter) ([]entities.User, error) {
	q := r.db.WithContext(ctx).Model(&userRow{})
	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if filter.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	var rows []userRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.User, 0, len(rows))
	for _, row := range rows {
		// specialties live in a single column; match them in memory
		if u := row.toEntity(); filter.Match(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u entities.User) (entities.User, error) {
	row := toUserRow(u)
	err := guardedUpdate(r.db.WithContext(ctx), &userRow{}, map[string]any{
		"name":             row.Name,
		"phone":            row.Phone,
		"address_street":   row.Address.Street,
		"address_city":     row.Address.City,
		"address_state":    row.Address.State,
		"address_zip_code": row.Address.ZipCode,
		"specialties":      row.Specialties,
		"experience_years": row.ExperienceYears,
		"updated_at":       u.UpdatedAt,
	}, "id = ?", u.ID)
	if errors.Is(err, interfaces.ErrConditionFailed) {
		return entities.User{}, nil
	}
	if err != nil {
		return entities.User{}, err
	}
	return r.GetByID(ctx, u.ID)
}

func (r *UserRepository) UpdateRating(ctx context.Context, id string, expectedTotal int, profile entities.TechnicianProfile, at time.Time) error {
	return guardedUpdate(r.db.WithContext(ctx), &userRow{}, map[string]any{
		"rating":        profile.Rating,
		"total_reviews": profile.TotalReviews,
		"updated_at":    at,
	}, "id = ? AND total_reviews = ?", id, expectedTotal)
}

// Services

type ServiceRepository struct{ db *gorm.DB }

func (r *ServiceRepository) Create(ctx context.Context, s entities.Service) (entities.Service, error) {
	row := toServiceRow(s)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entities.Service{}, interfaces.ErrConditionFailed
		}
		return entities.Service{}, err
	}
	return row.toEntity(), nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (entities.Service, error) {
	return getService(r.db.WithContext(ctx), id)
}

func getService(db *gorm.DB, id string) (entities.Service, error) {
	var row serviceRow
	ok, err := first(db, &row, "id = ?", id)
	if err != nil || !ok {
		return entities.Service{}, err
	}
	return row.toEntity(), nil
}

func (r *ServiceRepository) List(ctx context.Context, filter entities.ServiceFilter) ([]entities.Service, error) {
	q := r.db.WithContext(ctx).Model(&serviceRow{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.AssignedTechnicianID != "" {
		q = q.Where("assigned_technician_id = ?", filter.AssignedTechnicianID)
	}
	if len(filter.Categories) > 0 {
		q = q.Where("category IN ?", stringsOf(filter.Categories))
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", stringsOf(filter.Statuses))
	}
	var rows []serviceRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.Service, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *ServiceRepository) TransitionStatus(ctx context.Context, id string, from []entities.ServiceStatus, to entities.ServiceStatus, at time.Time) (entities.Service, error) {
	values := map[string]any{"status": string(to), "updated_at": at}
	if to == entities.ServiceStatusCompleted {
		values["completed_at"] = at
	}
	db := r.db.WithContext(ctx)
	if err := guardedUpdate(db, &serviceRow{}, values, "id = ? AND status IN ?", id, stringsOf(from)); err != nil {
		return entities.Service{}, err
	}
	return getService(db, id)
}

func (r *ServiceRepository) SetRating(ctx context.Context, id string, rating int, review string, at time.Time) (entities.Service, error) {
	db := r.db.WithContext(ctx)
	err := guardedUpdate(db, &serviceRow{}, map[string]any{
		"rating":     rating,
		"review":     review,
		"updated_at": at,
	}, "id = ? AND status = ? AND rating = 0", id, string(entities.ServiceStatusCompleted))
	if err != nil {
		return entities.Service{}, err
	}
	return getService(db, id)
}

func (r *ServiceRepository) ClearRating(ctx context.Context, id string, rating int, at time.Time) error {
	return guardedUpdate(r.db.WithContext(ctx), &serviceRow{}, map[string]any{
		"rating":     0,
		"review":     "",
		"updated_at": at,
	}, "id = ? AND rating = ?", id, rating)
}

// Quotes

type QuoteRepository struct{ db *gorm.DB }

func (r *QuoteRepository) GetByID(ctx context.Context, id string) (entities.Quote, error) {
	return getQuote(r.db.WithContext(ctx), id)
}

func getQuote(db *gorm.DB, id string) (entities.Quote, error) {
	var row quoteRow
	ok, err := first(db, &row, "id = ?", id)
	if err != nil || !ok {
		return entities.Quote{}, err
	}
	return row.toEntity(), nil
}

func (r *QuoteRepository) List(ctx context.Context, filter entities.QuoteFilter) ([]entities.Quote, error) {
	q := r.db.WithContext(ctx).Model(&quoteRow{})
	if len(filter.ServiceIDs) > 0 {
		q = q.Where("service_id IN ?", filter.ServiceIDs)
	}
	if filter.TechnicianID != "" {
		q = q.Where("technician_id = ?", filter.TechnicianID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", stringsOf(filter.Statuses))
	}
	if !filter.ExpiresBefore.IsZero() {
		q = q.Where("expires_at <= ?", filter.ExpiresBefore)
	}
	var rows []quoteRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.Quote, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *QuoteRepository) TransitionStatus(ctx context.Context, id string, from, to entities.QuoteStatus, at time.Time) (entities.Quote, error) {
	db := r.db.WithContext(ctx)
	if err := guardedUpdate(db, &quoteRow{}, quoteStatusValues(to, at), "id = ? AND status = ?", id, string(from)); err != nil {
		return entities.Quote{}, err
	}
	return getQuote(db, id)
}

func quoteStatusValues(to entities.QuoteStatus, at time.Time) map[string]any {
	values := map[string]any{"status": string(to), "updated_at": at}
	switch to {
	case entities.QuoteStatusAccepted:
		values["accepted_at"] = at
	case entities.QuoteStatusRejected:
		values["rejected_at"] = at
	}
	return values
}

// Payments

type PaymentRepository struct{ db *gorm.DB }

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (entities.Payment, error) {
	return r.getBy(ctx, "id = ?", id)
}

func (r *PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (entities.Payment, error) {
	return r.getBy(ctx, "external_intent_id = ?", intentID)
}

func (r *PaymentRepository) getBy(ctx context.Context, query string, arg any) (entities.Payment, error) {
	var row paymentRow
	ok, err := first(r.db.WithContext(ctx), &row, query, arg)
	if err != nil || !ok {
		return entities.Payment{}, err
	}
	return row.toEntity(), nil
}

func (r *PaymentRepository) List(ctx context.Context, filter entities.PaymentFilter) ([]entities.Payment, error) {
	q := r.db.WithContext(ctx).Model(&paymentRow{})
	if filter.QuoteID != "" {
		q = q.Where("quote_id = ?", filter.QuoteID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.TechnicianID != "" {
		q = q.Where("technician_id = ?", filter.TechnicianID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", stringsOf(filter.Statuses))
	}
	var rows []paymentRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.Payment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
