package interfaces

import (
	"context"
	"errors"
	"time"

	"homeservices/internal/domain/entities"
)

// ErrConditionFailed is returned by conditional writes whose guard did not hold
// (status changed, claim already taken, item missing). Callers re-read to decide
// whether they lost a race or the operation was already applied.
var ErrConditionFailed = errors.New("conditional write failed")

// ErrDuplicateKey is returned when a unique attribute (user email) is already taken.
var ErrDuplicateKey = errors.New("duplicate key")

// Finders follow one convention: a missing item is reported as a zero-value
// entity (empty ID) and a nil error.

type IUserRepository interface {
	Create(ctx context.Context, u entities.User) (entities.User, error)
	GetByID(ctx context.Context, id string) (entities.User, error)
	GetByEmail(ctx context.Context, email string) (entities.User, error)
	List(ctx context.Context, filter entities.UserFilter) ([]entities.User, error)
	UpdateProfile(ctx context.Context, u entities.User) (entities.User, error)
	// UpdateRating stores a recomputed rating only if TotalReviews still equals expectedTotal.
	UpdateRating(ctx context.Context, id string, expectedTotal int, profile entities.TechnicianProfile, at time.Time) error
}

// IServiceRepository abstracts persistence for Service.
type IServiceRepository interface {
	Create(ctx context.Context, s entities.Service) (entities.Service, error)
	GetByID(ctx context.Context, id string) (entities.Service, error)
	List(ctx context.Context, filter entities.ServiceFilter) ([]entities.Service, error)
	// TransitionStatus moves the service to `to` if its current status is one of `from`.
	// Moving to completed also stamps CompletedAt.
	TransitionStatus(ctx context.Context, id string, from []entities.ServiceStatus, to entities.ServiceStatus, at time.Time) (entities.Service, error)
	// SetRating stores rating/review once, only while the service is completed.
	SetRating(ctx context.Context, id string, rating int, review string, at time.Time) (entities.Service, error)
	// ClearRating undoes SetRating while the stored rating still equals rating.
	ClearRating(ctx context.Context, id string, rating int, at time.Time) error
}

// IQuoteRepository abstracts persistence for Quote.
type IQuoteRepository interface {
	GetByID(ctx context.Context, id string) (entities.Quote, error)
	List(ctx context.Context, filter entities.QuoteFilter) ([]entities.Quote, error)
	// TransitionStatus is a compare-and-swap on status, used by reject and expiry.
	TransitionStatus(ctx context.Context, id string, from entities.QuoteStatus, to entities.QuoteStatus, at time.Time) (entities.Quote, error)
}

// IPaymentRepository abstracts persistence for Payment.
type IPaymentRepository interface {
	GetByID(ctx context.Context, id string) (entities.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (entities.Payment, error)
	List(ctx context.Context, filter entities.PaymentFilter) ([]entities.Payment, error)
}

// AcceptQuoteCommand describes the accept cascade as observed at decision time.
type AcceptQuoteCommand struct {
	QuoteID      string
	ServiceID    string
	TechnicianID string
	SiblingIDs   []string
	At           time.Time
}

// IWorkflowStore performs the multi-entity writes of the quote and payment
// workflows. Every method is all-or-nothing and returns ErrConditionFailed when
// any of its guards does not hold.
type IWorkflowStore interface {
	// CreateQuote inserts q and moves its service from {pending, quoted} to quoted.
	// It returns ErrDuplicateKey when the technician already holds a pending or
	// accepted quote on the service.
	CreateQuote(ctx context.Context, q entities.Quote) error
	// AcceptQuote moves the quote pending->accepted, every sibling pending->rejected
	// and the service {pending, quoted}->accepted with the accepted quote and technician.
	AcceptQuote(ctx context.Context, cmd AcceptQuoteCommand) error
	// CreatePayment inserts p and claims its quote (status accepted, no active payment).
	CreatePayment(ctx context.Context, p entities.Payment) error
	// CompletePayment moves the payment {pending, processing}->completed and its
	// service {accepted, in_progress}->in_progress.
	CompletePayment(ctx context.Context, paymentID, serviceID, chargeID string, at time.Time) error
	// FailPayment moves the payment {pending, processing}->failed and releases the quote claim.
	FailPayment(ctx context.Context, paymentID, quoteID string, at time.Time) error
}

// Store bundles every persistence port of one backend.
type Store struct {
	Users    IUserRepository
	Services IServiceRepository
	Quotes   IQuoteRepository
	Payments IPaymentRepository
	Workflow IWorkflowStore
}
