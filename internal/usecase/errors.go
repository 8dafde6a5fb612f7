package usecase

import (
	"homeservices/internal/domain/entities"
	"homeservices/pkg"
)

var (
	ErrUserNotFound    = pkg.NewKindError(pkg.KindNotFound, "user not found")
	ErrServiceNotFound = pkg.NewKindError(pkg.KindNotFound, "service not found")
	ErrQuoteNotFound   = pkg.NewKindError(pkg.KindNotFound, "quote not found")
	ErrPaymentNotFound = pkg.NewKindError(pkg.KindNotFound, "payment not found")

	ErrNotServiceOwner = pkg.NewKindError(pkg.KindForbidden, "requester does not own the service")
	ErrNotPaymentOwner = pkg.NewKindError(pkg.KindForbidden, "requester does not own the payment")
	ErrAccessDenied    = pkg.NewKindError(pkg.KindForbidden, "access denied")
	ErrCustomersOnly   = pkg.NewKindError(pkg.KindForbidden, "only customers can perform this action")
	ErrTechniciansOnly = pkg.NewKindError(pkg.KindForbidden, "only technicians can perform this action")

	ErrServiceNotQuotable      = pkg.NewKindError(pkg.KindConflict, "service is not accepting quotes")
	ErrQuoteAlreadySubmitted   = pkg.NewKindError(pkg.KindConflict, "technician already has an active quote for this service")
	ErrQuoteNotPending         = pkg.NewKindError(pkg.KindConflict, "quote is not pending")
	ErrQuoteNotAccepted        = pkg.NewKindError(pkg.KindConflict, "quote is not accepted")
	ErrDuplicatePayment        = pkg.NewKindError(pkg.KindConflict, "quote already has an active payment")
	ErrPaymentNotCompleted     = pkg.NewKindError(pkg.KindConflict, "payment not completed")
	ErrServiceNotPayable       = pkg.NewKindError(pkg.KindConflict, "service can no longer be paid")
	ErrInvalidStatusTransition = pkg.NewKindError(pkg.KindConflict, "status transition not allowed")
	ErrServiceNotCompleted     = pkg.NewKindError(pkg.KindConflict, "service is not completed")
	ErrServiceAlreadyRated     = pkg.NewKindError(pkg.KindConflict, "service already rated")
	ErrEmailTaken              = pkg.NewKindError(pkg.KindConflict, "email already registered")
	ErrConcurrentUpdate        = pkg.NewKindError(pkg.KindConflict, "concurrent update, try again")

	ErrQuoteExpired = pkg.NewKindError(pkg.KindExpired, "quote expired")

	ErrInvalidWebhookSignature = pkg.NewKindError(pkg.KindUnauthorized, "invalid webhook signature")
	ErrInvalidWebhookPayload   = pkg.NewKindError(pkg.KindValidation, "invalid webhook payload")

	ErrPaymentGatewayFailure = pkg.NewKindError(pkg.KindUpstreamFailure, "payment gateway failure")
)

// DuplicatePaymentError is returned when the quote already has a non-terminal payment.
type DuplicatePaymentError struct {
	Existing entities.Payment
}

func (e *DuplicatePaymentError) Error() string {
	return ErrDuplicatePayment.Message + ": " + e.Existing.ID
}

func (e *DuplicatePaymentError) Unwrap() error { return ErrDuplicatePayment }

// PaymentNotCompletedError carries the payment as it stands after a failed confirmation.
type PaymentNotCompletedError struct {
	Payment entities.Payment
}

func (e *PaymentNotCompletedError) Error() string {
	return ErrPaymentNotCompleted.Message + ": " + string(e.Payment.Status)
}

func (e *PaymentNotCompletedError) Unwrap() error { return ErrPaymentNotCompleted }
