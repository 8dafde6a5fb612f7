package handlers

import (
	"errors"
	"net/http"

	response "homeservices/internal/adapter/http/dto/response"
	"homeservices/internal/usecase"
	"homeservices/pkg"
	"homeservices/pkg/validation"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidPayload = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request payload", http.StatusBadRequest)
	errInvalidChannel = pkg.NewDomainErrorSimple("INVALID_CHANNEL", "Unknown event channel", http.StatusBadRequest)
)

var kindCodes = map[pkg.ErrorKind]string{
	pkg.KindNotFound:        "NOT_FOUND",
	pkg.KindForbidden:       "FORBIDDEN",
	pkg.KindValidation:      "INVALID_REQUEST",
	pkg.KindConflict:        "CONFLICT",
	pkg.KindExpired:         "EXPIRED",
	pkg.KindUnauthorized:    "UNAUTHORIZED",
	pkg.KindUpstreamFailure: "PAYMENT_GATEWAY_ERROR",
}

// sentinelCodes gives the failures clients branch on a stable code of their own.
var sentinelCodes = []struct {
	err  error
	code string
}{
	{usecase.ErrUserNotFound, "USER_NOT_FOUND"},
	{usecase.ErrServiceNotFound, "SERVICE_NOT_FOUND"},
	{usecase.ErrQuoteNotFound, "QUOTE_NOT_FOUND"},
	{usecase.ErrPaymentNotFound, "PAYMENT_NOT_FOUND"},
	{usecase.ErrQuoteExpired, "QUOTE_EXPIRED"},
	{usecase.ErrQuoteNotPending, "QUOTE_NOT_PENDING"},
	{usecase.ErrQuoteNotAccepted, "QUOTE_NOT_ACCEPTED"},
	{usecase.ErrQuoteAlreadySubmitted, "QUOTE_ALREADY_SUBMITTED"},
	{usecase.ErrServiceNotQuotable, "SERVICE_NOT_QUOTABLE"},
	{usecase.ErrServiceNotPayable, "SERVICE_NOT_PAYABLE"},
	{usecase.ErrInvalidStatusTransition, "INVALID_STATUS_TRANSITION"},
	{usecase.ErrServiceNotCompleted, "SERVICE_NOT_COMPLETED"},
	{usecase.ErrServiceAlreadyRated, "SERVICE_ALREADY_RATED"},
	{usecase.ErrEmailTaken, "EMAIL_TAKEN"},
	{usecase.ErrConcurrentUpdate, "CONCURRENT_UPDATE"},
	{usecase.ErrInvalidWebhookSignature, "INVALID_SIGNATURE"},
	{usecase.ErrInvalidWebhookPayload, "INVALID_WEBHOOK_PAYLOAD"},
}

// mapError converts a use-case error into the API error envelope. Typed
// errors carry their entity in details so clients can resume the flow.
func mapError(err error) *pkg.AppError {
	var invalid *validation.Error
	var duplicate *usecase.DuplicatePaymentError
	var notCompleted *usecase.PaymentNotCompletedError
	switch {
	case errors.As(err, &invalid):
		return pkg.NewDomainError("INVALID_REQUEST", "Invalid request", err, http.StatusBadRequest).
			WithDetails(invalid.Violations)
	case errors.As(err, &duplicate):
		return pkg.NewDomainError("DUPLICATE_PAYMENT", usecase.ErrDuplicatePayment.Message, err, http.StatusConflict).
			WithDetails(response.FromPayment(duplicate.Existing))
	case errors.As(err, &notCompleted):
		return pkg.NewDomainError("PAYMENT_NOT_COMPLETED", usecase.ErrPaymentNotCompleted.Message, err, http.StatusConflict).
			WithDetails(response.FromPayment(notCompleted.Payment))
	}

	kind := pkg.KindOf(err)
	var ke *pkg.KindError
	if kind == pkg.KindInternal || !errors.As(err, &ke) {
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
	code := kindCodes[kind]
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			code = s.code
			break
		}
	}
	return pkg.NewDomainError(code, ke.Message, err, pkg.HTTPStatusFor(kind))
}

func writeError(c *gin.Context, err error) {
	appErr := mapError(err)
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}

func writeAppError(c *gin.Context, appErr *pkg.AppError) {
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}
