package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the application error code of err, or ErrCodeInternalError
// for anything that is not an *AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// HasCode reports whether err carries the given application error code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// Common error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeTransient         = "TRANSIENT_FAILURE"
)

// Business error codes. Callers branch on these, so every rule violation
// gets its own code instead of a generic failure.
const (
	ErrCodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	ErrCodeOutOfStock            = "OUT_OF_STOCK"
	ErrCodeExchangePeriodExpired = "EXCHANGE_PERIOD_EXPIRED"
	ErrCodeDailyLimitExceeded    = "DAILY_LIMIT_EXCEEDED"
	ErrCodeUserLimitExceeded     = "USER_LIMIT_EXCEEDED"
	ErrCodePaymentNotConfirmed   = "PAYMENT_NOT_CONFIRMED"
	ErrCodePaymentAlreadyUsed    = "PAYMENT_ALREADY_USED"
	ErrCodeIntegrityViolation    = "INTEGRITY_VIOLATION"
)
