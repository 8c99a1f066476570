package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/Goro-naka/koepon-sub001/internal/repositories"
	"github.com/Goro-naka/koepon-sub001/internal/services"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	Ledger    *repositories.LedgerRepository
	Exchanges *services.ExchangeService
	Draws     *services.DrawService
	Admin     *services.AdminService
}

func NewHandlers(ledger *repositories.LedgerRepository, exchanges *services.ExchangeService, draws *services.DrawService, admin *services.AdminService) *Handlers {
	return &Handlers{
		Ledger:    ledger,
		Exchanges: exchanges,
		Draws:     draws,
		Admin:     admin,
	}
}

// writeError maps application error codes onto HTTP statuses while
// keeping the code visible so callers can branch on the specific kind.
func writeError(c *gin.Context, err error) {
	code := errors.CodeOf(err)

	message := "internal error"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}

	c.JSON(statusForCode(code), gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}

func statusForCode(code string) int {
	switch code {
	case errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodePaymentNotConfirmed:
		return http.StatusPaymentRequired
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodePaymentAlreadyUsed,
		errors.ErrCodeInsufficientBalance,
		errors.ErrCodeOutOfStock,
		errors.ErrCodeExchangePeriodExpired,
		errors.ErrCodeDailyLimitExceeded,
		errors.ErrCodeUserLimitExceeded:
		return http.StatusConflict
	case errors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case errors.ErrCodeTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func queryUint(c *gin.Context, key string, defaultValue uint) uint {
	value := c.Query(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return defaultValue
	}
	return uint(parsed)
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	value := c.Query(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func paramUint(c *gin.Context, key string) (uint, bool) {
	parsed, err := strconv.ParseUint(c.Param(key), 10, 32)
	if err != nil {
		writeError(c, errors.New(errors.ErrCodeValidation, "invalid "+key))
		return 0, false
	}
	return uint(parsed), true
}
