package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zvrva/railbooking/internal/ledger"
	"github.com/zvrva/railbooking/internal/repository"
	"github.com/zvrva/railbooking/internal/service/auth"
	"github.com/zvrva/railbooking/internal/service/booking"
)

// writeError maps service errors onto HTTP statuses. Unrecognized
// errors become 500 with a generic body so internals never leak.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, ledger.ErrInsufficientInventory):
		c.JSON(http.StatusConflict, gin.H{"error": "not enough seats available"})
	case errors.Is(err, ledger.ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": "booking is already confirmed"})
	case errors.Is(err, ledger.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": "booking is already cancelled"})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrPricingUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no fare is published for this class"})
	case errors.Is(err, ledger.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inventory is busy, retry shortly"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidSeatCount),
		errors.Is(err, ledger.ErrUnknownClass),
		errors.Is(err, booking.ErrInvalidPaymentMethod),
		errors.Is(err, booking.ErrInvalidCardDetails),
		errors.Is(err, auth.ErrInvalidCode),
		errors.Is(err, auth.ErrAlreadyVerified):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
