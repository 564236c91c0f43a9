package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/zvrva/railbooking/internal/domain"
)

// NewReference builds a booking reference: "BK", the current Unix
// millisecond timestamp, and two random bytes in upper-case hex.
// Collisions are only plausible within one millisecond and are caught
// by the unique index on bookings.reference; callers regenerate and
// retry on a violation.
func NewReference() string {
	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	return "BK" + strconv.FormatInt(time.Now().UnixMilli(), 10) + strings.ToUpper(hex.EncodeToString(buf))
}

// NewSeatNumber assigns a seat label for a confirmed booking: the
// class prefix letter followed by a two-digit number (F01..F99).
// Uniqueness per departure is not enforced; there is no seat map in
// the schema, so two bookings can receive the same label.
func NewSeatNumber(class domain.ClassKey) string {
	n, err := rand.Int(rand.Reader, big.NewInt(99))
	if err != nil {
		return class.SeatPrefix() + "01"
	}
	return fmt.Sprintf("%s%02d", class.SeatPrefix(), n.Int64()+1)
}
