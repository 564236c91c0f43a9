package email

import (
	"context"
	"fmt"

	"github.com/zvrva/railbooking/internal/kafka"
)

// Sender renders notification emails. Actual delivery is stubbed; the
// rendered message goes to stdout.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	switch event.Type {
	case kafka.EventBookingConfirmed:
		fmt.Printf("to=%s subject=%q booking %s confirmed: departure %d, %s class, %d seat(s), seat %s, total %.2f\n",
			event.Email, "Your booking is confirmed", event.Reference, event.DepartureID,
			event.ClassKey, event.SeatCount, event.SeatNumber, float64(event.TotalPriceCents)/100)
	case kafka.EventBookingCancelled:
		fmt.Printf("to=%s subject=%q booking %s cancelled, refund %.2f\n",
			event.Email, "Your booking was cancelled", event.Reference, float64(event.TotalPriceCents)/100)
	case kafka.EventVerificationMail:
		fmt.Printf("to=%s subject=%q verification code %s\n",
			event.Email, "Verify your account", event.Code)
	case kafka.EventPasswordReset:
		fmt.Printf("to=%s subject=%q password reset code %s\n",
			event.Email, "Reset your password", event.Code)
	default:
		fmt.Printf("to=%s booking %s: %s\n", event.Email, event.Reference, event.Type)
	}
	return nil
}
