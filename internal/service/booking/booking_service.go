package booking

import (
	"context"
	"errors"
	"log"
	"regexp"

	"github.com/google/uuid"
	"github.com/zvrva/railbooking/internal/domain"
	"github.com/zvrva/railbooking/internal/kafka"
	"github.com/zvrva/railbooking/internal/ledger"
	"github.com/zvrva/railbooking/internal/metrics"
	"github.com/zvrva/railbooking/internal/repository"
)

type BookingUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*domain.Booking, error)
	Pay(ctx context.Context, input PayInput) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID, userID int64) (*ledger.Refund, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	GetByID(ctx context.Context, bookingID, userID int64) (*domain.Booking, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ReserveInput struct {
	DepartureID int64           `json:"departure_id"`
	ClassKey    domain.ClassKey `json:"class_key"`
	SeatCount   int             `json:"seat_count"`
	UserID      int64           `json:"-"`
}

type PayInput struct {
	BookingID  int64                `json:"-"`
	UserID     int64                `json:"-"`
	Method     domain.PaymentMethod `json:"method"`
	CardNumber string               `json:"card_number,omitempty"`
	CardHolder string               `json:"card_holder,omitempty"`
	ExpiryDate string               `json:"expiry_date,omitempty"`
	CVV        string               `json:"cvv,omitempty"`
}

var (
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidCardDetails   = errors.New("invalid card details")
)

type BookingService struct {
	ledger             ledger.Ledger
	bookings           repository.BookingRepository
	payments           repository.PaymentRepository
	users              repository.UserRepository
	producer           Producer
	eventsTopic        string
	notificationsTopic string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	ldg ledger.Ledger,
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	users repository.UserRepository,
	producer Producer,
	eventsTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		ledger:      ldg,
		bookings:    bookings,
		payments:    payments,
		users:       users,
		producer:    producer,
		eventsTopic: eventsTopic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*domain.Booking, error) {
	b, err := s.ledger.Reserve(ctx, ledger.ReserveParams{
		DepartureID: input.DepartureID,
		ClassKey:    input.ClassKey,
		UserID:      input.UserID,
		SeatCount:   input.SeatCount,
	})
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues(outcomeFor(err)).Inc()
		return nil, err
	}
	metrics.ReservationsTotal.WithLabelValues(metrics.OutcomeOK).Inc()

	s.publish(ctx, kafka.EventBookingCreated, b)
	return b, nil
}

func (s *BookingService) Pay(ctx context.Context, input PayInput) (*domain.Booking, error) {
	if err := validatePayment(input); err != nil {
		return nil, err
	}

	b, err := s.ledger.Confirm(ctx, input.BookingID, input.UserID)
	if err != nil {
		metrics.ConfirmationsTotal.WithLabelValues(outcomeFor(err)).Inc()
		return nil, err
	}
	metrics.ConfirmationsTotal.WithLabelValues(metrics.OutcomeOK).Inc()

	status := domain.PaymentStatusCompleted
	if input.Method == domain.PaymentMethodCash {
		// Cash settles at the station; the seat is still confirmed.
		status = domain.PaymentStatusPending
	}
	payment := &domain.Payment{
		BookingID:   b.ID,
		AmountCents: b.TotalPriceCents,
		Method:      input.Method,
		Status:      status,
		Reference:   uuid.NewString(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		// The confirmation already committed; surface the payment
		// record failure without undoing the booking.
		log.Printf("record payment for booking %s: %v", b.Reference, err)
	}

	s.publish(ctx, kafka.EventBookingConfirmed, b)
	return b, nil
}

func (s *BookingService) Cancel(ctx context.Context, bookingID, userID int64) (*ledger.Refund, error) {
	b, err := s.bookings.GetForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}

	refund, err := s.ledger.Cancel(ctx, bookingID, userID)
	if err != nil {
		metrics.CancellationsTotal.WithLabelValues(outcomeFor(err)).Inc()
		return nil, err
	}
	metrics.CancellationsTotal.WithLabelValues(metrics.OutcomeOK).Inc()

	if err := s.payments.MarkRefundedByBooking(ctx, bookingID); err != nil {
		log.Printf("mark payment refunded for booking %s: %v", refund.Reference, err)
	}

	b.Status = domain.BookingStatusCancelled
	s.publish(ctx, kafka.EventBookingCancelled, b)
	return refund, nil
}

func (s *BookingService) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) GetByID(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	b, err := s.bookings.GetForUser(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BookingService) ListAll(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	return s.bookings.List(ctx, limit, offset)
}

var cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)

func validatePayment(input PayInput) error {
	switch input.Method {
	case domain.PaymentMethodCash:
		return nil
	case domain.PaymentMethodCreditCard:
		if input.CardNumber == "" || input.CardHolder == "" || input.ExpiryDate == "" || input.CVV == "" {
			return ErrInvalidCardDetails
		}
		if !cardNumberRe.MatchString(input.CardNumber) {
			return ErrInvalidCardDetails
		}
		if len(input.CVV) < 3 || len(input.CVV) > 4 {
			return ErrInvalidCardDetails
		}
		return nil
	default:
		return ErrInvalidPaymentMethod
	}
}

// publish emits a lifecycle event, best effort. Delivery failures are
// logged and never affect the committed ledger state.
func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:            eventType,
		Reference:       b.Reference,
		UserID:          b.UserID,
		Email:           s.lookupEmail(ctx, b.UserID),
		DepartureID:     b.DepartureID,
		ClassKey:        b.ClassKey,
		SeatCount:       b.SeatCount,
		TotalPriceCents: b.TotalPriceCents,
		Status:          string(b.Status),
		SeatNumber:      b.SeatNumber,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, b.Reference, event); err != nil {
		log.Printf("publish %s for booking %s: %v", eventType, b.Reference, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.Reference, event); err != nil {
			log.Printf("publish %s notification for booking %s: %v", eventType, b.Reference, err)
		}
	}
}

func (s *BookingService) lookupEmail(ctx context.Context, userID int64) string {
	if s.users == nil {
		return ""
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return u.Email
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientInventory),
		errors.Is(err, ledger.ErrPricingUnavailable),
		errors.Is(err, ledger.ErrAlreadyConfirmed),
		errors.Is(err, ledger.ErrAlreadyCancelled),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrInvalidSeatCount),
		errors.Is(err, ledger.ErrUnknownClass):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

var _ BookingUseCase = (*BookingService)(nil)
