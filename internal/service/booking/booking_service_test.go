package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zvrva/railbooking/internal/domain"
	"github.com/zvrva/railbooking/internal/ledger"
	"github.com/zvrva/railbooking/internal/repository"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Reserve(ctx context.Context, p ledger.ReserveParams) (*domain.Booking, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockLedger) Confirm(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockLedger) Cancel(ctx context.Context, bookingID, userID int64) (*ledger.Refund, error) {
	args := m.Called(ctx, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Refund), args.Error(1)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetForUser(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkRefundedByBooking(ctx context.Context, bookingID int64) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) SetVerificationCode(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	args := m.Called(ctx, id, code, expiresAt)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func newTestService() (*BookingService, *MockLedger, *MockBookingRepository, *MockPaymentRepository, *MockUserRepository, *MockProducer) {
	mockLedger := &MockLedger{}
	mockBookings := &MockBookingRepository{}
	mockPayments := &MockPaymentRepository{}
	mockUsers := &MockUserRepository{}
	mockProducer := &MockProducer{}

	service := &BookingService{
		ledger:      mockLedger,
		bookings:    mockBookings,
		payments:    mockPayments,
		users:       mockUsers,
		producer:    mockProducer,
		eventsTopic: "booking-events",
	}
	return service, mockLedger, mockBookings, mockPayments, mockUsers, mockProducer
}

func pendingBooking() *domain.Booking {
	return &domain.Booking{
		ID:              7,
		Reference:       "BK17000000000001A2B3",
		UserID:          42,
		DepartureID:     4,
		ClassKey:        domain.ClassSecond,
		SeatCount:       2,
		UnitPriceCents:  15000,
		TotalPriceCents: 30000,
		Status:          domain.BookingStatusPending,
	}
}

func TestBookingService_Reserve_Success(t *testing.T) {
	service, mockLedger, _, _, mockUsers, mockProducer := newTestService()
	ctx := context.Background()

	want := pendingBooking()
	mockLedger.On("Reserve", ctx, ledger.ReserveParams{
		DepartureID: 4,
		ClassKey:    domain.ClassSecond,
		UserID:      42,
		SeatCount:   2,
	}).Return(want, nil).Once()
	mockUsers.On("GetByID", ctx, int64(42)).Return(&domain.User{ID: 42, Email: "test@example.com"}, nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", want.Reference, mock.Anything).Return(nil).Once()

	b, err := service.Reserve(ctx, ReserveInput{DepartureID: 4, ClassKey: domain.ClassSecond, SeatCount: 2, UserID: 42})

	assert.NoError(t, err)
	assert.NotNil(t, b)
	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.Equal(t, int64(30000), b.TotalPriceCents)

	mockLedger.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_Reserve_InsufficientInventory(t *testing.T) {
	service, mockLedger, _, _, _, mockProducer := newTestService()
	ctx := context.Background()

	mockLedger.On("Reserve", ctx, mock.AnythingOfType("ledger.ReserveParams")).
		Return(nil, ledger.ErrInsufficientInventory).Once()

	b, err := service.Reserve(ctx, ReserveInput{DepartureID: 4, ClassKey: domain.ClassSecond, SeatCount: 3, UserID: 42})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, ledger.ErrInsufficientInventory)
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestBookingService_Reserve_PublishFailureTolerated(t *testing.T) {
	service, mockLedger, _, _, mockUsers, mockProducer := newTestService()
	ctx := context.Background()

	want := pendingBooking()
	mockLedger.On("Reserve", ctx, mock.AnythingOfType("ledger.ReserveParams")).Return(want, nil).Once()
	mockUsers.On("GetByID", ctx, int64(42)).Return(nil, errors.New("db down")).Once()
	mockProducer.On("Publish", ctx, "booking-events", want.Reference, mock.Anything).
		Return(errors.New("broker unavailable")).Once()

	b, err := service.Reserve(ctx, ReserveInput{DepartureID: 4, ClassKey: domain.ClassSecond, SeatCount: 2, UserID: 42})

	// The reservation committed; event delivery is best effort.
	assert.NoError(t, err)
	assert.NotNil(t, b)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_Pay_CardSuccess(t *testing.T) {
	service, mockLedger, _, mockPayments, mockUsers, mockProducer := newTestService()
	ctx := context.Background()

	confirmed := pendingBooking()
	confirmed.Status = domain.BookingStatusConfirmed
	confirmed.SeatNumber = "S07"

	mockLedger.On("Confirm", ctx, int64(7), int64(42)).Return(confirmed, nil).Once()
	mockPayments.On("Create", ctx, mock.AnythingOfType("*domain.Payment")).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*domain.Payment)
			assert.Equal(t, int64(30000), p.AmountCents)
			assert.Equal(t, domain.PaymentStatusCompleted, p.Status)
		}).Return(nil).Once()
	mockUsers.On("GetByID", ctx, int64(42)).Return(&domain.User{ID: 42, Email: "test@example.com"}, nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", confirmed.Reference, mock.Anything).Return(nil).Once()

	b, err := service.Pay(ctx, PayInput{
		BookingID:  7,
		UserID:     42,
		Method:     domain.PaymentMethodCreditCard,
		CardNumber: "4111111111111111",
		CardHolder: "IVAN PETROV",
		ExpiryDate: "12/27",
		CVV:        "123",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)
	assert.Equal(t, "S07", b.SeatNumber)

	mockLedger.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
}

func TestBookingService_Pay_CashLeavesPaymentPending(t *testing.T) {
	service, mockLedger, _, mockPayments, mockUsers, mockProducer := newTestService()
	ctx := context.Background()

	confirmed := pendingBooking()
	confirmed.Status = domain.BookingStatusConfirmed
	confirmed.SeatNumber = "S15"

	mockLedger.On("Confirm", ctx, int64(7), int64(42)).Return(confirmed, nil).Once()
	mockPayments.On("Create", ctx, mock.AnythingOfType("*domain.Payment")).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*domain.Payment)
			assert.Equal(t, domain.PaymentStatusPending, p.Status)
		}).Return(nil).Once()
	mockUsers.On("GetByID", ctx, int64(42)).Return(&domain.User{ID: 42, Email: "test@example.com"}, nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", confirmed.Reference, mock.Anything).Return(nil).Once()

	_, err := service.Pay(ctx, PayInput{BookingID: 7, UserID: 42, Method: domain.PaymentMethodCash})

	assert.NoError(t, err)
	mockPayments.AssertExpectations(t)
}

func TestBookingService_Pay_ValidationErrors(t *testing.T) {
	service, mockLedger, _, _, _, _ := newTestService()
	ctx := context.Background()

	testCases := []struct {
		name        string
		input       PayInput
		expectedErr error
	}{
		{
			name:        "Unknown method",
			input:       PayInput{BookingID: 7, UserID: 42, Method: "barter"},
			expectedErr: ErrInvalidPaymentMethod,
		},
		{
			name:        "Card without number",
			input:       PayInput{BookingID: 7, UserID: 42, Method: domain.PaymentMethodCreditCard, CardHolder: "IVAN", ExpiryDate: "12/27", CVV: "123"},
			expectedErr: ErrInvalidCardDetails,
		},
		{
			name: "Card number with letters",
			input: PayInput{
				BookingID: 7, UserID: 42, Method: domain.PaymentMethodCreditCard,
				CardNumber: "4111-1111-1111-1111", CardHolder: "IVAN", ExpiryDate: "12/27", CVV: "123",
			},
			expectedErr: ErrInvalidCardDetails,
		},
		{
			name: "CVV too long",
			input: PayInput{
				BookingID: 7, UserID: 42, Method: domain.PaymentMethodCreditCard,
				CardNumber: "4111111111111111", CardHolder: "IVAN", ExpiryDate: "12/27", CVV: "12345",
			},
			expectedErr: ErrInvalidCardDetails,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := service.Pay(ctx, tc.input)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
	mockLedger.AssertNotCalled(t, "Confirm")
}

func TestBookingService_Pay_AlreadyConfirmed(t *testing.T) {
	service, mockLedger, _, mockPayments, _, _ := newTestService()
	ctx := context.Background()

	mockLedger.On("Confirm", ctx, int64(7), int64(42)).Return(nil, ledger.ErrAlreadyConfirmed).Once()

	b, err := service.Pay(ctx, PayInput{BookingID: 7, UserID: 42, Method: domain.PaymentMethodCash})

	assert.Nil(t, b)
	assert.ErrorIs(t, err, ledger.ErrAlreadyConfirmed)
	mockPayments.AssertNotCalled(t, "Create")
}

func TestBookingService_Cancel_Success(t *testing.T) {
	service, mockLedger, mockBookings, mockPayments, mockUsers, mockProducer := newTestService()
	ctx := context.Background()

	b := pendingBooking()
	b.Status = domain.BookingStatusConfirmed
	refund := &ledger.Refund{BookingID: 7, Reference: b.Reference, AmountCents: 30000}

	mockBookings.On("GetForUser", ctx, int64(7), int64(42)).Return(b, nil).Once()
	mockLedger.On("Cancel", ctx, int64(7), int64(42)).Return(refund, nil).Once()
	mockPayments.On("MarkRefundedByBooking", ctx, int64(7)).Return(nil).Once()
	mockUsers.On("GetByID", ctx, int64(42)).Return(&domain.User{ID: 42, Email: "test@example.com"}, nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", b.Reference, mock.Anything).Return(nil).Once()

	got, err := service.Cancel(ctx, 7, 42)

	assert.NoError(t, err)
	assert.Equal(t, int64(30000), got.AmountCents)
	assert.Equal(t, b.Reference, got.Reference)

	mockLedger.AssertExpectations(t)
	mockPayments.AssertExpectations(t)
}

func TestBookingService_Cancel_AlreadyCancelled(t *testing.T) {
	service, mockLedger, mockBookings, mockPayments, _, _ := newTestService()
	ctx := context.Background()

	b := pendingBooking()
	b.Status = domain.BookingStatusCancelled

	mockBookings.On("GetForUser", ctx, int64(7), int64(42)).Return(b, nil).Once()
	mockLedger.On("Cancel", ctx, int64(7), int64(42)).Return(nil, ledger.ErrAlreadyCancelled).Once()

	refund, err := service.Cancel(ctx, 7, 42)

	assert.Nil(t, refund)
	assert.ErrorIs(t, err, ledger.ErrAlreadyCancelled)
	mockPayments.AssertNotCalled(t, "MarkRefundedByBooking")
}

func TestBookingService_Cancel_ForeignBookingNotFound(t *testing.T) {
	service, mockLedger, mockBookings, _, _, _ := newTestService()
	ctx := context.Background()

	mockBookings.On("GetForUser", ctx, int64(7), int64(99)).Return(nil, repository.ErrNotFound).Once()

	refund, err := service.Cancel(ctx, 7, 99)

	assert.Nil(t, refund)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	mockLedger.AssertNotCalled(t, "Cancel")
}
