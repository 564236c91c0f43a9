package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/zvrva/railbooking/internal/domain"
)

type invKey struct {
	departureID int64
	class       domain.ClassKey
}

type memInventory struct {
	capacity int
	held     int
}

// MemoryLedger keeps inventory and bookings in process memory with the
// same semantics as PGLedger: one lock per (departure, class) pair,
// acquired with a bounded wait. It backs the test suite and local runs
// without Postgres.
type MemoryLedger struct {
	lockWait time.Duration

	mu       sync.Mutex
	locks    map[invKey]chan struct{}
	inv      map[invKey]*memInventory
	fares    map[invKey]int64
	bookings map[int64]*domain.Booking
	refs     map[string]bool
	nextID   int64
}

func NewMemoryLedger(lockWait time.Duration) *MemoryLedger {
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	return &MemoryLedger{
		lockWait: lockWait,
		locks:    make(map[invKey]chan struct{}),
		inv:      make(map[invKey]*memInventory),
		fares:    make(map[invKey]int64),
		bookings: make(map[int64]*domain.Booking),
		refs:     make(map[string]bool),
	}
}

// AddClass registers a sellable class on a departure with its capacity
// and current fare.
func (m *MemoryLedger) AddClass(departureID int64, class domain.ClassKey, capacity int, priceCents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := invKey{departureID, class}
	m.inv[k] = &memInventory{capacity: capacity}
	m.fares[k] = priceCents
}

// SetFare changes the current fare. Existing bookings keep their
// snapshot.
func (m *MemoryLedger) SetFare(departureID int64, class domain.ClassKey, priceCents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fares[invKey{departureID, class}] = priceCents
}

// Inventory reports the current counter state for a class.
func (m *MemoryLedger) Inventory(departureID int64, class domain.ClassKey) (domain.ClassInventory, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.inv[invKey{departureID, class}]
	if !ok {
		return domain.ClassInventory{}, false
	}
	return domain.ClassInventory{
		DepartureID: departureID,
		ClassKey:    class,
		Capacity:    inv.capacity,
		Held:        inv.held,
	}, true
}

func (m *MemoryLedger) Reserve(ctx context.Context, p ReserveParams) (*domain.Booking, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	k := invKey{p.DepartureID, p.ClassKey}
	if err := m.acquire(ctx, k); err != nil {
		return nil, err
	}
	defer m.release(k)

	m.mu.Lock()
	defer m.mu.Unlock()

	inv, ok := m.inv[k]
	if !ok {
		return nil, ErrNotFound
	}
	if inv.capacity-inv.held < p.SeatCount {
		return nil, ErrInsufficientInventory
	}
	price, ok := m.fares[k]
	if !ok || price <= 0 {
		return nil, ErrPricingUnavailable
	}

	ref := NewReference()
	for m.refs[ref] {
		ref = NewReference()
	}
	m.refs[ref] = true

	m.nextID++
	now := time.Now().UTC()
	b := &domain.Booking{
		ID:              m.nextID,
		Reference:       ref,
		UserID:          p.UserID,
		DepartureID:     p.DepartureID,
		ClassKey:        p.ClassKey,
		SeatCount:       p.SeatCount,
		UnitPriceCents:  price,
		TotalPriceCents: price * int64(p.SeatCount),
		Status:          domain.BookingStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.bookings[b.ID] = b
	inv.held += p.SeatCount

	cp := *b
	return &cp, nil
}

func (m *MemoryLedger) Confirm(ctx context.Context, bookingID, userID int64) (*domain.Booking, error) {
	k, err := m.bookingKey(bookingID, userID)
	if err != nil {
		return nil, err
	}
	if err := m.acquire(ctx, k); err != nil {
		return nil, err
	}
	defer m.release(k)

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[bookingID]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}
	switch b.Status {
	case domain.BookingStatusConfirmed:
		return nil, ErrAlreadyConfirmed
	case domain.BookingStatusCancelled:
		return nil, ErrAlreadyCancelled
	}

	b.SeatNumber = NewSeatNumber(b.ClassKey)
	b.Status = domain.BookingStatusConfirmed
	b.UpdatedAt = time.Now().UTC()

	cp := *b
	return &cp, nil
}

func (m *MemoryLedger) Cancel(ctx context.Context, bookingID, userID int64) (*Refund, error) {
	k, err := m.bookingKey(bookingID, userID)
	if err != nil {
		return nil, err
	}
	if err := m.acquire(ctx, k); err != nil {
		return nil, err
	}
	defer m.release(k)

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[bookingID]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}
	if b.Status == domain.BookingStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	b.Status = domain.BookingStatusCancelled
	b.UpdatedAt = time.Now().UTC()
	if inv, ok := m.inv[k]; ok {
		inv.held -= b.SeatCount
		if inv.held < 0 {
			inv.held = 0
		}
	}
	return &Refund{BookingID: b.ID, Reference: b.Reference, AmountCents: b.TotalPriceCents}, nil
}

func (m *MemoryLedger) bookingKey(bookingID, userID int64) (invKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.UserID != userID {
		return invKey{}, ErrNotFound
	}
	return invKey{b.DepartureID, b.ClassKey}, nil
}

// acquire takes the per-key lock, waiting at most lockWait.
func (m *MemoryLedger) acquire(ctx context.Context, k invKey) error {
	m.mu.Lock()
	ch, ok := m.locks[k]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[k] = ch
	}
	m.mu.Unlock()

	timer := time.NewTimer(m.lockWait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemoryLedger) release(k invKey) {
	m.mu.Lock()
	ch := m.locks[k]
	m.mu.Unlock()
	<-ch
}

var _ Ledger = (*MemoryLedger)(nil)
