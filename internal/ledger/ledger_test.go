package ledger

import (
	"context"
	"math/rand"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zvrva/railbooking/internal/domain"
)

const (
	depID  = int64(1)
	userU1 = int64(10)
	userU2 = int64(20)
)

func newLedger(capacity int, priceCents int64) *MemoryLedger {
	l := NewMemoryLedger(time.Second)
	l.AddClass(depID, domain.ClassFirst, capacity, priceCents)
	return l
}

func TestReserve_Validation(t *testing.T) {
	l := newLedger(10, 10000)
	ctx := context.Background()

	_, err := l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 0})
	assert.ErrorIs(t, err, ErrInvalidSeatCount)

	_, err = l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: "luxury", UserID: userU1, SeatCount: 1})
	assert.ErrorIs(t, err, ErrUnknownClass)

	_, err = l.Reserve(ctx, ReserveParams{DepartureID: 999, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserve_PricingUnavailable(t *testing.T) {
	l := NewMemoryLedger(time.Second)
	l.AddClass(depID, domain.ClassSecond, 10, 0)

	_, err := l.Reserve(context.Background(), ReserveParams{DepartureID: depID, ClassKey: domain.ClassSecond, UserID: userU1, SeatCount: 1})
	assert.ErrorIs(t, err, ErrPricingUnavailable)

	inv, ok := l.Inventory(depID, domain.ClassSecond)
	require.True(t, ok)
	assert.Equal(t, 0, inv.Held, "failed reserve must not hold seats")
}

func TestReserve_PriceSnapshotImmutable(t *testing.T) {
	l := newLedger(10, 10000)
	ctx := context.Background()

	b, err := l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), b.UnitPriceCents)
	assert.Equal(t, int64(20000), b.TotalPriceCents)

	l.SetFare(depID, domain.ClassFirst, 15000)

	l.mu.Lock()
	stored := *l.bookings[b.ID]
	l.mu.Unlock()
	assert.Equal(t, int64(20000), stored.TotalPriceCents, "fare change must not alter existing bookings")

	b2, err := l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU2, SeatCount: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), b2.UnitPriceCents)
}

func TestCancel_ReleasesExactlyWhatWasHeld(t *testing.T) {
	l := newLedger(10, 10000)
	ctx := context.Background()

	b, err := l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 3})
	require.NoError(t, err)

	inv, _ := l.Inventory(depID, domain.ClassFirst)
	assert.Equal(t, 3, inv.Held)

	refund, err := l.Cancel(ctx, b.ID, userU1)
	require.NoError(t, err)
	assert.Equal(t, b.Reference, refund.Reference)
	assert.Equal(t, int64(30000), refund.AmountCents)

	inv, _ = l.Inventory(depID, domain.ClassFirst)
	assert.Equal(t, 0, inv.Held)

	_, err = l.Cancel(ctx, b.ID, userU1)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	inv, _ = l.Inventory(depID, domain.ClassFirst)
	assert.Equal(t, 0, inv.Held, "double cancel must not double-release")
}

func TestConfirm_IdempotentSafe(t *testing.T) {
	l := newLedger(10, 10000)
	ctx := context.Background()

	b, err := l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 1})
	require.NoError(t, err)
	assert.Empty(t, b.SeatNumber)

	confirmed, err := l.Confirm(ctx, b.ID, userU1)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)
	assert.Regexp(t, regexp.MustCompile(`^F\d{2}$`), confirmed.SeatNumber)

	_, err = l.Confirm(ctx, b.ID, userU1)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)

	l.mu.Lock()
	stored := *l.bookings[b.ID]
	l.mu.Unlock()
	assert.Equal(t, confirmed.SeatNumber, stored.SeatNumber, "failed re-confirm must not reassign the seat")
}

func TestConfirm_OwnershipAndStatus(t *testing.T) {
	l := newLedger(10, 10000)
	ctx := context.Background()

	b, err := l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 1})
	require.NoError(t, err)

	_, err = l.Confirm(ctx, b.ID, userU2)
	assert.ErrorIs(t, err, ErrNotFound, "foreign booking must look absent")

	_, err = l.Cancel(ctx, b.ID, userU2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Confirm(ctx, 424242, userU1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Cancel(ctx, b.ID, userU1)
	require.NoError(t, err)

	_, err = l.Confirm(ctx, b.ID, userU1)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestReserve_ConcurrentNoDoubleBooking(t *testing.T) {
	const (
		available = 5
		callers   = 20
	)
	l := newLedger(available, 10000)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Reserve(context.Background(), ReserveParams{
				DepartureID: depID,
				ClassKey:    domain.ClassFirst,
				UserID:      int64(100 + i),
				SeatCount:   1,
			})
		}(i)
	}
	wg.Wait()

	var ok, soldOut int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrInsufficientInventory):
			soldOut++
		}
	}
	assert.Equal(t, available, ok)
	assert.Equal(t, callers-available, soldOut)

	inv, _ := l.Inventory(depID, domain.ClassFirst)
	assert.Equal(t, available, inv.Held)
}

func TestCapacityInvariant_ConcurrentReserveCancel(t *testing.T) {
	const capacity = 25
	l := newLedger(capacity, 10000)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holding int // seats of successful, not yet cancelled bookings
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(int64(i)))
			for j := 0; j < 20; j++ {
				seats := 1 + rnd.Intn(3)
				b, err := l.Reserve(context.Background(), ReserveParams{
					DepartureID: depID,
					ClassKey:    domain.ClassFirst,
					UserID:      int64(i),
					SeatCount:   seats,
				})
				if err != nil {
					continue
				}
				mu.Lock()
				holding += seats
				mu.Unlock()

				inv, _ := l.Inventory(depID, domain.ClassFirst)
				assert.LessOrEqual(t, inv.Held, capacity)

				if rnd.Intn(2) == 0 {
					_, err := l.Cancel(context.Background(), b.ID, int64(i))
					assert.NoError(t, err)
					mu.Lock()
					holding -= seats
					mu.Unlock()
				}
			}
		}(i)
	}
	wg.Wait()

	inv, _ := l.Inventory(depID, domain.ClassFirst)
	assert.LessOrEqual(t, inv.Held, capacity)
	assert.Equal(t, holding, inv.Held, "held must equal the seat sum of non-cancelled bookings")
}

func TestReferences_UniqueAcrossLedger(t *testing.T) {
	const n = 100_000
	l := newLedger(n, 100)
	ctx := context.Background()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		b, err := l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 1})
		require.NoError(t, err)
		require.False(t, seen[b.Reference], "duplicate reference %s", b.Reference)
		seen[b.Reference] = true
	}
}

func TestReference_Format(t *testing.T) {
	ref := NewReference()
	assert.Regexp(t, regexp.MustCompile(`^BK\d{13}[0-9A-F]{4}$`), ref)
}

func TestSeatNumber_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		assert.Regexp(t, regexp.MustCompile(`^F\d{2}$`), NewSeatNumber(domain.ClassFirst))
		assert.Regexp(t, regexp.MustCompile(`^S\d{2}$`), NewSeatNumber(domain.ClassSecond))
		assert.Regexp(t, regexp.MustCompile(`^E\d{2}$`), NewSeatNumber(domain.ClassEconomic))
	}
}

func TestReserve_LockTimeout(t *testing.T) {
	l := NewMemoryLedger(50 * time.Millisecond)
	l.AddClass(depID, domain.ClassFirst, 10, 10000)

	k := invKey{depID, domain.ClassFirst}
	require.NoError(t, l.acquire(context.Background(), k))
	defer l.release(k)

	start := time.Now()
	_, err := l.Reserve(context.Background(), ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 1})
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Less(t, time.Since(start), time.Second, "bounded wait must not block indefinitely")
}

func TestEndToEndScenario(t *testing.T) {
	// Departure with class first: capacity 40, price 200.00.
	l := newLedger(40, 20000)
	ctx := context.Background()

	b1, err := l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU1, SeatCount: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(40000), b1.TotalPriceCents)
	assert.Equal(t, domain.BookingStatusPending, b1.Status)

	inv, _ := l.Inventory(depID, domain.ClassFirst)
	assert.Equal(t, 2, inv.Held)

	confirmed, err := l.Confirm(ctx, b1.ID, userU1)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, confirmed.Status)
	assert.Regexp(t, regexp.MustCompile(`^F\d{2}$`), confirmed.SeatNumber)

	_, err = l.Reserve(ctx, ReserveParams{DepartureID: depID, ClassKey: domain.ClassFirst, UserID: userU2, SeatCount: 39})
	assert.ErrorIs(t, err, ErrInsufficientInventory, "only 38 seats remain")

	refund, err := l.Cancel(ctx, b1.ID, userU1)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), refund.AmountCents)

	inv, _ = l.Inventory(depID, domain.ClassFirst)
	assert.Equal(t, 0, inv.Held)
}
