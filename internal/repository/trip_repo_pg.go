package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zvrva/railbooking/internal/domain"
)

// TripFilter narrows a trip search. Nil fields are ignored. Date
// matches trips that have a departure on that calendar day (UTC).
type TripFilter struct {
	OriginStationID      *int64
	DestinationStationID *int64
	Date                 *time.Time
}

type TripRepository interface {
	Search(ctx context.Context, f TripFilter) ([]domain.Trip, error)
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)
	Create(ctx context.Context, t *domain.Trip) error
	Delete(ctx context.Context, id int64) error

	Fares(ctx context.Context, tripID int64) ([]domain.Fare, error)
	UpsertFare(ctx context.Context, f domain.Fare) error

	Departures(ctx context.Context, tripID int64) ([]domain.Departure, error)
	GetDeparture(ctx context.Context, departureID int64) (*domain.Departure, error)
	CreateDeparture(ctx context.Context, d *domain.Departure) error
	DepartureInventory(ctx context.Context, departureID int64) ([]domain.ClassInventory, error)
	SetDepartureCapacity(ctx context.Context, departureID int64, class domain.ClassKey, capacity int) error
}

type PGTripRepository struct {
	db *pgxpool.Pool
}

func NewTripRepository(db *pgxpool.Pool) TripRepository {
	return &PGTripRepository{db: db}
}

const tripColumns = `id, train_id, origin_station_id, destination_station_id, created_at, updated_at`

func (r *PGTripRepository) Search(ctx context.Context, f TripFilter) ([]domain.Trip, error) {
	query := `SELECT DISTINCT t.id, t.train_id, t.origin_station_id, t.destination_station_id, t.created_at, t.updated_at FROM trips t`
	args := make([]any, 0, 3)

	if f.Date != nil {
		query += ` JOIN departures d ON d.trip_id = t.id`
	}
	where := ""
	appendCond := func(cond string, arg any) {
		args = append(args, arg)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}
	if f.OriginStationID != nil {
		appendCond("t.origin_station_id = $%d", *f.OriginStationID)
	}
	if f.DestinationStationID != nil {
		appendCond("t.destination_station_id = $%d", *f.DestinationStationID)
	}
	if f.Date != nil {
		appendCond("d.departure_time::date = $%d::date", f.Date.UTC())
	}
	query += where + ` ORDER BY t.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		var t domain.Trip
		if err := rows.Scan(&t.ID, &t.TrainID, &t.OriginStationID, &t.DestinationStationID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func (r *PGTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id=$1`, id)
	var t domain.Trip
	if err := row.Scan(&t.ID, &t.TrainID, &t.OriginStationID, &t.DestinationStationID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &t, nil
}

func (r *PGTripRepository) Create(ctx context.Context, t *domain.Trip) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO trips (train_id, origin_station_id, destination_station_id) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		t.TrainID, t.OriginStationID, t.DestinationStationID).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *PGTripRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTripRepository) Fares(ctx context.Context, tripID int64) ([]domain.Fare, error) {
	rows, err := r.db.Query(ctx,
		`SELECT trip_id, class_key, price_cents FROM trip_fares WHERE trip_id=$1 ORDER BY class_key`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fares := make([]domain.Fare, 0)
	for rows.Next() {
		var f domain.Fare
		if err := rows.Scan(&f.TripID, &f.ClassKey, &f.PriceCents); err != nil {
			return nil, err
		}
		fares = append(fares, f)
	}
	return fares, rows.Err()
}

func (r *PGTripRepository) UpsertFare(ctx context.Context, f domain.Fare) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO trip_fares (trip_id, class_key, price_cents) VALUES ($1, $2, $3)
		 ON CONFLICT (trip_id, class_key) DO UPDATE SET price_cents = EXCLUDED.price_cents`,
		f.TripID, f.ClassKey, f.PriceCents)
	return err
}

const departureColumns = `id, trip_id, departure_time, arrival_time, created_at, updated_at`

func (r *PGTripRepository) Departures(ctx context.Context, tripID int64) ([]domain.Departure, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+departureColumns+` FROM departures WHERE trip_id=$1 ORDER BY departure_time`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departures := make([]domain.Departure, 0)
	for rows.Next() {
		var d domain.Departure
		if err := rows.Scan(&d.ID, &d.TripID, &d.DepartureTime, &d.ArrivalTime, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		departures = append(departures, d)
	}
	return departures, rows.Err()
}

func (r *PGTripRepository) GetDeparture(ctx context.Context, departureID int64) (*domain.Departure, error) {
	row := r.db.QueryRow(ctx, `SELECT `+departureColumns+` FROM departures WHERE id=$1`, departureID)
	var d domain.Departure
	if err := row.Scan(&d.ID, &d.TripID, &d.DepartureTime, &d.ArrivalTime, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &d, nil
}

func (r *PGTripRepository) CreateDeparture(ctx context.Context, d *domain.Departure) error {
	// arrival > departure also enforced by the table CHECK.
	if !d.ArrivalTime.After(d.DepartureTime) {
		return fmt.Errorf("arrival time must be after departure time")
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO departures (trip_id, departure_time, arrival_time) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		d.TripID, d.DepartureTime, d.ArrivalTime).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *PGTripRepository) DepartureInventory(ctx context.Context, departureID int64) ([]domain.ClassInventory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT departure_id, class_key, capacity, held FROM departure_inventory WHERE departure_id=$1 ORDER BY class_key`,
		departureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inventory := make([]domain.ClassInventory, 0)
	for rows.Next() {
		var inv domain.ClassInventory
		if err := rows.Scan(&inv.DepartureID, &inv.ClassKey, &inv.Capacity, &inv.Held); err != nil {
			return nil, err
		}
		inventory = append(inventory, inv)
	}
	return inventory, rows.Err()
}

func (r *PGTripRepository) SetDepartureCapacity(ctx context.Context, departureID int64, class domain.ClassKey, capacity int) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO departure_inventory (departure_id, class_key, capacity, held) VALUES ($1, $2, $3, 0)
		 ON CONFLICT (departure_id, class_key) DO UPDATE SET capacity = EXCLUDED.capacity`,
		departureID, class, capacity)
	return err
}

var _ TripRepository = (*PGTripRepository)(nil)
