package domain

import "time"

// Trip is a route template: a train running between two stations.
// Dated runs live in Departure; per-class prices in Fare.
type Trip struct {
	ID                   int64     `json:"id"`
	TrainID              int64     `json:"train_id"`
	OriginStationID      int64     `json:"origin_station_id"`
	DestinationStationID int64     `json:"destination_station_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Fare is the current per-seat price of a class on a trip. Changing a
// fare never touches existing bookings; they keep their snapshot.
type Fare struct {
	TripID     int64    `json:"trip_id"`
	ClassKey   ClassKey `json:"class_key"`
	PriceCents int64    `json:"price_cents"`
}

// Departure is one scheduled, dated run of a trip.
type Departure struct {
	ID            int64     `json:"id"`
	TripID        int64     `json:"trip_id"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ClassInventory is the authoritative seat counter for one class on
// one departure. Held counts seats of all non-cancelled bookings and
// never exceeds Capacity.
type ClassInventory struct {
	DepartureID int64    `json:"departure_id"`
	ClassKey    ClassKey `json:"class_key"`
	Capacity    int      `json:"capacity"`
	Held        int      `json:"held"`
}

// Available returns the number of seats still open for sale.
func (i ClassInventory) Available() int {
	return i.Capacity - i.Held
}
