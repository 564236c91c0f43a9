package catalog

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zvrva/railbooking/internal/domain"
	"github.com/zvrva/railbooking/internal/repository"
)

// CatalogUseCase serves the public browse/search surface.
type CatalogUseCase interface {
	ListStations(ctx context.Context) ([]domain.Station, error)
	GetStation(ctx context.Context, id int64) (*domain.Station, error)
	ListTrains(ctx context.Context) ([]domain.Train, error)
	GetTrain(ctx context.Context, id int64) (*domain.Train, error)
	SearchTrips(ctx context.Context, f repository.TripFilter) ([]domain.Trip, error)
	GetTrip(ctx context.Context, id int64) (*TripDetail, error)
	ListDepartures(ctx context.Context, tripID int64) ([]DepartureView, error)
}

// AdminUseCase serves the role-gated catalog writes.
type AdminUseCase interface {
	CreateStation(ctx context.Context, s *domain.Station) error
	UpdateStation(ctx context.Context, s *domain.Station) error
	DeleteStation(ctx context.Context, id int64) error
	CreateTrain(ctx context.Context, t *domain.Train) error
	UpdateTrain(ctx context.Context, t *domain.Train) error
	DeleteTrain(ctx context.Context, id int64) error
	CreateTrip(ctx context.Context, t *domain.Trip, fares []domain.Fare) error
	DeleteTrip(ctx context.Context, id int64) error
	SetFare(ctx context.Context, f domain.Fare) error
	CreateDeparture(ctx context.Context, d *domain.Departure, capacities map[domain.ClassKey]int) error
	SetDepartureCapacity(ctx context.Context, departureID int64, class domain.ClassKey, capacity int) error
}

// TripDetail bundles a trip with its current fares.
type TripDetail struct {
	domain.Trip
	Fares []domain.Fare `json:"fares"`
}

// DepartureView is a departure with per-class availability.
type DepartureView struct {
	domain.Departure
	Inventory []domain.ClassInventory `json:"inventory"`
}

type Cache interface {
	GetTrips(ctx context.Context, filterKey string) ([]domain.Trip, error)
	SetTrips(ctx context.Context, filterKey string, trips []domain.Trip) error
	InvalidateTrips(ctx context.Context) error
}

type CatalogService struct {
	stations repository.StationRepository
	trains   repository.TrainRepository
	trips    repository.TripRepository
	cache    Cache
}

func NewCatalogService(
	stations repository.StationRepository,
	trains repository.TrainRepository,
	trips repository.TripRepository,
	cache Cache,
) *CatalogService {
	return &CatalogService{stations: stations, trains: trains, trips: trips, cache: cache}
}

func (s *CatalogService) ListStations(ctx context.Context) ([]domain.Station, error) {
	return s.stations.List(ctx)
}

func (s *CatalogService) GetStation(ctx context.Context, id int64) (*domain.Station, error) {
	return s.stations.GetByID(ctx, id)
}

func (s *CatalogService) ListTrains(ctx context.Context) ([]domain.Train, error) {
	return s.trains.List(ctx)
}

func (s *CatalogService) GetTrain(ctx context.Context, id int64) (*domain.Train, error) {
	return s.trains.GetByID(ctx, id)
}

func (s *CatalogService) SearchTrips(ctx context.Context, f repository.TripFilter) ([]domain.Trip, error) {
	key := filterKey(f)
	if s.cache != nil {
		if cached, err := s.cache.GetTrips(ctx, key); err == nil && cached != nil {
			return cached, nil
		}
	}

	trips, err := s.trips.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetTrips(ctx, key, trips); err != nil {
			log.Printf("cache trips: %v", err)
		}
	}
	return trips, nil
}

func (s *CatalogService) GetTrip(ctx context.Context, id int64) (*TripDetail, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fares, err := s.trips.Fares(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TripDetail{Trip: *trip, Fares: fares}, nil
}

func (s *CatalogService) ListDepartures(ctx context.Context, tripID int64) ([]DepartureView, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	departures, err := s.trips.Departures(ctx, tripID)
	if err != nil {
		return nil, err
	}
	views := make([]DepartureView, 0, len(departures))
	for _, d := range departures {
		inv, err := s.trips.DepartureInventory(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, DepartureView{Departure: d, Inventory: inv})
	}
	return views, nil
}

func (s *CatalogService) CreateStation(ctx context.Context, st *domain.Station) error {
	return s.stations.Create(ctx, st)
}

func (s *CatalogService) UpdateStation(ctx context.Context, st *domain.Station) error {
	return s.stations.Update(ctx, st)
}

func (s *CatalogService) DeleteStation(ctx context.Context, id int64) error {
	return s.stations.Delete(ctx, id)
}

func (s *CatalogService) CreateTrain(ctx context.Context, t *domain.Train) error {
	return s.trains.Create(ctx, t)
}

func (s *CatalogService) UpdateTrain(ctx context.Context, t *domain.Train) error {
	return s.trains.Update(ctx, t)
}

func (s *CatalogService) DeleteTrain(ctx context.Context, id int64) error {
	return s.trains.Delete(ctx, id)
}

func (s *CatalogService) CreateTrip(ctx context.Context, t *domain.Trip, fares []domain.Fare) error {
	if err := s.trips.Create(ctx, t); err != nil {
		return err
	}
	for _, f := range fares {
		f.TripID = t.ID
		if err := s.trips.UpsertFare(ctx, f); err != nil {
			return err
		}
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) DeleteTrip(ctx context.Context, id int64) error {
	if err := s.trips.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) SetFare(ctx context.Context, f domain.Fare) error {
	return s.trips.UpsertFare(ctx, f)
}

func (s *CatalogService) CreateDeparture(ctx context.Context, d *domain.Departure, capacities map[domain.ClassKey]int) error {
	if err := s.trips.CreateDeparture(ctx, d); err != nil {
		return err
	}
	for class, capacity := range capacities {
		if err := s.trips.SetDepartureCapacity(ctx, d.ID, class, capacity); err != nil {
			return err
		}
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) SetDepartureCapacity(ctx context.Context, departureID int64, class domain.ClassKey, capacity int) error {
	return s.trips.SetDepartureCapacity(ctx, departureID, class, capacity)
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTrips(ctx); err != nil {
		log.Printf("invalidate trips cache: %v", err)
	}
}

func filterKey(f repository.TripFilter) string {
	origin, dest := int64(0), int64(0)
	if f.OriginStationID != nil {
		origin = *f.OriginStationID
	}
	if f.DestinationStationID != nil {
		dest = *f.DestinationStationID
	}
	day := ""
	if f.Date != nil {
		day = f.Date.UTC().Format(time.DateOnly)
	}
	return fmt.Sprintf("%d:%d:%s", origin, dest, day)
}

var (
	_ CatalogUseCase = (*CatalogService)(nil)
	_ AdminUseCase   = (*CatalogService)(nil)
)
