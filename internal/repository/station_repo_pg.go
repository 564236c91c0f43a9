package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zvrva/railbooking/internal/domain"
)

var ErrNotFound = errors.New("not found")

type StationRepository interface {
	List(ctx context.Context) ([]domain.Station, error)
	GetByID(ctx context.Context, id int64) (*domain.Station, error)
	Create(ctx context.Context, s *domain.Station) error
	Update(ctx context.Context, s *domain.Station) error
	Delete(ctx context.Context, id int64) error
}

type PGStationRepository struct {
	db *pgxpool.Pool
}

func NewStationRepository(db *pgxpool.Pool) StationRepository {
	return &PGStationRepository{db: db}
}

const stationColumns = `id, name, code, city, address, facilities, created_at, updated_at`

func (r *PGStationRepository) List(ctx context.Context) ([]domain.Station, error) {
	rows, err := r.db.Query(ctx, `SELECT `+stationColumns+` FROM stations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]domain.Station, 0)
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.City, &s.Address, &s.Facilities, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func (r *PGStationRepository) GetByID(ctx context.Context, id int64) (*domain.Station, error) {
	row := r.db.QueryRow(ctx, `SELECT `+stationColumns+` FROM stations WHERE id=$1`, id)
	var s domain.Station
	if err := row.Scan(&s.ID, &s.Name, &s.Code, &s.City, &s.Address, &s.Facilities, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &s, nil
}

func (r *PGStationRepository) Create(ctx context.Context, s *domain.Station) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO stations (name, code, city, address, facilities) VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.Code, s.City, s.Address, s.Facilities).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *PGStationRepository) Update(ctx context.Context, s *domain.Station) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE stations SET name=$2, code=$3, city=$4, address=$5, facilities=$6, updated_at=now() WHERE id=$1`,
		s.ID, s.Name, s.Code, s.City, s.Address, s.Facilities)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGStationRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM stations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ StationRepository = (*PGStationRepository)(nil)
