package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zvrva/railbooking/internal/domain"
)

type TrainRepository interface {
	List(ctx context.Context) ([]domain.Train, error)
	GetByID(ctx context.Context, id int64) (*domain.Train, error)
	Create(ctx context.Context, t *domain.Train) error
	Update(ctx context.Context, t *domain.Train) error
	Delete(ctx context.Context, id int64) error
}

type PGTrainRepository struct {
	db *pgxpool.Pool
}

func NewTrainRepository(db *pgxpool.Pool) TrainRepository {
	return &PGTrainRepository{db: db}
}

const trainColumns = `id, train_number, name, type, status, facilities, created_at, updated_at`

func (r *PGTrainRepository) List(ctx context.Context) ([]domain.Train, error) {
	rows, err := r.db.Query(ctx, `SELECT `+trainColumns+` FROM trains ORDER BY train_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trains := make([]domain.Train, 0)
	for rows.Next() {
		var t domain.Train
		if err := rows.Scan(&t.ID, &t.TrainNumber, &t.Name, &t.Type, &t.Status, &t.Facilities, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		trains = append(trains, t)
	}
	return trains, rows.Err()
}

func (r *PGTrainRepository) GetByID(ctx context.Context, id int64) (*domain.Train, error) {
	row := r.db.QueryRow(ctx, `SELECT `+trainColumns+` FROM trains WHERE id=$1`, id)
	var t domain.Train
	if err := row.Scan(&t.ID, &t.TrainNumber, &t.Name, &t.Type, &t.Status, &t.Facilities, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &t, nil
}

func (r *PGTrainRepository) Create(ctx context.Context, t *domain.Train) error {
	if t.Status == "" {
		t.Status = domain.TrainStatusActive
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO trains (train_number, name, type, status, facilities) VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		t.TrainNumber, t.Name, t.Type, t.Status, t.Facilities).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *PGTrainRepository) Update(ctx context.Context, t *domain.Train) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE trains SET train_number=$2, name=$3, type=$4, status=$5, facilities=$6, updated_at=now() WHERE id=$1`,
		t.ID, t.TrainNumber, t.Name, t.Type, t.Status, t.Facilities)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTrainRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM trains WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ TrainRepository = (*PGTrainRepository)(nil)
