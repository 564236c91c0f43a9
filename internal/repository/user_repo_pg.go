package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zvrva/railbooking/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	MarkVerified(ctx context.Context, id int64) error
	SetVerificationCode(ctx context.Context, id int64, code string, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, full_name, email, password_hash, phone, role, is_verified, verification_code, verification_expires_at, created_at, updated_at`

func (r *PGUserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO users (full_name, email, password_hash, phone, role, is_verified, verification_code, verification_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		u.FullName, u.Email, u.PasswordHash, u.Phone, u.Role, u.IsVerified, u.VerificationCode, u.VerificationExpiresAt).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *PGUserRepository) MarkVerified(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE users SET is_verified=true, verification_code='', updated_at=now() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetVerificationCode stores a fresh code and its expiry. The same
// column pair backs both signup verification and password reset.
func (r *PGUserRepository) SetVerificationCode(ctx context.Context, id int64, code string, expiresAt time.Time) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE users SET verification_code=$2, verification_expires_at=$3, updated_at=now() WHERE id=$1`,
		id, code, expiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the password hash and clears any
// outstanding code so it cannot be replayed.
func (r *PGUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash=$2, verification_code='', updated_at=now() WHERE id=$1`,
		id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGUserRepository) scanOne(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Phone, &u.Role,
		&u.IsVerified, &u.VerificationCode, &u.VerificationExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
