package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TravelerRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Traveler, error)
}

type PGTravelerRepository struct {
	db *pgxpool.Pool
}

func NewTravelerRepository(db *pgxpool.Pool) TravelerRepository {
	return &PGTravelerRepository{db: db}
}

func (r *PGTravelerRepository) GetByID(ctx context.Context, id int64) (*domain.Traveler, error) {
	var (
		t                    domain.Traveler
		lastName, email, sex *string
		dob                  *time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT user_id, first_name, last_name, email, gender, dob FROM users WHERE user_id=$1`, id).
		Scan(&t.ID, &t.FirstName, &lastName, &email, &sex, &dob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTravelerNotFound
	}
	if err != nil {
		return nil, err
	}
	t.LastName = deref(lastName)
	t.Email = deref(email)
	t.Gender = deref(sex)
	t.DateOfBirth = dob
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ TravelerRepository = (*PGTravelerRepository)(nil)
