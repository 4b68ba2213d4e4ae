package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-stream-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository provides the local profile rows used in sender projections.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	UsersByIDs(ctx context.Context, ids []int) (map[int]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser fetches a single user profile.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, name, avatar FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UsersByIDs fetches multiple profiles keyed by id.
func (r *UserRepo) UsersByIDs(ctx context.Context, ids []int) (map[int]models.User, error) {
	result := make(map[int]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT id, name, avatar FROM users WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
