package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/utils"
)

// UserRepo stores operator accounts.
type UserRepo struct{ db DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, role, is_active, created_at, updated_at`

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email=?", strings.ToLower(strings.TrimSpace(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "id=?", id)
}
