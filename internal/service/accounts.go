package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/seatplan/internal/model"
	"github.com/iliyamo/seatplan/internal/repository"
	"github.com/iliyamo/seatplan/internal/utils"
)

// RoleValidator is the part of the authorizer that knows which roles exist.
type RoleValidator interface {
	ValidRole(role string) bool
}

// AccountService creates operator accounts.
type AccountService struct {
	base
	roles RoleValidator
	cost  int
}

func NewAccountService(d Deps, roles RoleValidator, bcryptCost int) *AccountService {
	return &AccountService{base: newBase(d), roles: roles, cost: bcryptCost}
}

// CreateUser adds an operator.  The e-mail is normalized to lower case.
func (s *AccountService) CreateUser(ctx context.Context, email, password, role string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	role = strings.ToUpper(strings.TrimSpace(role))
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, invalid("a valid email is required")
	case len(password) < utils.MinPasswordLen:
		return nil, invalid("password must be at least %d characters", utils.MinPasswordLen)
	case !s.roles.ValidRole(role):
		return nil, invalid("role must be %s or %s", model.RoleAdmin, model.RoleStaff)
	}

	var u *model.User
	err := s.inTx(ctx, "create user", s.timeouts.Default, func(ctx context.Context, tx *sql.Tx) error {
		users := repository.NewUserRepo(tx)
		id, err := users.Create(ctx, email, password, role, s.cost)
		if err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return &ConflictError{Msg: "email already exists"}
			}
			return err
		}
		u, err = users.GetByID(ctx, id)
		return err
	})
	return u, err
}

// EnsureAdmin creates the bootstrap administrator when email and password
// are set and no account with that e-mail exists yet.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	err := s.read(ctx, "lookup admin", func(ctx context.Context, db repository.DBTX) error {
		_, err := repository.NewUserRepo(db).GetByEmail(ctx, email)
		return err
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	u, err := s.CreateUser(ctx, email, password, model.RoleAdmin)
	if err != nil {
		var ce *ConflictError
		if errors.As(err, &ce) {
			return nil
		}
		return err
	}
	s.log.Info("bootstrap admin created", zap.Uint64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
