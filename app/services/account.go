package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/repositories"
	"github.com/cherrydine/cherrydine/pkg/auth"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/middleware"
)

type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=150,alphanum"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Phone     string `json:"phone" validate:"omitempty,max=15"`
	Address   string `json:"address" validate:"max=64"`
}

type LoginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput carries the editable profile fields. Role is deliberately absent.
type ProfileInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Phone     string `json:"phone" validate:"omitempty,max=15"`
	Address   string `json:"address" validate:"max=64"`
}

type AccountService struct {
	users *repositories.UserRepository
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{users: repositories.NewUserRepository(db)}
}

// Register always creates a guest. Admins come from the seeder.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	taken, err := s.users.Taken(ctx, in.Username, in.Email, 0)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, fmt.Errorf("%w: username or email already registered", ErrConflict)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("account: hash password: %w", err)
	}

	var user models.User
	if err := copier.Copy(&user, &in); err != nil {
		return models.User{}, fmt.Errorf("account: copy input: %w", err)
	}
	user.Password = hash
	user.Role = models.RoleGuest

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, fmt.Errorf("%w: username or email already registered", ErrConflict)
		}
		return models.User{}, err
	}
	logger.WithCtx(ctx).Info("account: registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords fail alike.
func (s *AccountService) Authenticate(ctx context.Context, in LoginInput) (models.User, error) {
	user, err := s.users.FindByLogin(ctx, strings.TrimSpace(in.Login))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUnauthorized
	}
	if err != nil {
		return models.User{}, err
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return models.User{}, ErrUnauthorized
	}
	return user, nil
}

// IssueToken logs in for API clients and returns a bearer token.
func (s *AccountService) IssueToken(ctx context.Context, in LoginInput) (string, models.User, error) {
	user, err := s.Authenticate(ctx, in)
	if err != nil {
		return "", user, err
	}
	token, err := auth.GenerateToken(user.ID, string(user.Role))
	return token, user, err
}

func (s *AccountService) Profile(ctx context.Context, actor models.Actor) (models.User, error) {
	user, err := s.users.FindByID(ctx, actor.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, fmt.Errorf("%w: user %d", ErrNotFound, actor.UserID)
	}
	return user, err
}

func (s *AccountService) UpdateProfile(ctx context.Context, actor models.Actor, in ProfileInput) (models.User, error) {
	user, err := s.Profile(ctx, actor)
	if err != nil {
		return user, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email != user.Email {
		taken, err := s.users.Taken(ctx, "", in.Email, user.ID)
		if err != nil {
			return user, err
		}
		if taken {
			return user, fmt.Errorf("%w: email already registered", ErrConflict)
		}
	}

	if err := copier.Copy(&user, &in); err != nil {
		return user, fmt.Errorf("account: copy input: %w", err)
	}
	if err := s.users.UpdateProfile(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return user, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return user, err
	}
	return user, nil
}

// LoadPrincipal resolves the authenticated user's current role for the auth
// middleware, so a demoted admin loses access on the next request.
func (s *AccountService) LoadPrincipal(ctx context.Context, userID uint) (middleware.Principal, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.Principal{}, middleware.ErrUnknownPrincipal
	}
	if err != nil {
		return middleware.Principal{}, err
	}
	return middleware.Principal{UserID: user.ID, Role: string(user.Role)}, nil
}

// ActorFrom converts the middleware principal into a service actor.
func ActorFrom(p middleware.Principal, ok bool) models.Actor {
	if !ok {
		return models.Actor{}
	}
	role, valid := models.ParseRole(p.Role)
	if !valid {
		role = models.RoleGuest
	}
	return models.Actor{UserID: p.UserID, Role: role}
}
