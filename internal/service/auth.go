// Package service implements business logic, validation, and
// orchestration between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/arnavgupta/campus-events-api/internal/model"
	"github.com/arnavgupta/campus-events-api/internal/repository"
	"github.com/arnavgupta/campus-events-api/internal/token"
)

// ErrInvalidInput marks validation failures so the boundary layer can
// map them to a 400 without leaking anything else.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidCredentials is returned for any login failure. It is
// deliberately the same for unknown emails, wrong passwords, and
// disabled accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrWeakPassword is returned when a registration password is too short.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

const minPasswordLen = 8

// UserStore is the subset of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Disable(ctx context.Context, id string) error
}

// AuthService handles registration, login, and logout.
type AuthService struct {
	users  UserStore
	tokens *token.Issuer
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, tokens *token.Issuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register validates the profile, hashes the password, and creates a
// member account.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if len(req.FullName) < 2 {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if !isValidEmail(req.Email) {
		return nil, fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleMember,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user.Disabled {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.LoginResponse{Token: tok, UserID: user.ID, Role: user.Role}, nil
}

// Logout revokes the presented token so it stops validating before its
// natural expiry.
func (s *AuthService) Logout(tokenString string) {
	s.tokens.Revoke(tokenString)
}

// DisableUser soft-disables an account so it can no longer log in.
// Tokens already issued keep validating until they expire; only new
// logins are blocked. Disabling an already-disabled account is a no-op.
func (s *AuthService) DisableUser(ctx context.Context, id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: invalid user id", ErrInvalidInput)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("look up user: %w", err)
	}
	if user.Disabled {
		return nil
	}
	if err := s.users.Disable(ctx, id); err != nil {
		return fmt.Errorf("disable user: %w", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap administrator if it does not exist.
// An already-registered email is not an error.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin := &model.User{
		ID:           uuid.New().String(),
		FullName:     "Administrator",
		Email:        strings.TrimSpace(strings.ToLower(email)),
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// isValidEmail does a basic structural check (no external deps).
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
