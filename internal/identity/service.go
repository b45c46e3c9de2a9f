package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vendmart/vendmart/internal/vend"
)

var (
	// ErrInvalidCredentials indicates the username/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRole indicates the requested role is not buyer or seller.
	ErrInvalidRole = errors.New("role must be buyer or seller")
	// ErrWeakPassword indicates the password does not meet the minimum length.
	ErrWeakPassword = errors.New("password must be at least 4 characters")
)

// Service manages user lifecycle. Registration also makes the account
// visible to the vending engine so deposits work immediately.
type Service struct {
	repo     Repository
	accounts vend.AccountStore
}

// NewService creates an identity service.
func NewService(repo Repository, accounts vend.AccountStore) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// Register creates a new user with a hashed password and a zero balance.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	if creds.Username == "" {
		return User{}, errors.New("username is required")
	}
	if len(creds.Password) < 4 {
		return User{}, ErrWeakPassword
	}
	if !creds.Role.Valid() {
		return User{}, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     creds.Username,
		Role:         creds.Role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	if err := s.accounts.EnsureAccount(ctx, user.ID, user.Role); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByUsername(ctx, creds.Username)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateRole changes a user's role. The change is mirrored into the vending
// account store so the engine's buyer checks see the new role right away.
func (s *Service) UpdateRole(ctx context.Context, id string, role vend.Role) (User, error) {
	if !role.Valid() {
		return User{}, ErrInvalidRole
	}
	if err := s.repo.UpdateRole(ctx, id, string(role)); err != nil {
		return User{}, err
	}
	if err := s.accounts.SetAccountRole(ctx, id, role); err != nil {
		return User{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
