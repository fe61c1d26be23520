package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"prepkit/internal/models"
	"prepkit/internal/store"
)

// UserStore is the in-memory account repository view.
type UserStore struct {
	d *data
}

func copyUser(u models.User) models.User {
	out := u
	if u.TOTPSecret != nil {
		s := *u.TOTPSecret
		out.TOTPSecret = &s
	}
	return out
}

// FindByEmail retrieves a user by email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, u := range s.d.users {
		if u.Email == email {
			out := copyUser(u)
			return &out, nil
		}
	}
	return nil, nil
}

// FindByID retrieves a user by id. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, u := range s.d.users {
		if u.ID == id {
			out := copyUser(u)
			return &out, nil
		}
	}
	return nil, nil
}

// List returns all users in insertion order.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	users := make([]models.User, 0, len(s.d.users))
	for _, u := range s.d.users {
		users = append(users, copyUser(u))
	}
	return users, nil
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, email, password, name string, role models.Role) (*models.User, error) {
	if err := s.d.wait(ctx); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for _, u := range s.d.users {
		if u.Email == email {
			return nil, fmt.Errorf("create user: email %q already exists", email)
		}
	}

	now := s.d.now()
	u := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.d.users = append(s.d.users, u)

	out := copyUser(u)
	return &out, nil
}

// SetTOTPSecret saves the TOTP secret for a user.
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	return s.updateUser(ctx, userID, func(u *models.User) {
		u.TOTPSecret = &secret
	})
}

// EnableTOTP marks 2FA as active for a user.
func (s *UserStore) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	return s.updateUser(ctx, userID, func(u *models.User) {
		u.TOTPEnabled = true
	})
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
func (s *UserStore) ResetTOTP(ctx context.Context, userID uuid.UUID) error {
	return s.updateUser(ctx, userID, func(u *models.User) {
		u.TOTPSecret = nil
		u.TOTPEnabled = false
	})
}

func (s *UserStore) updateUser(ctx context.Context, userID uuid.UUID, apply func(*models.User)) error {
	if err := s.d.wait(ctx); err != nil {
		return err
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()

	for i := range s.d.users {
		if s.d.users[i].ID == userID {
			apply(&s.d.users[i])
			s.d.users[i].UpdatedAt = s.d.now()
			return nil
		}
	}
	return store.ErrNotFound
}
