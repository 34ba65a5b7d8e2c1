package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
	"github.com/josh-kwaku/corebank-ledger/internal/logging"
)

// UserService is the user directory: it owns usernames and credentials.
// Passwords are stored as bcrypt hashes and never logged. The administrator
// username is reserved: only EnsureAdmin may create it.
type UserService struct {
	users         userRepository
	bcryptCost    int
	adminUsername string
}

func NewUserService(users userRepository, bcryptCost int, adminUsername string) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{users: users, bcryptCost: bcryptCost, adminUsername: adminUsername}
}

// IsReserved reports whether username collides with the administrator
// username, ignoring case.
func (s *UserService) IsReserved(username string) bool {
	return s.adminUsername != "" && strings.EqualFold(strings.TrimSpace(username), s.adminUsername)
}

// Authenticate reports whether password matches the user's credential. An
// unknown username is a plain false, not an error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("Authenticate: %w", storageErr(err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *UserService) ResolveUserID(ctx context.Context, username string) (int64, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("ResolveUserID: %w", storageErr(err))
	}
	return u.ID, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("GetByUsername: %w", storageErr(err))
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", storageErr(err))
	}
	return users, nil
}

func (s *UserService) CreateUser(ctx context.Context, profile domain.UserProfile) (*domain.User, error) {
	if s.IsReserved(profile.Username) {
		return nil, fmt.Errorf("CreateUser: %q is reserved: %w", strings.TrimSpace(profile.Username), domain.ErrDuplicateUsername)
	}
	u, err := s.create(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

func (s *UserService) create(ctx context.Context, profile domain.UserProfile) (*domain.User, error) {
	username := strings.TrimSpace(profile.Username)
	if username == "" || profile.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", domain.ErrInvalidInput)
	}

	hash, err := s.hash(profile.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     profile.FullName,
		IDDocument:   profile.IDDocument,
		Phone:        profile.Phone,
		Email:        profile.Email,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, storageErr(err)
	}

	logging.FromContext(ctx).Info("user created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, username, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("UpdatePassword: password is required: %w", domain.ErrInvalidInput)
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return fmt.Errorf("UpdatePassword: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, username, hash); err != nil {
		return fmt.Errorf("UpdatePassword: %w", storageErr(err))
	}

	logging.FromContext(ctx).Info("password updated", "username", username)
	return nil
}

// EnsureAdmin creates the privileged user on first start. An existing user
// of that name is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("EnsureAdmin: %w", storageErr(err))
	}

	_, err = s.create(ctx, domain.UserProfile{Username: username, Password: password, FullName: "Administrator"})
	if err != nil && !errors.Is(err, domain.ErrDuplicateUsername) {
		return fmt.Errorf("EnsureAdmin: %w", err)
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("hash: %w: %w", domain.ErrInvalidInput, err)
		}
		return "", fmt.Errorf("hash: %w", err)
	}
	return string(b), nil
}

func storageErr(err error) error {
	if domain.IsBusinessError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}
