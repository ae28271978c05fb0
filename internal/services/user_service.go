package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/models"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
)

type UserService struct {
	db   core.DbClient
	cost int
	now  func() time.Time
}

func NewUserService(db core.DbClient) *UserService {
	return &UserService{db: db, cost: bcrypt.DefaultCost, now: time.Now}
}

// Register creates a user with a bcrypt password hash. A taken email fails with ErrUserExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword(prehash(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrUserExists) {
			return nil, core.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the user owning email when password matches, else ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, core.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), prehash(password)) != nil {
		return nil, core.ErrInvalidCredentials
	}
	return user, nil
}

func validateCredentials(email, password string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return "", core.ErrInvalidEmail
	}
	if n := utf8.RuneCountInString(password); n < PasswordMinLength || n > PasswordMaxLength {
		return "", fmt.Errorf("%w: must be %d to %d characters", core.ErrInvalidPassword, PasswordMinLength, PasswordMaxLength)
	}
	return strings.ToLower(addr.Address), nil
}

// prehash keeps passwords up to PasswordMaxLength under bcrypt's 72-byte input limit.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
