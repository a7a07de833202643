// Package auth provides user registration, login, and bearer-token
// authentication backed by the user datastore.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tunebase/internal/db"
)

var (
	// ErrInvalidCredentials is returned on login with an unknown email or
	// wrong password, and on requests carrying an invalid bearer token.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = db.ErrEmailTaken
)

// UserStore is the subset of user persistence the service needs.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	Get(ctx context.Context, id string) (*db.User, error)
	GetByEmail(ctx context.Context, email string) (*db.User, error)
}

// TokenStore is the subset of token persistence the service needs.
type TokenStore interface {
	Create(ctx context.Context, token *db.APIToken) error
	GetByHash(ctx context.Context, hash string) (*db.APIToken, error)
	TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error
	DeleteForUser(ctx context.Context, userID string) error
}

// Service implements user account and token operations.
type Service struct {
	users    UserStore
	tokens   TokenStore
	tokenTTL time.Duration
}

// NewService creates an auth service issuing tokens valid for tokenTTL.
func NewService(users UserStore, tokens TokenStore, tokenTTL time.Duration) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// Register creates a new user and issues their first access token.
// The returned token plaintext is shown to the client only once.
func (s *Service) Register(ctx context.Context, name, email, password string) (*db.User, string, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	user := &db.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies email/password credentials and issues a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*db.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil || !VerifyPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user. Expired or unknown
// tokens fail with ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, token string) (*db.User, error) {
	stored, err := s.tokens.GetByHash(ctx, hashToken(token))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.Get(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.tokens.TouchLastUsed(ctx, stored.ID, time.Now()); err != nil {
		logrus.WithError(err).Warn("Updating token last-used timestamp")
	}

	return user, nil
}

// Logout revokes every token issued to the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.tokens.DeleteForUser(ctx, userID)
}

// issueToken mints an opaque token for user and persists its hash.
func (s *Service) issueToken(ctx context.Context, user *db.User) (string, error) {
	plain, err := generatePlainToken()
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	now := time.Now()
	record := &db.APIToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(s.tokenTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", err
	}
	return plain, nil
}
