// Package auth performs credential registration and verification, session
// issuance and revocation, and session-to-identity lookup against the local
// user store.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/rookpress/bookstall/internal/model"
	"github.com/rookpress/bookstall/internal/store"
)

var (
	// ErrDuplicateEmail means the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUserNotFound means no user matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials means the password check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	users    *store.UserStore
	sessions *store.SessionStore
}

func NewService(users *store.UserStore, sessions *store.SessionStore) *Service {
	return &Service{users: users, sessions: sessions}
}

// Register creates a user with a bcrypt-hashed credential and returns it.
func (s *Service) Register(email, password, name string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(email, name, string(hash))
	if errors.Is(err, store.ErrDuplicateEmail) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the credentials and, on success, issues a fresh
// session valid for 7 days.
func (s *Service) Authenticate(email, password string) (*model.User, *model.Session, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

// Revoke deletes the session matching the token. Revoking an unknown token
// is not an error.
func (s *Service) Revoke(token string) error {
	return s.sessions.DeleteByToken(token)
}

// ResolveSession maps a bearer token to its user. An absent or expired
// session resolves to nil, nil: callers treat that as anonymous, not as a
// failure.
func (s *Service) ResolveSession(token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.sessions.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return s.users.GetByID(sess.UserID)
}
