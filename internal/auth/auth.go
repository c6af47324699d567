// Package auth decides who may open the admin dashboard.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is accepted when no password hash is configured.
const DemoPassword = "admin123"

var ErrInvalidPassword = errors.New("invalid password, please try again")

// Verifier checks an admin password.
type Verifier interface {
	Verify(password string) error
}

// HashVerifier compares passwords against a bcrypt hash.
type HashVerifier struct {
	hash []byte
}

// NewHashVerifier returns a verifier for hash. An empty hash falls back to
// DemoPassword.
func NewHashVerifier(hash string) (*HashVerifier, error) {
	if hash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
		return &HashVerifier{hash: h}, nil
	}

	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid password hash: %w", err)
	}
	return &HashVerifier{hash: []byte(hash)}, nil
}

func (v *HashVerifier) Verify(password string) error {
	if password == "" {
		return ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// HashPassword returns the bcrypt hash to put in password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Session tracks whether the admin signed in for the lifetime of one process.
type Session struct {
	verifier Verifier

	mu            sync.Mutex
	authenticated bool
}

func NewSession(v Verifier) *Session {
	return &Session{verifier: v}
}

func (s *Session) Login(password string) error {
	if err := s.verifier.Verify(password); err != nil {
		return err
	}
	s.mu.Lock()
	s.authenticated = true
	s.mu.Unlock()
	return nil
}

func (s *Session) Logout() {
	s.mu.Lock()
	s.authenticated = false
	s.mu.Unlock()
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}
