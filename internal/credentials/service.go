// Package credentials provides account registration and password login.
package credentials

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"catalogo/api/internal/rbac"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateUser      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDeactivated    = errors.New("user deactivated")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError describes the first registration rule the input violated.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var namePattern = regexp.MustCompile(`^[A-Za-z ]+$`)

// Service provides registration and login over a user store.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Claims are the identity attributes embedded in a session token after a
// successful login.
type Claims struct {
	Name string
	Role string
}

// Register validates and stores a new account. Rules are checked in a fixed
// order and the first violation wins: name length, name charset, password
// length, password uppercase, password digit, role validity.
func (s *Service) Register(name, password, role string) error {
	if len(name) < 3 {
		return &ValidationError{Message: "name must be at least 3 characters"}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{Message: "name must contain only letters and spaces"}
	}
	if len(password) < 6 {
		return &ValidationError{Message: "password must be at least 6 characters"}
	}
	if !containsUpper(password) {
		return &ValidationError{Message: "password must contain at least one uppercase letter"}
	}
	if !containsDigit(password) {
		return &ValidationError{Message: "password must contain at least one digit"}
	}
	if role == "" {
		role = string(rbac.RoleUser)
	}
	if !rbac.Valid(role) {
		return &ValidationError{Message: "role must be user or admin"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if !s.store.Create(User{
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}) {
		return ErrDuplicateUser
	}
	return nil
}

// Authenticate checks name and password and returns the identity claims.
// Checks run in a fixed order: existence, active flag, password match.
func (s *Service) Authenticate(name, password string) (Claims, error) {
	user, ok := s.store.Find(name)
	if !ok {
		return Claims{}, ErrInvalidCredentials
	}
	if !user.Active {
		return Claims{}, ErrUserDeactivated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Claims{}, ErrInvalidCredentials
	}
	return Claims{Name: user.Name, Role: user.Role}, nil
}

// Deactivate marks the account inactive. The record stays in the store.
func (s *Service) Deactivate(name string) error {
	user, ok := s.store.Find(name)
	if !ok {
		return ErrUserNotFound
	}
	user.Active = false
	s.store.Update(name, user)
	return nil
}

// Edit overwrites the supplied fields of the matched account. New values are
// not re-validated against the registration rules; callers depend on that.
func (s *Service) Edit(name, newName, newPassword, newRole string) error {
	user, ok := s.store.Find(name)
	if !ok {
		return ErrUserNotFound
	}
	if strings.TrimSpace(newName) != "" {
		user.Name = newName
	}
	if newPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if newRole != "" {
		user.Role = newRole
	}
	s.store.Update(name, user)
	return nil
}

// Exists reports whether an account with the given name is stored.
func (s *Service) Exists(name string) bool {
	_, ok := s.store.Find(name)
	return ok
}

// Seeded reports whether any account exists yet.
func (s *Service) Seeded() bool {
	return s.store.Len() > 0
}

func containsUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
