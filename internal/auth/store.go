// Package auth holds user accounts and token issuance. Accounts live in a
// JSON document on the asset store, which is plenty for a single-node
// deployment and keeps the service free of a database dependency.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/adcraft/creative-engine/internal/domain"
	"github.com/adcraft/creative-engine/internal/storage"
)

const usersKey = "users/users.json"

// ErrEmailTaken is returned when registering an address that already exists.
var ErrEmailTaken = errors.New("auth: email already registered")

const minPasswordLength = 8

// User is a registered account. The password hash never leaves this package.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the user shape handed to API responses.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

// Store manages user accounts backed by the file store.
type Store struct {
	mu    sync.Mutex
	files *storage.FileStore
	users map[string]User
}

// NewStore loads the user database from the file store. A missing document
// means a fresh install and an empty store.
func NewStore(ctx context.Context, files *storage.FileStore) (*Store, error) {
	s := &Store{files: files, users: make(map[string]User)}
	data, err := files.Read(ctx, usersKey)
	if errors.Is(err, storage.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load users: %w", err)
	}
	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("auth: decode users: %w", err)
	}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s, nil
}

// Register creates a new account and persists the database.
func (s *Store) Register(ctx context.Context, email, name, password string) (Profile, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return Profile{}, fmt.Errorf("%w: a valid email is required", domain.ErrInvalidRequest)
	}
	if len(password) < minPasswordLength {
		return Profile{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidRequest, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Profile{}, fmt.Errorf("auth: hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return Profile{}, ErrEmailTaken
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	s.users[email] = user
	if err := s.persistLocked(ctx); err != nil {
		delete(s.users, email)
		return Profile{}, err
	}
	return user.profile(), nil
}

// Authenticate verifies credentials and returns the matching profile.
func (s *Store) Authenticate(ctx context.Context, email, password string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	email = normalizeEmail(email)

	s.mu.Lock()
	user, ok := s.users[email]
	s.mu.Unlock()
	if !ok {
		// Burn a comparison anyway so missing accounts take as long as bad
		// passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000uGJzm0GZwS1a3jTq0cUyBO9cDOq7yNhK"), []byte(password))
		return Profile{}, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Profile{}, domain.ErrUnauthorized
	}
	return user.profile(), nil
}

// GetByID returns the profile for a user id.
func (s *Store) GetByID(id string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			return user.profile(), nil
		}
	}
	return Profile{}, domain.ErrNotFound
}

func (s *Store) persistLocked(ctx context.Context) error {
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("auth: encode users: %w", err)
	}
	if _, err := s.files.Write(ctx, usersKey, data); err != nil {
		return fmt.Errorf("auth: persist users: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
