package credentials

import "sync"

// User is a stored account. Users are never hard-deleted; deactivation
// clears Active instead.
type User struct {
	Name         string
	PasswordHash string
	Role         string
	Active       bool
}

// Store keeps accounts in a process-local slice with no database behind it.
// A mutex serializes mutation so concurrent handlers cannot interleave
// partial updates.
type Store struct {
	mu    sync.Mutex
	users []User
}

func NewStore() *Store {
	return &Store{}
}

// Find returns the user with the given name, active or not.
func (s *Store) Find(name string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == name {
			return u, true
		}
	}
	return User{}, false
}

// Create appends a user. Returns false if the name is already taken.
func (s *Store) Create(user User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == user.Name {
			return false
		}
	}
	s.users = append(s.users, user)
	return true
}

// Update overwrites the user matched by name. Returns false if absent.
func (s *Store) Update(name string, user User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].Name == name {
			s.users[i] = user
			return true
		}
	}
	return false
}

// Len reports how many accounts exist, used to decide whether to seed.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
