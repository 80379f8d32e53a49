package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// JSONStore persists users and their appointments in a single JSON
// file keyed by username, the layout the first deployment used. All
// access goes through one mutex and every mutation rewrites the file
// atomically (temp file then rename), so a crash mid-write never
// leaves a truncated store behind.
type JSONStore struct {
	mu    sync.Mutex
	path  string
	users map[string]*userRecord
}

type userRecord struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	Password     string        `json:"password"`
	Role         string        `json:"role,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	Appointments []Appointment `json:"appointments"`
}

// NewJSONStore opens or creates the store file.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{path: path, users: make(map[string]*userRecord)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		return nil, fmt.Errorf("parse store file %s: %w", path, err)
	}
	return s, nil
}

// flushLocked rewrites the store file. Callers must hold s.mu.
func (s *JSONStore) flushLocked() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func (s *JSONStore) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return ErrUsernameTaken
	}
	for _, rec := range s.users {
		if strings.EqualFold(rec.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	s.users[user.Username] = &userRecord{
		ID:           user.ID,
		Email:        user.Email,
		Password:     user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt,
		Appointments: []Appointment{},
	}
	return s.flushLocked()
}

func (s *JSONStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return rec.toUser(username), nil
}

func (s *JSONStore) ListUsers(ctx context.Context) ([]*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*User, 0, len(s.users))
	for username, rec := range s.users {
		out = append(out, rec.toUser(username))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *JSONStore) CreateAppointment(ctx context.Context, appt *Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[appt.Username]
	if !ok {
		return ErrUserNotFound
	}
	rec.Appointments = append(rec.Appointments, *appt)
	return s.flushLocked()
}

func (s *JSONStore) AppointmentsByUser(ctx context.Context, username string) ([]*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := make([]*Appointment, 0, len(rec.Appointments))
	for i := range rec.Appointments {
		a := rec.Appointments[i]
		out = append(out, &a)
	}
	return out, nil
}

func (s *JSONStore) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Appointment
	for username, rec := range s.users {
		for i := range rec.Appointments {
			a := rec.Appointments[i]
			a.Username = username
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *JSONStore) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		for i := range rec.Appointments {
			if rec.Appointments[i].ID == id {
				rec.Appointments[i].Status = status
				return s.flushLocked()
			}
		}
	}
	return ErrAppointmentNotFound
}

func (r *userRecord) toUser(username string) *User {
	role := r.Role
	if role == "" {
		role = RolePatient
	}
	return &User{
		ID:           r.ID,
		Username:     username,
		Email:        r.Email,
		PasswordHash: r.Password,
		Role:         role,
		CreatedAt:    r.CreatedAt,
	}
}
