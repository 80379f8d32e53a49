package booking

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)
	return store, path
}

func testUser(username string) *User {
	return &User{
		ID:           "id-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Role:         RolePatient,
		CreatedAt:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func testAppointment(id, username string) *Appointment {
	return &Appointment{
		ID:        id,
		Username:  username,
		Name:      "Pat Doe",
		Email:     username + "@example.com",
		Specialty: "Cardiology",
		Date:      "2026-09-15",
		Time:      "10:30",
		Reason:    "checkup",
		Status:    StatusConfirmed,
		CreatedAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestJSONStore_CreateAndFetchUser(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))

	got, err := store.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, RolePatient, got.Role)

	_, err = store.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// The file layout is a username-keyed map.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Contains(t, onDisk, "alice")
}

func TestJSONStore_UniqueConstraints(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))

	err := store.CreateUser(ctx, testUser("alice"))
	assert.ErrorIs(t, err, ErrUsernameTaken)

	dup := testUser("bob")
	dup.Email = "Alice@Example.com"
	err = store.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestJSONStore_Appointments(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))
	require.NoError(t, store.CreateAppointment(ctx, testAppointment("a1", "alice")))

	second := testAppointment("a2", "alice")
	second.Specialty = "Neurology"
	second.CreatedAt = second.CreatedAt.Add(time.Hour)
	require.NoError(t, store.CreateAppointment(ctx, second))

	err := store.CreateAppointment(ctx, testAppointment("a3", "ghost"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	appts, err := store.AppointmentsByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, appts, 2)

	all, err := store.ListAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].ID)
	assert.Equal(t, "alice", all[0].Username)

	// Reopening reads the same data back.
	reopened, err := NewJSONStore(path)
	require.NoError(t, err)
	appts, err = reopened.AppointmentsByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, appts, 2)
}

func TestJSONStore_UpdateAppointmentStatus(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("alice")))
	require.NoError(t, store.CreateAppointment(ctx, testAppointment("a1", "alice")))

	require.NoError(t, store.UpdateAppointmentStatus(ctx, "a1", StatusCancelled))

	appts, err := store.AppointmentsByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, appts[0].Status)

	err = store.UpdateAppointmentStatus(ctx, "missing", StatusCancelled)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestJSONStore_ListUsersSorted(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		require.NoError(t, store.CreateUser(ctx, testUser(name)))
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "carol", users[2].Username)
}
