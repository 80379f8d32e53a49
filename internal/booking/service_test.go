package booking

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "users.json"))
	require.NoError(t, err)
	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)), bcrypt.MinCost, nil)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "sup3rsecret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, RolePatient, user.Role)
	assert.NotEqual(t, "sup3rsecret", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice", "sup3rsecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "sup3rsecret")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"short username", "ab", "a@example.com", "password1", ErrInvalidUsername},
		{"bad email", "alice", "not-an-email", "password1", ErrInvalidEmail},
		{"short password", "alice", "a@example.com", "short", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBook(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "alice@example.com", "sup3rsecret")
	require.NoError(t, err)

	req := BookRequest{
		Name:      "Alice Doe",
		Email:     "alice@example.com",
		Specialty: "Cardiology",
		Date:      "2026-09-15",
		Time:      "10:30",
		Reason:    "checkup",
	}
	appt, err := svc.Book(ctx, "alice", req)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.NotEmpty(t, appt.ID)

	req.Specialty = "Astrology"
	_, err = svc.Book(ctx, "alice", req)
	assert.ErrorIs(t, err, ErrInvalidSpecialty)

	req.Specialty = "Cardiology"
	req.Date = "2020-01-01"
	_, err = svc.Book(ctx, "alice", req)
	assert.ErrorIs(t, err, ErrPastDate)

	req.Date = "15/09/2026"
	_, err = svc.Book(ctx, "alice", req)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestMyAppointmentsSummary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "alice@example.com", "sup3rsecret")
	require.NoError(t, err)

	book := func(date string) *Appointment {
		appt, err := svc.Book(ctx, "alice", BookRequest{
			Name: "Alice", Email: "alice@example.com",
			Specialty: "Cardiology", Date: date, Time: "09:00",
		})
		require.NoError(t, err)
		return appt
	}
	book("2026-10-01")
	early := book("2026-08-30")
	book("2026-09-15")
	require.NoError(t, svc.Cancel(ctx, "alice", false, early.ID))

	appts, summary, err := svc.MyAppointments(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, appts, 3)
	assert.Equal(t, "2026-08-30", appts[0].Date)
	assert.Equal(t, "2026-10-01", appts[2].Date)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Confirmed)
	assert.Equal(t, 3, summary.Upcoming)
}

func TestCancel_Ownership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "alice@example.com", "sup3rsecret")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "mallory", "mallory@example.com", "sup3rsecret")
	require.NoError(t, err)

	appt, err := svc.Book(ctx, "alice", BookRequest{
		Name: "Alice", Email: "alice@example.com",
		Specialty: "Cardiology", Date: "2026-09-15", Time: "09:00",
	})
	require.NoError(t, err)

	err = svc.Cancel(ctx, "mallory", false, appt.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	// Admins may cancel anyone's appointment.
	require.NoError(t, svc.Cancel(ctx, "admin", true, appt.ID))

	appts, _, err := svc.MyAppointments(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, appts[0].Status)
}

func TestAdminOverview(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin123"))
	_, err := svc.Register(ctx, "alice", "alice@example.com", "sup3rsecret")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "bob@example.com", "sup3rsecret")
	require.NoError(t, err)

	book := func(user, date string) *Appointment {
		appt, err := svc.Book(ctx, user, BookRequest{
			Name: user, Email: user + "@example.com",
			Specialty: "Dermatology", Date: date, Time: "09:00",
		})
		require.NoError(t, err)
		return appt
	}
	book("alice", "2026-08-31") // inside the coming week
	book("bob", "2026-10-20")
	cancelled := book("bob", "2026-09-01")
	require.NoError(t, svc.Cancel(ctx, "bob", false, cancelled.ID))

	o, err := svc.AdminOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, o.TotalUsers)
	assert.Equal(t, 2, o.TotalPatients)
	assert.Equal(t, 3, o.TotalAppointments)
	assert.Equal(t, 2, o.Confirmed)
	assert.Equal(t, 1, o.Cancelled)
	assert.Equal(t, len(Specialties), o.Specialties)
	assert.Equal(t, 2, o.UpcomingWeek)
}

func TestSpecialistPerformance(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "alice@example.com", "sup3rsecret")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "bob@example.com", "sup3rsecret")
	require.NoError(t, err)

	book := func(user, specialty, date string) *Appointment {
		appt, err := svc.Book(ctx, user, BookRequest{
			Name: user, Email: user + "@example.com",
			Specialty: specialty, Date: date, Time: "09:00",
		})
		require.NoError(t, err)
		return appt
	}
	book("alice", "Cardiology", "2026-09-01")
	book("bob", "Cardiology", "2026-09-10")
	cancelled := book("bob", "Cardiology", "2026-10-05")
	require.NoError(t, svc.Cancel(ctx, "bob", false, cancelled.ID))
	book("alice", "Neurology", "2026-09-03")

	stats, err := svc.SpecialistPerformance(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	cardio := stats[0]
	assert.Equal(t, "Cardiology", cardio.Specialty)
	assert.Equal(t, 3, cardio.Total)
	assert.Equal(t, 2, cardio.Confirmed)
	assert.Equal(t, 1, cardio.Cancelled)
	assert.Equal(t, 2, cardio.UniquePatients)
	assert.InDelta(t, 66.667, cardio.ConfirmationRate, 0.01)
	assert.Equal(t, 2, cardio.Monthly["2026-09"])
	assert.Equal(t, 1, cardio.Monthly["2026-10"])
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin123"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin123"))

	admin, err := svc.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, admin.Role)
}

func TestAllAppointments_Filter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "alice@example.com", "sup3rsecret")
	require.NoError(t, err)

	for _, specialty := range []string{"Cardiology", "Neurology", "Cardiology"} {
		_, err := svc.Book(ctx, "alice", BookRequest{
			Name: "Alice", Email: "alice@example.com",
			Specialty: specialty, Date: "2026-09-15", Time: "09:00",
		})
		require.NoError(t, err)
	}

	all, err := svc.AllAppointments(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cardio, err := svc.AllAppointments(ctx, "Cardiology", "")
	require.NoError(t, err)
	assert.Len(t, cardio, 2)

	none, err := svc.AllAppointments(ctx, "Cardiology", StatusCancelled)
	require.NoError(t, err)
	assert.Empty(t, none)
}
