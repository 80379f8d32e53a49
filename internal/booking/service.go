package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"medpulse/internal/infrastructure"
)

// Validation errors returned by the service.
var (
	ErrBadCredentials   = errors.New("booking: invalid username or password")
	ErrInvalidUsername  = errors.New("booking: username must be 3-32 characters")
	ErrInvalidEmail     = errors.New("booking: invalid email address")
	ErrWeakPassword     = errors.New("booking: password must be at least 8 characters")
	ErrInvalidSpecialty = errors.New("booking: unknown specialty")
	ErrPastDate         = errors.New("booking: appointment date must not be in the past")
	ErrInvalidDate      = errors.New("booking: date must be YYYY-MM-DD")
	ErrNotOwner         = errors.New("booking: appointment belongs to another user")
)

// Notifier receives appointment events for live fan-out. The WebSocket
// hub implements it.
type Notifier interface {
	NotifyAppointment(event string, appt *Appointment)
}

// Service implements the booking use cases over a Store.
type Service struct {
	store      Store
	logger     *slog.Logger
	bcryptCost int
	notifier   Notifier
	now        func() time.Time
}

// NewService wires a booking service. notifier may be nil.
func NewService(store Store, logger *slog.Logger, bcryptCost int, notifier Notifier) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:      store,
		logger:     infrastructure.WithComponent(logger, "booking"),
		bcryptCost: bcryptCost,
		notifier:   notifier,
		now:        time.Now,
	}
}

// Register creates a new patient account.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, ErrInvalidUsername
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RolePatient,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("username", username))
	return user, nil
}

// Authenticate checks credentials and returns the account. A missing
// user and a wrong password return the same error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// BookRequest carries the booking form fields.
type BookRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Specialty string `json:"specialty" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Reason    string `json:"reason"`
}

// Book creates a confirmed appointment for the user.
func (s *Service) Book(ctx context.Context, username string, req BookRequest) (*Appointment, error) {
	if !ValidSpecialty(req.Specialty) {
		return nil, ErrInvalidSpecialty
	}
	date, err := time.Parse(DateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, ErrPastDate
	}

	appt := &Appointment{
		ID:        uuid.New().String(),
		Username:  username,
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
		Status:    StatusConfirmed,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "appointment booked",
		slog.String("username", username),
		slog.String("specialty", appt.Specialty),
		slog.String("date", appt.Date))
	if s.notifier != nil {
		s.notifier.NotifyAppointment("appointment_booked", appt)
	}
	return appt, nil
}

// MyAppointments returns the user's appointments sorted by date
// ascending, with the summary block.
func (s *Service) MyAppointments(ctx context.Context, username string) ([]*Appointment, Summary, error) {
	appts, err := s.store.AppointmentsByUser(ctx, username)
	if err != nil {
		return nil, Summary{}, err
	}
	sort.SliceStable(appts, func(i, j int) bool { return appts[i].Date < appts[j].Date })

	summary := Summary{Total: len(appts)}
	today := s.now().UTC().Format(DateLayout)
	for _, a := range appts {
		if a.Status == StatusConfirmed {
			summary.Confirmed++
		}
		if a.Date >= today {
			summary.Upcoming++
		}
	}
	return appts, summary, nil
}

// Cancel marks an appointment cancelled. Patients may cancel only
// their own; admins may cancel any.
func (s *Service) Cancel(ctx context.Context, username string, admin bool, id string) error {
	if !admin {
		appts, err := s.store.AppointmentsByUser(ctx, username)
		if err != nil {
			return err
		}
		owned := false
		for _, a := range appts {
			if a.ID == id {
				owned = true
				break
			}
		}
		if !owned {
			return ErrNotOwner
		}
	}
	if err := s.store.UpdateAppointmentStatus(ctx, id, StatusCancelled); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "appointment cancelled",
		slog.String("username", username),
		slog.String("appointment_id", id))
	if s.notifier != nil {
		s.notifier.NotifyAppointment("appointment_cancelled", &Appointment{ID: id, Username: username, Status: StatusCancelled})
	}
	return nil
}

// Users returns every account. Password hashes never serialize; the
// User type drops the field from JSON.
func (s *Service) Users(ctx context.Context) ([]*User, error) {
	return s.store.ListUsers(ctx)
}

// AdminOverview computes the dashboard headline figures.
func (s *Service) AdminOverview(ctx context.Context) (*Overview, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	appts, err := s.store.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	o := &Overview{
		TotalUsers:        len(users),
		TotalAppointments: len(appts),
		Specialties:       len(Specialties),
	}
	for _, u := range users {
		if u.Role != RoleAdmin {
			o.TotalPatients++
		}
	}
	now := s.now().UTC()
	weekAhead := now.AddDate(0, 0, 7)
	for _, a := range appts {
		switch a.Status {
		case StatusConfirmed:
			o.Confirmed++
		case StatusCancelled:
			o.Cancelled++
		}
		if d, err := a.DateValue(); err == nil {
			if !d.Before(now.Truncate(24*time.Hour)) && d.Before(weekAhead) {
				o.UpcomingWeek++
			}
		}
	}
	return o, nil
}

// AllAppointments returns every appointment, optionally filtered by
// specialty and status.
func (s *Service) AllAppointments(ctx context.Context, specialty, status string) ([]*Appointment, error) {
	appts, err := s.store.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	if specialty == "" && status == "" {
		return appts, nil
	}
	filtered := appts[:0]
	for _, a := range appts {
		if specialty != "" && a.Specialty != specialty {
			continue
		}
		if status != "" && !strings.EqualFold(a.Status, status) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered, nil
}

// SpecialistPerformance aggregates appointments per specialty, sorted
// by total descending.
func (s *Service) SpecialistPerformance(ctx context.Context) ([]*SpecialtyStats, error) {
	appts, err := s.store.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	bySpecialty := make(map[string]*SpecialtyStats)
	patients := make(map[string]map[string]struct{})
	var order []string
	for _, a := range appts {
		stats, ok := bySpecialty[a.Specialty]
		if !ok {
			stats = &SpecialtyStats{Specialty: a.Specialty, Monthly: make(map[string]int)}
			bySpecialty[a.Specialty] = stats
			patients[a.Specialty] = make(map[string]struct{})
			order = append(order, a.Specialty)
		}
		stats.Total++
		switch a.Status {
		case StatusConfirmed:
			stats.Confirmed++
		case StatusCancelled:
			stats.Cancelled++
		}
		patients[a.Specialty][a.Username] = struct{}{}
		if d, err := a.DateValue(); err == nil {
			stats.Monthly[d.Format("2006-01")]++
		}
	}

	out := make([]*SpecialtyStats, 0, len(order))
	for _, specialty := range order {
		stats := bySpecialty[specialty]
		stats.UniquePatients = len(patients[specialty])
		if stats.Total > 0 {
			stats.ConfirmationRate = float64(stats.Confirmed) / float64(stats.Total) * 100
		}
		out = append(out, stats)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

// EnsureAdmin creates the default admin account when missing. The
// password must be rotated through MEDPULSE_AUTH settings in real
// deployments.
func (s *Service) EnsureAdmin(ctx context.Context, password string) error {
	_, err := s.store.UserByUsername(ctx, "admin")
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &User{
		ID:           uuid.New().String(),
		Username:     "admin",
		Email:        "admin@medicalcenter.com",
		PasswordHash: string(hash),
		Role:         RoleAdmin,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "default admin account created")
	return nil
}
