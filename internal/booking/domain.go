// Package booking implements the appointment booking domain: user
// accounts, appointment scheduling and the specialist performance
// analytics the admin dashboard shows.
package booking

import (
	"errors"
	"time"
)

// Appointment statuses.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusPending   = "pending"
)

// Roles.
const (
	RoleAdmin   = "admin"
	RolePatient = "patient"
)

// Specialties lists the bookable specialties in display order.
var Specialties = []string{
	"Cardiology",
	"Dermatology",
	"Neurology",
	"Pediatrics",
	"Orthopedics",
}

// ValidSpecialty reports whether s is a bookable specialty.
func ValidSpecialty(s string) bool {
	for _, known := range Specialties {
		if known == s {
			return true
		}
	}
	return false
}

// DateLayout is the wire format for appointment dates.
const DateLayout = "2006-01-02"

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Appointment is one booked visit.
type Appointment struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Specialty string    `json:"specialty"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DateValue parses the appointment date.
func (a *Appointment) DateValue() (time.Time, error) {
	return time.Parse(DateLayout, a.Date)
}

// SpecialtyStats aggregates one specialty's appointments for the
// admin dashboard.
type SpecialtyStats struct {
	Specialty        string         `json:"specialty"`
	Total            int            `json:"total_appointments"`
	Confirmed        int            `json:"confirmed_appointments"`
	Cancelled        int            `json:"cancelled_appointments"`
	UniquePatients   int            `json:"unique_patients"`
	ConfirmationRate float64        `json:"confirmation_rate"`
	Monthly          map[string]int `json:"monthly_appointments"`
}

// Overview is the admin dashboard headline block.
type Overview struct {
	TotalUsers        int `json:"total_users"`
	TotalPatients     int `json:"total_patients"`
	TotalAppointments int `json:"total_appointments"`
	Confirmed         int `json:"confirmed_appointments"`
	Cancelled         int `json:"cancelled_appointments"`
	Specialties       int `json:"specialties"`
	UpcomingWeek      int `json:"upcoming_week"`
}

// Summary is the per-user appointment headline block.
type Summary struct {
	Total     int `json:"total"`
	Confirmed int `json:"confirmed"`
	Upcoming  int `json:"upcoming"`
}

// Store errors shared by all backends.
var (
	ErrUserNotFound        = errors.New("booking: user not found")
	ErrUsernameTaken       = errors.New("booking: username already exists")
	ErrEmailTaken          = errors.New("booking: email already registered")
	ErrAppointmentNotFound = errors.New("booking: appointment not found")
)
