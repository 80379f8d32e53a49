package booking

import "context"

// Store is the persistence boundary for users and appointments. Two
// backends implement it: the JSON file store and the BigQuery store.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	UserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)

	CreateAppointment(ctx context.Context, appt *Appointment) error
	AppointmentsByUser(ctx context.Context, username string) ([]*Appointment, error)
	ListAppointments(ctx context.Context) ([]*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id, status string) error
}
