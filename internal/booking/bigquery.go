package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"medpulse/internal/config"
)

const (
	usersTable        = "users"
	appointmentsTable = "appointments"
)

// BigQueryStore persists accounts and appointments in BigQuery. Every
// query is parameterized; user input never reaches the SQL text.
type BigQueryStore struct {
	client       *bigquery.Client
	dataset      string
	queryTimeout time.Duration
}

// NewBigQueryStore opens a client against the configured project.
func NewBigQueryStore(ctx context.Context, cfg config.BigQueryConfig) (*BigQueryStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &BigQueryStore{
		client:       client,
		dataset:      cfg.Dataset,
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

// Close releases the underlying client.
func (s *BigQueryStore) Close() error { return s.client.Close() }

func (s *BigQueryStore) table(name string) string {
	return fmt.Sprintf("`%s.%s`", s.dataset, name)
}

func (s *BigQueryStore) query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	q := s.client.Query(sql)
	q.Parameters = params
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery query: %w", err)
	}
	return it, nil
}

type userRow struct {
	ID           string    `bigquery:"id"`
	Username     string    `bigquery:"username"`
	Email        string    `bigquery:"email"`
	PasswordHash string    `bigquery:"password_hash"`
	Role         string    `bigquery:"role"`
	CreatedAt    time.Time `bigquery:"created_at"`
}

func (r userRow) toUser() *User {
	return &User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
		CreatedAt:    r.CreatedAt,
	}
}

type appointmentRow struct {
	ID        string    `bigquery:"id"`
	Username  string    `bigquery:"username"`
	Name      string    `bigquery:"name"`
	Email     string    `bigquery:"email"`
	Specialty string    `bigquery:"specialty"`
	Date      string    `bigquery:"date"`
	Time      string    `bigquery:"time"`
	Reason    string    `bigquery:"reason"`
	Status    string    `bigquery:"status"`
	CreatedAt time.Time `bigquery:"created_at"`
}

func (r appointmentRow) toAppointment() *Appointment {
	return &Appointment{
		ID:        r.ID,
		Username:  r.Username,
		Name:      r.Name,
		Email:     r.Email,
		Specialty: r.Specialty,
		Date:      r.Date,
		Time:      r.Time,
		Reason:    r.Reason,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

// CreateUser inserts the account after checking username and email
// uniqueness.
func (s *BigQueryStore) CreateUser(ctx context.Context, user *User) error {
	sql := fmt.Sprintf(`SELECT username, email FROM %s
		WHERE username = @username OR LOWER(email) = LOWER(@email)
		LIMIT 1`, s.table(usersTable))
	it, err := s.query(ctx, sql, []bigquery.QueryParameter{
		{Name: "username", Value: user.Username},
		{Name: "email", Value: user.Email},
	})
	if err != nil {
		return err
	}
	var existing userRow
	switch err := it.Next(&existing); {
	case err == nil:
		if existing.Username == user.Username {
			return ErrUsernameTaken
		}
		return ErrEmailTaken
	case errors.Is(err, iterator.Done):
	default:
		return fmt.Errorf("bigquery scan: %w", err)
	}

	ins := s.client.Dataset(s.dataset).Table(usersTable).Inserter()
	row := userRow{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt,
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := ins.Put(ctx, row); err != nil {
		return fmt.Errorf("bigquery insert user: %w", err)
	}
	return nil
}

// UserByUsername fetches one account.
func (s *BigQueryStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	sql := fmt.Sprintf(`SELECT id, username, email, password_hash, role, created_at
		FROM %s WHERE username = @username LIMIT 1`, s.table(usersTable))
	it, err := s.query(ctx, sql, []bigquery.QueryParameter{
		{Name: "username", Value: username},
	})
	if err != nil {
		return nil, err
	}
	var row userRow
	if err := it.Next(&row); err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("bigquery scan: %w", err)
	}
	return row.toUser(), nil
}

// ListUsers returns all accounts ordered by username.
func (s *BigQueryStore) ListUsers(ctx context.Context) ([]*User, error) {
	sql := fmt.Sprintf(`SELECT id, username, email, password_hash, role, created_at
		FROM %s ORDER BY username`, s.table(usersTable))
	it, err := s.query(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	var users []*User
	for {
		var row userRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery scan: %w", err)
		}
		users = append(users, row.toUser())
	}
	return users, nil
}

// CreateAppointment inserts the appointment for an existing user.
func (s *BigQueryStore) CreateAppointment(ctx context.Context, appt *Appointment) error {
	if _, err := s.UserByUsername(ctx, appt.Username); err != nil {
		return err
	}

	ins := s.client.Dataset(s.dataset).Table(appointmentsTable).Inserter()
	row := appointmentRow{
		ID:        appt.ID,
		Username:  appt.Username,
		Name:      appt.Name,
		Email:     appt.Email,
		Specialty: appt.Specialty,
		Date:      appt.Date,
		Time:      appt.Time,
		Reason:    appt.Reason,
		Status:    appt.Status,
		CreatedAt: appt.CreatedAt,
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := ins.Put(ctx, row); err != nil {
		return fmt.Errorf("bigquery insert appointment: %w", err)
	}
	return nil
}

// AppointmentsByUser lists one user's appointments.
func (s *BigQueryStore) AppointmentsByUser(ctx context.Context, username string) ([]*Appointment, error) {
	sql := fmt.Sprintf(`SELECT id, username, name, email, specialty, date, time, reason, status, created_at
		FROM %s WHERE username = @username ORDER BY date`, s.table(appointmentsTable))
	it, err := s.query(ctx, sql, []bigquery.QueryParameter{
		{Name: "username", Value: username},
	})
	if err != nil {
		return nil, err
	}
	return collectAppointments(it)
}

// ListAppointments lists every appointment ordered by creation time.
func (s *BigQueryStore) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	sql := fmt.Sprintf(`SELECT id, username, name, email, specialty, date, time, reason, status, created_at
		FROM %s ORDER BY created_at`, s.table(appointmentsTable))
	it, err := s.query(ctx, sql, nil)
	if err != nil {
		return nil, err
	}
	return collectAppointments(it)
}

// UpdateAppointmentStatus rewrites the status of one appointment.
func (s *BigQueryStore) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	sql := fmt.Sprintf(`UPDATE %s SET status = @status WHERE id = @id`, s.table(appointmentsTable))
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	q := s.client.Query(sql)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "id", Value: id},
	}
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("bigquery update: %w", err)
	}
	st, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("bigquery update wait: %w", err)
	}
	if st.Err() != nil {
		return fmt.Errorf("bigquery update: %w", st.Err())
	}
	stats, ok := st.Statistics.Details.(*bigquery.QueryStatistics)
	if ok && stats.NumDMLAffectedRows == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func collectAppointments(it *bigquery.RowIterator) ([]*Appointment, error) {
	var appts []*Appointment
	for {
		var row appointmentRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery scan: %w", err)
		}
		appts = append(appts, row.toAppointment())
	}
	return appts, nil
}
