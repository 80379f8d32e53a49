// Package exporter renders tabular API data as CSV downloads.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"medpulse/internal/booking"
)

// utf8BOM keeps Excel from misreading the encoding of downloads.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures CSV rendering.
type Options struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// Write renders one CSV document to w.
func Write(w io.Writer, opts Options) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	cw := csv.NewWriter(w)
	if len(opts.Headers) > 0 {
		if err := cw.Write(opts.Headers); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, record := range opts.Records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// AppointmentHeaders is the column order of appointment exports.
var AppointmentHeaders = []string{
	"id", "username", "name", "email", "specialty",
	"date", "time", "status", "reason", "created_at",
}

// Appointments writes the appointment list as a CSV document with a
// UTF-8 BOM for Excel.
func Appointments(w io.Writer, appts []*booking.Appointment) error {
	records := make([][]string, 0, len(appts))
	for _, a := range appts {
		records = append(records, []string{
			a.ID, a.Username, a.Name, a.Email, a.Specialty,
			a.Date, a.Time, a.Status, a.Reason,
			a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return Write(w, Options{
		Headers:   AppointmentHeaders,
		Records:   records,
		BOMPrefix: true,
	})
}
