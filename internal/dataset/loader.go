package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load reads a delimited text file into a cleaned Frame.
//
// Cleaning follows the dropna discipline: any row with a blank value in
// a declared column is discarded, as is any row whose Yes/No binary
// column holds something other than Yes or No. A numeric or date value
// that is present but unparsable is a hard error — the file does not
// match the schema and continuing would only move the failure deeper
// into the aggregation.
func Load(path string, schema Schema, logger *slog.Logger) (*Frame, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	frame, dropped, err := load(file, schema)
	if err != nil {
		return nil, err
	}

	logger.Info("dataset loaded",
		slog.String("path", path),
		slog.Int("rows", frame.Len()),
		slog.Int("dropped_rows", dropped),
		slog.Int("columns", len(frame.Columns())))

	return frame, nil
}

func load(r io.Reader, schema Schema) (*Frame, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range schema.Columns {
		if _, ok := index[col.Name]; !ok {
			return nil, 0, &SchemaError{Column: col.Name, Reason: "not present in input header"}
		}
	}

	frame := &Frame{
		schema:  schema,
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
		dates:   make(map[string][]time.Time),
		kinds:   make(map[string]Kind),
	}
	for _, col := range schema.Columns {
		frame.kinds[col.Name] = col.Kind
		frame.order = append(frame.order, col.Name)
		switch col.Kind {
		case KindString:
			frame.text[col.Name] = nil
		case KindDate:
			frame.dates[col.Name] = nil
		default:
			frame.numeric[col.Name] = nil
		}
	}

	dropped := 0
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row %d: %w", line, err)
		}

		row, ok, err := parseRow(record, index, schema, line)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			dropped++
			continue
		}
		for _, col := range schema.Columns {
			switch col.Kind {
			case KindString:
				frame.text[col.Name] = append(frame.text[col.Name], row.text[col.Name])
			case KindDate:
				frame.dates[col.Name] = append(frame.dates[col.Name], row.dates[col.Name])
			default:
				frame.numeric[col.Name] = append(frame.numeric[col.Name], row.numeric[col.Name])
			}
		}
		frame.rows++
	}

	deriveProducts(frame, schema)
	deriveCalendar(frame, schema)

	return frame, dropped, nil
}

// parsedRow holds one fully parsed input row before it is appended to
// the frame columns.
type parsedRow struct {
	numeric map[string]float64
	text    map[string]string
	dates   map[string]time.Time
}

// parseRow parses a single record. The bool result is false when the
// row must be dropped (missing value or unmappable Yes/No).
func parseRow(record []string, index map[string]int, schema Schema, line int) (parsedRow, bool, error) {
	row := parsedRow{
		numeric: make(map[string]float64),
		text:    make(map[string]string),
		dates:   make(map[string]time.Time),
	}
	for _, col := range schema.Columns {
		i := index[col.Name]
		if i >= len(record) {
			return row, false, nil
		}
		raw := strings.TrimSpace(record[i])
		if raw == "" {
			return row, false, nil
		}
		switch col.Kind {
		case KindString:
			row.text[col.Name] = raw
		case KindBinary:
			switch strings.ToLower(raw) {
			case "yes":
				row.numeric[col.Name] = 1
			case "no":
				row.numeric[col.Name] = 0
			default:
				return row, false, nil
			}
		case KindInt:
			v, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
			if err != nil {
				return row, false, &SchemaError{Column: col.Name, Reason: fmt.Sprintf("row %d: %q is not an integer", line, raw)}
			}
			row.numeric[col.Name] = float64(v)
		case KindFloat:
			v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
			if err != nil {
				return row, false, &SchemaError{Column: col.Name, Reason: fmt.Sprintf("row %d: %q is not a number", line, raw)}
			}
			row.numeric[col.Name] = v
		case KindDate:
			v, err := time.Parse(schema.DateLayout, raw)
			if err != nil {
				return row, false, &SchemaError{Column: col.Name, Reason: fmt.Sprintf("row %d: %q does not match layout %s", line, raw, schema.DateLayout)}
			}
			row.dates[col.Name] = v
		default:
			return row, false, &SchemaError{Column: col.Name, Reason: fmt.Sprintf("unknown kind %q", col.Kind)}
		}
	}
	return row, true, nil
}

func deriveProducts(frame *Frame, schema Schema) {
	for _, p := range schema.Products {
		left := frame.numeric[p.Left]
		right := frame.numeric[p.Right]
		vals := make([]float64, frame.rows)
		for i := range vals {
			vals[i] = left[i] * right[i]
		}
		frame.addNumeric(p.Name, vals)
	}
}

func deriveCalendar(frame *Frame, schema Schema) {
	if schema.DateColumn == "" {
		return
	}
	dates := frame.dates[schema.DateColumn]
	years := make([]float64, frame.rows)
	months := make([]float64, frame.rows)
	quarters := make([]float64, frame.rows)
	weekdays := make([]string, frame.rows)
	for i, d := range dates {
		years[i] = float64(d.Year())
		months[i] = float64(d.Month())
		quarters[i] = float64((int(d.Month())-1)/3 + 1)
		weekdays[i] = d.Weekday().String()
	}
	frame.addNumeric(DerivedYear, years)
	frame.addNumeric(DerivedMonth, months)
	frame.addNumeric(DerivedQuarter, quarters)
	frame.addText(DerivedDayOfWeek, weekdays)
}
