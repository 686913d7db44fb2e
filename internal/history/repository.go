// Package history records compile runs in the compile_runs table so an
// integrator can see what was generated, from which device description, and
// why a compile was rejected.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("compile run not found")

// Status is the outcome of a compile run.
type Status string

// Run outcomes.
const (
	StatusOK      Status = "ok"
	StatusInvalid Status = "invalid" // rejected by validation
	StatusError   Status = "error"   // failed for any other reason
)

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// timeFormat sorts lexically in chronological order.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// Run is one compile of a device description.
type Run struct {
	ID         string `json:"id"`
	Source     string `json:"source"` // cli or api
	DeviceName string `json:"device_name"`
	ScriptName string `json:"script_name"`
	Transport  string `json:"transport,omitempty"`
	Status     Status `json:"status"`

	ErrorKind    string   `json:"error_kind,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	ErrorFields  []string `json:"error_fields,omitempty"`

	PointCount    int `json:"point_count"`
	EnabledPoints int `json:"enabled_points"`
	RequestCount  int `json:"request_count"`
	Endian        int `json:"endian,omitempty"`
	NoticeCount   int `json:"notice_count"`

	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// Filter controls which runs to return.
type Filter struct {
	Status     Status // optional
	DeviceName string // optional
	Source     string // optional
	Limit      int    // default 50, max 200
	Offset     int
}

// ListResult contains a page of runs.
type ListResult struct {
	Runs   []Run `json:"runs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Repository defines the run history operations.
type Repository interface {
	Create(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores runs in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a run repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a run. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = "run-" + uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	fields := run.ErrorFields
	if fields == nil {
		fields = []string{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshalling error fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO compile_runs (id, source, device_name, script_name, transport, status,
		   error_kind, error_message, error_fields,
		   point_count, enabled_points, request_count, endian, notice_count,
		   duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.DeviceName, run.ScriptName, run.Transport, string(run.Status),
		run.ErrorKind, run.ErrorMessage, string(fieldsJSON),
		run.PointCount, run.EnabledPoints, run.RequestCount, run.Endian, run.NoticeCount,
		run.Duration.Microseconds(), run.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting compile run: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, source, device_name, script_name, transport, status,
	error_kind, error_message, error_fields,
	point_count, enabled_points, request_count, endian, notice_count,
	duration_us, created_at FROM compile_runs`

// Get returns the run with the given ID, or ErrRunNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns runs matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DeviceName != "" {
		conditions = append(conditions, "device_name = ?")
		args = append(args, filter.DeviceName)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM compile_runs"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting compile runs: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		selectColumns+where+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		append(args, filter.Limit, filter.Offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying compile runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating compile runs: %w", err)
	}

	return &ListResult{
		Runs:   runs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run        Run
		status     string
		fieldsJSON string
		durationUs int64
		createdAt  string
	)
	err := s.Scan(&run.ID, &run.Source, &run.DeviceName, &run.ScriptName, &run.Transport, &status,
		&run.ErrorKind, &run.ErrorMessage, &fieldsJSON,
		&run.PointCount, &run.EnabledPoints, &run.RequestCount, &run.Endian, &run.NoticeCount,
		&durationUs, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning compile run: %w", err)
	}

	run.Status = Status(status)
	run.Duration = time.Duration(durationUs) * time.Microsecond
	if fieldsJSON != "" && fieldsJSON != "[]" {
		if err := json.Unmarshal([]byte(fieldsJSON), &run.ErrorFields); err != nil {
			return nil, fmt.Errorf("decoding error fields of %s: %w", run.ID, err)
		}
	}
	run.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing compile run timestamp %q: %w", createdAt, err)
	}
	return &run, nil
}
