package history

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/mbconv/internal/infrastructure/config"
	"github.com/nerrad567/mbconv/internal/infrastructure/database"
	"github.com/nerrad567/mbconv/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := &Run{
		Source:        "cli",
		DeviceName:    "meter",
		ScriptName:    "modbus.lua",
		Transport:     "serial",
		Status:        StatusOK,
		PointCount:    3,
		EnabledPoints: 2,
		RequestCount:  2,
		Endian:        2,
		NoticeCount:   1,
		Duration:      1500 * time.Microsecond,
	}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(run.ID, "run-") {
		t.Errorf("ID = %q, want run- prefix", run.ID)
	}
	if run.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.DeviceName != "meter" || got.Status != StatusOK || got.Endian != 2 || got.Duration != run.Duration {
		t.Errorf("Get() = %+v", got)
	}
	if got.ErrorFields != nil {
		t.Errorf("ErrorFields = %v, want nil", got.ErrorFields)
	}
	if !got.CreatedAt.Equal(run.CreatedAt.Truncate(time.Microsecond)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
}

func TestSQLiteRepository_ErrorFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := &Run{
		Source:       "api",
		DeviceName:   "plc",
		Status:       StatusInvalid,
		ErrorKind:    "addrmap: invalid input",
		ErrorMessage: "required keys missing",
		ErrorFields:  []string{"points[3].address", "station"},
	}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got.ErrorFields, run.ErrorFields) {
		t.Errorf("ErrorFields = %v, want %v", got.ErrorFields, run.ErrorFields)
	}
}

func TestSQLiteRepository_GetNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), "run-missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Get() error = %v, want ErrRunNotFound", err)
	}
}

func TestSQLiteRepository_List(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seed := []Run{
		{Source: "cli", DeviceName: "a", Status: StatusOK, CreatedAt: base},
		{Source: "api", DeviceName: "b", Status: StatusInvalid, CreatedAt: base.Add(time.Minute)},
		{Source: "api", DeviceName: "a", Status: StatusOK, CreatedAt: base.Add(2 * time.Minute)},
		{Source: "cli", DeviceName: "c", Status: StatusError, CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name       string
		filter     Filter
		wantTotal  int
		wantDevs   []string
		wantLimit  int
		wantOffset int
	}{
		{
			name:      "all, newest first",
			filter:    Filter{},
			wantTotal: 4,
			wantDevs:  []string{"c", "a", "b", "a"},
			wantLimit: defaultLimit,
		},
		{
			name:      "by status",
			filter:    Filter{Status: StatusOK},
			wantTotal: 2,
			wantDevs:  []string{"a", "a"},
			wantLimit: defaultLimit,
		},
		{
			name:      "by device and source",
			filter:    Filter{DeviceName: "a", Source: "cli"},
			wantTotal: 1,
			wantDevs:  []string{"a"},
			wantLimit: defaultLimit,
		},
		{
			name:       "paged",
			filter:     Filter{Limit: 2, Offset: 1},
			wantTotal:  4,
			wantDevs:   []string{"a", "b"},
			wantLimit:  2,
			wantOffset: 1,
		},
		{
			name:      "limit clamped",
			filter:    Filter{Limit: 1000, Offset: -5},
			wantTotal: 4,
			wantDevs:  []string{"c", "a", "b", "a"},
			wantLimit: maxLimit,
		},
		{
			name:      "no match",
			filter:    Filter{DeviceName: "zzz"},
			wantTotal: 0,
			wantDevs:  []string{},
			wantLimit: defaultLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
			devs := make([]string, 0, len(res.Runs))
			for _, r := range res.Runs {
				devs = append(devs, r.DeviceName)
			}
			if !reflect.DeepEqual(devs, tt.wantDevs) {
				t.Errorf("devices = %v, want %v", devs, tt.wantDevs)
			}
			if res.Limit != tt.wantLimit || res.Offset != tt.wantOffset {
				t.Errorf("Limit/Offset = %d/%d, want %d/%d", res.Limit, res.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
