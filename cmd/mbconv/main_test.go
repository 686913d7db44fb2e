package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/mbconv/internal/addrmap"
	"github.com/nerrad567/mbconv/internal/infrastructure/config"
	"github.com/nerrad567/mbconv/internal/infrastructure/database"
)

const testDevice = `{
	"update_ms": 500,
	"offline_ms": 10000,
	"baudrate": 19200,
	"parity": "even",
	"ascii": false,
	"enable": true,
	"name": "boiler",
	"station": 7,
	"timeout_ms": 250,
	"byte_reverse": false,
	"integer_byte_reverse": false,
	"float_byte_reverse": false,
	"integer_little_endian": false,
	"float_little_endian": false,
	"group_bit": 64,
	"unused_bit": 8,
	"group_reg": 20,
	"unused_reg": 5,
	"points": [
		{"name": "flow_temp", "enable": true, "object_type": "ai", "address_type": "input",
		 "address": 4, "data_type": "s16", "offset": 0, "scale": 0.1},
		{"name": "burner", "enable": true, "object_type": "bi", "address_type": "discrete",
		 "address": 0}
	]
}`

// setupDir writes a device description and bus script into a temp dir and
// isolates the test from the caller's environment.
func setupDir(t *testing.T) string {
	t.Helper()
	t.Setenv("MBCONV_CONFIG", "")
	t.Setenv("MBCONV_DATABASE_PATH", "")
	t.Setenv("MBCONV_LOG_LEVEL", "error")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "boiler.json"), []byte(testDevice), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "modbus_rtu.lua"), []byte("-- rtu\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "mbconv dev") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"explode"}},
		{"compile without device", []string{"compile"}},
		{"unknown flag", []string{"compile", "-bogus"}},
		{"stray argument", []string{"history", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			if !errors.Is(err, errUsage) {
				t.Errorf("run() error = %v, want errUsage", err)
			}
			if stderr.Len() == 0 {
				t.Error("expected usage on stderr")
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"compile", "-h"}, &stdout, &stderr); err != nil {
		t.Errorf("run() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "-device") {
		t.Errorf("help output = %q", stderr.String())
	}
}

func TestRun_CompileToStdout(t *testing.T) {
	dir := setupDir(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"compile", "-device", filepath.Join(dir, "boiler.json")}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	out := stdout.Bytes()
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("expected byte order mark by default")
	}

	var bus map[string]any
	if err := json.Unmarshal(bytes.TrimPrefix(out, []byte{0xEF, 0xBB, 0xBF}), &bus); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if bus["resource"] != "RS485-1" || bus["baudrate"] != float64(19200) {
		t.Errorf("bus = %v", bus)
	}
	if _, ok := bus["script"].(map[string]any)["modbus_rtu.lua"]; !ok {
		t.Errorf("script = %v", bus["script"])
	}
}

func TestRun_CompileToFile(t *testing.T) {
	dir := setupDir(t)
	out := filepath.Join(dir, "bus.json")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"compile",
		"-device", filepath.Join(dir, "boiler.json"),
		"-script", filepath.Join(dir, "modbus_rtu.lua"),
		"-out", out,
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Contains(data, []byte(`"name":"boiler"`)) {
		t.Errorf("output missing device: %s", data)
	}
}

func TestRun_CompileValidationError(t *testing.T) {
	dir := setupDir(t)
	bad := strings.Replace(testDevice, `"station": 7,`, "", 1)
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "bus.json")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"compile", "-device", path, "-out", out}, &stdout, &stderr)

	var verr *addrmap.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("run() error = %v, want *addrmap.ValidationError", err)
	}
	if !strings.Contains(err.Error(), "station") {
		t.Errorf("error %q does not name the field", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output written for an invalid document")
	}
}

func TestRun_HistoryDisabled(t *testing.T) {
	setupDir(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"history"}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Errorf("run() error = %v", err)
	}
}

func TestRun_CompileRecordsHistory(t *testing.T) {
	dir := setupDir(t)
	t.Setenv("MBCONV_DATABASE_PATH", filepath.Join(dir, "data", "mbconv.db"))

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"compile", "-device", filepath.Join(dir, "boiler.json")}, &stdout, &stderr); err != nil {
		t.Fatalf("compile error = %v", err)
	}

	stdout.Reset()
	if err := run(context.Background(), []string{"history", "-limit", "5"}, &stdout, &stderr); err != nil {
		t.Fatalf("history error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"DEVICE", "boiler", "ok", "2/2", "1 of 1 runs"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigPathOrEnv(t *testing.T) {
	t.Setenv("MBCONV_CONFIG", "/etc/mbconv.yaml")

	if got := configPathOrEnv("local.yaml"); got != "local.yaml" {
		t.Errorf("flag value ignored: %q", got)
	}
	if got := configPathOrEnv(""); got != "/etc/mbconv.yaml" {
		t.Errorf("env fallback = %q", got)
	}
}

type stubCheck struct{ err error }

func (s stubCheck) HealthCheck(context.Context) error { return s.err }

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	a := &app{db: db}
	checks := a.healthChecks()
	if len(checks) != 1 || checks["database"] == nil {
		t.Fatalf("healthChecks() = %v, want database only", checks)
	}
	if err := healthCheck(ctx, checks); err != nil {
		t.Errorf("healthCheck() error = %v", err)
	}

	checks["mqtt"] = stubCheck{err: errors.New("not connected")}
	err = healthCheck(ctx, checks)
	if err == nil || !strings.HasPrefix(err.Error(), "mqtt:") {
		t.Errorf("healthCheck() error = %v, want mqtt failure", err)
	}
}

func TestHealthChecks_NoSinks(t *testing.T) {
	if checks := (&app{}).healthChecks(); len(checks) != 0 {
		t.Errorf("healthChecks() = %v, want none", checks)
	}
}
