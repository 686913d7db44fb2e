package devimport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestFindScript(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.lua"), []byte("--"))
	writeFile(t, filepath.Join(dir, "modbus_v2.lua"), []byte("--"))
	writeFile(t, filepath.Join(dir, "modbus.lua"), []byte("--"))
	if err := os.Mkdir(filepath.Join(dir, "modbus_dir.lua"), 0o700); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	got, err := FindScript(dir, "")
	if err != nil {
		t.Fatalf("FindScript() error = %v", err)
	}
	if want := filepath.Join(dir, "modbus.lua"); got != want {
		t.Errorf("FindScript() = %q, want %q", got, want)
	}

	got, err = FindScript(dir, "readme*.lua")
	if err != nil {
		t.Fatalf("FindScript() error = %v", err)
	}
	if filepath.Base(got) != "readme.lua" {
		t.Errorf("FindScript() = %q, want readme.lua", got)
	}

	if _, err := FindScript(t.TempDir(), ""); !errors.Is(err, ErrNoScript) {
		t.Errorf("FindScript() on empty dir error = %v, want ErrNoScript", err)
	}
	if _, err := FindScript(dir, "[bad"); err == nil || errors.Is(err, ErrNoScript) {
		t.Errorf("FindScript() with bad pattern error = %v", err)
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modbus.lua")
	writeFile(t, path, append([]byte{0xEF, 0xBB, 0xBF}, "local bus = {}\n"...))

	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}
	if s.Name != "modbus.lua" || s.Text != "local bus = {}\n" {
		t.Errorf("LoadScript() = %+v", s)
	}

	if _, err := LoadScript(filepath.Join(dir, "absent.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadScript() error = %v, want os.ErrNotExist", err)
	}
}

func TestScriptFromBytes_InvalidUTF8(t *testing.T) {
	_, err := ScriptFromBytes("bad.lua", []byte{'-', '-', 0xff, 0xfe})
	if !errors.Is(err, ErrEncodingError) {
		t.Errorf("ScriptFromBytes() error = %v, want ErrEncodingError", err)
	}
}
