package devimport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/nerrad567/mbconv/internal/busconfig"
)

// DefaultScriptPattern matches the bus scripts shipped next to device
// descriptions.
const DefaultScriptPattern = "modbus*.lua"

// FindScript returns the first file in dir matching pattern, in lexical
// order. ErrNoScript is returned when nothing matches.
func FindScript(dir, pattern string) (string, error) {
	if pattern == "" {
		pattern = DefaultScriptPattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("script pattern %q: %w", pattern, err)
	}
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNoScript, pattern, dir)
}

// LoadScript reads a bus script. The script is named after the file and a
// leading UTF-8 byte order mark is dropped.
func LoadScript(path string) (busconfig.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return busconfig.Script{}, fmt.Errorf("reading script: %w", err)
	}
	return ScriptFromBytes(filepath.Base(path), data)
}

// ScriptFromBytes builds a script from its name and raw contents.
func ScriptFromBytes(name string, data []byte) (busconfig.Script, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return busconfig.Script{}, fmt.Errorf("%w: script %s is not UTF-8", ErrEncodingError, name)
	}
	return busconfig.Script{Name: name, Text: string(data)}, nil
}
