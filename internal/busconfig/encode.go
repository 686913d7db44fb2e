package busconfig

import (
	"encoding/json"
	"fmt"
	"io"
)

// utf8BOM is written ahead of the document when requested; the controller's
// import dialog expects it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encode writes the bus object as JSON, optionally prefixed with a UTF-8
// byte order mark.
func Encode(w io.Writer, bus *BusConfig, bom bool) error {
	if bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("writing byte order mark: %w", err)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(bus); err != nil {
		return fmt.Errorf("encoding bus config: %w", err)
	}
	return nil
}
