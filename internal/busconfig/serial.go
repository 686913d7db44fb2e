package busconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// ErrInvalidParity is returned when a parity value names no known setting.
var ErrInvalidParity = errors.New("busconfig: invalid parity")

// Character lengths used to derive the inter-frame silence.
const (
	// rtuCharBits is one RTU character: start, 8 data, parity, stop.
	rtuCharBits = 11

	// asciiCharBits is one ASCII character: start, 7 data, parity, stop.
	asciiCharBits = 10

	// rtuSilenceChars is the 3.5 character gap that ends an RTU frame.
	rtuSilenceChars = 3.5

	// asciiSilenceChars is the gap the runtime waits for in ASCII mode.
	asciiSilenceChars = 6
)

var parityNames = map[string]serial.Parity{
	"n":     serial.NoParity,
	"none":  serial.NoParity,
	"o":     serial.OddParity,
	"odd":   serial.OddParity,
	"e":     serial.EvenParity,
	"even":  serial.EvenParity,
	"m":     serial.MarkParity,
	"mark":  serial.MarkParity,
	"s":     serial.SpaceParity,
	"space": serial.SpaceParity,
}

// ParseParity interprets a parity value from a device description. Both the
// runtime's numeric codes (0 none, 1 odd, 2 even, 3 mark, 4 space) and the
// usual names or their first letter are accepted.
func ParseParity(raw json.RawMessage) (serial.Parity, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing", ErrInvalidParity)
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < int(serial.NoParity) || n > int(serial.SpaceParity) {
			return 0, fmt.Errorf("%w: code %d", ErrInvalidParity, n)
		}
		return serial.Parity(n), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidParity, raw)
	}
	p, ok := parityNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidParity, s)
	}
	return p, nil
}

// Mode returns the line settings as a serial port mode.
func (l *SerialLine) Mode() (*serial.Mode, error) {
	parity, err := ParseParity(l.Parity)
	if err != nil {
		return nil, err
	}
	dataBits := 8
	if l.ASCII {
		dataBits = 7
	}
	return &serial.Mode{
		BaudRate: l.BaudRate,
		DataBits: dataBits,
		Parity:   parity,
		StopBits: serial.OneStopBit,
	}, nil
}

// FrameMs returns the silent interval in milliseconds that delimits a frame
// at the line's baud rate.
func (l *SerialLine) FrameMs() float64 {
	if l.BaudRate <= 0 {
		return 0
	}
	if l.ASCII {
		return 1000 / float64(l.BaudRate) * asciiCharBits * asciiSilenceChars
	}
	return 1000 / float64(l.BaudRate) * rtuCharBits * rtuSilenceChars
}
