package devimport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nerrad567/mbconv/internal/addrmap"
	"github.com/nerrad567/mbconv/internal/busconfig"
)

// MaxDocumentSize is the default size limit of a device description (1MB).
const MaxDocumentSize = 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser parses device description documents.
type Parser struct {
	maxSize int
}

// NewParser creates a parser that rejects documents larger than maxSize
// bytes. A non-positive maxSize selects MaxDocumentSize.
func NewParser(maxSize int) *Parser {
	if maxSize <= 0 {
		maxSize = MaxDocumentSize
	}
	return &Parser{maxSize: maxSize}
}

// MaxSize returns the size limit in bytes.
func (p *Parser) MaxSize() int {
	return p.maxSize
}

// ParseFile reads and parses a device description from disk.
func (p *Parser) ParseFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading device document: %w", err)
	}
	if info.Size() > int64(p.maxSize)+int64(len(utf8BOM)) {
		return nil, ErrDocumentTooLarge
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device document: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseReader reads at most the size limit from r and parses it.
func (p *Parser) ParseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(p.maxSize)+int64(len(utf8BOM))+1))
	if err != nil {
		return nil, fmt.Errorf("reading device document: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes parses a device description. A leading UTF-8 byte order mark is
// ignored.
//
// Missing or mistyped keys are reported as a *addrmap.ValidationError of
// kind addrmap.ErrInvalidInput listing every offending field.
func (p *Parser) ParseBytes(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(data) > p.maxSize {
		return nil, ErrDocumentTooLarge
	}
	if t := bytes.TrimLeft(data, " \t\r\n"); len(t) == 0 || t[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidDocument)
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeError(err, "")
	}
	return raw.document()
}

// decodeError maps a json decoding failure onto a validation error naming
// the field, or ErrInvalidDocument for malformed JSON.
func decodeError(err error, prefix string) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return addrmap.Invalid(addrmap.ErrInvalidInput,
			fmt.Sprintf("%s must be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
			prefix+typeErr.Field)
	}
	return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
}

// missing collects the names of required keys that are absent.
type missing []string

func (m *missing) check(present bool, field string) {
	if !present {
		*m = append(*m, field)
	}
}

func (m missing) err(prefix string) error {
	if len(m) == 0 {
		return nil
	}
	fields := make([]string, len(m))
	for i, f := range m {
		fields[i] = prefix + f
	}
	return addrmap.Invalid(addrmap.ErrInvalidInput, "required keys missing", fields...)
}

func (r *rawDocument) document() (*Document, error) {
	var m missing
	m.check(r.UpdateMs != nil, "update_ms")
	m.check(r.OfflineMs != nil, "offline_ms")
	if r.BaudRate != nil {
		m.check(len(r.Parity) > 0, "parity")
		m.check(r.ASCII != nil, "ascii")
	}
	m.check(r.Enable != nil, "enable")
	m.check(r.Name != nil, "name")
	m.check(r.Station != nil, "station")
	m.check(r.TimeoutMs != nil, "timeout_ms")
	m.check(r.ByteReverse != nil, "byte_reverse")
	m.check(r.IntegerByteReverse != nil, "integer_byte_reverse")
	m.check(r.FloatByteReverse != nil, "float_byte_reverse")
	m.check(r.IntegerLittleEndian != nil, "integer_little_endian")
	m.check(r.FloatLittleEndian != nil, "float_little_endian")
	m.check(r.GroupBit != nil, "group_bit")
	m.check(r.UnusedBit != nil, "unused_bit")
	m.check(r.GroupReg != nil, "group_reg")
	m.check(r.UnusedReg != nil, "unused_reg")
	m.check(r.Points != nil, "points")
	if err := m.err(""); err != nil {
		return nil, err
	}

	doc := &Document{
		Settings: busconfig.Settings{
			UpdateMs:  *r.UpdateMs,
			OfflineMs: *r.OfflineMs,
			Device: busconfig.Device{
				Enable:          *r.Enable,
				Name:            *r.Name,
				Description:     r.Description,
				Instance:        r.Instance,
				Station:         *r.Station,
				TimeoutMs:       *r.TimeoutMs,
				SingleWriteCoil: r.SingleWriteCoil,
				SingleWriteReg:  r.SingleWriteReg,
			},
		},
		Input: addrmap.Input{
			Thresholds: addrmap.Thresholds{
				GroupBit:  *r.GroupBit,
				UnusedBit: *r.UnusedBit,
				GroupReg:  *r.GroupReg,
				UnusedReg: *r.UnusedReg,
			},
			ByteOrder: addrmap.ByteOrderFlags{
				ByteReverse:         *r.ByteReverse,
				IntegerByteReverse:  *r.IntegerByteReverse,
				FloatByteReverse:    *r.FloatByteReverse,
				IntegerLittleEndian: *r.IntegerLittleEndian,
				FloatLittleEndian:   *r.FloatLittleEndian,
			},
		},
	}

	if r.BaudRate != nil {
		line, err := r.serialLine()
		if err != nil {
			return nil, err
		}
		doc.Settings.Serial = line
	}

	doc.Input.Points = make([]addrmap.Point, 0, len(*r.Points))
	for i, data := range *r.Points {
		pt, err := parsePoint(data, fmt.Sprintf("points[%d].", i))
		if err != nil {
			return nil, err
		}
		doc.Input.Points = append(doc.Input.Points, pt)
	}
	return doc, nil
}

func (r *rawDocument) serialLine() (*busconfig.SerialLine, error) {
	if *r.BaudRate <= 0 {
		return nil, addrmap.Invalid(addrmap.ErrInvalidInput,
			fmt.Sprintf("baud rate %d must be positive", *r.BaudRate), "baudrate")
	}
	if _, err := busconfig.ParseParity(r.Parity); err != nil {
		return nil, addrmap.Invalid(addrmap.ErrInvalidInput, err.Error(), "parity")
	}
	return &busconfig.SerialLine{
		BaudRate: *r.BaudRate,
		Parity:   r.Parity,
		ASCII:    *r.ASCII,
	}, nil
}

func parsePoint(data json.RawMessage, prefix string) (addrmap.Point, error) {
	if t := bytes.TrimSpace(data); len(t) == 0 || t[0] != '{' {
		return nil, addrmap.Invalid(addrmap.ErrInvalidInput, "point must be a JSON object", prefix[:len(prefix)-1])
	}

	var rp rawPoint
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, decodeError(err, prefix)
	}

	var m missing
	m.check(rp.Name != nil, "name")
	m.check(rp.Enable != nil, "enable")
	m.check(rp.ObjectType != nil, "object_type")
	m.check(rp.AddressType != nil, "address_type")
	m.check(rp.Address != nil, "address")
	if rp.ObjectType != nil && addrmap.ObjectType(*rp.ObjectType).Kind() == addrmap.KindAnalog {
		m.check(rp.DataType != nil, "data_type")
	}
	if err := m.err(prefix); err != nil {
		return nil, err
	}

	ot := addrmap.ObjectType(*rp.ObjectType)
	if err := ot.Validate(); err != nil {
		var verr *addrmap.ValidationError
		if errors.As(err, &verr) {
			return nil, verr.WithPrefix(prefix)
		}
		return nil, err
	}

	h := addrmap.PointHeader{
		Name:            *rp.Name,
		Description:     rp.Description,
		Instance:        rp.Instance,
		Enable:          *rp.Enable,
		ObjectType:      ot,
		AddressType:     addrmap.AddressType(*rp.AddressType),
		Address:         *rp.Address,
		OutputTolerance: rp.OutputTolerance,
	}

	switch ot.Kind() {
	case addrmap.KindBinary:
		return &addrmap.BinaryPoint{
			PointHeader: h,
			Polarity:    rp.Polarity,
			BitOffset:   rp.BitOffset,
			StateTexts:  rp.StateTexts,
		}, nil
	case addrmap.KindAnalog:
		return &addrmap.AnalogPoint{
			PointHeader:  h,
			DataType:     addrmap.DataType(*rp.DataType),
			Unit:         rp.Unit,
			CovIncrement: rp.CovIncrement,
			Offset:       rp.Offset,
			Scale:        rp.Scale,
			BitOffset:    rp.BitOffset,
			BitLen:       rp.BitLen,
		}, nil
	default:
		return &addrmap.MultistatePoint{
			PointHeader: h,
			RegNum:      rp.RegNum,
			BitOffset:   rp.BitOffset,
			BitLen:      rp.BitLen,
			StateTexts:  rp.StateTexts,
			StateValues: rp.StateValues,
		}, nil
	}
}
