package addrmap

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FuncCode is the Modbus read function a span is fetched with.
type FuncCode int

// Read function codes.
const (
	FuncReadCoils            FuncCode = 1
	FuncReadDiscreteInputs   FuncCode = 2
	FuncReadHoldingRegisters FuncCode = 3
	FuncReadInputRegisters   FuncCode = 4
)

// IsBit reports whether spans of this function are measured in bits.
func (fc FuncCode) IsBit() bool {
	return fc <= FuncReadDiscreteInputs
}

// IsWritable reports whether the address class can also be written
// (coils and holding registers).
func (fc FuncCode) IsWritable() bool {
	return fc == FuncReadCoils || fc == FuncReadHoldingRegisters
}

func (fc FuncCode) String() string {
	switch fc {
	case FuncReadCoils:
		return "read coils"
	case FuncReadDiscreteInputs:
		return "read discrete inputs"
	case FuncReadHoldingRegisters:
		return "read holding registers"
	case FuncReadInputRegisters:
		return "read input registers"
	default:
		return "unknown function code"
	}
}

// AddressType is the Modbus table a point lives in, as written in the
// device description.
type AddressType string

// Address types.
const (
	AddressHolding  AddressType = "holding"
	AddressInput    AddressType = "input"
	AddressCoil     AddressType = "coil"
	AddressDiscrete AddressType = "discrete"
)

// FuncCode returns the read function for the address type. Anything that is
// not holding, input or coil is read as a discrete input.
func (a AddressType) FuncCode() FuncCode {
	switch a {
	case AddressHolding:
		return FuncReadHoldingRegisters
	case AddressInput:
		return FuncReadInputRegisters
	case AddressCoil:
		return FuncReadCoils
	default:
		return FuncReadDiscreteInputs
	}
}

// ObjectKind is the first character of an object type.
type ObjectKind byte

// Object kinds.
const (
	KindBinary     ObjectKind = 'b'
	KindAnalog     ObjectKind = 'a'
	KindMultistate ObjectKind = 'm'
)

func (k ObjectKind) String() string {
	switch k {
	case KindBinary:
		return "binary"
	case KindAnalog:
		return "analog"
	case KindMultistate:
		return "multistate"
	default:
		return "unknown"
	}
}

// ValueKind is the second character of an object type.
type ValueKind byte

// Value kinds.
const (
	ValueValue  ValueKind = 'v'
	ValueOutput ValueKind = 'o'
	ValueInput  ValueKind = 'i'
)

// ObjectType is the two-character object type code, e.g. "av" for an analog
// value or "bo" for a binary output.
type ObjectType string

// Kind returns the object kind, or 0 when the code is malformed.
func (t ObjectType) Kind() ObjectKind {
	if len(t) != 2 {
		return 0
	}
	return ObjectKind(t[0])
}

// ValueKind returns the value kind, or 0 when the code is malformed.
func (t ObjectType) ValueKind() ValueKind {
	if len(t) != 2 {
		return 0
	}
	return ValueKind(t[1])
}

// Validate checks the object type is one of the supported codes.
func (t ObjectType) Validate() error {
	if len(t) != 2 {
		return Invalid(ErrUnsupportedPoint, fmt.Sprintf("object type %q must be two characters", string(t)), "object_type")
	}
	switch t.Kind() {
	case KindBinary, KindAnalog, KindMultistate:
	default:
		return Invalid(ErrUnsupportedPoint, fmt.Sprintf("object type %q: unknown kind %q", string(t), t[0]), "object_type")
	}
	switch t.ValueKind() {
	case ValueValue, ValueOutput, ValueInput:
	default:
		return Invalid(ErrUnsupportedPoint, fmt.Sprintf("object type %q: unknown value kind %q", string(t), t[1]), "object_type")
	}
	return nil
}

// DataType is the encoding tag of an analog value: u/s/f followed by the bit
// width, or o followed by the width for encodings that need a script.
type DataType string

// Data type aliases accepted in device descriptions.
const (
	DataTypeFloatAlias  DataType = "float"
	DataTypeDoubleAlias DataType = "double"
	DataTypeF32         DataType = "f32"
	DataTypeF64         DataType = "f64"
	DataTypeU32         DataType = "u32"
)

// maxDataTypeWidth bounds the width of any data type to what one register
// read request can carry (125 registers).
const maxDataTypeWidth = 125 * 16

// Normalize maps the float and double aliases onto their width tags.
func (d DataType) Normalize() DataType {
	switch d {
	case DataTypeFloatAlias:
		return DataTypeF32
	case DataTypeDoubleAlias:
		return DataTypeF64
	default:
		return d
	}
}

// Width returns the bit width of a normalized data type.
func (d DataType) Width() (int, error) {
	if len(d) < 2 {
		return 0, fmt.Errorf("data type %q has no width", string(d))
	}
	switch d[0] {
	case 'u', 's', 'f', 'o':
	default:
		return 0, fmt.Errorf("data type %q: unknown encoding %q", string(d), d[0])
	}
	w, err := strconv.Atoi(string(d[1:]))
	if err != nil || w <= 0 || w > maxDataTypeWidth {
		return 0, fmt.Errorf("data type %q: invalid width", string(d))
	}
	if d[0] == 'f' && w != 32 && w != 64 {
		return 0, fmt.Errorf("data type %q: floats are 32 or 64 bits", string(d))
	}
	return w, nil
}

// Registers returns the number of 16-bit registers the type occupies.
func (d DataType) Registers() (int, error) {
	w, err := d.Width()
	if err != nil {
		return 0, err
	}
	return (w + 15) / 16, nil
}

// IsOther reports whether the encoding is not understood by the master and
// must be translated by the bus script.
func (d DataType) IsOther() bool {
	return len(d) > 0 && d[0] == 'o'
}

// IsFloat reports whether the type is an IEEE float.
func (d DataType) IsFloat() bool {
	return len(d) > 0 && d[0] == 'f'
}

// PointHeader holds the fields common to every point kind.
type PointHeader struct {
	Name        string
	Description string
	Instance    int
	Enable      bool
	ObjectType  ObjectType
	AddressType AddressType

	// Address is the 0-based register or bit address.
	Address int

	// OutputTolerance suppresses write-back mismatch errors on outputs.
	OutputTolerance bool
}

// Point is one data point of a device description. It is implemented by
// *BinaryPoint, *AnalogPoint and *MultistatePoint.
type Point interface {
	header() *PointHeader
}

func (h *PointHeader) header() *PointHeader { return h }

// BinaryPoint is a single bit, stored either natively (coil, discrete input)
// or inside a register.
type BinaryPoint struct {
	PointHeader

	// Polarity is passed through to the descriptor untouched.
	Polarity json.RawMessage

	// BitOffset locates the bit when the point is stored in a register.
	BitOffset *int

	StateTexts []string
}

// AnalogPoint is a numeric value spanning one or more registers.
type AnalogPoint struct {
	PointHeader

	DataType     DataType
	Unit         string
	CovIncrement json.Number
	Offset       json.Number
	Scale        json.Number
	BitOffset    *int
	BitLen       *int
}

// MultistatePoint is an enumerated value.
type MultistatePoint struct {
	PointHeader

	// RegNum is the declared register count; more than one selects a
	// 32-bit unsigned encoding.
	RegNum      *int
	BitOffset   *int
	BitLen      *int
	StateTexts  []string
	StateValues []int
}

// AddressSpan is the storage one point occupies. Length is in bits for
// function codes 1 and 2 and in registers for 3 and 4.
type AddressSpan struct {
	FuncCode FuncCode
	Start    int
	Length   int
}

// End returns the first address after the span.
func (s AddressSpan) End() int { return s.Start + s.Length }

// ReadRequest is one planned protocol read.
type ReadRequest struct {
	FuncCode FuncCode
	Start    int
	Length   int
}

// End returns the first address after the request.
func (r ReadRequest) End() int { return r.Start + r.Length }

func (r ReadRequest) String() string {
	return fmt.Sprintf("{%d, %d, %d}", r.FuncCode, r.Start, r.Length)
}

// RegisterClassUsage records which register-width classes a device uses.
// Only enabled points contribute.
type RegisterClassUsage struct {
	// SingleReg is set by any value of 16 bits or less held in a register.
	SingleReg bool

	// BigIntReg is set by any non-float value spanning two or more registers.
	BigIntReg bool

	// FloatReg is set by any IEEE float value.
	FloatReg bool
}

func (u *RegisterClassUsage) merge(o RegisterClassUsage) {
	u.SingleReg = u.SingleReg || o.SingleReg
	u.BigIntReg = u.BigIntReg || o.BigIntReg
	u.FloatReg = u.FloatReg || o.FloatReg
}

// Notice is an advisory, non-fatal finding about a point.
type Notice struct {
	Point   string `json:"point"`
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// PointDescriptor is the structured runtime description of one point.
// Pointer and empty fields are omitted when rendered.
type PointDescriptor struct {
	Name        string
	Description string
	Instance    int
	Enable      bool
	ObjectType  ObjectType

	// ValueType is 0 for writable tables and 1 for read-only ones; nil for
	// anything but value objects.
	ValueType *int

	// Pass-through fields.
	Polarity     json.RawMessage
	StateTexts   []string
	Unit         string
	CovIncrement json.Number

	// Runtime mapping.
	FuncCode      FuncCode
	Address       int
	DataType      DataType
	Offset        json.Number
	Scale         json.Number
	Bit           *int
	BitLen        *int
	StateValues   []int
	IgnoreUnmatch bool
}
