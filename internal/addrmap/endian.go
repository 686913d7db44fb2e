package addrmap

import (
	"fmt"
	"strings"
)

// ByteOrderFlags are the device-level byte-order settings, one set per
// register class.
type ByteOrderFlags struct {
	// ByteReverse swaps the two bytes of single-register values.
	ByteReverse bool

	IntegerByteReverse  bool
	FloatByteReverse    bool
	IntegerLittleEndian bool
	FloatLittleEndian   bool
}

// EndianCode is the resolved (byte swap, word order) pair for a device.
type EndianCode int

// Endian codes understood by the bus runtime.
const (
	EndianReversedLittle EndianCode = 1
	EndianNormalLittle   EndianCode = 2
	EndianReversedBig    EndianCode = 3
	EndianNormalBig      EndianCode = 4
)

// Reversed reports whether bytes are swapped inside each register.
func (c EndianCode) Reversed() bool {
	return c == EndianReversedLittle || c == EndianReversedBig
}

// Little reports whether multi-register values start with the low word.
func (c EndianCode) Little() bool {
	return c == EndianReversedLittle || c == EndianNormalLittle
}

func (c EndianCode) String() string {
	switch c {
	case EndianReversedLittle:
		return "reversed+little"
	case EndianNormalLittle:
		return "normal+little"
	case EndianReversedBig:
		return "reversed+big"
	case EndianNormalBig:
		return "normal+big"
	default:
		return fmt.Sprintf("EndianCode(%d)", int(c))
	}
}

func endianCode(reversed, little bool) EndianCode {
	switch {
	case reversed && little:
		return EndianReversedLittle
	case little:
		return EndianNormalLittle
	case reversed:
		return EndianReversedBig
	default:
		return EndianNormalBig
	}
}

// ResolveEndian folds the byte-order flags of the register classes in use
// into one EndianCode.
//
// Flags of classes the device does not use are ignored. When two classes in
// use disagree a *ValidationError of kind ErrByteOrderConflict lists every
// conflicting flag.
//
// Byte swap is taken from the first class present in the order single,
// integer, float and defaults to false. Word order has no single-register
// term: it is taken from integer, then float, and defaults to little endian.
func ResolveEndian(usage RegisterClassUsage, f ByteOrderFlags) (EndianCode, error) {
	var (
		conflicts []string
		fields    []string
	)
	if usage.SingleReg && usage.BigIntReg && f.ByteReverse != f.IntegerByteReverse {
		conflicts = append(conflicts, "single register and big integer byte swap differ")
		fields = append(fields, "byte_reverse", "integer_byte_reverse")
	}
	if usage.SingleReg && usage.FloatReg && f.ByteReverse != f.FloatByteReverse {
		conflicts = append(conflicts, "single register and float byte swap differ")
		fields = append(fields, "byte_reverse", "float_byte_reverse")
	}
	if usage.BigIntReg && usage.FloatReg {
		if f.IntegerByteReverse != f.FloatByteReverse {
			conflicts = append(conflicts, "big integer and float byte swap differ")
			fields = append(fields, "integer_byte_reverse", "float_byte_reverse")
		}
		if f.IntegerLittleEndian != f.FloatLittleEndian {
			conflicts = append(conflicts, "big integer and float word order differ")
			fields = append(fields, "integer_little_endian", "float_little_endian")
		}
	}
	if len(conflicts) > 0 {
		return 0, Invalid(ErrByteOrderConflict, strings.Join(conflicts, "; "), dedupe(fields)...)
	}

	var reversed bool
	switch {
	case usage.SingleReg:
		reversed = f.ByteReverse
	case usage.BigIntReg:
		reversed = f.IntegerByteReverse
	case usage.FloatReg:
		reversed = f.FloatByteReverse
	}

	little := true
	switch {
	case usage.BigIntReg:
		little = f.IntegerLittleEndian
	case usage.FloatReg:
		little = f.FloatLittleEndian
	}

	return endianCode(reversed, little), nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
