package addrmap

import (
	"fmt"
)

// Address space limits.
const (
	// addressSpace is the size of every Modbus table.
	addressSpace = 1 << 16

	// registerBits is the width of one holding or input register.
	registerBits = 16
)

// Classification is the outcome of classifying one point.
type Classification struct {
	Descriptor PointDescriptor

	// Span is nil for disabled points.
	Span *AddressSpan

	Notice *Notice
}

// Classify maps one point onto its address span and descriptor.
//
// Register-class usage is merged into usage only when the point is enabled;
// disabled points still get a descriptor so they stay in the inventory, but
// they never influence planning or byte-order resolution.
//
// Field names in a returned *ValidationError are relative to the point.
func Classify(p Point, usage *RegisterClassUsage) (*Classification, error) {
	h := p.header()
	if err := h.ObjectType.Validate(); err != nil {
		return nil, err
	}
	if h.Address < 0 || h.Address >= addressSpace {
		return nil, Invalid(ErrInvalidInput, fmt.Sprintf("address %d outside 0..%d", h.Address, addressSpace-1), "address")
	}

	fc := h.AddressType.FuncCode()
	d := PointDescriptor{
		Name:        h.Name,
		Description: h.Description,
		Instance:    h.Instance,
		Enable:      h.Enable,
		ObjectType:  h.ObjectType,
		FuncCode:    fc,
		Address:     h.Address,
	}
	if h.ObjectType.ValueKind() == ValueValue {
		vt := 1
		if fc.IsWritable() {
			vt = 0
		}
		d.ValueType = &vt
	}

	var (
		length int
		used   RegisterClassUsage
		notice *Notice
		err    error
	)
	switch pt := p.(type) {
	case *BinaryPoint:
		err = expectKind(h, KindBinary)
		if err == nil {
			length, used, err = classifyBinary(pt, &d)
		}
	case *AnalogPoint:
		err = expectKind(h, KindAnalog)
		if err == nil {
			length, used, notice, err = classifyAnalog(pt, &d)
		}
	case *MultistatePoint:
		err = expectKind(h, KindMultistate)
		if err == nil {
			length, used, err = classifyMultistate(pt, &d)
		}
	default:
		err = Invalid(ErrUnsupportedPoint, fmt.Sprintf("point type %T", p), "object_type")
	}
	if err != nil {
		return nil, err
	}

	if h.Address+length > addressSpace {
		return nil, Invalid(ErrInvalidInput,
			fmt.Sprintf("%d units at address %d run past the end of the table", length, h.Address), "address")
	}

	if h.ObjectType.ValueKind() == ValueOutput && h.OutputTolerance {
		d.IgnoreUnmatch = true
	}

	c := &Classification{Descriptor: d, Notice: notice}
	if h.Enable {
		c.Span = &AddressSpan{FuncCode: fc, Start: h.Address, Length: length}
		if usage != nil {
			usage.merge(used)
		}
	}
	return c, nil
}

func expectKind(h *PointHeader, want ObjectKind) error {
	if h.ObjectType.Kind() != want {
		return Invalid(ErrUnsupportedPoint,
			fmt.Sprintf("object type %q does not describe a %s point", string(h.ObjectType), want), "object_type")
	}
	return nil
}

func classifyBinary(p *BinaryPoint, d *PointDescriptor) (int, RegisterClassUsage, error) {
	var used RegisterClassUsage
	d.Polarity = p.Polarity
	d.StateTexts = p.StateTexts

	if !d.FuncCode.IsBit() {
		if p.BitOffset == nil {
			return 0, used, Invalid(ErrInvalidInput, "a binary point stored in a register needs a bit offset", "bit_offset")
		}
		if err := checkBits(p.BitOffset, nil); err != nil {
			return 0, used, err
		}
		d.Bit = p.BitOffset
		used.SingleReg = true
	}
	return 1, used, nil
}

func classifyAnalog(p *AnalogPoint, d *PointDescriptor) (int, RegisterClassUsage, *Notice, error) {
	var used RegisterClassUsage
	d.Unit = p.Unit
	d.CovIncrement = p.CovIncrement

	if d.FuncCode.IsBit() {
		return 0, used, nil, Invalid(ErrUnsupportedPoint, "an analog point must live in a holding or input register", "address_type")
	}

	dt := p.DataType.Normalize()
	length, err := dt.Registers()
	if err != nil {
		return 0, used, nil, Invalid(ErrUnsupportedPoint, err.Error(), "data_type")
	}

	if dt.IsOther() {
		return length, used, &Notice{
			Point:   p.Name,
			Enabled: p.Enable,
			Message: fmt.Sprintf("data type %s needs the bus script to translate", string(dt)),
		}, nil
	}

	var missing []string
	if p.Offset == "" {
		missing = append(missing, "offset")
	}
	if p.Scale == "" {
		missing = append(missing, "scale")
	}
	if len(missing) > 0 {
		return 0, used, nil, Invalid(ErrInvalidInput, "analog points need offset and scale", missing...)
	}
	d.DataType = dt
	d.Offset = p.Offset
	d.Scale = p.Scale

	switch {
	case length == 1:
		if err := checkBits(p.BitOffset, p.BitLen); err != nil {
			return 0, used, nil, err
		}
		d.Bit = p.BitOffset
		d.BitLen = p.BitLen
		used.SingleReg = true
	case dt.IsFloat():
		used.FloatReg = true
	default:
		used.BigIntReg = true
	}
	return length, used, nil, nil
}

func classifyMultistate(p *MultistatePoint, d *PointDescriptor) (int, RegisterClassUsage, error) {
	var used RegisterClassUsage

	if d.FuncCode.IsBit() {
		return 0, used, Invalid(ErrUnsupportedPoint, "a multistate point must live in a holding or input register", "address_type")
	}
	if p.RegNum != nil && *p.RegNum < 1 {
		return 0, used, Invalid(ErrInvalidInput, fmt.Sprintf("register count %d", *p.RegNum), "reg_num")
	}

	length := 1
	if p.RegNum != nil && *p.RegNum > 1 {
		length = 2
		d.DataType = DataTypeU32
		used.BigIntReg = true
	} else {
		if err := checkBits(p.BitOffset, p.BitLen); err != nil {
			return 0, used, err
		}
		d.Bit = p.BitOffset
		d.BitLen = p.BitLen
		used.SingleReg = true
	}

	if p.StateTexts != nil {
		if len(p.StateValues) != len(p.StateTexts) {
			return 0, used, Invalid(ErrInvalidInput,
				fmt.Sprintf("%d state texts but %d state values", len(p.StateTexts), len(p.StateValues)), "state_values")
		}
		d.StateTexts = p.StateTexts
		d.StateValues = p.StateValues
		if d.StateValues == nil {
			d.StateValues = []int{}
		}
	}
	return length, used, nil
}

// checkBits validates an optional bit field inside one register.
func checkBits(offset, length *int) error {
	if offset != nil && (*offset < 0 || *offset >= registerBits) {
		return Invalid(ErrInvalidInput, fmt.Sprintf("bit offset %d outside 0..%d", *offset, registerBits-1), "bit_offset")
	}
	if length == nil {
		return nil
	}
	start := 0
	if offset != nil {
		start = *offset
	}
	if *length < 1 || start+*length > registerBits {
		return Invalid(ErrInvalidInput, fmt.Sprintf("bit length %d from bit %d exceeds the register", *length, start), "bit_len")
	}
	return nil
}
