package addrmap

import (
	"errors"
	"reflect"
	"testing"
)

func analog(name string, at AddressType, addr int, dt DataType) *AnalogPoint {
	p := &AnalogPoint{PointHeader: testHeader("av", at, addr), DataType: dt, Offset: "0", Scale: "1"}
	p.Name = name
	return p
}

func TestCompile(t *testing.T) {
	in := Input{
		Points: []Point{
			analog("flow", AddressHolding, 0, "u16"),
			analog("temp", AddressHolding, 2, "s16"),
			analog("level", AddressHolding, 10, "u16"),
		},
		Thresholds: testThresholds,
	}

	res, err := Compile(in)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	wantSpans := []AddressSpan{
		{FuncReadHoldingRegisters, 0, 1},
		{FuncReadHoldingRegisters, 2, 1},
		{FuncReadHoldingRegisters, 10, 1},
	}
	if !reflect.DeepEqual(res.Spans, wantSpans) {
		t.Errorf("Spans = %v, want %v", res.Spans, wantSpans)
	}
	wantReqs := []ReadRequest{
		{FuncReadHoldingRegisters, 0, 3},
		{FuncReadHoldingRegisters, 10, 1},
	}
	if !reflect.DeepEqual(res.Requests, wantReqs) {
		t.Errorf("Requests = %v, want %v", res.Requests, wantReqs)
	}
	if res.Usage != (RegisterClassUsage{SingleReg: true}) {
		t.Errorf("Usage = %+v", res.Usage)
	}
	if res.Endian != EndianNormalLittle {
		t.Errorf("Endian = %v, want %v", res.Endian, EndianNormalLittle)
	}
	if len(res.Descriptors) != 3 || res.Descriptors[1].Name != "temp" {
		t.Errorf("Descriptors out of input order: %+v", res.Descriptors)
	}
	if res.EnabledPoints() != 3 {
		t.Errorf("EnabledPoints() = %d, want 3", res.EnabledPoints())
	}
}

func TestCompile_MixedTables(t *testing.T) {
	coil := &BinaryPoint{PointHeader: testHeader("bo", AddressCoil, 5)}
	off := analog("spare", AddressHolding, 40, "f32")
	off.Enable = false
	other := analog("serial", AddressInput, 100, "o64")

	res, err := Compile(Input{
		Points: []Point{
			analog("power", AddressInput, 0, "f32"),
			coil,
			off,
			other,
		},
		Thresholds: testThresholds,
		ByteOrder:  ByteOrderFlags{FloatByteReverse: true, FloatLittleEndian: false},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	wantReqs := []ReadRequest{
		{FuncReadCoils, 5, 1},
		{FuncReadInputRegisters, 0, 2},
		{FuncReadInputRegisters, 100, 4},
	}
	if !reflect.DeepEqual(res.Requests, wantReqs) {
		t.Errorf("Requests = %v, want %v", res.Requests, wantReqs)
	}
	if res.Usage != (RegisterClassUsage{FloatReg: true}) {
		t.Errorf("Usage = %+v, want float only", res.Usage)
	}
	if res.Endian != EndianReversedBig {
		t.Errorf("Endian = %v, want %v", res.Endian, EndianReversedBig)
	}
	if len(res.Descriptors) != 4 {
		t.Errorf("len(Descriptors) = %d, want 4", len(res.Descriptors))
	}
	if len(res.Notices) != 1 || res.Notices[0].Point != "serial" || !res.Notices[0].Enabled {
		t.Errorf("Notices = %+v", res.Notices)
	}
	if res.EnabledPoints() != 3 {
		t.Errorf("EnabledPoints() = %d, want 3", res.EnabledPoints())
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name       string
		in         Input
		wantKind   error
		wantFields []string
	}{
		{
			name: "point field is prefixed with its index",
			in: Input{
				Points: []Point{
					analog("ok", AddressHolding, 0, "u16"),
					&BinaryPoint{PointHeader: testHeader("bv", AddressHolding, 1)},
				},
				Thresholds: testThresholds,
			},
			wantKind:   ErrInvalidInput,
			wantFields: []string{"points[1].bit_offset"},
		},
		{
			name: "kind mismatch",
			in: Input{
				Points:     []Point{&MultistatePoint{PointHeader: testHeader("bv", AddressHolding, 0)}},
				Thresholds: testThresholds,
			},
			wantKind:   ErrUnsupportedPoint,
			wantFields: []string{"points[0].object_type"},
		},
		{
			name: "single register and big integer swap disagree",
			in: Input{
				Points: []Point{
					analog("a", AddressHolding, 0, "u16"),
					analog("b", AddressHolding, 1, "u32"),
				},
				Thresholds: testThresholds,
				ByteOrder:  ByteOrderFlags{ByteReverse: true},
			},
			wantKind:   ErrByteOrderConflict,
			wantFields: []string{"byte_reverse", "integer_byte_reverse"},
		},
		{
			name: "thresholds",
			in: Input{
				Thresholds: Thresholds{GroupBit: 1, GroupReg: 126},
			},
			wantKind:   ErrInvalidThreshold,
			wantFields: []string{"group_reg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compile(tt.in)
			if res != nil {
				t.Errorf("Compile() returned a partial result %+v", res)
			}
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Compile() error = %v, want kind %v", err, tt.wantKind)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %T is not *ValidationError", err)
			}
			if !reflect.DeepEqual(verr.Fields, tt.wantFields) {
				t.Errorf("Fields = %v, want %v", verr.Fields, tt.wantFields)
			}
		})
	}
}

func TestCompile_DisabledPointsDoNotConflict(t *testing.T) {
	f := analog("f", AddressHolding, 10, "f32")
	f.Enable = false

	res, err := Compile(Input{
		Points:     []Point{analog("a", AddressHolding, 0, "u16"), f},
		Thresholds: testThresholds,
		ByteOrder:  ByteOrderFlags{ByteReverse: true, FloatByteReverse: false},
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if res.Endian != EndianReversedLittle {
		t.Errorf("Endian = %v, want %v", res.Endian, EndianReversedLittle)
	}
}

func TestCompile_Empty(t *testing.T) {
	res, err := Compile(Input{Thresholds: testThresholds})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(res.Requests) != 0 || res.Endian != EndianNormalLittle {
		t.Errorf("Requests = %v Endian = %v", res.Requests, res.Endian)
	}
}
