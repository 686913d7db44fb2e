package devimport

import (
	"encoding/json"

	"github.com/nerrad567/mbconv/internal/addrmap"
	"github.com/nerrad567/mbconv/internal/busconfig"
)

// Document is a parsed device description.
type Document struct {
	// Settings holds the bus and device settings.
	Settings busconfig.Settings

	// Input is ready to be handed to addrmap.Compile.
	Input addrmap.Input
}

// rawDocument mirrors the JSON document. Required keys are pointers so a
// missing key can be told apart from a zero value.
type rawDocument struct {
	UpdateMs  *int `json:"update_ms"`
	OfflineMs *int `json:"offline_ms"`

	BaudRate *int           `json:"baudrate"`
	Parity   json.RawMessage `json:"parity"`
	ASCII    *bool           `json:"ascii"`

	Enable          *bool   `json:"enable"`
	Name            *string `json:"name"`
	Description     string  `json:"description"`
	Instance        int     `json:"instance"`
	Station         *int    `json:"station"`
	TimeoutMs       *int    `json:"timeout_ms"`
	SingleWriteCoil bool    `json:"single_write_coil"`
	SingleWriteReg  bool    `json:"single_write_reg"`

	ByteReverse         *bool `json:"byte_reverse"`
	IntegerByteReverse  *bool `json:"integer_byte_reverse"`
	FloatByteReverse    *bool `json:"float_byte_reverse"`
	IntegerLittleEndian *bool `json:"integer_little_endian"`
	FloatLittleEndian   *bool `json:"float_little_endian"`

	GroupBit  *int `json:"group_bit"`
	UnusedBit *int `json:"unused_bit"`
	GroupReg  *int `json:"group_reg"`
	UnusedReg *int `json:"unused_reg"`

	Points *[]json.RawMessage `json:"points"`
}

// rawPoint holds the keys of every point kind; which ones apply depends on
// the object type.
type rawPoint struct {
	Name            *string `json:"name"`
	Description     string  `json:"description"`
	Instance        int     `json:"instance"`
	Enable          *bool   `json:"enable"`
	ObjectType      *string `json:"object_type"`
	AddressType     *string `json:"address_type"`
	Address         *int    `json:"address"`
	OutputTolerance bool    `json:"output_tolerance"`

	// Binary.
	Polarity json.RawMessage `json:"polarity"`

	// Analog.
	DataType     *string     `json:"data_type"`
	Unit         string      `json:"unit"`
	CovIncrement json.Number `json:"cov_increment"`
	Offset       json.Number `json:"offset"`
	Scale        json.Number `json:"scale"`

	// Multistate.
	RegNum      *int  `json:"reg_num"`
	StateValues []int `json:"state_values"`

	BitOffset  *int     `json:"bit_offset"`
	BitLen     *int     `json:"bit_len"`
	StateTexts []string `json:"state_texts"`
}
