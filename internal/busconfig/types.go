package busconfig

import "encoding/json"

// Transport selects how the runtime reaches the device.
type Transport int

// Transport types understood by the runtime.
const (
	TransportSerial Transport = 1
	TransportTCP    Transport = 2
)

func (t Transport) String() string {
	switch t {
	case TransportSerial:
		return "serial"
	case TransportTCP:
		return "tcp"
	default:
		return "unknown"
	}
}

// Defaults for the transport fields that are not part of a device
// description.
const (
	DefaultSerialResource = "RS485-1"
	DefaultTCPListen      = "0.0.0.0:502"

	// busName is the fixed name of the generated bus object.
	busName = "Bus"
)

// SerialLine holds the serial settings of a device description. Its presence
// selects the serial transport.
type SerialLine struct {
	BaudRate int

	// Parity is copied to the output as written in the description.
	Parity json.RawMessage

	// ASCII selects Modbus ASCII framing instead of RTU.
	ASCII bool
}

// Device is the identity and link settings of one device.
type Device struct {
	Enable      bool
	Name        string
	Description string
	Instance    int

	// Station is the Modbus slave id.
	Station   int
	TimeoutMs int

	// Force single-item write functions instead of the multiple-item ones.
	SingleWriteCoil bool
	SingleWriteReg  bool
}

// Settings is the non-point part of a device description.
type Settings struct {
	UpdateMs  int
	OfflineMs int

	// Serial is nil for a network device.
	Serial *SerialLine

	Device Device
}

// Script is the bus script embedded into the bus object.
type Script struct {
	Name string
	Text string
}

// Options are installation-wide transport settings.
type Options struct {
	// SerialResource names the serial port on the controller.
	SerialResource string

	// TCPListen is the listen address of a network bus.
	TCPListen string
}

func (o Options) withDefaults() Options {
	if o.SerialResource == "" {
		o.SerialResource = DefaultSerialResource
	}
	if o.TCPListen == "" {
		o.TCPListen = DefaultTCPListen
	}
	return o
}

// BusConfig is the generated bus object.
type BusConfig struct {
	Enable bool              `json:"enable"`
	Name   string            `json:"name"`
	Tag    string            `json:"tag"`
	Script map[string]string `json:"script"`
	Type   Transport         `json:"type"`

	// Serial transport.
	Parity   json.RawMessage `json:"parity,omitempty"`
	BaudRate int             `json:"baudrate,omitempty"`
	Bit7     *bool           `json:"bit7,omitempty"`
	FrameMs  float64         `json:"frame_ms,omitempty"`
	Resource string          `json:"resource,omitempty"`

	// Network transport.
	Server string `json:"server,omitempty"`

	Devices []DeviceConfig `json:"fcdevices"`
}

// DeviceConfig is one device of the bus object.
type DeviceConfig struct {
	Enable      bool          `json:"enable"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Instance    int           `json:"instance"`
	Tag         string        `json:"tag"`
	Points      []PointConfig `json:"fcpoints"`
}

// PointConfig is one point of a device.
type PointConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Instance    int    `json:"instance"`
	Enable      bool   `json:"enable"`
	ObjectType  string `json:"object_type"`

	ValueType    *int            `json:"value_type,omitempty"`
	Polarity     json.RawMessage `json:"polarity,omitempty"`
	StateTexts   []string        `json:"state_texts,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	CovIncrement json.Number     `json:"cov_increment,omitempty"`

	Tag string `json:"tag"`
}
