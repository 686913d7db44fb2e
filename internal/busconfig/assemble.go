package busconfig

import (
	"github.com/nerrad567/mbconv/internal/addrmap"
)

// Assemble wraps a compiled address map, the device settings and the bus
// script into a bus object. All validation has happened by the time a Result
// exists, so assembly cannot fail.
func Assemble(s Settings, script Script, res *addrmap.Result, opts Options) *BusConfig {
	opts = opts.withDefaults()

	bus := &BusConfig{
		Enable: false,
		Name:   busName,
		Tag:    BusTag(s),
		Script: map[string]string{script.Name: script.Text},
	}

	if s.Serial != nil {
		ascii := s.Serial.ASCII
		bus.Type = TransportSerial
		bus.Parity = s.Serial.Parity
		bus.BaudRate = s.Serial.BaudRate
		bus.Bit7 = &ascii
		bus.FrameMs = s.Serial.FrameMs()
		bus.Resource = opts.SerialResource
	} else {
		bus.Type = TransportTCP
		bus.Server = opts.TCPListen
	}

	dev := DeviceConfig{
		Enable:      s.Device.Enable,
		Name:        s.Device.Name,
		Description: s.Device.Description,
		Instance:    s.Device.Instance,
		Tag:         DeviceTag(s.Device, res.Endian, res.Requests),
		Points:      make([]PointConfig, 0, len(res.Descriptors)),
	}
	for i := range res.Descriptors {
		dev.Points = append(dev.Points, pointConfig(&res.Descriptors[i]))
	}
	bus.Devices = []DeviceConfig{dev}

	return bus
}

func pointConfig(d *addrmap.PointDescriptor) PointConfig {
	pc := PointConfig{
		Name:        d.Name,
		Description: d.Description,
		Instance:    d.Instance,
		Enable:      d.Enable,
		ObjectType:  string(d.ObjectType),
		ValueType:   d.ValueType,
		Polarity:    d.Polarity,
		StateTexts:  d.StateTexts,
		Tag:         PointTag(d),
	}
	if d.ObjectType.Kind() == addrmap.KindAnalog {
		pc.Unit = d.Unit
		pc.CovIncrement = d.CovIncrement
	}
	return pc
}
