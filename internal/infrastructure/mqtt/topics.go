package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for converter output.
const (
	// TopicPrefix is the base for all converter topics.
	TopicPrefix = "mbconv"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "mbconv/system"
)

// Topics provides builders for converter MQTT topics.
//
//	topics := mqtt.Topics{}
//	busTopic := topics.BusConfig("Boiler 1")
//	// Returns: "mbconv/bus/boiler-1"
type Topics struct{}

// BusConfig returns the retained topic carrying the compiled bus
// configuration for a device.
//
// Example: mbconv/bus/boiler-1
func (Topics) BusConfig(device string) string {
	return fmt.Sprintf("%s/bus/%s", TopicPrefix, TopicSegment(device))
}

// AllBusConfigs returns a wildcard topic matching every device's bus configuration.
//
// Example: mbconv/bus/+
func (Topics) AllBusConfigs() string {
	return TopicPrefix + "/bus/+"
}

// SystemStatus returns the topic for converter online/offline status.
//
// Example: mbconv/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// TopicSegment turns a free-form device name into a single topic level.
// MQTT wildcards and separators are replaced, letters are lowercased and
// runs of whitespace collapse to one hyphen. An empty result becomes "unnamed".
func TopicSegment(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r == '/' || r == '+' || r == '#' || r == 0:
			r = '_'
		case r == ' ' || r == '\t':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
			continue
		}
		b.WriteRune(r)
		lastHyphen = false
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}
