package busconfig

import (
	"strconv"
	"strings"

	"github.com/nerrad567/mbconv/internal/addrmap"
)

const tagSep = ",\n"

// tagBuilder collects key=value assignments in order.
type tagBuilder struct {
	parts []string
}

func (b *tagBuilder) set(key, value string) {
	b.parts = append(b.parts, key+"="+value)
}

func (b *tagBuilder) setInt(key string, v int) {
	b.set(key, strconv.Itoa(v))
}

func (b *tagBuilder) String() string {
	return strings.Join(b.parts, tagSep)
}

// BusTag renders the bus descriptor.
func BusTag(s Settings) string {
	var b tagBuilder
	b.set("debug", "false")
	b.setInt("update_interval", s.UpdateMs)
	b.setInt("offline_interval", s.OfflineMs)
	if s.Serial != nil && s.Serial.ASCII {
		b.set("ascii", "true")
	}
	return b.String()
}

// DeviceTag renders the device descriptor: link settings, the endian code
// and the read request table.
func DeviceTag(d Device, endian addrmap.EndianCode, reqs []addrmap.ReadRequest) string {
	var b tagBuilder
	b.setInt("slave", d.Station)
	b.setInt("timeout", d.TimeoutMs)
	if d.SingleWriteCoil {
		b.set("writesinglecoil", "true")
	}
	if d.SingleWriteReg {
		b.set("writesinglereg", "true")
	}
	b.setInt("endian", int(endian))
	b.set("readreqs", readRequestTable(reqs))
	return b.String()
}

// readRequestTable renders requests one per line, each followed by a comma.
func readRequestTable(reqs []addrmap.ReadRequest) string {
	var sb strings.Builder
	sb.WriteString("{")
	for _, r := range reqs {
		sb.WriteString("\n")
		sb.WriteString(r.String())
		sb.WriteString(",")
	}
	sb.WriteString("\n}")
	return sb.String()
}

// PointTag renders the runtime mapping of one point. Absent fields are
// skipped; the order of the remaining ones is fixed.
func PointTag(d *addrmap.PointDescriptor) string {
	var b tagBuilder
	b.setInt("func_code", int(d.FuncCode))
	b.setInt("addr", d.Address)
	if d.DataType != "" {
		b.set("datatype", strconv.Quote(string(d.DataType)))
	}
	if d.Offset != "" {
		b.set("offset", d.Offset.String())
	}
	if d.Scale != "" {
		b.set("scale", d.Scale.String())
	}
	if d.Bit != nil {
		b.setInt("bit", *d.Bit)
	}
	if d.BitLen != nil {
		b.setInt("bit_len", *d.BitLen)
	}
	if d.StateValues != nil {
		vals := make([]string, len(d.StateValues))
		for i, v := range d.StateValues {
			vals[i] = strconv.Itoa(v)
		}
		b.set("ms_values", "{"+strings.Join(vals, ", ")+"}")
	}
	if d.IgnoreUnmatch {
		b.set("ignore_unmatch", "true")
	}
	return b.String()
}
