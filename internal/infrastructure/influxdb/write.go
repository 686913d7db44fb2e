package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementCompileRuns is the measurement holding one point per compile.
const MeasurementCompileRuns = "compile_runs"

// CompileMetric summarises one compile for time-series storage.
// Tags stay low cardinality; counts and timings are fields.
type CompileMetric struct {
	Device    string
	Source    string
	Status    string
	Transport string

	Points   int
	Enabled  int
	Requests int
	Notices  int
	Duration time.Duration
	At       time.Time
}

// compileRunPoint converts a metric into an InfluxDB point.
func compileRunPoint(m CompileMetric) *write.Point {
	at := m.At
	if at.IsZero() {
		at = time.Now()
	}

	tags := map[string]string{
		"status": m.Status,
		"source": m.Source,
	}
	if m.Device != "" {
		tags["device"] = m.Device
	}
	if m.Transport != "" {
		tags["transport"] = m.Transport
	}

	return write.NewPoint(
		MeasurementCompileRuns,
		tags,
		map[string]interface{}{
			"points":      m.Points,
			"enabled":     m.Enabled,
			"requests":    m.Requests,
			"notices":     m.Notices,
			"duration_us": m.Duration.Microseconds(),
		},
		at,
	)
}

// WriteCompileRun records a compile. The write is non-blocking; points are
// batched and flushed by the client or on Close.
//
// Example:
//
//	client.WriteCompileRun(influxdb.CompileMetric{
//	    Device: "boiler-1", Source: "cli", Status: "ok", Points: 12,
//	})
func (c *Client) WriteCompileRun(m CompileMetric) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(compileRunPoint(m))
}
