// Package influxdb records compile statistics in InfluxDB v2.
//
// One point per compile lands in the compile_runs measurement, tagged by
// device, source, status and transport. Writes are batched and
// non-blocking; call Close to flush before exit.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics are optional
//	}
//	defer client.Close()
package influxdb
