// Package converter turns Modbus device descriptions into bus objects.
//
// A Converter runs the whole pipeline for one document: parse, classify
// points, plan read requests, resolve the byte order, assemble and encode.
// Each run is reported to the optional sinks in Deps:
//
//   - a RunRecorder keeps the compile history (SQLite)
//   - a BusPublisher receives successful bus objects (MQTT, retained)
//   - a MetricsWriter receives per-run statistics (InfluxDB)
//
// Sink failures are logged and never fail a compile.
//
//	conv, err := converter.New(converter.Deps{Logger: logger, Options: opts})
//	res, err := conv.ConvertFile(ctx, "boiler.json", "")
//	if errors.Is(err, addrmap.ErrByteOrderConflict) {
//	    // fix the byte-order flags
//	}
package converter
