// Package config handles loading and validating mbconv configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with MBCONV_* environment variables
//   - Validation of all fields, reporting every problem at once
//
// The converter itself needs no configuration; every section has a default
// and the history, MQTT and InfluxDB sinks are disabled unless enabled
// explicitly. An empty path to Load yields the defaults.
//
// Usage:
//
//	cfg, err := config.Load("configs/mbconv.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Converter.ScriptGlob)
package config
