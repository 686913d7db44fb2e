// Package mqtt publishes compiled bus configurations to an MQTT broker.
//
// Each successful compile is published retained on mbconv/bus/{device},
// so a gateway subscribing later still receives the latest configuration.
// The client announces itself on mbconv/system/status and registers a
// Last Will on the same topic for crash detection.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishBusConfig("Boiler 1", payload)
package mqtt
