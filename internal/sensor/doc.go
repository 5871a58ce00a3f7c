// Package sensor polls the home's sensors and caches the latest reading.
//
// A Cache asks each configured reader for a value on every poll and stores
// the result as an immutable Snapshot behind an atomic pointer. A failed or
// missing reader leaves its field nil (air quality "unknown"); Poll itself
// never fails. Readers of Latest never wait for a poll in progress.
//
// Readers are deliberately small interfaces so GPIO inputs, an MQTT-fed DHT
// node and the simulator can be mixed freely:
//
//	cache := sensor.NewCache(sensor.Readers{
//	    Climate:    climateFromMQTT,
//	    AirQuality: board,
//	    Motion:     board,
//	})
//	go cache.Run(ctx, 10*time.Second)
package sensor
