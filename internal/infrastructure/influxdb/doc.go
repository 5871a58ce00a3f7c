// Package influxdb writes SmartAura telemetry to InfluxDB v2.
//
// Two measurements are written:
//
//	sensors  fields temperature, humidity, air_quality_poor, motion
//	devices  tags device, kind; fields on, setting
//
// Sensor fields that are unknown at capture time are omitted rather than
// written as zero. Writes are non-blocking and batched by the client
// library; asynchronous write errors reach the SetOnError callback.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.WriteSensors(reading)
package influxdb
