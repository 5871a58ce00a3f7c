package clickhouse

const createSensorReadings = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	timestamp   DateTime64(3),
	site        LowCardinality(String),
	temperature Nullable(Float64),
	humidity    Nullable(Float64),
	air_quality LowCardinality(String),
	motion      Nullable(Bool)
) ENGINE = MergeTree()
ORDER BY (site, timestamp)
TTL toDateTime(timestamp) + INTERVAL 1 YEAR`

const createDeviceStates = `
CREATE TABLE IF NOT EXISTS device_states (
	timestamp          DateTime64(3),
	site               LowCardinality(String),
	device_id          LowCardinality(String),
	kind               LowCardinality(String),
	is_on              Bool,
	setting            Nullable(Int32),
	automation_engaged Bool
) ENGINE = MergeTree()
ORDER BY (site, device_id, timestamp)
TTL toDateTime(timestamp) + INTERVAL 1 YEAR`

func allTables() []string {
	return []string{createSensorReadings, createDeviceStates}
}

const insertSensorReading = `
INSERT INTO sensor_readings (timestamp, site, temperature, humidity, air_quality, motion)
VALUES (?, ?, ?, ?, ?, ?)`

const insertDeviceState = `
INSERT INTO device_states (timestamp, site, device_id, kind, is_on, setting, automation_engaged)
VALUES (?, ?, ?, ?, ?, ?, ?)`
