// Package raspi drives the Raspberry Pi header: one relay per actuator and
// two digital inputs, the PIR motion sensor and the MQ-135 gas sensor.
//
// The board is an actuator observer. Relays follow the on/off state of
// their device; settings such as AC temperature are not representable on
// a relay and are left to the device itself.
//
// The MQ-135 module pulls its digital output HIGH when gas concentration
// is above its threshold, which reads as poor air quality.
package raspi
