// Package command turns free text into device commands.
//
// Classification is delegated to a Classifier (an LLM deployment or the
// offline keyword matcher) that answers with a label from a fixed
// vocabulary. The Router's own job is deterministic: it maps labels to an
// Intent, a DeviceCommand or the "leaving" special command, and treats
// anything else as unrecognised. There is no retry and no guessing.
//
// Intent labels:
//
//	command-query   control a device (or announce leaving)
//	general-query   anything else, answered but never applied
//
// Command labels:
//
//	<device>-control-on      switch on
//	<device>-control-off     switch off
//	<device>-control-<n>     set AC temperature or fan speed
//	leaving                  switch everything off and re-arm automation
//	no-access                a device the home does not have
//	<device>-error           understood the device but not the request
//
// <device> is any device ID or alias known to the actuator registry.
package command
