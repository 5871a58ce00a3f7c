// Package automation runs the occupancy-driven automation loop.
//
// The Controller has two states, derived from the actuator registry's guard:
//
//	Armed       automation may act on the next occupancy event
//	Suppressed  automation has acted and stays quiet until "leaving"
//
// While armed, each cycle:
//
//  1. reads the latest motion bit; no motion (or unknown) ends the cycle
//  2. asks the presence classifier to confirm someone is there
//  3. asks the identity classifier who it is
//     - a recognised occupant: apply the rule set and become Suppressed
//     - "Unknown": raise one alert and stay Armed
//
// Classifier calls are bounded by a timeout; errors, timeouts and panics
// count as "no detection" and the loop carries on.
//
// The rule set and the guard are applied in one registry critical section
// (actuator.Registry.Engage), so a concurrent voice or HTTP write can never
// interleave with a rule pass. Manual and voice commands never set the
// guard; only Leave clears it.
package automation
