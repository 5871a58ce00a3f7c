// Package voice runs the spoken assistant: a two-state session (idle and
// active) gated by a wake phrase, and an Assistant that routes utterances
// to device commands, general answers or the leaving command.
//
// Audio capture and playback live behind the Listener and Speaker
// interfaces. The package only sees text.
package voice
