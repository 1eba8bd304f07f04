// Package status models the lamp's indicator hardware: the LED animation
// mode and the buzzer's one-shot noise cues. The supervisor posts signals
// here; the UI reads snapshots and renders them on screen (and optionally
// as a terminal bell).
package status
