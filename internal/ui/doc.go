// Package ui renders the lamp in the terminal.
//
// # Overview
//
// The device drives a string of RGB LEDs; the host build draws the same
// thing as a Bubble Tea panel. The model polls on a one second tick and
// pulls three snapshots: the job registry (the channels), the status board
// (LED mode and noise cues) and the supervisor state. Rendering is pure;
// nothing in here mutates shared state.
//
// # Layout
//
// Two header lines (status bar, key hints) sit above the active view:
//
//   - lamp view: a grid of channel cells, one per configured channel,
//     colored by the job's last result. Running jobs pulse with the tick.
//   - log view: a viewport over the tail of the lamp's own log file,
//     following new lines until the user scrolls away.
//
// A help overlay lists the bindings; any key closes it.
//
// # Noise cues
//
// The device beeps; the host rings the terminal bell. When the bell
// preference is on and a snapshot carries noise events the model has not
// seen yet, the next render appends BEL. The preference persists through
// the prefs package together with the chosen theme.
package ui
