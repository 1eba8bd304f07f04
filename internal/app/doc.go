// Package app is the composition root of the laempli daemon.
//
// # Overview
//
// Run loads the configuration, installs the log handler and then wires
// the pieces together: the OS station probe, the job registry, the status
// board, the realtime protocol handler and the connection supervisor. The
// terminal panel runs alongside them unless headless mode is requested.
//
// # Modes
//
// A lamp with station credentials and a backend URL supervises a backend
// connection. Without them it degrades to scan-only mode: a passive
// wireless survey every few seconds, logged and nothing more. The mode is
// picked once at startup; reconfiguration means restart, as on the device.
//
// # Lifecycle
//
//	Run()
//	 ├─ config.Load()              defaults when the file is missing
//	 ├─ prefs.Load()               panel theme and bell
//	 ├─ setupLogging()             file in panel mode, stderr headless
//	 ├─ unconfigured? ────────────▶ runScanOnly() until cancelled
//	 ├─ wifi.New()                 supervisor over station/backend/board
//	 └─ errgroup:
//	     ├─ sup.Run()              the connection state machine
//	     ├─ monitor()              periodic status line
//	     └─ ui.Run()               panel; quitting it cancels the rest
//
// Shutdown is cooperative: cancelling the context passed to Run stops
// every goroutine, and quitting the panel cancels the same context. Errors
// inside the supervisor never propagate out; they are part of its retry
// loop. Run itself fails only on unusable configuration, an unwritable
// log file or a panel failure.
package app
