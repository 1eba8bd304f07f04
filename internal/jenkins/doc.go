// Package jenkins holds the job records received from the backend.
//
// # Overview
//
// The backend streams per-channel job updates (server, job name, state,
// result, timestamp). This package stores the latest record per
// (server, job) pair in a bounded, thread-safe registry, which the UI and
// the status board read via snapshots.
//
// # Core Types
//
// Info:
//   - One job record as delivered on the wire
//   - String fields are byte-limited to match the device's record layout
//
// Registry:
//   - Upsert by (server, job), bounded at MaxChannels
//   - Single writer (the protocol handler), multiple readers (UI refresh)
//   - Uses sync.RWMutex; snapshots are defensive copies
//
// # Update Semantics
//
// AddInfo replaces a matching record in place, preserving channel order as
// first received. A new record beyond MaxChannels is dropped and AddInfo
// returns false; existing records always update regardless of fill level.
//
// State and Result are small enums with wire-string parsers. Result values
// order from harmless to severe, so Worst of a job set is the numeric
// maximum over switched-on jobs.
package jenkins
