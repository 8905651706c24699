// Package engine provides the core mock server engine: the request
// dispatcher that serves configured routes from an atomically swappable
// registry snapshot, the response simulator that applies per-route delays,
// and the lifecycle manager that owns the single live listener.
//
// Exactly one server instance exists process-wide at any time. The
// lifecycle manager enforces this: a start issued while the server is
// already running stops the previous instance first, and concurrent
// start/stop calls queue behind one exclusive transition lock.
package engine
