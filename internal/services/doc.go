// Package services sits between the HTTP handlers and the reconciliation engine.
//
// RunService owns the lifecycle of a run: uploads are staged in a per-run
// workspace, the engine runs under the configured timeout, and the finished
// domain.Result is cached by run id for Cache.TTL. Rows, summaries, volume
// and exports are served from that cache; an unknown or expired id is a
// RUN_NOT_FOUND API error.
//
// HealthService reports whether workspaces can be created and how many runs
// are cached.
package services
