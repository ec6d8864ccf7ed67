// Package app is the composition root of the client engine.
//
// New loads configuration and preferences, opens the log file under the
// cache dir and builds every component:
//
//   - an api.Client authenticated through the token chain
//   - a search.Client backed by Redis when redis_url is set and reachable,
//     otherwise by an in-memory cache
//   - the local sqlite cache (skipped when another process holds it)
//   - one jobs.Tracker per job kind, persisting the active job id
//   - the stores.Library, the home feed and the search queue
//
// Start restores the library snapshot, loads fresh data, resumes unfinished
// jobs and starts the display poller. The poller re-polls processing jobs
// every display_poll_seconds and publishes a state.Snapshot; consecutive
// failures back off exponentially up to 30s.
//
// Local changes reach the UI without waiting for a tick: every component
// reports changes to the App, which rebuilds the view and signals Changed.
//
// Close stops all goroutines, writes the library snapshot and releases the
// cache lock.
package app
