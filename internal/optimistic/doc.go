// Package optimistic applies local writes before the server confirms them.
//
// A Coordinator owns one keyed map. Apply writes the new value at once,
// sends the request, then either keeps it (or the server's version) or
// rolls back to the last confirmed value. Each apply gets a per-key
// sequence number; a response for an older sequence never overwrites what a
// newer apply made visible.
package optimistic
