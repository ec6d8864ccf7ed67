// Package ui provides the terminal interface for yum.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program over an Engine (normally *app.App). It never
// talks to the backend directly: reads come from the published
// state.Snapshot and the library stores, and every user action runs as a
// tea.Cmd that calls the engine off the render loop.
//
// # View Types
//
//   - Feed: the prefetched recipe feed with reaction and try-list badges
//   - Search: external short-video search results for the current query
//   - Jobs: link-import and manual-prompt recipe jobs with weighted progress
//   - Library: scheduled meals and the try list, with counts
//   - Activity: the tail of the log file, followed with fsnotify
//
// # Event Flow
//
//  1. Run starts a logtail.Watcher on the engine's log file and the program.
//  2. Snapshots arrive on every engine change signal and on each poll tick.
//  3. Moving through the feed or search reports the position so the
//     prefetch queues can top themselves up.
//  4. Action results show as a short flash message in the footer.
//
// # Key Bindings
//
//   - 1-5 or Tab: switch views
//   - j/k, g/G: move
//   - l/d: like or dislike; repeating clears the reaction
//   - t: toggle try list
//   - r: rate ("4 great weeknight dinner")
//   - s: schedule ("2026-10-20 19:00"; the time defaults to the preferred meal time)
//   - y: copy the video URL
//   - a/p: import from a link or describe a recipe
//   - e/c: revise or confirm a draft recipe
//   - /: search
//   - R: refresh the feed, retry search or reload the log
//   - T: cycle theme
//   - ?: help, q: quit
package ui
