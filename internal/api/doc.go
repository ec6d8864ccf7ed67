// Package api provides an HTTP client for the recipe backend.
//
// # Overview
//
// The client is a thin, typed wrapper over the backend's REST endpoints. It
// owns no state: every cached or optimistic view of the data lives in the
// jobs, feed and stores packages, which depend on the small interfaces they
// declare rather than on *Client directly.
//
// # Endpoints
//
//   - POST /api/recipe-jobs, GET /api/recipe-jobs/{id}, GET /api/recipe-jobs/latest
//   - PUT /api/recipe-jobs/{id}/update, POST /api/recipe-jobs/{id}/confirm
//   - GET /api/videos/feed?page_size&last_video_id
//   - /api/videos/reactions, /api/videos/try-list (list, create, delete)
//   - /api/meals/rate, /api/meals/ratings
//   - /api/meals/schedule (list, create, update, delete)
//
// # Request Handling
//
// All requests:
//   - attach the current user's token as "Authorization: Bearer"; a missing
//     token fails with failure.ErrAuth before anything is sent
//   - carry a fresh X-Request-ID so backend logs can be correlated
//   - use the caller's context for cancellation
//   - encode and decode JSON with goccy/go-json
//
// # Error Handling
//
// Errors are classified with the failure package:
//
//   - network errors and undecodable bodies wrap failure.ErrTransport
//   - non-2xx responses are *failure.StatusError, which matches ErrAuth
//     (401/403), ErrNotFound (404), ErrTransport (5xx, 408, 429) and
//     ErrValidation (any other 4xx)
//   - list endpoints treat 404 as an empty result
package api
