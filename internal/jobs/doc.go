// Package jobs tracks remote recipe-generation jobs.
//
// A Tracker owns one job of a fixed kind (link import or manual prompt). Submit
// validates input locally, creates the job, and starts a background poller
// that stops on its own once the job is completed or failed. Poll responses
// carry a sequence number and the tracker generation, so a response that
// arrives after a newer poll or after Reset is ignored.
//
// Progress and CurrentStep are pure helpers that derive a 0-100 value and a
// display label from a job's steps using the per-kind weight tables.
package jobs
