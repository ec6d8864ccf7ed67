// Package fakeapi is an in-memory recipe backend served over HTTP. It backs
// the end-to-end tests and the CLI's --fake mode: jobs advance one step per
// poll, and any route can be told to fail.
package fakeapi
