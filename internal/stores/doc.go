// Package stores holds the user's library: reactions, try list, ratings and
// scheduled meals. Each store owns one optimistic.Coordinator and is only
// mutated through its exported methods. Library ties them together and
// pushes completed ratings into the schedule.
package stores
