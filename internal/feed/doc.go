// Package feed keeps the video feed and the external search results filled
// ahead of the viewer's position. Both are thin adapters over
// prefetch.Queue: the feed pages by last video id, and search pages by the
// provider's nextPageToken and admits only likely short-form videos.
package feed
