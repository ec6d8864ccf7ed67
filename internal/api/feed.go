package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// FetchFeed returns up to pageSize videos after lastVideoID. An empty
// lastVideoID starts from the top of the feed.
func (c *Client) FetchFeed(ctx context.Context, pageSize int, lastVideoID string) ([]Video, error) {
	query := url.Values{}
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}
	if last := strings.TrimSpace(lastVideoID); last != "" {
		query.Set("last_video_id", last)
	}
	var payload []Video
	if err := c.get(ctx, "/api/videos/feed", query, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchVideo retrieves a single video.
func (c *Client) FetchVideo(ctx context.Context, videoID string) (Video, error) {
	var payload Video
	if err := c.get(ctx, idPath("/api/videos", videoID), nil, &payload); err != nil {
		return Video{}, err
	}
	return payload, nil
}
