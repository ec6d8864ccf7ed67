package fakeapi

import (
	"net/http"
	"strconv"
	"strings"
)

type searchThumb struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Thumbnails  struct {
			High searchThumb `json:"high"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}

// searchVideos mimics the YouTube Data API search endpoint. Page tokens are
// offsets into the matching results.
func (s *Server) searchVideos(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	offset, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	size, err := strconv.Atoi(r.URL.Query().Get("maxResults"))
	if err != nil || size <= 0 || size > s.searchSize {
		size = s.searchSize
	}

	s.mu.Lock()
	var matches []SearchItem
	for _, item := range s.search {
		text := strings.ToLower(item.Title + " " + item.Description)
		if q == "" || strings.Contains(text, q) {
			matches = append(matches, item)
		}
	}
	s.mu.Unlock()

	offset = max(0, min(offset, len(matches)))
	end := min(offset+size, len(matches))
	resp := struct {
		NextPageToken string       `json:"nextPageToken,omitempty"`
		Items         []searchItem `json:"items"`
	}{Items: []searchItem{}}
	for _, m := range matches[offset:end] {
		var item searchItem
		item.ID.VideoID = m.VideoID
		item.Snippet.Title = m.Title
		item.Snippet.Description = m.Description
		item.Snippet.Thumbnails.High = searchThumb{URL: "https://i.ytimg.com/vi/" + m.VideoID + "/hq.jpg", Width: m.Width, Height: m.Height}
		resp.Items = append(resp.Items, item)
	}
	if end < len(matches) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, resp)
}
