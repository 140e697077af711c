package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/coreybb/resurface/datastore"
	"github.com/coreybb/resurface/models"
)

const (
	youtubePlaylistItemsEndpoint = "https://www.googleapis.com/youtube/v3/playlistItems"
	youtubeWatchURL              = "https://www.youtube.com/watch?v="
	youtubeMaxResults            = "50"
)

// YouTubeClient imports videos from a playlist (e.g. the user's
// watch-later list) as items.
type YouTubeClient struct {
	endpoint string
	client   *http.Client
	items    ItemStore
}

func NewYouTubeClient(items ItemStore) *YouTubeClient {
	return &YouTubeClient{
		endpoint: youtubePlaylistItemsEndpoint,
		client:   http.DefaultClient,
		items:    items,
	}
}

// Import fetches up to 50 videos from playlistID and stores them as items
// with source "youtube". Already-saved videos are skipped. Returns the
// number of new items created.
func (c *YouTubeClient) Import(ctx context.Context, userID, apiKey, playlistID string) (int, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("playlistId", playlistID)
	q.Set("maxResults", youtubeMaxResults)
	q.Set("key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create YouTube request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("YouTube request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("YouTube returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed youtubePlaylistResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode YouTube response: %w", err)
	}

	created := 0
	for _, entry := range parsed.Items {
		videoID := entry.Snippet.ResourceID.VideoID
		if videoID == "" {
			continue
		}

		item := &models.Item{
			ID:        uuid.NewString(),
			UserID:    userID,
			URL:       youtubeWatchURL + videoID,
			Title:     entry.Snippet.Title,
			Source:    models.ItemSourceYouTube,
			TimeAdded: time.Now().UTC(),
		}
		if err := c.items.CreateItem(ctx, item); err != nil {
			if errors.Is(err, datastore.ErrDuplicateItem) {
				continue
			}
			return created, fmt.Errorf("failed to store YouTube item %s: %w", item.URL, err)
		}
		created++
	}

	return created, nil
}

// YouTube Data API v3 playlistItems payload types.
type youtubePlaylistResponse struct {
	Items []youtubePlaylistItem `json:"items"`
}

type youtubePlaylistItem struct {
	Snippet youtubeSnippet `json:"snippet"`
}

type youtubeSnippet struct {
	Title      string            `json:"title"`
	ResourceID youtubeResourceID `json:"resourceId"`
}

type youtubeResourceID struct {
	VideoID string `json:"videoId"`
}
