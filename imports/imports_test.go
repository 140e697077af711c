package imports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreybb/resurface/datastore"
	"github.com/coreybb/resurface/models"
)

type memoryItemStore struct {
	items []models.Item
	urls  map[string]bool
}

func newMemoryItemStore() *memoryItemStore {
	return &memoryItemStore{urls: make(map[string]bool)}
}

func (m *memoryItemStore) CreateItem(_ context.Context, item *models.Item) error {
	if m.urls[item.URL] {
		return datastore.ErrDuplicateItem
	}
	m.urls[item.URL] = true
	m.items = append(m.items, *item)
	return nil
}

func TestPocketImportMapsSaves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"list": {
				"1": {
					"given_url": "https://example.com/a",
					"resolved_url": "https://example.com/a",
					"resolved_title": "Article A",
					"word_count": "1200"
				},
				"2": {
					"given_url": "https://example.com/b",
					"given_title": "Article B",
					"word_count": ""
				}
			}
		}`))
	}))
	defer server.Close()

	store := newMemoryItemStore()
	client := NewPocketClient("consumer-key", store)
	client.endpoint = server.URL

	created, err := client.Import(context.Background(), "u1", "access-token")
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	require.Len(t, store.items, 2)

	byURL := map[string]models.Item{}
	for _, item := range store.items {
		byURL[item.URL] = item
		assert.Equal(t, models.ItemSourcePocket, item.Source)
		assert.Equal(t, "u1", item.UserID)
	}
	assert.Equal(t, "Article A", byURL["https://example.com/a"].Title)
	assert.Equal(t, 1200, byURL["https://example.com/a"].WordCount)
	assert.Equal(t, "Article B", byURL["https://example.com/b"].Title)
}

func TestPocketImportSkipsDuplicates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"list": {"1": {"given_url": "https://example.com/a", "given_title": "A"}}}`))
	}))
	defer server.Close()

	store := newMemoryItemStore()
	store.urls["https://example.com/a"] = true

	client := NewPocketClient("consumer-key", store)
	client.endpoint = server.URL

	created, err := client.Import(context.Background(), "u1", "access-token")
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Empty(t, store.items)
}

func TestPocketImportSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewPocketClient("consumer-key", newMemoryItemStore())
	client.endpoint = server.URL

	_, err := client.Import(context.Background(), "u1", "bad-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestYouTubeImportMapsVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snippet", r.URL.Query().Get("part"))
		assert.Equal(t, "pl-123", r.URL.Query().Get("playlistId"))
		_, _ = w.Write([]byte(`{
			"items": [
				{"snippet": {"title": "Video One", "resourceId": {"videoId": "abc123"}}},
				{"snippet": {"title": "No ID", "resourceId": {}}}
			]
		}`))
	}))
	defer server.Close()

	store := newMemoryItemStore()
	client := NewYouTubeClient(store)
	client.endpoint = server.URL

	created, err := client.Import(context.Background(), "u1", "api-key", "pl-123")
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.Len(t, store.items, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", store.items[0].URL)
	assert.Equal(t, "Video One", store.items[0].Title)
	assert.Equal(t, models.ItemSourceYouTube, store.items[0].Source)
}
