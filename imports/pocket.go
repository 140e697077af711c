// Package imports pulls saved content from third-party services into a
// user's item list. Clients receive ready-made credentials; the OAuth
// exchanges that produce them live elsewhere.
package imports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/coreybb/resurface/datastore"
	"github.com/coreybb/resurface/models"
)

const pocketRetrieveEndpoint = "https://getpocket.com/v3/get"

// ItemStore is the write surface importers need.
type ItemStore interface {
	CreateItem(ctx context.Context, item *models.Item) error
}

// PocketClient imports a user's Pocket saves.
type PocketClient struct {
	consumerKey string
	endpoint    string
	client      *http.Client
	items       ItemStore
}

func NewPocketClient(consumerKey string, items ItemStore) *PocketClient {
	return &PocketClient{
		consumerKey: consumerKey,
		endpoint:    pocketRetrieveEndpoint,
		client:      http.DefaultClient,
		items:       items,
	}
}

// Import fetches the user's saves and stores them as items with source
// "pocket". URLs the user already owns are skipped, not duplicated.
// Returns the number of new items created.
func (c *PocketClient) Import(ctx context.Context, userID, accessToken string) (int, error) {
	reqPayload := pocketRetrieveRequest{
		ConsumerKey: c.consumerKey,
		AccessToken: accessToken,
		State:       "all",
		DetailType:  "simple",
	}
	body, err := json.Marshal(reqPayload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal Pocket request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create Pocket request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("Pocket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("Pocket returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed pocketRetrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode Pocket response: %w", err)
	}

	created := 0
	for _, save := range parsed.List {
		itemURL := save.ResolvedURL
		if itemURL == "" {
			itemURL = save.GivenURL
		}
		if itemURL == "" {
			continue
		}

		title := save.ResolvedTitle
		if title == "" {
			title = save.GivenTitle
		}

		wordCount, _ := strconv.Atoi(save.WordCount)

		item := &models.Item{
			ID:        uuid.NewString(),
			UserID:    userID,
			URL:       itemURL,
			Title:     title,
			Source:    models.ItemSourcePocket,
			WordCount: wordCount,
			TimeAdded: time.Now().UTC(),
		}
		if err := c.items.CreateItem(ctx, item); err != nil {
			if errors.Is(err, datastore.ErrDuplicateItem) {
				continue
			}
			return created, fmt.Errorf("failed to store Pocket item %s: %w", itemURL, err)
		}
		created++
	}

	return created, nil
}

// Pocket v3 retrieve API payload types.
type pocketRetrieveRequest struct {
	ConsumerKey string `json:"consumer_key"`
	AccessToken string `json:"access_token"`
	State       string `json:"state"`
	DetailType  string `json:"detailtype"`
}

type pocketRetrieveResponse struct {
	List map[string]pocketSave `json:"list"`
}

type pocketSave struct {
	GivenURL      string `json:"given_url"`
	ResolvedURL   string `json:"resolved_url"`
	GivenTitle    string `json:"given_title"`
	ResolvedTitle string `json:"resolved_title"`
	WordCount     string `json:"word_count"`
}
