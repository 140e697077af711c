package routehandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coreybb/resurface/datastore"
	"github.com/coreybb/resurface/ingestion"
	"github.com/coreybb/resurface/models"
	"github.com/coreybb/resurface/webutil"
)

// Holds dependencies for item route handlers.
type ItemHandler struct {
	Repo    *datastore.ItemRepository
	Fetcher *ingestion.MetadataFetcher
}

// Creates a new ItemHandler. Fetcher may be nil to disable page metadata
// enrichment.
func NewItemHandler(repo *datastore.ItemRepository, fetcher *ingestion.MetadataFetcher) *ItemHandler {
	return &ItemHandler{Repo: repo, Fetcher: fetcher}
}

func (h *ItemHandler) HandleCreateItem(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}

	var requestData struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	parsed, err := url.ParseRequestURI(requestData.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return webutil.ErrBadRequest("A valid http(s) URL is required")
	}

	item := models.Item{
		ID:        uuid.NewString(),
		UserID:    userID,
		URL:       requestData.URL,
		Title:     requestData.Title,
		Source:    models.ItemSourceManual,
		TimeAdded: time.Now().UTC(),
	}

	// Enrichment is best effort; a page we cannot read still gets saved.
	if h.Fetcher != nil && item.Title == "" {
		meta, err := h.Fetcher.Fetch(r.Context(), item.URL)
		if err != nil {
			log.Printf("WARN (ItemHandler): Metadata fetch failed for %s: %v", item.URL, err)
		} else {
			item.Title = meta.Title
			item.WordCount = meta.WordCount
		}
	}

	if err := h.Repo.CreateItem(r.Context(), &item); err != nil {
		if errors.Is(err, datastore.ErrDuplicateItem) {
			return webutil.ErrConflict("Item already exists")
		}
		if errors.Is(err, datastore.ErrUserNotFound) {
			return webutil.ErrNotFound("User not found")
		}
		return fmt.Errorf("failed to create item %s: %w", item.URL, err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, item)
	return nil
}

func (h *ItemHandler) HandleGetUserItems(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}

	items, err := h.Repo.GetItemsByUserID(r.Context(), userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve items for user %s: %w", userID, err)
	}
	if items == nil {
		items = []models.Item{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, items)
	return nil
}

func (h *ItemHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}
	itemID := chi.URLParam(r, "itemID")
	if _, err := uuid.Parse(itemID); err != nil {
		return webutil.ErrBadRequest("Invalid item ID format")
	}

	if err := h.Repo.DeleteItem(r.Context(), itemID, userID); err != nil {
		if errors.Is(err, datastore.ErrItemNotFound) {
			return webutil.ErrNotFound("Item not found")
		}
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
