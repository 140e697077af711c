package routehandlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coreybb/resurface/imports"
	"github.com/coreybb/resurface/webutil"
)

// Holds dependencies for third-party import route handlers.
type ImportHandler struct {
	Pocket  *imports.PocketClient
	YouTube *imports.YouTubeClient
}

func NewImportHandler(pocket *imports.PocketClient, youtube *imports.YouTubeClient) *ImportHandler {
	return &ImportHandler{Pocket: pocket, YouTube: youtube}
}

type importResponse struct {
	Imported int `json:"imported"`
}

func (h *ImportHandler) HandlePocketImport(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}

	var requestData struct {
		AccessToken string `json:"access_token"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if requestData.AccessToken == "" {
		return webutil.ErrBadRequest("Pocket access token is required")
	}

	imported, err := h.Pocket.Import(r.Context(), userID, requestData.AccessToken)
	if err != nil {
		return fmt.Errorf("Pocket import failed for user %s: %w", userID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, importResponse{Imported: imported})
	return nil
}

func (h *ImportHandler) HandleYouTubeImport(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}

	var requestData struct {
		APIKey     string `json:"api_key"`
		PlaylistID string `json:"playlist_id"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	if requestData.APIKey == "" || requestData.PlaylistID == "" {
		return webutil.ErrBadRequest("YouTube API key and playlist ID are required")
	}

	imported, err := h.YouTube.Import(r.Context(), userID, requestData.APIKey, requestData.PlaylistID)
	if err != nil {
		return fmt.Errorf("YouTube import failed for user %s: %w", userID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, importResponse{Imported: imported})
	return nil
}
