package routehandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coreybb/resurface/datastore"
	"github.com/coreybb/resurface/models"
	"github.com/coreybb/resurface/reminder"
	"github.com/coreybb/resurface/webutil"
)

// Holds dependencies for reminder route handlers.
type ReminderHandler struct {
	Service *reminder.Service
}

func NewReminderHandler(service *reminder.Service) *ReminderHandler {
	return &ReminderHandler{Service: service}
}

// reminderResponse is the wire shape of a cadence.
type reminderResponse struct {
	Day       string `json:"day"`
	Time      string `json:"time"`
	ItemCount int    `json:"item_count"`
}

func toReminderResponse(pref *models.ReminderPreference) reminderResponse {
	return reminderResponse{
		Day:       models.WeekdayName(pref.Weekday),
		Time:      fmt.Sprintf("%02d:%02d", pref.Hour, pref.Minute),
		ItemCount: pref.ItemCount,
	}
}

func (h *ReminderHandler) HandleSetReminder(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}

	var requestData struct {
		Day       string `json:"day"`
		Time      string `json:"time"`
		ItemCount int    `json:"item_count"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	pref, err := h.Service.SetReminder(r.Context(), userID, requestData.Day, requestData.Time, requestData.ItemCount)
	if err != nil {
		var verr *reminder.ValidationError
		if errors.As(err, &verr) {
			return webutil.ErrBadRequest(verr.Error())
		}
		if errors.Is(err, datastore.ErrUserNotFound) {
			return webutil.ErrNotFound("User not found")
		}
		return fmt.Errorf("failed to set reminder for user %s: %w", userID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, toReminderResponse(pref))
	return nil
}

func (h *ReminderHandler) HandleGetReminder(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}

	pref, err := h.Service.GetReminder(r.Context(), userID)
	if err != nil {
		if errors.Is(err, datastore.ErrReminderNotFound) {
			return webutil.ErrNotFound("No reminder configured for this user")
		}
		return fmt.Errorf("failed to retrieve reminder for user %s: %w", userID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, toReminderResponse(pref))
	return nil
}

func (h *ReminderHandler) HandleClearReminder(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}

	if err := h.Service.ClearReminder(r.Context(), userID); err != nil {
		return fmt.Errorf("failed to clear reminder for user %s: %w", userID, err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
