package routehandlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coreybb/resurface/datastore"
	"github.com/coreybb/resurface/models"
	"github.com/coreybb/resurface/webutil"
)

type UserHandler struct {
	Repo *datastore.UserRepository
}

func NewUserHandler(repo *datastore.UserRepository) *UserHandler {
	return &UserHandler{Repo: repo}
}

func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	email := strings.TrimSpace(requestData.Email)
	if email == "" || !strings.Contains(email, "@") {
		return webutil.ErrBadRequest("A valid email is required")
	}
	if requestData.Password == "" {
		return webutil.ErrBadRequest("Password is required")
	}

	passwordHash, err := webutil.HashPassword(requestData.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := models.User{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Email:        email,
		PasswordHash: passwordHash,
	}

	if err := h.Repo.CreateUser(r.Context(), &newUser); err != nil {
		if errors.Is(err, datastore.ErrDuplicateEmail) {
			return webutil.ErrConflict("Email is already registered")
		}
		return fmt.Errorf("failed to create user %s: %w", newUser.Email, err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, newUser)
	return nil
}

// HandleLogin verifies an email/password pair and returns the matching
// user. Unknown emails and wrong passwords get the same response, so the
// endpoint cannot be used to probe which emails are registered.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&requestData); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	email := strings.TrimSpace(requestData.Email)
	if email == "" || requestData.Password == "" {
		return webutil.ErrBadRequest("Email and password are required")
	}

	user, err := h.Repo.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, datastore.ErrUserNotFound) {
			return webutil.ErrUnauthorized("Invalid email or password")
		}
		return fmt.Errorf("failed to look up user %s: %w", email, err)
	}

	if !webutil.VerifyPassword(requestData.Password, user.PasswordHash) {
		return webutil.ErrUnauthorized("Invalid email or password")
	}

	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}

func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		return webutil.ErrBadRequest("Invalid user ID format")
	}

	user, err := h.Repo.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, datastore.ErrUserNotFound) {
			return webutil.ErrNotFound("User not found")
		}
		return fmt.Errorf("failed to retrieve user %s: %w", userID, err)
	}

	webutil.RespondWithJSON(w, http.StatusOK, user)
	return nil
}
