package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/coreybb/resurface/route-handlers"
	"github.com/coreybb/resurface/webutil"
)

const (
	apiBasePath   = "/api"
	usersBasePath = "/users"
)

const (
	itemsSubPath    = "/items"
	reminderSubPath = "/reminder"
	importsSubPath  = "/imports"
)

const (
	paramID     = "id"     // User resource IDs
	paramItemID = "itemID" // Item IDs nested under a user
)

func SetupRoutes(
	userHandler *rh.UserHandler,
	itemHandler *rh.ItemHandler,
	reminderHandler *rh.ReminderHandler,
	importHandler *rh.ImportHandler,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)                    // Log every request
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second)) // Set a timeout context for requests

	r.Route(apiBasePath, func(r chi.Router) {
		configureUserRoutes(r, userHandler, itemHandler, reminderHandler, importHandler)
	})

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}

func configureUserRoutes(
	r chi.Router,
	userHandler *rh.UserHandler,
	itemHandler *rh.ItemHandler,
	reminderHandler *rh.ReminderHandler,
	importHandler *rh.ImportHandler,
) {
	userSpecificPath := pathWithParam("", paramID) // e.g., "/{id}"

	r.Route(usersBasePath, func(r chi.Router) {
		r.Post("/", webutil.MakeHandler(userHandler.HandleCreateUser))
		r.Post("/login", webutil.MakeHandler(userHandler.HandleLogin))

		r.Route(userSpecificPath, func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(userHandler.HandleGetUser))

			// Saved items: POST/GET /users/{id}/items, DELETE /users/{id}/items/{itemID}
			r.Route(itemsSubPath, func(r chi.Router) {
				r.Get("/", webutil.MakeHandler(itemHandler.HandleGetUserItems))
				r.Post("/", webutil.MakeHandler(itemHandler.HandleCreateItem))
				r.Delete(pathWithParam("", paramItemID), webutil.MakeHandler(itemHandler.HandleDeleteItem))
			})

			// Reminder cadence: PUT/GET/DELETE /users/{id}/reminder
			r.Route(reminderSubPath, func(r chi.Router) {
				r.Put("/", webutil.MakeHandler(reminderHandler.HandleSetReminder))
				r.Get("/", webutil.MakeHandler(reminderHandler.HandleGetReminder))
				r.Delete("/", webutil.MakeHandler(reminderHandler.HandleClearReminder))
			})

			// Third-party imports: POST /users/{id}/imports/pocket|youtube
			r.Route(importsSubPath, func(r chi.Router) {
				r.Post("/pocket", webutil.MakeHandler(importHandler.HandlePocketImport))
				r.Post("/youtube", webutil.MakeHandler(importHandler.HandleYouTubeImport))
			})
		})
	})
}

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
