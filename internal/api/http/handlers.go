package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/models"
	"github.com/vadimbarashkov/shortlink/internal/service"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// userCookieName carries the visitor's minted identity between requests.
const userCookieName = "shortlink_user"

const userCookieMaxAge = 60 * 60 * 24 * 365

// resolveUserID extracts the caller's identity from the X-User-ID header or
// the identity cookie. First-time visitors get a fresh identity minted and
// set as a cookie; the core never invents identities itself.
func resolveUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if header := r.Header.Get("X-User-ID"); header != "" {
		return uuid.Parse(header)
	}

	if cookie, err := r.Cookie(userCookieName); err == nil {
		if userID, err := uuid.Parse(cookie.Value); err == nil {
			return userID, nil
		}
	}

	userID := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     userCookieName,
		Value:    userID.String(),
		Path:     "/",
		MaxAge:   userCookieMaxAge,
		HttpOnly: true,
	})

	return userID, nil
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

type createLinkRequest struct {
	URL       string `json:"url" validate:"required,url"`
	MaxClicks int64  `json:"max_clicks" validate:"gte=0"`
}

type linkResponse struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Code      string    `json:"code"`
	URL       string    `json:"url"`
	MaxClicks int64     `json:"max_clicks"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

func toLinkResponse(link *models.Link) linkResponse {
	return linkResponse{
		ID:        link.ID,
		UserID:    link.UserID,
		Code:      link.Code,
		URL:       link.OriginalURL,
		MaxClicks: link.MaxClicks,
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
		Active:    link.Active,
	}
}

func handleCreateLink(svc LinkService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleCreateLink"
	const successMsg = "The link has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req createLinkRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		userID, err := resolveUserID(w, r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		link, err := svc.CreateLink(r.Context(), userID, req.URL, req.MaxClicks)
		if err != nil {
			if errors.Is(err, service.ErrCodeGenerationExhausted) {
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.CodeGenerationResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(http.StatusCreated, successMsg, toLinkResponse(link)))
	}
}

func handleRedirect(svc LinkService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		url, err := svc.HandleRedirect(r.Context(), code)
		if err != nil {
			// Every rejection cause degrades to the same response; the
			// distinction lives in the owner's notifications.
			if errors.Is(err, service.ErrLinkNotAvailable) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.LinkNotAvailableResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

type notificationResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func handleListNotifications(inbox NotificationInbox) http.HandlerFunc {
	const op = "api.http.handleListNotifications"
	const successMsg = "Notifications retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := resolveUserID(w, r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		notifications, err := inbox.History(r.Context(), userID)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := make([]notificationResponse, 0, len(notifications))
		for _, n := range notifications {
			data = append(data, notificationResponse{
				ID:        n.ID,
				Message:   n.Message,
				CreatedAt: n.CreatedAt,
			})
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(http.StatusOK, successMsg, data))
	}
}
