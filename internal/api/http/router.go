package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type LinkService interface {
	CreateLink(ctx context.Context, userID uuid.UUID, originalURL string, maxClicks int64) (*models.Link, error)
	HandleRedirect(ctx context.Context, code string) (string, error)
}

type NotificationInbox interface {
	History(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

func NewRouter(logger *httplog.Logger, linkSvc LinkService, inbox NotificationInbox) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/{code}", handleRedirect(linkSvc))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		validate := getValidate()

		r.Get("/ping", handlePing)
		r.Post("/links", handleCreateLink(linkSvc, validate))
		r.Get("/notifications", handleListNotifications(inbox))
	})

	return r
}
