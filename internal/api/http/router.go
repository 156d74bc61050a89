package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/testforge/internal/auth/middleware"
	"github.com/mind-engage/testforge/internal/exam"
	"github.com/mind-engage/testforge/internal/rbac"
	"github.com/mind-engage/testforge/internal/storage"
)

type Deps struct {
	Service *exam.Service
	Auth    *auth.AuthService
	Blobs   storage.BlobStore
	Events  EventSource // optional

	// Login is nil when local login is disabled.
	Login *auth.LoginOptions

	CORSOrigins    []string
	MaxUploadBytes int64
	Timeout        time.Duration
}

func NewRouter(d Deps) chi.Router {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 25 << 20
	}
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Login != nil {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, *d.Login))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermTestPublish)).
			Post("/tests", PublishTestHandler(d.Service, d.MaxUploadBytes))
		pr.With(rbac.Require(rbac.PermTestView)).
			Get("/tests/{testID}", GetTestHandler(d.Service))
		pr.With(rbac.Require(rbac.PermTestViewKey)).
			Get("/tests/{testID}/key", GetKeyHandler(d.Service))

		pr.With(rbac.Require(rbac.PermTestPublish)).
			Post("/transform", TransformHandler(d.MaxUploadBytes))
		pr.With(rbac.Require(rbac.PermTestPublish)).
			Post("/transform/markup", TransformMarkupHandler())

		pr.With(rbac.Require(rbac.PermSubmissionCreate)).
			Post("/tests/{testID}/sections/{sectionID}/submissions", SubmitHandler(d.Service))
		pr.With(rbac.RequireAny(rbac.PermSubmissionViewOwn, rbac.PermSubmissionViewAll)).
			Get("/submissions/{submissionID}", GetSubmissionHandler(d.Service))
		pr.With(
			rbac.RequireAny(rbac.PermSubmissionCreate, rbac.PermSubmissionViewAll),
			rbac.RequireOwnerOr(rbac.PermSubmissionViewAll, IsProgressOwner),
		).Get("/tests/{testID}/progress", ProgressHandler(d.Service))

		if d.Blobs != nil {
			pr.With(rbac.Require(rbac.PermRecordingUpload)).
				Post("/tests/{testID}/sections/{sectionID}/recordings", UploadRecordingHandler(d.Service, d.Blobs, d.MaxUploadBytes))
			pr.With(rbac.Require(rbac.PermSubmissionViewAll)).
				Get("/recordings/*", GetRecordingHandler(d.Blobs))
		}
		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventsRead)).
				Get("/events", ListEventsHandler(d.Events))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
