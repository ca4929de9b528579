package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow-api/internal/auth"
	"github.com/BuzzLyutic/taskflow-api/internal/handler"
)

// RouterDeps is everything the HTTP layer needs; the store behind the services is opaque here.
type RouterDeps struct {
	Tasks       handler.TaskService
	Users       handler.UserService
	Logger      *zap.Logger
	FrontendURL string
	OwnerID     string
	Version     string
	Started     time.Time
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter() // Создаем роутер
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handler.NewHealthHandler(d.Version, d.Started)
	tasks := handler.NewTaskHandler(d.Tasks, d.Logger)
	users := handler.NewUserHandler(d.Users, d.Logger)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/", health.Root)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Health)
		r.Route("/tasks", func(r chi.Router) {
			r.Use(auth.StubOwner(d.OwnerID))
			tasks.Routes(r)
		})
		r.Route("/users", users.Routes)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
