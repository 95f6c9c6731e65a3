package http

import (
	"net/http"

	"github.com/atinyakov/GopherQR/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler of the QR code API.
//
// Routes:
//
//	GET    /api/qr                → qrHandler.Generate
//	POST   /api/qr/bulk           → qrHandler.Bulk
//	GET    /api/qr/by-user        → qrHandler.ByUser
//	GET    /api/qr/request-count  → qrHandler.RequestCount
//	POST   /api/qr/reset-count    → qrHandler.ResetCount
//	GET    /api/qr/{id}           → qrHandler.Get
//	PUT    /api/qr/{id}           → qrHandler.Update
//	DELETE /api/qr/{id}           → qrHandler.Delete
//	GET    /api/users             → userHandler.List
//	POST   /api/users             → userHandler.Create
//	GET    /api/users/{id}        → userHandler.Get
//	PUT    /api/users/{id}        → userHandler.Update
//	DELETE /api/users/{id}        → userHandler.Delete
//	GET    /metrics               → prometheus exposition
//
// Every /api request is counted in qrHandler.Counter.
func NewRouter(
	qrHandler *QrHandler,
	userHandler *UserHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CountRequests(qrHandler.Counter))

		r.Route("/qr", func(r chi.Router) {
			r.Get("/", qrHandler.Generate)
			r.Post("/bulk", qrHandler.Bulk)
			r.Get("/by-user", qrHandler.ByUser)
			r.Get("/request-count", qrHandler.RequestCount)
			r.Post("/reset-count", qrHandler.ResetCount)
			r.Get("/{id}", qrHandler.Get)
			r.Put("/{id}", qrHandler.Update)
			r.Delete("/{id}", qrHandler.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
		})
	})

	return r
}
