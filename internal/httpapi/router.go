package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"eventmarket/internal/api"
	"eventmarket/internal/booking"
	"eventmarket/internal/review"
	"eventmarket/internal/vendor"
	"eventmarket/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool
	Log *zap.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(api.RequestLogger(deps.Log))
	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: deps.Cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Actor-Id", "X-Actor-Role"},
		MaxAgeSeconds:  600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	validate := validator.New()

	directory := vendor.NewRepository(deps.DB)
	bookingStore := booking.NewRepository(deps.DB)
	engine := booking.NewEngine(bookingStore, directory, deps.Log)

	bookingHandlers := booking.Handlers{Engine: engine, DB: deps.DB, Validate: validate}
	vendorHandlers := vendor.Handlers{Directory: directory, Validate: validate}
	reviewHandlers := review.Handlers{
		Engine:   engine,
		Reviews:  review.NewRepository(deps.DB),
		Validate: validate,
	}

	r.Route("/v1", func(r chi.Router) {
		// Public directory browsing and reviews.
		r.Get("/vendors", vendorHandlers.Browse)
		r.Get("/vendors/{id}", vendorHandlers.Get)
		r.Get("/vendors/{id}/reviews", reviewHandlers.ListByVendor)

		// Actor-scoped APIs.
		r.Group(func(r chi.Router) {
			r.Use(api.ActorAuth(deps.Cfg))

			r.Post("/bookings", bookingHandlers.Create)
			r.Get("/bookings", bookingHandlers.List)
			r.Get("/bookings/{id}", bookingHandlers.Get)
			r.Get("/bookings/{id}/candidates", bookingHandlers.Candidates)
			r.Post("/bookings/{id}/assign", bookingHandlers.Assign)
			r.Post("/bookings/{id}/respond", bookingHandlers.Respond)
			r.Post("/bookings/{id}/cancel", bookingHandlers.Cancel)
			r.Post("/bookings/{id}/complete", bookingHandlers.Complete)
			r.Post("/bookings/{id}/payment", bookingHandlers.Payment)
			r.Get("/bookings/{id}/history", bookingHandlers.History)

			r.Get("/dashboard", bookingHandlers.Dashboard)

			r.Post("/vendors/{id}/bookings", bookingHandlers.CreateDirect)
			r.Post("/vendors/{id}/reviews", reviewHandlers.Create)
			r.Put("/vendors/profile", vendorHandlers.PutProfile)
		})
	})

	return r
}
