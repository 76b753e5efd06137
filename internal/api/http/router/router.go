package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FilmThanapol/caloriemate-go/internal/api/http/handler"
	"github.com/FilmThanapol/caloriemate-go/internal/api/http/middleware"
	"github.com/FilmThanapol/caloriemate-go/internal/config"
	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/realtime"
	"github.com/FilmThanapol/caloriemate-go/internal/service"
)

// Router wires services into the HTTP surface: JSON endpoints for auth,
// meals and settings, plus the events websocket.
type Router struct {
	authService     *service.Auth
	mealService     *service.Meal
	settingsService *service.Settings
	tokenService    *service.TokenService
	hub             *realtime.Hub
	rate            config.Rate
	logger          *logger.Logger
}

func New(
	authService *service.Auth,
	mealService *service.Meal,
	settingsService *service.Settings,
	tokenService *service.TokenService,
	hub *realtime.Hub,
	rate config.Rate,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:     authService,
		mealService:     mealService,
		settingsService: settingsService,
		tokenService:    tokenService,
		hub:             hub,
		rate:            rate,
		logger:          logger,
	}
}

// Register builds the routing table with logging on everything, rate
// limiting on the credential endpoints and token auth on the rest.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.logger)
	ratelimit := middleware.NewRateLimit(r.rate.RequestsPerSecond, r.rate.Burst)

	authHandler := handler.NewAuth(r.authService, r.logger)
	mealHandler := handler.NewMeal(r.mealService, r.logger)
	settingsHandler := handler.NewSettings(r.settingsService, r.logger)
	eventsHandler := handler.NewEvents(r.hub, r.logger)

	mux := chi.NewRouter()
	mux.Use(logging.Handle)

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Group(func(g chi.Router) {
		g.Use(ratelimit.Handle)
		g.Post("/api/auth/register", authHandler.HandleRegister)
		g.Post("/api/auth/login", authHandler.HandleLogin)
		g.Post("/api/auth/refresh", authHandler.HandleRefresh)
		g.Post("/api/auth/logout", authHandler.HandleLogout)
	})

	mux.Group(func(g chi.Router) {
		g.Use(authenticate.Handle)

		g.Route("/api/meals", func(g chi.Router) {
			g.Get("/", mealHandler.HandleList)
			g.Post("/", mealHandler.HandleCreate)
			g.Get("/{meal_id}", mealHandler.HandleGet)
			g.Patch("/{meal_id}", mealHandler.HandleUpdate)
			g.Delete("/{meal_id}", mealHandler.HandleDelete)
			g.Put("/{meal_id}/photo", mealHandler.HandleAttachPhoto)
			g.Get("/{meal_id}/photo", mealHandler.HandlePhoto)
		})

		g.Get("/api/settings", settingsHandler.HandleGet)
		g.Patch("/api/settings", settingsHandler.HandleUpdate)

		g.Get("/api/events", eventsHandler.HandleEvents)
	})

	return mux
}
