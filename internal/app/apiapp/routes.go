package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/avolkau/sparkmatch/internal/services/auth"
	"github.com/avolkau/sparkmatch/internal/transport/http/handlers"
)

type Dependencies struct {
	JWTManager   *authsvc.JWTManager
	Sessions     handlers.SessionProvider
	Matches      handlers.MatchLister
	Likes        handlers.LikeLister
	MatchActions handlers.MatchActions
	Photos       handlers.PhotoSigner
	Logger       *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	filtersHandler := handlers.NewFiltersHandler(deps.Sessions)
	candidateHandler := handlers.NewCandidateHandler(deps.Sessions, deps.Photos)
	swipeHandler := handlers.NewSwipeHandler(deps.Sessions)
	quotaHandler := handlers.NewQuotaHandler(deps.Sessions)
	matchesHandler := handlers.NewMatchesHandler(deps.Matches, deps.Likes, deps.MatchActions, deps.Photos)
	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/session/filters", filtersHandler.Apply)
		r.Get("/candidates", candidateHandler.List)
		r.Post("/swipes", swipeHandler.Handle)
		r.Get("/quota", quotaHandler.Get)
		r.Get("/matches", matchesHandler.List)
		r.Delete("/matches/{matchID}", matchesHandler.Unmatch)
		r.Post("/blocks", matchesHandler.Block)
		r.Get("/blocks", matchesHandler.Blocked)
		r.Get("/likes", matchesHandler.Likes)
	})
}
