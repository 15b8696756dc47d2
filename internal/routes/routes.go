package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/domain/assistant"
	"github.com/FACorreiaa/kanso/internal/app/domain/auth"
	"github.com/FACorreiaa/kanso/internal/app/domain/generation"
	"github.com/FACorreiaa/kanso/internal/app/domain/itineraries"
	"github.com/FACorreiaa/kanso/internal/app/domain/profiles"
	"github.com/FACorreiaa/kanso/internal/app/domain/tools"
	"github.com/FACorreiaa/kanso/internal/app/governance"
	database "github.com/FACorreiaa/kanso/internal/db"
	"github.com/FACorreiaa/kanso/internal/pkg/config"
)

// Dependencies are the process wide components the handlers are built from.
type Dependencies struct {
	Config   *config.Config
	Pool     database.Pool
	Governor *governance.Governor
	Gateway  *generation.Gateway
}

type AppHandlers struct {
	Auth        *auth.AuthHandlers
	Profiles    *profiles.ProfilesHandler
	Itineraries *itineraries.ItinerariesHandler
	Assistant   *assistant.AssistantHandler
	authService auth.AuthService
}

func Setup(r *gin.Engine, deps Dependencies, log *zap.Logger) {
	setupRouter(r, setupDependencies(deps, log), log)
}

func setupDependencies(deps Dependencies, log *zap.Logger) *AppHandlers {
	authRepo := auth.NewPostgresAuthRepo(deps.Pool, log)
	authService := auth.NewAuthService(authRepo, deps.Governor, auth.NewJWTService(deps.Config.JWT), log)

	profilesRepo := profiles.NewPostgresProfilesRepo(deps.Pool, log)
	profilesService := profiles.NewService(profilesRepo, deps.Governor, log)

	itinerariesRepo := itineraries.NewPostgresItinerariesRepo(deps.Pool, log)
	itinerariesService := itineraries.NewService(itinerariesRepo, deps.Gateway, tools.NewDispatcher(log), log)

	return &AppHandlers{
		Auth:        auth.NewAuthHandlers(authService, log),
		Profiles:    profiles.NewProfilesHandler(profilesService, log),
		Itineraries: itineraries.NewItinerariesHandler(itinerariesService, log),
		Assistant:   assistant.NewAssistantHandler(deps.Gateway, log),
		authService: authService,
	}
}

func setupRouter(r *gin.Engine, h *AppHandlers, log *zap.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.SignupHandler)
		authGroup.POST("/login", h.Auth.LoginHandler)
		authGroup.GET("/me", auth.JWTAuthMiddleware(h.authService, log), h.Auth.MeHandler)
	}

	api := r.Group("/api", auth.JWTAuthMiddleware(h.authService, log))
	{
		api.GET("/profile", h.Profiles.GetProfile)
		api.PUT("/profile", h.Profiles.UpdateProfile)

		api.POST("/plan", h.Itineraries.Plan)
		api.POST("/chat", h.Itineraries.Chat)
		api.GET("/itineraries", h.Itineraries.List)
		api.POST("/itineraries", h.Itineraries.Save)
		api.GET("/itineraries/:id", h.Itineraries.Get)
		api.PUT("/itineraries/:id", h.Itineraries.Save)
		api.DELETE("/itineraries/:id", h.Itineraries.Delete)
		api.PATCH("/itineraries/:id/days/:day/activities/:index/booked", h.Itineraries.ToggleBooked)
		api.POST("/itineraries/:id/chat", h.Itineraries.Chat)

		api.POST("/suggestions", h.Assistant.Suggestions)
		api.POST("/speech", h.Assistant.Speech)
		api.GET("/nearby", h.Assistant.Nearby)
	}

	log.Info("Routes registered", zap.Int("count", len(r.Routes())))
}
