package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexbrief/lexbrief/internal/middleware"
	"github.com/lexbrief/lexbrief/internal/service"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Analyze   *AnalyzeHandler
	Analyses  *AnalysisHandler
	Usage     *UsageHandler
	APIKeys   *APIKeyHandler
	Keys      *service.APIKeyService
	JWTSecret []byte

	RateLimitWindow time.Duration
	RateLimitMax    int
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	analyzeLimit := middleware.RateLimit(deps.RateLimitWindow, deps.RateLimitMax)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/documents/analyze", analyzeLimit, deps.Analyze.Analyze)
	authGroup.GET("/analyses", deps.Analyses.List)
	authGroup.GET("/analyses/:id", deps.Analyses.Get)
	authGroup.GET("/analyses/:id/export", deps.Analyses.Export)
	authGroup.GET("/usage", deps.Usage.Overview)
	authGroup.POST("/apikeys", deps.APIKeys.Create)
	authGroup.GET("/apikeys", deps.APIKeys.List)
	authGroup.DELETE("/apikeys/:id", deps.APIKeys.Revoke)

	extGroup := api.Group("/ext")
	extGroup.Use(middleware.APIKeyAuth(deps.Keys))
	extGroup.POST("/analyze", analyzeLimit, deps.Analyze.Analyze)
}
