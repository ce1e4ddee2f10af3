package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/calehb/fieldguide-backend/internal/handlers"
  "github.com/calehb/fieldguide-backend/internal/middleware"
)

type RouterConfig struct {
  SessionMiddleware   *middleware.SessionMiddleware
  DocumentHandler     *handlers.DocumentHandler
  ContributionHandler *handlers.ContributionHandler
  TranscribeHandler   *handlers.TranscribeHandler
  ContentHandler      *handlers.ContentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)

// ===============
// || Protected ||
// ===============
  api := router.Group("/api")
  api.Use(cfg.SessionMiddleware.RequireSession())
  // Documents
  api.GET("/documents/:kind", cfg.DocumentHandler.GetCurrent)
  api.POST("/documents/:kind", cfg.DocumentHandler.Save)
  api.GET("/documents/:kind/versions", cfg.DocumentHandler.ListVersions)
  api.POST("/documents/:kind/versions", cfg.DocumentHandler.Restore)
  // Contributions
  api.GET("/contributions", cfg.ContributionHandler.List)
  api.POST("/contributions", cfg.ContributionHandler.Submit)
  api.PATCH("/contributions/:id", cfg.SessionMiddleware.RequireAdmin(), cfg.ContributionHandler.Review)
  // Voice capture
  api.POST("/transcribe", cfg.TranscribeHandler.Transcribe)
  // AI drafts
  api.POST("/content/drafts", cfg.ContentHandler.GenerateDraft)

  return router
}
