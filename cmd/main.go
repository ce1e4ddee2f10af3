package main

import (
  "fmt"
  "os"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/utils"
  "github.com/calehb/fieldguide-backend/internal/db"
  "github.com/calehb/fieldguide-backend/internal/repos"
  "github.com/calehb/fieldguide-backend/internal/services"
  "github.com/calehb/fieldguide-backend/internal/handlers"
  "github.com/calehb/fieldguide-backend/internal/middleware"
  "github.com/calehb/fieldguide-backend/internal/server"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  speechLanguage := utils.GetEnv("SPEECH_LANGUAGE_CODE", "en-US", log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  documentVersionRepo := repos.NewDocumentVersionRepo(thePG, log)
  contributionRepo := repos.NewContributionRepo(thePG, log)
  aiCallLogRepo := repos.NewAICallLogRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  bucketService, err := services.NewBucketService(log)
  if err != nil {
    log.Warn("Could not init BucketService, capture audio will not be archived", "error", err)
    bucketService = nil
  }
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  transcriptionService, err := services.NewTranscriptionService(log, speechLanguage)
  if err != nil {
    log.Error("Could not init TranscriptionService", "error", err)
    os.Exit(1)
  }
  defer transcriptionService.Close()
  documentService := services.NewDocumentService(thePG, log, documentVersionRepo)
  contributionService := services.NewContributionService(thePG, log, contributionRepo, services.DefaultAutoPublishPolicy)
  contentService := services.NewContentService(thePG, log, openaiClient, aiCallLogRepo)

  // Handlers
  log.Info("Setting up handlers from main...")
  documentHandler := handlers.NewDocumentHandler(log, documentService)
  contributionHandler := handlers.NewContributionHandler(log, contributionService)
  transcribeHandler := handlers.NewTranscribeHandler(log, transcriptionService, bucketService)
  contentHandler := handlers.NewContentHandler(log, contentService)

  // Middleware
  log.Info("Setting up middleware from main...")
  sessionMiddleware := middleware.NewSessionMiddleware(log, jwtSecretKey)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    SessionMiddleware:   sessionMiddleware,
    DocumentHandler:     documentHandler,
    ContributionHandler: contributionHandler,
    TranscribeHandler:   transcribeHandler,
    ContentHandler:      contentHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
