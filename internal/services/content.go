package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/calehb/fieldguide-backend/internal/apierr"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/repos"
  "github.com/calehb/fieldguide-backend/internal/types"
)

type DraftKind string

const (
  DraftKindIdea    DraftKind = "idea"
  DraftKindArticle DraftKind = "article"
  DraftKindBrief   DraftKind = "brief"
)

func ParseDraftKind(s string) (DraftKind, bool) {
  switch DraftKind(s) {
  case DraftKindIdea, DraftKindArticle, DraftKindBrief:
    return DraftKind(s), true
  }
  return "", false
}

type ContentDraft struct {
  Title string `json:"title"`
  Body  string `json:"body"`
}

type ContentService interface {
  GenerateDraft(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, kind string, topic string, audience string) (*ContentDraft, error)
}

type contentService struct {
  db            *gorm.DB
  log           *logger.Logger
  openaiClient  OpenAIClient
  aiCallLogRepo repos.AICallLogRepo
}

func NewContentService(db *gorm.DB, baseLog *logger.Logger, openaiClient OpenAIClient, aiCallLogRepo repos.AICallLogRepo) ContentService {
  serviceLog := baseLog.With("service", "ContentService")
  return &contentService{
    db:            db,
    log:           serviceLog,
    openaiClient:  openaiClient,
    aiCallLogRepo: aiCallLogRepo,
  }
}

var draftSchema = map[string]any{
  "type": "object",
  "properties": map[string]any{
    "title": map[string]any{"type": "string"},
    "body":  map[string]any{"type": "string"},
  },
  "required":             []string{"title", "body"},
  "additionalProperties": false,
}

func draftSystemPrompt(kind DraftKind) string {
  switch kind {
  case DraftKindIdea:
    return "You write short, punchy content ideas for a B2B sales-enablement team. Return a title and a one-paragraph pitch."
  case DraftKindArticle:
    return "You draft long-form marketing articles for a B2B sales-enablement team. Return a title and a complete article body in markdown."
  default:
    return "You write internal innovation briefs for a B2B sales-enablement team. Return a title and a structured brief body."
  }
}

func (cs *contentService) GenerateDraft(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, kind string, topic string, audience string) (*ContentDraft, error) {
  draftKind, ok := ParseDraftKind(kind)
  if !ok {
    return nil, apierr.Validation("kind must be one of idea, article, brief; got %q", kind)
  }
  if strings.TrimSpace(topic) == "" {
    return nil, apierr.Validation("topic is required")
  }

  userPrompt := fmt.Sprintf("Topic: %s", topic)
  if strings.TrimSpace(audience) != "" {
    userPrompt = fmt.Sprintf("%s\nAudience: %s", userPrompt, audience)
  }

  start := time.Now()
  obj, err := cs.openaiClient.GenerateJSON(ctx, draftSystemPrompt(draftKind), userPrompt, "content_draft", draftSchema)
  latency := time.Since(start).Milliseconds()

  logRow := &types.AICallLog{
    UserID:    userID,
    CallType:  fmt.Sprintf("content_draft_%s", draftKind),
    Model:     cs.openaiClient.Model(),
    Prompt:    userPrompt,
    Success:   err == nil,
    LatencyMS: latency,
  }
  if err != nil {
    logRow.Error = err.Error()
  }
  if _, logErr := cs.aiCallLogRepo.Create(ctx, tx, []*types.AICallLog{logRow}); logErr != nil {
    cs.log.Warn("Failed to record AI call log", "error", logErr)
  }

  if err != nil {
    cs.log.Error("GenerateDraft failed", "error", err, "kind", draftKind)
    return nil, apierr.Upstream(fmt.Errorf("generate draft: %w", err))
  }

  title, _ := obj["title"].(string)
  body, _ := obj["body"].(string)
  if strings.TrimSpace(body) == "" {
    return nil, apierr.Upstream(fmt.Errorf("model returned empty draft body"))
  }
  return &ContentDraft{Title: title, Body: body}, nil
}
