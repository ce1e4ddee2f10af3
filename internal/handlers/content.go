package handlers

import (
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/requestdata"
  "github.com/calehb/fieldguide-backend/internal/services"
)

type ContentHandler struct {
  log            *logger.Logger
  contentService services.ContentService
}

func NewContentHandler(log *logger.Logger, contentService services.ContentService) *ContentHandler {
  return &ContentHandler{
    log:            log.With("handler", "ContentHandler"),
    contentService: contentService,
  }
}

type generateDraftRequest struct {
  Kind     string `json:"kind" binding:"required"`
  Topic    string `json:"topic" binding:"required"`
  Audience string `json:"audience"`
}

// POST /api/content/drafts
func (h *ContentHandler) GenerateDraft(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  var req generateDraftRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_failed", err)
    return
  }
  userID := rd.UserID
  draft, err := h.contentService.GenerateDraft(c.Request.Context(), nil, &userID, req.Kind, req.Topic, req.Audience)
  if err != nil {
    RespondAPIError(c, err)
    return
  }
  RespondOK(c, draft)
}
