package handlers

import (
  "encoding/json"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "github.com/calehb/fieldguide-backend/internal/apierr"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/requestdata"
  "github.com/calehb/fieldguide-backend/internal/services"
  "github.com/calehb/fieldguide-backend/internal/types"
)

type DocumentHandler struct {
  log             *logger.Logger
  documentService services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, documentService services.DocumentService) *DocumentHandler {
  return &DocumentHandler{
    log:             log.With("handler", "DocumentHandler"),
    documentService: documentService,
  }
}

func parseKindParam(c *gin.Context) (types.DocumentKind, bool) {
  kind, ok := types.ParseDocumentKind(c.Param("kind"))
  if !ok {
    RespondAPIError(c, apierr.Validation("unknown document kind %q", c.Param("kind")))
    return "", false
  }
  return kind, true
}

func authorID(c *gin.Context) *uuid.UUID {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    return nil
  }
  id := rd.UserID
  return &id
}

// GET /api/documents/:kind
func (h *DocumentHandler) GetCurrent(c *gin.Context) {
  kind, ok := parseKindParam(c)
  if !ok {
    return
  }
  current, err := h.documentService.GetCurrent(c.Request.Context(), nil, kind)
  if err != nil {
    RespondAPIError(c, err)
    return
  }
  RespondOK(c, gin.H{
    "data":             json.RawMessage(current.Content),
    "current_version":  current.VersionNumber,
    "versionCreatedAt": current.CreatedAt,
  })
}

type saveDocumentRequest struct {
  Data        json.RawMessage `json:"data" binding:"required"`
  ChangeNotes string          `json:"changeNotes"`
}

// POST /api/documents/:kind
func (h *DocumentHandler) Save(c *gin.Context) {
  kind, ok := parseKindParam(c)
  if !ok {
    return
  }
  var req saveDocumentRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_failed", err)
    return
  }
  saved, err := h.documentService.Save(c.Request.Context(), nil, kind, datatypes.JSON(req.Data), req.ChangeNotes, authorID(c))
  if err != nil {
    RespondAPIError(c, err)
    return
  }
  RespondOK(c, gin.H{"version": saved.VersionNumber})
}

// GET /api/documents/:kind/versions
func (h *DocumentHandler) ListVersions(c *gin.Context) {
  kind, ok := parseKindParam(c)
  if !ok {
    return
  }
  versions, err := h.documentService.ListVersions(c.Request.Context(), nil, kind)
  if err != nil {
    RespondAPIError(c, err)
    return
  }
  out := make([]gin.H, 0, len(versions))
  for _, v := range versions {
    out = append(out, gin.H{
      "id":             v.ID,
      "version_number": v.VersionNumber,
      "change_notes":   v.ChangeNotes,
      "created_at":     v.CreatedAt,
    })
  }
  RespondOK(c, gin.H{"versions": out})
}

type restoreRequest struct {
  VersionNumber int `json:"versionNumber" binding:"required"`
}

// POST /api/documents/:kind/versions
func (h *DocumentHandler) Restore(c *gin.Context) {
  kind, ok := parseKindParam(c)
  if !ok {
    return
  }
  var req restoreRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_failed", err)
    return
  }
  restored, err := h.documentService.Restore(c.Request.Context(), nil, kind, req.VersionNumber, authorID(c))
  if err != nil {
    RespondAPIError(c, err)
    return
  }
  RespondOK(c, gin.H{"version": restored.VersionNumber})
}
