package handlers

import (
  "net/http"
  "strconv"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/calehb/fieldguide-backend/internal/apierr"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/requestdata"
  "github.com/calehb/fieldguide-backend/internal/services"
)

type ContributionHandler struct {
  log                 *logger.Logger
  contributionService services.ContributionService
}

func NewContributionHandler(log *logger.Logger, contributionService services.ContributionService) *ContributionHandler {
  return &ContributionHandler{
    log:                 log.With("handler", "ContributionHandler"),
    contributionService: contributionService,
  }
}

// GET /api/contributions?view=pending|all|my
func (h *ContributionHandler) List(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }

  view := c.DefaultQuery("view", "my")
  switch view {
  case "pending":
    if !rd.IsAdmin() {
      RespondError(c, http.StatusForbidden, "forbidden", nil)
      return
    }
    contributions, err := h.contributionService.ListPending(c.Request.Context(), nil)
    if err != nil {
      RespondAPIError(c, err)
      return
    }
    RespondOK(c, gin.H{"contributions": contributions})
  case "all":
    if !rd.IsAdmin() {
      RespondError(c, http.StatusForbidden, "forbidden", nil)
      return
    }
    contributions, err := h.contributionService.ListAll(c.Request.Context(), nil)
    if err != nil {
      RespondAPIError(c, err)
      return
    }
    RespondOK(c, gin.H{"contributions": contributions})
  case "my":
    contributions, err := h.contributionService.ListMine(c.Request.Context(), nil, rd.UserID)
    if err != nil {
      RespondAPIError(c, err)
      return
    }
    RespondOK(c, gin.H{"contributions": contributions})
  default:
    RespondAPIError(c, apierr.Validation("view must be pending, all or my; got %q", view))
  }
}

type submitContributionRequest struct {
  TargetType       string  `json:"targetType" binding:"required"`
  TargetSection    *string `json:"targetSection"`
  ContributionType string  `json:"contributionType" binding:"required"`
  Content          string  `json:"content"`
  IsAnonymous      bool    `json:"isAnonymous"`
}

// POST /api/contributions
func (h *ContributionHandler) Submit(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  var req submitContributionRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_failed", err)
    return
  }
  userID := rd.UserID
  result, err := h.contributionService.Submit(c.Request.Context(), nil, &userID, req.TargetType, req.TargetSection, req.ContributionType, req.Content, req.IsAnonymous)
  if err != nil {
    RespondAPIError(c, err)
    return
  }
  RespondOK(c, result)
}

type reviewContributionRequest struct {
  Status      string  `json:"status" binding:"required"`
  ReviewNotes *string `json:"reviewNotes"`
}

// PATCH /api/contributions/:id
func (h *ContributionHandler) Review(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return
  }
  if !rd.IsAdmin() {
    RespondError(c, http.StatusForbidden, "forbidden", nil)
    return
  }
  id, err := strconv.ParseInt(c.Param("id"), 10, 64)
  if err != nil {
    RespondAPIError(c, apierr.Validation("contribution id must be numeric; got %q", c.Param("id")))
    return
  }
  var req reviewContributionRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "validation_failed", err)
    return
  }
  updated, err := h.contributionService.Review(c.Request.Context(), nil, id, rd.UserID, req.Status, req.ReviewNotes)
  if err != nil {
    RespondAPIError(c, err)
    return
  }
  RespondOK(c, updated)
}
