package handlers

import (
  "bytes"
  "fmt"
  "io"
  "net/http"
  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/calehb/fieldguide-backend/internal/apierr"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/services"
)

// Voice captures are short dictated notes; anything bigger than this is
// not a capture.
const maxAudioUploadBytes = 15 << 20

type TranscribeHandler struct {
  log                  *logger.Logger
  transcriptionService services.TranscriptionService
  bucketService        services.BucketService
}

func NewTranscribeHandler(log *logger.Logger, transcriptionService services.TranscriptionService, bucketService services.BucketService) *TranscribeHandler {
  return &TranscribeHandler{
    log:                  log.With("handler", "TranscribeHandler"),
    transcriptionService: transcriptionService,
    bucketService:        bucketService,
  }
}

// POST /api/transcribe (multipart, field "audio")
func (h *TranscribeHandler) Transcribe(c *gin.Context) {
  fileHeader, err := c.FormFile("audio")
  if err != nil {
    RespondAPIError(c, apierr.Validation("audio file is required"))
    return
  }
  if fileHeader.Size > maxAudioUploadBytes {
    RespondAPIError(c, apierr.Validation("audio upload exceeds %d bytes", maxAudioUploadBytes))
    return
  }

  file, err := fileHeader.Open()
  if err != nil {
    RespondError(c, http.StatusBadRequest, "validation_failed", err)
    return
  }
  defer file.Close()

  audio, err := io.ReadAll(io.LimitReader(file, maxAudioUploadBytes+1))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "validation_failed", err)
    return
  }
  if len(audio) == 0 {
    RespondAPIError(c, apierr.Validation("audio file is empty"))
    return
  }

  // Archive the raw capture before transcribing. Best effort: a bucket
  // outage must not block the transcript.
  var audioURL string
  if h.bucketService != nil {
    key := fmt.Sprintf("captures/%s", uuid.New())
    if err := h.bucketService.UploadFile(c.Request.Context(), key, bytes.NewReader(audio)); err != nil {
      h.log.Warn("Failed to archive capture audio", "error", err, "key", key)
    } else {
      audioURL = h.bucketService.GetPublicURL(key)
    }
  }

  mimeType := fileHeader.Header.Get("Content-Type")
  text, err := h.transcriptionService.Transcribe(c.Request.Context(), audio, mimeType)
  if err != nil {
    RespondAPIError(c, err)
    return
  }
  resp := gin.H{"text": text}
  if audioURL != "" {
    resp["audioUrl"] = audioURL
  }
  RespondOK(c, resp)
}
