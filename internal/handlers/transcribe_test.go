package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/calehb/fieldguide-backend/internal/apierr"
)

type fakeTranscriptionService struct {
	text    string
	err     error
	calls   int
	lastLen int
}

func (f *fakeTranscriptionService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	f.calls++
	f.lastLen = len(audio)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeTranscriptionService) Close() error { return nil }

type fakeBucketService struct {
	uploadErr   error
	uploadCalls int
	lastKey     string
}

func (f *fakeBucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	f.uploadCalls++
	f.lastKey = key
	return f.uploadErr
}

func (f *fakeBucketService) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newTranscribeRouter(t *testing.T, h *TranscribeHandler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withSession(uuid.New(), "member"))
	r.POST("/api/transcribe", h.Transcribe)
	return r
}

func multipartAudio(t *testing.T, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("audio", "capture.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func TestTranscribeReturnsText(t *testing.T) {
	transcription := &fakeTranscriptionService{text: "competitor raised prices"}
	bucket := &fakeBucketService{}
	h := NewTranscribeHandler(testLogger(t), transcription, bucket)
	r := newTranscribeRouter(t, h)

	body, contentType := multipartAudio(t, []byte("audio-bytes"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Text     string `json:"text"`
		AudioURL string `json:"audioUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Text != "competitor raised prices" {
		t.Fatalf("text: got %q", resp.Text)
	}
	if resp.AudioURL == "" {
		t.Fatalf("expected archived audio url")
	}
	if transcription.lastLen != len("audio-bytes") {
		t.Fatalf("payload length: got %d", transcription.lastLen)
	}
	if bucket.uploadCalls != 1 {
		t.Fatalf("archive uploads: want=1 got=%d", bucket.uploadCalls)
	}
}

func TestTranscribeUpstreamFailureIs502(t *testing.T) {
	transcription := &fakeTranscriptionService{err: apierr.Upstream(errors.New("speech recognize: unavailable"))}
	h := NewTranscribeHandler(testLogger(t), transcription, nil)
	r := newTranscribeRouter(t, h)

	body, contentType := multipartAudio(t, []byte("audio"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: want=502 got=%d", w.Code)
	}
	var envelope ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if envelope.Error.Code != "upstream_failed" {
		t.Fatalf("error code: want=upstream_failed got=%s", envelope.Error.Code)
	}
}

func TestTranscribeBucketOutageDoesNotBlockTranscript(t *testing.T) {
	transcription := &fakeTranscriptionService{text: "still works"}
	bucket := &fakeBucketService{uploadErr: errors.New("gcs unavailable")}
	h := NewTranscribeHandler(testLogger(t), transcription, bucket)
	r := newTranscribeRouter(t, h)

	body, contentType := multipartAudio(t, []byte("audio"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["text"] != "still works" {
		t.Fatalf("text: got %v", resp["text"])
	}
	if _, present := resp["audioUrl"]; present {
		t.Fatalf("audioUrl must be omitted when archival fails")
	}
}

func TestTranscribeMissingAudioIs400(t *testing.T) {
	h := NewTranscribeHandler(testLogger(t), &fakeTranscriptionService{}, nil)
	r := newTranscribeRouter(t, h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", bytes.NewBufferString(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", w.Code)
	}
}
