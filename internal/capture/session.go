package capture

import (
  "bytes"
  "context"
  "errors"
  "fmt"
  "sync"
  "time"

  "github.com/calehb/fieldguide-backend/internal/logger"
)

type State string

const (
  StateIdle         State = "idle"
  StateRecording    State = "recording"
  StateTranscribing State = "transcribing"
)

type Permission string

const (
  PermissionPrompt  Permission = "prompt"
  PermissionGranted Permission = "granted"
  PermissionDenied  Permission = "denied"
)

// ErrPermissionDenied is returned by a Device when the user or OS refuses
// microphone access. Devices must return it (wrapped or not) so the
// session can surface a denial without treating it as a crash.
var ErrPermissionDenied = errors.New("microphone permission denied")

// Device is one acquirable capture resource.
type Device interface {
  Acquire(ctx context.Context) error
  Release()
}

// Transcriber turns a finished audio payload into text.
// services.TranscriptionService satisfies this.
type Transcriber interface {
  Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Session is one voice capture: acquire the device, buffer chunks, stop,
// transcribe, append to the draft. The draft is only ever appended to;
// a failed transcription leaves whatever the user already typed intact.
// A session never submits anything itself.
type Session struct {
  log         *logger.Logger
  device      Device
  transcriber Transcriber
  mimeType    string

  mu         sync.Mutex
  state      State
  permission Permission
  chunks     [][]byte
  elapsedSec int
  draft      string

  tickerStop chan struct{}
}

func NewSession(log *logger.Logger, device Device, transcriber Transcriber, mimeType string) *Session {
  if mimeType == "" {
    mimeType = "audio/webm"
  }
  return &Session{
    log:         log.With("component", "CaptureSession"),
    device:      device,
    transcriber: transcriber,
    mimeType:    mimeType,
    state:       StateIdle,
    permission:  PermissionPrompt,
  }
}

func (s *Session) State() State {
  s.mu.Lock()
  defer s.mu.Unlock()
  return s.state
}

func (s *Session) Permission() Permission {
  s.mu.Lock()
  defer s.mu.Unlock()
  return s.permission
}

func (s *Session) ElapsedSeconds() int {
  s.mu.Lock()
  defer s.mu.Unlock()
  return s.elapsedSec
}

func (s *Session) Draft() string {
  s.mu.Lock()
  defer s.mu.Unlock()
  return s.draft
}

// SetDraft replaces the typed portion of the draft. Used when the user
// edits the text box directly.
func (s *Session) SetDraft(text string) {
  s.mu.Lock()
  defer s.mu.Unlock()
  s.draft = text
}

// Start acquires the device and begins buffering. A permission denial is
// an ordinary outcome: the session stays idle, records the denial, and
// returns the error for display.
func (s *Session) Start(ctx context.Context) error {
  s.mu.Lock()
  if s.state != StateIdle {
    s.mu.Unlock()
    return fmt.Errorf("capture already in progress (state %s)", s.state)
  }
  s.mu.Unlock()

  if err := s.device.Acquire(ctx); err != nil {
    if errors.Is(err, ErrPermissionDenied) {
      s.mu.Lock()
      s.permission = PermissionDenied
      s.mu.Unlock()
      s.log.Warn("Microphone permission denied")
      return err
    }
    return fmt.Errorf("acquire capture device: %w", err)
  }

  s.mu.Lock()
  s.permission = PermissionGranted
  s.state = StateRecording
  s.chunks = nil
  s.elapsedSec = 0
  s.tickerStop = make(chan struct{})
  s.mu.Unlock()

  go s.runTicker(s.tickerStop)
  return nil
}

func (s *Session) runTicker(stop chan struct{}) {
  ticker := time.NewTicker(time.Second)
  defer ticker.Stop()
  for {
    select {
    case <-ticker.C:
      s.mu.Lock()
      s.elapsedSec++
      s.mu.Unlock()
    case <-stop:
      return
    }
  }
}

// AppendChunk buffers one chunk of captured audio. Chunks arriving
// outside the recording state are dropped.
func (s *Session) AppendChunk(chunk []byte) {
  if len(chunk) == 0 {
    return
  }
  s.mu.Lock()
  defer s.mu.Unlock()
  if s.state != StateRecording {
    return
  }
  buf := make([]byte, len(chunk))
  copy(buf, chunk)
  s.chunks = append(s.chunks, buf)
}

// Stop halts capture and runs transcription on the buffered payload.
// The device is released and the elapsed counter reset on every exit
// path. Returns the draft after any successful append.
func (s *Session) Stop(ctx context.Context) (string, error) {
  s.mu.Lock()
  if s.state != StateRecording {
    state := s.state
    s.mu.Unlock()
    return s.Draft(), fmt.Errorf("no capture in progress (state %s)", state)
  }
  close(s.tickerStop)
  s.tickerStop = nil
  payload := bytes.Join(s.chunks, nil)
  s.chunks = nil
  s.elapsedSec = 0
  s.state = StateTranscribing
  s.mu.Unlock()

  defer s.device.Release()
  defer func() {
    s.mu.Lock()
    s.state = StateIdle
    s.mu.Unlock()
  }()

  if len(payload) == 0 {
    s.log.Debug("Capture stopped with empty payload, skipping transcription")
    return s.Draft(), nil
  }

  text, err := s.transcriber.Transcribe(ctx, payload, s.mimeType)
  if err != nil {
    s.log.Error("Transcription failed, draft preserved", "error", err)
    return s.Draft(), fmt.Errorf("transcribe capture: %w", err)
  }

  s.mu.Lock()
  if text != "" {
    if s.draft != "" {
      s.draft = s.draft + "\n" + text
    } else {
      s.draft = text
    }
  }
  draft := s.draft
  s.mu.Unlock()
  return draft, nil
}

// Abort releases the device without transcribing, for teardown when the
// user navigates away mid-recording.
func (s *Session) Abort() {
  s.mu.Lock()
  if s.state != StateRecording {
    s.mu.Unlock()
    return
  }
  close(s.tickerStop)
  s.tickerStop = nil
  s.chunks = nil
  s.elapsedSec = 0
  s.state = StateIdle
  s.mu.Unlock()
  s.device.Release()
}
