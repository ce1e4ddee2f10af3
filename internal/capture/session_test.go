package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/calehb/fieldguide-backend/internal/logger"
)

type fakeDevice struct {
	acquireErr   error
	acquireCalls int
	releaseCalls int
}

func (d *fakeDevice) Acquire(ctx context.Context) error {
	d.acquireCalls++
	return d.acquireErr
}

func (d *fakeDevice) Release() {
	d.releaseCalls++
}

type fakeTranscriber struct {
	text    string
	err     error
	calls   int
	lastLen int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	f.calls++
	f.lastLen = len(audio)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newTestSession(t *testing.T, device *fakeDevice, transcriber *fakeTranscriber) *Session {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return NewSession(log, device, transcriber, "audio/webm")
}

func TestStartPermissionDeniedStaysIdle(t *testing.T) {
	device := &fakeDevice{acquireErr: ErrPermissionDenied}
	s := newTestSession(t, device, &fakeTranscriber{})

	err := s.Start(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("state after denial: want=idle got=%s", s.State())
	}
	if s.Permission() != PermissionDenied {
		t.Fatalf("permission: want=denied got=%s", s.Permission())
	}
	if device.releaseCalls != 0 {
		t.Fatalf("nothing to release after failed acquire, got %d releases", device.releaseCalls)
	}
}

func TestStartStopTranscribesAndAppendsToDraft(t *testing.T) {
	device := &fakeDevice{}
	transcriber := &fakeTranscriber{text: "competitor raised prices"}
	s := newTestSession(t, device, transcriber)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != StateRecording {
		t.Fatalf("state: want=recording got=%s", s.State())
	}
	if s.Permission() != PermissionGranted {
		t.Fatalf("permission: want=granted got=%s", s.Permission())
	}

	s.AppendChunk([]byte("abc"))
	s.AppendChunk([]byte("def"))

	draft, err := s.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if draft != "competitor raised prices" {
		t.Fatalf("draft: got %q", draft)
	}
	if transcriber.lastLen != 6 {
		t.Fatalf("payload length: want=6 got=%d", transcriber.lastLen)
	}
	if device.releaseCalls != 1 {
		t.Fatalf("device releases: want=1 got=%d", device.releaseCalls)
	}
	if s.State() != StateIdle {
		t.Fatalf("state after stop: want=idle got=%s", s.State())
	}
	if s.ElapsedSeconds() != 0 {
		t.Fatalf("elapsed must reset after stop, got %d", s.ElapsedSeconds())
	}
}

func TestStopAppendsToExistingTypedDraft(t *testing.T) {
	device := &fakeDevice{}
	transcriber := &fakeTranscriber{text: "and shipped a new feature"}
	s := newTestSession(t, device, transcriber)
	ctx := context.Background()

	s.SetDraft("Competitor X raised prices")

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.AppendChunk([]byte("audio"))
	draft, err := s.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	want := "Competitor X raised prices\nand shipped a new feature"
	if draft != want {
		t.Fatalf("draft append: want=%q got=%q", want, draft)
	}
}

func TestTranscriptionFailurePreservesDraftAndReleasesDevice(t *testing.T) {
	device := &fakeDevice{}
	transcriber := &fakeTranscriber{err: errors.New("upstream 503")}
	s := newTestSession(t, device, transcriber)
	ctx := context.Background()

	s.SetDraft("typed so far")

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.AppendChunk([]byte("audio"))
	draft, err := s.Stop(ctx)
	if err == nil {
		t.Fatalf("expected transcription error")
	}
	if draft != "typed so far" {
		t.Fatalf("typed draft lost on failure: got %q", draft)
	}
	if device.releaseCalls != 1 {
		t.Fatalf("device must be released on the error path, got %d releases", device.releaseCalls)
	}
	if s.State() != StateIdle {
		t.Fatalf("state after failed stop: want=idle got=%s", s.State())
	}
}

func TestStopWithEmptyPayloadSkipsTranscriber(t *testing.T) {
	device := &fakeDevice{}
	transcriber := &fakeTranscriber{text: "should not appear"}
	s := newTestSession(t, device, transcriber)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	draft, err := s.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if transcriber.calls != 0 {
		t.Fatalf("transcriber called for empty payload")
	}
	if draft != "" {
		t.Fatalf("draft: want empty got %q", draft)
	}
	if device.releaseCalls != 1 {
		t.Fatalf("device releases: want=1 got=%d", device.releaseCalls)
	}
}

func TestDoubleStartRejected(t *testing.T) {
	device := &fakeDevice{}
	s := newTestSession(t, device, &fakeTranscriber{})
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Fatalf("expected second Start to fail while recording")
	}
	if device.acquireCalls != 1 {
		t.Fatalf("device acquired twice")
	}
	s.Abort()
}

func TestAbortReleasesDeviceWithoutTranscription(t *testing.T) {
	device := &fakeDevice{}
	transcriber := &fakeTranscriber{text: "nope"}
	s := newTestSession(t, device, transcriber)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.AppendChunk([]byte("audio"))
	s.Abort()

	if transcriber.calls != 0 {
		t.Fatalf("abort must not transcribe")
	}
	if device.releaseCalls != 1 {
		t.Fatalf("device releases: want=1 got=%d", device.releaseCalls)
	}
	if s.State() != StateIdle {
		t.Fatalf("state after abort: want=idle got=%s", s.State())
	}
}

func TestChunksOutsideRecordingAreDropped(t *testing.T) {
	device := &fakeDevice{}
	transcriber := &fakeTranscriber{text: "t"}
	s := newTestSession(t, device, transcriber)
	ctx := context.Background()

	s.AppendChunk([]byte("before start"))

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.AppendChunk([]byte("ok"))
	if _, err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if transcriber.lastLen != 2 {
		t.Fatalf("payload should only contain in-session chunks, got %d bytes", transcriber.lastLen)
	}
}
