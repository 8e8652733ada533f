package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/podgate/podgate/internal/audit"
	"github.com/podgate/podgate/internal/classifier"
	"github.com/podgate/podgate/internal/models"
	"github.com/podgate/podgate/internal/policy"
	"github.com/podgate/podgate/internal/testutil"
)

type captureRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureRecorder) Record(ctx context.Context, entry audit.Entry) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *captureRecorder) last(t *testing.T) audit.Entry {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		t.Fatalf("no audit entries recorded")
	}
	return c.entries[len(c.entries)-1]
}

func pngPayload() []byte {
	return append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 16)...)
}

func jpegPayload() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xDB}, make([]byte, 16)...)
}

func newEngine(mock *classifier.Mock, recorder audit.Recorder) *Engine {
	return New(policy.Default(), mock, recorder, testutil.NullLogger())
}

func TestModerateImageReject(t *testing.T) {
	t.Parallel()

	mock := &classifier.Mock{
		Image: &classifier.ImageResult{
			RequestID: "req-1",
			Scores: classifier.FrameScores{
				Nudity: &classifier.NudityScores{SexualDisplay: 0.85},
			},
		},
	}
	recorder := &captureRecorder{}
	eng := newEngine(mock, recorder)

	verdict := eng.Moderate(context.Background(), models.ModerationRequest{
		DeclaredMime: "image/png",
		Payload:      pngPayload(),
		ResourcePath: "/alice/photos/cat.png",
		ActorID:      "https://alice.example/profile#me",
		Method:       models.MethodCreate,
	})

	if !verdict.Rejected() {
		t.Fatalf("expected REJECT, got %+v", verdict)
	}
	if !strings.Contains(verdict.Message(), "nudity") {
		t.Fatalf("message=%q", verdict.Message())
	}

	entry := recorder.last(t)
	if entry.Action != audit.ActionReject {
		t.Fatalf("audit action=%s", entry.Action)
	}
	if entry.Pod != "alice" {
		t.Fatalf("pod=%q", entry.Pod)
	}
	if entry.ContentKind != models.KindImage {
		t.Fatalf("contentKind=%q", entry.ContentKind)
	}
	if entry.ClassifierRequestID != "req-1" {
		t.Fatalf("classifierRequestId=%q", entry.ClassifierRequestID)
	}
	if entry.Scores["nudity"] != 0.85 {
		t.Fatalf("scores=%v", entry.Scores)
	}
}

func TestModerateFailOpen(t *testing.T) {
	t.Parallel()

	mock := &classifier.Mock{ImageErr: errors.New("connection refused")}
	recorder := &captureRecorder{}
	eng := newEngine(mock, recorder)

	verdict := eng.Moderate(context.Background(), models.ModerationRequest{
		DeclaredMime: "image/jpeg",
		Payload:      jpegPayload(),
		ResourcePath: "/bob/pic.jpg",
		Method:       models.MethodReplace,
	})

	if verdict.Rejected() {
		t.Fatalf("classifier failure must fail open, got %+v", verdict)
	}
	if len(verdict.Violations) != 0 {
		t.Fatalf("violations=%+v", verdict.Violations)
	}

	entry := recorder.last(t)
	if entry.Action != audit.ActionError {
		t.Fatalf("audit action=%s", entry.Action)
	}
	if entry.Scores != nil {
		t.Fatalf("scores must be absent on failure, got %v", entry.Scores)
	}
}

func TestModerateUndetectableSkipsClassifier(t *testing.T) {
	t.Parallel()

	mock := &classifier.Mock{}
	recorder := &captureRecorder{}
	eng := newEngine(mock, recorder)

	verdict := eng.Moderate(context.Background(), models.ModerationRequest{
		DeclaredMime: "application/octet-stream",
		Payload:      []byte("just some opaque bytes here"),
		ResourcePath: "/carol/data.bin",
		Method:       models.MethodCreate,
	})

	if verdict.Rejected() {
		t.Fatalf("undetectable content must ALLOW")
	}
	if mock.ImageCategories != nil || mock.VideoCategories != nil || mock.TextInput != "" {
		t.Fatalf("classifier must not be called")
	}
	if recorder.last(t).Action != audit.ActionAllow {
		t.Fatalf("audit action=%s", recorder.last(t).Action)
	}
}

func TestModerateTextPipeline(t *testing.T) {
	t.Parallel()

	mock := &classifier.Mock{
		Text: &classifier.TextResult{
			RequestID: "req-2",
			Classes:   &classifier.TextClasses{Toxic: 0.95},
		},
	}
	recorder := &captureRecorder{}
	eng := newEngine(mock, recorder)

	verdict := eng.Moderate(context.Background(), models.ModerationRequest{
		DeclaredMime: "text/turtle",
		Payload:      []byte(`<#s> <#p> "hello world" .`),
		ResourcePath: "/dave/notes.ttl",
		Method:       models.MethodPatch,
	})

	if mock.TextInput != "hello world" {
		t.Fatalf("classifier received %q", mock.TextInput)
	}
	if !verdict.Rejected() {
		t.Fatalf("expected REJECT for toxic text")
	}
	if recorder.last(t).ContentKind != models.KindText {
		t.Fatalf("contentKind=%q", recorder.last(t).ContentKind)
	}
}

func TestModerateEmptyExtractionSkipsClassifier(t *testing.T) {
	t.Parallel()

	mock := &classifier.Mock{TextErr: errors.New("should not be called")}
	recorder := &captureRecorder{}
	eng := newEngine(mock, recorder)

	verdict := eng.Moderate(context.Background(), models.ModerationRequest{
		DeclaredMime: "text/turtle",
		Payload:      []byte(`<#s> <#p> <#o> .`),
		ResourcePath: "/dave/links.ttl",
		Method:       models.MethodCreate,
	})

	if verdict.Rejected() {
		t.Fatalf("no extractable text must ALLOW")
	}
	if mock.TextInput != "" {
		t.Fatalf("classifier must not be called, got %q", mock.TextInput)
	}
}

func TestModerateMismatch(t *testing.T) {
	t.Parallel()

	// JPEG bytes declared as PNG.
	request := models.ModerationRequest{
		DeclaredMime: "image/png",
		Payload:      jpegPayload(),
		ResourcePath: "/erin/photo.png",
		Method:       models.MethodCreate,
	}

	mock := &classifier.Mock{}
	recorder := &captureRecorder{}
	eng := newEngine(mock, recorder)

	verdict := eng.Moderate(context.Background(), request)
	if !verdict.Rejected() {
		t.Fatalf("mismatch must reject when checking is enabled")
	}
	if verdict.Violations[0].Category != MismatchCategory {
		t.Fatalf("category=%q", verdict.Violations[0].Category)
	}
	if mock.ImageCategories != nil {
		t.Fatalf("classifier must not run on a mismatch rejection")
	}

	// Same request with mismatch checking disabled proceeds to
	// classification and passes.
	pol := policy.Default()
	pol.RejectMismatch = false
	relaxed := New(pol, mock, recorder, testutil.NullLogger())

	verdict = relaxed.Moderate(context.Background(), request)
	if verdict.Rejected() {
		t.Fatalf("mismatch must be ignored when checking is disabled: %+v", verdict)
	}
	if mock.ImageCategories == nil {
		t.Fatalf("classifier should run when mismatch checking is disabled")
	}
}

func TestModerateExtensionMismatch(t *testing.T) {
	t.Parallel()

	mock := &classifier.Mock{}
	recorder := &captureRecorder{}
	eng := newEngine(mock, recorder)

	verdict := eng.Moderate(context.Background(), models.ModerationRequest{
		DeclaredMime: "image/jpeg",
		Payload:      jpegPayload(),
		ResourcePath: "/erin/photo.png",
		Method:       models.MethodCreate,
	})

	if !verdict.Rejected() {
		t.Fatalf("declared jpeg under .png extension must reject")
	}
	if verdict.Violations[0].Category != MismatchCategory {
		t.Fatalf("category=%q", verdict.Violations[0].Category)
	}
}

func TestModerateVideoFrame(t *testing.T) {
	t.Parallel()

	mock := &classifier.Mock{
		Video: &classifier.VideoResult{
			RequestID: "req-3",
			Frames: []classifier.Frame{
				{FrameScores: classifier.FrameScores{Gore: &classifier.ValueScore{Prob: 0.9}}},
			},
		},
	}
	recorder := &captureRecorder{}
	eng := newEngine(mock, recorder)

	verdict := eng.Moderate(context.Background(), models.ModerationRequest{
		DeclaredMime: "video/mp4",
		Payload:      []byte("\x00\x00\x00\x18ftypmp42"),
		ResourcePath: "/frank/clip.mp4",
		Method:       models.MethodCreate,
	})

	if !verdict.Rejected() {
		t.Fatalf("expected REJECT")
	}
	if !strings.Contains(verdict.Message(), "at 0s") {
		t.Fatalf("message=%q", verdict.Message())
	}
	if recorder.last(t).ContentKind != models.KindVideo {
		t.Fatalf("contentKind=%q", recorder.last(t).ContentKind)
	}
}
