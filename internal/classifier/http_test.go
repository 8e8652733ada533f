package classifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClientCheckImage(t *testing.T) {
	t.Parallel()

	var gotModels string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != imageCheckPath {
			t.Errorf("path=%q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotModels = r.FormValue("models")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"request": {"id": "req-123"},
			"nudity": {"sexual_activity": 0.2, "sexual_display": 0.85, "erotica": 0.1, "suggestive": 0.3},
			"gore": {"prob": 0.01}
		}`))
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPConfig{BaseURL: server.URL, APIUser: "u", APISecret: "s"}, server.Client())
	result, err := client.CheckImage(context.Background(), []byte("bytes"), []string{"nudity", "gore"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotModels != "nudity,gore" {
		t.Fatalf("models=%q", gotModels)
	}
	if result.RequestID != "req-123" {
		t.Fatalf("request id=%q", result.RequestID)
	}
	if result.Scores.Nudity == nil || result.Scores.Nudity.Max() != 0.85 {
		t.Fatalf("nudity scores=%+v", result.Scores.Nudity)
	}
	if result.Scores.Gore == nil || result.Scores.Gore.Prob != 0.01 {
		t.Fatalf("gore=%+v", result.Scores.Gore)
	}
	if result.Scores.Weapon != nil {
		t.Fatalf("weapon should be absent, got %+v", result.Scores.Weapon)
	}
}

func TestHTTPClientStatusFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "failure", "error": {"type": "usage_limit", "message": "quota exceeded"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPConfig{BaseURL: server.URL}, server.Client())
	if _, err := client.CheckImage(context.Background(), []byte("bytes"), nil); err == nil {
		t.Fatalf("expected error for failure status")
	}
}

func TestHTTPClientTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPConfig{BaseURL: server.URL}, server.Client())
	if _, err := client.CheckText(context.Background(), "hello", "en"); err == nil {
		t.Fatalf("expected error for HTTP 502")
	}
}

func TestHTTPClientCheckText(t *testing.T) {
	t.Parallel()

	var gotMode, gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != textCheckPath {
			t.Errorf("path=%q", r.URL.Path)
		}
		_ = r.ParseForm()
		gotMode = r.FormValue("mode")
		gotLang = r.FormValue("lang")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"request": {"id": "req-456"},
			"moderation_classes": {"sexual": 0.1, "toxic": 0.7},
			"personal": {"email": [{"match": "a@b.example"}]}
		}`))
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPConfig{BaseURL: server.URL}, server.Client())
	result, err := client.CheckText(context.Background(), "some text", "not-a-language-!!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMode != textMode {
		t.Fatalf("mode=%q", gotMode)
	}
	if gotLang != "en" {
		t.Fatalf("lang=%q, want fallback en", gotLang)
	}
	if result.Classes == nil || result.Classes.Toxic != 0.7 {
		t.Fatalf("classes=%+v", result.Classes)
	}
	if result.Personal == nil || len(result.Personal.Email) != 1 {
		t.Fatalf("personal=%+v", result.Personal)
	}
}

func TestHTTPClientCheckVideoFrames(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != videoCheckPath {
			t.Errorf("path=%q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"request": {"id": "req-789"},
			"data": {"frames": [
				{"info": {"position": 1.5}, "gore": {"prob": 0.9}},
				{"nudity": {"suggestive": 0.4}}
			]}
		}`))
	}))
	defer server.Close()

	client := NewHTTPClient(HTTPConfig{BaseURL: server.URL}, server.Client())
	result, err := client.CheckVideo(context.Background(), []byte("bytes"), []string{"nudity", "gore"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Summary != nil {
		t.Fatalf("summary should be absent")
	}
	if len(result.Frames) != 2 {
		t.Fatalf("frames=%d", len(result.Frames))
	}
	if result.Frames[0].Position() != 1.5 {
		t.Fatalf("position=%v", result.Frames[0].Position())
	}
	if result.Frames[1].Position() != 0 {
		t.Fatalf("default position=%v", result.Frames[1].Position())
	}
	if result.Frames[0].Gore == nil || result.Frames[0].Gore.Prob != 0.9 {
		t.Fatalf("frame gore=%+v", result.Frames[0].Gore)
	}
}
