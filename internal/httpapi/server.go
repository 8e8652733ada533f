// Package httpapi exposes the moderation engine as a sidecar HTTP service.
// The host pod server forwards content-mutating requests here and enforces
// the verdict; reads and deletes never reach this service.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/podgate/podgate/internal/engine"
	"github.com/podgate/podgate/internal/logging"
	"github.com/podgate/podgate/internal/models"
)

// maxPayloadBytes caps buffered upload size. Payloads are fully buffered
// before evaluation.
const maxPayloadBytes = 64 << 20

type Server struct {
	engine    *engine.Engine
	jwtSecret []byte
	logger    *logging.Logger
	server    *http.Server
}

// New creates the sidecar server. The JWT secret is optional; without it no
// actor identity is recorded.
func New(eng *engine.Engine, jwtSecret []byte, logger *logging.Logger) *Server {
	return &Server{
		engine:    eng,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Start runs the HTTP server until it shuts down or fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleModerate)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleModerate runs the engine for one forwarded write. The verdict is
// returned as JSON: 200 for ALLOW, 403 for REJECT.
func (s *Server) handleModerate(w http.ResponseWriter, r *http.Request) {
	method, ok := moderationMethod(r.Method)
	if !ok {
		// Read-only and deletion operations are not this service's
		// concern; answer ALLOW so a misconfigured host never blocks.
		writeVerdict(w, http.StatusOK, models.Allow())
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "payload too large or unreadable", http.StatusRequestEntityTooLarge)
		return
	}

	request := models.ModerationRequest{
		DeclaredMime: r.Header.Get("Content-Type"),
		Payload:      payload,
		ResourcePath: r.URL.Path,
		ActorID:      s.actorID(r),
		Method:       method,
	}

	verdict := s.engine.Moderate(r.Context(), request)
	status := http.StatusOK
	if verdict.Rejected() {
		s.logger.Info("Rejected upload",
			logging.WithField("path", request.ResourcePath),
			logging.WithField("reason", verdict.Message()))
		status = http.StatusForbidden
	}
	writeVerdict(w, status, verdict)
}

func moderationMethod(httpMethod string) (models.Method, bool) {
	switch httpMethod {
	case http.MethodPost:
		return models.MethodCreate, true
	case http.MethodPut:
		return models.MethodReplace, true
	case http.MethodPatch:
		return models.MethodPatch, true
	default:
		return "", false
	}
}

func writeVerdict(w http.ResponseWriter, status int, verdict models.Verdict) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(verdict)
}
