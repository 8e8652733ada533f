// Package audit appends one structured record per moderation attempt.
// Recording never fails the caller: the verdict is already decided, and an
// audit-sink problem must not reverse it.
package audit

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/podgate/podgate/internal/logging"
	"github.com/podgate/podgate/internal/models"
)

// Action is the recorded outcome of a moderation attempt.
type Action string

const (
	ActionAllow  Action = "ALLOW"
	ActionReject Action = "REJECT"
	ActionError  Action = "ERROR"
)

// Entry is one audit record. The field names and the action enumeration are a
// stability contract: downstream tooling parses the emitted lines.
type Entry struct {
	Timestamp           time.Time          `json:"timestamp"`
	Action              Action             `json:"action"`
	ContentKind         models.ContentKind `json:"contentKind,omitempty"`
	ResourcePath        string             `json:"resourcePath"`
	Pod                 string             `json:"pod"`
	ActorID             string             `json:"actorId,omitempty"`
	DeclaredMime        string             `json:"declaredMime"`
	Reason              string             `json:"reason,omitempty"`
	Scores              map[string]float64 `json:"scores,omitempty"`
	ClassifierRequestID string             `json:"classifierRequestId,omitempty"`
}

// Recorder appends audit entries. Implementations must swallow their own
// failures and tolerate concurrent use.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Nop discards every entry. Used when auditing is disabled.
type Nop struct{}

// Record does nothing.
func (Nop) Record(ctx context.Context, entry Entry) {}

// FileRecorder appends line-delimited JSON to a single file. Each entry is
// one atomic write of a fully serialized line, so concurrent appends never
// interleave partial records.
type FileRecorder struct {
	mu     sync.Mutex
	file   *os.File
	logger *logging.Logger
}

// NewFileRecorder opens (or creates) the audit log for appending.
func NewFileRecorder(path string, logger *logging.Logger) (*FileRecorder, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{file: file, logger: logger}, nil
}

// Record appends one entry. Failures are logged and swallowed.
func (r *FileRecorder) Record(ctx context.Context, entry Entry) {
	_ = ctx

	line, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("Failed to serialize audit entry", logging.WithField("error", err.Error()))
		return
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.Write(line); err != nil {
		r.logger.Error("Failed to append audit entry", logging.WithField("error", err.Error()))
	}
}

// Close closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
