package models

import "strings"

// Method identifies the content-mutating operation being intercepted.
type Method string

const (
	MethodCreate  Method = "create"
	MethodReplace Method = "replace"
	MethodPatch   Method = "patch"
)

// ModerationRequest carries one intercepted upload through the pipeline.
// The payload is fully buffered before evaluation; streaming mid-decision
// is not supported.
type ModerationRequest struct {
	// DeclaredMime is the caller-supplied content type, taken at face value
	// only for mismatch checking.
	DeclaredMime string
	// Payload is the raw request body.
	Payload []byte
	// ResourcePath is the full addressable location being written.
	ResourcePath string
	// ActorID is the already-verified principal URI, when known.
	ActorID string
	Method  Method
}

// Pod returns the first segment of the resource path, which identifies the
// pod the write targets.
func (r ModerationRequest) Pod() string {
	path := strings.TrimPrefix(r.ResourcePath, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		return path[:idx]
	}
	return path
}
