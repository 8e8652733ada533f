// Package engine runs the moderation pipeline for one intercepted request:
// detect the content kind, classify, evaluate policy, audit, and answer.
package engine

import (
	"context"
	"time"

	"github.com/podgate/podgate/internal/audit"
	"github.com/podgate/podgate/internal/classifier"
	"github.com/podgate/podgate/internal/logging"
	"github.com/podgate/podgate/internal/models"
	"github.com/podgate/podgate/internal/policy"
	"github.com/podgate/podgate/internal/rdftext"
	"github.com/podgate/podgate/internal/sniff"
)

// MismatchCategory names the violation recorded for declared/detected
// disagreements, distinct from any threshold category.
const MismatchCategory = "content-type-mismatch"

// Engine is one moderation pipeline instance. Its policy is immutable after
// construction; concurrent Moderate calls share nothing but the audit sink.
type Engine struct {
	policy   policy.Policy
	client   classifier.Client
	recorder audit.Recorder
	auditing bool
	logger   *logging.Logger
	textLang string
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithTextLanguage sets the language tag sent with text classification
// requests. Defaults to "en".
func WithTextLanguage(lang string) Option {
	return func(e *Engine) {
		if lang != "" {
			e.textLang = lang
		}
	}
}

// New creates a moderation engine.
func New(pol policy.Policy, client classifier.Client, recorder audit.Recorder, logger *logging.Logger, opts ...Option) *Engine {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	_, disabled := recorder.(audit.Nop)
	e := &Engine{
		policy:   pol,
		client:   client,
		recorder: recorder,
		auditing: !disabled,
		logger:   logger,
		textLang: "en",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Moderate evaluates one content-mutating request and returns the verdict.
// Classifier failures never propagate: the engine fails open, allowing the
// content through with an ERROR audit entry. Rejections are verdicts, not
// errors.
func (e *Engine) Moderate(ctx context.Context, req models.ModerationRequest) models.Verdict {
	detected := sniff.Detect(req.Payload)

	if e.policy.RejectMismatch {
		if reason := sniff.ValidateDeclared(detected, req.DeclaredMime); reason != "" {
			return e.reject(ctx, req, detected.Kind(), mismatchVerdict(reason))
		}
		if reason := sniff.ValidateExtension(req.ResourcePath, req.DeclaredMime); reason != "" {
			return e.reject(ctx, req, detected.Kind(), mismatchVerdict(reason))
		}
	}

	switch {
	case detected.Detected() && detected.Kind() == models.KindImage:
		return e.moderateImage(ctx, req)
	case detected.Detected() && detected.Kind() == models.KindVideo:
		return e.moderateVideo(ctx, req)
	default:
		if serialization := rdftext.FromContentType(req.DeclaredMime); serialization != "" {
			return e.moderateText(ctx, req, serialization)
		}
		// Nothing detectable and nothing declared we understand: there is
		// nothing to evaluate, and no classifier call is made.
		return e.allow(ctx, req, "", nil, "")
	}
}

func (e *Engine) moderateImage(ctx context.Context, req models.ModerationRequest) models.Verdict {
	result, err := e.client.CheckImage(ctx, req.Payload, e.policy.Image.Enabled)
	if err != nil {
		return e.failOpen(ctx, req, models.KindImage, err)
	}
	verdict := policy.EvaluateImage(result, e.policy.Image)
	return e.finish(ctx, req, models.KindImage, verdict, result.RequestID)
}

func (e *Engine) moderateVideo(ctx context.Context, req models.ModerationRequest) models.Verdict {
	result, err := e.client.CheckVideo(ctx, req.Payload, e.policy.Video.Enabled)
	if err != nil {
		return e.failOpen(ctx, req, models.KindVideo, err)
	}
	verdict := policy.EvaluateVideo(result, e.policy.Video)
	return e.finish(ctx, req, models.KindVideo, verdict, result.RequestID)
}

func (e *Engine) moderateText(ctx context.Context, req models.ModerationRequest, serialization rdftext.Serialization) models.Verdict {
	text := rdftext.Extract(string(req.Payload), serialization)
	if text == "" {
		// No human-authored text in the document; skip the classifier.
		return e.allow(ctx, req, models.KindText, nil, "")
	}

	result, err := e.client.CheckText(ctx, text, e.textLang)
	if err != nil {
		return e.failOpen(ctx, req, models.KindText, err)
	}
	verdict := policy.EvaluateText(result, e.policy.Text)
	return e.finish(ctx, req, models.KindText, verdict, result.RequestID)
}

func (e *Engine) finish(ctx context.Context, req models.ModerationRequest, kind models.ContentKind, verdict models.Verdict, requestID string) models.Verdict {
	if verdict.Rejected() {
		e.record(ctx, req, kind, audit.ActionReject, verdict.Message(), verdict.Scores, requestID)
		return verdict
	}
	e.record(ctx, req, kind, audit.ActionAllow, "", verdict.Scores, requestID)
	return verdict
}

func (e *Engine) reject(ctx context.Context, req models.ModerationRequest, kind models.ContentKind, verdict models.Verdict) models.Verdict {
	e.record(ctx, req, kind, audit.ActionReject, verdict.Message(), nil, "")
	return verdict
}

func (e *Engine) allow(ctx context.Context, req models.ModerationRequest, kind models.ContentKind, scores map[string]float64, requestID string) models.Verdict {
	e.record(ctx, req, kind, audit.ActionAllow, "", scores, requestID)
	return models.Allow()
}

// failOpen resolves a classification failure by allowing the content through.
// This availability-over-strictness trade-off is deliberate: an unreachable
// classifier must not block writes. The attempt stays visible as an ERROR
// audit entry with no scores.
func (e *Engine) failOpen(ctx context.Context, req models.ModerationRequest, kind models.ContentKind, err error) models.Verdict {
	e.logger.Warn("Classification unavailable, allowing content through",
		logging.WithField("path", req.ResourcePath),
		logging.WithField("kind", string(kind)),
		logging.WithField("error", err.Error()))
	e.record(ctx, req, kind, audit.ActionError, err.Error(), nil, "")
	return models.Allow()
}

func (e *Engine) record(ctx context.Context, req models.ModerationRequest, kind models.ContentKind, action audit.Action, reason string, scores map[string]float64, requestID string) {
	// Disabled auditing skips entry construction entirely.
	if !e.auditing {
		return
	}
	e.recorder.Record(ctx, audit.Entry{
		Timestamp:           time.Now().UTC(),
		Action:              action,
		ContentKind:         kind,
		ResourcePath:        req.ResourcePath,
		Pod:                 req.Pod(),
		ActorID:             req.ActorID,
		DeclaredMime:        req.DeclaredMime,
		Reason:              reason,
		Scores:              scores,
		ClassifierRequestID: requestID,
	})
}

func mismatchVerdict(reason string) models.Verdict {
	return models.Reject(models.Violation{
		Category: MismatchCategory,
		Reason:   reason,
	})
}
