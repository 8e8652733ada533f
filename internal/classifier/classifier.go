// Package classifier defines the contract with the external content
// classification service and the result shapes the policy evaluator consumes.
package classifier

import "context"

// Category names shared between classification requests and threshold policy.
const (
	CategoryNudity    = "nudity"
	CategoryGore      = "gore"
	CategoryOffensive = "offensive"
	CategoryWeapon    = "weapon"
	CategoryTobacco   = "tobacco"
	CategoryAlcohol   = "alcohol"

	CategorySexual         = "sexual"
	CategoryDiscriminatory = "discriminatory"
	CategoryInsulting      = "insulting"
	CategoryViolent        = "violent"
	CategoryToxic          = "toxic"
	CategorySelfHarm       = "self-harm"
	CategoryPersonal       = "personal"
)

// NudityScores holds the four nudity sub-probabilities reported per image or
// frame. The representative nudity score is their maximum.
type NudityScores struct {
	SexualActivity float64 `json:"sexual_activity"`
	SexualDisplay  float64 `json:"sexual_display"`
	Erotica        float64 `json:"erotica"`
	Suggestive     float64 `json:"suggestive"`
}

// Max returns the highest of the four sub-probabilities.
func (n NudityScores) Max() float64 {
	max := n.SexualActivity
	for _, v := range []float64{n.SexualDisplay, n.Erotica, n.Suggestive} {
		if v > max {
			max = v
		}
	}
	return max
}

// ValueScore is a single-probability category result.
type ValueScore struct {
	Prob float64 `json:"prob"`
}

// FrameScores carries the per-category results for one image or one video
// frame. Every field is optional; a missing field means the classifier
// produced no evidence for that category.
type FrameScores struct {
	Nudity    *NudityScores `json:"nudity,omitempty"`
	Gore      *ValueScore   `json:"gore,omitempty"`
	Offensive *ValueScore   `json:"offensive,omitempty"`
	Weapon    *ValueScore   `json:"weapon,omitempty"`
	Tobacco   *ValueScore   `json:"tobacco,omitempty"`
	Alcohol   *ValueScore   `json:"alcohol,omitempty"`
}

// Representative returns the single scalar used for threshold comparison for
// a category, and whether the classifier reported that category at all.
func (f FrameScores) Representative(category string) (float64, bool) {
	switch category {
	case CategoryNudity:
		if f.Nudity == nil {
			return 0, false
		}
		return f.Nudity.Max(), true
	case CategoryGore:
		return valueScore(f.Gore)
	case CategoryOffensive:
		return valueScore(f.Offensive)
	case CategoryWeapon:
		return valueScore(f.Weapon)
	case CategoryTobacco:
		return valueScore(f.Tobacco)
	case CategoryAlcohol:
		return valueScore(f.Alcohol)
	default:
		return 0, false
	}
}

func valueScore(v *ValueScore) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return v.Prob, true
}

// ImageResult is the classification outcome for one image payload.
type ImageResult struct {
	RequestID string
	Scores    FrameScores
}

// TextClasses holds the six text moderation probabilities.
type TextClasses struct {
	Sexual         float64 `json:"sexual"`
	Discriminatory float64 `json:"discriminatory"`
	Insulting      float64 `json:"insulting"`
	Violent        float64 `json:"violent"`
	Toxic          float64 `json:"toxic"`
	SelfHarm       float64 `json:"self-harm"`
}

// Probability returns the score for one of the six classes.
func (c TextClasses) Probability(category string) (float64, bool) {
	switch category {
	case CategorySexual:
		return c.Sexual, true
	case CategoryDiscriminatory:
		return c.Discriminatory, true
	case CategoryInsulting:
		return c.Insulting, true
	case CategoryViolent:
		return c.Violent, true
	case CategoryToxic:
		return c.Toxic, true
	case CategorySelfHarm:
		return c.SelfHarm, true
	default:
		return 0, false
	}
}

// PIIMatch is one detected fragment of personal information.
type PIIMatch struct {
	Match string `json:"match"`
	Type  string `json:"type,omitempty"`
}

// PersonalMatches groups detected personal information by kind. Presence of
// any match is a violation signal regardless of probability thresholds.
type PersonalMatches struct {
	Phone       []PIIMatch `json:"phone,omitempty"`
	Email       []PIIMatch `json:"email,omitempty"`
	IPAddress   []PIIMatch `json:"ip,omitempty"`
	SSN         []PIIMatch `json:"ssn,omitempty"`
	PaymentCard []PIIMatch `json:"payment_card,omitempty"`
}

// PersonalField pairs a personal-information kind with its matches.
type PersonalField struct {
	Name    string
	Matches []PIIMatch
}

// Fields returns the sub-fields in a fixed order so violation reporting stays
// deterministic.
func (p PersonalMatches) Fields() []PersonalField {
	return []PersonalField{
		{"phone", p.Phone},
		{"email", p.Email},
		{"ip", p.IPAddress},
		{"ssn", p.SSN},
		{"payment_card", p.PaymentCard},
	}
}

// TextResult is the classification outcome for one text payload.
type TextResult struct {
	RequestID string
	Classes   *TextClasses
	Personal  *PersonalMatches
}

// FrameInfo locates one sampled frame within its video.
type FrameInfo struct {
	Position float64 `json:"position"`
}

// Frame is one sampled video frame with its per-category scores.
type Frame struct {
	FrameScores
	Info *FrameInfo `json:"info,omitempty"`
}

// Position returns the frame's position in seconds, defaulting to 0 when the
// classifier omitted it.
func (f Frame) Position() float64 {
	if f.Info == nil {
		return 0
	}
	return f.Info.Position
}

// VideoResult is the classification outcome for one video payload. Either the
// aggregated summary or the per-frame sequence may be present; neither is
// guaranteed.
type VideoResult struct {
	RequestID string
	Summary   *FrameScores
	Frames    []Frame
}

// Client is the external classification capability the engine depends on.
// Implementations return an error for transport failures and for responses
// whose status discriminator indicates failure; the engine treats both the
// same way.
type Client interface {
	CheckImage(ctx context.Context, payload []byte, categories []string) (*ImageResult, error)
	CheckText(ctx context.Context, text string, lang string) (*TextResult, error)
	CheckVideo(ctx context.Context, payload []byte, categories []string) (*VideoResult, error)
}
