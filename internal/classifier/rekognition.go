package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rekognitiontypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// Rekognition is an image-only classifier backend on AWS Rekognition. Its
// moderation labels are folded into the same category shape the hosted API
// produces, so the policy evaluator does not care which backend ran. Text and
// video checks are unsupported; the engine's fail-open handling absorbs that.
type Rekognition struct {
	client *rekognition.Client
}

// NewRekognition creates a backend using ambient AWS credentials/profile.
func NewRekognition(ctx context.Context, region string) (*Rekognition, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{}
	trimmedRegion := strings.TrimSpace(region)
	if trimmedRegion != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(trimmedRegion))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Rekognition{client: rekognition.NewFromConfig(cfg)}, nil
}

// CheckImage calls DetectModerationLabels with raw image bytes and maps the
// labels onto category probabilities (Rekognition confidences are 0-100).
func (r *Rekognition) CheckImage(ctx context.Context, payload []byte, categories []string) (*ImageResult, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("image bytes are required")
	}

	output, err := r.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image: &rekognitiontypes.Image{Bytes: payload},
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect moderation labels failed: %w", err)
	}

	enabled := map[string]bool{}
	for _, c := range categories {
		enabled[c] = true
	}

	result := &ImageResult{}
	for _, label := range output.ModerationLabels {
		confidence := 0.0
		if label.Confidence != nil {
			confidence = float64(*label.Confidence) / 100
		}
		applyLabel(&result.Scores, aws.ToString(label.Name), aws.ToString(label.ParentName), confidence, enabled)
	}

	return result, nil
}

// CheckText is not supported by this backend.
func (r *Rekognition) CheckText(ctx context.Context, text string, lang string) (*TextResult, error) {
	return nil, fmt.Errorf("text classification is not supported by the rekognition backend")
}

// CheckVideo is not supported by this backend.
func (r *Rekognition) CheckVideo(ctx context.Context, payload []byte, categories []string) (*VideoResult, error) {
	return nil, fmt.Errorf("video classification is not supported by the rekognition backend")
}

// applyLabel folds one Rekognition label into the category scores, keeping
// the maximum confidence seen per category.
func applyLabel(scores *FrameScores, name, parent string, confidence float64, enabled map[string]bool) {
	category, sub := mapLabel(name, parent)
	if category == "" || (len(enabled) > 0 && !enabled[category]) {
		return
	}

	switch category {
	case CategoryNudity:
		if scores.Nudity == nil {
			scores.Nudity = &NudityScores{}
		}
		switch sub {
		case "explicit":
			if confidence > scores.Nudity.SexualActivity {
				scores.Nudity.SexualActivity = confidence
			}
		default:
			if confidence > scores.Nudity.Suggestive {
				scores.Nudity.Suggestive = confidence
			}
		}
	case CategoryGore:
		scores.Gore = maxValue(scores.Gore, confidence)
	case CategoryOffensive:
		scores.Offensive = maxValue(scores.Offensive, confidence)
	case CategoryWeapon:
		scores.Weapon = maxValue(scores.Weapon, confidence)
	case CategoryTobacco:
		scores.Tobacco = maxValue(scores.Tobacco, confidence)
	case CategoryAlcohol:
		scores.Alcohol = maxValue(scores.Alcohol, confidence)
	}
}

func maxValue(current *ValueScore, confidence float64) *ValueScore {
	if current == nil {
		return &ValueScore{Prob: confidence}
	}
	if confidence > current.Prob {
		current.Prob = confidence
	}
	return current
}

// mapLabel translates a Rekognition label name/parent into our category
// vocabulary.
func mapLabel(name, parent string) (category, sub string) {
	top := parent
	if top == "" {
		top = name
	}
	switch top {
	case "Explicit Nudity", "Explicit":
		return CategoryNudity, "explicit"
	case "Suggestive", "Non-Explicit Nudity of Intimate parts and Kissing":
		return CategoryNudity, "suggestive"
	case "Violence", "Graphic Violence Or Gore", "Visually Disturbing":
		return CategoryGore, ""
	case "Rude Gestures", "Hate Symbols":
		return CategoryOffensive, ""
	case "Weapons", "Weapon Violence":
		return CategoryWeapon, ""
	case "Tobacco", "Drugs & Tobacco":
		return CategoryTobacco, ""
	case "Alcohol", "Alcoholic Beverages":
		return CategoryAlcohol, ""
	default:
		return "", ""
	}
}
