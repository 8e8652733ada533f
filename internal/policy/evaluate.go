package policy

import (
	"fmt"

	"github.com/podgate/podgate/internal/classifier"
	"github.com/podgate/podgate/internal/models"
)

// EvaluateImage checks one image classification against the image policy.
// A violation requires the representative score to strictly exceed the
// threshold: a score equal to the threshold is safe.
func EvaluateImage(result *classifier.ImageResult, pol KindPolicy) models.Verdict {
	violations, scores := evaluateScores(result.Scores, pol, "")
	return verdict(violations, scores)
}

// EvaluateText checks one text classification against the text policy. The
// six probability classes use the same strict-threshold rule as images; the
// personal category is structural — any non-empty sub-field is a violation
// regardless of thresholds.
func EvaluateText(result *classifier.TextResult, pol KindPolicy) models.Verdict {
	var violations []models.Violation
	scores := map[string]float64{}

	for _, category := range pol.Enabled {
		if category == classifier.CategoryPersonal {
			violations = append(violations, personalViolations(result.Personal)...)
			continue
		}
		if result.Classes == nil {
			continue
		}
		score, ok := result.Classes.Probability(category)
		if !ok {
			continue
		}
		scores[category] = score
		if threshold := pol.Threshold(category); score > threshold {
			violations = append(violations, models.Violation{
				Category: category,
				Score:    score,
				Reason:   fmt.Sprintf("%s score %.2f exceeds threshold %.2f", category, score, threshold),
			})
		}
	}

	return verdict(violations, scores)
}

// EvaluateVideo checks one video classification against the video policy.
// When a summary is present it is the only thing evaluated, even if frames
// were also returned. Without a summary every frame is evaluated
// independently and the per-frame violations are unioned. With neither,
// the video passes: absence of evidence is not evidence of violation.
func EvaluateVideo(result *classifier.VideoResult, pol KindPolicy) models.Verdict {
	if result.Summary != nil {
		violations, scores := evaluateScores(*result.Summary, pol, "")
		return verdict(violations, scores)
	}

	if len(result.Frames) == 0 {
		return models.Allow()
	}

	var violations []models.Violation
	scores := map[string]float64{}
	for _, frame := range result.Frames {
		suffix := fmt.Sprintf(" at %gs", frame.Position())
		frameViolations, frameScores := evaluateScores(frame.FrameScores, pol, suffix)
		violations = append(violations, frameViolations...)
		for category, score := range frameScores {
			if score > scores[category] {
				scores[category] = score
			}
		}
	}

	return verdict(violations, scores)
}

// evaluateScores applies the strict-threshold rule to one score record in the
// policy's fixed category order. The reason suffix locates frame violations
// within a video.
func evaluateScores(frame classifier.FrameScores, pol KindPolicy, reasonSuffix string) ([]models.Violation, map[string]float64) {
	var violations []models.Violation
	scores := map[string]float64{}

	for _, category := range pol.Enabled {
		score, ok := frame.Representative(category)
		if !ok {
			continue
		}
		scores[category] = score
		if threshold := pol.Threshold(category); score > threshold {
			violations = append(violations, models.Violation{
				Category: category,
				Score:    score,
				Reason:   fmt.Sprintf("%s score %.2f exceeds threshold %.2f%s", category, score, threshold, reasonSuffix),
			})
		}
	}

	return violations, scores
}

// personalViolations flags every non-empty personal-information sub-field.
func personalViolations(personal *classifier.PersonalMatches) []models.Violation {
	if personal == nil {
		return nil
	}
	var violations []models.Violation
	for _, field := range personal.Fields() {
		if len(field.Matches) == 0 {
			continue
		}
		violations = append(violations, models.Violation{
			Category: classifier.CategoryPersonal,
			Score:    1,
			Reason:   fmt.Sprintf("text contains personal information (%s, %d match(es))", field.Name, len(field.Matches)),
		})
	}
	return violations
}

func verdict(violations []models.Violation, scores map[string]float64) models.Verdict {
	if len(scores) == 0 {
		scores = nil
	}
	if len(violations) > 0 {
		return models.Verdict{Outcome: models.OutcomeReject, Violations: violations, Scores: scores}
	}
	return models.Verdict{Outcome: models.OutcomeAllow, Scores: scores}
}
