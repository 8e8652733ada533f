// Package policy holds the threshold configuration and the verdict logic that
// turns classification scores into ALLOW/REJECT decisions.
package policy

import (
	"github.com/podgate/podgate/internal/classifier"
)

// KindPolicy is the threshold set for one content kind. Enabled lists the
// categories that participate in classification requests and evaluation, in
// the fixed order violations are reported in. Read-only after construction.
type KindPolicy struct {
	Thresholds map[string]float64
	Enabled    []string
}

// Threshold returns the exclusive lower bound for a category. Categories
// without a configured threshold can never be violated.
func (p KindPolicy) Threshold(category string) float64 {
	if t, ok := p.Thresholds[category]; ok {
		return t
	}
	return 1
}

// Policy is the full moderation policy for one engine instance. Immutable
// after construction and safely shared across concurrent evaluations.
type Policy struct {
	Image KindPolicy
	Text  KindPolicy
	Video KindPolicy

	// RejectMismatch controls whether a declared/detected content type
	// mismatch is grounds for rejection. When false, mismatches are
	// silently ignored.
	RejectMismatch bool
}

// DefaultThreshold applies to every category unless overridden.
const DefaultThreshold = 0.5

// Default returns the hard-default policy, the lowest of the three
// configuration layers.
func Default() Policy {
	return Policy{
		Image: KindPolicy{
			Enabled: []string{
				classifier.CategoryNudity,
				classifier.CategoryGore,
				classifier.CategoryOffensive,
				classifier.CategoryWeapon,
			},
			Thresholds: uniformThresholds(
				classifier.CategoryNudity,
				classifier.CategoryGore,
				classifier.CategoryOffensive,
				classifier.CategoryWeapon,
			),
		},
		Text: KindPolicy{
			Enabled: []string{
				classifier.CategorySexual,
				classifier.CategoryDiscriminatory,
				classifier.CategoryInsulting,
				classifier.CategoryViolent,
				classifier.CategoryToxic,
				classifier.CategorySelfHarm,
				classifier.CategoryPersonal,
			},
			Thresholds: uniformThresholds(
				classifier.CategorySexual,
				classifier.CategoryDiscriminatory,
				classifier.CategoryInsulting,
				classifier.CategoryViolent,
				classifier.CategoryToxic,
				classifier.CategorySelfHarm,
			),
		},
		Video: KindPolicy{
			Enabled: []string{
				classifier.CategoryNudity,
				classifier.CategoryGore,
				classifier.CategoryOffensive,
				classifier.CategoryWeapon,
				classifier.CategoryTobacco,
				classifier.CategoryAlcohol,
			},
			Thresholds: uniformThresholds(
				classifier.CategoryNudity,
				classifier.CategoryGore,
				classifier.CategoryOffensive,
				classifier.CategoryWeapon,
				classifier.CategoryTobacco,
				classifier.CategoryAlcohol,
			),
		},
		RejectMismatch: true,
	}
}

func uniformThresholds(categories ...string) map[string]float64 {
	thresholds := make(map[string]float64, len(categories))
	for _, c := range categories {
		thresholds[c] = DefaultThreshold
	}
	return thresholds
}
