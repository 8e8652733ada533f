package config

import (
	"testing"

	"github.com/podgate/podgate/internal/classifier"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Fatalf("addr=%q", cfg.Server.HTTPAddr)
	}
	if cfg.Classifier.Backend != "http" {
		t.Fatalf("backend=%q", cfg.Classifier.Backend)
	}
	if !cfg.Moderation.RejectMismatch {
		t.Fatalf("mismatch checking should default on")
	}
	if cfg.Audit.Backend != "file" {
		t.Fatalf("audit backend=%q", cfg.Audit.Backend)
	}

	pol := cfg.Policy()
	if pol.Image.Threshold(classifier.CategoryNudity) != 0.5 {
		t.Fatalf("default nudity threshold=%v", pol.Image.Threshold(classifier.CategoryNudity))
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PODGATE_SERVER_ADDR", ":9999")
	t.Setenv("PODGATE_MODERATION_MISMATCH", "false")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9999" {
		t.Fatalf("addr=%q", cfg.Server.HTTPAddr)
	}
	if cfg.Moderation.RejectMismatch {
		t.Fatalf("env should disable mismatch checking")
	}
}

func TestLoadExplicitOverridesEnv(t *testing.T) {
	t.Setenv("PODGATE_SERVER_ADDR", ":9999")

	cfg, err := Load(map[string]interface{}{"server.addr": ":7777"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":7777" {
		t.Fatalf("addr=%q, explicit overrides must win", cfg.Server.HTTPAddr)
	}
}

func TestPolicyThresholdOverrides(t *testing.T) {
	t.Setenv("PODGATE_MODERATION_IMAGE_THRESHOLDS", "nudity=0.8,gore=0.3,bogus=7")
	t.Setenv("PODGATE_MODERATION_VIDEO_CATEGORIES", "nudity,tobacco")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	pol := cfg.Policy()
	if got := pol.Image.Threshold(classifier.CategoryNudity); got != 0.8 {
		t.Fatalf("nudity threshold=%v", got)
	}
	if got := pol.Image.Threshold(classifier.CategoryGore); got != 0.3 {
		t.Fatalf("gore threshold=%v", got)
	}
	// Out-of-range values are dropped; the default survives.
	if got := pol.Image.Threshold("bogus"); got != 1 {
		t.Fatalf("bogus threshold=%v", got)
	}
	// Weapon keeps its default even though only two thresholds were set.
	if got := pol.Image.Threshold(classifier.CategoryWeapon); got != 0.5 {
		t.Fatalf("weapon threshold=%v", got)
	}

	if len(pol.Video.Enabled) != 2 || pol.Video.Enabled[1] != classifier.CategoryTobacco {
		t.Fatalf("video categories=%v", pol.Video.Enabled)
	}
}
