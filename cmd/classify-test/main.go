// classify-test runs one local file through the configured moderation
// pipeline and prints the verdict. Useful for checking classifier
// credentials and threshold tuning without a running sidecar.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/podgate/podgate/internal/app"
	"github.com/podgate/podgate/internal/config"
	"github.com/podgate/podgate/internal/models"
	"github.com/podgate/podgate/internal/sniff"
)

func main() {
	_ = godotenv.Load()

	defaultFile := os.Getenv("FILE")
	filePath := flag.String("file", defaultFile, "path to local file to moderate")
	declared := flag.String("content-type", "", "declared content type (defaults to the detected one)")
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "file path is required (pass -file or FILE env var)")
		os.Exit(1)
	}

	payload, err := os.ReadFile(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(map[string]interface{}{
		// One-shot runs audit to stdout-adjacent noise; keep it off.
		"audit.backend": "none",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	declaredMime := *declared
	if declaredMime == "" {
		declaredMime = sniff.Detect(payload).MimeType
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	verdict := application.Engine.Moderate(ctx, models.ModerationRequest{
		DeclaredMime: declaredMime,
		Payload:      payload,
		ResourcePath: "/local/" + filepath.Base(*filePath),
		Method:       models.MethodCreate,
	})

	fmt.Printf("Outcome: %s\n", verdict.Outcome)
	if msg := verdict.Message(); msg != "" {
		fmt.Printf("Reason: %s\n", msg)
	}
	if len(verdict.Scores) > 0 {
		fmt.Println("Scores:")
		for category, score := range verdict.Scores {
			fmt.Printf("  %s: %.3f\n", category, score)
		}
	}
}
