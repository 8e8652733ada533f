// Package app wires configuration, the classifier backend, the audit sink,
// the moderation engine, and the HTTP sidecar into one runnable unit.
package app

import (
	"context"
	"net/http"

	"github.com/podgate/podgate/internal/audit"
	"github.com/podgate/podgate/internal/classifier"
	"github.com/podgate/podgate/internal/config"
	"github.com/podgate/podgate/internal/engine"
	"github.com/podgate/podgate/internal/httpapi"
	"github.com/podgate/podgate/internal/logging"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Engine     *engine.Engine
	HTTPServer *httpapi.Server

	recorder audit.Recorder
	closers  []func() error
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}
	app.Logger = logging.New(logging.ParseLevel(cfg.Logging.Level))

	client, err := app.initClassifier()
	if err != nil {
		return nil, err
	}

	app.recorder = app.initRecorder()

	app.Engine = engine.New(
		cfg.Policy(),
		client,
		app.recorder,
		app.Logger,
		engine.WithTextLanguage(cfg.Moderation.TextLang),
	)

	var jwtSecret []byte
	if cfg.Auth.JWTSecret != "" {
		jwtSecret = []byte(cfg.Auth.JWTSecret)
	}
	app.HTTPServer = httpapi.New(app.Engine, jwtSecret, app.Logger)

	return app, nil
}

// Run starts the HTTP sidecar and blocks until it stops.
func (a *App) Run(ctx context.Context) error {
	_ = ctx
	a.Logger.Info("Starting moderation sidecar", logging.WithField("addr", a.Config.Server.HTTPAddr))
	return a.HTTPServer.Start(a.Config.Server.HTTPAddr)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.Logger.Error("Close error", logging.WithField("error", err.Error()))
		}
	}
	return nil
}

func (a *App) initClassifier() (classifier.Client, error) {
	switch a.Config.Classifier.Backend {
	case "rekognition":
		a.Logger.Info("Using Rekognition classifier backend")
		return classifier.NewRekognition(context.Background(), a.Config.Classifier.AWSRegion)
	case "mock":
		a.Logger.Warn("Using mock classifier backend; every upload will be allowed")
		return &classifier.Mock{}, nil
	default:
		a.Logger.Info("Using HTTP classifier backend", logging.WithField("url", a.Config.Classifier.BaseURL))
		// The engine itself carries no timeout; bounded latency comes
		// from the transport, and a timeout fails open like any other
		// classification failure.
		httpClient := &http.Client{Timeout: a.Config.Classifier.Timeout}
		return classifier.NewHTTPClient(classifier.HTTPConfig{
			BaseURL:   a.Config.Classifier.BaseURL,
			APIUser:   a.Config.Classifier.APIUser,
			APISecret: a.Config.Classifier.APISecret,
		}, httpClient), nil
	}
}

func (a *App) initRecorder() audit.Recorder {
	switch a.Config.Audit.Backend {
	case "none":
		a.Logger.Info("Audit logging disabled")
		return audit.Nop{}
	case "postgres":
		recorder, err := audit.NewPostgresRecorder(audit.PostgresConfig{
			Host:     a.Config.Audit.PGHost,
			Port:     a.Config.Audit.PGPort,
			User:     a.Config.Audit.PGUser,
			Password: a.Config.Audit.PGPassword,
			Database: a.Config.Audit.PGDatabase,
			SSLMode:  a.Config.Audit.PGSSLMode,
		}, a.Logger)
		if err != nil {
			a.Logger.Error("Failed to connect audit database, falling back to file", logging.WithField("error", err.Error()))
			return a.fileRecorder()
		}
		a.closers = append(a.closers, recorder.Close)
		a.Logger.Info("Using PostgreSQL audit backend")
		return recorder
	case "redis":
		recorder, err := audit.NewRedisRecorder(audit.RedisConfig{
			Addr:     a.Config.Audit.RedisAddr,
			Password: a.Config.Audit.RedisPassword,
			DB:       a.Config.Audit.RedisDB,
			Stream:   a.Config.Audit.RedisStream,
		}, a.Logger)
		if err != nil {
			a.Logger.Error("Failed to connect audit Redis, falling back to file", logging.WithField("error", err.Error()))
			return a.fileRecorder()
		}
		a.closers = append(a.closers, recorder.Close)
		a.Logger.Info("Using Redis audit backend", logging.WithField("addr", a.Config.Audit.RedisAddr))
		return recorder
	default:
		return a.fileRecorder()
	}
}

func (a *App) fileRecorder() audit.Recorder {
	recorder, err := audit.NewFileRecorder(a.Config.Audit.FilePath, a.Logger)
	if err != nil {
		a.Logger.Error("Failed to open audit log, auditing disabled", logging.WithField("error", err.Error()))
		return audit.Nop{}
	}
	a.closers = append(a.closers, recorder.Close)
	a.Logger.Info("Using file audit backend", logging.WithField("path", a.Config.Audit.FilePath))
	return recorder
}
