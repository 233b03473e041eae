// Package app wires configuration, the grade service client and the gateway services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/fallback"
	"github.com/noah-isme/sma-gradebook/internal/repository"
	"github.com/noah-isme/sma-gradebook/internal/service"
	"github.com/noah-isme/sma-gradebook/internal/transport"
	"github.com/noah-isme/sma-gradebook/pkg/cache"
	"github.com/noah-isme/sma-gradebook/pkg/config"
	"github.com/noah-isme/sma-gradebook/pkg/storage"
	"github.com/noah-isme/sma-gradebook/pkg/validation"
)

type sessionBackend interface {
	repository.SessionStore
	Ping(ctx context.Context) error
}

// App holds the long lived dependencies of the gateway and the CLI.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *service.MetricsService
	Dispatcher *transport.Dispatcher
	Auth       *service.AuthService
	Student    *service.StudentService
	Teacher    *service.TeacherService
	Uploads    *service.UploadService

	sessions sessionBackend
	closers  []func() error
}

// Options adjusts construction for callers other than the HTTP server.
type Options struct {
	// MemorySessions forces the in-process session store, which the CLI uses.
	MemorySessions bool
	// HTTPClient overrides the grade service client.
	HTTPClient *http.Client
}

// New builds the dependency graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: service.NewMetricsService()}

	var synth transport.Synthesizer
	if cfg.Fallback.Enabled {
		s, err := fallback.NewSynthesizer(cfg.Fallback.WritePolicy)
		if err != nil {
			return nil, fmt.Errorf("build fallback synthesizer: %w", err)
		}
		synth = s
	}
	a.Dispatcher = transport.NewDispatcher(transport.Config{
		BaseURL:         cfg.Backend.BaseURL,
		Timeout:         cfg.Backend.Timeout,
		FallbackEnabled: cfg.Fallback.Enabled,
		HTTPClient:      opts.HTTPClient,
	}, synth, a.Metrics, logger.Named("dispatcher"))

	if cfg.Redis.Enabled && !opts.MemorySessions {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisSessions := repository.NewSessionRepository(client, logger)
		a.sessions = redisSessions
		a.closers = append(a.closers, redisSessions.Close)
	} else {
		a.sessions = repository.NewMemorySessionRepository()
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		a.Close() //nolint:errcheck
		return nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	a.Uploads = service.NewUploadService(store, signer, service.UploadConfig{
		APIPrefix:   cfg.APIPrefix,
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
	}, logger)

	validate := validation.Validate
	a.Auth = service.NewAuthService(
		repository.NewAuthRepository(a.Dispatcher),
		a.sessions,
		validate,
		logger,
		a.Metrics,
		service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiration: cfg.JWT.Expiration},
	)
	a.Student = service.NewStudentService(repository.NewStudentRepository(a.Dispatcher), a.Uploads, validate, logger)
	a.Teacher = service.NewTeacherService(repository.NewTeacherRepository(a.Dispatcher), a.Uploads, validate, logger)

	logger.Info("gradebook initialised",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Bool("fallback", cfg.Fallback.Enabled),
		zap.String("write_policy", cfg.Fallback.WritePolicy),
		zap.Bool("redis_sessions", cfg.Redis.Enabled && !opts.MemorySessions),
	)
	return a, nil
}

// PingSessions reports whether the session store is usable.
func (a *App) PingSessions(ctx context.Context) error {
	return a.sessions.Ping(ctx)
}

// Close releases external connections.
func (a *App) Close() error {
	var errs []error
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Serve runs the gateway until ctx is done, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", zap.String("addr", server.Addr), zap.String("env", a.Config.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.Logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return <-errCh
}
