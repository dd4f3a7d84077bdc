// Command server runs the askframe analysis service.
//
// Configuration is loaded from an optional YAML file (-config flag,
// ASKFRAME_CONFIG, or the default search paths) with ASKFRAME_*
// environment overrides. The backend URL for script generation is the
// only required setting:
//
//	ASKFRAME_BACKEND_URL  - Chat Completions backend URL (required)
//	ASKFRAME_API_KEY      - Backend API key (optional)
//	ASKFRAME_MODEL        - Model name (default: gpt-4o-mini)
//	ASKFRAME_PORT         - Listen port (default: 8080)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askframe/askframe/pkg/config"
	"github.com/askframe/askframe/pkg/engine"
	"github.com/askframe/askframe/pkg/provider/openaichat"
	"github.com/askframe/askframe/pkg/result"
	"github.com/askframe/askframe/pkg/sandbox"
	"github.com/askframe/askframe/pkg/script"
	"github.com/askframe/askframe/pkg/storage/memory"
	"github.com/askframe/askframe/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Script validator, shared between the pipeline and the sandbox.
	valCfg := script.DefaultConfig()
	valCfg.MaxScriptChars = cfg.Sandbox.MaxScriptChars
	if len(cfg.Security.ForbiddenImports) > 0 {
		valCfg.ForbiddenImports = cfg.Security.ForbiddenImports
	}
	if len(cfg.Security.ForbiddenBuiltins) > 0 {
		valCfg.ForbiddenBuiltins = cfg.Security.ForbiddenBuiltins
	}
	if len(cfg.Security.ForbiddenMethods) > 0 {
		valCfg.ForbiddenMethods = cfg.Security.ForbiddenMethods
	}
	if len(cfg.Security.AllowedDunderAttrs) > 0 {
		valCfg.AllowedDunderAttrs = cfg.Security.AllowedDunderAttrs
	}
	validator := script.NewValidator(valCfg)

	executor, err := sandbox.New(validator, sandbox.Config{
		FrameName:       cfg.Sandbox.FrameName,
		Timeout:         cfg.Sandbox.ExecutionTimeout,
		MaxSteps:        cfg.Sandbox.MaxSteps,
		BlockedBuiltins: valCfg.ForbiddenBuiltins,
	})
	if err != nil {
		return fmt.Errorf("creating executor: %w", err)
	}

	client, err := openaichat.New(openaichat.Config{
		BaseURL:                   cfg.Provider.BackendURL,
		APIKey:                    cfg.Provider.APIKey,
		Model:                     cfg.Provider.Model,
		GenerationTemperature:     cfg.Provider.GenerationTemperature,
		InterpretationTemperature: cfg.Provider.InterpretationTemperature,
		Timeout:                   cfg.Provider.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating provider client: %w", err)
	}

	store := memory.New(cfg.Storage.MaxSessions)
	logger.Info("storage enabled", "type", "memory", "max_sessions", cfg.Storage.MaxSessions)

	eng, err := engine.New(client, client, validator, executor, engine.Config{
		Lookback:         cfg.History.Lookback,
		PromptRows:       cfg.Limits.PromptRows,
		ExecutionTimeout: cfg.Sandbox.ExecutionTimeout,
		ResultLimits: result.Limits{
			MaxRows:  cfg.Limits.MaxSampleRows,
			MaxChars: cfg.Limits.MaxOutputChars,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	adapter := transport.NewAdapter(eng, store, transport.Config{
		HistoryCapacity: cfg.History.Capacity,
		SampleRows:      cfg.Limits.MaxSampleRows,
		MaxTableCells:   cfg.Limits.MaxTableCells,
	}, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/", transport.Recovery(logger)(adapter.Handler()))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"port", cfg.Server.Port,
			"backend", cfg.Provider.BackendURL,
			"model", cfg.Provider.Model,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
