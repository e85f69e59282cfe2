// Package handlers implements the CLI commands.
//
// Each handler loads the configuration, wires a lifecycle.Manager for the
// configured provider, runs one action and renders the result. Construction
// goes through the factory variables below so tests can substitute fakes.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/quantserver/internal/bootstrap"
	"github.com/imamik/quantserver/internal/config"
	"github.com/imamik/quantserver/internal/lifecycle"
	"github.com/imamik/quantserver/internal/logging"
	"github.com/imamik/quantserver/internal/manifest"
	"github.com/imamik/quantserver/internal/metrics"
	hcloudInternal "github.com/imamik/quantserver/internal/platform/hcloud"
	"github.com/imamik/quantserver/internal/platform/vultr"
	"github.com/imamik/quantserver/internal/ui"
	"github.com/imamik/quantserver/pkg/cloud"
)

// Options holds the global flags.
type Options struct {
	ConfigPath string
	Verbosity  int
}

// Factory function variables - can be replaced in tests.
var (
	loadConfig = config.Load

	newLogger = func(verbosity int) logr.Logger {
		return logging.New(os.Stderr, verbosity)
	}

	newProvider = func(cfg *config.Config, log logr.Logger, rec *metrics.Recorder) (cloud.Provider, error) {
		t := cfg.Timeouts
		switch cfg.Provider {
		case config.ProviderVultr:
			return vultr.NewClient(cfg.API.Key,
				vultr.WithBaseURL(cfg.API.URL),
				vultr.WithHTTPClient(&http.Client{Timeout: t.HTTPRequest}),
				vultr.WithRetry(t.RetryMaxAttempts, t.RetryBaseDelay),
				vultr.WithLogger(log.WithName("vultr")),
				vultr.WithMetrics(rec),
			), nil
		case config.ProviderHetzner:
			return hcloudInternal.NewProvider(cfg.API.HCloudToken,
				hcloudInternal.WithRetry(t.RetryMaxAttempts, t.RetryBaseDelay),
				hcloudInternal.WithLogger(log.WithName("hcloud")),
				hcloudInternal.WithMetrics(rec),
			), nil
		default:
			return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
		}
	}

	newPublisher = func(ctx context.Context, cfg *config.Config) (lifecycle.ManifestPublisher, error) {
		p, err := manifest.NewFromConfig(ctx, cfg.Manifest)
		if err != nil || p == nil {
			return nil, err
		}
		p.SetTimeout(cfg.Timeouts.ManifestUpload)
		return p, nil
	}

	newPayload = func(cfg *config.Config) lifecycle.PayloadSource {
		return bootstrap.New(bootstrap.FromConfig(cfg))
	}

	newPrinter = ui.NewStdoutPrinter
)

// session is one CLI invocation: a validated config and a wired manager.
type session struct {
	cfg     *config.Config
	log     logr.Logger
	metrics *metrics.Recorder
	manager *lifecycle.Manager
	printer *ui.Printer
}

// newSession loads and validates the configuration and wires the manager.
// validate selects the validation level of the action.
func newSession(ctx context.Context, opts Options, validate func(*config.Config) error) (*session, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Timeouts == nil {
		cfg.Timeouts = config.DefaultTimeouts()
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := newLogger(opts.Verbosity)
	rec := metrics.NewRecorder()
	log.V(1).Info("Configuration loaded", "config", cfg.Redacted())

	provider, err := newProvider(cfg, log, rec)
	if err != nil {
		return nil, err
	}

	managerOpts := []lifecycle.Option{
		lifecycle.WithLogger(log),
		lifecycle.WithMetrics(rec),
	}
	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		logging.Warn(log, err, "manifest publishing disabled")
	} else if publisher != nil {
		managerOpts = append(managerOpts, lifecycle.WithPublisher(publisher))
	}

	return &session{
		cfg:     cfg,
		log:     log,
		metrics: rec,
		manager: lifecycle.NewManager(provider, newPayload(cfg), cfg, managerOpts...),
		printer: newPrinter(),
	}, nil
}

// close pushes the run's metrics when a Pushgateway is configured. A failed
// push is only a warning.
func (s *session) close(ctx context.Context) {
	if s.cfg.Metrics.PushgatewayURL == "" {
		return
	}
	// The action context may already be cancelled by a signal.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeouts.MetricsPush)
	defer cancel()

	grouping := map[string]string{"instance": s.cfg.Label}
	if err := s.metrics.Push(pushCtx, s.cfg.Metrics.PushgatewayURL, s.cfg.Metrics.Job, grouping); err != nil {
		logging.Warn(s.log, err, "metrics push failed")
		return
	}
	s.log.V(1).Info("Metrics pushed", "url", s.cfg.Metrics.PushgatewayURL)
}

func validateBase(cfg *config.Config) error { return cfg.Validate() }

func validateStart(cfg *config.Config) error { return cfg.ValidateStart() }
