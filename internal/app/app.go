package app

import (
	"context"
	"fmt"
	"time"

	dockerCli "github.com/docker/docker/client"
	"github.com/rs/zerolog"

	"github.com/nakamura-yasu/fabric-1/internal/compose"
	"github.com/nakamura-yasu/fabric-1/internal/config"
	"github.com/nakamura-yasu/fabric-1/internal/discovery"
	"github.com/nakamura-yasu/fabric-1/internal/readiness"
	"github.com/nakamura-yasu/fabric-1/internal/runner"
	"github.com/nakamura-yasu/fabric-1/internal/session"
)

type App struct {
	dockerClient *dockerCli.Client
	harness      *Harness
	cfg          *config.Config
	logger       zerolog.Logger
}

// New creates a new App by wiring up all dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	// Docker CLI
	dockerClient, err := dockerCli.NewClientWithOpts(dockerCli.FromEnv, dockerCli.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}

	execRunner := runner.NewExecRunner(logger)
	orch := compose.NewOrchestrator(execRunner, logger)

	insp, err := discovery.NewInspector(dockerClient, cfg.Probe.PeerNamePattern, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create inspector: %w", err)
	}

	prober := readiness.NewProber(execRunner, cfg.Probe.RestPort, logger)
	peerClient := readiness.NewPeerClient(cfg.Probe.RestPort, logger)
	checker := readiness.NewChecker(peerClient, logger)

	prefix := cfg.Compose.ProjectPrefix
	if prefix == "" {
		prefix = compose.DefaultProjectPrefix()
	}

	harness := NewHarness(
		orch, insp, prober, checker,
		session.NewRegistry(),
		prefix,
		time.Duration(cfg.Probe.PollInterval)*time.Second,
		logger,
	)

	return &App{
		dockerClient: dockerClient,
		harness:      harness,
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// Harness returns the wired harness, for embedding in BDD suites.
func (a *App) Harness() *Harness {
	return a.harness
}

// Run brings the configured topology up and blocks until it is ready or the
// configured timeout passes.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().Msg("Application starting")
	if err := a.harness.ComposeUp(ctx, a.cfg.Compose.Files); err != nil {
		return err
	}
	ready, err := a.harness.WaitAllReady(ctx, time.Duration(a.cfg.Probe.Timeout)*time.Second)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("containers not ready within %ds", a.cfg.Probe.Timeout)
	}
	return nil
}

func (a *App) Close() error {
	if a.dockerClient != nil {
		if err := a.dockerClient.Close(); err != nil {
			return fmt.Errorf("close docker client: %w", err)
		}
	}
	return nil
}
