package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nakamura-yasu/fabric-1/internal/compose"
	"github.com/nakamura-yasu/fabric-1/internal/poll"
	"github.com/nakamura-yasu/fabric-1/internal/session"
	"github.com/nakamura-yasu/fabric-1/internal/util"
)

// Harness ties compose orchestration, discovery, and readiness probing
// together for one test run.
type Harness struct {
	orch          orchestrator
	inspector     inspector
	prober        prober
	checker       checker
	registry      *session.Registry
	projectPrefix string
	pollInterval  time.Duration
	logger        zerolog.Logger
}

func NewHarness(orch orchestrator, insp inspector, p prober, c checker, reg *session.Registry, projectPrefix string, pollInterval time.Duration, logger zerolog.Logger) *Harness {
	return &Harness{
		orch:          orch,
		inspector:     insp,
		prober:        p,
		checker:       c,
		registry:      reg,
		projectPrefix: projectPrefix,
		pollInterval:  pollInterval,
		logger:        logger,
	}
}

// Registry exposes the accumulated session state to test steps.
func (h *Harness) Registry() *session.Registry {
	return h.registry
}

// ComposeUp brings the topology up, discovers the containers it created, and
// merges them into the session registry. Repeated calls within one run append;
// the registry drops duplicate names.
func (h *Harness) ComposeUp(ctx context.Context, fileSpec string) error {
	startupLog, err := h.orch.Up(ctx, fileSpec)
	if err != nil {
		return err
	}
	names := compose.ParseStartupLog(startupLog, h.projectPrefix)
	h.logger.Info().Strs("containers", names).Msg("Containers started")

	records, err := h.inspector.Discover(ctx, names)
	if err != nil {
		return fmt.Errorf("discovering containers: %w", err)
	}
	h.registry.Merge(records, session.MergeAppend)
	h.crossCheckServices(fileSpec)
	return nil
}

// crossCheckServices warns when a service declared in a compose file produced
// no discovered container, which usually means the startup log was not parsed
// from the invocation that created it.
func (h *Harness) crossCheckServices(fileSpec string) {
	discovered := make(map[string]struct{})
	for _, svc := range util.Map(h.registry.Records(), func(rec session.ContainerRecord) string { return rec.Service }) {
		discovered[svc] = struct{}{}
	}
	for _, file := range strings.Fields(fileSpec) {
		services, err := compose.Services(file)
		if err != nil {
			h.logger.Warn().Err(err).Str("file", file).Msg("Could not enumerate compose services")
			continue
		}
		for _, svc := range services {
			if _, ok := discovered[svc]; !ok {
				h.logger.Warn().Str("service", svc).Str("file", file).Msg("Compose service produced no discovered container")
			}
		}
	}
}

// WaitAllReady blocks until every container is ready and every peer has
// converged, or the timeout passes. All checks poll concurrently under the
// same absolute deadline; the result is their logical AND.
func (h *Harness) WaitAllReady(ctx context.Context, timeout time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records := h.registry.Records()
	peers := h.registry.Peers()
	h.logger.Info().Int("containers", len(records)).Int("peers", len(peers)).
		Time("deadline", time.Now().Add(timeout)).Msg("Waiting for containers to be ready")

	conds := make([]poll.Condition, 0, len(records)+len(peers))
	for _, rec := range records {
		conds = append(conds, func(ctx context.Context) (bool, error) {
			return h.prober.ContainerReady(ctx, rec), nil
		})
	}
	expected := len(peers)
	for _, peer := range peers {
		conds = append(conds, func(ctx context.Context) (bool, error) {
			return h.checker.PeerConverged(ctx, peer, expected)
		})
	}

	ready, err := poll.AllReady(ctx, h.pollInterval, conds)
	if err != nil {
		return false, err
	}
	if ready {
		h.logger.Info().Msg("All containers in ready state, ready to proceed")
	} else {
		h.logger.Warn().Msg("Timed out waiting for containers")
	}
	return ready, nil
}
