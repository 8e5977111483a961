package readiness

import (
	"context"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/nakamura-yasu/fabric-1/internal/runner"
	"github.com/nakamura-yasu/fabric-1/internal/session"
)

var tcpStatePattern = regexp.MustCompile(`ESTABLISHED|LISTEN`)

// Prober checks a single container's low-level readiness: its TCP table must
// show activity, and peer containers must additionally answer on their REST
// port. Results are soft booleans; the container's state may change between
// calls.
type Prober struct {
	runner   runner.Runner
	restPort int
	logger   zerolog.Logger
}

func NewProber(r runner.Runner, restPort int, logger zerolog.Logger) *Prober {
	return &Prober{
		runner:   r,
		restPort: restPort,
		logger:   logger,
	}
}

// ContainerReady reports whether the container has at least one established or
// listening TCP socket and, for peers, whether the REST port answers locally.
// Non-peers pass the REST condition vacuously.
func (p *Prober) ContainerReady(ctx context.Context, rec session.ContainerRecord) bool {
	if !p.tcpPortsReady(ctx, rec) {
		return false
	}
	if rec.Role != session.RolePeer {
		return true
	}
	return p.restPortResponds(ctx, rec)
}

func (p *Prober) tcpPortsReady(ctx context.Context, rec session.ContainerRecord) bool {
	argv := []string{"docker", "exec", rec.Name, "netstat", "-atun"}
	res, err := p.runner.Run(ctx, argv, false)
	if err != nil {
		p.logger.Debug().Err(err).Str("container", rec.Name).Msg("netstat probe failed to run")
		return false
	}
	if tcpStatePattern.MatchString(res.Stdout) {
		return true
	}
	p.logger.Debug().Str("container", rec.Name).Msg("No TCP connections ready in container")
	return false
}

func (p *Prober) restPortResponds(ctx context.Context, rec session.ContainerRecord) bool {
	argv := []string{"docker", "exec", rec.Name, "curl", fmt.Sprintf("localhost:%d", p.restPort)}
	res, err := p.runner.Run(ctx, argv, false)
	if err != nil {
		p.logger.Debug().Err(err).Str("container", rec.Name).Msg("REST probe failed to run")
		return false
	}
	if res.ExitCode != 0 {
		p.logger.Debug().Str("container", rec.Name).Int("exit", res.ExitCode).Msg("Connection to REST port failed")
		return false
	}
	return true
}
