package discovery

import (
	"context"
	"fmt"
	"regexp"

	"github.com/docker/docker/api/types/container"
	"github.com/rs/zerolog"

	"github.com/nakamura-yasu/fabric-1/internal/session"
	"github.com/nakamura-yasu/fabric-1/internal/util"
)

const composeServiceLabel = "com.docker.compose.service"

// Inspector builds container records from the Docker API. Role classification
// happens here, once, from the container name, so nothing downstream has to
// re-apply the naming convention.
type Inspector struct {
	cli         dockerClient
	peerPattern *regexp.Regexp
	logger      zerolog.Logger
}

// NewInspector compiles the peer name pattern (matched case-insensitively)
// and returns an Inspector.
func NewInspector(cli dockerClient, peerPattern string, logger zerolog.Logger) (*Inspector, error) {
	re, err := regexp.Compile("(?i)" + peerPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling peer name pattern %q: %w", peerPattern, err)
	}
	return &Inspector{
		cli:         cli,
		peerPattern: re,
		logger:      logger,
	}, nil
}

// Discover inspects each named container and returns its record. A container
// without the compose service label is a hard error.
func (in *Inspector) Discover(ctx context.Context, names []string) ([]session.ContainerRecord, error) {
	records := make([]session.ContainerRecord, 0, len(names))
	for _, name := range names {
		insp, err := in.cli.ContainerInspect(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("inspecting container %s: %w", name, err)
		}
		service, ok := insp.Config.Labels[composeServiceLabel]
		if !ok {
			return nil, NewMissingLabelError(composeServiceLabel, name)
		}
		rec := session.ContainerRecord{
			Name:      name,
			IPAddress: ipAddress(insp),
			Env:       insp.Config.Env,
			Service:   service,
			Role:      in.classify(name),
		}
		in.logger.Debug().Str("container", rec.Name).Str("ip", rec.IPAddress).
			Str("service", rec.Service).Str("role", string(rec.Role)).Msg("Discovered container")
		records = append(records, rec)
	}
	return records, nil
}

func (in *Inspector) classify(name string) session.Role {
	if in.peerPattern.MatchString(name) {
		return session.RolePeer
	}
	return session.RoleOther
}

func ipAddress(insp container.InspectResponse) string {
	if insp.NetworkSettings == nil {
		return ""
	}
	if ip := insp.NetworkSettings.IPAddress; ip != "" {
		return ip
	}
	// Compose attaches containers to a named network instead of the default
	// bridge, where the top-level IPAddress field is empty.
	if ep, ok := util.FirstValue(insp.NetworkSettings.Networks); ok && ep != nil {
		return ep.IPAddress
	}
	return ""
}
