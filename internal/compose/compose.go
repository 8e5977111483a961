package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/nakamura-yasu/fabric-1/internal/runner"
)

// FileArgs expands a whitespace-separated compose-file list into the -f
// argument pairs the compose CLI expects.
func FileArgs(fileSpec string) []string {
	var args []string
	for _, part := range strings.Fields(fileSpec) {
		args = append(args, "-f", part)
	}
	return args
}

// DefaultProjectPrefix mirrors the compose CLI's default project name: the
// base name of the working directory.
func DefaultProjectPrefix() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}

// ParseStartupLog extracts container names from the compose startup log. The
// name is the second whitespace token of each line carrying at least two
// tokens. Bare service names are normalized to the compose instance convention
// <prefix>_<service>_1. Duplicates are dropped, first-seen order kept.
func ParseStartupLog(raw, projectPrefix string) []string {
	prefix := projectPrefix + "_"
	var names []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			continue
		}
		name := tokens[1]
		if !strings.Contains(name, prefix) {
			name = prefix + name + "_1"
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Services returns the sorted service names declared in a compose file.
func Services(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compose file: %w", err)
	}
	var doc struct {
		Services map[string]yaml.Node `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing compose file %s: %w", path, err)
	}
	services := make([]string, 0, len(doc.Services))
	for name := range doc.Services {
		services = append(services, name)
	}
	sort.Strings(services)
	return services, nil
}

// Orchestrator drives the compose CLI through the command runner.
type Orchestrator struct {
	runner runner.Runner
	logger zerolog.Logger
}

func NewOrchestrator(r runner.Runner, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{runner: r, logger: logger}
}

// Up brings the topology described by fileSpec up detached and returns the
// startup log. Compose reports container creation on stderr.
func (o *Orchestrator) Up(ctx context.Context, fileSpec string) (string, error) {
	argv := append([]string{"docker-compose"}, FileArgs(fileSpec)...)
	argv = append(argv, "up", "-d")
	res, err := o.runner.Run(ctx, argv, true)
	if err != nil {
		return "", fmt.Errorf("compose up: %w", err)
	}
	o.logger.Debug().Str("files", fileSpec).Msg("Compose topology up")
	return res.Stderr, nil
}
