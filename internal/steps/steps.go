package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"
)

type harness interface {
	ComposeUp(ctx context.Context, fileSpec string) error
	WaitAllReady(ctx context.Context, timeout time.Duration) (bool, error)
}

// Suite binds harness operations to BDD steps so acceptance scenarios can
// synchronize with container startup before running their own steps.
type Suite struct {
	harness harness
	logger  zerolog.Logger
}

func NewSuite(h harness, logger zerolog.Logger) *Suite {
	return &Suite{harness: h, logger: logger}
}

// RegisterSteps attaches the readiness steps to a scenario context.
func (s *Suite) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I start the compose topology "([^"]*)"$`, s.startTopology)
	sc.Step(`^all services should be ready within (\d+) seconds$`, s.allReadyWithin)
}

func (s *Suite) startTopology(ctx context.Context, fileSpec string) error {
	s.logger.Info().Str("files", fileSpec).Msg("Starting compose topology")
	return s.harness.ComposeUp(ctx, fileSpec)
}

func (s *Suite) allReadyWithin(ctx context.Context, seconds int) error {
	ready, err := s.harness.WaitAllReady(ctx, time.Duration(seconds)*time.Second)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("services not ready within %d seconds", seconds)
	}
	return nil
}
