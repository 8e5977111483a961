package app

import (
	"context"

	"github.com/nakamura-yasu/fabric-1/internal/session"
)

type orchestrator interface {
	Up(ctx context.Context, fileSpec string) (string, error)
}

type inspector interface {
	Discover(ctx context.Context, names []string) ([]session.ContainerRecord, error)
}

type prober interface {
	ContainerReady(ctx context.Context, rec session.ContainerRecord) bool
}

type checker interface {
	PeerConverged(ctx context.Context, rec session.ContainerRecord, expected int) (bool, error)
}
