package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// Result captures the outcome of one external command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes an argument vector and captures its output. When
// expectSuccess is true a non-zero exit is returned as an error; otherwise the
// exit code is handed back for the caller to interpret.
type Runner interface {
	Run(ctx context.Context, argv []string, expectSuccess bool) (Result, error)
}

// ExecRunner runs commands on the local host.
type ExecRunner struct {
	logger zerolog.Logger
}

func NewExecRunner(logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, argv []string, expectSuccess bool) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("empty argument vector")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().Strs("argv", argv).Msg("Running command")
	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// The command never ran (binary missing, context canceled).
			return res, fmt.Errorf("running %q: %w", strings.Join(argv, " "), err)
		}
		res.ExitCode = exitErr.ExitCode()
		if expectSuccess {
			return res, fmt.Errorf("command %q exited %d: %s", strings.Join(argv, " "), res.ExitCode, res.Stderr)
		}
		return res, nil
	}
	res.ExitCode = 0
	return res, nil
}
