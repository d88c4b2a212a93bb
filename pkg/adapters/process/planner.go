// Package process runs external planner executables as subprocesses.
//
// The contract is line-oriented: the problem document is written to the
// planner's stdin as YAML, and the planner emits one JSON object per stdout
// line ({"status": ..., "plan": ..., "detail": ...}). Anything on stderr is
// logged. A wall-clock budget kills planners that overstay.
package process

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/aretw0/bramble/internal/logging"
	"github.com/aretw0/bramble/pkg/ports"
	"github.com/aretw0/bramble/pkg/schema"
)

// DefaultBudget bounds a planner run when no budget is configured.
const DefaultBudget = 5 * time.Minute

// Planner implements ports.Planner by spawning an external executable.
type Planner struct {
	command string
	args    []string
	env     []string
	baseDir string
	budget  time.Duration
	logger  *slog.Logger
}

// Option configures the planner.
type Option func(*Planner)

// WithArgs appends fixed command-line arguments.
func WithArgs(args ...string) Option {
	return func(p *Planner) {
		p.args = append(p.args, args...)
	}
}

// WithEnvironment adds environment variables for the subprocess.
func WithEnvironment(env map[string]string) Option {
	return func(p *Planner) {
		for k, v := range env {
			p.env = append(p.env, fmt.Sprintf("%s=%s", k, v))
		}
	}
}

// WithBaseDir sets the working directory for the subprocess.
func WithBaseDir(dir string) Option {
	return func(p *Planner) {
		p.baseDir = dir
	}
}

// WithBudget sets the wall-clock budget for one Solve call. When it expires
// the subprocess is killed and a timeout result is emitted.
func WithBudget(budget time.Duration) Option {
	return func(p *Planner) {
		p.budget = budget
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner creates a subprocess planner for the given executable.
func NewPlanner(command string, opts ...Option) *Planner {
	p := &Planner{
		command: command,
		budget:  DefaultBudget,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromConfig creates a planner from a loaded configuration entry.
func FromConfig(cfg PlannerConfig, opts ...Option) *Planner {
	base := []Option{WithArgs(cfg.Args...), WithEnvironment(cfg.Environment)}
	return NewPlanner(cfg.Command, append(base, opts...)...)
}

// wireResult is one stdout line of the planner protocol.
type wireResult struct {
	Status string          `json:"status"`
	Plan   *schema.PlanDoc `json:"plan,omitempty"`
	Detail string          `json:"detail,omitempty"`
}

var statusNames = map[string]ports.PlanStatus{
	string(ports.StatusIntermediate): ports.StatusIntermediate,
	string(ports.StatusFinal):        ports.StatusFinal,
	string(ports.StatusUnsolvable):   ports.StatusUnsolvable,
	string(ports.StatusTimeout):      ports.StatusTimeout,
	string(ports.StatusError):        ports.StatusError,
}

// Solve encodes the problem onto the planner's stdin and streams its results.
// The returned channel always ends with a terminal result and is then closed;
// if the process dies or the budget expires before it reports one, the
// adapter synthesizes it.
func (p *Planner) Solve(ctx context.Context, problem *schema.ProblemDoc) (<-chan ports.PlanResult, error) {
	if problem == nil {
		return nil, fmt.Errorf("problem must not be nil")
	}

	input, err := schema.EncodeProblem(problem)
	if err != nil {
		return nil, fmt.Errorf("failed to encode problem: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, p.budget)

	cmd := exec.CommandContext(runCtx, p.command, p.args...)
	cmd.Dir = p.baseDir
	if len(p.env) > 0 {
		cmd.Env = append(cmd.Environ(), p.env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start planner %s: %w", p.command, err)
	}

	go func() {
		defer stdin.Close()
		if _, err := stdin.Write(input); err != nil {
			p.logger.Warn("failed to write problem to planner", "command", p.command, "err", err)
		}
	}()

	go func() {
		lines := bufio.NewScanner(stderr)
		for lines.Scan() {
			p.logger.Debug("planner stderr", "command", p.command, "line", lines.Text())
		}
	}()

	results := make(chan ports.PlanResult, 1)
	go func() {
		defer close(results)
		defer cancel()

		terminal := false
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var wire wireResult
			if err := json.Unmarshal(line, &wire); err != nil {
				p.logger.Warn("unparseable planner output", "command", p.command, "err", err)
				continue
			}
			status, ok := statusNames[wire.Status]
			if !ok {
				p.logger.Warn("unknown planner status", "command", p.command, "status", wire.Status)
				continue
			}

			if terminal {
				// The protocol ends at the first terminal result.
				p.logger.Warn("planner output after terminal result", "command", p.command, "status", wire.Status)
				continue
			}
			results <- ports.PlanResult{Status: status, Plan: wire.Plan, Detail: wire.Detail}
			if status.Terminal() {
				terminal = true
			}
		}

		waitErr := cmd.Wait()
		if terminal {
			return
		}

		// The process ended without a terminal result: classify why.
		switch {
		case runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
			results <- ports.PlanResult{
				Status: ports.StatusTimeout,
				Detail: fmt.Sprintf("planner exceeded %s budget", p.budget),
			}
		case waitErr != nil:
			results <- ports.PlanResult{
				Status: ports.StatusError,
				Detail: fmt.Sprintf("planner failed: %v", waitErr),
			}
		default:
			results <- ports.PlanResult{
				Status: ports.StatusError,
				Detail: "planner exited without a terminal result",
			}
		}
	}()

	return results, nil
}
