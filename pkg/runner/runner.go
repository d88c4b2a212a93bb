package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/bramble"
	"github.com/aretw0/bramble/internal/logging"
	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/schema"
	"github.com/aretw0/bramble/pkg/session"
	"github.com/aretw0/bramble/pkg/state"
)

// ErrNoApplicableActions is returned when the loop reaches a non-goal state
// from which no ground action applies.
var ErrNoApplicableActions = errors.New("no applicable actions from the current state")

// Renderer post-processes a block of output before it is written, for
// example through a markdown renderer.
type Renderer func(string) (string, error)

// Runner drives an interactive session against a sequential simulator.
type Runner struct {
	engine    *bramble.Engine
	sessions  *session.Manager
	sessionID string
	in        io.Reader
	out       io.Writer
	logger    *slog.Logger
	renderer  Renderer
}

// New creates a runner for the given engine reading from stdin and writing
// to stdout unless options say otherwise.
func New(engine *bramble.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the interactive loop until the goal is reached, the input is
// exhausted, the user quits, or the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	st, err := r.restore(ctx)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(r.in)
	sim := r.engine.Sequential()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		reached, err := sim.IsGoal(st)
		if err != nil {
			return err
		}
		if reached {
			r.print("Goal reached! 🎉\n")
			return nil
		}

		choices := r.applicable(st)
		if len(choices) == 0 {
			r.print("Dead end: no applicable actions.\n")
			return ErrNoApplicableActions
		}
		r.printTurn(st, choices)

		line, ok, err := r.read(scanner)
		if err != nil {
			return err
		}
		if !ok {
			return nil // input exhausted
		}

		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			r.print("Enter the number of an action, or: state, quit\n")
			continue
		case "state":
			r.print("%s", r.valuation(st))
			continue
		}

		ai, ok := pick(choices, line)
		if !ok {
			r.print("Unknown choice %q. Enter a number between 1 and %d.\n", line, len(choices))
			continue
		}

		next, err := sim.Apply(st, ai.Action, ai.Params...)
		if err != nil {
			return err
		}
		if next == nil {
			// Applicability was checked above, so this only happens on
			// conflicting effects within the action itself.
			r.print("Could not apply %s.\n", ai)
			continue
		}

		r.logger.Debug("action applied", "action", ai.String())
		if err := r.persist(ctx, ai, next); err != nil {
			return err
		}
		st = next
	}
}

// restore loads the persisted session state, or starts from the initial
// state when no session manager is configured or the session is fresh.
func (r *Runner) restore(ctx context.Context) (*state.State, error) {
	if r.sessions == nil {
		return r.engine.Sequential().InitialState()
	}

	sn, err := r.sessions.LoadOrStart(ctx, r.sessionID, r.engine.Problem().Name())
	if err != nil {
		return nil, err
	}
	if len(sn.Values) == 0 {
		st, err := r.engine.Sequential().InitialState()
		if err != nil {
			return nil, err
		}
		err = r.sessions.Update(ctx, r.sessionID, func(sn *schema.Snapshot) error {
			schema.SnapshotState(sn, st)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	if len(sn.Steps) > 0 {
		r.print("Resuming session %s after %d steps.\n", r.sessionID, len(sn.Steps))
	}
	return schema.RestoreState(sn, r.engine.Problem())
}

func (r *Runner) persist(ctx context.Context, ai model.ActionInstance, st *state.State) error {
	if r.sessions == nil {
		return nil
	}
	return r.sessions.Update(ctx, r.sessionID, func(sn *schema.Snapshot) error {
		schema.SnapshotState(sn, st)
		schema.AppendStep(sn, ai)
		return nil
	})
}

func (r *Runner) applicable(st *state.State) []model.ActionInstance {
	var out []model.ActionInstance
	for ai := range r.engine.Sequential().ApplicableActions(st) {
		out = append(out, ai)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (r *Runner) printTurn(st *state.State, choices []model.ActionInstance) {
	var b strings.Builder
	b.WriteString(r.valuation(st))
	b.WriteString("\nApplicable actions:\n")
	for i, ai := range choices {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, ai)
	}
	r.print("%s", b.String())
}

func (r *Runner) valuation(st *state.State) string {
	flat := st.Flattened()
	lines := make([]string, 0, len(flat))
	for fluent, value := range flat {
		lines = append(lines, fmt.Sprintf("  %s = %s", fluent, value))
	}
	sort.Strings(lines)
	return "State:\n" + strings.Join(lines, "\n") + "\n"
}

// read returns the next sanitized input line. ok is false on normal EOF.
func (r *Runner) read(scanner *bufio.Scanner) (string, bool, error) {
	fmt.Fprint(r.out, "> ")
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	line, err := SanitizeInput(scanner.Text())
	if err != nil {
		r.logger.Warn("rejected input", "err", err)
		return "", true, nil
	}
	return strings.TrimSpace(line), true, nil
}

func (r *Runner) print(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if r.renderer != nil {
		if rendered, err := r.renderer(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprint(r.out, text)
}

// pick resolves a menu entry either by its 1-based number or by the rendered
// action instance, e.g. "move(l0, l1)".
func pick(choices []model.ActionInstance, line string) (model.ActionInstance, bool) {
	if n, err := strconv.Atoi(line); err == nil {
		if n >= 1 && n <= len(choices) {
			return choices[n-1], true
		}
		return model.ActionInstance{}, false
	}
	for _, ai := range choices {
		if ai.String() == line {
			return ai, true
		}
	}
	return model.ActionInstance{}, false
}
