package runner

import (
	"io"
	"log/slog"

	"github.com/aretw0/bramble/pkg/session"
)

// Option configures a Runner.
type Option func(*Runner)

// WithInput sets the reader choices are read from.
func WithInput(in io.Reader) Option {
	return func(r *Runner) { r.in = in }
}

// WithOutput sets the writer prompts and state are written to.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) { r.out = out }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSession persists every applied step under the given session ID, so an
// interrupted run resumes where it stopped.
func WithSession(manager *session.Manager, sessionID string) Option {
	return func(r *Runner) {
		r.sessions = manager
		r.sessionID = sessionID
	}
}

// WithRenderer post-processes output blocks before they are written.
func WithRenderer(renderer Renderer) Option {
	return func(r *Runner) { r.renderer = renderer }
}
