package simulator

import (
	"log/slog"

	"github.com/aretw0/bramble/internal/logging"
	"github.com/aretw0/bramble/pkg/state"
)

type config struct {
	grounder     Grounder
	logger       *slog.Logger
	hooks        LifecycleHooks
	maxAncestors int
}

// Option configures a simulator.
type Option func(*config)

// WithGrounder replaces the default naive grounder.
func WithGrounder(g Grounder) Option {
	return func(c *config) { c.grounder = g }
}

// WithLogger sets a structured logger for engine diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithHooks registers lifecycle observability hooks.
func WithHooks(h LifecycleHooks) Option {
	return func(c *config) { c.hooks = h }
}

// WithMaxAncestors overrides the sequential state condensation threshold.
// Negative disables condensation. Temporal states always ignore this.
func WithMaxAncestors(n int) Option {
	return func(c *config) { c.maxAncestors = n }
}

func newConfig(opts []Option) config {
	c := config{
		logger:       logging.NewNop(),
		maxAncestors: state.DefaultMaxAncestors,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
