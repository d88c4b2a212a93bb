// Package mcp exposes a planning engine and its sessions as an MCP server,
// so agent hosts can validate plans and step simulations as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/bramble"
	"github.com/aretw0/bramble/internal/logging"
	"github.com/aretw0/bramble/pkg/schema"
	"github.com/aretw0/bramble/pkg/session"
)

// Server wraps an engine and session manager as an MCP server.
type Server struct {
	engine    *bramble.Engine
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server over the engine and session manager.
func NewServer(engine *bramble.Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("bramble-mcp", strings.TrimSpace(bramble.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ValidateResponse is the structured result of the validate_plan tool.
type ValidateResponse struct {
	Valid            bool     `json:"valid" jsonschema_description:"True when every step applied"`
	GoalReached      bool     `json:"goal_reached" jsonschema_description:"True when the final state satisfies all goals"`
	Applied          int      `json:"applied" jsonschema_description:"Number of steps applied"`
	FailedStep       string   `json:"failed_step,omitempty" jsonschema_description:"The first failing step, when any"`
	Unsatisfied      []string `json:"unsatisfied,omitempty" jsonschema_description:"Conditions the failing step missed"`
	UnsatisfiedGoals []string `json:"unsatisfied_goals,omitempty" jsonschema_description:"Goals the final state misses"`
}

// ApplyResponse is the structured result of the apply_action tool.
type ApplyResponse struct {
	Applied     bool              `json:"applied" jsonschema_description:"True when the action applied"`
	GoalReached bool              `json:"goal_reached" jsonschema_description:"True when the resulting state satisfies all goals"`
	Unsatisfied []string          `json:"unsatisfied,omitempty" jsonschema_description:"Preconditions that did not hold"`
	Values      map[string]string `json:"values,omitempty" jsonschema_description:"Resulting fluent valuation"`
}

// ActionsResponse is the structured result of the applicable_actions tool.
type ActionsResponse struct {
	Actions []string `json:"actions" jsonschema_description:"Ground actions applicable in the session state"`
}

// GoalResponse is the structured result of the goal_check tool.
type GoalResponse struct {
	GoalReached bool     `json:"goal_reached" jsonschema_description:"True when the session state satisfies all goals"`
	Unsatisfied []string `json:"unsatisfied,omitempty" jsonschema_description:"Goals that do not hold yet"`
}

func (s *Server) registerTools() {
	validateTool := mcp.NewTool("validate_plan",
		mcp.WithDescription("Replay a YAML plan document from the initial state and report how far it got."),
		mcp.WithString("plan", mcp.Required(), mcp.Description("Plan document in YAML (kind: sequential or temporal)")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidatePlan))

	applyTool := mcp.NewTool("apply_action",
		mcp.WithDescription("Apply one ground action to a stored session, advancing its state on success."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session ID (created on first use)")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name")),
		mcp.WithString("params", mcp.Description("JSON array of object names (optional)")),
		mcp.WithOutputSchema[ApplyResponse](),
	)
	s.mcpServer.AddTool(applyTool, mcp.NewStructuredToolHandler(s.handleApplyAction))

	actionsTool := mcp.NewTool("applicable_actions",
		mcp.WithDescription("List the ground actions applicable in a session's current state."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session ID (created on first use)")),
		mcp.WithOutputSchema[ActionsResponse](),
	)
	s.mcpServer.AddTool(actionsTool, mcp.NewStructuredToolHandler(s.handleApplicableActions))

	goalTool := mcp.NewTool("goal_check",
		mcp.WithDescription("Check whether a session's current state satisfies the problem goals."),
		mcp.WithString("session", mcp.Required(), mcp.Description("Session ID (created on first use)")),
		mcp.WithOutputSchema[GoalResponse](),
	)
	s.mcpServer.AddTool(goalTool, mcp.NewStructuredToolHandler(s.handleGoalCheck))
}

func (s *Server) handleValidatePlan(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	planSrc, _ := args["plan"].(string)
	plan, err := schema.DecodePlan([]byte(planSrc))
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("invalid plan: %w", err)
	}

	report, err := s.engine.SimulatePlan(ctx, plan)
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("simulation failed: %w", err)
	}

	resp := ValidateResponse{
		Valid:            report.Valid,
		GoalReached:      report.GoalReached,
		Applied:          report.Applied,
		UnsatisfiedGoals: report.UnsatisfiedGoals,
	}
	if report.Failure != nil {
		resp.FailedStep = report.Failure.Step
		resp.Unsatisfied = report.Failure.Unsatisfied
	}
	return resp, nil
}

// loadSessionState fetches (or starts) the session and restores its state,
// seeding fresh sessions with the initial valuation.
func (s *Server) loadSessionState(ctx context.Context, id string) (*schema.Snapshot, error) {
	sn, err := s.sessions.LoadOrStart(ctx, id, s.engine.Problem().Name())
	if err != nil {
		return nil, err
	}
	if len(sn.Values) > 0 {
		return sn, nil
	}

	st, err := s.engine.Sequential().InitialState()
	if err != nil {
		return nil, err
	}
	err = s.sessions.Update(ctx, id, func(sn *schema.Snapshot) error {
		schema.SnapshotState(sn, st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.sessions.Load(ctx, id)
}

func (s *Server) handleApplyAction(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ApplyResponse, error) {
	id, _ := args["session"].(string)
	action, _ := args["action"].(string)

	var params []string
	if paramsStr, ok := args["params"].(string); ok && paramsStr != "" {
		if err := json.Unmarshal([]byte(paramsStr), &params); err != nil {
			return ApplyResponse{}, fmt.Errorf("params must be a JSON array of object names: %w", err)
		}
	}

	plan, err := schema.BuildSequentialPlan(s.engine.Problem(), &schema.PlanDoc{
		Steps: []schema.StepDoc{{Action: action, Params: params}},
	})
	if err != nil {
		return ApplyResponse{}, err
	}
	ai := plan.Actions[0]

	if _, err := s.loadSessionState(ctx, id); err != nil {
		return ApplyResponse{}, err
	}

	resp := ApplyResponse{}
	err = s.sessions.Update(ctx, id, func(sn *schema.Snapshot) error {
		st, err := schema.RestoreState(sn, s.engine.Problem())
		if err != nil {
			return err
		}

		next, err := s.engine.Sequential().Apply(st, ai.Action, ai.Params...)
		if err != nil {
			return err
		}
		if next == nil {
			unsat, err := s.engine.Sequential().UnsatisfiedConditions(st, ai.Action, ai.Params, false)
			if err != nil {
				return err
			}
			for _, n := range unsat {
				resp.Unsatisfied = append(resp.Unsatisfied, n.String())
			}
			return nil
		}

		resp.Applied = true
		goal, err := s.engine.Sequential().IsGoal(next)
		if err != nil {
			return err
		}
		resp.GoalReached = goal

		schema.SnapshotState(sn, next)
		schema.AppendStep(sn, ai)
		resp.Values = sn.Values
		return nil
	})
	if err != nil {
		return ApplyResponse{}, err
	}
	return resp, nil
}

func (s *Server) handleApplicableActions(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ActionsResponse, error) {
	id, _ := args["session"].(string)

	sn, err := s.loadSessionState(ctx, id)
	if err != nil {
		return ActionsResponse{}, err
	}
	st, err := schema.RestoreState(sn, s.engine.Problem())
	if err != nil {
		return ActionsResponse{}, err
	}

	resp := ActionsResponse{Actions: []string{}}
	for ai := range s.engine.Sequential().ApplicableActions(st) {
		resp.Actions = append(resp.Actions, ai.String())
	}
	return resp, nil
}

func (s *Server) handleGoalCheck(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GoalResponse, error) {
	id, _ := args["session"].(string)

	sn, err := s.loadSessionState(ctx, id)
	if err != nil {
		return GoalResponse{}, err
	}
	st, err := schema.RestoreState(sn, s.engine.Problem())
	if err != nil {
		return GoalResponse{}, err
	}

	goals, err := s.engine.Sequential().UnsatisfiedGoals(st, false)
	if err != nil {
		return GoalResponse{}, err
	}

	resp := GoalResponse{GoalReached: len(goals) == 0}
	for _, g := range goals {
		resp.Unsatisfied = append(resp.Unsatisfied, g.String())
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("bramble://problem", "Current Problem Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p := s.engine.Problem()

		fluents := make([]string, 0, len(p.Fluents()))
		for _, f := range p.Fluents() {
			fluents = append(fluents, f.Name())
		}
		actions := make([]string, 0, len(p.Actions()))
		for _, a := range p.Actions() {
			actions = append(actions, a.Name())
		}
		objects := make([]string, 0, len(p.Objects()))
		for _, o := range p.Objects() {
			objects = append(objects, o.Name())
		}
		summary := map[string]any{
			"name":    p.Name(),
			"fluents": fluents,
			"actions": actions,
			"objects": objects,
		}
		jsonBytes, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal problem summary: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "bramble://problem",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
