// Package http serves one planning problem over a JSON API: session CRUD
// plus step-by-step plan simulation against stored sessions.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/bramble"
	"github.com/aretw0/bramble/internal/logging"
	"github.com/aretw0/bramble/pkg/ports"
	"github.com/aretw0/bramble/pkg/schema"
	"github.com/aretw0/bramble/pkg/session"
)

// Server exposes a single engine and its sessions.
type Server struct {
	engine   *bramble.Engine
	sessions *session.Manager
	logger   *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the HTTP handler for the engine and session manager.
func NewHandler(engine *bramble.Engine, sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/apply", s.applyAction)
			r.Get("/applicable", s.applicableActions)
		})
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"problem": s.engine.Problem().Name(),
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

type createSessionRequest struct {
	ID string `json:"id,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	id := body.ID
	if id == "" {
		id = uuid.NewString()
	}

	sn, err := s.sessions.LoadOrStart(r.Context(), id, s.engine.Problem().Name())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(sn.Values) == 0 {
		// Fresh session: seed it with the initial valuation.
		st, err := s.engine.Sequential().InitialState()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		err = s.sessions.Update(r.Context(), id, func(sn *schema.Snapshot) error {
			schema.SnapshotState(sn, st)
			return nil
		})
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		sn, err = s.sessions.Load(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	s.writeJSON(w, http.StatusCreated, sn)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sn, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sn)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyRequest struct {
	Action string   `json:"action"`
	Params []string `json:"params,omitempty"`
}

type applyResponse struct {
	Applied     bool             `json:"applied"`
	Unsatisfied []string         `json:"unsatisfied,omitempty"`
	GoalReached bool             `json:"goal_reached"`
	Session     *schema.Snapshot `json:"session"`
}

func (s *Server) applyAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var body applyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Action == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("action is required"))
		return
	}

	plan, err := schema.BuildSequentialPlan(s.engine.Problem(), &schema.PlanDoc{
		Steps: []schema.StepDoc{{Action: body.Action, Params: body.Params}},
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	ai := plan.Actions[0]

	resp := applyResponse{}
	err = s.sessions.Update(r.Context(), id, func(sn *schema.Snapshot) error {
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
		return nil
	})
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	sn, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	resp.Session = sn

	status := http.StatusOK
	if !resp.Applied {
		status = http.StatusConflict
	}
	s.writeJSON(w, status, resp)
}

type applicableResponse struct {
	Actions []string `json:"actions"`
}

func (s *Server) applicableActions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	sn, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	st, err := schema.RestoreState(sn, s.engine.Problem())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := applicableResponse{Actions: []string{}}
	for ai := range s.engine.Sequential().ApplicableActions(st) {
		resp.Actions = append(resp.Actions, ai.String())
	}
	s.writeJSON(w, http.StatusOK, resp)
}
