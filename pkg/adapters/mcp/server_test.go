package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble"
	"github.com/aretw0/bramble/pkg/adapters/memory"
	"github.com/aretw0/bramble/pkg/session"
)

const switchYAML = `
name: switch
fluents:
  - {name: lit, type: bool}
actions:
  - name: flip_on
    preconditions: [not lit]
    effects:
      - {target: lit, value: true}
init:
  lit: false
goals:
  - lit
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := bramble.Load([]byte(switchYAML))
	require.NoError(t, err)
	return NewServer(eng, session.NewManager(memory.NewStore()))
}

func TestHandleValidatePlan(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleValidatePlan(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"plan": "steps:\n  - {action: flip_on}\n",
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.True(t, resp.GoalReached)
	assert.Equal(t, 1, resp.Applied)

	_, err = s.handleValidatePlan(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"plan": "steps: [",
	})
	assert.Error(t, err)
}

func TestHandleApplyAction(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleApplyAction(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session": "s1",
		"action":  "flip_on",
	})
	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.True(t, resp.GoalReached)
	assert.Equal(t, "true", resp.Values["lit"])

	// The switch is already on, so a second flip is rejected.
	resp, err = s.handleApplyAction(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session": "s1",
		"action":  "flip_on",
	})
	require.NoError(t, err)
	assert.False(t, resp.Applied)
	assert.NotEmpty(t, resp.Unsatisfied)
}

func TestHandleApplicableAndGoal(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	actions, err := s.handleApplicableActions(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session": "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"flip_on"}, actions.Actions)

	goal, err := s.handleGoalCheck(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"session": "s1",
	})
	require.NoError(t, err)
	assert.False(t, goal.GoalReached)
	assert.Equal(t, []string{"lit"}, goal.Unsatisfied)
}
