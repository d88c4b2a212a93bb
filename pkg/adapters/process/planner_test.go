package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/adapters/process"
	"github.com/aretw0/bramble/pkg/ports"
	"github.com/aretw0/bramble/pkg/schema"
)

// scriptPlanner wraps a shell one-liner as a planner executable.
func scriptPlanner(t *testing.T, script string, opts ...process.Option) *process.Planner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixtures require a POSIX shell")
	}
	return process.NewPlanner("sh", append([]process.Option{process.WithArgs("-c", script)}, opts...)...)
}

func drain(t *testing.T, ch <-chan ports.PlanResult) []ports.PlanResult {
	t.Helper()
	var results []ports.PlanResult
	deadline := time.After(10 * time.Second)
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return results
			}
			results = append(results, r)
		case <-deadline:
			t.Fatal("planner channel never closed")
		}
	}
}

func TestPlanner_AnytimeStream(t *testing.T) {
	script := `cat >/dev/null
echo '{"status":"intermediate","plan":{"steps":[{"action":"move","params":["l0","l1"]}]},"detail":"first candidate"}'
echo '{"status":"final","plan":{"kind":"sequential","steps":[{"action":"move","params":["l0","l1"]}]}}'`
	p := scriptPlanner(t, script)

	ch, err := p.Solve(context.Background(), &schema.ProblemDoc{Name: "logistics"})
	require.NoError(t, err)

	results := drain(t, ch)
	require.Len(t, results, 2)

	assert.Equal(t, ports.StatusIntermediate, results[0].Status)
	assert.Equal(t, "first candidate", results[0].Detail)
	require.NotNil(t, results[0].Plan)

	assert.Equal(t, ports.StatusFinal, results[1].Status)
	require.NotNil(t, results[1].Plan)
	require.Len(t, results[1].Plan.Steps, 1)
	assert.Equal(t, "move", results[1].Plan.Steps[0].Action)
	assert.Equal(t, []string{"l0", "l1"}, results[1].Plan.Steps[0].Params)
}

func TestPlanner_BudgetKillsProcess(t *testing.T) {
	p := scriptPlanner(t, `cat >/dev/null; sleep 30`, process.WithBudget(200*time.Millisecond))

	start := time.Now()
	ch, err := p.Solve(context.Background(), &schema.ProblemDoc{Name: "slow"})
	require.NoError(t, err)

	results := drain(t, ch)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.Len(t, results, 1)
	assert.Equal(t, ports.StatusTimeout, results[0].Status)
}

func TestPlanner_CrashBecomesError(t *testing.T) {
	p := scriptPlanner(t, `cat >/dev/null; exit 3`)

	ch, err := p.Solve(context.Background(), &schema.ProblemDoc{Name: "crash"})
	require.NoError(t, err)

	results := drain(t, ch)
	require.Len(t, results, 1)
	assert.Equal(t, ports.StatusError, results[0].Status)
	assert.Contains(t, results[0].Detail, "planner failed")
}

func TestPlanner_SilentExitBecomesError(t *testing.T) {
	p := scriptPlanner(t, `cat >/dev/null
echo '{"status":"intermediate","plan":{"steps":[]}}'`)

	ch, err := p.Solve(context.Background(), &schema.ProblemDoc{Name: "quiet"})
	require.NoError(t, err)

	results := drain(t, ch)
	require.Len(t, results, 2)
	assert.Equal(t, ports.StatusIntermediate, results[0].Status)
	assert.Equal(t, ports.StatusError, results[1].Status)
	assert.Contains(t, results[1].Detail, "without a terminal result")
}

func TestPlanner_OutputAfterTerminalIgnored(t *testing.T) {
	p := scriptPlanner(t, `cat >/dev/null
echo '{"status":"unsolvable","detail":"proved"}'
echo '{"status":"intermediate","plan":{"steps":[]}}'`)

	ch, err := p.Solve(context.Background(), &schema.ProblemDoc{Name: "unsat"})
	require.NoError(t, err)

	results := drain(t, ch)
	require.Len(t, results, 1)
	assert.Equal(t, ports.StatusUnsolvable, results[0].Status)
	assert.Equal(t, "proved", results[0].Detail)
}

func TestLoadPlanners(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planners.yaml")
	content := `planners:
  - name: lama
    command: fast-downward
    args: ["--alias", "lama"]
  - name: ""
    command: ignored
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	planners, err := process.LoadPlanners(path)
	require.NoError(t, err)
	require.Len(t, planners, 1)
	assert.Equal(t, "fast-downward", planners["lama"].Command)

	missing, err := process.LoadPlanners(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
