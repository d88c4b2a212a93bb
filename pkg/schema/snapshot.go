package schema

import (
	"fmt"
	"time"

	"github.com/aretw0/bramble/internal/compiler"
	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/state"
)

// NewSnapshot starts an empty session record for a problem.
func NewSnapshot(session, problem string) *Snapshot {
	return &Snapshot{
		Session:   session,
		Problem:   problem,
		Values:    make(map[string]string),
		UpdatedAt: time.Now().UTC(),
	}
}

// SnapshotState renders the state's flattened valuation into the snapshot's
// string form and stamps it.
func SnapshotState(sn *Snapshot, st *state.State) {
	values := make(map[string]string)
	for fluent, value := range st.Flattened() {
		values[fluent.String()] = value.String()
	}
	sn.Values = values
	sn.UpdatedAt = time.Now().UTC()
}

// RestoreState rebuilds a persistent state from the snapshot by compiling
// both sides of every entry against the problem.
func RestoreState(sn *Snapshot, p *model.Problem) (*state.State, error) {
	parser := compiler.NewParser(compiler.Scope{Problem: p})
	values := make(map[*model.Node]*model.Node, len(sn.Values))
	for key, raw := range sn.Values {
		fluent, err := parser.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("snapshot key %q: %w", key, err)
		}
		value, err := parser.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("snapshot value %q for %q: %w", raw, key, err)
		}
		values[fluent] = value
	}
	return state.New(values), nil
}

// AppendStep records one applied action instance on the snapshot.
func AppendStep(sn *Snapshot, ai model.ActionInstance) {
	params := make([]string, len(ai.Params))
	for i, p := range ai.Params {
		params[i] = p.String()
	}
	sn.Steps = append(sn.Steps, StepDoc{Action: ai.Action.Name(), Params: params})
	sn.UpdatedAt = time.Now().UTC()
}
