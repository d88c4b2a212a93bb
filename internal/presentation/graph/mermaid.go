// Package graph renders plans as Mermaid diagrams for the inspect command.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/bramble/pkg/model"
)

// Overlay marks progress on a rendered plan.
type Overlay struct {
	// Applied is the number of leading steps that replayed successfully.
	Applied int
	// Failed marks the step index where the replay stopped, -1 for none.
	Failed int
}

// SequentialFlowchart produces a Mermaid flowchart of a sequential plan:
// one node per step, chained in order, with overlay styling when given.
func SequentialFlowchart(plan *model.SequentialPlan, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	sb.WriteString("    init((\"init\"))\n")
	prev := "init"
	for i, ai := range plan.Actions {
		id := fmt.Sprintf("s%d", i)
		label := strings.ReplaceAll(ai.String(), "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
		prev = id
	}
	sb.WriteString("    goal((\"goal\"))\n")
	sb.WriteString(fmt.Sprintf("    %s --> goal\n", prev))

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef applied fill:#dcfce7,stroke:#15803d,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#fee2e2,stroke:#b91c1c,stroke-width:4px,color:#000;\n")
		for i := 0; i < overlay.Applied && i < len(plan.Actions); i++ {
			sb.WriteString(fmt.Sprintf("    class s%d applied;\n", i))
		}
		if overlay.Failed >= 0 && overlay.Failed < len(plan.Actions) {
			sb.WriteString(fmt.Sprintf("    class s%d failed;\n", overlay.Failed))
		}
	}

	return sb.String()
}

// TemporalGantt produces a Mermaid gantt chart of a time-triggered plan.
// Times are rendered in whole milliseconds on an artificial axis, so plan
// times like 2.5 stay distinguishable.
func TemporalGantt(title string, plan *model.TimeTriggeredPlan) string {
	var sb strings.Builder
	sb.WriteString("gantt\n")
	sb.WriteString("    dateFormat x\n")
	sb.WriteString("    axisFormat %L\n")
	if title != "" {
		fmt.Fprintf(&sb, "    title %s\n", strings.ReplaceAll(title, "\n", " "))
	}

	for i, step := range plan.Steps {
		label := strings.ReplaceAll(step.Instance.String(), ":", ";")
		start := int64(step.Start * 1000)
		duration := int64(step.Duration * 1000)
		if duration <= 0 {
			// Instantaneous steps still need visible width.
			duration = 1
		}
		fmt.Fprintf(&sb, "    %s :s%d, %d, %dms\n", label, i, start, duration)
	}

	return sb.String()
}
