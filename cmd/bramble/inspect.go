package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bramble/internal/presentation/graph"
	"github.com/aretw0/bramble/pkg/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <plan.yaml>",
	Short: "Export a plan visualization",
	Long: `Outputs a Mermaid diagram of the plan: a flowchart for sequential plans,
a gantt chart for temporal ones. Pipe it into any Mermaid renderer.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInspect(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Inspect failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, planPath string) error {
	eng, err := loadEngine(cmd, nil)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(planPath)
	if err != nil {
		return fmt.Errorf("failed to read plan file: %w", err)
	}
	planDoc, err := schema.DecodePlan(data)
	if err != nil {
		return err
	}

	if planDoc.Kind == "temporal" {
		plan, err := schema.BuildTimeTriggeredPlan(eng.Problem(), planDoc)
		if err != nil {
			return err
		}
		fmt.Print(graph.TemporalGantt(eng.Problem().Name(), plan))
		return nil
	}

	plan, err := schema.BuildSequentialPlan(eng.Problem(), planDoc)
	if err != nil {
		return err
	}

	// Overlay replay progress so failing steps stand out.
	report, err := eng.SimulatePlan(cmd.Context(), planDoc)
	if err != nil {
		return err
	}
	overlay := &graph.Overlay{Applied: report.Applied, Failed: -1}
	if report.Failure != nil {
		overlay.Failed = report.Failure.Index
	}

	fmt.Print(graph.SequentialFlowchart(plan, overlay))
	return nil
}
