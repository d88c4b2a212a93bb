package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bramble/internal/presentation/tui"
	"github.com/aretw0/bramble/pkg/schema"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <plan.yaml>",
	Short: "Replay a plan against the problem and report the outcome",
	Long: `Replays the plan document from the problem's initial state. Sequential
plans apply one action at a time; temporal plans (kind: temporal) schedule
durative actions on a timeline and check their timing constraints.

Exits non-zero when a step fails to apply or the goal is not reached.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSimulate(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Bool("plain", false, "Print the report as plain markdown")
}

func runSimulate(cmd *cobra.Command, planPath string) error {
	eng, err := loadEngine(cmd, nil)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(planPath)
	if err != nil {
		return fmt.Errorf("failed to read plan file: %w", err)
	}
	plan, err := schema.DecodePlan(data)
	if err != nil {
		return err
	}

	report, err := eng.SimulatePlan(cmd.Context(), plan)
	if err != nil {
		return err
	}

	markdown := tui.ReportMarkdown(eng.Problem().Name(), report)

	plain, _ := cmd.Flags().GetBool("plain")
	if plain {
		fmt.Print(markdown)
	} else {
		render := tui.NewRenderer()
		out, err := render(markdown)
		if err != nil {
			// Fall back to raw markdown rather than losing the report.
			out = markdown
		}
		fmt.Print(out)
	}

	if !report.Valid {
		return fmt.Errorf("step %d (%s) is not applicable", report.Failure.Index, report.Failure.Step)
	}
	if !report.GoalReached {
		return fmt.Errorf("plan does not reach the goal")
	}
	return nil
}
