package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bramble"
	"github.com/aretw0/bramble/pkg/adapters/process"
	"github.com/aretw0/bramble/pkg/ports"
	"github.com/aretw0/bramble/pkg/schema"
)

var planCmd = &cobra.Command{
	Use:   "plan [problem.yaml]",
	Short: "Run an external planner on the problem",
	Long: `Feeds the problem to an external anytime planner, streams the candidate
plans it emits, and validates the final one against the problem. The planner
comes from a planners.yaml config entry (--planner) or a raw command
(--command).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().String("planner", "", "Named planner from the config file")
	planCmd.Flags().String("planners", "planners.yaml", "Path to the planner config file")
	planCmd.Flags().String("command", "", "Planner command to run directly")
	planCmd.Flags().Duration("budget", process.DefaultBudget, "Wall-clock budget for the planner")
	planCmd.Flags().StringP("output", "o", "", "Write the final plan to this file")
}

func runPlan(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("problem")
	if !cmd.Flags().Changed("problem") && len(args) > 0 {
		path = args[0]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := schema.DecodeProblem(data)
	if err != nil {
		return err
	}
	engine, err := bramble.Load(data, bramble.WithLogger(logger))
	if err != nil {
		return err
	}

	budget, _ := cmd.Flags().GetDuration("budget")
	planner, err := resolvePlanner(cmd, process.WithBudget(budget), process.WithLogger(logger))
	if err != nil {
		return err
	}

	results, err := planner.Solve(cmd.Context(), doc)
	if err != nil {
		return err
	}

	var final *schema.PlanDoc
	for res := range results {
		switch res.Status {
		case ports.StatusIntermediate:
			fmt.Printf("Candidate plan with %d step(s)...\n", len(res.Plan.Steps))
			final = res.Plan
		case ports.StatusFinal:
			final = res.Plan
		case ports.StatusUnsolvable:
			return fmt.Errorf("the problem is unsolvable: %s", res.Detail)
		case ports.StatusTimeout:
			if final == nil {
				return fmt.Errorf("planner budget expired with no plan: %s", res.Detail)
			}
			fmt.Printf("Budget expired; keeping the best candidate (%s)\n", res.Detail)
		case ports.StatusError:
			return fmt.Errorf("planner failed: %s", res.Detail)
		}
	}
	if final == nil {
		return fmt.Errorf("planner produced no plan")
	}

	if err := engine.ValidatePlan(cmd.Context(), final); err != nil {
		return fmt.Errorf("planner output did not validate: %w", err)
	}
	fmt.Printf("Found a valid plan with %d step(s). ✅\n", len(final.Steps))

	encoded, err := schema.EncodePlan(final)
	if err != nil {
		return err
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := os.WriteFile(out, encoded, 0o644); err != nil {
			return err
		}
		fmt.Printf("Plan written to %s\n", out)
		return nil
	}
	fmt.Print(string(encoded))
	return nil
}

// resolvePlanner builds the planner from --command, or from the named
// entry in the planner config file.
func resolvePlanner(cmd *cobra.Command, opts ...process.Option) (*process.Planner, error) {
	if command, _ := cmd.Flags().GetString("command"); command != "" {
		return process.NewPlanner(command, opts...), nil
	}

	name, _ := cmd.Flags().GetString("planner")
	if name == "" {
		return nil, fmt.Errorf("either --planner or --command is required")
	}
	configPath, _ := cmd.Flags().GetString("planners")
	planners, err := process.LoadPlanners(configPath)
	if err != nil {
		return nil, err
	}
	cfg, ok := planners[name]
	if !ok {
		return nil, fmt.Errorf("planner %q is not defined in %s", name, configPath)
	}
	return process.FromConfig(cfg, opts...), nil
}
