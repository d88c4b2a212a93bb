package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/bramble/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [problem.yaml]",
	Short: "Check a problem document for consistency",
	Long: `Decodes and builds the problem document, reporting every validation
failure it finds: unknown types, unparseable expressions, ill-typed effects.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			var agg *schema.AggregateError
			if errors.As(err, &agg) {
				fmt.Fprintf(os.Stderr, "Validation failed with %d problem(s):\n", len(agg.Errors))
				for _, e := range agg.Errors {
					fmt.Fprintf(os.Stderr, "  - %v\n", e)
				}
			} else {
				fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			}
			os.Exit(1)
		}
		fmt.Println("Problem is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, err := loadEngine(cmd, args)
	return err
}
