package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentchaos/chaosproxy/internal/plan"
)

// runValidatePlan parses and validates a plan file without starting the
// proxy, for CI and pre-deploy checks. Secret references are left
// unexpanded since no proxy process is running to resolve them against.
func runValidatePlan(_ *cobra.Command, args []string) error {
	cfg := loadRuntimeConfig()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return &planLoadError{err: err}
	}

	strict := plan.StrictMode{ClassifierStrict: cfg.ClassifierStrict}
	loaded, err := plan.ValidatePlan(data, strict)
	if err != nil {
		var loadErr *plan.PlanLoadError
		if errors.As(err, &loadErr) {
			for _, fe := range loadErr.Errors {
				fmt.Fprintf(os.Stderr, "  %s\n", fe.String())
			}
		}
		return &planLoadError{err: err}
	}

	fmt.Printf("plan %q (revision %d) is valid: %d target(s), %d scenario(s)\n",
		loaded.Metadata.Name, loaded.Revision, len(loaded.Targets), len(loaded.Scenarios))
	return nil
}
