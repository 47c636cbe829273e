package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "v0.1.0" // injected via -ldflags at build time

func main() {
	setupViper()

	var planPath string
	var listen string
	var controlListen string

	rootCmd := &cobra.Command{
		Use:     "chaosproxy",
		Short:   "Chaos-engineering interception proxy for AI-agent workloads",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&planPath, "plan", "", "Chaos plan file path")
	rootCmd.PersistentFlags().StringVar(&listen, "listen", "", "Proxy listen address")
	rootCmd.PersistentFlags().StringVar(&controlListen, "control-listen", "", "Control plane listen address")
	_ = viper.BindPFlag("plan", rootCmd.PersistentFlags().Lookup("plan"))
	_ = viper.BindPFlag("listen", rootCmd.PersistentFlags().Lookup("listen"))
	_ = viper.BindPFlag("control-listen", rootCmd.PersistentFlags().Lookup("control-listen"))

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the proxy and its control plane",
		RunE:  runServe,
	}

	validateCmd := &cobra.Command{
		Use:   "validate-plan [path]",
		Short: "Validate a chaos plan file and exit",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidatePlan,
	}

	var replayTape string
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Serve a recorded tape with no upstream traffic, for CI regression checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(replayTape)
		},
	}
	replayCmd.Flags().StringVar(&replayTape, "tape", "", "Tape file to replay")
	_ = replayCmd.MarkFlagRequired("tape")

	rootCmd.AddCommand(serveCmd, validateCmd, replayCmd)

	if err := rootCmd.Execute(); err != nil {
		code := classifyError(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(code)
	}
}

// classifyError maps a failure into the reference executable's exit code
// scheme: 0 success, 1 plan load failure, 2 port bind failure, 3 tape I/O
// failure, 4 strict-mode dependency missing.
func classifyError(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var planErr *planLoadError
	if errors.As(err, &planErr) {
		return ExitCodePlanLoadFailure
	}
	var tapeErr *tapeIOError
	if errors.As(err, &tapeErr) {
		return ExitCodeTapeIOFailure
	}
	var strictErr *strictDependencyError
	if errors.As(err, &strictErr) {
		return ExitCodeStrictModeDepMissing
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "address already in use") || strings.Contains(msg, "bind:"):
		return ExitCodePortBindFailure
	case strings.Contains(msg, "plan"):
		return ExitCodePlanLoadFailure
	case strings.Contains(msg, "tape:"):
		return ExitCodeTapeIOFailure
	default:
		return ExitCodePlanLoadFailure
	}
}
