// Command orca is the offline counterpart to the HTTP gateway: it runs the
// same decision pipeline against a JSON request read from an argument, a
// file, or stdin, and carries a handful of receipt/key utilities for
// inspecting the contracts the engine produces.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumina/orca/internal/bootstrap"
	"lumina/orca/internal/config"
	"lumina/orca/internal/engine"
)

// usageError marks an error raised through newUsageError by a subcommand as
// distinct from a validation or logic failure, so main can map it to exit
// code 2. Cobra's own argument-count and flag-parse errors are not wrapped
// in usageError and exit with code 1.
type usageError struct{ error }

func newUsageError(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func newEngine() *engine.Engine {
	cfg := config.Load()
	return bootstrap.BuildEngine(cfg, nil)
}

func main() {
	root := &cobra.Command{
		Use:           "orca",
		Short:         "Run and inspect the Orca checkout decision engine outside the HTTP gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDecideCmd(),
		newDecideFileCmd(),
		newDecideStdinCmd(),
		newValidateCmd(),
		newCreateSampleCmd(),
		newExplainCmd(),
		newVerifyReceiptCmd(),
		newVerifySignatureCmd(),
		newGenerateTestKeysCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "orca:", err)
		if _, isUsage := err.(usageError); isUsage {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
