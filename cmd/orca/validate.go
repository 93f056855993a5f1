package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumina/orca/internal/schema"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Schema-validate an AP2 decision contract file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return newUsageError("read %s: %w", args[0], err)
			}
			var data map[string]any
			if err := json.Unmarshal(raw, &data); err != nil {
				return newUsageError("parse %s: %w", args[0], err)
			}

			out := schema.New().Validate(schema.TypeDecision, data)
			if out.Valid {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}
			for _, e := range out.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return fmt.Errorf("%s failed schema validation", args[0])
		},
	}
}
