package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lumina/orca/internal/domain"
)

func newDecideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decide <json>",
		Short: "Run a decision request given as a literal JSON argument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRequest([]byte(args[0]))
			if err != nil {
				return newUsageError("parse request: %w", err)
			}
			return runDecide(cmd.OutOrStdout(), req, decideOpts{})
		},
	}
}

type decideOpts struct {
	outputPath    string
	legacyJSON    bool
	printExplain  bool
	validateOnly  bool
}

func newDecideFileCmd() *cobra.Command {
	var opts decideOpts
	cmd := &cobra.Command{
		Use:   "decide-file <path>",
		Short: "Run a decision request read from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return newUsageError("read %s: %w", args[0], err)
			}
			req, err := parseRequest(raw)
			if err != nil {
				return newUsageError("parse request: %w", err)
			}
			if opts.validateOnly {
				req.Normalize()
				fmt.Fprintln(cmd.OutOrStdout(), "request OK")
				return nil
			}

			out := cmd.OutOrStdout()
			if opts.outputPath != "" {
				f, err := os.Create(opts.outputPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", opts.outputPath, err)
				}
				defer f.Close()
				out = f
			}
			return runDecide(out, req, opts)
		},
	}
	cmd.Flags().StringVar(&opts.outputPath, "output", "", "write the result to this path instead of stdout")
	cmd.Flags().BoolVar(&opts.legacyJSON, "legacy-json", false, "emit the flat internal decision response instead of the AP2 contract")
	cmd.Flags().BoolVar(&opts.printExplain, "explain", false, "also print the deterministic narrative to stderr")
	cmd.Flags().BoolVar(&opts.validateOnly, "validate-only", false, "only check that the request parses and normalizes; do not run the pipeline")
	return cmd
}

func newDecideStdinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decide-stdin",
		Short: "Run a decision request read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			req, err := parseRequest(raw)
			if err != nil {
				return newUsageError("parse request: %w", err)
			}
			return runDecide(cmd.OutOrStdout(), req, decideOpts{})
		},
	}
}

func parseRequest(raw []byte) (*domain.DecisionRequest, error) {
	var req domain.DecisionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func runDecide(w io.Writer, req *domain.DecisionRequest, opts decideOpts) error {
	eng := newEngine()
	outcome, err := eng.Decide(context.Background(), req)
	if err != nil {
		return err
	}

	if opts.printExplain {
		fmt.Fprintln(os.Stderr, outcome.Response.Explanation)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if opts.legacyJSON {
		return enc.Encode(outcome.Response)
	}
	return enc.Encode(outcome.Contract)
}

