package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lumina/orca/internal/domain"
	"lumina/orca/internal/receipt"
)

func newVerifyReceiptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-receipt <path>",
		Short: "Recompute a decision contract's receipt hash and compare it to signing.receipt_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := readContract(args[0])
			if err != nil {
				return newUsageError("%w", err)
			}
			if c.Signing.ReceiptHash == nil {
				return fmt.Errorf("%s has no signing.receipt_hash to verify against", args[0])
			}

			ok, err := receipt.Verify(c, *c.Signing.ReceiptHash)
			if err != nil {
				return fmt.Errorf("recompute receipt hash: %w", err)
			}
			if !ok {
				return fmt.Errorf("receipt hash mismatch")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "receipt hash OK")
			return nil
		},
	}
}

func newVerifySignatureCmd() *cobra.Command {
	var pubKeyPath string
	cmd := &cobra.Command{
		Use:   "verify-signature <path>",
		Short: "Verify a decision contract's VC proof against a public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := readContract(args[0])
			if err != nil {
				return newUsageError("%w", err)
			}
			if c.Signing.VCProof == nil {
				return fmt.Errorf("%s carries no vc_proof", args[0])
			}
			if pubKeyPath == "" {
				return newUsageError("--public-key is required")
			}

			pemBytes, err := receipt.ReadPEMFile(pubKeyPath)
			if err != nil {
				return newUsageError("read %s: %w", pubKeyPath, err)
			}
			pub, err := receipt.ParsePublicKeyPEM(pemBytes)
			if err != nil {
				return newUsageError("parse %s: %w", pubKeyPath, err)
			}

			if !receipt.VerifyProofWithPublicKey(c.Signing.VCProof, pub) {
				return fmt.Errorf("signature verification failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signature OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&pubKeyPath, "public-key", "", "path to a PEM-encoded Ed25519 public key")
	return cmd
}

func newGenerateTestKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-test-keys <dir>",
		Short: "Generate a fresh Ed25519 test keypair and write private.pem/public.pem into dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			privPEM, pubPEM, keyID, err := receipt.GenerateTestKeypair()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(args[0], 0o755); err != nil {
				return fmt.Errorf("create %s: %w", args[0], err)
			}
			privPath := filepath.Join(args[0], "private.pem")
			pubPath := filepath.Join(args[0], "public.pem")
			if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", privPath, err)
			}
			if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", pubPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s (key_id=%s)\n", privPath, pubPath, keyID)
			fmt.Fprintln(cmd.ErrOrStderr(), "TEST KEYS — do not use in production")
			return nil
		},
	}
}

func readContract(path string) (*domain.DecisionContract, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var c domain.DecisionContract
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}
