// Package bootstrap wires a config.Config into a ready-to-use
// engine.Engine. It exists so cmd/server and cmd/orca — the HTTP gateway
// and the CLI — assemble the exact same pipeline from the exact same
// configuration instead of maintaining two copies of the wiring.
package bootstrap

import (
	"log/slog"
	"time"

	"lumina/orca/internal/config"
	"lumina/orca/internal/engine"
	"lumina/orca/internal/events"
	"lumina/orca/internal/explain"
	"lumina/orca/internal/receipt"
	"lumina/orca/internal/risk"
	"lumina/orca/internal/rules"
	"lumina/orca/internal/schema"
	"lumina/orca/internal/store"
)

// BuildEngine assembles every pipeline stage from cfg, degrading gracefully
// per §4.12 when optional dependencies (xgb artifacts, Azure OpenAI, a
// signing key) are absent or misconfigured. decisionLog may be nil to
// disable entity/pattern logging (the CLI's one-shot commands do this).
func BuildEngine(cfg *config.Config, decisionLog *store.Store) *engine.Engine {
	riskModel := risk.NewStub()
	if cfg.UseXGB {
		riskModel = riskVariant(cfg)
	}

	var llmClient explain.LLMClient
	aiEnabled := cfg.DecisionMode == config.ModeRulesPlusAI
	if aiEnabled && cfg.AzureOpenAIEndpoint != "" && cfg.AzureOpenAIAPIKey != "" {
		llmClient = explain.NewAzureClient(cfg.AzureOpenAIEndpoint, cfg.AzureOpenAIAPIKey, cfg.AzureOpenAIDeployment, cfg.ExplainMaxTokens)
	}

	signer := LoadSigner(cfg)

	return &engine.Engine{
		RiskModel:       riskModel,
		Rules:           rules.NewRegistry(rules.DefaultThresholds()),
		Explainer:       explain.New(aiEnabled, llmClient, 10*time.Second),
		Signer:          signer,
		Emitter:         events.New(eventsConfig(cfg)),
		Validator:       schema.New(),
		DecisionLog:     decisionLog,
		ReceiptHashOnly: cfg.ReceiptHashOnly,
	}
}

func riskVariant(cfg *config.Config) risk.Model {
	return risk.NewVariant("xgb", cfg.XGBModelDir, 0.05)
}

func eventsConfig(cfg *config.Config) events.Config {
	c := events.DefaultConfig(cfg.CESubscriberURL)
	if cfg.CESourceURI != "" {
		c.SourceURI = cfg.CESourceURI
	}
	return c
}

// LoadSigner resolves the receipt signer per cfg.SignDecisions/SigningKeyPath,
// falling back to a warned ephemeral test key when no key path is set.
func LoadSigner(cfg *config.Config) *receipt.Signer {
	if !cfg.SignDecisions {
		return nil
	}
	if cfg.SigningKeyPath == "" {
		signer, err := receipt.NewEphemeralSigner()
		if err != nil {
			slog.Error("failed to generate ephemeral signing key", "error", err)
			return nil
		}
		slog.Warn("ORCA_SIGN_DECISIONS is set but ORCA_SIGNING_KEY_PATH is empty; using an ephemeral TEST KEY — do not use in production")
		return signer
	}

	pemBytes, err := receipt.ReadPEMFile(cfg.SigningKeyPath)
	if err != nil {
		slog.Error("failed to read signing key file", "path", cfg.SigningKeyPath, "error", err)
		return nil
	}
	signer, err := receipt.NewSignerFromPEM(cfg.KeyID, pemBytes, receipt.KeySourceFile)
	if err != nil {
		slog.Error("failed to parse signing key", "path", cfg.SigningKeyPath, "error", err)
		return nil
	}
	return signer
}
