// Package config reads the process-wide, read-once-at-startup configuration
// described in §4.12. It reads every ORCA_* and AZURE_OPENAI_* key; the
// server binaries read PORT themselves.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecisionMode toggles whether the Explanation Composer ever attempts the
// guardrailed LLM overlay.
type DecisionMode string

const (
	ModeRulesOnly   DecisionMode = "RULES_ONLY"
	ModeRulesPlusAI DecisionMode = "RULES_PLUS_AI"
)

// Config is the fully-resolved, immutable configuration for one process.
type Config struct {
	DecisionMode DecisionMode

	UseXGB     bool
	XGBModelDir string

	AzureOpenAIEndpoint   string
	AzureOpenAIAPIKey     string
	AzureOpenAIDeployment string

	ExplainMaxTokens          int
	ExplainStrictJSON         bool
	ExplainRefuseOnUncertainty bool

	SignDecisions   bool
	ReceiptHashOnly bool

	CESubscriberURL string
	CESourceURI     string

	SigningKeyPath string
	KeyID          string
}

// Load reads every §4.12 key from the environment and applies the documented
// defaults. It never fails — missing or malformed values fall back to safe
// defaults and are reported through Validate instead, matching the spec's
// "inconsistent configuration is permitted but logged" posture.
func Load() *Config {
	cfg := loadFromEnv()
	if path := getEnv("ORCA_CONFIG_FILE", ""); path != "" {
		applyYAMLOverlay(cfg, path)
	}
	return cfg
}

func loadFromEnv() *Config {
	return &Config{
		DecisionMode: decisionMode(getEnv("ORCA_MODE", string(ModeRulesOnly))),

		UseXGB:      getBool("ORCA_USE_XGB", false),
		XGBModelDir: getEnv("ORCA_XGB_MODEL_DIR", ""),

		AzureOpenAIEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIAPIKey:     getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureOpenAIDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT", ""),

		ExplainMaxTokens:           getInt("ORCA_EXPLAIN_MAX_TOKENS", 512),
		ExplainStrictJSON:          getBool("ORCA_EXPLAIN_STRICT_JSON", true),
		ExplainRefuseOnUncertainty: getBool("ORCA_EXPLAIN_REFUSE_ON_UNCERTAINTY", true),

		SignDecisions:   getBool("ORCA_SIGN_DECISIONS", false),
		ReceiptHashOnly: getBool("ORCA_RECEIPT_HASH_ONLY", false),

		CESubscriberURL: getEnv("ORCA_CE_SUBSCRIBER_URL", ""),
		CESourceURI:     getEnv("ORCA_CE_SOURCE_URI", "https://orca.ocn.ai/decision-engine"),

		SigningKeyPath: getEnv("ORCA_SIGNING_KEY_PATH", ""),
		KeyID:          getEnv("ORCA_KEY_ID", "orca-default-key"),
	}
}

// yamlOverlay mirrors a subset of Config as pointers so an absent key in the
// YAML file leaves the env-derived value untouched, while a key that is
// present in the YAML file replaces the env-derived value.
type yamlOverlay struct {
	DecisionMode    *string `yaml:"decision_mode"`
	UseXGB          *bool   `yaml:"use_xgb"`
	XGBModelDir     *string `yaml:"xgb_model_dir"`
	SignDecisions   *bool   `yaml:"sign_decisions"`
	ReceiptHashOnly *bool   `yaml:"receipt_hash_only"`
	CESubscriberURL *string `yaml:"ce_subscriber_url"`
	CESourceURI     *string `yaml:"ce_source_uri"`
}

// applyYAMLOverlay reads path as YAML and merges any present keys onto cfg.
// A missing or malformed file is a non-fatal, logged condition — the same
// degrade-gracefully posture the rest of this package follows.
func applyYAMLOverlay(cfg *Config, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("config: could not read ORCA_CONFIG_FILE, ignoring", "path", path, "error", err)
		return
	}

	var overlay yamlOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		slog.Warn("config: could not parse ORCA_CONFIG_FILE, ignoring", "path", path, "error", err)
		return
	}

	if overlay.DecisionMode != nil {
		cfg.DecisionMode = decisionMode(*overlay.DecisionMode)
	}
	if overlay.UseXGB != nil {
		cfg.UseXGB = *overlay.UseXGB
	}
	if overlay.XGBModelDir != nil {
		cfg.XGBModelDir = *overlay.XGBModelDir
	}
	if overlay.SignDecisions != nil {
		cfg.SignDecisions = *overlay.SignDecisions
	}
	if overlay.ReceiptHashOnly != nil {
		cfg.ReceiptHashOnly = *overlay.ReceiptHashOnly
	}
	if overlay.CESubscriberURL != nil {
		cfg.CESubscriberURL = *overlay.CESubscriberURL
	}
	if overlay.CESourceURI != nil {
		cfg.CESourceURI = *overlay.CESourceURI
	}
}

func decisionMode(raw string) DecisionMode {
	switch strings.ToUpper(raw) {
	case string(ModeRulesPlusAI):
		return ModeRulesPlusAI
	default:
		return ModeRulesOnly
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("config: invalid boolean env var, using default", "key", key, "value", raw)
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("config: invalid integer env var, using default", "key", key, "value", raw)
		return fallback
	}
	return v
}

// Validate reports human-readable configuration issues without preventing
// startup — per §4.12, inconsistent configuration degrades gracefully rather
// than failing closed.
func (c *Config) Validate() []string {
	var issues []string

	if c.DecisionMode == ModeRulesPlusAI {
		if c.AzureOpenAIEndpoint == "" || c.AzureOpenAIAPIKey == "" || c.AzureOpenAIDeployment == "" {
			issues = append(issues, "ORCA_MODE=RULES_PLUS_AI but Azure OpenAI credentials are incomplete; explanations will fall back to the deterministic narrative")
		}
	}

	if c.UseXGB && c.XGBModelDir == "" {
		issues = append(issues, "ORCA_USE_XGB=true but ORCA_XGB_MODEL_DIR is empty; the risk model will fall back to the stub")
	}

	if c.SignDecisions && c.SigningKeyPath == "" {
		issues = append(issues, "ORCA_SIGN_DECISIONS=true but ORCA_SIGNING_KEY_PATH is empty; an ephemeral test key will be generated")
	}

	if c.CESubscriberURL != "" && !strings.HasPrefix(c.CESubscriberURL, "http://") && !strings.HasPrefix(c.CESubscriberURL, "https://") {
		issues = append(issues, fmt.Sprintf("ORCA_CE_SUBSCRIBER_URL %q does not look like an http(s) URL", c.CESubscriberURL))
	}

	return issues
}

// LogIssues writes every Validate issue as a structured warning.
func (c *Config) LogIssues() {
	for _, issue := range c.Validate() {
		slog.Warn("config issue", "detail", issue)
	}
}
