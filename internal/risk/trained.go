package risk

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"lumina/orca/internal/domain"
)

// Artifact file names expected inside a trained model directory.
const (
	ensembleFile  = "ensemble.json"
	calibratorFile = "calibrator.json"
	scalerFile    = "scaler.json"
	metadataFile  = "metadata.json"
)

// treeNode is one node of a regression tree. Leaf nodes have FeatureIndex <
// 0 and carry Value; internal nodes route to Left/Right by comparing the
// scaled feature at FeatureIndex against Threshold.
type treeNode struct {
	FeatureIndex int        `json:"feature_index"`
	Threshold    float64    `json:"threshold"`
	Value        float64    `json:"value"`
	Left         *treeNode  `json:"left,omitempty"`
	Right        *treeNode  `json:"right,omitempty"`
}

func (n *treeNode) eval(x []float64) float64 {
	if n.FeatureIndex < 0 || n.Left == nil || n.Right == nil {
		return n.Value
	}
	if x[n.FeatureIndex] <= n.Threshold {
		return n.Left.eval(x)
	}
	return n.Right.eval(x)
}

type ensemble struct {
	Trees []treeNode `json:"trees"`
}

func (e *ensemble) rawScore(x []float64) float64 {
	var sum float64
	for i := range e.Trees {
		sum += e.Trees[i].eval(x)
	}
	return sum
}

// calibrator applies Platt scaling: sigmoid(a*raw + b).
type calibrator struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func (c *calibrator) apply(raw float64) float64 {
	return 1.0 / (1.0 + math.Exp(-(c.A*raw + c.B)))
}

// scaler standardizes raw feature values before they reach the ensemble.
type scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *scaler) apply(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		sc := s.Scale[i]
		if sc == 0 {
			sc = 1
		}
		out[i] = (v - s.Mean[i]) / sc
	}
	return out
}

// metadata describes the feature order the ensemble was trained on, default
// values for features absent at inference time, and an importance table
// used to derive reason codes.
type metadata struct {
	FeatureNames      []string           `json:"feature_names"`
	Defaults          map[string]float64 `json:"defaults"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	Provenance        string             `json:"provenance"`
}

// TrainedModel is the gradient-boosted variant. It is immutable after
// loading, so a single instance may be shared across concurrent requests.
type TrainedModel struct {
	ensemble   ensemble
	calibrator calibrator
	scaler     scaler
	meta       metadata

	// importanceMargin is the minimum importance weight a feature must carry
	// to be surfaced as a reason code.
	importanceMargin float64
}

// LoadTrained reads the four artifacts from dir. All four must be present
// and parse cleanly; any failure returns an error so the caller can fall
// back to the stub with a warning, per §4.2.
func LoadTrained(dir string, importanceMargin float64) (*TrainedModel, error) {
	m := &TrainedModel{importanceMargin: importanceMargin}

	if err := readJSON(filepath.Join(dir, ensembleFile), &m.ensemble); err != nil {
		return nil, fmt.Errorf("risk: load ensemble: %w", err)
	}
	if err := readJSON(filepath.Join(dir, calibratorFile), &m.calibrator); err != nil {
		return nil, fmt.Errorf("risk: load calibrator: %w", err)
	}
	if err := readJSON(filepath.Join(dir, scalerFile), &m.scaler); err != nil {
		return nil, fmt.Errorf("risk: load scaler: %w", err)
	}
	if err := readJSON(filepath.Join(dir, metadataFile), &m.meta); err != nil {
		return nil, fmt.Errorf("risk: load metadata: %w", err)
	}
	if len(m.meta.FeatureNames) != len(m.scaler.Mean) {
		return nil, fmt.Errorf("risk: scaler dimension %d does not match %d feature names", len(m.scaler.Mean), len(m.meta.FeatureNames))
	}

	return m, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Predict implements Model. It never returns an error; any panic recovered
// here degrades to a stub prediction tagged MODEL_ERROR.
func (m *TrainedModel) Predict(f domain.DerivedFeatures) (pred domain.RiskPrediction) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("risk model inference panicked", "error", r)
			pred = errorPrediction()
		}
	}()

	ordered := make([]float64, len(m.meta.FeatureNames))
	for i, name := range m.meta.FeatureNames {
		if v, ok := f[name]; ok {
			ordered[i] = v
		} else if d, ok := m.meta.Defaults[name]; ok {
			ordered[i] = d
		}
	}

	scaled := m.scaler.apply(ordered)
	raw := m.ensemble.rawScore(scaled)
	score := m.calibrator.apply(raw)

	return domain.RiskPrediction{
		RiskScore:   clamp01(score),
		ReasonCodes: m.topReasons(),
		Version:     m.meta.Provenance,
		ModelType:   "xgb",
	}
}

// topReasons returns feature names whose importance weight clears the
// configured margin, most important first; falls back to BASELINE.
func (m *TrainedModel) topReasons() []string {
	type kv struct {
		name   string
		weight float64
	}
	var candidates []kv
	for name, w := range m.meta.FeatureImportance {
		if w >= m.importanceMargin {
			candidates = append(candidates, kv{name, w})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].weight > candidates[j].weight })

	if len(candidates) == 0 {
		return []string{stubBaselineReason}
	}
	reasons := make([]string, len(candidates))
	for i, c := range candidates {
		reasons[i] = c.name
	}
	return reasons
}

// NewVariant resolves a Model by configured name, falling back to the stub
// (with a plain warning log and no MODEL_ERROR reason code — the fallback
// prediction itself still looks like a normal stub call) when loading a
// trained artifact fails.
func NewVariant(modelType, artifactDir string, importanceMargin float64) Model {
	if modelType != "xgb" {
		return NewStub()
	}
	trained, err := LoadTrained(artifactDir, importanceMargin)
	if err != nil {
		slog.Warn("falling back to stub risk model", "artifact_dir", artifactDir, "error", err)
		return NewStub()
	}
	return trained
}
