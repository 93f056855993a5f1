// Package schema validates AP2 decision/explanation payloads and CloudEvent
// envelopes against the bundled JSON Schema documents. Schemas are compiled
// once at construction and cached; if the decision or explanation schema is
// missing or fails to compile, Validate falls back to a small set of
// hand-checked required fields. The CloudEvent type has no fallback and is
// reported invalid when its schema is unavailable.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/mandates schemas/events
var bundled embed.FS

// Type identifies which bundled schema to validate against.
type Type string

const (
	TypeDecision    Type = "ap2_decision"
	TypeExplanation Type = "ap2_explanation"
	TypeCloudEvent  Type = "cloudevent"
)

var schemaPaths = map[Type]string{
	TypeDecision:    "schemas/mandates/ap2/v1/decision.schema.json",
	TypeExplanation: "schemas/mandates/ap2/v1/explanation.schema.json",
	TypeCloudEvent:  "schemas/events/v1/cloudevent.schema.json",
}

// Validator holds compiled schemas keyed by Type. A Validator is immutable
// after New and safe for concurrent use.
type Validator struct {
	compiled map[Type]*jsonschema.Schema
}

// New compiles every bundled schema. Compilation failures for an individual
// schema are not fatal — that Type simply falls back to basic validation at
// Validate time rather than refusing to start. Compilation failures are not
// logged.
func New() *Validator {
	v := &Validator{compiled: make(map[Type]*jsonschema.Schema)}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := addResources(c, bundled); err != nil {
		return v
	}

	for typ, path := range schemaPaths {
		url := "file:///" + path
		compiled, err := c.Compile(url)
		if err != nil {
			continue
		}
		v.compiled[typ] = compiled
	}
	return v
}

func addResources(c *jsonschema.Compiler, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		b, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		return c.AddResource("file:///"+path, bytes.NewReader(b))
	})
}

// Outcome describes the result of a Validate call.
type Outcome struct {
	Valid  bool
	Errors []string
	// UsedFallback is true when no compiled schema was available and the
	// basic field-presence checks ran instead.
	UsedFallback bool
}

// Validate checks data (already decoded into a generic map) against the
// named schema type.
func (v *Validator) Validate(typ Type, data map[string]any) Outcome {
	compiled, ok := v.compiled[typ]
	if !ok {
		return v.basicValidate(typ, data)
	}

	if err := compiled.Validate(data); err != nil {
		return Outcome{Valid: false, Errors: []string{err.Error()}}
	}
	return Outcome{Valid: true}
}

func (v *Validator) basicValidate(typ Type, data map[string]any) Outcome {
	switch typ {
	case TypeDecision:
		return basicDecisionValidation(data)
	case TypeExplanation:
		return basicExplanationValidation(data)
	default:
		return Outcome{Valid: false, Errors: []string{fmt.Sprintf("schema: no schema or fallback for type %q", typ)}}
	}
}

func basicDecisionValidation(data map[string]any) Outcome {
	o := Outcome{Valid: true, UsedFallback: true}
	for _, field := range []string{"ap2_version", "intent", "cart", "payment", "decision", "signing"} {
		if _, ok := data[field]; !ok {
			o.Valid = false
			o.Errors = append(o.Errors, fmt.Sprintf("missing required field: %s", field))
		}
	}

	decision, _ := data["decision"].(map[string]any)
	result, _ := decision["result"].(string)
	switch result {
	case "APPROVE", "REVIEW", "DECLINE":
	default:
		o.Valid = false
		o.Errors = append(o.Errors, fmt.Sprintf("invalid decision result: %q", result))
	}
	return o
}

func basicExplanationValidation(data map[string]any) Outcome {
	o := Outcome{Valid: true, UsedFallback: true}
	for _, field := range []string{"trace_id", "explanation", "confidence", "key_factors"} {
		if _, ok := data[field]; !ok {
			o.Valid = false
			o.Errors = append(o.Errors, fmt.Sprintf("missing required field: %s", field))
		}
	}

	confidence, ok := data["confidence"].(float64)
	if !ok || confidence < 0.0 || confidence > 1.0 {
		o.Valid = false
		o.Errors = append(o.Errors, fmt.Sprintf("invalid confidence value: %v", data["confidence"]))
	}
	return o
}
