// Package experiment implements the batch experiment harness behind the -e
// CLI flag and the synthetic PTA generator behind -g. Neither touches the
// core engines; they drive them the same way any caller would.
package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Run describes one (automaton file, query kind) pair to execute as part of
// a batch.
type Run struct {
	Name      string `yaml:"name" json:"name"`
	File      string `yaml:"file" json:"file"`
	BestParse bool   `yaml:"bestParse" json:"bestParse"`
}

// Manifest is the top-level shape of an `-e` batch-experiment YAML file.
type Manifest struct {
	Runs []Run `yaml:"runs" json:"runs"`
}

// manifestSchema is the bundled JSON Schema a manifest must satisfy before
// the batch runner touches it.
const manifestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["runs"],
  "properties": {
    "runs": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "file"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "file": {"type": "string", "minLength": 1},
          "bestParse": {"type": "boolean"}
        }
      }
    }
  }
}`

// LoadManifest reads a YAML batch manifest from path, validates it against
// manifestSchema, and returns the decoded Manifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if err := validateManifest(raw); err != nil {
		return nil, fmt.Errorf("manifest %s failed validation: %w", path, err)
	}

	return &m, nil
}

// validateManifest checks the manifest's JSON-equivalent form against
// manifestSchema. YAML is decoded through yaml.v3's generic any-decoding
// (which, unlike yaml.v2, already produces map[string]any for mappings) and
// then round-tripped through encoding/json so numeric and nested types match
// what jsonschema.Schema.Validate expects.
func validateManifest(yamlBytes []byte) error {
	var generic any
	if err := yaml.Unmarshal(yamlBytes, &generic); err != nil {
		return err
	}
	jsonBytes, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("normalising manifest to JSON: %w", err)
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(manifestSchema))
	if err != nil {
		return fmt.Errorf("decoding bundled manifest schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("mpt-experiment-manifest.json", schemaDoc); err != nil {
		return fmt.Errorf("loading bundled manifest schema: %w", err)
	}
	sch, err := compiler.Compile("mpt-experiment-manifest.json")
	if err != nil {
		return fmt.Errorf("compiling bundled manifest schema: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(string(jsonBytes)))
	if err != nil {
		return fmt.Errorf("decoding manifest instance: %w", err)
	}
	if err := sch.Validate(instance); err != nil {
		return err
	}
	return nil
}
