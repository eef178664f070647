package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"

	"github.com/open-edge-platform/firmware-selector/internal/config/schema"
)

const (
	configSchemaName   = "config.schema.json"
	snapshotSchemaName = "snapshot.schema.json"
)

// ValidateAgainstSchema validates JSON data against the schema document
// registered as name. ref optionally selects a sub-schema, e.g. "#/$defs/names".
func ValidateAgainstSchema(name string, schemaData []byte, data []byte, ref string) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schemaData)); err != nil {
		return fmt.Errorf("loading schema %s: %w", name, err)
	}
	sch, err := compiler.Compile(name + ref)
	if err != nil {
		return fmt.Errorf("compiling schema %s%s: %w", name, ref, err)
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("schema validation against %s failed: %w", name, err)
	}
	return nil
}

// ValidateConfigJSON validates a global configuration document.
func ValidateConfigJSON(data []byte) error {
	return ValidateAgainstSchema(configSchemaName, schema.ConfigSchema, data, "")
}

// ValidateSnapshotJSON validates a selection snapshot document.
func ValidateSnapshotJSON(data []byte) error {
	return ValidateAgainstSchema(snapshotSchemaName, schema.SnapshotSchema, data, "")
}

// YAMLToJSON converts a YAML (or JSON) document to JSON so it can be checked
// with the validators above.
func YAMLToJSON(data []byte) ([]byte, error) {
	out, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return out, nil
}
