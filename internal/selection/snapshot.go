package selection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/open-edge-platform/firmware-selector/internal/config/validate"
)

// Snapshot is the interchange shape of a selection used by saved
// configurations and share links.
type Snapshot struct {
	AddedPackages   []string `json:"addedPackages"`
	RemovedPackages []string `json:"removedPackages"`
}

// Snapshot captures the current overrides.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{AddedPackages: m.Added(), RemovedPackages: m.Removed()}
	if s.AddedPackages == nil {
		s.AddedPackages = []string{}
	}
	if s.RemovedPackages == nil {
		s.RemovedPackages = []string{}
	}
	return s
}

// Apply replaces the overrides with those of s. Entries that do not fit the
// current default set are clamped; the number of dropped entries is returned.
func (m *Machine) Apply(s Snapshot) int {
	m.Clear()
	dropped := 0
	for _, name := range s.RemovedPackages {
		if m.Set(name, Removed) != Removed {
			dropped++
		}
	}
	for _, name := range s.AddedPackages {
		if m.Set(name, Added) != Added {
			dropped++
		}
	}
	return dropped
}

// ParseSnapshot decodes a YAML or JSON snapshot after validating its shape.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	jsonData, err := validate.YAMLToJSON(data)
	if err != nil {
		return s, err
	}
	if err := validate.ValidateSnapshotJSON(jsonData); err != nil {
		return s, err
	}
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return s, fmt.Errorf("decoding snapshot: %w", err)
	}
	return s, nil
}

// MarshalSnapshot encodes s as "json" or "yaml".
func MarshalSnapshot(s Snapshot, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(s, "", "  ")
	case "yaml", "yml", "":
		return yaml.Marshal(s)
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	s, err := ParseSnapshot(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading snapshot %s: %w", path, err)
	}
	return s, nil
}

// SaveSnapshot writes s to path, choosing JSON for a .json extension and
// YAML otherwise.
func SaveSnapshot(path string, s Snapshot) error {
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	data, err := MarshalSnapshot(s, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}
