package transcript

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// metadata describes one finished session alongside its recording and
// caption files.
type metadata struct {
	SessionID  string            `yaml:"session_id"`
	StartedAt  time.Time         `yaml:"started_at"`
	EndedAt    time.Time         `yaml:"ended_at"`
	DurationMs int64             `yaml:"duration_ms"`
	Providers  map[string]string `yaml:"providers,omitempty"`
}

func writeMetadata(path string, meta metadata) error {
	serialized, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to serialize metadata: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}
