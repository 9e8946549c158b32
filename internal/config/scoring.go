package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"alfredoptarigan/talent-ranker/internal/models"
)

// LoadScoringPolicy overlays the YAML file at path on the default policy.
// Keys absent from the file keep their defaults. An empty path returns the
// defaults unchanged.
func LoadScoringPolicy(path string) (models.ScoringPolicy, error) {
	policy := models.DefaultScoringPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("failed to read scoring config: %w", err)
	}
	return ParseScoringPolicy(data)
}

func ParseScoringPolicy(data []byte) (models.ScoringPolicy, error) {
	policy := models.DefaultScoringPolicy()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&policy); err != nil && !errors.Is(err, io.EOF) {
		return policy, fmt.Errorf("failed to parse scoring config: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("invalid scoring config: %w", err)
	}
	return policy, nil
}
