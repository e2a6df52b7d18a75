package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses a YAML configuration file using the same recognized keys
// as LoadProperties, applied over DefaultRawOptions.
func LoadYAML(r io.Reader) (RawOptions, error) {
	opts := DefaultRawOptions()

	data, err := io.ReadAll(r)
	if err != nil {
		return RawOptions{}, fmt.Errorf("config: reading yaml: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return RawOptions{}, fmt.Errorf("config: parsing yaml: %w", err)
	}
	return opts, nil
}
