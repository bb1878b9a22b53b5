package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadPolicyFile loads and validates a remediation policy file.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Schema validation failure (unsupported version, bad quantities,
//     out-of-range limits)
func LoadPolicyFile(path string) (*PolicyFile, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load policy from %q: %w", path, err)
	}

	var policy PolicyFile
	if err := k.UnmarshalWithConf("", &policy, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse policy from %q: %w", path, err)
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy validation failed for %q: %w", path, err)
	}

	return &policy, nil
}
