package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WritePolicyFile atomically writes a policy file using a temp-file-then-
// rename pattern, so a concurrent reader (or the file watcher) never sees
// a partial write. On any failure the temp file is removed and the
// original file stays untouched.
func WritePolicyFile(path string, policy *PolicyFile) error {
	data, err := yaml.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".policy.*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if _, err := os.Stat(tmpPath); err == nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %q: %w", path, err)
	}

	return nil
}

// EnsurePolicyFile writes the default policy to path when no file exists
// there yet. Returns true when a new file was created.
func EnsurePolicyFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat policy file %q: %w", path, err)
	}

	if err := WritePolicyFile(path, DefaultPolicy()); err != nil {
		return false, err
	}
	return true, nil
}
