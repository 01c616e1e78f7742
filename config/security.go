package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	maxConfigSize = 1 << 20 // bytes per layer
	maxEnvVarLen  = 10000
	maxPathLen    = 4096
)

var layerExtensions = []string{".yaml", ".yml", ".json"}

var (
	errPathTraversal  = errors.New("path traversal not allowed")
	errLayerFormat    = errors.New("only YAML or JSON layers are supported")
	errLayerTooLarge  = errors.New("config layer too large")
	errNotRegularFile = errors.New("config layer is not a regular file")
)

// checkLayerPath rejects paths that are empty, overlong, climb out of the
// working directory (relative paths) or carry parent references after
// cleaning (absolute paths), and anything but YAML or JSON.
func checkLayerPath(path string) error {
	switch {
	case path == "":
		return errors.New("empty config path")
	case len(path) > maxPathLen:
		return fmt.Errorf("path too long: %d > %d", len(path), maxPathLen)
	}

	if filepath.IsAbs(path) {
		if slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "..") {
			return fmt.Errorf("%w: %s", errPathTraversal, path)
		}
	} else if rel := filepath.Clean(path); rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s resolves outside working directory", errPathTraversal, path)
	}

	if !slices.Contains(layerExtensions, strings.ToLower(filepath.Ext(path))) {
		return fmt.Errorf("%w: %s", errLayerFormat, path)
	}
	return nil
}

// safeReadFile reads one layer, refusing anything but a regular file of at
// most maxConfigSize bytes.
func safeReadFile(path string) ([]byte, error) {
	if err := checkLayerPath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", errNotRegularFile, path)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxConfigSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxConfigSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", errLayerTooLarge, path, maxConfigSize)
	}
	return data, nil
}

// safeWriteFile writes a layer readable only by its owner
func safeWriteFile(path string, data []byte) error {
	if err := checkLayerPath(path); err != nil {
		return err
	}
	if len(data) > maxConfigSize {
		return fmt.Errorf("%w: %d bytes", errLayerTooLarge, len(data))
	}
	return os.WriteFile(path, data, 0o600)
}

// validateEnvVar bounds an override's length and rejects NUL bytes
func validateEnvVar(key, value string) error {
	if len(value) > maxEnvVarLen {
		return fmt.Errorf("environment variable %s too long: %d > %d", key, len(value), maxEnvVarLen)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("null byte in environment variable %s", key)
	}
	return nil
}
