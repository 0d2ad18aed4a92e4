// Package treestore provides a file-based implementation of TreeRepository.
// Tree files are YAML (.yaml, .yml) or JSON (.json).
package treestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/runoshun/flow/internal/domain"
)

// format is a tree file encoding.
type format int

const (
	formatYAML format = iota
	formatJSON
)

// Store implements domain.TreeRepository using tree files.
type Store struct{}

// New creates a new Store.
func New() *Store {
	return &Store{}
}

// Ensure Store implements TreeRepository.
var _ domain.TreeRepository = (*Store)(nil)

// Load reads the tree at path. Nodes without an id get a fresh one, and the
// file is rewritten so the ids stay stable across runs.
func (s *Store) Load(path string) (*domain.CommandTree, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	var tree *domain.CommandTree
	err = withLock(path, syscall.LOCK_EX, func() error {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read tree file: %w", err)
		}

		var rec domain.TreeRecord
		if err := unmarshal(f, content, &rec); err != nil {
			return fmt.Errorf("parse tree file %s: %w", path, err)
		}

		before, err := marshal(f, &rec)
		if err != nil {
			return err
		}
		tree, err = domain.FromObject(&rec)
		if err != nil {
			return err
		}
		after, err := marshal(f, &rec)
		if err != nil {
			return err
		}

		if bytes.Equal(before, after) {
			return nil
		}
		return write(path, after)
	})
	return tree, err
}

// Save writes the tree to path, creating parent directories as needed.
func (s *Store) Save(path string, tree *domain.CommandTree) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	rec, err := tree.Record()
	if err != nil {
		return err
	}
	content, err := marshal(f, rec)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return withLock(path, syscall.LOCK_EX, func() error {
		return write(path, content)
	})
}

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".json":
		return formatJSON, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedFormat)
	}
}

func unmarshal(f format, content []byte, rec *domain.TreeRecord) error {
	if f == formatJSON {
		return json.Unmarshal(content, rec)
	}
	return yaml.Unmarshal(content, rec)
}

func marshal(f format, rec *domain.TreeRecord) ([]byte, error) {
	if f == formatJSON {
		content, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal tree: %w", err)
		}
		return append(content, '\n'), nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}
	return buf.Bytes(), nil
}

// withLock executes fn while holding a flock on "<path>.lock".
func withLock(path string, lockType int, fn func() error) error {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() {
		_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
		_ = lock.Close()
	}()

	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	return fn()
}

func write(path string, content []byte) error {
	// Write to temp file first, then rename for atomicity
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Clean up
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
