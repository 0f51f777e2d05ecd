package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bowerhall/dossier/internal/logger"
)

// Local stores objects as files under a root directory.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed and returns the store.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: root}, nil
}

// Root returns the store's base directory.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(ref string) (string, error) {
	if ref == "" || strings.HasPrefix(ref, "/") {
		return "", fmt.Errorf("invalid ref %q", ref)
	}
	for _, part := range strings.Split(ref, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid ref %q", ref)
		}
	}
	return filepath.Join(l.root, filepath.FromSlash(ref)), nil
}

func (l *Local) Save(ctx context.Context, ref string, data []byte) error {
	p, err := l.path(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", ref, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ref, err)
	}

	logger.Debug("file saved", "ref", ref, "size", len(data))
	return nil
}

func (l *Local) Load(ctx context.Context, ref string) ([]byte, error) {
	p, err := l.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	return data, nil
}

func (l *Local) Delete(ctx context.Context, ref string) error {
	p, err := l.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}

func (l *Local) DeletePrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		entries, err := os.ReadDir(l.root)
		if err != nil {
			return fmt.Errorf("read storage root: %w", err)
		}
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(l.root, e.Name())); err != nil {
				return fmt.Errorf("clear storage root: %w", err)
			}
		}
		logger.Info("storage root cleared", "root", l.root)
		return nil
	}

	p, err := l.path(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("delete prefix %s: %w", prefix, err)
	}

	logger.Debug("prefix deleted", "prefix", prefix)
	return nil
}

func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	base := l.root
	if prefix != "" {
		p, err := l.path(prefix)
		if err != nil {
			return nil, err
		}
		base = p
	}

	var refs []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		refs = append(refs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return refs, nil
}
