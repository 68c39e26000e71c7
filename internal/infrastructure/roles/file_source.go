package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

// FileSource serves the role mapping read from a JSON or YAML file. A missing
// file yields an empty mapping, which denies every role.
type FileSource struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[domain.RoleMapping]
}

func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileSource{
		path:   strings.TrimSpace(path),
		logger: logger.With("component", "roles"),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSource) Path() string {
	return s.path
}

// Snapshot returns the mapping loaded last. Callers must not modify it.
func (s *FileSource) Snapshot() domain.RoleMapping {
	if m := s.current.Load(); m != nil {
		return *m
	}
	return domain.RoleMapping{}
}

// Reload re-reads the file. On error the previous mapping stays in place.
func (s *FileSource) Reload() error {
	mapping, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.current.Store(&mapping)
	return nil
}

// Watch reloads the mapping whenever the file changes until ctx is done.
// The parent directory is watched so editor renames are picked up.
func (s *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create roles watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch roles dir %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("roles_reload_failed", "path", s.path, "error", err)
				continue
			}
			s.logger.Info("roles_reloaded", "path", s.path, "roles", len(s.Snapshot()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("roles_watcher_error", "error", err)
		}
	}
}

// LoadFile parses a role mapping file. JSON is used for .json, YAML otherwise.
func LoadFile(path string) (domain.RoleMapping, error) {
	if path == "" {
		return domain.RoleMapping{}, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.RoleMapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}

	mapping := domain.RoleMapping{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &mapping)
	} else {
		err = yaml.Unmarshal(raw, &mapping)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse roles file", err)
	}
	if mapping == nil {
		mapping = domain.RoleMapping{}
	}
	return mapping, nil
}
