package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// settingsDebounce batches the burst of fsnotify events an editor save produces.
const settingsDebounce = 100 * time.Millisecond

// SettingsStore persists user settings as a small YAML file and watches it for
// external edits.
//
// The store remembers the last value it read or wrote, so the watcher does not
// echo the daemon's own saves back as SettingsChanged events.
type SettingsStore struct {
	path string

	mu   sync.Mutex
	last Settings
}

// NewSettingsStore returns a store for path. The file does not need to exist yet.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: filepath.Clean(ExpandPath(path))}
}

// Path returns the expanded settings file path.
func (s *SettingsStore) Path() string { return s.path }

// Load reads the settings file. A missing file yields zero-value settings.
func (s *SettingsStore) Load() (Settings, error) {
	st, err := readSettingsFile(s.path)
	if err != nil {
		return Settings{}, err
	}
	s.mu.Lock()
	s.last = st
	s.mu.Unlock()
	return st, nil
}

// Save writes st atomically (temp file + rename).
func (s *SettingsStore) Save(st Settings) error {
	b, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode settings yaml: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	s.last = st
	return nil
}

// Watch emits SettingsChanged on events whenever the file changes on disk to a
// value different from the last one loaded or saved. It blocks until ctx is
// canceled.
//
// The parent directory is watched rather than the file itself, so atomic
// replacements (ours and editors') keep being observed.
func (s *SettingsStore) Watch(ctx context.Context, events chan<- Event, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching settings file", "path", s.path)

	var (
		debounce  *time.Timer
		debounceC <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(settingsDebounce)
			} else {
				debounce.Reset(settingsDebounce)
			}
			debounceC = debounce.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("settings watcher error", "error", err)

		case <-debounceC:
			debounceC = nil
			s.reload(ctx, events, logger)
		}
	}
}

func (s *SettingsStore) reload(ctx context.Context, events chan<- Event, logger *slog.Logger) {
	st, err := readSettingsFile(s.path)
	if err != nil {
		logger.Warn("settings file changed but could not be read", "path", s.path, "error", err)
		return
	}

	s.mu.Lock()
	changed := st != s.last
	s.last = st
	s.mu.Unlock()
	if !changed {
		return
	}

	logger.Info("settings changed on disk", "prevent_intro_return", st.PreventIntroReturn)
	select {
	case events <- SettingsChanged{PreventIntroReturn: st.PreventIntroReturn}:
	case <-ctx.Done():
	}
}

func readSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	var st Settings
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&st); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("decode settings yaml: %w", err)
	}
	return st, nil
}
