package personality

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"brightday_bot/internal/domain/personality"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const reloadDebounce = 250 * time.Millisecond

// fileState is the on-disk layout of personality.yaml.
type fileState struct {
	Current string                  `yaml:"current"`
	Custom  personality.Personality `yaml:"custom"`
}

// Store keeps the active personality and the custom personality fields,
// persisted to a YAML file.
type Store struct {
	path     string
	defaults personality.Defaults
	logger   *logrus.Entry
	debounce time.Duration

	mu      sync.RWMutex
	saveMu  sync.Mutex
	current string
	custom  personality.Personality
}

var _ personality.Source = (*Store)(nil)

func NewStore(path string, defaults personality.Defaults, logger *logrus.Entry) *Store {
	return &Store{
		path:     path,
		defaults: defaults,
		logger:   logger,
		debounce: reloadDebounce,
		current:  personality.Standard,
		custom:   personality.BuiltIns(defaults)[personality.Custom],
	}
}

// Load reads the file. A missing file keeps the defaults.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.WithField("path", s.path).Info("No personality file found, using defaults.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read personality file: %w", err)
	}

	var state fileState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse personality file: %w", err)
	}
	if state.Current == "" {
		state.Current = personality.Standard
	}
	if _, ok := s.builtIns(state.Custom)[state.Current]; !ok {
		return fmt.Errorf("%w: %q", personality.ErrUnknownPersonality, state.Current)
	}

	s.mu.Lock()
	s.current = state.Current
	s.custom = s.withCustomDefaults(state.Custom)
	s.mu.Unlock()

	s.logger.WithField("personality", state.Current).Info("Personality settings loaded.")
	return nil
}

// Save writes the current state atomically. Saves are serialised so the file
// always ends up holding the latest snapshot.
func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	state := fileState{Current: s.current, Custom: s.custom}
	s.mu.RUnlock()

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode personality file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create personality directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write personality file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write personality file: %w", err)
	}
	return nil
}

func (s *Store) Current(_ context.Context) (personality.Personality, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.builtIns(s.custom)[s.current]
	if !ok {
		return personality.Personality{}, fmt.Errorf("%w: %q", personality.ErrUnknownPersonality, s.current)
	}
	return p, nil
}

// CurrentName returns the name of the selected personality.
func (s *Store) CurrentName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrent selects a personality by name and persists the choice.
func (s *Store) SetCurrent(name string) error {
	s.mu.Lock()
	if _, ok := s.builtIns(s.custom)[name]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", personality.ErrUnknownPersonality, name)
	}
	s.current = name
	s.mu.Unlock()
	return s.Save()
}

// SetCustom updates one field of the custom personality and persists it.
func (s *Store) SetCustom(field, value string) error {
	s.mu.Lock()
	updated, err := s.custom.WithField(field, value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.custom = updated
	s.mu.Unlock()
	return s.Save()
}

// Names returns the selectable personality names.
func (s *Store) Names() []string {
	names := make([]string, 0, 3)
	for name := range personality.BuiltIns(s.defaults) {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) builtIns(custom personality.Personality) map[string]personality.Personality {
	d := s.defaults
	d.Custom = custom
	return personality.BuiltIns(d)
}

func (s *Store) withCustomDefaults(custom personality.Personality) personality.Personality {
	return s.builtIns(custom)[personality.Custom]
}

// Watch reloads the file when it changes on disk until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create personality watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create personality directory: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch personality directory: %w", err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	reload := func() {
		if err := s.Load(); err != nil {
			s.logger.WithError(err).Warn("Personality reload failed, keeping previous settings.")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != filepath.Base(s.path) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(s.debounce, reload)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.WithError(err).Warn("Personality watcher error.")
		}
	}
}
