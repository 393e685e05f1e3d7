package facts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"brightday_bot/internal/app"
	"brightday_bot/internal/domain/birthday"
	"brightday_bot/internal/domain/llm"

	"github.com/sirupsen/logrus"
)

const (
	cachePrefix = "facts_"
	cacheSuffix = ".json"
)

const reformatSystemPrompt = "You are Ludo the Mystic Birthday Dog, a cosmic canine whose powers reveal mystical insights about dates. " +
	"Your task is to create a brief, mystical paragraph about the cosmic significance of a specific date, focusing on notable scientific figures born on this date and significant historical events."

// cacheEntry is the on-disk form of one date's facts.
type cacheEntry struct {
	Facts         string   `json:"facts"`
	RawFacts      string   `json:"raw_facts"`
	Sources       []string `json:"sources"`
	FormattedDate string   `json:"formatted_date"`
}

// Service looks up facts for a date with a search-capable model, rewrites
// them with the writer model and caches the result per date.
type Service struct {
	search       llm.Generator
	writer       llm.Generator
	cacheDir     string
	cacheEnabled bool
	logger       *logrus.Entry
	mu           sync.Mutex
}

func NewService(search, writer llm.Generator, cacheDir string, cacheEnabled bool, logger *logrus.Entry) *Service {
	return &Service{
		search:       search,
		writer:       writer,
		cacheDir:     cacheDir,
		cacheEnabled: cacheEnabled,
		logger:       logger,
	}
}

var _ app.FactsProvider = (*Service)(nil)

func (s *Service) cachePath(md birthday.MonthDay) string {
	return filepath.Join(s.cacheDir, fmt.Sprintf("%s%02d_%02d%s", cachePrefix, md.Day, int(md.Month), cacheSuffix))
}

// FactsFor returns cached facts for md or fetches fresh ones.
func (s *Service) FactsFor(ctx context.Context, md birthday.MonthDay) (app.DateFacts, error) {
	if !md.Valid() {
		return app.DateFacts{}, birthday.ErrInvalidMonthDay
	}
	log := s.logger.WithField("date", md.String())

	if s.cacheEnabled {
		if entry, ok := s.readCache(log, md); ok {
			log.Debug("Using cached date facts.")
			return app.DateFacts{Text: entry.Facts, Sources: entry.Sources}, nil
		}
	}

	formatted := time.Date(2000, md.Month, md.Day, 0, 0, 0, 0, time.UTC).Format("January 02")
	query := fmt.Sprintf("Notable people (especially scientists) born on %s and significant historical events on this day", formatted)
	log.WithField("formatted_date", formatted).Info("Searching for date facts.")

	raw, err := s.search.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: query}})
	if err != nil {
		return app.DateFacts{}, fmt.Errorf("failed to search date facts: %w", err)
	}

	entry := cacheEntry{
		Facts:         s.reformat(ctx, log, raw, formatted),
		RawFacts:      raw,
		Sources:       []string{},
		FormattedDate: formatted,
	}
	if s.cacheEnabled {
		if err := s.writeCache(md, entry); err != nil {
			log.WithError(err).Warn("Failed to cache date facts.")
		}
	}
	return app.DateFacts{Text: entry.Facts, Sources: entry.Sources}, nil
}

func (s *Service) reformat(ctx context.Context, log *logrus.Entry, raw, formatted string) string {
	text, err := s.writer.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: reformatSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(
			"Based on these raw facts about %s, create a paragraph that highlights 4-5 most significant scientific birthdays or events for this date. Keep it under 150 words.\n\n%s",
			formatted, raw)},
	})
	if err != nil {
		log.WithError(err).Warn("Failed to reformat date facts, using generic sentence.")
		return fmt.Sprintf("On this day, %s, the cosmos aligned to welcome several notable souls to our realm.", formatted)
	}
	return strings.TrimSpace(text)
}

func (s *Service) readCache(log *logrus.Entry, md birthday.MonthDay) (cacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.cachePath(md))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warn("Failed to read date facts cache.")
		}
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Facts == "" {
		log.WithError(err).Warn("Ignoring corrupt date facts cache entry.")
		return cacheEntry{}, false
	}
	return entry, true
}

func (s *Service) writeCache(md birthday.MonthDay, entry cacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.cachePath(md) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.cachePath(md))
}

// ClearCache removes the cached facts for md, or every cached date when md is
// nil. It returns the number of files removed.
func (s *Service) ClearCache(md *birthday.MonthDay) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if md != nil {
		err := os.Remove(s.cachePath(*md))
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to clear date facts cache: %w", err)
		}
		return 1, nil
	}

	entries, err := os.ReadDir(s.cacheDir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to list date facts cache: %w", err)
	}
	cleared := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), cachePrefix) || !strings.HasSuffix(e.Name(), cacheSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cacheDir, e.Name())); err != nil {
			return cleared, fmt.Errorf("failed to clear date facts cache: %w", err)
		}
		cleared++
	}
	if cleared > 0 {
		s.logger.WithField("count", cleared).Info("Cleared date facts cache.")
	}
	return cleared, nil
}
