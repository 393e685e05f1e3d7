package filestore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"brightday_bot/internal/domain/birthday"

	"github.com/sirupsen/logrus"
)

const (
	backupPrefix = "birthdays_"
	backupSuffix = ".txt"
	// lexical order of the stamp matches chronological order
	backupStamp = "20060102_150405.000000"
)

// BirthdayRepository stores birthdays in a flat text file, one
// "SUBJECT,DD/MM[,YYYY]" line per subject, and keeps timestamped backups.
type BirthdayRepository struct {
	path       string
	backupDir  string
	maxBackups int
	logger     *logrus.Entry
	now        func() time.Time
	mu         sync.Mutex
}

func NewBirthdayRepository(path string, maxBackups int, logger *logrus.Entry) *BirthdayRepository {
	return &BirthdayRepository{
		path:       path,
		backupDir:  filepath.Join(filepath.Dir(path), "backups"),
		maxBackups: maxBackups,
		logger:     logger,
		now:        time.Now,
	}
}

func (r *BirthdayRepository) List(_ context.Context) ([]birthday.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.load()
	if err != nil {
		return nil, err
	}
	return birthday.SortByCalendar(records), nil
}

func (r *BirthdayRepository) Get(_ context.Context, subjectID string) (birthday.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.load()
	if err != nil {
		return birthday.Record{}, err
	}
	for _, rec := range records {
		if rec.SubjectID == subjectID {
			return rec, nil
		}
	}
	return birthday.Record{}, birthday.ErrBirthdayNotFound
}

func (r *BirthdayRepository) Save(_ context.Context, rec birthday.Record) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.load()
	if err != nil {
		return false, err
	}

	updated := false
	for i := range records {
		if records[i].SubjectID == rec.SubjectID {
			records[i] = rec
			updated = true
			break
		}
	}
	if !updated {
		records = append(records, rec)
	}
	if err := r.store(records); err != nil {
		return false, err
	}
	r.logger.WithFields(logrus.Fields{
		"subject_id": rec.SubjectID,
		"date":       rec.Date.String(),
		"updated":    updated,
	}).Info("Birthday saved.")
	return updated, nil
}

func (r *BirthdayRepository) Remove(_ context.Context, subjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, err := r.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.SubjectID != subjectID {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return birthday.ErrBirthdayNotFound
	}
	if err := r.store(kept); err != nil {
		return err
	}
	r.logger.WithField("subject_id", subjectID).Info("Birthday removed.")
	return nil
}

// load reads the main file, restoring the latest backup first when it is missing.
func (r *BirthdayRepository) load() ([]birthday.Record, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		restored, rerr := r.restoreLatestBackup()
		if rerr != nil {
			r.logger.WithError(rerr).Warn("Failed to restore birthdays from backup.")
		}
		if !restored {
			return nil, nil
		}
		f, err = os.Open(r.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open birthdays file: %w", err)
	}
	defer f.Close()
	return r.parse(f)
}

func (r *BirthdayRepository) parse(src io.Reader) ([]birthday.Record, error) {
	var records []birthday.Record
	sc := bufio.NewScanner(src)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec, err := parseLine(text)
		if err != nil {
			r.logger.WithFields(logrus.Fields{"line": line, "content": text}).WithError(err).Warn("Skipping invalid birthday line.")
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read birthdays file: %w", err)
	}
	return records, nil
}

func parseLine(text string) (birthday.Record, error) {
	parts := strings.Split(text, ",")
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
		return birthday.Record{}, fmt.Errorf("expected SUBJECT,DD/MM[,YYYY]")
	}
	md, err := birthday.ParseMonthDay(parts[1])
	if err != nil {
		return birthday.Record{}, err
	}
	rec := birthday.Record{SubjectID: strings.TrimSpace(parts[0]), Date: md}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || year <= 0 {
			return birthday.Record{}, fmt.Errorf("invalid year %q", parts[2])
		}
		if !md.ExistsIn(year) {
			return birthday.Record{}, fmt.Errorf("%w: %s does not exist in %d", birthday.ErrInvalidMonthDay, md, year)
		}
		rec.Year = year
	}
	return rec, nil
}

func formatLine(rec birthday.Record) string {
	if rec.HasYear() {
		return fmt.Sprintf("%s,%s,%d", rec.SubjectID, rec.Date, rec.Year)
	}
	return fmt.Sprintf("%s,%s", rec.SubjectID, rec.Date)
}

// store rewrites the main file atomically and then takes a backup.
func (r *BirthdayRepository) store(records []birthday.Record) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}

	var b strings.Builder
	for _, rec := range birthday.SortByCalendar(records) {
		b.WriteString(formatLine(rec))
		b.WriteByte('\n')
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write birthdays file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace birthdays file: %w", err)
	}

	if err := r.backup(); err != nil {
		// the main file is already saved
		r.logger.WithError(err).Error("Failed to create birthdays backup.")
	}
	return nil
}

func (r *BirthdayRepository) backup() error {
	if err := os.MkdirAll(r.backupDir, 0o755); err != nil {
		return err
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}
	name := backupPrefix + r.now().UTC().Format(backupStamp) + backupSuffix
	if err := os.WriteFile(filepath.Join(r.backupDir, name), data, 0o644); err != nil {
		return err
	}
	return r.pruneBackups()
}

func (r *BirthdayRepository) backups() ([]string, error) {
	entries, err := os.ReadDir(r.backupDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), backupSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *BirthdayRepository) pruneBackups() error {
	if r.maxBackups <= 0 {
		return nil
	}
	names, err := r.backups()
	if err != nil {
		return err
	}
	for len(names) > r.maxBackups {
		if err := os.Remove(filepath.Join(r.backupDir, names[0])); err != nil {
			return err
		}
		r.logger.WithField("backup", names[0]).Debug("Removed old birthdays backup.")
		names = names[1:]
	}
	return nil
}

func (r *BirthdayRepository) restoreLatestBackup() (bool, error) {
	names, err := r.backups()
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(names) == 0) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	latest := names[len(names)-1]
	data, err := os.ReadFile(filepath.Join(r.backupDir, latest))
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return false, err
	}
	r.logger.WithField("backup", latest).Warn("Birthdays file was missing, restored from backup.")
	return true, nil
}
