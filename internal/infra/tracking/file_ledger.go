package tracking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"brightday_bot/internal/domain/announcement"
)

const (
	markerPrefix = "announced_"
	markerSuffix = ".txt"
)

// FileLedger keeps one marker file per calendar day, one subject id per line.
// It is safe for use by a single process only.
type FileLedger struct {
	dir string
	mu  sync.Mutex
}

func NewFileLedger(dir string) *FileLedger {
	return &FileLedger{dir: dir}
}

func (l *FileLedger) path(day time.Time) string {
	return filepath.Join(l.dir, markerPrefix+announcement.DayKey(day)+markerSuffix)
}

func (l *FileLedger) AnnouncedOn(_ context.Context, day time.Time) (map[string]struct{}, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(day)
}

func (l *FileLedger) read(day time.Time) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	f, err := os.Open(l.path(day))
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open markers: %w", announcement.ErrPersistence, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			out[id] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read markers: %w", announcement.ErrPersistence, err)
	}
	return out, nil
}

func (l *FileLedger) MarkAnnounced(_ context.Context, day time.Time, subjectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.read(day)
	if err != nil {
		return err
	}
	if _, ok := existing[subjectID]; ok {
		return nil
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create tracking dir: %w", announcement.ErrPersistence, err)
	}
	f, err := os.OpenFile(l.path(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open markers for append: %w", announcement.ErrPersistence, err)
	}
	if _, err := f.WriteString(subjectID + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("%w: append marker: %w", announcement.ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close markers: %w", announcement.ErrPersistence, err)
	}
	return nil
}

func (l *FileLedger) Rotate(_ context.Context, day time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: list tracking dir: %w", announcement.ErrPersistence, err)
	}

	keep := filepath.Base(l.path(day))
	var errs []error
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == keep || !strings.HasPrefix(name, markerPrefix) || !strings.HasSuffix(name, markerSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: remove stale markers: %w", announcement.ErrPersistence, errors.Join(errs...))
	}
	return nil
}
