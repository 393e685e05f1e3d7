package filestore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"brightday_bot/internal/domain/birthday"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, maxBackups int) (*BirthdayRepository, string) {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	path := filepath.Join(t.TempDir(), "storage", "birthdays.txt")
	repo := NewBirthdayRepository(path, maxBackups, logrus.NewEntry(l))

	clock := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo, path
}

func TestBirthdayRepositorySaveAndList(t *testing.T) {
	repo, path := newTestRepo(t, 10)
	ctx := context.Background()

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, records)

	updated, err := repo.Save(ctx, birthday.Record{SubjectID: "U2", Date: birthday.MonthDay{Day: 14, Month: time.July}, Year: 1988})
	require.NoError(t, err)
	require.False(t, updated)
	_, err = repo.Save(ctx, birthday.Record{SubjectID: "U1", Date: birthday.MonthDay{Day: 2, Month: time.March}})
	require.NoError(t, err)
	updated, err = repo.Save(ctx, birthday.Record{SubjectID: "U2", Date: birthday.MonthDay{Day: 15, Month: time.July}, Year: 1988})
	require.NoError(t, err)
	require.True(t, updated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "U1,02/03\nU2,15/07,1988\n", string(data))

	rec, err := repo.Get(ctx, "U2")
	require.NoError(t, err)
	require.Equal(t, 15, rec.Date.Day)

	_, err = repo.Get(ctx, "U9")
	require.ErrorIs(t, err, birthday.ErrBirthdayNotFound)
}

func TestBirthdayRepositorySkipsInvalidLines(t *testing.T) {
	repo, path := newTestRepo(t, 10)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := "U1,25/12,1990\ngarbage\nU2,31/02\nU3,01/01,notayear\n\nU4,29/02\nU5,29/02,2023\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "U4", records[0].SubjectID)
	require.Equal(t, "U1", records[1].SubjectID)
	require.Equal(t, 1990, records[1].Year)
}

func TestBirthdayRepositoryAcceptsLeapDayInLeapYear(t *testing.T) {
	repo, path := newTestRepo(t, 10)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("U1,29/02,2024\nU2,29/02,1900\n"), 0o644))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 2024, records[0].Year)
}

func TestBirthdayRepositoryRemove(t *testing.T) {
	repo, _ := newTestRepo(t, 10)
	ctx := context.Background()
	_, err := repo.Save(ctx, birthday.Record{SubjectID: "U1", Date: birthday.MonthDay{Day: 1, Month: time.May}})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, "U1"))
	require.ErrorIs(t, repo.Remove(ctx, "U1"), birthday.ErrBirthdayNotFound)
}

func TestBirthdayRepositoryBackupsAreCappedAndRestored(t *testing.T) {
	repo, path := newTestRepo(t, 3)
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		_, err := repo.Save(ctx, birthday.Record{SubjectID: "U1", Date: birthday.MonthDay{Day: day, Month: time.May}})
		require.NoError(t, err)
	}

	names, err := repo.backups()
	require.NoError(t, err)
	require.Len(t, names, 3)

	require.NoError(t, os.Remove(path))
	rec, err := repo.Get(ctx, "U1")
	require.NoError(t, err)
	require.Equal(t, 5, rec.Date.Day)
	require.FileExists(t, path)
}
