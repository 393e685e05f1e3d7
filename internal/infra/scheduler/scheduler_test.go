package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"brightday_bot/internal/app"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	mu      sync.Mutex
	calls   []time.Time
	active  int
	overlap bool
	err     error
}

func (r *countingRunner) RunDaily(_ context.Context, now time.Time) (app.Summary, error) {
	r.mu.Lock()
	r.active++
	if r.active > 1 {
		r.overlap = true
	}
	r.calls = append(r.calls, now)
	r.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	r.mu.Lock()
	r.active--
	r.mu.Unlock()
	return app.Summary{Handled: 1}, r.err
}

func (r *countingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := NewBirthdayScheduler(&countingRunner{}, testLogger(), "not a spec")
	require.Error(t, s.Start(false))
}

func TestStartRunsImmediatelyWhenAsked(t *testing.T) {
	runner := &countingRunner{err: errors.New("list failed")}
	fixed := time.Date(2025, time.December, 25, 8, 0, 0, 0, time.UTC)
	s := NewBirthdayScheduler(runner, testLogger(), "0 8 * * *")
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Start(true))
	require.Eventually(t, func() bool { return runner.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()

	require.Equal(t, fixed, runner.calls[0])
}

func TestRunDailySerialisesPasses(t *testing.T) {
	runner := &countingRunner{}
	s := NewBirthdayScheduler(runner, testLogger(), "0 8 * * *")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := s.RunDaily(context.Background(), time.Now())
			assert.NoError(t, err)
			assert.Equal(t, 1, summary.Handled)
		}()
	}
	wg.Wait()

	require.Equal(t, 4, runner.count())
	require.False(t, runner.overlap)
}
