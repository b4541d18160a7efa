package queue_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/angelospk/tmdb-go/pkg/core/metadata"
	"github.com/angelospk/tmdb-go/pkg/core/queue"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSideloader hands out increasing attachment ids and fails for URLs in fail.
type fakeSideloader struct {
	mu     sync.Mutex
	nextID uint
	fail   map[string]bool
	calls  []string
	block  chan struct{}
}

func (f *fakeSideloader) Sideload(ctx context.Context, itemID uint, url string) (*host.Attachment, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if f.fail[url] {
		return nil, errors.New("404 not found")
	}
	f.nextID++
	return &host.Attachment{ID: f.nextID, ItemID: itemID, SourceURL: url}, nil
}

// memMeta is an in-memory host.MetaStore.
type memMeta struct {
	values map[string]string
}

func (m *memMeta) GetMeta(ctx context.Context, itemID uint, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memMeta) UpdateMeta(ctx context.Context, itemID uint, key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memMeta) DeleteMeta(ctx context.Context, itemID uint, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func setupTestQueueManager(t *testing.T, dir string, loader queue.Sideloader, reporter queue.Reporter) *queue.QueueManager {
	logger := log.New()
	logger.SetOutput(io.Discard)
	qm, err := queue.NewQueueManager(dir, loader, reporter, logger)
	require.NoError(t, err, "Failed to create QueueManager for testing")
	return qm
}

func TestRunDropsFailedDownloads(t *testing.T) {
	loader := &fakeSideloader{fail: map[string]bool{"http://img/b.jpg": true}}
	meta := &memMeta{values: map[string]string{}}
	qm := setupTestQueueManager(t, t.TempDir(), loader, queue.NewMetaReporter(meta))

	var seen []queue.TaskStatus
	ids, err := qm.Run(context.Background(), 7, []string{"http://img/a.jpg", "http://img/b.jpg", "http://img/c.jpg"}, func(task queue.Task) {
		seen = append(seen, task.Status)
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, ids, "a and c only, in download order")
	assert.Equal(t, []queue.TaskStatus{queue.StatusComplete, queue.StatusFailed, queue.StatusComplete}, seen)
	assert.Equal(t, []string{"http://img/a.jpg", "http://img/b.jpg", "http://img/c.jpg"}, loader.calls)
	assert.Equal(t, "[1,2]", meta.values[metadata.MetaImages])

	_, err = qm.Session(7)
	assert.ErrorIs(t, err, coreErrors.ErrNoQueueSession, "finished sessions are closed")

	history := qm.GetHistory()
	require.Len(t, history, 1)
	assert.Equal(t, uint(7), history[0].ItemID)
	assert.Equal(t, "404 not found", history[0].Tasks[1].Message)
}

func TestRunCancelledReportsCollected(t *testing.T) {
	loader := &fakeSideloader{}
	meta := &memMeta{values: map[string]string{}}
	qm := setupTestQueueManager(t, t.TempDir(), loader, queue.NewMetaReporter(meta))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ids, err := qm.Run(ctx, 7, []string{"http://img/a.jpg", "http://img/b.jpg", "http://img/c.jpg"}, func(task queue.Task) {
		if task.AttachmentID == 2 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint{1, 2}, ids)
	assert.Equal(t, "[1,2]", meta.values[metadata.MetaImages], "images attached before the cancel are kept")
	assert.Equal(t, []string{"http://img/a.jpg", "http://img/b.jpg"}, loader.calls)

	_, err = qm.Session(7)
	assert.ErrorIs(t, err, coreErrors.ErrNoQueueSession, "cancelled sessions are closed")
	require.Len(t, qm.GetHistory(), 1)
}

func TestSessionStepping(t *testing.T) {
	loader := &fakeSideloader{}
	qm := setupTestQueueManager(t, "", loader, nil)
	ctx := context.Background()

	s := qm.Start(3, []string{"http://img/a.jpg", "", "http://img/b.jpg"})
	assert.Equal(t, 2, s.Remaining())

	got, err := qm.Session(3)
	require.NoError(t, err)
	assert.Same(t, s, got)

	task, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, queue.StatusComplete, task.Status)
	assert.Equal(t, uint(1), task.AttachmentID)

	_, err = s.Next(ctx)
	require.NoError(t, err)
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, coreErrors.ErrQueueDone)

	ids, err := s.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, ids)

	_, err = s.Finish(ctx)
	assert.ErrorIs(t, err, coreErrors.ErrSessionFinished)
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, coreErrors.ErrSessionFinished)
}

func TestSessionOneInFlight(t *testing.T) {
	loader := &fakeSideloader{block: make(chan struct{})}
	qm := setupTestQueueManager(t, "", loader, nil)
	ctx := context.Background()
	s := qm.Start(1, []string{"http://img/a.jpg", "http://img/b.jpg"})

	done := make(chan error)
	go func() {
		_, err := s.Next(ctx)
		done <- err
	}()

	// Wait until the first task is marked running.
	require.Eventually(t, func() bool {
		return s.Tasks()[0].Status == queue.StatusRunning
	}, time.Second, time.Millisecond)

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, coreErrors.ErrInFlight)
	_, err = s.Finish(ctx)
	assert.ErrorIs(t, err, coreErrors.ErrInFlight)

	close(loader.block)
	require.NoError(t, <-done)
	assert.Equal(t, []uint{1}, s.Collected())
}

func TestStartReplacesUnfinishedSession(t *testing.T) {
	qm := setupTestQueueManager(t, "", &fakeSideloader{}, nil)
	first := qm.Start(1, []string{"http://img/a.jpg"})
	second := qm.Start(1, []string{"http://img/b.jpg"})
	assert.NotEqual(t, first.ID, second.ID)

	got, err := qm.Session(1)
	require.NoError(t, err)
	assert.Same(t, second, got)

	// Finishing the replaced session leaves the new one open.
	_, err = first.Finish(context.Background())
	require.NoError(t, err)
	_, err = qm.Session(1)
	assert.NoError(t, err)
}

func TestHistoryPersistence(t *testing.T) {
	dir := t.TempDir()
	qm1 := setupTestQueueManager(t, dir, &fakeSideloader{}, nil)
	_, err := qm1.Run(context.Background(), 9, []string{"http://img/a.jpg"}, nil)
	require.NoError(t, err)

	qm2 := setupTestQueueManager(t, dir, &fakeSideloader{}, nil)
	history := qm2.GetHistory()
	require.Len(t, history, 1)
	assert.Equal(t, []uint{1}, history[0].Collected)

	require.NoError(t, qm2.ClearHistory())
	qm3 := setupTestQueueManager(t, dir, &fakeSideloader{}, nil)
	assert.Empty(t, qm3.GetHistory())
}

func TestMetaReporterAppendsUnion(t *testing.T) {
	meta := &memMeta{values: map[string]string{metadata.MetaImages: "[4,5]"}}
	r := queue.NewMetaReporter(meta)

	require.NoError(t, r.Complete(context.Background(), 1, []uint{5, 6, 0, 7}))
	assert.Equal(t, "[4,5,6,7]", meta.values[metadata.MetaImages])

	require.NoError(t, r.Complete(context.Background(), 1, nil))
	assert.Equal(t, "[4,5,6,7]", meta.values[metadata.MetaImages])

	empty := &memMeta{values: map[string]string{}}
	require.NoError(t, queue.NewMetaReporter(empty).Complete(context.Background(), 1, nil))
	assert.Equal(t, "[]", empty.values[metadata.MetaImages])
}
