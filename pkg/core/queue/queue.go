// Package queue runs image sideloads for an item one download at a time.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Default filename for persistence
const defaultHistoryFile = "sideload_history.json"

// maxHistory bounds the number of finished sessions kept.
const maxHistory = 200

// TaskStatus defines the possible states of a sideload task.
type TaskStatus string

const (
	StatusPending  TaskStatus = "pending"
	StatusRunning  TaskStatus = "running"
	StatusComplete TaskStatus = "complete"
	StatusFailed   TaskStatus = "failed"
)

// Task is the download of one image URL.
type Task struct {
	URL          string     `json:"url"`
	Status       TaskStatus `json:"status"`
	AttachmentID uint       `json:"attachmentId,omitempty"`
	Message      string     `json:"message,omitempty"` // Error message of a failed task
	StartedAt    time.Time  `json:"startedAt,omitempty"`
	CompletedAt  time.Time  `json:"completedAt,omitempty"`
}

// Sideloader downloads one remote image and attaches it to an item.
type Sideloader interface {
	Sideload(ctx context.Context, itemID uint, url string) (*host.Attachment, error)
}

// Reporter records the attachment ids a finished session produced.
type Reporter interface {
	Complete(ctx context.Context, itemID uint, ids []uint) error
}

// Summary is a finished session as kept in the history.
type Summary struct {
	SessionID  string    `json:"sessionId"`
	ItemID     uint      `json:"itemId"`
	Tasks      []Task    `json:"tasks"`
	Collected  []uint    `json:"collected"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// QueueManager owns one sideload session per item and the history of finished sessions.
type QueueManager struct {
	sessions    map[uint]*Session
	sessionLock sync.RWMutex
	history     []Summary
	histLock    sync.RWMutex

	loader          Sideloader
	reporter        Reporter
	historyFilePath string
	logger          *log.Logger
}

// NewQueueManager creates a QueueManager. When configDir is not empty the history is
// loaded from and saved to a JSON file inside it.
func NewQueueManager(configDir string, loader Sideloader, reporter Reporter, logger *log.Logger) (*QueueManager, error) {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}

	qm := &QueueManager{
		sessions: make(map[uint]*Session),
		history:  []Summary{},
		loader:   loader,
		reporter: reporter,
		logger:   logger,
	}

	if configDir != "" {
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory %s: %w", configDir, err)
		}
		qm.historyFilePath = filepath.Join(configDir, defaultHistoryFile)
		if err := qm.LoadHistory(); err != nil {
			qm.logger.Warnf("Failed to load sideload history from %s: %v. Starting with empty history.", qm.historyFilePath, err)
		}
	}

	qm.logger.Debugf("QueueManager initialized. History: %d sessions.", len(qm.history))
	return qm, nil
}

// --- Persistence --- //

// SaveHistory saves the history to its JSON file. It is a no-op without a config dir.
func (qm *QueueManager) SaveHistory() error {
	if qm.historyFilePath == "" {
		return nil
	}
	qm.histLock.RLock()
	defer qm.histLock.RUnlock()

	data, err := json.MarshalIndent(qm.history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(qm.historyFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file %s: %w", qm.historyFilePath, err)
	}
	return nil
}

// LoadHistory loads the history from its JSON file.
func (qm *QueueManager) LoadHistory() error {
	if qm.historyFilePath == "" {
		return nil
	}
	qm.histLock.Lock()
	defer qm.histLock.Unlock()

	data, err := os.ReadFile(qm.historyFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			qm.history = []Summary{}
			return nil
		}
		return fmt.Errorf("failed to read history file %s: %w", qm.historyFilePath, err)
	}
	if len(data) == 0 {
		qm.history = []Summary{}
		return nil
	}

	var loaded []Summary
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to unmarshal history from %s: %w", qm.historyFilePath, err)
	}
	qm.history = loaded
	return nil
}

// GetHistory returns a copy of the history, newest first.
func (qm *QueueManager) GetHistory() []Summary {
	qm.histLock.RLock()
	defer qm.histLock.RUnlock()

	historyCopy := make([]Summary, len(qm.history))
	copy(historyCopy, qm.history)
	return historyCopy
}

// ClearHistory removes all sessions from the history and saves the state.
func (qm *QueueManager) ClearHistory() error {
	qm.histLock.Lock()
	qm.history = []Summary{}
	qm.histLock.Unlock()
	return qm.SaveHistory()
}

func (qm *QueueManager) addToHistory(s Summary) error {
	qm.histLock.Lock()
	qm.history = append([]Summary{s}, qm.history...)
	if len(qm.history) > maxHistory {
		qm.history = qm.history[:maxHistory]
	}
	qm.histLock.Unlock()
	return qm.SaveHistory()
}

// --- Sessions --- //

// Start opens a new session for the item, replacing any unfinished one.
func (qm *QueueManager) Start(itemID uint, urls []string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		StartedAt: time.Now(),
		qm:        qm,
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		s.tasks = append(s.tasks, Task{URL: u, Status: StatusPending})
	}

	qm.sessionLock.Lock()
	if old, ok := qm.sessions[itemID]; ok {
		qm.logger.WithFields(log.Fields{"item_id": itemID, "session": old.ID}).Info("Replacing unfinished sideload session")
	}
	qm.sessions[itemID] = s
	qm.sessionLock.Unlock()

	qm.logger.WithFields(log.Fields{"item_id": itemID, "session": s.ID, "tasks": len(s.tasks)}).Info("Sideload session started")
	return s
}

// Session returns the open session of the item.
func (qm *QueueManager) Session(itemID uint) (*Session, error) {
	qm.sessionLock.RLock()
	defer qm.sessionLock.RUnlock()
	s, ok := qm.sessions[itemID]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", itemID, coreErrors.ErrNoQueueSession)
	}
	return s, nil
}

func (qm *QueueManager) close(s *Session) {
	qm.sessionLock.Lock()
	defer qm.sessionLock.Unlock()
	if cur, ok := qm.sessions[s.ItemID]; ok && cur == s {
		delete(qm.sessions, s.ItemID)
	}
}

// Run drives a whole session serially and reports the result. onEach, when set, is
// called after every task. When ctx is cancelled the images attached so far are still
// reported and returned along with the context error.
func (qm *QueueManager) Run(ctx context.Context, itemID uint, urls []string, onEach func(Task)) ([]uint, error) {
	s := qm.Start(itemID, urls)
	for {
		task, err := s.Next(ctx)
		if errors.Is(err, coreErrors.ErrQueueDone) {
			break
		}
		if err != nil {
			return nil, err
		}
		if onEach != nil {
			onEach(*task)
		}
		if ctx.Err() != nil {
			ids, ferr := s.Finish(context.WithoutCancel(ctx))
			if ferr != nil {
				return nil, errors.Join(ctx.Err(), ferr)
			}
			return ids, ctx.Err()
		}
	}
	return s.Finish(ctx)
}

// Session is one ordered run over a list of image URLs. At most one task is in flight.
type Session struct {
	ID        string
	ItemID    uint
	StartedAt time.Time

	mu        sync.Mutex
	tasks     []Task
	next      int
	inFlight  bool
	finished  bool
	collected []uint
	qm        *QueueManager
}

// Next downloads the next pending URL and returns its finished task. A failed download
// is logged and dropped; it is not an error of Next.
func (s *Session) Next(ctx context.Context) (*Task, error) {
	s.mu.Lock()
	switch {
	case s.finished:
		s.mu.Unlock()
		return nil, coreErrors.ErrSessionFinished
	case s.inFlight:
		s.mu.Unlock()
		return nil, coreErrors.ErrInFlight
	case s.next >= len(s.tasks):
		s.mu.Unlock()
		return nil, coreErrors.ErrQueueDone
	}
	idx := s.next
	s.next++
	s.inFlight = true
	s.tasks[idx].Status = StatusRunning
	s.tasks[idx].StartedAt = time.Now()
	url := s.tasks[idx].URL
	s.mu.Unlock()

	attachment, err := s.qm.loader.Sideload(ctx, s.ItemID, url)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	task := &s.tasks[idx]
	task.CompletedAt = time.Now()
	logger := s.qm.logger.WithFields(log.Fields{"item_id": s.ItemID, "session": s.ID, "url": url})
	if err != nil {
		task.Status = StatusFailed
		task.Message = err.Error()
		logger.WithError(err).Debug("Sideload failed, dropping image")
	} else {
		task.Status = StatusComplete
		task.AttachmentID = attachment.ID
		s.collected = append(s.collected, attachment.ID)
		logger.WithField("attachment_id", attachment.ID).Debug("Image sideloaded")
	}
	out := *task
	return &out, nil
}

// Remaining returns the number of tasks not started yet.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks) - s.next
}

// Tasks returns a copy of the tasks in order.
func (s *Session) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Collected returns the attachment ids created so far, in download order.
func (s *Session) Collected() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint(nil), s.collected...)
}

// Finish reports the collected ids and closes the session. Tasks not started yet are
// abandoned.
func (s *Session) Finish(ctx context.Context) ([]uint, error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return nil, coreErrors.ErrSessionFinished
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, coreErrors.ErrInFlight
	}
	s.finished = true
	ids := append([]uint(nil), s.collected...)
	summary := Summary{
		SessionID:  s.ID,
		ItemID:     s.ItemID,
		Tasks:      append([]Task(nil), s.tasks...),
		Collected:  ids,
		StartedAt:  s.StartedAt,
		FinishedAt: time.Now(),
	}
	s.mu.Unlock()

	s.qm.close(s)

	var reportErr error
	if s.qm.reporter != nil {
		reportErr = s.qm.reporter.Complete(ctx, s.ItemID, ids)
	}
	if err := s.qm.addToHistory(summary); err != nil {
		s.qm.logger.WithError(err).Warn("Failed to save sideload history")
	}
	if reportErr != nil {
		return nil, fmt.Errorf("failed to report sideloaded images for item %d: %w", s.ItemID, reportErr)
	}

	s.qm.logger.WithFields(log.Fields{"item_id": s.ItemID, "session": s.ID, "attachments": len(ids)}).Info("Sideload session finished")
	return ids, nil
}
