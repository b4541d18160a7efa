package host

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

// Submission is the editor request that triggered a save: the posted form plus who sent it.
type Submission struct {
	Form     url.Values
	CanEdit  bool
	Autosave bool
}

// SaveEvent is delivered to save hooks whenever an item is saved.
type SaveEvent struct {
	ItemID     uint
	Submission Submission
}

// SaveHook reacts to an item save.
type SaveHook func(ctx context.Context, ev SaveEvent) error

// Dispatcher fans save events out to registered hooks in registration order.
type Dispatcher struct {
	mu    sync.RWMutex
	hooks []SaveHook
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// AddSaveHook registers fn.
func (d *Dispatcher) AddSaveHook(fn SaveHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, fn)
}

// FireSave runs every hook and joins their errors. The submission is taken from ctx.
func (d *Dispatcher) FireSave(ctx context.Context, itemID uint) error {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	hooks := append([]SaveHook(nil), d.hooks...)
	d.mu.RUnlock()

	ev := SaveEvent{ItemID: itemID, Submission: SubmissionFrom(ctx)}
	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type ctxKey int

const (
	requestTokenKey ctxKey = iota
	submissionKey
)

// WithRequestToken attaches the per-request idempotency token.
func WithRequestToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, requestTokenKey, token)
}

// RequestToken returns the token attached by WithRequestToken, or "".
func RequestToken(ctx context.Context) string {
	token, _ := ctx.Value(requestTokenKey).(string)
	return token
}

// WithSubmission attaches the editor submission to ctx.
func WithSubmission(ctx context.Context, sub Submission) context.Context {
	return context.WithValue(ctx, submissionKey, sub)
}

// SubmissionFrom returns the submission attached to ctx. Without one, the zero value has
// no edit capability.
func SubmissionFrom(ctx context.Context) Submission {
	sub, _ := ctx.Value(submissionKey).(Submission)
	return sub
}
