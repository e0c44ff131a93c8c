// Package delivery sends time entries to Redmine and keeps the ones that
// could not be sent in a persistent FIFO queue until Redmine is reachable
// again.
//
// Every send is classified as Delivered (2xx), Rejected (Redmine answered
// with an error; terminal, never retried) or TransientFailure (no usable
// answer; the item stays queued). Drain walks the queue from the head and
// stops at the first transient failure.
package delivery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/christopherklint97/redlog/internal/redmine"
	"github.com/christopherklint97/redlog/internal/state"
	"github.com/christopherklint97/redlog/internal/store"
)

// Sender performs one delivery attempt. A *redmine.APIError means the
// server refused the entry; any other error means it was never reached.
type Sender interface {
	CreateTimeEntry(ctx context.Context, target redmine.Target, entry redmine.TimeEntry) error
}

// SettingsSource yields the target for newly submitted entries.
type SettingsSource interface {
	Get() (store.Settings, error)
}

// Journal records finished deliveries.
type Journal interface {
	RecordDelivery(e store.JournalEntry) (int64, error)
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

type Engine struct {
	settings SettingsSource
	queue    Queue
	sender   Sender
	journal  Journal
	logger   *slog.Logger
	now      func() time.Time

	// mu guards inflight and draining. busy is only written under mu so
	// its notifications follow the counter.
	mu       sync.Mutex
	inflight int
	draining bool

	status *state.Value[Status]
	busy   *state.Value[bool]
}

func New(settings SettingsSource, queue Queue, sender Sender, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		queue:    queue,
		sender:   sender,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		status:   state.NewValue(Status{}),
		busy:     state.NewValue(false),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status is the observable last-event message. Listeners must not call
// Submit or Drain synchronously.
func (e *Engine) Status() *state.Value[Status] { return e.status }

// Busy is true while a Submit or Drain is running.
func (e *Engine) Busy() *state.Value[bool] { return e.busy }

// Pending returns a copy of the queued items, head first.
func (e *Engine) Pending() ([]QueuedItem, error) { return e.queue.Snapshot() }

func (e *Engine) setStatus(s Status) {
	e.logger.Debug("status", "message", s.Message)
	e.status.Set(s)
}

func (e *Engine) enter() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inflight++
	if e.inflight == 1 {
		e.busy.Set(true)
	}
}

func (e *Engine) leave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inflight--
	if e.inflight == 0 {
		e.busy.Set(false)
	}
}

// Submit tries to deliver a new entry right away. On success the backlog
// is flushed as well; when Redmine is unreachable the entry is queued.
// Submit never fails: the outcome is reported through Status.
//
// Submit does not wait for or skip on Busy, so it may run alongside a
// Drain.
func (e *Engine) Submit(ctx context.Context, entry redmine.TimeEntry) {
	e.enter()
	defer e.leave()

	item := QueuedItem{
		ID:       newRequestID(),
		Entry:    entry,
		QueuedAt: e.now(),
	}
	settled := false
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("submit panicked", "request", item.ID, "issue", entry.IssueID, "panic", r)
			if !settled {
				settled = true
				e.enqueue(item)
			}
		}
	}()

	e.setStatus(sendingStatus(entry.IssueID))

	settings, err := e.settings.Get()
	if err != nil {
		e.logger.Warn("reading settings", "error", err)
	}
	item.URL = settings.RedmineURL
	item.APIKey = settings.APIKey

	switch e.attempt(ctx, item, false) {
	case Delivered:
		settled = true
		e.setStatus(deliveredStatus(entry.IssueID))
		e.flush(ctx)
	case Rejected:
		settled = true
		e.flush(ctx)
	default:
		settled = true
		e.enqueue(item)
	}
}

// Drain delivers queued items head first and stops at the first one that
// cannot reach Redmine. It does nothing while another Submit or Drain is
// running, or when the queue is empty.
func (e *Engine) Drain(ctx context.Context) {
	e.mu.Lock()
	if e.inflight > 0 {
		e.mu.Unlock()
		return
	}
	items, err := e.queue.Snapshot()
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("reading queue", "error", err)
		return
	}
	if len(items) == 0 {
		e.mu.Unlock()
		return
	}
	e.inflight++
	e.draining = true
	e.busy.Set(true)
	e.mu.Unlock()

	func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("drain panicked", "panic", r)
			}
		}()
		e.setStatus(retryingAllStatus(len(items)))
		e.walk(ctx, items)
	}()

	e.mu.Lock()
	e.draining = false
	e.mu.Unlock()
	e.leave()

	e.reportCleared()
}

// flush is the drain run at the end of a successful Submit. The caller
// already holds busy; it only has to keep clear of a Drain in progress.
func (e *Engine) flush(ctx context.Context) {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.draining = false
		e.mu.Unlock()
	}()

	items, err := e.queue.Snapshot()
	if err != nil {
		e.logger.Error("reading queue", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	e.setStatus(retryingAllStatus(len(items)))
	e.walk(ctx, items)
	e.reportCleared()
}

// walk attempts items in order. items is a private snapshot; the persisted
// queue is only touched through Remove, so entries appended meanwhile are
// left for the next drain.
func (e *Engine) walk(ctx context.Context, items []QueuedItem) {
	for len(items) > 0 {
		head := items[0]
		issue := head.Entry.IssueID

		e.setStatus(retryingStatus(issue))
		outcome := e.attempt(ctx, head, true)
		if outcome == TransientFailure {
			e.logger.Info("queue drain stopped", "request", head.ID, "remaining", len(items))
			e.setStatus(stoppedStatus())
			return
		}

		if err := e.queue.Remove(head.ID); err != nil {
			// Continuing would resend this item on the next drain.
			e.logger.Error("removing delivered request from queue", "request", head.ID, "error", err)
			e.setStatus(Status{StatusFailed, "Error: could not update the offline queue."})
			return
		}
		if outcome == Delivered {
			e.setStatus(queuedDeliveredStatus(issue))
		}
		items = items[1:]
	}
}

func (e *Engine) reportCleared() {
	remaining, err := e.queue.Snapshot()
	if err != nil {
		e.logger.Error("reading queue", "error", err)
		return
	}
	if len(remaining) == 0 {
		e.setStatus(clearedStatus())
	}
}

func (e *Engine) enqueue(item QueuedItem) {
	if err := e.queue.Append(item); err != nil {
		e.logger.Error("queueing request", "request", item.ID, "issue", item.Entry.IssueID, "error", err)
		e.setStatus(queueFailedStatus(item.Entry.IssueID))
		return
	}
	e.logger.Info("request queued", "request", item.ID, "issue", item.Entry.IssueID)
	e.setStatus(queuedStatus(item.Entry.IssueID))
}

// attempt sends item once and classifies the result. It never touches the
// queue; queued only tells the status message where the item came from. A panic in the sender counts as a transient failure so the item
// is kept.
func (e *Engine) attempt(ctx context.Context, item QueuedItem, queued bool) (outcome Outcome) {
	issue := item.Entry.IssueID
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("delivery attempt panicked", "request", item.ID, "issue", issue, "panic", r)
			e.setStatus(unreachableStatus(issue))
			outcome = TransientFailure
		}
	}()

	err := e.sender.CreateTimeEntry(ctx, item.Target(), item.Entry)
	if err == nil {
		e.record(item, Delivered, "")
		return Delivered
	}

	var apiErr *redmine.APIError
	if errors.As(err, &apiErr) {
		e.logger.Error("redmine rejected request", "request", item.ID, "issue", issue, "status", apiErr.StatusCode, "response", apiErr.Body)
		e.setStatus(rejectedStatus(issue, apiErr.StatusCode, queued))
		e.record(item, Rejected, apiErr.Error())
		return Rejected
	}

	e.logger.Warn("redmine unreachable", "request", item.ID, "issue", issue, "error", err)
	e.setStatus(unreachableStatus(issue))
	return TransientFailure
}

func (e *Engine) record(item QueuedItem, outcome Outcome, detail string) {
	if e.journal == nil {
		return
	}
	_, err := e.journal.RecordDelivery(store.JournalEntry{
		RequestID:  item.ID,
		IssueID:    item.Entry.IssueID,
		SpentOn:    item.Entry.SpentOn,
		Hours:      item.Entry.Hours,
		ActivityID: item.Entry.ActivityID,
		Comments:   item.Entry.Comments,
		RedmineURL: item.URL,
		Outcome:    outcome.String(),
		Detail:     detail,
		CreatedAt:  e.now(),
	})
	if err != nil {
		e.logger.Warn("recording delivery", "request", item.ID, "error", err)
	}
}
