package delivery

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/christopherklint97/redlog/internal/redmine"
	"github.com/christopherklint97/redlog/internal/store"
	"github.com/google/uuid"
)

const queueKey = "redmine_request_queue"

// QueuedItem is a time entry waiting to be delivered. URL and APIKey are
// the ones in effect when the item was created and never change after.
type QueuedItem struct {
	ID       string            `json:"id" jsonschema:"description=Unique request id used to remove the item once delivered"`
	Entry    redmine.TimeEntry `json:"payload"`
	URL      string            `json:"redmineUrl" jsonschema:"description=Redmine base URL frozen at creation"`
	APIKey   string            `json:"apiKey"`
	QueuedAt time.Time         `json:"queuedAt,omitempty"`
}

func (i QueuedItem) Target() redmine.Target {
	return redmine.Target{URL: i.URL, APIKey: i.APIKey}
}

// newRequestID returns a time-ordered id. UUIDv7 is monotonic within the
// process, so ids never collide even for entries created in the same
// millisecond.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "req_" + id.String()
}

// Queue is the ordered backlog of undelivered items.
type Queue interface {
	Append(item QueuedItem) error
	Remove(id string) error
	Snapshot() ([]QueuedItem, error)
}

// StoredQueue keeps the whole backlog as one value in a store.KV and
// rewrites it in full on every mutation. Mutations go through KV.Update so
// that a second process working on the same store never loses or revives
// items.
type StoredQueue struct {
	mu sync.Mutex
	kv store.KV
}

func NewStoredQueue(kv store.KV) *StoredQueue {
	return &StoredQueue{kv: kv}
}

func decodeItems(raw []byte) ([]QueuedItem, error) {
	if raw == nil {
		return nil, nil
	}
	var items []QueuedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding queue: %w", err)
	}
	return items, nil
}

func encodeItems(items []QueuedItem) ([]byte, error) {
	if items == nil {
		items = []QueuedItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding queue: %w", err)
	}
	return data, nil
}

// Append adds item at the tail. An item whose id is already queued is
// rejected.
func (q *StoredQueue) Append(item QueuedItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.kv.Update(queueKey, func(raw []byte) ([]byte, error) {
		items, err := decodeItems(raw)
		if err != nil {
			return nil, err
		}
		for _, existing := range items {
			if existing.ID == item.ID {
				return nil, fmt.Errorf("request %s is already queued", item.ID)
			}
		}
		return encodeItems(append(items, item))
	})
	if err != nil {
		return fmt.Errorf("saving queue: %w", err)
	}
	return nil
}

// Remove deletes the item with the given id. Removing an id that is not
// queued is not an error.
func (q *StoredQueue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	err := q.kv.Update(queueKey, func(raw []byte) ([]byte, error) {
		items, err := decodeItems(raw)
		if err != nil {
			return nil, err
		}
		kept := items[:0]
		removed := false
		for _, item := range items {
			if item.ID == id {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		if !removed {
			return nil, nil
		}
		return encodeItems(kept)
	})
	if err != nil {
		return fmt.Errorf("saving queue: %w", err)
	}
	return nil
}

// Snapshot returns a private copy of the backlog, head first.
func (q *StoredQueue) Snapshot() ([]QueuedItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var items []QueuedItem
	if _, err := q.kv.Load(queueKey, &items); err != nil {
		return nil, fmt.Errorf("loading queue: %w", err)
	}
	return items, nil
}
