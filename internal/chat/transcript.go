package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

// Transcript is the ordered, duplicate-free set of messages seen for a room.
// Messages are kept by timestamp, then id, whatever order they arrive in.
type Transcript struct {
	mu   sync.Mutex
	msgs []models.ChatMessage
	ids  map[string]struct{}
}

func NewTranscript() *Transcript {
	return &Transcript{ids: map[string]struct{}{}}
}

func precedes(a, b models.ChatMessage) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}

// Add inserts msgs and returns the ones that were new, in transcript order.
// Messages without an id cannot be deduplicated and are dropped.
func (t *Transcript) Add(msgs ...models.ChatMessage) []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()

	var added []models.ChatMessage
	for _, m := range msgs {
		if m.ID == "" {
			continue
		}
		if _, dup := t.ids[m.ID]; dup {
			continue
		}
		t.ids[m.ID] = struct{}{}
		added = append(added, m)

		i := sort.Search(len(t.msgs), func(i int) bool { return precedes(m, t.msgs[i]) })
		t.msgs = append(t.msgs, models.ChatMessage{})
		copy(t.msgs[i+1:], t.msgs[i:])
		t.msgs[i] = m
	}
	sort.SliceStable(added, func(i, j int) bool { return precedes(added[i], added[j]) })
	return added
}

func (t *Transcript) Has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

func (t *Transcript) Messages() []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.ChatMessage(nil), t.msgs...)
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}

// Oldest is the cursor for loading earlier history; zero when empty.
func (t *Transcript) Oldest() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.msgs) == 0 {
		return time.Time{}
	}
	return t.msgs[0].Timestamp
}
