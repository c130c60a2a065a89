package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// Archive keeps a local copy of room messages so history stays readable while
// the backend is unreachable.
type Archive interface {
	Save(ctx context.Context, msgs ...models.ChatMessage) error
	// History pages backwards from before (exclusive; zero means newest) and
	// returns the page oldest first.
	History(ctx context.Context, roomID string, before time.Time, limit int) (models.ChatPage, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxHistoryLimit {
		return defaultHistoryLimit
	}
	return limit
}

// MessagesCollection is where MongoArchive stores messages.
const MessagesCollection = "chat_messages"

type MongoArchive struct {
	col *mongo.Collection
}

func NewMongoArchive(db *mongo.Database) *MongoArchive {
	return &MongoArchive{col: db.Collection(MessagesCollection)}
}

// EnsureIndexes creates the history index and the message id uniqueness
// index. Call once after connecting.
func (a *MongoArchive) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_room_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetName("uniq_message_id").SetUnique(true),
		},
	}
	if _, err := a.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("chat: ensure indexes: %w", err)
	}
	return nil
}

// Save upserts by message id, so saving the same message twice is harmless.
func (a *MongoArchive) Save(ctx context.Context, msgs ...models.ChatMessage) error {
	writes := make([]mongo.WriteModel, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == "" {
			continue
		}
		m.Timestamp = m.Timestamp.UTC()
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"message_id": m.ID}).
			SetReplacement(m).
			SetUpsert(true))
	}
	if len(writes) == 0 {
		return nil
	}
	if _, err := a.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("chat: archive messages: %w", err)
	}
	return nil
}

func (a *MongoArchive) History(ctx context.Context, roomID string, before time.Time, limit int) (models.ChatPage, error) {
	limit = clampLimit(limit)

	filter := bson.M{"room_id": roomID}
	if !before.IsZero() {
		filter["timestamp"] = bson.M{"$lt": before.UTC()}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "message_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	cur, err := a.col.Find(ctx, filter, opts)
	if err != nil {
		return models.ChatPage{}, fmt.Errorf("chat: load history: %w", err)
	}
	var msgs []models.ChatMessage
	if err := cur.All(ctx, &msgs); err != nil {
		return models.ChatPage{}, fmt.Errorf("chat: decode history: %w", err)
	}
	return newestFirstPage(msgs, limit), nil
}

// newestFirstPage trims the probe row and reverses to oldest first.
func newestFirstPage(msgs []models.ChatMessage, limit int) models.ChatPage {
	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return models.ChatPage{Messages: msgs, HasMore: hasMore}
}

// MemoryArchive is an in-process Archive for tests and sessions without
// Mongo.
type MemoryArchive struct {
	mu    sync.Mutex
	rooms map[string]*Transcript
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{rooms: map[string]*Transcript{}}
}

func (a *MemoryArchive) Save(_ context.Context, msgs ...models.ChatMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, m := range msgs {
		t, ok := a.rooms[m.RoomID]
		if !ok {
			t = NewTranscript()
			a.rooms[m.RoomID] = t
		}
		t.Add(m)
	}
	return nil
}

func (a *MemoryArchive) History(_ context.Context, roomID string, before time.Time, limit int) (models.ChatPage, error) {
	limit = clampLimit(limit)
	a.mu.Lock()
	t, ok := a.rooms[roomID]
	a.mu.Unlock()
	if !ok {
		return models.ChatPage{Messages: []models.ChatMessage{}}, nil
	}

	all := t.Messages()
	end := len(all)
	if !before.IsZero() {
		end = sort.Search(len(all), func(i int) bool { return !all[i].Timestamp.Before(before) })
	}
	newest := make([]models.ChatMessage, 0, limit+1)
	for i := end - 1; i >= 0 && len(newest) <= limit; i-- {
		newest = append(newest, all[i])
	}
	return newestFirstPage(newest, limit), nil
}
