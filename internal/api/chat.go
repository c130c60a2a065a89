package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

type chatRoomsData struct {
	ChatRooms []models.ChatRoom `json:"chatRooms"`
}

type chatRoomData struct {
	ChatRoom models.ChatRoom `json:"chatRoom"`
}

type chatMessageData struct {
	Message models.ChatMessage `json:"message"`
}

func (c *Client) ChatRooms(ctx context.Context) ([]models.ChatRoom, error) {
	d, err := do[chatRoomsData](ctx, c, "api.ChatRooms", request{method: http.MethodGet, path: PathChatRooms})
	return d.ChatRooms, err
}

func (c *Client) ChatRoom(ctx context.Context, roomID string) (models.ChatRoom, error) {
	d, err := do[chatRoomData](ctx, c, "api.ChatRoom", request{method: http.MethodGet, path: ChatRoomPath(roomID)})
	return d.ChatRoom, err
}

// ChatMessages pages backwards through history: before is exclusive and zero
// means from the newest message.
func (c *Client) ChatMessages(ctx context.Context, roomID string, before time.Time, limit int) (models.ChatPage, error) {
	v := url.Values{}
	if !before.IsZero() {
		v.Set("before", before.UTC().Format(time.RFC3339Nano))
	}
	return do[models.ChatPage](ctx, c, "api.ChatMessages", request{
		method: http.MethodGet,
		path:   ChatMessagesPath(roomID),
		query:  pageQuery(v, 0, limit),
	})
}

func (c *Client) SendChatMessage(ctx context.Context, roomID, text string) (models.ChatMessage, error) {
	d, err := do[chatMessageData](ctx, c, "api.SendChatMessage", request{
		method: http.MethodPost,
		path:   ChatSendPath(roomID),
		body:   map[string]string{"text": text},
	})
	return d.Message, err
}
