package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/api"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/logging"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

// Service is the request/response side of chat. When an Archive is set,
// fetched and sent messages are copied into it and history falls back to it
// when the backend cannot be reached.
type Service struct {
	api     *api.Client
	archive Archive
	logger  *zap.Logger
}

// NewService builds a Service; archive may be nil.
func NewService(client *api.Client, archive Archive, logger *zap.Logger) *Service {
	return &Service{api: client, archive: archive, logger: logging.OrNop(logger)}
}

func (s *Service) Rooms(ctx context.Context) ([]models.ChatRoom, error) {
	rooms, err := s.api.ChatRooms(ctx)
	if err != nil {
		return nil, attribute("chat.Rooms", err)
	}
	return rooms, nil
}

func (s *Service) Room(ctx context.Context, roomID string) (models.ChatRoom, error) {
	const op = "chat.Room"
	if err := requireRoom(op, roomID); err != nil {
		return models.ChatRoom{}, err
	}
	room, err := s.api.ChatRoom(ctx, roomID)
	if err != nil {
		return models.ChatRoom{}, attribute(op, err)
	}
	return room, nil
}

// History loads one page of room messages, oldest first. Pass the oldest
// timestamp of the previous page as before to go further back.
func (s *Service) History(ctx context.Context, roomID string, before time.Time, limit int) (models.ChatPage, error) {
	const op = "chat.History"
	if err := requireRoom(op, roomID); err != nil {
		return models.ChatPage{}, err
	}
	page, err := s.api.ChatMessages(ctx, roomID, before, clampLimit(limit))
	if err != nil {
		if s.archive != nil && apperr.Retryable(err) {
			archived, aerr := s.archive.History(ctx, roomID, before, limit)
			if aerr == nil {
				s.logger.Info("serving archived chat history", zap.String("room_id", roomID), zap.Error(err))
				return archived, nil
			}
			s.logger.Warn("chat archive unavailable", zap.Error(aerr))
		}
		return models.ChatPage{}, attribute(op, err)
	}
	s.Record(ctx, page.Messages...)
	return page, nil
}

// Send posts text to the room and returns the stored message.
func (s *Service) Send(ctx context.Context, roomID, text string) (models.ChatMessage, error) {
	const op = "chat.Send"
	if err := requireRoom(op, roomID); err != nil {
		return models.ChatMessage{}, err
	}
	text, err := checkText(op, text)
	if err != nil {
		return models.ChatMessage{}, err
	}
	msg, err := s.api.SendChatMessage(ctx, roomID, text)
	if err != nil {
		return models.ChatMessage{}, attribute(op, err)
	}
	if msg.RoomID == "" {
		msg.RoomID = roomID
	}
	s.Record(ctx, msg)
	return msg, nil
}

// Backfill adapts History for Stream reconnects.
func (s *Service) Backfill(roomID string) Backfill {
	return func(ctx context.Context) ([]models.ChatMessage, error) {
		page, err := s.api.ChatMessages(ctx, roomID, time.Time{}, defaultHistoryLimit)
		if err != nil {
			return nil, err
		}
		s.Record(ctx, page.Messages...)
		return page.Messages, nil
	}
}

// Record archives msgs. Archive failures are logged, not returned: the
// backend stays the source of truth.
func (s *Service) Record(ctx context.Context, msgs ...models.ChatMessage) {
	if s.archive == nil || len(msgs) == 0 {
		return
	}
	if err := s.archive.Save(ctx, msgs...); err != nil {
		s.logger.Warn("chat archive write failed", zap.Int("messages", len(msgs)), zap.Error(err))
	}
}

func requireRoom(op, roomID string) error {
	if strings.TrimSpace(roomID) == "" {
		return apperr.Validation(op, "roomId", "room id is required")
	}
	return nil
}

func attribute(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.At(op)
	}
	return apperr.Wrap(apperr.KindUnknown, op, err)
}
