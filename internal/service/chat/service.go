package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/db"
	svcErr "github.com/oggyb/nearmatch/internal/errors"
	"github.com/oggyb/nearmatch/internal/matching"
	"github.com/oggyb/nearmatch/internal/repository"
)

const (
	messagePageSize = 50
	maxBodyRunes    = 1000
)

type Message struct {
	ID         uint64  `json:"id"`
	SenderID   uint64  `json:"sender_id"`
	ReceiverID uint64  `json:"receiver_id"`
	Body       string  `json:"body"`
	Timestamp  float64 `json:"timestamp"`
}

type SendMessageRequest struct {
	SenderID   uint64 `json:"sender_id"`
	ReceiverID uint64 `json:"receiver_id"`
	Body       string `json:"body"`
}

type SendMessageResponse struct {
	Message Message `json:"message"`
	Pruned  int64   `json:"pruned"`
}

type ListMessagesRequest struct {
	User1ID         uint64  `json:"user1_id"`
	User2ID         uint64  `json:"user2_id"`
	PaginationToken *string `json:"pagination_token,omitempty"`
}

type ListMessagesResponse struct {
	Messages            []Message `json:"messages"`
	NextPaginationToken *string   `json:"next_pagination_token,omitempty"`
}

// Service implements the Chat gRPC API. Messages are ephemeral: anything
// older than the configured retention is dropped when its sender or
// receiver sends again.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	messages *repository.MessageRepository
}

func NewChatService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
	}
}

// SendMessage stores a message after pruning the sender's expired history.
//
// Behavior:
//   - Sender and receiver must be two existing users.
//   - Body is trimmed, required, and at most 1000 characters.
//   - Messages involving the sender older than CHAT_RETENTION are deleted
//     first; the count is returned as pruned.
func (s *Service) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	s.appCtx.Logger.Debug("SendMessage called", "sender", req.SenderID, "receiver", req.ReceiverID)

	body := strings.TrimSpace(req.Body)
	bad := map[string]string{}
	if body == "" {
		bad["body"] = "body is required"
	} else if utf8.RuneCountInString(body) > maxBodyRunes {
		bad["body"] = "body is too long"
	}
	if req.SenderID == req.ReceiverID {
		bad["receiver_id"] = "cannot message yourself"
	}
	if len(bad) > 0 {
		return nil, svcErr.Map(svcErr.Fields(bad))
	}

	found, err := s.users.GetByIDs(ctx, []uint64{req.SenderID, req.ReceiverID})
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if _, ok := found[req.SenderID]; !ok {
		bad["sender_id"] = "user does not exist"
	}
	if _, ok := found[req.ReceiverID]; !ok {
		bad["receiver_id"] = "user does not exist"
	}
	if len(bad) > 0 {
		return nil, svcErr.Map(svcErr.Fields(bad))
	}

	now := s.appCtx.Now()
	msg := &db.Message{SenderID: req.SenderID, ReceiverID: req.ReceiverID, Body: body, Timestamp: now}
	pruned, err := s.messages.CreatePruning(ctx, msg, now.Add(-s.appCtx.Config.Chat.Retention))
	if err != nil {
		s.appCtx.Logger.Error("SendMessage failed", "err", err)
		return nil, svcErr.Map(err)
	}
	if pruned > 0 {
		s.appCtx.Logger.Debug("pruned expired messages", "user_id", req.SenderID, "count", pruned)
	}
	return &SendMessageResponse{Message: toMessage(msg), Pruned: pruned}, nil
}

// ListMessages returns the conversation between two users, newest first,
// in pages of 50.
func (s *Service) ListMessages(ctx context.Context, req *ListMessagesRequest) (*ListMessagesResponse, error) {
	s.appCtx.Logger.Debug("ListMessages called", "user1", req.User1ID, "user2", req.User2ID)

	if req.User1ID == 0 || req.User2ID == 0 {
		return nil, svcErr.InvalidArgument("user1_id and user2_id are required")
	}

	msgs, next, err := s.messages.Conversation(ctx, req.User1ID, req.User2ID, req.PaginationToken, messagePageSize)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := &ListMessagesResponse{Messages: make([]Message, 0, len(msgs)), NextPaginationToken: next}
	for i := range msgs {
		resp.Messages = append(resp.Messages, toMessage(&msgs[i]))
	}
	return resp, nil
}

func toMessage(m *db.Message) Message {
	return Message{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Body:       m.Body,
		Timestamp:  matching.UnixSeconds(m.Timestamp),
	}
}
