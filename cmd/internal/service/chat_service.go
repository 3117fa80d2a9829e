package service

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/utils"
	"nutricare/cmd/internal/utils/apierror"
)

const (
	DefaultMessageLimit = 200
	MaxMessageLimit     = 500
)

// Broadcaster fans a payload out to the peers connected to a room.
type Broadcaster interface {
	Broadcast(roomID int, payload []byte) int
}

type MessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type MessageResponse struct {
	ID       int    `json:"id"`
	RoomID   int    `json:"room_id"`
	SenderID int    `json:"sender_id"`
	Text     string `json:"text"`
	SentAt   string `json:"sent_at"`
}

// RelayEnvelope is the frame pushed to live peers when a message is stored.
type RelayEnvelope struct {
	Type    string           `json:"type"`
	Message *MessageResponse `json:"message"`
}

type DefaultChatService struct {
	Store    *repository.Store
	Validate *validator.Validate
	Relay    Broadcaster
}

func NewChatService(store *repository.Store, validate *validator.Validate, relay Broadcaster) *DefaultChatService {
	return &DefaultChatService{Store: store, Validate: validate, Relay: relay}
}

// PostMessage stores a message in an active room and then relays it.
// Relay delivery never affects the stored record.
func (c *DefaultChatService) PostMessage(ctx context.Context, senderID, roomID int, req *MessageRequest) (*MessageResponse, apierror.ErrorResponse) {
	if apierr := checkRequest(c.Validate, req); apierr != nil {
		return nil, apierr
	}

	var msg *entity.ChatMessage
	err := c.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		sess, err := loadSessionByRoom(tx, roomID)
		if err != nil {
			return err
		}

		if err = authorizeChatPost(sess, senderID); err != nil {
			return err
		}

		msg = &entity.ChatMessage{
			RoomID:   roomID,
			SenderID: senderID,
			Text:     req.Text,
			SentAt:   utils.NowUTC(),
		}
		if err = tx.Chat().Create(msg); err != nil {
			return fmt.Errorf("save message in room %d: %w", roomID, err)
		}
		return nil
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	resp := toMessageResponse(msg)
	c.relay(roomID, resp)
	return resp, nil
}

// ListMessages returns up to limit messages in send order. A limit of zero
// means DefaultMessageLimit.
func (c *DefaultChatService) ListMessages(ctx context.Context, userID, roomID, limit int) ([]*MessageResponse, apierror.ErrorResponse) {
	if limit < 0 || limit > MaxMessageLimit {
		return nil, apierror.Validation(fmt.Sprintf("Limit must be between 1 and %d", MaxMessageLimit))
	}
	if limit == 0 {
		limit = DefaultMessageLimit
	}

	store := c.Store.WithContext(ctx)
	sess, err := loadSessionByRoom(store, roomID)
	if err != nil {
		return nil, apierror.FromError(err)
	}

	if err = authorizeSessionRead(sess, userID); err != nil {
		return nil, apierror.FromError(err)
	}

	msgs, err := store.Chat().FindByRoomID(roomID, limit)
	if err != nil {
		log.Errorf("failed to list messages of room %d: %v", roomID, err)
		return nil, apierror.StorageUnavailableError
	}

	resp := make([]*MessageResponse, len(msgs))
	for i, msg := range msgs {
		resp[i] = toMessageResponse(msg)
	}
	return resp, nil
}

// AuthorizeRelay decides whether userID may join the room's live relay.
func (c *DefaultChatService) AuthorizeRelay(ctx context.Context, userID, roomID int) apierror.ErrorResponse {
	sess, err := loadSessionByRoom(c.Store.WithContext(ctx), roomID)
	if err != nil {
		return apierror.FromError(err)
	}

	if err = sess.requireParticipant(userID); err != nil {
		return apierror.FromError(err)
	}

	if sess.Room.Status == entity.RoomEnded {
		return apierror.Forbidden("Session has ended")
	}
	return nil
}

func (c *DefaultChatService) relay(roomID int, msg *MessageResponse) {
	if c.Relay == nil {
		return
	}

	payload, err := json.Marshal(&RelayEnvelope{Type: "message", Message: msg})
	if err != nil {
		log.Warnf("failed to encode relay frame for room %d: %v", roomID, err)
		return
	}
	c.Relay.Broadcast(roomID, payload)
}

func toMessageResponse(msg *entity.ChatMessage) *MessageResponse {
	return &MessageResponse{
		ID:       msg.ID,
		RoomID:   msg.RoomID,
		SenderID: msg.SenderID,
		Text:     msg.Text,
		SentAt:   utils.FormatEpoch(msg.SentAt),
	}
}
