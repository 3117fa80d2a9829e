package routes

import (
	"context"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"net/http"
	"nutricare/cmd/internal/relay"
	"nutricare/cmd/internal/service"
	"nutricare/cmd/internal/utils/apierror"
	"strconv"
)

type ChatService interface {
	PostMessage(ctx context.Context, senderID, roomID int, req *service.MessageRequest) (*service.MessageResponse, apierror.ErrorResponse)
	ListMessages(ctx context.Context, userID, roomID, limit int) ([]*service.MessageResponse, apierror.ErrorResponse)
	AuthorizeRelay(ctx context.Context, userID, roomID int) apierror.ErrorResponse
}

type DefaultChatRoute struct {
	ChatService ChatService
	Hub         *relay.Hub
	Presence    relay.Presence
	Upgrader    websocket.Upgrader
}

func NewChatDefault(chatService ChatService, hub *relay.Hub, presence relay.Presence, upgrader websocket.Upgrader) *DefaultChatRoute {
	return &DefaultChatRoute{ChatService: chatService, Hub: hub, Presence: presence, Upgrader: upgrader}
}

func (ch *DefaultChatRoute) ListMessages(c echo.Context) error {
	roomID, apierr := intParam(c, "roomId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil {
			apierr := apierror.NewInvalidParamTypeError("limit", "an integer")
			return c.JSON(apierr.Code(), apierr)
		}
	}

	userID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	msgs, apierr := ch.ChatService.ListMessages(c.Request().Context(), userID, roomID, limit)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"messages": msgs}
	return c.JSON(http.StatusOK, &resp)
}

func (ch *DefaultChatRoute) PostMessage(c echo.Context) error {
	roomID, apierr := intParam(c, "roomId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.MessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	senderID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	msg, apierr := ch.ChatService.PostMessage(c.Request().Context(), senderID, roomID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, msg)
}

// Connect upgrades to a websocket once the caller is cleared for the room.
func (ch *DefaultChatRoute) Connect(c echo.Context) error {
	roomID, apierr := intParam(c, "roomId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	userID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	if apierr = ch.ChatService.AuthorizeRelay(c.Request().Context(), userID, roomID); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	ws, err := ch.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warnf("failed to upgrade relay connection for room %d: %v", roomID, err)
		return nil
	}

	if err = relay.Serve(c.Request().Context(), ch.Hub, ch.Presence, roomID, relay.NewConn(ws, userID)); err != nil {
		log.Warnf("relay connection for room %d refused: %v", roomID, err)
	}
	return nil
}

func (ch *DefaultChatRoute) Online(c echo.Context) error {
	roomID, apierr := intParam(c, "roomId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	userID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	if apierr = ch.ChatService.AuthorizeRelay(c.Request().Context(), userID, roomID); apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	online, err := ch.Presence.Online(c.Request().Context(), roomID)
	if err != nil {
		log.Errorf("failed to read presence of room %d: %v", roomID, err)
		return c.JSON(apierror.StorageUnavailableError.Code(), apierror.StorageUnavailableError)
	}

	resp := echo.Map{"room_id": roomID, "user_ids": online}
	return c.JSON(http.StatusOK, &resp)
}
