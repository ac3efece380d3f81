package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrelay/relay"
	"github.com/hrygo/chatrelay/store"
)

// defaultHistoryPageSize bounds unpaginated history listings.
const defaultHistoryPageSize = 100

// ChatService exposes the message data path over REST.
type ChatService struct {
	Router *relay.Router
	Alarms *relay.AlarmHandler
	Store  *store.Store
}

// PostChatRequest is the body of POST /api/v1/chat.
type PostChatRequest struct {
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	ModeHint  string `json:"modeHint"`
}

// PostAlarmRequest is the body of POST /api/v1/alarm.
type PostAlarmRequest struct {
	AgentID string `json:"agentId"`
}

// PostChat routes one inbound message through the relay and returns the
// handled message, including any augmentation rewrite.
func (s *ChatService) PostChat(c echo.Context) error {
	request := &PostChatRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	if request.Sender == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sender is required")
	}

	handled, err := s.Router.Handle(c.Request().Context(), relay.Message{
		Content:   request.Content,
		Sender:    request.Sender,
		Recipient: request.Recipient,
		ModeHint:  request.ModeHint,
	})
	if err != nil {
		if errors.Is(err, relay.ErrMissingRecipient) {
			return echo.NewHTTPError(http.StatusBadRequest, "recipient is required in supervised mode")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to handle message").SetInternal(err)
	}
	return c.JSON(http.StatusOK, handled)
}

// PostPrivateChat delivers a message straight to its recipient's private
// queue, bypassing mode dispatch.
func (s *ChatService) PostPrivateChat(c echo.Context) error {
	request := &PostChatRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}

	err := s.Router.HandlePrivate(c.Request().Context(), relay.Message{
		Content:   request.Content,
		Sender:    request.Sender,
		Recipient: request.Recipient,
	})
	if err != nil {
		if errors.Is(err, relay.ErrMissingRecipient) {
			return echo.NewHTTPError(http.StatusBadRequest, "recipient is required")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to deliver message").SetInternal(err)
	}
	return c.NoContent(http.StatusAccepted)
}

// PostAlarm forces supervised mode in response to an external alarm.
func (s *ChatService) PostAlarm(c echo.Context) error {
	request := &PostAlarmRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.AgentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "agentId is required")
	}

	s.Alarms.OnAlarm(c.Request().Context(), request.AgentID)
	return c.NoContent(http.StatusAccepted)
}

// GetHistory lists persisted messages, newest first. Supports sender and
// recipient filters plus limit/offset pagination.
func (s *ChatService) GetHistory(c echo.Context) error {
	find := &store.FindMessage{}
	if sender := c.QueryParam("sender"); sender != "" {
		find.Sender = &sender
	}
	if recipient := c.QueryParam("recipient"); recipient != "" {
		find.Recipient = &recipient
	}

	limit := defaultHistoryPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	find.Limit = &limit
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		find.Offset = &parsed
	}

	rows, err := s.Store.ListMessages(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list history").SetInternal(err)
	}

	list := make([]relay.Message, 0, len(rows))
	for _, row := range rows {
		list = append(list, relay.Message{
			UID:       row.UID,
			Content:   row.Content,
			Sender:    row.Sender,
			Recipient: row.Recipient,
			CreatedTs: row.CreatedTs,
			ModeHint:  row.ModeHint,
		})
	}
	return c.JSON(http.StatusOK, list)
}

// historyStore adapts the persistence layer to the relay's append log.
type historyStore struct {
	store *store.Store
}

func (h *historyStore) Append(ctx context.Context, msg *relay.Message) error {
	_, err := h.store.CreateMessage(ctx, &store.Message{
		UID:       msg.UID,
		Content:   msg.Content,
		Sender:    msg.Sender,
		Recipient: msg.Recipient,
		ModeHint:  msg.ModeHint,
		CreatedTs: msg.CreatedTs,
	})
	return err
}
