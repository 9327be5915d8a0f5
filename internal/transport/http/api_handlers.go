package http

import (
	"encoding/json"
	stdhttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsewire-server/internal/auth"
	"github.com/vovakirdan/pulsewire-server/internal/core"
	"github.com/vovakirdan/pulsewire-server/internal/proto"
	"github.com/vovakirdan/pulsewire-server/internal/store"
)

// ErrorResponse is the uniform REST error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIHandlers provides the inspection and dev endpoints alongside /ws.
type APIHandlers struct {
	hub      *core.Hub
	auth     *auth.Service
	messages store.MessageStore
	log      *zerolog.Logger
}

// NewAPIHandlers creates the REST handler set.
func NewAPIHandlers(hub *core.Hub, authService *auth.Service, messages store.MessageStore, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:      hub,
		auth:     authService,
		messages: messages,
		log:      logger,
	}
}

// TokenRequest asks for a signed identity token.
type TokenRequest struct {
	Identity    string `json:"identity" binding:"required,min=1,max=128"`
	DisplayName string `json:"display_name" binding:"max=128"`
}

// TokenResponse carries the signed token.
type TokenResponse struct {
	Token string `json:"token"`
}

// MintToken handles POST /api/token.
func (h *APIHandlers) MintToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.auth.Mint(req.Identity, req.DisplayName)
	if err != nil {
		h.log.Error().Err(err).Msg("mint token")
		c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(stdhttp.StatusOK, TokenResponse{Token: token})
}

// RoomSummary describes one live room.
type RoomSummary struct {
	Name     string `json:"name"`
	Members  int    `json:"members"`
	Presence int    `json:"presence"`
}

// ListRooms handles GET /api/rooms.
func (h *APIHandlers) ListRooms(c *gin.Context) {
	names := h.hub.RoomNames()
	rooms := make([]RoomSummary, 0, len(names))
	for _, name := range names {
		room, err := h.hub.GetRoom(name)
		if err != nil {
			continue // raced with teardown
		}
		rooms = append(rooms, RoomSummary{
			Name:     room.Name,
			Members:  room.Members(),
			Presence: len(room.Snapshot()),
		})
	}
	c.JSON(stdhttp.StatusOK, gin.H{"rooms": rooms})
}

// RoomPresence handles GET /api/rooms/:name/presence.
func (h *APIHandlers) RoomPresence(c *gin.Context) {
	room, err := h.hub.GetRoom(c.Param("name"))
	if err != nil {
		// The registry drops empty rooms; an absent entry means nobody is here.
		c.JSON(stdhttp.StatusOK, gin.H{"presence": map[string]proto.PresenceEntry{}})
		return
	}

	snap := room.Snapshot()
	presence := make(map[string]proto.PresenceEntry, len(snap))
	for identity, info := range snap {
		presence[identity] = proto.PresenceEntry{
			Meta:  info.Meta,
			Since: info.Since.Unix(),
		}
	}
	c.JSON(stdhttp.StatusOK, gin.H{"presence": presence})
}

// MessageResponse is one persisted message in history responses.
type MessageResponse struct {
	ID        int64           `json:"id"`
	Room      string          `json:"room"`
	From      string          `json:"from"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

// RoomMessages handles GET /api/rooms/:name/messages?limit=&before=.
func (h *APIHandlers) RoomMessages(c *gin.Context) {
	if h.messages == nil {
		c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "message history disabled"})
		return
	}

	filters := store.Filters{Room: c.Param("name")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		filters.Limit = limit
	}
	if raw := c.Query("before"); raw != "" {
		before, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid before cursor"})
			return
		}
		filters.BeforeID = &before
	}

	msgs, err := h.messages.Query(c.Request.Context(), filters)
	if err != nil {
		h.log.Error().Err(err).Str("room", filters.Room).Msg("query messages")
		c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp := MessageResponse{
			ID:        m.ID,
			Room:      m.Room,
			From:      m.From,
			Event:     m.Event,
			CreatedAt: m.CreatedAt.Unix(),
		}
		if m.Payload != "" {
			resp.Payload = json.RawMessage(m.Payload)
		}
		out = append(out, resp)
	}
	c.JSON(stdhttp.StatusOK, gin.H{"messages": out})
}

func decode(raw json.RawMessage, v any) error {
	return json.Unmarshal(raw, v)
}

func encode(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
