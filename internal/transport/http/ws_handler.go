package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsewire-server/internal/auth"
	"github.com/vovakirdan/pulsewire-server/internal/config"
	"github.com/vovakirdan/pulsewire-server/internal/core"
	"github.com/vovakirdan/pulsewire-server/internal/proto"
	"github.com/vovakirdan/pulsewire-server/internal/store"
	"github.com/vovakirdan/pulsewire-server/internal/utils"
)

const (
	codeRateLimited = "rate_limited"
	persistTimeout  = 5 * time.Second

	// persistedEvent is the broadcast event name the application layer
	// chooses to persist. Everything else stays ephemeral.
	persistedEvent = "message"
)

// WSHandler upgrades HTTP connections and bridges them to a core Session.
type WSHandler struct {
	hub      *core.Hub
	auth     *auth.Service
	messages store.MessageStore // nil disables persistence
	cfg      config.Config
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, messages store.MessageStore, cfg config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		auth:     authService,
		messages: messages,
		cfg:      cfg,
		log:      logger,
	}
}

// Handle serves GET /ws?room=NAME. The identity comes from the bearer token
// (header or ?token=); anonymous connections get a guest identity.
func (h *WSHandler) Handle(c *gin.Context) {
	roomName := c.Query("room")
	if roomName == "" {
		c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "room query parameter required"})
		return
	}

	identity, displayName, err := h.auth.Resolve(bearerToken(c))
	if err != nil {
		h.log.Debug().Err(err).Msg("ws token rejected")
		c.JSON(stdhttp.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sess := core.NewSession(utils.NewID(), h.cfg.SessionBuffer)
	if err := h.hub.Subscribe(sess, roomName); err != nil {
		_ = wsjson.Write(ctx, conn, proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: protoError(err),
		})
		conn.Close(websocket.StatusPolicyViolation, "subscribe failed")
		return
	}
	defer sess.Close()

	h.log.Info().
		Str("session_id", sess.ID).
		Str("room", roomName).
		Str("identity", identity).
		Msg("ws session subscribed")

	if err := wsjson.Write(ctx, conn, proto.Outbound{
		Type: proto.OutboundTypeReady,
		Room: roomName,
		Data: proto.ReadyData{
			SessionID: sess.ID,
			Identity:  identity,
			Protocol:  proto.ProtocolVersion,
		},
	}); err != nil {
		return
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess, identity, displayName)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session, identity, displayName string) error {
	limiter := newRateLimiter(h.cfg.WSMessageLimit)
	defer limiter.stop()

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if err := h.writeError(ctx, conn, &proto.Error{Code: codeRateLimited, Msg: "message rate limit exceeded"}); err != nil {
				return err
			}
			continue
		}

		done, protoErr := h.dispatch(sess, identity, displayName, inbound)
		if protoErr != nil {
			if err := h.writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}
		if done {
			return nil
		}
	}
}

// dispatch applies one inbound message to the session. done reports that the
// client asked to leave and the connection should close normally.
func (h *WSHandler) dispatch(sess *core.Session, identity, displayName string, inbound proto.Inbound) (done bool, protoErr *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeTrack:
		var data proto.TrackData
		if len(inbound.Data) > 0 {
			if err := decode(inbound.Data, &data); err != nil {
				return false, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed track data"}
			}
		}
		meta := data.Meta
		if meta == nil {
			meta = make(map[string]any, 1)
		}
		if _, ok := meta["display_name"]; !ok {
			meta["display_name"] = displayName
		}
		if err := sess.Track(identity, meta); err != nil {
			return false, protoError(err)
		}
		return false, nil

	case proto.InboundTypeUntrack:
		if err := sess.Untrack(); err != nil {
			if errors.Is(err, core.ErrNoIdentity) {
				return false, nil // nothing tracked, nothing to do
			}
			return false, protoError(err)
		}
		return false, nil

	case proto.InboundTypePublish:
		var data proto.PublishData
		if err := decode(inbound.Data, &data); err != nil || data.Event == "" {
			return false, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed publish data"}
		}
		if err := sess.Publish(data.Event, data.Payload); err != nil {
			return false, protoError(err)
		}
		if h.messages != nil && data.Event == persistedEvent {
			go h.persist(sess.RoomName(), identity, data)
		}
		return false, nil

	case proto.InboundTypeLeave:
		_ = sess.Leave()
		return true, nil
	}

	return false, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case event, ok := <-sess.Events():
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, protoErr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: protoErr,
	})
}

// persist stores a published message outside the delivery path. Failures are
// logged and never reach the publisher.
func (h *WSHandler) persist(room, identity string, data proto.PublishData) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	_, err := h.messages.Insert(ctx, &store.Message{
		Room:    room,
		From:    identity,
		Event:   data.Event,
		Payload: string(data.Payload),
	})
	if err != nil {
		h.log.Warn().Err(err).Str("room", room).Msg("persist message failed")
	}
}
