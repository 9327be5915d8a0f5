package http

import (
	"errors"

	"github.com/vovakirdan/pulsewire-server/internal/core"
	"github.com/vovakirdan/pulsewire-server/internal/proto"
)

// outboundFromEvent maps a core event to its wire envelope. The event set is
// closed; a new kind must be handled here or it surfaces as a server error.
func outboundFromEvent(ev core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventJoin:
		return proto.Outbound{
			Type: proto.OutboundTypeJoin,
			Room: ev.Room,
			Data: proto.JoinData{
				Identity: ev.Identity,
				PresenceEntry: proto.PresenceEntry{
					Meta:  ev.Info.Meta,
					Since: ev.Info.Since.Unix(),
				},
			},
		}
	case core.EventLeave:
		return proto.Outbound{
			Type: proto.OutboundTypeLeave,
			Room: ev.Room,
			Data: proto.LeaveData{Identity: ev.Identity},
		}
	case core.EventSync:
		presence := make(map[string]proto.PresenceEntry, len(ev.Presence))
		for identity, info := range ev.Presence {
			presence[identity] = proto.PresenceEntry{
				Meta:  info.Meta,
				Since: info.Since.Unix(),
			}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeSync,
			Room: ev.Room,
			Data: proto.SyncData{Presence: presence},
		}
	case core.EventBroadcast:
		return proto.Outbound{
			Type: proto.OutboundTypeBroadcast,
			Room: ev.Room,
			Data: proto.BroadcastData{
				Event:   ev.Name,
				Payload: ev.Payload,
				From:    ev.From,
				Seq:     ev.Seq,
			},
		}
	case core.EventError:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Room:  ev.Room,
			Error: &proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message},
		}
	}
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown event kind"},
	}
}

// protoError converts a core error into a wire error envelope.
func protoError(err error) *proto.Error {
	code := core.ErrCodeBadRequest
	switch {
	case errors.Is(err, core.ErrNotReady):
		code = core.ErrCodeNotReady
	case errors.Is(err, core.ErrInvalidState):
		code = core.ErrCodeInvalidState
	case errors.Is(err, core.ErrRoomNotFound):
		code = core.ErrCodeRoomNotFound
	}
	return &proto.Error{Code: code, Msg: err.Error()}
}
