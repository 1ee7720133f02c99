package server

import (
	"encoding/json"
	"errors"

	"github.com/quadsuit/pokerroom/internal/engine"
	"github.com/quadsuit/pokerroom/internal/protocol"
	"github.com/quadsuit/pokerroom/internal/room"
)

// dispatch routes one client event to its handler. Errors surface to the
// originator only; nothing here crashes a room worker.
func (s *Server) dispatch(c *conn, msg protocol.Message) {
	var err error
	switch msg.Event {
	case protocol.EventRoomJoin:
		err = s.handleRoomJoin(c, msg.Data)
	case protocol.EventRoomLeave:
		err = s.handleRoomLeave(c)
	default:
		err = s.handleRoomScoped(c, msg)
	}

	if err != nil {
		s.sendError(c, err)
	}
}

// handleRoomScoped resolves the caller's current room, then applies the
// event to it.
func (s *Server) handleRoomScoped(c *conn, msg protocol.Message) error {
	r, ok := s.registry.RoomForUser(c.userID)
	if !ok {
		return &engine.Error{Code: engine.CodeNotInRoom, Message: "join a room first"}
	}

	switch msg.Event {
	case protocol.EventRoomSit:
		var req protocol.SitRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleSit(c.userID, req.Seat, req.BuyIn)

	case protocol.EventRoomStand:
		return r.HandleStand(c.userID)

	case protocol.EventRoomSitOut:
		var req protocol.SitOutRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleSitOut(c.userID, req.SittingOut)

	case protocol.EventRoomRebuy:
		var req protocol.RebuyRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleRebuy(c.userID, req.Amount)

	case protocol.EventRoomDeclineRebuy:
		return r.HandleDeclineRebuy(c.userID)

	case protocol.EventRoomChat:
		var req protocol.ChatRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleChat(c.userID, req.Text)

	case protocol.EventRoomUpdateRules:
		var rules engine.CustomRules
		if err := unmarshal(msg.Data, &rules); err != nil {
			return err
		}
		return r.HandleUpdateRules(c.userID, rules)

	case protocol.EventRoomUpdateSettings:
		var req protocol.UpdateSettingsRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleUpdateSettings(c.userID, req)

	case protocol.EventRoomSwitchVariant, protocol.EventGameChooseVariant:
		var req protocol.SwitchVariantRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleSwitchVariant(c.userID, req.Variant)

	case protocol.EventGameStart:
		return r.HandleGameStart(c.userID)

	case protocol.EventGameAction:
		var req protocol.GameActionRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleGameAction(c.userID, engine.Action{Type: req.Type, Amount: req.Amount})

	case protocol.EventGameStraddle:
		var req protocol.StraddleRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleStraddle(c.userID, req.Accept)

	case protocol.EventGameShowHand:
		return r.HandleShowHand(c.userID)

	case protocol.EventGameRunItSelect:
		var req protocol.RunItSelectRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleRunItSelect(c.userID, req.Choice)

	case protocol.EventGameRunItConfirm:
		return r.HandleRunItConfirm(c.userID)

	case protocol.EventPlayerSetBombPotPref:
		var req protocol.PreferenceRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleSetBombPotPreference(c.userID, req.Enabled)

	case protocol.EventPlayerSetStraddlePref:
		var req protocol.PreferenceRequest
		if err := unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return r.HandleSetStraddlePreference(c.userID, req.Enabled)

	default:
		return &engine.Error{Code: engine.CodeInvalidAction, Message: "unknown event " + msg.Event}
	}
}

// handleRoomJoin looks the room up by invite code and subscribes the
// caller.
func (s *Server) handleRoomJoin(c *conn, data json.RawMessage) error {
	var req protocol.JoinRoom
	if err := unmarshal(data, &req); err != nil {
		return err
	}

	r, ok := s.registry.GetByCode(req.Code)
	if !ok {
		return &engine.Error{Code: engine.CodeRoomNotFound, Message: "no room with code " + req.Code}
	}

	// Leaving any previous room first keeps the user in one room at most.
	if prev, ok := s.registry.RoomForUser(c.userID); ok && prev.ID != r.ID {
		prev.Leave(c.userID)
		s.registry.UnbindUser(c.userID)
	}

	if err := r.Join(c.userID, c.username, req.Password); err != nil {
		return err
	}
	s.registry.BindUser(c.userID, r.ID)
	return nil
}

func (s *Server) handleRoomLeave(c *conn) error {
	r, ok := s.registry.RoomForUser(c.userID)
	if !ok {
		return &engine.Error{Code: engine.CodeNotInRoom, Message: "not in a room"}
	}
	r.Leave(c.userID)
	s.registry.UnbindUser(c.userID)
	return nil
}

// sendError maps an error onto the typed error event.
func (s *Server) sendError(c *conn, err error) {
	payload := protocol.ErrorPayload{
		Code:    engine.CodeInvalidAction,
		Message: err.Error(),
	}
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		payload.Code = engErr.Code
		payload.Message = engErr.Message
	}
	if sendErr := c.Send(protocol.EventError, payload); sendErr != nil {
		s.logger.Debug().Err(sendErr).Str("user_id", c.userID).Msg("Failed to deliver error event")
	}
}

// unmarshal decodes an event payload, tolerating a missing body for
// events without parameters.
func unmarshal(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &engine.Error{Code: engine.CodeInvalidAction, Message: "malformed payload: " + err.Error()}
	}
	return nil
}

// roomForUser is a small helper for tests.
func (s *Server) roomForUser(userID string) (*room.Room, bool) {
	return s.registry.RoomForUser(userID)
}
