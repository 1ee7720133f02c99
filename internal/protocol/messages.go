// Package protocol defines the websocket event names and payload shapes
// exchanged with clients. Every frame is a JSON envelope of {event, data}.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/quadsuit/pokerroom/internal/deck"
	"github.com/quadsuit/pokerroom/internal/engine"
)

// Client -> server events.
const (
	EventRoomJoin           = "room:join"
	EventRoomLeave          = "room:leave"
	EventRoomSit            = "room:sit"
	EventRoomStand          = "room:stand"
	EventRoomSitOut         = "room:sit-out"
	EventRoomRebuy          = "room:rebuy"
	EventRoomDeclineRebuy   = "room:decline-rebuy"
	EventRoomChat           = "room:chat"
	EventRoomUpdateRules    = "room:update-rules"
	EventRoomUpdateSettings = "room:update-settings"
	EventRoomSwitchVariant  = "room:switch-variant"

	EventGameStart         = "game:start"
	EventGameAction        = "game:action"
	EventGameStraddle      = "game:straddle"
	EventGameShowHand      = "game:show-hand"
	EventGameRunItSelect   = "game:run-it-select"
	EventGameRunItConfirm  = "game:run-it-confirm"
	EventGameChooseVariant = "game:choose-variant"

	EventPlayerSetBombPotPref  = "player:set-bomb-pot-preference"
	EventPlayerSetStraddlePref = "player:set-straddle-preference"
)

// Server -> client events.
const (
	EventRoomJoined          = "room:joined"
	EventRoomPlayerJoined    = "room:player-joined"
	EventRoomPlayerLeft      = "room:player-left"
	EventRoomPlayerRebuy     = "room:player-rebuy"
	EventRoomRebuyPrompt     = "room:rebuy-prompt"
	EventRoomSettingsUpdated = "room:settings-updated"
	EventRoomRulesUpdated    = "room:rules-updated"
	EventRoomChatMessage     = "room:chat"

	EventGameState            = "game:state"
	EventGameActionTaken      = "game:action"
	EventGameWinner           = "game:winner"
	EventGameTimer            = "game:timer"
	EventGameTimerWarning     = "game:timer-warning"
	EventGameAutoFold         = "game:auto-fold"
	EventGameHandShown        = "game:hand-shown"
	EventGameSevenDeuceBonus  = "game:seven-deuce-bonus"
	EventGameRunItPrompt      = "game:run-it-prompt"
	EventGameRunItDecision    = "game:run-it-decision"
	EventGameRunItResult      = "game:run-it-result"
	EventGameStraddlePlaced   = "game:straddle-placed"
	EventGameStraddleDeclined = "game:straddle-declined"
	EventGameStraddlePrompt   = "game:straddle-prompt"
	EventGameVariantChanged   = "game:variant-changed"

	EventError = "error"
)

// Message is the wire envelope for both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals a payload into an envelope.
func NewMessage(event string, payload any) (Message, error) {
	if payload == nil {
		return Message{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Event: event, Data: data}, nil
}

// Client payloads.

type JoinRoom struct {
	Code     string `json:"code"`
	Password string `json:"password,omitempty"`
}

type SitRequest struct {
	Seat  int `json:"seat"`
	BuyIn int `json:"buyIn"`
}

type SitOutRequest struct {
	SittingOut bool `json:"sittingOut"`
}

type RebuyRequest struct {
	Amount int `json:"amount"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

type UpdateSettingsRequest struct {
	Stakes      *engine.Stakes      `json:"stakes,omitempty"`
	MaxPlayers  *int                `json:"maxPlayers,omitempty"`
	CustomRules *engine.CustomRules `json:"customRules,omitempty"`
}

type SwitchVariantRequest struct {
	Variant engine.Variant `json:"variant"`
}

type GameActionRequest struct {
	Type      engine.ActionType `json:"type"`
	Amount    int               `json:"amount,omitempty"`
	Timestamp int64             `json:"timestamp,omitempty"`
}

type StraddleRequest struct {
	Accept bool `json:"accept"`
}

type RunItSelectRequest struct {
	Choice int `json:"choice"`
}

type PreferenceRequest struct {
	Enabled bool `json:"enabled"`
}

// Server payloads.

type ErrorPayload struct {
	Code    engine.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

type RoomJoined struct {
	Room     RoomInfo `json:"room"`
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
}

// RoomInfo is the public shape of a room.
type RoomInfo struct {
	ID          string             `json:"id"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Variant     engine.Variant     `json:"variant"`
	Stakes      engine.Stakes      `json:"stakes"`
	MaxPlayers  int                `json:"maxPlayers"`
	Private     bool               `json:"private"`
	HostID      string             `json:"hostId"`
	Status      string             `json:"status"`
	CustomRules engine.CustomRules `json:"customRules"`
	PlayerCount int                `json:"playerCount"`
}

type PlayerJoined struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Seat     int    `json:"seat,omitempty"`
}

type PlayerLeft struct {
	UserID string `json:"userId"`
}

type PlayerRebuy struct {
	UserID string `json:"id"`
	Amount int    `json:"amount"`
}

// RebuyPrompt lists busted seats and their decisions. Decisions are
// "pending", "rebuy" or "decline".
type RebuyPrompt struct {
	Players   map[string]string `json:"players"`
	TimeoutAt time.Time         `json:"timeoutAt"`
}

type SettingsUpdated struct {
	Room RoomInfo `json:"room"`
}

type ChatMessage struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Text     string `json:"text"`
	SentAt   int64  `json:"sentAt"`
}

type TimerPayload struct {
	TimeRemaining int    `json:"timeRemaining"`
	PlayerID      string `json:"playerId"`
}

type TimerWarning struct {
	PlayerID  string `json:"playerId"`
	ExtraTime int    `json:"extraTime"`
}

type AutoFold struct {
	PlayerID string `json:"playerId"`
}

type HandShown struct {
	PlayerID string      `json:"playerId"`
	Cards    []deck.Card `json:"cards"`
}

type StraddlePlaced struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
	Seat     int    `json:"seat"`
}

type StraddleDeclined struct {
	Seat int `json:"seat"`
}

type StraddlePrompt struct {
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	Amount   int    `json:"amount"`
	Timeout  int    `json:"timeoutSeconds"`
}

type RunItDecision struct {
	PlayerID  string `json:"playerId"`
	Choice    int    `json:"choice"`
	Confirmed bool   `json:"confirmed"`
}

type RunItResult struct {
	Boards      [][]deck.Card `json:"boards"`
	FinalChoice int           `json:"finalChoice"`
}

type VariantChanged struct {
	Variant engine.Variant `json:"variant"`
}
