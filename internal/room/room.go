// Package room implements poker rooms and their orchestration: the room
// registry, per-room serialized event handling, turn/straddle/run-it
// timers, the rebuy barrier and next-hand scheduling. All state of a room
// is owned by its actor; every entry point takes the room lock, so engine
// calls are never concurrent.
package room

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/quadsuit/pokerroom/internal/engine"
	"github.com/quadsuit/pokerroom/internal/fanout"
	"github.com/quadsuit/pokerroom/internal/protocol"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusClosed  Status = "closed"
)

// pendingSeat is a sit request queued while a hand is running.
type pendingSeat struct {
	userID      string
	displayName string
	seat        int
	buyIn       int
}

// Room is one poker room: engine plus orchestration state.
type Room struct {
	ID         string
	Code       string
	Name       string
	Private    bool
	HostID     string
	MaxPlayers int

	mu       sync.Mutex
	game     *engine.Game
	status   Status
	password string
	members  map[string]string // userID -> display name
	pending  []pendingSeat
	closed   bool

	clock  quartz.Clock
	pub    *fanout.Publisher
	logger zerolog.Logger

	turnTimer     roomTimer
	turnWarned    bool
	straddleTimer roomTimer
	runItTimer    roomTimer
	rebuyTimer    *quartz.Timer
	nextHandTimer *quartz.Timer

	rebuy *rebuyState

	// onClose releases the room's code in the registry.
	onClose func(*Room)
}

// Lock serializes an external multi-step operation on the room.
func (r *Room) Lock() { r.mu.Lock() }

// Unlock releases the room lock.
func (r *Room) Unlock() { r.mu.Unlock() }

// Game exposes the engine for tests and diagnostics; callers must hold
// the room lock.
func (r *Room) Game() *engine.Game { return r.game }

// RoomStatus returns the lifecycle state.
func (r *Room) RoomStatus() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// memberIDs returns every subscriber of the room topic.
func (r *Room) memberIDs() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Info returns the public shape of the room.
func (r *Room) Info() protocol.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoLocked()
}

func (r *Room) infoLocked() protocol.RoomInfo {
	return protocol.RoomInfo{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Variant:     r.game.Variant(),
		Stakes:      r.game.Stakes(),
		MaxPlayers:  r.MaxPlayers,
		Private:     r.Private,
		HostID:      r.HostID,
		Status:      string(r.status),
		CustomRules: r.game.Rules(),
		PlayerCount: len(r.game.Players()),
	}
}

// Join subscribes a user to the room. Private rooms require the password.
func (r *Room) Join(userID, username, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return engineErr(engine.CodeRoomNotFound, "room is closed")
	}
	if r.Private && r.password != "" && password != r.password {
		return engineErr(engine.CodeJoinFailed, "wrong password")
	}

	r.members[userID] = username

	// A seated player coming back from a dropped transport re-activates.
	if p := r.game.PlayerByID(userID); p != nil && p.Status == engine.StatusDisconnected {
		p.Status = engine.StatusActive
	}

	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomPlayerJoined, protocol.PlayerJoined{
		UserID:   userID,
		Username: username,
	})
	r.pub.Send(userID, protocol.EventRoomJoined, protocol.RoomJoined{
		Room:     r.infoLocked(),
		UserID:   userID,
		Username: username,
	})
	r.publishState()
	return nil
}

// Leave unsubscribes the user, standing them up first if seated. The last
// member leaving closes the room.
func (r *Room) Leave(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[userID]; !ok {
		return
	}
	r.standLocked(userID)
	delete(r.members, userID)

	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomPlayerLeft, protocol.PlayerLeft{UserID: userID})

	if len(r.members) == 0 {
		r.closeLocked()
		return
	}
	r.publishState()
}

// HandleSit seats a member. During a hand the request is queued and
// applied when the hand completes.
func (r *Room) HandleSit(userID string, seatNum, buyIn int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.members[userID]
	if !ok {
		return engineErr(engine.CodeNotInRoom, "join the room before sitting")
	}
	if r.game.PlayerByID(userID) != nil {
		return engineErr(engine.CodeAlreadySeated, "already seated")
	}
	if seatNum < 0 || seatNum >= r.MaxPlayers {
		return engineErr(engine.CodeJoinFailed, "seat %d out of range", seatNum)
	}
	stakes := r.game.Stakes()
	if buyIn < stakes.MinBuyIn || buyIn > stakes.MaxBuyIn {
		return engineErr(engine.CodeInvalidAmount, "buy-in must be between %d and %d", stakes.MinBuyIn, stakes.MaxBuyIn)
	}

	if r.game.InHand() {
		for _, p := range r.pending {
			if p.seat == seatNum || p.userID == userID {
				return engineErr(engine.CodeAlreadySeated, "seat %d is taken", seatNum)
			}
		}
		if r.seatOccupied(seatNum) {
			return engineErr(engine.CodeAlreadySeated, "seat %d is occupied", seatNum)
		}
		r.pending = append(r.pending, pendingSeat{userID: userID, displayName: name, seat: seatNum, buyIn: buyIn})
		return nil
	}

	if err := r.game.AddPlayer(&engine.Player{
		UserID:      userID,
		DisplayName: name,
		Seat:        seatNum,
		Chips:       buyIn,
		Status:      engine.StatusActive,
	}); err != nil {
		return err
	}

	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomPlayerJoined, protocol.PlayerJoined{
		UserID:   userID,
		Username: name,
		Seat:     seatNum,
	})
	r.publishState()
	return nil
}

func (r *Room) seatOccupied(seatNum int) bool {
	for _, p := range r.game.Players() {
		if p.Seat == seatNum {
			return true
		}
	}
	return false
}

// HandleStand removes the user's seat, immediately between hands or at
// hand end when they are dealt in (their hand folds right away).
func (r *Room) HandleStand(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.PlayerByID(userID) == nil && !r.dropPendingSeat(userID) {
		return engineErr(engine.CodeNotSeated, "not seated")
	}
	r.standLocked(userID)
	r.publishState()
	return nil
}

func (r *Room) dropPendingSeat(userID string) bool {
	for i, p := range r.pending {
		if p.userID == userID {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return true
		}
	}
	return false
}

// standLocked performs the stand. Mid-hand the seat is marked for removal
// and force-folded; between hands it is removed immediately.
func (r *Room) standLocked(userID string) {
	r.dropPendingSeat(userID)
	p := r.game.PlayerByID(userID)
	if p == nil {
		return
	}

	if r.game.InHand() && p.DealtIn {
		p.PendingStand = true
		r.forceFoldLocked(userID)
		return
	}
	if err := r.game.RemovePlayer(userID); err != nil {
		r.logger.Warn().Err(err).Str("user_id", userID).Msg("Stand failed")
	}
}

// HandleSitOut toggles sitting-out for the next hand.
func (r *Room) HandleSitOut(userID string, sittingOut bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.game.PlayerByID(userID)
	if p == nil {
		return engineErr(engine.CodeNotSeated, "not seated")
	}
	if sittingOut {
		p.Status = engine.StatusSittingOut
	} else {
		p.Status = engine.StatusActive
	}
	r.publishState()
	return nil
}

// HandleChat relays a chat line to the room.
func (r *Room) HandleChat(userID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.members[userID]
	if !ok {
		return engineErr(engine.CodeNotInRoom, "join the room first")
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomChatMessage, protocol.ChatMessage{
		UserID:   userID,
		Username: name,
		Text:     text,
		SentAt:   time.Now().UnixMilli(),
	})
	return nil
}

// HandleUpdateRules applies a host rule change; during a hand it takes
// effect at the next deal.
func (r *Room) HandleUpdateRules(userID string, rules engine.CustomRules) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != r.HostID {
		return engineErr(engine.CodeUnauthorized, "only the host can change rules")
	}
	r.game.UpdateRules(rules)
	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomRulesUpdated, rules)
	return nil
}

// HandleUpdateSettings applies host stake/table changes.
func (r *Room) HandleUpdateSettings(userID string, req protocol.UpdateSettingsRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != r.HostID {
		return engineErr(engine.CodeUnauthorized, "only the host can change settings")
	}
	if req.Stakes != nil {
		if req.Stakes.MinBuyIn > req.Stakes.MaxBuyIn {
			return engineErr(engine.CodeInvalidAmount, "minBuyIn exceeds maxBuyIn")
		}
		r.game.UpdateStakes(*req.Stakes)
	}
	if req.MaxPlayers != nil && *req.MaxPlayers >= 2 && *req.MaxPlayers <= 10 {
		r.MaxPlayers = *req.MaxPlayers
	}
	if req.CustomRules != nil {
		r.game.UpdateRules(*req.CustomRules)
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomSettingsUpdated, protocol.SettingsUpdated{Room: r.infoLocked()})
	return nil
}

// HandleSwitchVariant switches the game variant between hands.
func (r *Room) HandleSwitchVariant(userID string, variant engine.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != r.HostID {
		return engineErr(engine.CodeUnauthorized, "only the host can switch variants")
	}
	if err := r.game.SwitchVariant(variant); err != nil {
		return err
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameVariantChanged, protocol.VariantChanged{Variant: variant})
	r.publishState()
	return nil
}

// HandleShowHand reveals the caller's hole cards after the hand ends.
func (r *Room) HandleShowHand(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Phase() != engine.PhaseComplete {
		return engineErr(engine.CodeInvalidAction, "hand is still running")
	}
	p := r.game.PlayerByID(userID)
	if p == nil {
		return engineErr(engine.CodeNotSeated, "not seated")
	}
	cards := p.HoleCards()
	if len(cards) == 0 {
		return engineErr(engine.CodeNoCards, "no cards to show")
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameHandShown, protocol.HandShown{
		PlayerID: userID,
		Cards:    cards,
	})
	return nil
}

// HandleSetBombPotPreference toggles the seat's bomb-pot-when-dealer flag.
// The flag persists across hands until the owner toggles it again.
func (r *Room) HandleSetBombPotPreference(userID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.game.PlayerByID(userID)
	if p == nil {
		return engineErr(engine.CodeNotSeated, "not seated")
	}
	p.BombPotWhenDealer = enabled
	r.publishState()
	return nil
}

// HandleSetStraddlePreference toggles the seat's auto-straddle flag.
func (r *Room) HandleSetStraddlePreference(userID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.game.PlayerByID(userID)
	if p == nil {
		return engineErr(engine.CodeNotSeated, "not seated")
	}
	p.StraddleNextHand = enabled
	r.publishState()
	return nil
}

// HandleDisconnect marks a seated user disconnected, folds their live
// hand and auto-declines a pending rebuy decision.
func (r *Room) HandleDisconnect(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	p := r.game.PlayerByID(userID)
	if p != nil {
		p.Status = engine.StatusDisconnected
		if r.game.InHand() && p.DealtIn && !p.Folded {
			r.forceFoldLocked(userID)
		}
	}
	r.declineRebuyOnDisconnect(userID)
	r.publishState()
}

// applyPendingSeatChanges runs queued sits and stands between hands.
func (r *Room) applyPendingSeatChanges() {
	for _, p := range r.game.Players() {
		if p.PendingStand {
			userID := p.UserID
			if err := r.game.RemovePlayer(userID); err != nil {
				r.logger.Warn().Err(err).Str("user_id", userID).Msg("Deferred stand failed")
			}
		}
	}
	for _, ps := range r.pending {
		if _, stillMember := r.members[ps.userID]; !stillMember {
			continue
		}
		if err := r.game.AddPlayer(&engine.Player{
			UserID:      ps.userID,
			DisplayName: ps.displayName,
			Seat:        ps.seat,
			Chips:       ps.buyIn,
			Status:      engine.StatusActive,
		}); err != nil {
			r.logger.Warn().Err(err).Str("user_id", ps.userID).Msg("Deferred sit failed")
			continue
		}
		r.pub.Broadcast(r.memberIDs(), protocol.EventRoomPlayerJoined, protocol.PlayerJoined{
			UserID:   ps.userID,
			Username: ps.displayName,
			Seat:     ps.seat,
		})
	}
	r.pending = nil
}

// publishState fans out the personalized game state to every member.
func (r *Room) publishState() {
	ids := r.memberIDs()
	r.pub.Personalized(ids, protocol.EventGameState, func(userID string) any {
		if r.game.PlayerByID(userID) != nil {
			return r.game.GetState(userID)
		}
		return r.game.GetState("")
	})
}

// closeLocked tears the room down: every timer is cancelled so nothing
// fires on a closed room, and the registry releases the code.
func (r *Room) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	r.status = StatusClosed
	r.stopTimer(&r.turnTimer)
	r.stopTimer(&r.straddleTimer)
	r.stopTimer(&r.runItTimer)
	if r.rebuyTimer != nil {
		r.rebuyTimer.Stop()
		r.rebuyTimer = nil
	}
	if r.nextHandTimer != nil {
		r.nextHandTimer.Stop()
		r.nextHandTimer = nil
	}
	r.logger.Info().Str("room_id", r.ID).Msg("Room closed")
	if r.onClose != nil {
		r.onClose(r)
	}
}

// Close shuts the room down (host action or registry cleanup).
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

// engineErr builds a typed engine error for orchestration-level
// validation failures so the server maps them uniformly.
func engineErr(code engine.ErrorCode, format string, args ...any) error {
	return &engine.Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
