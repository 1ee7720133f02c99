package room

import (
	"time"

	"github.com/quadsuit/pokerroom/internal/engine"
	"github.com/quadsuit/pokerroom/internal/protocol"
)

// rebuyDecision is a listed seat's state in the barrier.
type rebuyDecision string

const (
	rebuyPending  rebuyDecision = "pending"
	rebuyAccepted rebuyDecision = "rebuy"
	rebuyDeclined rebuyDecision = "decline"
)

// rebuyState is the open rebuy barrier between hands.
type rebuyState struct {
	decisions map[string]rebuyDecision
	timeoutAt time.Time
}

func (rs *rebuyState) allDecided() bool {
	for _, d := range rs.decisions {
		if d == rebuyPending {
			return false
		}
	}
	return true
}

func (rs *rebuyState) prompt() protocol.RebuyPrompt {
	players := make(map[string]string, len(rs.decisions))
	for id, d := range rs.decisions {
		players[id] = string(d)
	}
	return protocol.RebuyPrompt{Players: players, TimeoutAt: rs.timeoutAt}
}

// openRebuyBarrier lists every busted, still-present seat and opens the
// prompt. Returns false when the rule is off or nobody is listed.
func (r *Room) openRebuyBarrier() bool {
	if !r.game.Rules().WaitForAllRebuys {
		return false
	}

	rs := &rebuyState{
		decisions: make(map[string]rebuyDecision),
		// Wall clock, not the room clock: clients render an absolute deadline.
		timeoutAt: time.Now().Add(rebuyTimeout),
	}
	for _, p := range r.game.Players() {
		if p.Chips == 0 && p.Status != engine.StatusDisconnected && p.Status != engine.StatusSittingOut {
			rs.decisions[p.UserID] = rebuyPending
		}
	}
	if len(rs.decisions) == 0 {
		return false
	}

	r.rebuy = rs
	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomRebuyPrompt, rs.prompt())

	r.rebuyTimer = r.clock.AfterFunc(rebuyTimeout, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.rebuy != rs {
			return
		}
		// Timeout: pending decisions become declines.
		for id, d := range rs.decisions {
			if d != rebuyPending {
				continue
			}
			rs.decisions[id] = rebuyDeclined
			if p := r.game.PlayerByID(id); p != nil {
				p.Status = engine.StatusSittingOut
			}
		}
		r.closeRebuyBarrier()
	})
	return true
}

// closeRebuyBarrier publishes the final prompt state and resumes the
// next-hand schedule.
func (r *Room) closeRebuyBarrier() {
	rs := r.rebuy
	r.rebuy = nil
	if r.rebuyTimer != nil {
		r.rebuyTimer.Stop()
		r.rebuyTimer = nil
	}
	if rs != nil {
		r.pub.Broadcast(r.memberIDs(), protocol.EventRoomRebuyPrompt, nil)
	}
	r.publishState()
	r.scheduleNextHand()
}

// HandleRebuy tops up a busted seat. Inside the barrier it records the
// decision; outside, it's a plain between-hands top-up.
func (r *Room) HandleRebuy(userID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.game.PlayerByID(userID)
	if p == nil {
		return engineErr(engine.CodeNotSeated, "not seated")
	}
	if p.Chips > 0 {
		return engineErr(engine.CodeHasChips, "cannot rebuy with chips behind")
	}
	if r.game.InHand() && p.DealtIn {
		return engineErr(engine.CodeInvalidAction, "cannot rebuy during a hand")
	}

	stakes := r.game.Stakes()
	if amount < stakes.MinBuyIn {
		amount = stakes.MinBuyIn
	}
	if amount > stakes.MaxBuyIn {
		amount = stakes.MaxBuyIn
	}

	p.Chips = amount
	p.Status = engine.StatusActive

	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomPlayerRebuy, protocol.PlayerRebuy{
		UserID: userID,
		Amount: amount,
	})

	if r.rebuy != nil {
		if _, listed := r.rebuy.decisions[userID]; listed {
			r.rebuy.decisions[userID] = rebuyAccepted
			r.pub.Broadcast(r.memberIDs(), protocol.EventRoomRebuyPrompt, r.rebuy.prompt())
			if r.rebuy.allDecided() {
				r.closeRebuyBarrier()
				return nil
			}
		}
	}
	r.publishState()
	return nil
}

// HandleDeclineRebuy records a decline in the open barrier.
func (r *Room) HandleDeclineRebuy(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rebuy == nil {
		return engineErr(engine.CodeNoRebuyPrompt, "no rebuy prompt is open")
	}
	d, listed := r.rebuy.decisions[userID]
	if !listed {
		return engineErr(engine.CodeNotInPrompt, "you are not part of the rebuy prompt")
	}
	if d != rebuyPending {
		return engineErr(engine.CodeInvalidAction, "decision already recorded")
	}

	r.rebuy.decisions[userID] = rebuyDeclined
	if p := r.game.PlayerByID(userID); p != nil {
		p.Status = engine.StatusSittingOut
	}

	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomRebuyPrompt, r.rebuy.prompt())
	if r.rebuy.allDecided() {
		r.closeRebuyBarrier()
	}
	return nil
}

// declineRebuyOnDisconnect auto-declines a listed seat that dropped.
func (r *Room) declineRebuyOnDisconnect(userID string) {
	if r.rebuy == nil {
		return
	}
	if d, listed := r.rebuy.decisions[userID]; !listed || d != rebuyPending {
		return
	}
	r.rebuy.decisions[userID] = rebuyDeclined
	if p := r.game.PlayerByID(userID); p != nil {
		p.Status = engine.StatusSittingOut
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventRoomRebuyPrompt, r.rebuy.prompt())
	if r.rebuy.allDecided() {
		r.closeRebuyBarrier()
	}
}
