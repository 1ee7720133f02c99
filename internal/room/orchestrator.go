package room

import (
	"errors"
	"time"

	"github.com/coder/quartz"

	"github.com/quadsuit/pokerroom/internal/engine"
	"github.com/quadsuit/pokerroom/internal/protocol"
)

const (
	straddleTimeoutSeconds = 5
	runItTimeoutSeconds    = 5
	rebuyTimeout           = 60 * time.Second
	nextHandBaseDelay      = 5 * time.Second
)

// roomTimer is a cancellable per-second countdown. The generation counter
// keeps a stale callback from an already-replaced countdown from firing.
type roomTimer struct {
	gen       int
	remaining int
	timer     *quartz.Timer
}

// startTimer begins a countdown of seconds, invoking tick each second
// with the time remaining and expire at zero. Callbacks run with the room
// lock held.
func (r *Room) startTimer(t *roomTimer, seconds int, tick func(remaining int), expire func()) {
	r.stopTimer(t)
	t.gen++
	t.remaining = seconds
	r.scheduleTimerStep(t, t.gen, tick, expire)
}

func (r *Room) scheduleTimerStep(t *roomTimer, gen int, tick func(int), expire func()) {
	t.timer = r.clock.AfterFunc(time.Second, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || gen != t.gen {
			return
		}
		t.remaining--
		if t.remaining > 0 {
			tick(t.remaining)
			r.scheduleTimerStep(t, gen, tick, expire)
			return
		}
		expire()
	})
}

// stopTimer cancels the countdown; a cancelled timer never ticks again.
func (r *Room) stopTimer(t *roomTimer) {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// HandleGameStart starts the first hand on the host's request.
func (r *Room) HandleGameStart(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID != r.HostID {
		return engineErr(engine.CodeUnauthorized, "only the host can start the game")
	}
	if r.game.InHand() {
		return engineErr(engine.CodeInvalidAction, "hand already in progress")
	}
	if r.game.CountEligible() < 2 {
		return engineErr(engine.CodeNotEnoughPlayers, "need at least 2 players with chips")
	}
	return r.startHandLocked()
}

// startHandLocked deals the next hand, choosing a bomb pot when the
// incoming dealer has the preference set and the rules allow it.
func (r *Room) startHandLocked() error {
	bombAmount := 0
	dualBoard := false
	rules := r.game.Rules()
	if rules.BombPotEnabled {
		if dealer := r.playerAtSeat(r.game.NextDealerSeat()); dealer != nil && dealer.BombPotWhenDealer {
			bombAmount = rules.BombPotAmount
			if bombAmount <= 0 {
				bombAmount = 10 * r.game.Stakes().BigBlind
			}
			dualBoard = rules.BombPotDoubleBoard
		}
	}

	if err := r.game.StartHand(bombAmount, dualBoard); err != nil {
		r.status = StatusWaiting
		return err
	}
	r.status = StatusPlaying

	r.logger.Info().
		Str("hand_id", r.game.HandID()).
		Int("hand_number", r.game.HandNumber()).
		Bool("bomb_pot", bombAmount > 0).
		Msg("Hand started")

	r.publishState()

	if r.game.StraddlePhaseOpen() {
		r.continueStraddleSequence()
		return nil
	}
	r.startTurnTimer()
	return nil
}

func (r *Room) playerAtSeat(seatNum int) *engine.Player {
	for _, p := range r.game.Players() {
		if p.Seat == seatNum {
			return p
		}
	}
	return nil
}

// HandleGameAction applies a betting action from a client.
func (r *Room) HandleGameAction(userID string, action engine.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.game.ProcessAction(userID, action)
	if err != nil {
		var invariant *engine.InvariantError
		if errors.As(err, &invariant) {
			r.abortHand(invariant)
			return nil
		}
		return err
	}

	r.stopTimer(&r.turnTimer)
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameActionTaken, result)
	r.publishState()
	r.afterAction(result)
	return nil
}

// forceFoldLocked folds a seat out of turn (stand, disconnect).
func (r *Room) forceFoldLocked(userID string) {
	result, err := r.game.ForceFold(userID)
	if err != nil {
		var invariant *engine.InvariantError
		if errors.As(err, &invariant) {
			r.abortHand(invariant)
		}
		return
	}
	if result == nil {
		return
	}
	if actor := r.game.CurrentPlayer(); actor == nil || actor.UserID == userID {
		r.stopTimer(&r.turnTimer)
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameActionTaken, result)
	r.publishState()
	r.afterAction(result)
}

// afterAction schedules whatever the engine's transition calls for next.
func (r *Room) afterAction(result *engine.ActionResult) {
	switch {
	case result.AwaitingRunIt:
		r.openRunItPrompt()
	case result.HandComplete:
		r.handComplete()
	default:
		r.startTurnTimer()
	}
}

// startTurnTimer arms the base countdown for the current actor.
func (r *Room) startTurnTimer() {
	rules := r.game.Rules()
	actor := r.game.CurrentPlayer()
	if actor == nil || !rules.TurnTimeEnabled || rules.TurnTimeSeconds <= 0 {
		r.stopTimer(&r.turnTimer)
		return
	}

	r.turnWarned = false
	actorID := actor.UserID
	r.startTimer(&r.turnTimer, rules.TurnTimeSeconds,
		func(remaining int) {
			r.pub.Broadcast(r.memberIDs(), protocol.EventGameTimer, protocol.TimerPayload{
				TimeRemaining: remaining,
				PlayerID:      actorID,
			})
		},
		func() { r.turnTimerExpired(actorID) },
	)
}

// turnTimerExpired fires the warning extension first, then auto-folds.
func (r *Room) turnTimerExpired(actorID string) {
	actor := r.game.CurrentPlayer()
	if actor == nil || actor.UserID != actorID {
		return
	}
	rules := r.game.Rules()

	if !r.turnWarned && rules.WarningTimeSeconds > 0 {
		r.turnWarned = true
		r.pub.Broadcast(r.memberIDs(), protocol.EventGameTimerWarning, protocol.TimerWarning{
			PlayerID:  actorID,
			ExtraTime: rules.WarningTimeSeconds,
		})
		r.startTimer(&r.turnTimer, rules.WarningTimeSeconds,
			func(remaining int) {
				r.pub.Broadcast(r.memberIDs(), protocol.EventGameTimer, protocol.TimerPayload{
					TimeRemaining: remaining,
					PlayerID:      actorID,
				})
			},
			func() { r.turnTimerExpired(actorID) },
		)
		// Re-arming bumped the generation; keep the warned flag.
		return
	}

	r.autoFold(actorID)
}

// autoFold folds the actor on timeout and sits them out.
func (r *Room) autoFold(actorID string) {
	result, err := r.game.ProcessAction(actorID, engine.Action{Type: engine.ActionFold})
	if err != nil {
		var invariant *engine.InvariantError
		if errors.As(err, &invariant) {
			r.abortHand(invariant)
		}
		return
	}
	if p := r.game.PlayerByID(actorID); p != nil {
		p.Status = engine.StatusSittingOut
	}

	r.logger.Debug().Str("user_id", actorID).Msg("Turn timer expired, auto-folding")
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameActionTaken, result)
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameAutoFold, protocol.AutoFold{PlayerID: actorID})
	r.publishState()
	r.afterAction(result)
}

// continueStraddleSequence walks the straddle chain: auto-accepts resolve
// inline, everything else opens a 5-second prompt.
func (r *Room) continueStraddleSequence() {
	for {
		prompt, auto := r.game.StartStraddlePrompt()
		if prompt == nil {
			r.game.EndStraddlePhase()
			r.publishState()
			r.startTurnTimer()
			return
		}

		if auto {
			placed, err := r.game.ProcessStraddle(prompt.PlayerID, true)
			if err != nil {
				continue
			}
			r.pub.Broadcast(r.memberIDs(), protocol.EventGameStraddlePlaced, protocol.StraddlePlaced{
				PlayerID: placed.PlayerID,
				Amount:   placed.Amount,
				Seat:     placed.Seat,
			})
			r.publishState()
			continue
		}

		playerID := prompt.PlayerID
		seatNum := prompt.Seat
		r.pub.Broadcast(r.memberIDs(), protocol.EventGameStraddlePrompt, protocol.StraddlePrompt{
			PlayerID: prompt.PlayerID,
			Seat:     prompt.Seat,
			Amount:   prompt.Amount,
			Timeout:  straddleTimeoutSeconds,
		})
		r.startTimer(&r.straddleTimer, straddleTimeoutSeconds,
			func(remaining int) {
				r.pub.Broadcast(r.memberIDs(), protocol.EventGameTimer, protocol.TimerPayload{
					TimeRemaining: remaining,
					PlayerID:      playerID,
				})
			},
			func() {
				// Timeout declines and the chain moves on.
				if _, err := r.game.ProcessStraddle(playerID, false); err == nil {
					r.pub.Broadcast(r.memberIDs(), protocol.EventGameStraddleDeclined, protocol.StraddleDeclined{Seat: seatNum})
				}
				r.continueStraddleSequence()
			},
		)
		return
	}
}

// HandleStraddle applies a client's straddle decision.
func (r *Room) HandleStraddle(userID string, accept bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prompt := r.game.PendingStraddle()
	if prompt == nil || prompt.PlayerID != userID {
		return engineErr(engine.CodeStraddleFailed, "no straddle prompt for you")
	}
	r.stopTimer(&r.straddleTimer)

	seatNum := prompt.Seat
	placed, err := r.game.ProcessStraddle(userID, accept)
	if err != nil {
		r.continueStraddleSequence()
		return err
	}
	if placed != nil {
		r.pub.Broadcast(r.memberIDs(), protocol.EventGameStraddlePlaced, protocol.StraddlePlaced{
			PlayerID: placed.PlayerID,
			Amount:   placed.Amount,
			Seat:     placed.Seat,
		})
		r.publishState()
	} else {
		r.pub.Broadcast(r.memberIDs(), protocol.EventGameStraddleDeclined, protocol.StraddleDeclined{Seat: seatNum})
	}
	r.continueStraddleSequence()
	return nil
}

// openRunItPrompt offers the all-in players their run-it choice.
func (r *Room) openRunItPrompt() {
	prompt, err := r.game.StartRunItPrompt()
	if err != nil {
		return
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameRunItPrompt, prompt)
	r.startTimer(&r.runItTimer, runItTimeoutSeconds,
		func(remaining int) {
			r.pub.Broadcast(r.memberIDs(), protocol.EventGameTimer, protocol.TimerPayload{
				TimeRemaining: remaining,
			})
		},
		func() { r.finalizeRunIt() },
	)
}

// HandleRunItSelect records a run-it selection.
func (r *Room) HandleRunItSelect(userID string, choice int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recorded, err := r.game.ProcessRunItChoice(userID, choice)
	if err != nil {
		return err
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameRunItDecision, protocol.RunItDecision{
		PlayerID: userID,
		Choice:   recorded,
	})
	return nil
}

// HandleRunItConfirm locks a selection in and finalizes early when the
// outcome is already decided.
func (r *Room) HandleRunItConfirm(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.game.ConfirmRunItChoice(userID); err != nil {
		return err
	}

	prompt := r.game.RunItPromptState()
	choice := 0
	if c, ok := prompt.Choices[userID]; ok {
		choice = c.Choice
	}
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameRunItDecision, protocol.RunItDecision{
		PlayerID:  userID,
		Choice:    choice,
		Confirmed: true,
	})

	if r.game.AllRunItChoicesConfirmed() || (r.game.AllConfirmedChoicesSame() && r.game.AllRunItChoicesSelected()) {
		r.stopTimer(&r.runItTimer)
		r.finalizeRunIt()
	}
	return nil
}

// finalizeRunIt resolves the prompt and runs the boards.
func (r *Room) finalizeRunIt() {
	final := r.game.GetFinalRunItChoice()

	var err error
	if final > 1 {
		err = r.game.ExecuteRunIt(final)
	} else {
		err = r.game.SkipRunIt()
	}
	if err != nil {
		var invariant *engine.InvariantError
		if errors.As(err, &invariant) {
			r.abortHand(invariant)
		}
		return
	}

	result := protocol.RunItResult{FinalChoice: final}
	result.Boards = append(result.Boards, r.game.Community())
	result.Boards = append(result.Boards, r.game.ExtraBoards()...)
	r.pub.Broadcast(r.memberIDs(), protocol.EventGameRunItResult, result)

	r.publishState()
	r.handComplete()
}

// handComplete publishes the outcome and lines up the next hand.
func (r *Room) handComplete() {
	r.stopTimer(&r.turnTimer)
	r.stopTimer(&r.straddleTimer)
	r.stopTimer(&r.runItTimer)

	r.pub.Broadcast(r.memberIDs(), protocol.EventGameWinner, r.game.Winners())
	if bonus := r.game.SevenDeuceBonusResult(); bonus != nil {
		r.pub.Broadcast(r.memberIDs(), protocol.EventGameSevenDeuceBonus, bonus)
	}
	r.publishState()

	r.applyPendingSeatChanges()

	if r.openRebuyBarrier() {
		return
	}
	r.scheduleNextHand()
}

// scheduleNextHand waits the base delay plus the client animation budget
// for the runout, then re-checks viability and deals.
func (r *Room) scheduleNextHand() {
	delay := nextHandBaseDelay + runoutAnimationDelay(r.game.RunoutFrom())

	if r.nextHandTimer != nil {
		r.nextHandTimer.Stop()
	}
	r.nextHandTimer = r.clock.AfterFunc(delay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || r.game.InHand() {
			return
		}
		if r.rebuy != nil {
			return // barrier reopened; it reschedules on close
		}
		if r.game.CountEligible() < 2 {
			r.status = StatusWaiting
			r.publishState()
			return
		}
		if err := r.startHandLocked(); err != nil {
			r.logger.Warn().Err(err).Msg("Scheduled hand failed to start")
		}
	})
}

// runoutAnimationDelay is the extra client-side dealing time the server
// waits out, keyed by where the runout began.
func runoutAnimationDelay(from engine.Phase) time.Duration {
	switch from {
	case engine.PhasePreflop:
		return 9 * time.Second
	case engine.PhaseFlop:
		return 8500 * time.Millisecond
	case engine.PhaseTurn:
		return 6500 * time.Millisecond
	default:
		return 0
	}
}

// abortHand recovers from an engine invariant violation: refund and
// return to waiting, never continue silently.
func (r *Room) abortHand(cause *engine.InvariantError) {
	r.logger.Error().Str("detail", cause.Detail).Msg("Engine invariant violated, aborting hand")
	r.stopTimer(&r.turnTimer)
	r.stopTimer(&r.straddleTimer)
	r.stopTimer(&r.runItTimer)
	r.game.AbortHand()
	r.status = StatusWaiting
	r.publishState()
}
