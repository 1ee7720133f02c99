package engine

// Straddle is a posted straddle in the preflop chain.
type Straddle struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
	Seat     int    `json:"seat"`
}

// StraddlePrompt is the pending offer to the next eligible seat.
type StraddlePrompt struct {
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
	Amount   int    `json:"amount"`
	Index    int    `json:"index"`
}

// Straddles returns the accepted straddle chain for the current hand.
func (g *Game) Straddles() []Straddle { return g.straddles }

// PendingStraddle returns the open straddle prompt, if any.
func (g *Game) PendingStraddle() *StraddlePrompt { return g.straddlePrompt }

// StraddlePhaseOpen reports whether the straddle chain is still settling.
func (g *Game) StraddlePhaseOpen() bool { return g.straddleOpen }

// straddleEligible reports whether this hand offers straddles at all:
// preflop, not a bomb pot, enabled, and at least 3 dealt-in players.
func (g *Game) straddleEligible() bool {
	return g.rules.StraddleEnabled && !g.bombPot && g.countDealtIn() >= 3 && g.stakes.BigBlind > 0
}

// maxStraddleCount is the chain cap from the rules.
func (g *Game) maxStraddleCount() int {
	if !g.rules.MultipleStraddlesAllowed {
		return 1
	}
	if g.rules.MaxStraddles > 0 {
		return g.rules.MaxStraddles
	}
	return 1
}

// StartStraddlePrompt returns the next prompt in the chain, with auto set
// when the seat auto-accepts: only the UTG seat with straddleNextHand set
// skips its prompt; every later seat is always asked. The chain runs from
// UTG through the dealer and stops before wrapping into the blinds. A nil
// prompt means the chain is finished and EndStraddlePhase must be called.
func (g *Game) StartStraddlePrompt() (*StraddlePrompt, bool) {
	if !g.straddleOpen {
		return nil, false
	}
	if g.straddleIndex >= g.maxStraddleCount() || g.straddleSeat == -1 || g.straddleSeat == g.sbSeat {
		g.straddleOpen = false
		g.straddlePrompt = nil
		return nil, false
	}

	p := g.playerAtSeat(g.straddleSeat)
	if p == nil || !p.canAct() {
		g.straddleOpen = false
		g.straddlePrompt = nil
		return nil, false
	}

	amount := g.stakes.BigBlind << uint(g.straddleIndex+1)
	g.straddlePrompt = &StraddlePrompt{
		PlayerID: p.UserID,
		Seat:     p.Seat,
		Amount:   amount,
		Index:    g.straddleIndex,
	}
	auto := g.straddleIndex == 0 && p.StraddleNextHand
	return g.straddlePrompt, auto
}

// ProcessStraddle resolves the pending prompt. Accepting posts the
// straddle and moves the chain to the next seat; declining ends it.
func (g *Game) ProcessStraddle(playerID string, accepted bool) (*Straddle, error) {
	prompt := g.straddlePrompt
	if prompt == nil {
		return nil, newError(CodeStraddleFailed, "no straddle prompt is open")
	}
	if prompt.PlayerID != playerID {
		return nil, newError(CodeStraddleFailed, "straddle prompt belongs to another player")
	}

	g.straddlePrompt = nil

	if !accepted {
		g.straddleOpen = false
		return nil, nil
	}

	p := g.PlayerByID(playerID)
	if p.Chips < prompt.Amount {
		g.straddleOpen = false
		return nil, newError(CodeStraddleFailed, "insufficient chips to straddle %d", prompt.Amount)
	}

	prevBet := g.currentBet
	p.pay(prompt.Amount)
	g.currentBet = prompt.Amount
	g.minRaise = prompt.Amount - prevBet

	straddle := Straddle{PlayerID: p.UserID, Amount: prompt.Amount, Seat: p.Seat}
	g.straddles = append(g.straddles, straddle)

	g.straddleIndex++
	g.straddleSeat = g.nextActorSeat(p.Seat)
	if g.straddleIndex >= g.maxStraddleCount() || g.straddleSeat == -1 || g.straddleSeat == g.sbSeat {
		g.straddleOpen = false
	}
	return &straddle, nil
}

// EndStraddlePhase finalizes preflop order once the chain has settled:
// first to act is the next live seat after the last straddler, or the
// normal preflop opener when nobody straddled.
func (g *Game) EndStraddlePhase() {
	g.straddleOpen = false
	g.straddlePrompt = nil

	if len(g.straddles) == 0 {
		g.setPreflopFirstToAct()
		return
	}
	last := g.straddles[len(g.straddles)-1]
	g.currentSeat = g.nextActorSeat(last.Seat)
	if g.currentSeat == -1 {
		g.currentSeat = g.nextActorSeat(g.dealerSeat)
	}
}
