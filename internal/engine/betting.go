package engine

// GetValidActions returns the action set for the current actor.
func (g *Game) GetValidActions() []ActionType {
	p := g.CurrentPlayer()
	if p == nil || !g.phase.IsBettingPhase() {
		return nil
	}

	actions := []ActionType{ActionFold}
	toCall := g.currentBet - p.Bet

	if toCall == 0 {
		actions = append(actions, ActionCheck)
	} else {
		actions = append(actions, ActionCall)
	}
	if g.currentBet == 0 && p.Chips >= g.streetMinRaise() {
		actions = append(actions, ActionBet)
	}
	if g.currentBet > 0 && p.Chips > toCall && !p.HasActed {
		actions = append(actions, ActionRaise)
	}
	if p.Chips > 0 {
		actions = append(actions, ActionAllIn)
	}
	return actions
}

// ProcessAction validates and executes a betting action, then advances the
// turn, the street, or the hand. On rejection the state is unchanged.
func (g *Game) ProcessAction(playerID string, action Action) (*ActionResult, error) {
	if !g.phase.IsBettingPhase() {
		return nil, newError(CodeInvalidAction, "no betting in phase %s", g.phase)
	}
	if g.straddleOpen || g.straddlePrompt != nil {
		return nil, newError(CodeInvalidAction, "straddle decisions are still pending")
	}
	if g.awaitingRunIt {
		return nil, newError(CodeInvalidAction, "run-it decisions are still pending")
	}

	p := g.PlayerByID(playerID)
	if p == nil {
		return nil, newError(CodeNotSeated, "player is not seated")
	}
	if p.Folded {
		return nil, newError(CodeInvalidAction, "player has folded")
	}
	if p.Seat != g.currentSeat {
		return nil, newError(CodeInvalidAction, "not your turn")
	}

	toCall := g.currentBet - p.Bet
	paid := 0

	switch action.Type {
	case ActionFold:
		p.Folded = true
		p.HasActed = true

	case ActionCheck:
		if toCall != 0 {
			return nil, newError(CodeInvalidAction, "cannot check facing a bet of %d", toCall)
		}
		p.HasActed = true

	case ActionCall:
		if toCall <= 0 {
			return nil, newError(CodeInvalidAction, "nothing to call")
		}
		paid = p.pay(toCall)
		p.HasActed = true

	case ActionBet:
		if g.currentBet != 0 {
			return nil, newError(CodeInvalidAction, "cannot bet into a live bet; raise instead")
		}
		if action.Amount <= 0 {
			return nil, newError(CodeInvalidAmount, "bet must be positive")
		}
		if action.Amount > p.Chips {
			return nil, newError(CodeInvalidAmount, "bet of %d exceeds stack", action.Amount)
		}
		if action.Amount < g.streetMinRaise() && action.Amount < p.Chips {
			return nil, newError(CodeInvalidAmount, "bet below minimum of %d", g.streetMinRaise())
		}
		paid = p.pay(action.Amount)
		g.applyAggression(p, 0)
		p.HasActed = true

	case ActionRaise:
		if g.currentBet == 0 {
			return nil, newError(CodeInvalidAction, "nothing to raise; bet instead")
		}
		if action.Amount <= g.currentBet {
			return nil, newError(CodeInvalidAmount, "raise must exceed the current bet of %d", g.currentBet)
		}
		if p.HasActed {
			// A short all-in moved the bet without reopening the action.
			return nil, newError(CodeInvalidAction, "action has not been reopened")
		}
		delta := action.Amount - p.Bet
		if delta > p.Chips {
			return nil, newError(CodeInvalidAmount, "raise of %d exceeds stack", action.Amount)
		}
		if action.Amount < g.currentBet+g.minRaise && delta < p.Chips {
			return nil, newError(CodeInvalidAmount, "raise below minimum of %d", g.currentBet+g.minRaise)
		}
		prevBet := g.currentBet
		paid = p.pay(delta)
		g.applyAggression(p, prevBet)
		p.HasActed = true

	case ActionAllIn:
		if p.Chips == 0 {
			return nil, newError(CodeInvalidAction, "no chips to commit")
		}
		prevBet := g.currentBet
		paid = p.pay(p.Chips)
		if p.Bet > prevBet {
			g.applyAggression(p, prevBet)
		}
		p.HasActed = true

	default:
		return nil, newError(CodeInvalidAction, "unknown action %q", action.Type)
	}

	result := &ActionResult{
		PlayerID:   p.UserID,
		Seat:       p.Seat,
		Type:       action.Type,
		AmountPaid: paid,
		Pot:        g.PotTotal(),
	}

	if err := g.advanceAfterAction(result); err != nil {
		return result, err
	}
	return result, nil
}

// applyAggression updates the table bet after a bet, raise, or raising
// all-in. A full raise reopens the action by resetting every other live
// actor's HasActed; a short all-in moves the current bet without reopening.
func (g *Game) applyAggression(p *Player, prevBet int) {
	if p.Bet <= g.currentBet {
		return
	}
	required := prevBet + g.minRaise
	if prevBet == 0 {
		required = g.streetMinRaise()
	}
	if p.Bet >= required {
		g.minRaise = p.Bet - prevBet
		g.currentBet = p.Bet
		for _, other := range g.players {
			if other != p && other.canAct() {
				other.HasActed = false
			}
		}
	} else {
		// Short all-in: callers may call or fold but not re-raise.
		g.currentBet = p.Bet
	}
}

// roundComplete reports whether the betting round is settled: every live
// actor has acted and matched the current bet.
func (g *Game) roundComplete() bool {
	for _, p := range g.players {
		if !p.canAct() {
			continue
		}
		if !p.HasActed || p.Bet != g.currentBet {
			return false
		}
	}
	return true
}

// advanceAfterAction moves the hand forward after a processed action.
func (g *Game) advanceAfterAction(result *ActionResult) error {
	if g.countInHand() == 1 {
		result.HandComplete = true
		result.RoundComplete = true
		return g.resolveFoldOut()
	}

	if !g.roundComplete() {
		g.currentSeat = g.nextActorSeat(g.currentSeat)
		if g.currentSeat == -1 {
			// Should be unreachable: an unsettled round implies an actor.
			return invariantErr("no actor available in unsettled round")
		}
		return nil
	}

	return g.closeRound(result)
}

// closeRound settles a finished betting round: collect bets, then either
// run out, resolve, or deal the next street.
func (g *Game) closeRound(result *ActionResult) error {
	result.RoundComplete = true
	g.collectBets()
	g.currentSeat = -1

	// With more cards to come and at most one live actor, the hand runs
	// out. Two or more all-ins may first be offered the run-it prompt.
	if g.countActors() <= 1 && len(g.community) < 5 {
		if g.runItAvailable() {
			g.awaitingRunIt = true
			result.AwaitingRunIt = true
			return nil
		}
		result.HandComplete = true
		return g.runOutAndResolve()
	}

	if g.phase == PhaseRiver {
		result.HandComplete = true
		return g.resolveShowdown()
	}

	return g.advanceStreet()
}

// ForceFold folds a seat regardless of turn order. Used for stands and
// disconnects mid-hand. A nil result means there was nothing to fold.
func (g *Game) ForceFold(playerID string) (*ActionResult, error) {
	if !g.phase.IsBettingPhase() {
		return nil, nil
	}
	p := g.PlayerByID(playerID)
	if p == nil || !p.DealtIn || p.Folded {
		return nil, nil
	}

	p.Folded = true
	p.HasActed = true
	result := &ActionResult{
		PlayerID: p.UserID,
		Seat:     p.Seat,
		Type:     ActionFold,
		Pot:      g.PotTotal(),
	}

	if p.Seat == g.currentSeat {
		return result, g.advanceAfterAction(result)
	}

	if g.countInHand() == 1 {
		result.HandComplete = true
		result.RoundComplete = true
		return result, g.resolveFoldOut()
	}
	if g.roundComplete() {
		return result, g.closeRound(result)
	}
	return result, nil
}

// advanceStreet deals the next street and sets its first actor.
func (g *Game) advanceStreet() error {
	g.currentBet = 0
	g.minRaise = g.streetMinRaise()
	for _, p := range g.players {
		p.HasActed = false
	}

	g.phase = NextPhase(g.phase)
	n := 1
	if g.phase == PhaseFlop {
		n = 3
	}
	if err := g.dealBoardCards(n); err != nil {
		return err
	}
	if g.dualBoard {
		if err := g.dealExtraBoardCards(0, n); err != nil {
			return err
		}
	}

	g.currentSeat = g.nextActorSeat(g.dealerSeat)
	if g.currentSeat == -1 {
		return invariantErr("no first actor on street %s", g.phase)
	}
	return nil
}

// runOutAndResolve deals every remaining street with no further betting
// and resolves the showdown.
func (g *Game) runOutAndResolve() error {
	g.runoutFrom = g.phase
	for len(g.community) < 5 {
		g.phase = NextPhase(g.phase)
		n := 1
		if g.phase == PhaseFlop {
			n = 3
		}
		if err := g.dealBoardCards(n); err != nil {
			return err
		}
		if g.dualBoard {
			if err := g.dealExtraBoardCards(0, n); err != nil {
				return err
			}
		}
	}
	return g.resolveShowdown()
}
