package engine

import "github.com/quadsuit/pokerroom/internal/deck"

// RunItChoice is one eligible player's decision state.
type RunItChoice struct {
	Choice    int  `json:"choice"` // 0 until selected
	Confirmed bool `json:"confirmed"`
}

// RunItPrompt tracks the decision of every all-in player on how many
// boards to run.
type RunItPrompt struct {
	Eligible []string                `json:"eligiblePlayerIds"`
	Choices  map[string]*RunItChoice `json:"choices"`
}

func (rp *RunItPrompt) choice(playerID string) (*RunItChoice, bool) {
	c, ok := rp.Choices[playerID]
	return c, ok
}

// RunItPromptState returns the open run-it prompt, if any.
func (g *Game) RunItPromptState() *RunItPrompt { return g.runIt }

// AwaitingRunIt reports whether the engine paused the runout for run-it
// decisions.
func (g *Game) AwaitingRunIt() bool { return g.awaitingRunIt }

// RunItChoiceFinal returns the choice the last hand actually ran, 0 when
// the hand ran a single board without a prompt.
func (g *Game) RunItChoiceFinal() int { return g.runItChoice }

// runItAvailable reports whether the paused runout qualifies for the
// prompt: the rules allow more than one board, at least two all-in
// players remain, and the hand isn't already running two boards.
func (g *Game) runItAvailable() bool {
	return g.rules.maxRunItBoards() > 1 && g.countAllIn() >= 2 && !g.dualBoard
}

// ShouldPromptRunIt reports whether the orchestrator should open the
// run-it prompt now.
func (g *Game) ShouldPromptRunIt() bool {
	return g.awaitingRunIt && g.runIt == nil
}

// StartRunItPrompt opens the prompt with every all-in, non-folded seat
// eligible.
func (g *Game) StartRunItPrompt() (*RunItPrompt, error) {
	if !g.awaitingRunIt {
		return nil, newError(CodeInvalidAction, "no run-it decision is pending")
	}
	if g.runIt != nil {
		return g.runIt, nil
	}

	prompt := &RunItPrompt{Choices: make(map[string]*RunItChoice)}
	for _, p := range g.players {
		if p.inHand() && p.AllIn {
			prompt.Eligible = append(prompt.Eligible, p.UserID)
			prompt.Choices[p.UserID] = &RunItChoice{}
		}
	}
	g.runIt = prompt
	return prompt, nil
}

// ProcessRunItChoice records a player's selection. Choices above the
// strongest enabled option are silently downgraded. Returns the recorded
// (possibly downgraded) choice.
func (g *Game) ProcessRunItChoice(playerID string, choice int) (int, error) {
	if g.runIt == nil {
		return 0, newError(CodeInvalidChoice, "no run-it prompt is open")
	}
	c, ok := g.runIt.choice(playerID)
	if !ok {
		return 0, newError(CodeNotInPrompt, "player is not part of the run-it prompt")
	}
	if c.Confirmed {
		return 0, newError(CodeInvalidChoice, "choice already confirmed")
	}
	if choice < 1 || choice > 3 {
		return 0, newError(CodeInvalidChoice, "choice must be 1, 2 or 3")
	}
	c.Choice = g.rules.clampRunItChoice(choice)
	return c.Choice, nil
}

// ConfirmRunItChoice locks in a player's selection.
func (g *Game) ConfirmRunItChoice(playerID string) error {
	if g.runIt == nil {
		return newError(CodeCannotConfirm, "no run-it prompt is open")
	}
	c, ok := g.runIt.choice(playerID)
	if !ok {
		return newError(CodeNotInPrompt, "player is not part of the run-it prompt")
	}
	if c.Choice == 0 {
		return newError(CodeCannotConfirm, "select a choice before confirming")
	}
	c.Confirmed = true
	return nil
}

// AllRunItChoicesSelected reports whether every eligible player has made
// a selection, confirmed or not.
func (g *Game) AllRunItChoicesSelected() bool {
	if g.runIt == nil {
		return false
	}
	for _, c := range g.runIt.Choices {
		if c.Choice == 0 {
			return false
		}
	}
	return true
}

// AllRunItChoicesConfirmed reports whether every eligible player confirmed.
func (g *Game) AllRunItChoicesConfirmed() bool {
	if g.runIt == nil {
		return false
	}
	for _, c := range g.runIt.Choices {
		if !c.Confirmed {
			return false
		}
	}
	return true
}

// AllConfirmedChoicesSame reports whether at least one player confirmed
// and all confirmed players chose the same value.
func (g *Game) AllConfirmedChoicesSame() bool {
	if g.runIt == nil {
		return false
	}
	value := 0
	for _, c := range g.runIt.Choices {
		if !c.Confirmed {
			continue
		}
		if value == 0 {
			value = c.Choice
		} else if c.Choice != value {
			return false
		}
	}
	return value != 0
}

// GetFinalRunItChoice resolves the number of boards: the minimum over all
// eligible players, with anyone who never selected defaulting to 1.
func (g *Game) GetFinalRunItChoice() int {
	if g.runIt == nil {
		return 1
	}
	final := 0
	for _, c := range g.runIt.Choices {
		choice := c.Choice
		if choice == 0 {
			choice = 1
		}
		if final == 0 || choice < final {
			final = choice
		}
	}
	if final == 0 {
		final = 1
	}
	return g.rules.clampRunItChoice(final)
}

// ExecuteRunIt deals choice boards and resolves each independently.
func (g *Game) ExecuteRunIt(choice int) error {
	if !g.awaitingRunIt {
		return newError(CodeInvalidAction, "no run-it execution is pending")
	}
	choice = g.rules.clampRunItChoice(choice)
	if choice <= 1 {
		return g.SkipRunIt()
	}

	g.awaitingRunIt = false
	g.runItChoice = choice
	g.runoutFrom = g.phase

	remaining := 5 - len(g.community)
	boards, err := g.deck.DealRunOut(remaining, choice)
	if err != nil {
		return invariantErr("deck underflow during run-it: %v", err)
	}

	prefix := append([]deck.Card{}, g.community...)
	g.community = append(g.community, boards[0]...)
	for i := 1; i < choice; i++ {
		full := append(append([]deck.Card{}, prefix...), boards[i]...)
		g.extraBoards = append(g.extraBoards, full)
	}

	g.phase = PhaseRiver
	return g.resolveShowdown()
}

// SkipRunIt runs a single board out and resolves normally.
func (g *Game) SkipRunIt() error {
	if !g.awaitingRunIt {
		return newError(CodeInvalidAction, "no run-it execution is pending")
	}
	g.awaitingRunIt = false
	g.runItChoice = 1
	g.runIt = nil
	return g.runOutAndResolve()
}
