package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straddleRules(maxStraddles int) CustomRules {
	return CustomRules{
		StraddleEnabled:          true,
		MultipleStraddlesAllowed: maxStraddles > 1,
		MaxStraddles:             maxStraddles,
	}
}

func TestStraddleChainWithUTGAuto(t *testing.T) {
	t.Parallel()

	// S4: four seats, UTG auto-straddles, UTG+1 declines.
	a := seat("a", 0, 1000) // dealer
	b := seat("b", 1, 1000) // SB
	c := seat("c", 2, 1000) // BB
	d := seat("d", 3, 1000) // UTG
	d.StraddleNextHand = true

	g := newTestGame(t, defaultStakes(), straddleRules(2), []*Player{a, b, c, d})
	require.NoError(t, g.StartHand(0, false))

	require.True(t, g.StraddlePhaseOpen())
	assert.Equal(t, -1, g.CurrentSeat(), "no action while straddles settle")

	// UTG prompt auto-accepts.
	prompt, auto := g.StartStraddlePrompt()
	require.NotNil(t, prompt)
	assert.Equal(t, "d", prompt.PlayerID)
	assert.Equal(t, 20, prompt.Amount)
	assert.True(t, auto)

	placed, err := g.ProcessStraddle("d", true)
	require.NoError(t, err)
	require.NotNil(t, placed)
	assert.Equal(t, 20, placed.Amount)
	assert.Equal(t, 20, g.CurrentBetAmount())

	// UTG+1 (the dealer) is prompted for 40 even with no preference set.
	prompt, auto = g.StartStraddlePrompt()
	require.NotNil(t, prompt)
	assert.Equal(t, "a", prompt.PlayerID)
	assert.Equal(t, 40, prompt.Amount)
	assert.False(t, auto, "only UTG auto-straddles")

	placed, err = g.ProcessStraddle("a", false)
	require.NoError(t, err)
	assert.Nil(t, placed)

	prompt, _ = g.StartStraddlePrompt()
	assert.Nil(t, prompt, "chain over after a decline")

	g.EndStraddlePhase()
	assert.Equal(t, 0, g.CurrentSeat(), "first to act is the seat after the straddler")
	assert.Equal(t, 20, g.CurrentBetAmount())
	require.Len(t, g.Straddles(), 1)
	assert.Equal(t, "d", g.Straddles()[0].PlayerID)
}

func TestStraddleAmountsDouble(t *testing.T) {
	t.Parallel()

	players := []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), seat("c", 2, 1000),
		seat("d", 3, 1000), seat("e", 4, 1000),
	}
	g := newTestGame(t, defaultStakes(), straddleRules(3), players)
	require.NoError(t, g.StartHand(0, false))

	// UTG (seat 3) straddles 20, seat 4 straddles 40.
	prompt, _ := g.StartStraddlePrompt()
	require.Equal(t, 20, prompt.Amount)
	_, err := g.ProcessStraddle(prompt.PlayerID, true)
	require.NoError(t, err)

	prompt, _ = g.StartStraddlePrompt()
	require.NotNil(t, prompt)
	assert.Equal(t, "e", prompt.PlayerID)
	assert.Equal(t, 40, prompt.Amount)
	_, err = g.ProcessStraddle(prompt.PlayerID, true)
	require.NoError(t, err)

	// Third straddle would be the dealer's; 80.
	prompt, _ = g.StartStraddlePrompt()
	require.NotNil(t, prompt)
	assert.Equal(t, "a", prompt.PlayerID)
	assert.Equal(t, 80, prompt.Amount)
	_, err = g.ProcessStraddle(prompt.PlayerID, true)
	require.NoError(t, err)

	// Chain stops before wrapping into the blinds.
	prompt, _ = g.StartStraddlePrompt()
	assert.Nil(t, prompt)

	g.EndStraddlePhase()
	assert.Equal(t, 80, g.CurrentBetAmount())
	assert.Equal(t, 1, g.CurrentSeat(), "action starts after the last straddler")
}

func TestStraddleCapByMaxStraddles(t *testing.T) {
	t.Parallel()

	players := []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), seat("c", 2, 1000),
		seat("d", 3, 1000), seat("e", 4, 1000),
	}
	g := newTestGame(t, defaultStakes(), straddleRules(1), players)
	require.NoError(t, g.StartHand(0, false))

	prompt, _ := g.StartStraddlePrompt()
	require.NotNil(t, prompt)
	_, err := g.ProcessStraddle(prompt.PlayerID, true)
	require.NoError(t, err)

	prompt, _ = g.StartStraddlePrompt()
	assert.Nil(t, prompt, "maxStraddles caps the chain")
}

func TestNoStraddleHeadsUp(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), straddleRules(2), []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000),
	})
	require.NoError(t, g.StartHand(0, false))

	assert.False(t, g.StraddlePhaseOpen(), "straddles need at least 3 players")
	assert.Equal(t, 0, g.CurrentSeat())
}

func TestNoStraddleOnBombPot(t *testing.T) {
	t.Parallel()

	rules := straddleRules(2)
	rules.BombPotEnabled = true
	g := newTestGame(t, defaultStakes(), rules, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), seat("c", 2, 1000),
	})
	require.NoError(t, g.StartHand(100, false))

	assert.False(t, g.StraddlePhaseOpen())
	assert.Equal(t, PhaseFlop, g.Phase())
}

func TestActionsRejectedWhileStraddlePending(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), straddleRules(1), []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), seat("c", 2, 1000), seat("d", 3, 1000),
	})
	require.NoError(t, g.StartHand(0, false))

	var engErr *Error
	_, err := g.ProcessAction("d", Action{Type: ActionFold})
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeInvalidAction, engErr.Code)
}

func TestStraddleWrongPlayerRejected(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), straddleRules(1), []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), seat("c", 2, 1000), seat("d", 3, 1000),
	})
	require.NoError(t, g.StartHand(0, false))

	prompt, _ := g.StartStraddlePrompt()
	require.Equal(t, "d", prompt.PlayerID)

	var engErr *Error
	_, err := g.ProcessStraddle("a", true)
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeStraddleFailed, engErr.Code)
}
