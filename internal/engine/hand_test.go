package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartHandNeedsTwoPlayers(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{seat("a", 0, 1000)})
	err := g.StartHand(0, false)
	require.Error(t, err)

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeNotEnoughPlayers, engErr.Code)
	assert.Equal(t, PhaseWaiting, g.Phase())
}

func TestStartHandSkipsBustedAndSittingOut(t *testing.T) {
	t.Parallel()

	busted := seat("busted", 2, 0)
	sittingOut := seat("out", 3, 500)
	sittingOut.Status = StatusSittingOut

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), busted, sittingOut,
	})
	require.NoError(t, g.StartHand(0, false))

	assert.True(t, g.PlayerByID("a").DealtIn)
	assert.True(t, g.PlayerByID("b").DealtIn)
	assert.False(t, busted.DealtIn)
	assert.False(t, sittingOut.DealtIn)
	assert.Len(t, g.PlayerByID("a").HoleCards(), 2)
	assert.Empty(t, busted.HoleCards())
}

func TestDealerAdvancesEachHand(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), seat("c", 2, 1000),
	})

	require.NoError(t, g.StartHand(0, false))
	assert.Equal(t, 0, g.DealerSeat())

	// Finish the hand by folding everyone to the big blind.
	for g.Phase().IsBettingPhase() {
		actor := g.CurrentPlayer()
		act(t, g, actor.UserID, ActionFold, 0)
	}
	require.Equal(t, PhaseComplete, g.Phase())

	assert.Equal(t, 1, g.NextDealerSeat())
	require.NoError(t, g.StartHand(0, false))
	assert.Equal(t, 1, g.DealerSeat())
}

func TestHeadsUpPreflopFold(t *testing.T) {
	t.Parallel()

	// S1: dealer posts small blind, acts first preflop, and folds.
	a := seat("a", 0, 1000)
	b := seat("b", 1, 1000)
	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{a, b})

	require.NoError(t, g.StartHand(0, false))
	assert.Equal(t, 0, g.DealerSeat())
	assert.Equal(t, 995, a.Chips) // posted SB 5
	assert.Equal(t, 990, b.Chips) // posted BB 10
	assert.Equal(t, 0, g.CurrentSeat(), "dealer acts first heads-up preflop")

	result := act(t, g, "a", ActionFold, 0)
	assert.True(t, result.HandComplete)

	assert.Equal(t, PhaseComplete, g.Phase())
	assert.Equal(t, 995, a.Chips)
	assert.Equal(t, 1005, b.Chips)
	require.Len(t, g.Winners(), 1)
	assert.Equal(t, "b", g.Winners()[0].PlayerID)
	assert.Equal(t, 15, g.Winners()[0].Amount)
	assert.True(t, g.Winners()[0].WonByFold)
	assert.True(t, g.WonByFold())
}

func TestHeadsUpPostflopOrder(t *testing.T) {
	t.Parallel()

	a := seat("a", 0, 1000)
	b := seat("b", 1, 1000)
	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{a, b},
		WithCardSource(newStackedDeck(t,
			"2c", "3c", "4c", "5c", // hole cards
			"9s", "Ah", "Kh", "Qd", // burn + flop
			"9h", "7s", // burn + turn
			"9d", "8s", // burn + river
		)))

	require.NoError(t, g.StartHand(0, false))

	// Dealer completes, big blind checks.
	act(t, g, "a", ActionCall, 0)
	act(t, g, "b", ActionCheck, 0)

	require.Equal(t, PhaseFlop, g.Phase())
	assert.Equal(t, 1, g.CurrentSeat(), "big blind acts first heads-up postflop")
}

func TestBigBlindGetsOption(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), seat("c", 2, 1000),
	})
	require.NoError(t, g.StartHand(0, false))

	// Dealer 0, SB 1, BB 2; UTG is the dealer with 3 players.
	assert.Equal(t, 0, g.CurrentSeat())

	act(t, g, "a", ActionCall, 0)
	act(t, g, "b", ActionCall, 0)

	// All bets match but the big blind still has the option.
	require.Equal(t, PhasePreflop, g.Phase())
	assert.Equal(t, 2, g.CurrentSeat())

	result := act(t, g, "c", ActionCheck, 0)
	assert.True(t, result.RoundComplete)
	assert.Equal(t, PhaseFlop, g.Phase())
}

func TestChipConservationAcrossStreets(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 500), seat("b", 1, 800), seat("c", 2, 300),
	})
	require.NoError(t, g.StartHand(0, false))
	baseline := totalChips(g)

	act(t, g, "a", ActionRaise, 30)
	assert.Equal(t, baseline, totalChips(g))
	act(t, g, "b", ActionCall, 0)
	assert.Equal(t, baseline, totalChips(g))
	act(t, g, "c", ActionCall, 0)
	assert.Equal(t, baseline, totalChips(g))

	require.Equal(t, PhaseFlop, g.Phase())
	assert.Equal(t, baseline, totalChips(g))
}

func TestPhaseMonotonicity(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000),
	})
	require.NoError(t, g.StartHand(0, false))

	last := g.Phase().Index()
	for g.Phase().IsBettingPhase() {
		actor := g.CurrentPlayer()
		if g.CurrentBetAmount() == actor.Bet {
			act(t, g, actor.UserID, ActionCheck, 0)
		} else {
			act(t, g, actor.UserID, ActionCall, 0)
		}
		require.GreaterOrEqual(t, g.Phase().Index(), last)
		last = g.Phase().Index()
	}
	assert.Equal(t, PhaseComplete, g.Phase())
}

func TestTurnSingleton(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000), seat("c", 2, 1000),
	})
	require.NoError(t, g.StartHand(0, false))

	for g.Phase().IsBettingPhase() {
		actor := g.CurrentPlayer()
		require.NotNil(t, actor)
		require.True(t, actor.canAct())
		require.Greater(t, actor.Chips+actor.Bet, 0)
		if g.CurrentBetAmount() == actor.Bet {
			act(t, g, actor.UserID, ActionCheck, 0)
		} else {
			act(t, g, actor.UserID, ActionCall, 0)
		}
	}
}

func TestSeatManagement(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000),
	})

	// Duplicate seat and duplicate id are rejected.
	err := g.AddPlayer(seat("c", 0, 500))
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeAlreadySeated, engErr.Code)

	require.ErrorAs(t, g.AddPlayer(seat("a", 5, 500)), &engErr)
	assert.Equal(t, CodeAlreadySeated, engErr.Code)

	require.ErrorAs(t, g.AddPlayer(seat("d", 10, 500)), &engErr)
	assert.Equal(t, CodeJoinFailed, engErr.Code)

	// Mid-hand churn is rejected.
	require.NoError(t, g.StartHand(0, false))
	require.Error(t, g.AddPlayer(seat("e", 4, 500)))
	require.Error(t, g.RemovePlayer("a"))
}

func TestRulesAndStakesDeferredDuringHand(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000),
	})
	require.NoError(t, g.StartHand(0, false))

	newRules := DefaultRules()
	newRules.SevenDeuce = true
	g.UpdateRules(newRules)
	newStakes := Stakes{SmallBlind: 10, BigBlind: 20, MinBuyIn: 200, MaxBuyIn: 2000}
	g.UpdateStakes(newStakes)

	assert.False(t, g.Rules().SevenDeuce, "rule change applies next hand")
	assert.Equal(t, 10, g.Stakes().BigBlind)

	act(t, g, g.CurrentPlayer().UserID, ActionFold, 0)
	require.Equal(t, PhaseComplete, g.Phase())

	require.NoError(t, g.StartHand(0, false))
	assert.True(t, g.Rules().SevenDeuce)
	assert.Equal(t, 20, g.Stakes().BigBlind)
}

func TestSwitchVariantDuringHandFails(t *testing.T) {
	t.Parallel()

	g := newTestGame(t, defaultStakes(), CustomRules{}, []*Player{
		seat("a", 0, 1000), seat("b", 1, 1000),
	})
	require.NoError(t, g.StartHand(0, false))

	err := g.SwitchVariant(VariantOmaha)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeSwitchFailed, engErr.Code)

	act(t, g, g.CurrentPlayer().UserID, ActionFold, 0)
	require.NoError(t, g.SwitchVariant(VariantOmaha))
	assert.Equal(t, VariantOmaha, g.Variant())

	assert.Error(t, g.SwitchVariant(VariantBlackjack), "non-playable variant")
}

func TestOmahaDealsFourHoleCards(t *testing.T) {
	t.Parallel()

	g, err := NewGame(VariantOmaha, defaultStakes(), CustomRules{}, 10)
	require.NoError(t, err)
	require.NoError(t, g.AddPlayer(seat("a", 0, 1000)))
	require.NoError(t, g.AddPlayer(seat("b", 1, 1000)))

	require.NoError(t, g.StartHand(0, false))
	assert.Len(t, g.PlayerByID("a").HoleCards(), 4)
	assert.Len(t, g.PlayerByID("b").HoleCards(), 4)
}
