package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quadsuit/pokerroom/internal/deck"
)

// stackedDeck deals a fixed card sequence so tests control every deal.
type stackedDeck struct {
	cards []deck.Card
	pos   int
}

func newStackedDeck(t *testing.T, codes ...string) *stackedDeck {
	t.Helper()
	cards := make([]deck.Card, len(codes))
	for i, code := range codes {
		c, err := deck.ParseCard(code)
		require.NoError(t, err)
		cards[i] = c
	}
	return &stackedDeck{cards: cards}
}

func (s *stackedDeck) Reset(int) { s.pos = 0 }

func (s *stackedDeck) Deal() (deck.Card, error) {
	if s.pos >= len(s.cards) {
		return deck.Card{}, deck.ErrEmpty
	}
	c := s.cards[s.pos]
	s.pos++
	return c, nil
}

func (s *stackedDeck) DealN(n int) ([]deck.Card, error) {
	out := make([]deck.Card, 0, n)
	for i := 0; i < n; i++ {
		c, err := s.Deal()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *stackedDeck) Burn() error {
	_, err := s.Deal()
	return err
}

func (s *stackedDeck) DealRunOut(cardsPerBoard, numBoards int) ([][]deck.Card, error) {
	boards := make([][]deck.Card, 0, numBoards)
	for b := 0; b < numBoards; b++ {
		if err := s.Burn(); err != nil {
			return nil, err
		}
		cards, err := s.DealN(cardsPerBoard)
		if err != nil {
			return nil, err
		}
		boards = append(boards, cards)
	}
	return boards, nil
}

func (s *stackedDeck) Remaining() int         { return len(s.cards) - s.pos }
func (s *stackedDeck) HandID() string         { return "00000000deadbeef" }
func (s *stackedDeck) SeedCommitment() string { return "test-commitment" }
func (s *stackedDeck) RevealSeed() string     { return "test-seed" }

// seat builds an active player for tests.
func seat(id string, seatNum, chips int) *Player {
	return &Player{
		UserID:      id,
		DisplayName: id,
		Seat:        seatNum,
		Chips:       chips,
		Status:      StatusActive,
	}
}

func defaultStakes() Stakes {
	return Stakes{SmallBlind: 5, BigBlind: 10, MinBuyIn: 100, MaxBuyIn: 1000}
}

// newTestGame seats the players on a fresh Texas game.
func newTestGame(t *testing.T, stakes Stakes, rules CustomRules, players []*Player, opts ...Option) *Game {
	t.Helper()
	g, err := NewGame(VariantTexas, stakes, rules, 10, opts...)
	require.NoError(t, err)
	for _, p := range players {
		require.NoError(t, g.AddPlayer(p))
	}
	return g
}

// act processes an action and fails the test on rejection.
func act(t *testing.T, g *Game, playerID string, actionType ActionType, amount int) *ActionResult {
	t.Helper()
	result, err := g.ProcessAction(playerID, Action{Type: actionType, Amount: amount})
	require.NoError(t, err, "action %s by %s", actionType, playerID)
	return result
}

// totalChips sums stacks plus everything committed to the current hand.
func totalChips(g *Game) int {
	total := g.pot
	for _, p := range g.Players() {
		total += p.Chips + p.Bet
	}
	return total
}
