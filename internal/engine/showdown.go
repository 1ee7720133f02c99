package engine

import (
	"github.com/quadsuit/pokerroom/internal/deck"
	"github.com/quadsuit/pokerroom/internal/evaluator"
)

// Winner is one payout from a resolved hand.
type Winner struct {
	PlayerID   string                `json:"playerId"`
	Amount     int                   `json:"amount"`
	HandResult *evaluator.HandResult `json:"handResult,omitempty"`
	PotType    string                `json:"potType"`
	WonByFold  bool                  `json:"wonByFold,omitempty"`
	BoardIndex *int                  `json:"boardIndex,omitempty"`
}

// SevenDeuceBonus records the side bonus paid to a 7-2 showdown winner.
type SevenDeuceBonus struct {
	WinnerID      string         `json:"winnerId"`
	Total         int            `json:"total"`
	Contributions map[string]int `json:"contributions"`
}

// GhostCards returns the display-only cards dealt after a fold-out.
func (g *Game) GhostCards() []deck.Card { return g.ghostCards }

// Community returns the primary board.
func (g *Game) Community() []deck.Card { return g.community }

// ExtraBoards returns the additional boards of a dual-board or
// run-it-multiple hand.
func (g *Game) ExtraBoards() [][]deck.Card { return g.extraBoards }

// SidePots returns the pots computed at the last resolution.
func (g *Game) SidePots() []SidePot { return g.sidePots }

// resolveFoldOut awards everything to the last player standing.
func (g *Game) resolveFoldOut() error {
	g.collectBets()
	g.currentSeat = -1

	var winner *Player
	for _, p := range g.players {
		if p.inHand() {
			winner = p
			break
		}
	}
	if winner == nil {
		return invariantErr("fold-out with no remaining player")
	}

	pots := buildPots(g.players)
	g.sidePots = pots
	total := potTotal(pots)
	winner.Chips += total
	g.wonByFold = true
	g.winners = []Winner{{
		PlayerID:  winner.UserID,
		Amount:    total,
		PotType:   "main",
		WonByFold: true,
	}}

	if g.rules.RunOutOnFold && len(g.community) < 5 {
		g.runoutFrom = g.phase
		if err := g.dealGhostCards(); err != nil {
			return err
		}
	}

	return g.finishHand()
}

// dealGhostCards deals the cards that would have completed the board.
// They are shown to the room but never scored.
func (g *Game) dealGhostCards() error {
	if err := g.deck.Burn(); err != nil {
		return invariantErr("deck underflow on ghost burn: %v", err)
	}
	cards, err := g.deck.DealN(5 - len(g.community))
	if err != nil {
		return invariantErr("deck underflow on ghost runout: %v", err)
	}
	g.ghostCards = cards
	return nil
}

// resolveShowdown evaluates every live hand against each board and awards
// the pots. Each pot tier is split equally across boards (remainder to
// board 1) and awarded independently per board.
func (g *Game) resolveShowdown() error {
	g.collectBets()
	g.currentSeat = -1

	pots := buildPots(g.players)
	g.sidePots = pots

	boards := g.allBoards()
	numBoards := len(boards)

	// Rank every live player on every board once.
	type ranked struct {
		player  *Player
		results []evaluator.HandResult
	}
	rankings := make(map[string]*ranked)
	for _, p := range g.players {
		if !p.inHand() {
			continue
		}
		r := &ranked{player: p, results: make([]evaluator.HandResult, numBoards)}
		for b, board := range boards {
			res, err := g.strategy.Evaluate(p.holeCards, board)
			if err != nil {
				return invariantErr("hand evaluation failed for %s: %v", p.UserID, err)
			}
			r.results[b] = res
		}
		rankings[p.UserID] = r
	}

	g.winners = nil
	for potIdx, pot := range pots {
		potType := "main"
		if !pot.IsMainPot {
			potType = "side"
		}
		shares := splitAcrossBoards(pot.Amount, numBoards)
		for b := 0; b < numBoards; b++ {
			if shares[b] == 0 {
				continue
			}

			best := 0
			var winnerSeats []int
			for _, id := range pot.Eligible {
				r, ok := rankings[id]
				if !ok {
					continue
				}
				v := r.results[b].Value
				if v > best {
					best = v
					winnerSeats = []int{r.player.Seat}
				} else if v == best {
					winnerSeats = append(winnerSeats, r.player.Seat)
				}
			}
			if len(winnerSeats) == 0 {
				return invariantErr("pot %d has no eligible winner", potIdx)
			}

			payouts := splitEvenly(shares[b], winnerSeats, g.dealerSeat, g.maxSeats)
			for seat, amount := range payouts {
				p := g.playerAtSeat(seat)
				p.Chips += amount
				result := rankings[p.UserID].results[b]
				w := Winner{
					PlayerID:   p.UserID,
					Amount:     amount,
					HandResult: &result,
					PotType:    potType,
				}
				if numBoards > 1 {
					idx := b
					w.BoardIndex = &idx
				}
				g.winners = append(g.winners, w)
			}
		}
	}

	g.applySevenDeuceBonus()
	return g.finishHand()
}

// splitAcrossBoards divides a pot tier equally between boards, adding any
// remainder to board 1.
func splitAcrossBoards(amount, numBoards int) []int {
	shares := make([]int, numBoards)
	base := amount / numBoards
	for i := range shares {
		shares[i] = base
	}
	shares[0] += amount % numBoards
	return shares
}

// allBoards lists the primary board plus any extra boards.
func (g *Game) allBoards() [][]deck.Card {
	boards := [][]deck.Card{g.community}
	boards = append(boards, g.extraBoards...)
	return boards
}

// applySevenDeuceBonus pays the side bonus when a single player scooped a
// single-board showdown holding seven-deuce. Every other seat dealt into
// the hand contributes, busted stacks included, capped at their chips.
func (g *Game) applySevenDeuceBonus() {
	if !g.rules.SevenDeuce || g.rules.SevenDeuceBonus <= 0 || g.wonByFold {
		return
	}
	if len(g.extraBoards) > 0 || g.variant != VariantTexas {
		return
	}

	winnerID := ""
	for _, w := range g.winners {
		if winnerID == "" {
			winnerID = w.PlayerID
		} else if winnerID != w.PlayerID {
			return // split pots, no single winner
		}
	}
	if winnerID == "" {
		return
	}

	winner := g.PlayerByID(winnerID)
	hole := winner.holeCards
	if len(hole) != 2 {
		return
	}
	hasSeven := hole[0].Rank == deck.Seven || hole[1].Rank == deck.Seven
	hasTwo := hole[0].Rank == deck.Two || hole[1].Rank == deck.Two
	if !hasSeven || !hasTwo {
		return
	}

	bonus := &SevenDeuceBonus{
		WinnerID:      winnerID,
		Contributions: make(map[string]int),
	}
	for _, p := range g.players {
		if !p.DealtIn || p.UserID == winnerID {
			continue
		}
		amount := min(g.rules.SevenDeuceBonus, p.Chips)
		if amount <= 0 {
			continue
		}
		p.Chips -= amount
		bonus.Contributions[p.UserID] = amount
		bonus.Total += amount
	}
	winner.Chips += bonus.Total
	g.sevenDeuce = bonus
}

// finishHand closes out the hand: phase, seed reveal, conservation check.
// The pot display zeroes out since every chip has been paid to a winner.
func (g *Game) finishHand() error {
	g.phase = PhaseComplete
	g.pot = 0
	g.revealedSeed = g.deck.RevealSeed()

	total := 0
	for _, p := range g.players {
		if p.DealtIn {
			total += p.Chips
		}
	}
	if total != g.chipBaseline {
		return invariantErr("chip conservation breach: have %d, want %d", total, g.chipBaseline)
	}
	return nil
}
