package engine

import "github.com/quadsuit/pokerroom/internal/deck"

// PlayerStatus is a seated player's table status.
type PlayerStatus string

const (
	StatusActive       PlayerStatus = "active"
	StatusSittingOut   PlayerStatus = "sitting-out"
	StatusAway         PlayerStatus = "away"
	StatusDisconnected PlayerStatus = "disconnected"
)

// Player is one occupied seat. Bet is the contribution on the current
// street (compared against the table's current bet); TotalBet is the
// contribution across the whole hand and feeds side-pot construction.
type Player struct {
	UserID      string       `json:"userId"`
	DisplayName string       `json:"displayName"`
	Seat        int          `json:"seat"`
	Chips       int          `json:"chips"`
	Status      PlayerStatus `json:"status"`

	Bet      int  `json:"bet"`
	TotalBet int  `json:"totalBet"`
	HasActed bool `json:"hasActed"`
	AllIn    bool `json:"isAllIn"`
	Folded   bool `json:"isFolded"`

	// DealtIn is set while the player holds cards in the current hand.
	DealtIn bool `json:"-"`

	// PendingStand removes the seat at hand end (stand during a hand).
	PendingStand bool `json:"-"`

	BombPotWhenDealer bool `json:"bombPotWhenDealer"`
	StraddleNextHand  bool `json:"straddleNextHand"`

	holeCards []deck.Card
}

// HoleCards returns the player's hole cards.
func (p *Player) HoleCards() []deck.Card {
	return p.holeCards
}

// canAct reports whether the player can take a betting action.
func (p *Player) canAct() bool {
	return p.DealtIn && !p.Folded && !p.AllIn
}

// inHand reports whether the player still contests the pot.
func (p *Player) inHand() bool {
	return p.DealtIn && !p.Folded
}

// resetForHand clears all per-hand bookkeeping.
func (p *Player) resetForHand() {
	p.Bet = 0
	p.TotalBet = 0
	p.HasActed = false
	p.AllIn = false
	p.Folded = false
	p.DealtIn = false
	p.holeCards = nil
}

// pay moves up to amount chips from the stack to the street bet, marking
// the player all-in when the stack empties. Returns the amount moved.
func (p *Player) pay(amount int) int {
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.Bet += amount
	p.TotalBet += amount
	if p.Chips == 0 && amount > 0 {
		p.AllIn = true
	}
	return amount
}
