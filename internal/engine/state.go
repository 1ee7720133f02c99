package engine

import "github.com/quadsuit/pokerroom/internal/deck"

// PlayerView is a player's seat as seen by a particular viewer. Hole
// cards are present only for the viewer's own seat, or for every live
// seat once a non-fold showdown reveals them.
type PlayerView struct {
	UserID            string       `json:"userId"`
	DisplayName       string       `json:"displayName"`
	Seat              int          `json:"seat"`
	Chips             int          `json:"chips"`
	Status            PlayerStatus `json:"status"`
	Bet               int          `json:"bet"`
	TotalBet          int          `json:"totalBet"`
	HasActed          bool         `json:"hasActed"`
	AllIn             bool         `json:"isAllIn"`
	Folded            bool         `json:"isFolded"`
	BombPotWhenDealer bool         `json:"bombPotWhenDealer"`
	StraddleNextHand  bool         `json:"straddleNextHand"`
	HoleCards         []deck.Card  `json:"holeCards,omitempty"`
}

// GameState is a snapshot of the hand, personalized per viewer.
type GameState struct {
	HandID         string           `json:"handId,omitempty"`
	HandNumber     int              `json:"handNumber"`
	Phase          Phase            `json:"phase"`
	Variant        Variant          `json:"variant"`
	DealerSeat     int              `json:"dealerSeat"`
	CurrentSeat    int              `json:"currentPlayerSeat"`
	Pot            int              `json:"pot"`
	SidePots       []SidePot        `json:"sidePots,omitempty"`
	CurrentBet     int              `json:"currentBet"`
	MinRaise       int              `json:"minRaise"`
	Community      []deck.Card      `json:"communityCards"`
	ExtraBoards    [][]deck.Card    `json:"extraBoards,omitempty"`
	DualBoard      bool             `json:"isDualBoard,omitempty"`
	BombPot        bool             `json:"isBombPot,omitempty"`
	GhostCards     []deck.Card      `json:"ghostCards,omitempty"`
	Players        []PlayerView     `json:"players"`
	Straddles      []Straddle       `json:"straddles,omitempty"`
	StraddleOpen   bool             `json:"straddlePending,omitempty"`
	RunItPrompt    *RunItPrompt     `json:"runItPrompt,omitempty"`
	Winners        []Winner         `json:"winners,omitempty"`
	SevenDeuce     *SevenDeuceBonus `json:"sevenDeuceBonus,omitempty"`
	ValidActions   []ActionType     `json:"validActions,omitempty"`
	SeedCommitment string           `json:"seedCommitment,omitempty"`
	RevealedSeed   string           `json:"revealedSeed,omitempty"`
}

// GetState returns a snapshot with hole cards included for viewerID only,
// plus every non-folded player at a revealed showdown. An empty viewerID
// produces the spectator view.
func (g *Game) GetState(viewerID string) GameState {
	showdownReveal := g.phase == PhaseComplete && !g.wonByFold && g.countInHand() > 1

	players := make([]PlayerView, 0, len(g.players))
	for _, p := range g.players {
		view := PlayerView{
			UserID:            p.UserID,
			DisplayName:       p.DisplayName,
			Seat:              p.Seat,
			Chips:             p.Chips,
			Status:            p.Status,
			Bet:               p.Bet,
			TotalBet:          p.TotalBet,
			HasActed:          p.HasActed,
			AllIn:             p.AllIn,
			Folded:            p.Folded,
			BombPotWhenDealer: p.BombPotWhenDealer,
			StraddleNextHand:  p.StraddleNextHand,
		}
		if len(p.holeCards) > 0 {
			if p.UserID == viewerID || (showdownReveal && p.inHand()) {
				view.HoleCards = append([]deck.Card{}, p.holeCards...)
			}
		}
		players = append(players, view)
	}

	state := GameState{
		HandID:         g.handID,
		HandNumber:     g.handNum,
		Phase:          g.phase,
		Variant:        g.variant,
		DealerSeat:     g.dealerSeat,
		CurrentSeat:    g.currentSeat,
		Pot:            g.PotTotal(),
		SidePots:       g.sidePots,
		CurrentBet:     g.currentBet,
		MinRaise:       g.minRaise,
		Community:      g.community,
		ExtraBoards:    g.extraBoards,
		DualBoard:      g.dualBoard || len(g.extraBoards) > 0,
		BombPot:        g.bombPot,
		GhostCards:     g.ghostCards,
		Players:        players,
		Straddles:      g.straddles,
		StraddleOpen:   g.straddleOpen,
		RunItPrompt:    g.runIt,
		Winners:        g.winners,
		SevenDeuce:     g.sevenDeuce,
		SeedCommitment: g.seedCommitment,
		RevealedSeed:   g.revealedSeed,
	}

	if actor := g.CurrentPlayer(); actor != nil && actor.UserID == viewerID {
		state.ValidActions = g.GetValidActions()
	}
	return state
}
