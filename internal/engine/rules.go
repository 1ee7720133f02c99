package engine

// Variant identifies a game variant. Only the hold'em family is playable;
// the remaining variants exist in the type surface for room configuration.
type Variant string

const (
	VariantTexas         Variant = "texas-holdem"
	VariantOmaha         Variant = "omaha"
	VariantBlackjack     Variant = "blackjack"
	VariantFiveCardDraw  Variant = "five-card-draw"
	VariantSevenCardStud Variant = "seven-card-stud"
)

// Playable reports whether the engine implements the variant.
func (v Variant) Playable() bool {
	return v == VariantTexas || v == VariantOmaha
}

// Stakes configures the forced bets and buy-in bounds for a room. All
// amounts are chips. Either blind may be 0 (disabled).
type Stakes struct {
	SmallBlind int `json:"smallBlind"`
	BigBlind   int `json:"bigBlind"`
	Ante       int `json:"ante,omitempty"`
	MinBuyIn   int `json:"minBuyIn"`
	MaxBuyIn   int `json:"maxBuyIn"`
}

// CustomRules are the per-room options the engine and orchestrator consult.
type CustomRules struct {
	RunItTwice  bool `json:"runItTwice"`
	RunItThrice bool `json:"runItThrice"`

	// RunOutOnFold deals ghost cards to completion when a hand ends by fold.
	RunOutOnFold bool `json:"runOutOnFold"`

	BombPotEnabled     bool `json:"bombPotEnabled"`
	BombPotAmount      int  `json:"bombPotAmount"`
	BombPotDoubleBoard bool `json:"bombPotDoubleBoard"`

	StraddleEnabled          bool `json:"straddleEnabled"`
	MultipleStraddlesAllowed bool `json:"multipleStraddlesAllowed"`
	MaxStraddles             int  `json:"maxStraddles"`

	TurnTimeEnabled    bool `json:"turnTimeEnabled"`
	TurnTimeSeconds    int  `json:"turnTimeSeconds"`
	WarningTimeSeconds int  `json:"warningTimeSeconds"`

	SevenDeuce      bool `json:"sevenDeuce"`
	SevenDeuceBonus int  `json:"sevenDeuceBonus"`

	WaitForAllRebuys bool `json:"waitForAllRebuys"`
}

// DefaultRules returns the rule set used when a room doesn't override any.
func DefaultRules() CustomRules {
	return CustomRules{
		TurnTimeEnabled:    true,
		TurnTimeSeconds:    30,
		WarningTimeSeconds: 15,
		MaxStraddles:       1,
	}
}

// maxRunItBoards returns the strongest run-it option the rules allow.
func (r CustomRules) maxRunItBoards() int {
	switch {
	case r.RunItThrice:
		return 3
	case r.RunItTwice:
		return 2
	default:
		return 1
	}
}

// clampRunItChoice downgrades a run-it choice to the strongest enabled
// option, else 1.
func (r CustomRules) clampRunItChoice(choice int) int {
	if choice < 1 {
		return 1
	}
	if max := r.maxRunItBoards(); choice > max {
		return max
	}
	return choice
}
