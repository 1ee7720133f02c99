package engine

import (
	"fmt"

	"github.com/quadsuit/pokerroom/internal/deck"
	"github.com/quadsuit/pokerroom/internal/evaluator"
)

// variantStrategy is the per-variant polymorphism: how many hole cards to
// deal and how to evaluate a player's hand against the board. Street
// structure and first-to-act rules are shared by the hold'em family.
type variantStrategy interface {
	HoleCardCount() int
	Evaluate(hole, board []deck.Card) (evaluator.HandResult, error)
}

func strategyFor(v Variant) (variantStrategy, error) {
	switch v {
	case VariantTexas:
		return texasStrategy{}, nil
	case VariantOmaha:
		return omahaStrategy{}, nil
	default:
		return nil, fmt.Errorf("variant %q is not playable", v)
	}
}

type texasStrategy struct{}

func (texasStrategy) HoleCardCount() int { return 2 }

// Evaluate picks the best five of the two hole cards plus the board.
func (texasStrategy) Evaluate(hole, board []deck.Card) (evaluator.HandResult, error) {
	all := make([]deck.Card, 0, len(hole)+len(board))
	all = append(all, hole...)
	all = append(all, board...)
	return evaluator.Evaluate(all)
}

type omahaStrategy struct{}

func (omahaStrategy) HoleCardCount() int { return 4 }

// Evaluate enforces the two-hole + three-board Omaha constraint.
func (omahaStrategy) Evaluate(hole, board []deck.Card) (evaluator.HandResult, error) {
	return evaluator.EvaluateOmaha(hole, board)
}
