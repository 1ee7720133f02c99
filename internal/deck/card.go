package deck

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// Letter returns the suit's single-letter code used in card codes
func (s Suit) Letter() string {
	switch s {
	case Clubs:
		return "c"
	case Diamonds:
		return "d"
	case Hearts:
		return "h"
	case Spades:
		return "s"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Two:
		return "2"
	case Three:
		return "3"
	case Four:
		return "4"
	case Five:
		return "5"
	case Six:
		return "6"
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Nine:
		return "9"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// Code returns the canonical two-character code (e.g. "As", "Th").
// Codes are the equality key used on the wire.
func (c Card) Code() string {
	return c.Rank.String() + c.Suit.Letter()
}

// String returns the display representation of a card (e.g. "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// Value returns the numeric value of the card for comparison.
// Aces are always 14; wheel straights are ranked by the evaluator.
func (c Card) Value() int {
	return int(c.Rank)
}

// ParseCard parses a two-character card code back into a Card.
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return Card{}, fmt.Errorf("invalid card code %q", code)
	}

	var rank Rank
	switch code[0] {
	case '2', '3', '4', '5', '6', '7', '8', '9':
		rank = Rank(code[0] - '0')
	case 'T':
		rank = Ten
	case 'J':
		rank = Jack
	case 'Q':
		rank = Queen
	case 'K':
		rank = King
	case 'A':
		rank = Ace
	default:
		return Card{}, fmt.Errorf("invalid rank in card code %q", code)
	}

	var suit Suit
	switch code[1] {
	case 'c':
		suit = Clubs
	case 'd':
		suit = Diamonds
	case 'h':
		suit = Hearts
	case 's':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit in card code %q", code)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

type cardJSON struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
	Code string `json:"code"`
}

// MarshalJSON encodes the card as {rank, suit, code}.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(cardJSON{
		Rank: c.Rank.String(),
		Suit: c.Suit.String(),
		Code: c.Code(),
	})
}

// UnmarshalJSON decodes a card from its canonical code.
func (c *Card) UnmarshalJSON(data []byte) error {
	var cj cardJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	parsed, err := ParseCard(cj.Code)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
