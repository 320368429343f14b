package whist

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Suit represents a card suit
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Diamonds Suit = "♦"
	Clubs    Suit = "♣"
)

// Suits lists the four suits. The order doubles as the tie-break order for
// AI trump selection.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// ValidSuit reports whether s is one of the four suits.
func ValidSuit(s Suit) bool {
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// Rank represents a card rank. Jack through Ace map to 11..14 so that a
// plain numeric comparison orders cards correctly.
type Rank int

const (
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// String returns the rank letter for court cards and the number otherwise.
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	return strconv.Itoa(int(r))
}

// Card represents a playing card
type Card struct {
	suit Suit
	rank Rank
}

// NewCard creates a card from a suit and rank.
func NewCard(suit Suit, rank Rank) Card {
	return Card{suit: suit, rank: rank}
}

// Suit returns the card's suit.
func (c Card) Suit() Suit { return c.suit }

// Rank returns the card's rank.
func (c Card) Rank() Rank { return c.rank }

// String returns the wire representation of the card, e.g. "10♠" or "A♥".
func (c Card) String() string {
	return c.rank.String() + string(c.suit)
}

// ParseCard parses the wire form produced by String: a rank (2-10, J, Q, K
// or A) followed by a suit glyph. Anything else is rejected.
func ParseCard(s string) (Card, error) {
	runes := []rune(s)
	if len(runes) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	suit := Suit(runes[len(runes)-1])
	if !ValidSuit(suit) {
		return Card{}, fmt.Errorf("invalid card %q: bad suit", s)
	}

	var rank Rank
	switch rankStr := string(runes[:len(runes)-1]); rankStr {
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		n, err := strconv.Atoi(rankStr)
		if err != nil || n < 2 || n > 10 {
			return Card{}, fmt.Errorf("invalid card %q: bad rank", s)
		}
		rank = Rank(n)
	}

	return Card{suit: suit, rank: rank}, nil
}

// MarshalJSON implements json.Marshaler. Cards travel as plain strings on
// the wire; two identical cards from different decks are indistinguishable
// once serialized.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Card) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	card, err := ParseCard(s)
	if err != nil {
		return err
	}
	*c = card
	return nil
}
