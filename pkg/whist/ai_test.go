package whist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func hand(t *testing.T, cards ...string) []Card {
	t.Helper()
	out := make([]Card, 0, len(cards))
	for _, s := range cards {
		out = append(out, mustCard(t, s))
	}
	return out
}

func TestChooseTrumpStrongestSuit(t *testing.T) {
	// Four low spades (score 4*10+2+3+4+5 = 54) beat a lone ace in any
	// other suit (score 24).
	h := hand(t, "2♠", "3♠", "4♠", "5♠", "A♥", "A♦", "A♣")
	require.Equal(t, Spades, ChooseTrump(h))
}

func TestChooseTrumpPrefersStrengthOverCount(t *testing.T) {
	// Two hearts worth 10+13 + 10+14 = 47 beat two clubs worth 10+2 + 10+3 = 25.
	h := hand(t, "K♥", "A♥", "2♣", "3♣")
	require.Equal(t, Hearts, ChooseTrump(h))
}

func TestChooseTrumpTieBreaksInSuitOrder(t *testing.T) {
	// Identical holdings in hearts and diamonds; hearts precedes diamonds
	// in the iteration order.
	h := hand(t, "5♥", "5♦")
	require.Equal(t, Hearts, ChooseTrump(h))
}

func TestChooseCardLeadsHighNonTrump(t *testing.T) {
	h := hand(t, "2♦", "K♥", "5♣")
	card := ChooseCard(h, NewTrick(), Spades)
	require.Equal(t, mustCard(t, "K♥"), card)
}

func TestChooseCardLeadsLowestWithoutHighCards(t *testing.T) {
	h := hand(t, "9♦", "4♥", "7♣")
	card := ChooseCard(h, NewTrick(), Spades)
	require.Equal(t, mustCard(t, "4♥"), card)
}

func TestChooseCardLeadsLowestTrumpWhenAllTrump(t *testing.T) {
	h := hand(t, "A♠", "9♠", "2♠")
	card := ChooseCard(h, NewTrick(), Spades)
	require.Equal(t, mustCard(t, "2♠"), card)
}

func TestChooseCardFollowsWithLowestWinner(t *testing.T) {
	trick := NewTrick()
	require.NoError(t, trick.AddPlay(NewAIPlayer("p1"), mustCard(t, "9♥")))

	// Holds 10♥, K♥ and off-suit: must follow suit and should win as
	// cheaply as possible.
	h := hand(t, "10♥", "K♥", "A♦")
	card := ChooseCard(h, trick, Spades)
	require.Equal(t, mustCard(t, "10♥"), card)
}

func TestChooseCardDiscardsLowestWhenCannotWin(t *testing.T) {
	trick := NewTrick()
	require.NoError(t, trick.AddPlay(NewAIPlayer("p1"), mustCard(t, "A♥")))

	h := hand(t, "3♥", "J♥")
	card := ChooseCard(h, trick, Spades)
	require.Equal(t, mustCard(t, "3♥"), card)
}

func TestChooseCardTrumpsInWhenVoid(t *testing.T) {
	trick := NewTrick()
	require.NoError(t, trick.AddPlay(NewAIPlayer("p1"), mustCard(t, "A♥")))

	// Void in hearts; the low trump wins over discarding.
	h := hand(t, "2♠", "K♦")
	card := ChooseCard(h, trick, Spades)
	require.Equal(t, mustCard(t, "2♠"), card)
}

func TestChooseCardMustFollowSuitEvenWhenLosing(t *testing.T) {
	trick := NewTrick()
	require.NoError(t, trick.AddPlay(NewAIPlayer("p1"), mustCard(t, "A♥")))

	// Holds a heart, so the trump is not playable.
	h := hand(t, "2♥", "A♠")
	card := ChooseCard(h, trick, Spades)
	require.Equal(t, mustCard(t, "2♥"), card)
}

func TestChooseCardBeatsExistingTrumpWithHigherTrump(t *testing.T) {
	trick := NewTrick()
	require.NoError(t, trick.AddPlay(NewAIPlayer("p1"), mustCard(t, "K♥")))
	require.NoError(t, trick.AddPlay(NewAIPlayer("p2"), mustCard(t, "4♠")))

	// Void in hearts, holding two trumps: win with the cheaper one that
	// still beats the 4♠.
	h := hand(t, "6♠", "Q♠")
	card := ChooseCard(h, trick, Spades)
	require.Equal(t, mustCard(t, "6♠"), card)
}
