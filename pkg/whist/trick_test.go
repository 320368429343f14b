package whist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustCard(t *testing.T, s string) Card {
	t.Helper()
	card, err := ParseCard(s)
	require.NoError(t, err)
	return card
}

func TestTrickLedSuit(t *testing.T) {
	trick := NewTrick()
	_, ok := trick.LedSuit()
	require.False(t, ok)

	p1 := NewAIPlayer("p1")
	require.NoError(t, trick.AddPlay(p1, mustCard(t, "10♠")))
	led, ok := trick.LedSuit()
	require.True(t, ok)
	require.Equal(t, Spades, led)
}

func TestTrickRejectsSecondPlayBySamePlayer(t *testing.T) {
	trick := NewTrick()
	p1 := NewAIPlayer("p1")
	require.NoError(t, trick.AddPlay(p1, mustCard(t, "10♠")))
	require.Error(t, trick.AddPlay(p1, mustCard(t, "J♠")))
	require.Equal(t, 1, trick.Size())
}

func TestTrickIsComplete(t *testing.T) {
	trick := NewTrick()
	p1, p2 := NewAIPlayer("p1"), NewAIPlayer("p2")
	require.False(t, trick.IsComplete(2))
	require.NoError(t, trick.AddPlay(p1, mustCard(t, "2♥")))
	require.False(t, trick.IsComplete(2))
	require.NoError(t, trick.AddPlay(p2, mustCard(t, "3♥")))
	require.True(t, trick.IsComplete(2))
}

func TestDetermineWinnerHighestOfLedSuit(t *testing.T) {
	trick := NewTrick()
	p1, p2, p3 := NewAIPlayer("p1"), NewAIPlayer("p2"), NewAIPlayer("p3")
	require.NoError(t, trick.AddPlay(p1, mustCard(t, "10♥")))
	require.NoError(t, trick.AddPlay(p2, mustCard(t, "K♥")))
	require.NoError(t, trick.AddPlay(p3, mustCard(t, "A♦"))) // off-suit ace is worthless
	require.Same(t, p2, trick.DetermineWinner(Clubs))
}

func TestDetermineWinnerTrumpBeatsLedSuit(t *testing.T) {
	// Trump ♠: a low trump beats the led-suit ace.
	trick := NewTrick()
	p1, p2, p3 := NewAIPlayer("p1"), NewAIPlayer("p2"), NewAIPlayer("p3")
	require.NoError(t, trick.AddPlay(p1, mustCard(t, "K♥")))
	require.NoError(t, trick.AddPlay(p2, mustCard(t, "2♠")))
	require.NoError(t, trick.AddPlay(p3, mustCard(t, "A♥")))
	require.Same(t, p2, trick.DetermineWinner(Spades))
}

func TestDetermineWinnerDuplicateCardEarliestWins(t *testing.T) {
	// With a multi-deck shoe both players can hold the same card; the
	// earlier play must take the trick.
	trick := NewTrick()
	p1, p2 := NewAIPlayer("p1"), NewAIPlayer("p2")
	require.NoError(t, trick.AddPlay(p1, mustCard(t, "A♥")))
	require.NoError(t, trick.AddPlay(p2, mustCard(t, "A♥")))
	require.Same(t, p1, trick.DetermineWinner(Clubs))
}

func TestDetermineWinnerEmptyTrick(t *testing.T) {
	require.Nil(t, NewTrick().DetermineWinner(Spades))
}

func TestWinningCardPartialTrick(t *testing.T) {
	trick := NewTrick()
	p1, p2 := NewAIPlayer("p1"), NewAIPlayer("p2")

	_, ok := trick.WinningCard(Spades)
	require.False(t, ok)

	require.NoError(t, trick.AddPlay(p1, mustCard(t, "Q♦")))
	winning, ok := trick.WinningCard(Spades)
	require.True(t, ok)
	require.Equal(t, mustCard(t, "Q♦"), winning)

	require.NoError(t, trick.AddPlay(p2, mustCard(t, "3♠")))
	winning, ok = trick.WinningCard(Spades)
	require.True(t, ok)
	require.Equal(t, mustCard(t, "3♠"), winning)
}
