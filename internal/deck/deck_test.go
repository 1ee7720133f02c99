package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroReader always yields zero bytes, forcing every rejection-sampled
// index to 0. It makes the shuffle a known permutation.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestDeckSizeInvariant(t *testing.T) {
	t.Parallel()

	d := New()
	require.Equal(t, 52, d.Remaining())

	_, err := d.DealN(2)
	require.NoError(t, err)
	require.NoError(t, d.Burn())
	_, err = d.DealN(3)
	require.NoError(t, err)

	total := d.Remaining() + d.DealtCount() + d.BurnedCount()
	assert.Equal(t, 52, total)
}

func TestDeckContainsAllCards(t *testing.T) {
	t.Parallel()

	d := New()
	seen := make(map[string]bool)
	for d.Remaining() > 0 {
		c, err := d.Deal()
		require.NoError(t, err)
		require.False(t, seen[c.Code()], "duplicate card %s", c.Code())
		seen[c.Code()] = true
	}
	assert.Len(t, seen, 52)
}

func TestDealEmptyDeck(t *testing.T) {
	t.Parallel()

	d := New()
	_, err := d.DealN(52)
	require.NoError(t, err)

	_, err = d.Deal()
	assert.ErrorIs(t, err, ErrEmpty)
	assert.ErrorIs(t, d.Burn(), ErrEmpty)
}

func TestMultiDeckReset(t *testing.T) {
	t.Parallel()

	d := New()
	d.Reset(2)
	assert.Equal(t, 104, d.Remaining())
}

func TestSeedCommitmentMatchesReveal(t *testing.T) {
	t.Parallel()

	d := New()
	commitment := d.SeedCommitment()

	seed, err := hex.DecodeString(d.RevealSeed())
	require.NoError(t, err)
	require.Len(t, seed, 32)

	sum := sha256.Sum256(seed)
	assert.Equal(t, hex.EncodeToString(sum[:]), commitment)
}

func TestHandIDFormat(t *testing.T) {
	t.Parallel()

	d := New()
	require.Len(t, d.HandID(), 16)
	_, err := hex.DecodeString(d.HandID())
	assert.NoError(t, err)
}

func TestResetRotatesHandID(t *testing.T) {
	t.Parallel()

	d := New()
	first := d.HandID()
	firstSeed := d.RevealSeed()
	d.Reset(1)
	assert.NotEqual(t, first, d.HandID())
	assert.NotEqual(t, firstSeed, d.RevealSeed())
}

func TestPeekNextIsNonDestructive(t *testing.T) {
	t.Parallel()

	d := New()
	peeked := d.PeekNext(3)
	require.Len(t, peeked, 3)
	assert.Equal(t, 52, d.Remaining())

	dealt, err := d.DealN(3)
	require.NoError(t, err)
	assert.Equal(t, peeked, dealt)
}

func TestDealRunOut(t *testing.T) {
	t.Parallel()

	d := New()
	boards, err := d.DealRunOut(5, 2)
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Len(t, boards[0], 5)
	assert.Len(t, boards[1], 5)
	assert.Equal(t, 2, d.BurnedCount())
	assert.Equal(t, 52, d.Remaining()+d.DealtCount()+d.BurnedCount())
}

// referenceShuffle mirrors the deck's shuffle with every random index
// forced to zero: 7 passes of swap(i, 0) then a cut at n/10.
func referenceShuffle(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	for pass := 0; pass < 7; pass++ {
		for i := len(out) - 1; i > 0; i-- {
			out[i], out[0] = out[0], out[i]
		}
	}
	pos := len(out) / 10
	cut := make([]Card, 0, len(out))
	cut = append(cut, out[pos:]...)
	cut = append(cut, out[:pos]...)
	return cut
}

func TestShuffleIsInvertible(t *testing.T) {
	t.Parallel()

	ordered := make([]Card, 0, 52)
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			ordered = append(ordered, NewCard(rank, suit))
		}
	}

	d := NewWithSource(zeroReader{})
	got, err := d.DealN(52)
	require.NoError(t, err)

	expected := referenceShuffle(ordered)
	require.Equal(t, expected, got)

	// Invert the permutation and recover the original order.
	perm := make(map[string]int, 52)
	for i, c := range expected {
		perm[c.Code()] = i
	}
	inverse := make([]Card, 52)
	for i, c := range ordered {
		inverse[i] = got[perm[c.Code()]]
	}
	assert.Equal(t, ordered, inverse)
}

func TestRandIntBounds(t *testing.T) {
	t.Parallel()

	d := New()
	for n := 1; n <= 52; n++ {
		for i := 0; i < 50; i++ {
			v := d.randInt(n)
			require.GreaterOrEqual(t, v, 0)
			require.Less(t, v, n)
		}
	}
}
