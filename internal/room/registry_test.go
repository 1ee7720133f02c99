package room

import (
	"strings"
	"testing"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadsuit/pokerroom/internal/engine"
	"github.com/quadsuit/pokerroom/internal/fanout"
	"github.com/quadsuit/pokerroom/internal/session"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := session.NewDirectory(zerolog.Nop())
	pub := fanout.NewPublisher(dir, zerolog.Nop())
	return NewRegistry(quartz.NewReal(), pub, zerolog.Nop())
}

func testCreateOptions(host string) CreateOptions {
	return CreateOptions{
		Name:       "test table",
		Variant:    engine.VariantTexas,
		Stakes:     engine.Stakes{SmallBlind: 5, BigBlind: 10, MinBuyIn: 100, MaxBuyIn: 1000},
		MaxPlayers: 6,
		HostID:     host,
	}
}

func TestCreateAllocatesUniqueCodes(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		r, err := reg.Create(testCreateOptions("host"))
		require.NoError(t, err)

		require.Len(t, r.Code, 6)
		for _, c := range r.Code {
			assert.Contains(t, codeAlphabet, string(c), "code %s uses a bad symbol", r.Code)
		}
		assert.False(t, seen[r.Code], "duplicate code %s", r.Code)
		seen[r.Code] = true
	}
}

func TestCodeAlphabetExcludesConfusables(t *testing.T) {
	t.Parallel()

	assert.Len(t, codeAlphabet, 32)
	assert.NotContains(t, codeAlphabet, "I")
	assert.NotContains(t, codeAlphabet, "O")
	assert.NotContains(t, codeAlphabet, "0")
	assert.NotContains(t, codeAlphabet, "1")
}

func TestGetByCodeCaseInsensitive(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	r, err := reg.Create(testCreateOptions("host"))
	require.NoError(t, err)

	got, ok := reg.GetByCode(strings.ToLower(r.Code))
	require.True(t, ok)
	assert.Equal(t, r.ID, got.ID)

	_, ok = reg.GetByCode("ZZZZZZ")
	assert.False(t, ok)
}

func TestCloseReleasesCode(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	r, err := reg.Create(testCreateOptions("host"))
	require.NoError(t, err)
	code := r.Code

	reg.Close(r.ID)

	_, ok := reg.Get(r.ID)
	assert.False(t, ok)
	_, ok = reg.GetByCode(code)
	assert.False(t, ok)
	assert.Equal(t, StatusClosed, r.RoomStatus())
}

func TestListPublicSkipsPrivateRooms(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	_, err := reg.Create(testCreateOptions("host"))
	require.NoError(t, err)

	private := testCreateOptions("host")
	private.Private = true
	private.Password = "secret"
	_, err = reg.Create(private)
	require.NoError(t, err)

	public := reg.ListPublic()
	require.Len(t, public, 1)
	assert.False(t, public[0].Private)
}

func TestUserRoomBinding(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	r, err := reg.Create(testCreateOptions("host"))
	require.NoError(t, err)

	reg.BindUser("u1", r.ID)
	got, ok := reg.RoomForUser("u1")
	require.True(t, ok)
	assert.Equal(t, r.ID, got.ID)

	// Closing the room drops the binding too.
	reg.Close(r.ID)
	_, ok = reg.RoomForUser("u1")
	assert.False(t, ok)
}

func TestPrivateRoomPassword(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	opts := testCreateOptions("host")
	opts.Private = true
	opts.Password = "hunter2"
	r, err := reg.Create(opts)
	require.NoError(t, err)

	err = r.Join("u1", "alice", "wrong")
	require.Error(t, err)

	require.NoError(t, r.Join("u1", "alice", "hunter2"))
}
