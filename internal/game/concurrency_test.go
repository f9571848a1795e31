package game_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"title-party/internal/game"
)

func TestParallelSubmitsForOnePlayerStoreOneTitle(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	tb.startPlaying()
	player := tb.seats[0].Player.ID
	hand := tb.hand(player)
	params := game.SubmitParams{
		RoomID:    tb.room.ID,
		PlayerID:  player,
		Round:     1,
		Card1ID:   hand[0].ID,
		Card2ID:   hand[1].ID,
		FreeWord:  "と",
		WordOrder: game.WordOrder{1, 3, 2},
	}

	const attempts = 20
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.engine.Submit(h.ctx, params)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, game.ErrValidation) || errors.Is(err, game.ErrConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	snap := tb.snapshot(player)
	assert.Len(t, snap.Submissions, 1)
	assert.Len(t, snap.Viewer.Hand, 6)
	assert.Equal(t, game.StatusPlaying, snap.Room.Status)
}

func TestParallelVoteFlipsKeepCountersConsistent(t *testing.T) {
	tb, ids, subs := votingTable(t)
	voter := ids[0]
	targets := []string{subs[ids[1]].ID, subs[ids[2]].ID}

	const attempts = 40
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := tb.engine.CastVote(tb.ctx, tb.room.ID, 1, voter, targets[i%2])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	snap := tb.snapshot("")
	require.Len(t, snap.Votes, 1)
	assert.Equal(t, voter, snap.Votes[0].VoterID)

	received := 0
	for _, sub := range snap.Submissions {
		received += sub.VotesReceived
	}
	totals := 0
	for _, player := range snap.Players {
		totals += player.TotalVotes
	}
	assert.Equal(t, 1, received)
	assert.Equal(t, 1, totals)
	assert.Equal(t, game.StatusVoting, snap.Room.Status)
}
