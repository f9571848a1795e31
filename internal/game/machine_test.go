package game_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"title-party/internal/game"
)

func TestFullRoundReachesResults(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	room := tb.startPlaying()
	require.Equal(t, game.StatusPlaying, room.Status)
	require.NotNil(t, room.RoundEndTime)
	assert.Equal(t, h.clock.Now().Add(3*time.Minute), *room.RoundEndTime)

	subs := tb.submitAll()
	snap := tb.snapshot("")
	require.Equal(t, game.StatusVoting, snap.Room.Status)
	assert.Equal(t, 0, snap.Room.CurrentViewingIndex)
	assert.False(t, snap.Room.ShowAllSubmissions)

	ids := []string{tb.seats[0].Player.ID, tb.seats[1].Player.ID, tb.seats[2].Player.ID}
	for i, voter := range ids {
		target := subs[ids[(i+1)%3]]
		outcome, err := h.engine.CastVote(h.ctx, tb.room.ID, 1, voter, target.ID)
		require.NoError(t, err)
		assert.True(t, outcome.Changed)
		assert.Equal(t, i == 2, outcome.RoundComplete)
	}

	snap = tb.snapshot("")
	assert.Equal(t, game.StatusResults, snap.Room.Status)
	assert.Equal(t, game.ViewResults, snap.Phase)
	total := 0
	for _, sub := range snap.Submissions {
		total += sub.VotesReceived
	}
	assert.Equal(t, 3, total)
}

func TestStartGameRequiresHostAndSeats(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(2)

	_, err := h.engine.StartGame(h.ctx, tb.room.ID, tb.seats[1].Player.ID)
	assert.ErrorIs(t, err, game.ErrNotHost)
	assert.ErrorIs(t, err, game.ErrForbidden)

	_, err = h.engine.StartGame(h.ctx, tb.room.ID, tb.hostID())
	assert.ErrorIs(t, err, game.ErrNotEnoughPlayers)

	_, err = h.engine.JoinRoom(h.ctx, tb.room.Code, "third")
	require.NoError(t, err)
	room, err := h.engine.StartGame(h.ctx, tb.room.ID, tb.hostID())
	require.NoError(t, err)
	assert.Equal(t, game.StatusThemeSelection, room.Status)
	assert.Equal(t, 1, room.CurrentRound)
	assert.NotEmpty(t, room.CurrentThemeID)

	_, err = h.engine.StartGame(h.ctx, tb.room.ID, tb.hostID())
	var transitionErr *game.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, game.StatusThemeSelection, transitionErr.From)
	assert.ErrorIs(t, err, game.ErrConflict)
}

func TestStartGameWithoutThemesIsConfigurationError(t *testing.T) {
	h := newHarness(t)
	cards, _ := testCatalog(40, 0)
	h.repo.SeedCatalog(cards, nil)
	tb := h.newTable(3)

	_, err := h.engine.StartGame(h.ctx, tb.room.ID, tb.hostID())
	assert.ErrorIs(t, err, game.ErrNoThemes)
	assert.ErrorIs(t, err, game.ErrConfiguration)
	assert.Equal(t, game.StatusWaiting, tb.snapshot("").Room.Status)
}

func TestTransitionsOutOfOrderAreRejected(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)

	_, err := h.engine.BeginCountdown(h.ctx, tb.room.ID)
	assert.ErrorIs(t, err, game.ErrInvalidTransition)
	_, err = h.engine.BeginPlaying(h.ctx, tb.room.ID)
	assert.ErrorIs(t, err, game.ErrInvalidTransition)
	_, err = h.engine.NextRound(h.ctx, tb.room.ID, tb.hostID())
	assert.ErrorIs(t, err, game.ErrInvalidTransition)

	advanced, err := h.engine.CloseSubmissions(h.ctx, tb.room.ID)
	require.NoError(t, err)
	assert.False(t, advanced)
}

func TestDeadlineClosesSubmissions(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	tb.startPlaying()

	_, err := tb.submit(tb.seats[0].Player.ID)
	require.NoError(t, err)

	advanced, err := h.engine.CloseSubmissions(h.ctx, tb.room.ID)
	require.NoError(t, err)
	assert.False(t, advanced, "one of three submitted and time remains")

	h.clock.Advance(3 * time.Minute)
	advanced, err = h.engine.CloseSubmissions(h.ctx, tb.room.ID)
	require.NoError(t, err)
	assert.True(t, advanced)

	events, err := h.engine.Events(h.ctx, tb.room.ID)
	require.NoError(t, err)
	last := events[len(events)-1]
	assert.Equal(t, "voting", last.Payload.To)
	assert.Equal(t, "deadline", last.Payload.Reason)
}

func TestLateSubmissionIsRejectedAndClosesRound(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	tb.startPlaying()

	_, err := tb.submit(tb.seats[0].Player.ID)
	require.NoError(t, err)
	_, err = tb.submit(tb.seats[1].Player.ID)
	require.NoError(t, err)

	hand := tb.hand(tb.seats[2].Player.ID)
	h.clock.Advance(3*time.Minute + time.Second)
	_, err = h.engine.Submit(h.ctx, game.SubmitParams{
		RoomID:    tb.room.ID,
		PlayerID:  tb.seats[2].Player.ID,
		Round:     1,
		Card1ID:   hand[0].ID,
		Card2ID:   hand[1].ID,
		FreeWord:  "x",
		WordOrder: game.WordOrder{1, 2, 3},
	})
	assert.ErrorIs(t, err, game.ErrRoundClosed)

	snap := tb.snapshot(tb.seats[2].Player.ID)
	assert.Equal(t, game.StatusVoting, snap.Room.Status)
	assert.Len(t, snap.Submissions, 2)
	assert.Len(t, snap.Viewer.Hand, 8, "rejected submission keeps the cards")
}

func TestNextRoundTopsUpHandsAndResetsPresentation(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	tb.startPlaying()
	subs := tb.submitAll()

	_, err := h.engine.SetViewingIndex(h.ctx, tb.room.ID, tb.hostID(), 2)
	require.NoError(t, err)
	_, err = h.engine.SetShowAllSubmissions(h.ctx, tb.room.ID, tb.hostID(), true)
	require.NoError(t, err)

	ids := []string{tb.seats[0].Player.ID, tb.seats[1].Player.ID, tb.seats[2].Player.ID}
	for i, voter := range ids {
		_, err := h.engine.CastVote(h.ctx, tb.room.ID, 1, voter, subs[ids[(i+1)%3]].ID)
		require.NoError(t, err)
	}
	for _, id := range ids {
		assert.Len(t, tb.hand(id), 6)
	}

	_, err = h.engine.NextRound(h.ctx, tb.room.ID, tb.seats[1].Player.ID)
	assert.ErrorIs(t, err, game.ErrNotHost)

	room, err := h.engine.NextRound(h.ctx, tb.room.ID, tb.hostID())
	require.NoError(t, err)
	assert.Equal(t, game.StatusThemeSelection, room.Status)
	assert.Equal(t, 2, room.CurrentRound)
	assert.Equal(t, 0, room.CurrentViewingIndex)
	assert.False(t, room.ShowAllSubmissions)
	assert.Nil(t, room.RoundEndTime)
	for _, id := range ids {
		assert.Len(t, tb.hand(id), 8)
	}

	dealt, err := h.engine.TopUpHands(h.ctx, tb.room.ID, tb.hostID())
	require.NoError(t, err)
	assert.Zero(t, dealt, "top up is idempotent")
}

func TestLastRoundFinishesGame(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	ids := []string{tb.seats[0].Player.ID, tb.seats[1].Player.ID, tb.seats[2].Player.ID}

	for round := 1; round <= 2; round++ {
		if round == 1 {
			tb.startPlaying()
		} else {
			_, err := h.engine.BeginCountdown(h.ctx, tb.room.ID)
			require.NoError(t, err)
			_, err = h.engine.BeginPlaying(h.ctx, tb.room.ID)
			require.NoError(t, err)
			tb.snapshot("")
		}
		subs := tb.submitAll()
		for i, voter := range ids {
			_, err := h.engine.CastVote(h.ctx, tb.room.ID, round, voter, subs[ids[(i+1)%3]].ID)
			require.NoError(t, err)
		}
		room, err := h.engine.NextRound(h.ctx, tb.room.ID, tb.hostID())
		require.NoError(t, err)
		if round == 1 {
			assert.Equal(t, game.StatusThemeSelection, room.Status)
		} else {
			assert.Equal(t, game.StatusFinished, room.Status)
			assert.Equal(t, 2, room.CurrentRound)
		}
	}

	snap := tb.snapshot("")
	assert.Equal(t, game.ViewFinalResults, snap.Phase)
	for _, player := range snap.Players {
		assert.Equal(t, 2, player.TotalVotes)
	}
	_, err := h.engine.NextRound(h.ctx, tb.room.ID, tb.hostID())
	assert.ErrorIs(t, err, game.ErrInvalidTransition)
}

func TestSetViewingIndexBounds(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	tb.startPlaying()

	_, err := h.engine.SetViewingIndex(h.ctx, tb.room.ID, tb.hostID(), 0)
	assert.ErrorIs(t, err, game.ErrWrongPhase)

	tb.submitAll()
	_, err = h.engine.SetViewingIndex(h.ctx, tb.room.ID, tb.hostID(), 3)
	assert.ErrorIs(t, err, game.ErrInvalidIndex)
	_, err = h.engine.SetViewingIndex(h.ctx, tb.room.ID, tb.hostID(), -1)
	assert.ErrorIs(t, err, game.ErrInvalidIndex)
	room, err := h.engine.SetViewingIndex(h.ctx, tb.room.ID, tb.hostID(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, room.CurrentViewingIndex)
}

func TestAdvanceOverdueDrivesUnattendedRoom(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	_, err := h.engine.StartGame(h.ctx, tb.room.ID, tb.hostID())
	require.NoError(t, err)

	advanced, err := h.engine.AdvanceOverdue(h.ctx)
	require.NoError(t, err)
	assert.Zero(t, advanced, "theme reveal still running")

	h.clock.Advance(3 * time.Second)
	advanced, err = h.engine.AdvanceOverdue(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, advanced)
	assert.Equal(t, game.StatusCountdown, tb.snapshot("").Room.Status)

	h.clock.Advance(3 * time.Second)
	_, err = h.engine.AdvanceOverdue(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, game.StatusPlaying, tb.snapshot("").Room.Status)
	_, err = tb.submit(tb.seats[0].Player.ID)
	require.NoError(t, err)

	h.clock.Advance(3 * time.Minute)
	_, err = h.engine.AdvanceOverdue(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, game.StatusVoting, tb.snapshot("").Room.Status)
}

func TestDeadlineWithoutTitlesMovesToResults(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	tb.startPlaying()

	h.clock.Advance(4 * time.Minute)
	advanced, err := h.engine.CloseSubmissions(h.ctx, tb.room.ID)
	require.NoError(t, err)
	require.True(t, advanced)
	assert.Equal(t, game.StatusResults, tb.snapshot("").Room.Status)

	events, err := h.engine.Events(h.ctx, tb.room.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "voting", events[len(events)-2].Payload.To)
	assert.Equal(t, "results", events[len(events)-1].Payload.To)
	assert.Equal(t, "no_submissions", events[len(events)-1].Payload.Reason)

	room, err := h.engine.NextRound(h.ctx, tb.room.ID, tb.hostID())
	require.NoError(t, err)
	assert.Equal(t, game.StatusThemeSelection, room.Status)
	assert.Equal(t, 2, room.CurrentRound)
}

func TestSweeperClosesEmptyRoundToResults(t *testing.T) {
	h := newHarness(t)
	tb := h.newTable(3)
	tb.startPlaying()

	h.clock.Advance(4 * time.Minute)
	advanced, err := h.engine.AdvanceOverdue(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, advanced)
	assert.Equal(t, game.StatusResults, tb.snapshot("").Room.Status)
}

func TestTopUpHandsRecoversShortHands(t *testing.T) {
	h := newHarness(t)
	small, themes := testCatalog(5, 2)
	h.repo.SeedCatalog(small, themes)
	tb := h.newTable(3)
	require.Len(t, tb.seats[1].Hand, 5)

	_, err := h.engine.TopUpHands(h.ctx, tb.room.ID, tb.seats[1].Player.ID)
	assert.ErrorIs(t, err, game.ErrNotHost)

	full, _ := testCatalog(40, 2)
	h.repo.SeedCatalog(full, themes)
	dealt, err := h.engine.TopUpHands(h.ctx, tb.room.ID, tb.hostID())
	require.NoError(t, err)
	assert.Equal(t, 9, dealt)
	for _, seat := range tb.seats {
		assert.Len(t, tb.hand(seat.Player.ID), 8)
	}

	tb.startPlaying()
	_, err = h.engine.TopUpHands(h.ctx, tb.room.ID, tb.hostID())
	assert.ErrorIs(t, err, game.ErrWrongPhase)
}
