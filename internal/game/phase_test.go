package game_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"title-party/internal/game"
)

func TestDerivePhase(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)
	earlier := now.Add(-time.Second)

	players := []game.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	subs := []game.Submission{
		{ID: "sa", PlayerID: "a", RoundNumber: 1},
		{ID: "sb", PlayerID: "b", RoundNumber: 1},
		{ID: "sc", PlayerID: "c", RoundNumber: 1},
	}
	allVotes := []game.Vote{
		{VoterID: "a", SubmissionID: "sb", RoundNumber: 1},
		{VoterID: "b", SubmissionID: "sc", RoundNumber: 1},
		{VoterID: "c", SubmissionID: "sa", RoundNumber: 1},
	}
	room := func(status game.Status, end *time.Time) *game.Room {
		return &game.Room{Status: status, CurrentRound: 1, RoundEndTime: end}
	}

	cases := []struct {
		name string
		in   game.PhaseInput
		want game.ViewPhase
	}{
		{"no room", game.PhaseInput{}, game.ViewNotReady},
		{"unknown status", game.PhaseInput{Room: room(game.Status(42), nil)}, game.ViewNotReady},
		{"waiting", game.PhaseInput{Room: room(game.StatusWaiting, nil)}, game.ViewLobby},
		{"theme", game.PhaseInput{Room: room(game.StatusThemeSelection, nil)}, game.ViewThemeReveal},
		{"countdown", game.PhaseInput{Room: room(game.StatusCountdown, nil)}, game.ViewCountdown},
		{"playing", game.PhaseInput{Room: room(game.StatusPlaying, &later), Now: now, ViewerID: "a"}, game.ViewPlaying},
		{"playing submitted", game.PhaseInput{Room: room(game.StatusPlaying, &later), Submissions: subs[:1], Now: now, ViewerID: "a"}, game.ViewVoting},
		{"playing past deadline", game.PhaseInput{Room: room(game.StatusPlaying, &earlier), Now: now, ViewerID: "a"}, game.ViewVoting},
		{"playing at deadline", game.PhaseInput{Room: room(game.StatusPlaying, &now), Now: now, ViewerID: "a"}, game.ViewVoting},
		{"playing other round submission", game.PhaseInput{
			Room:        room(game.StatusPlaying, &later),
			Submissions: []game.Submission{{PlayerID: "a", RoundNumber: 0}},
			Now:         now,
			ViewerID:    "a",
		}, game.ViewPlaying},
		{"voting partial", game.PhaseInput{Room: room(game.StatusVoting, nil), Players: players, Submissions: subs, Votes: allVotes[:2]}, game.ViewVoting},
		{"voting complete", game.PhaseInput{Room: room(game.StatusVoting, nil), Players: players, Submissions: subs, Votes: allVotes}, game.ViewResults},
		{"results without submissions", game.PhaseInput{Room: room(game.StatusResults, nil), Players: players, Votes: allVotes}, game.ViewVoting},
		{"results", game.PhaseInput{Room: room(game.StatusResults, nil), Players: players, Submissions: subs, Votes: allVotes}, game.ViewResults},
		{"finished", game.PhaseInput{Room: room(game.StatusFinished, nil)}, game.ViewFinalResults},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, game.DerivePhase(tc.in))
		})
	}
}

func TestDerivePhaseDoesNotMutateInput(t *testing.T) {
	end := time.Date(2024, 4, 1, 12, 3, 0, 0, time.UTC)
	in := game.PhaseInput{
		Room:        &game.Room{ID: "r", Status: game.StatusVoting, CurrentRound: 1, RoundEndTime: &end},
		Players:     []game.Player{{ID: "b"}, {ID: "a"}},
		Submissions: []game.Submission{{ID: "s2", PlayerID: "b", RoundNumber: 1}, {ID: "s1", PlayerID: "a", RoundNumber: 1}},
		Votes:       []game.Vote{{VoterID: "a", SubmissionID: "s2", RoundNumber: 1}},
		ViewerID:    "a",
		Now:         end,
	}
	before := clonePhaseInput(in)

	first := game.DerivePhase(in)
	second := game.DerivePhase(in)

	assert.Equal(t, first, second)
	if diff := cmp.Diff(before, in); diff != "" {
		t.Fatalf("DerivePhase mutated its input (-before +after):\n%s", diff)
	}
}

func clonePhaseInput(in game.PhaseInput) game.PhaseInput {
	room := *in.Room
	end := *in.Room.RoundEndTime
	room.RoundEndTime = &end
	return game.PhaseInput{
		Room:        &room,
		Players:     append([]game.Player(nil), in.Players...),
		Submissions: append([]game.Submission(nil), in.Submissions...),
		Votes:       append([]game.Vote(nil), in.Votes...),
		ViewerID:    in.ViewerID,
		Now:         in.Now,
	}
}
