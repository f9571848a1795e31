package game

import "time"

// ViewPhase is the screen a client should show. It is derived from records,
// never stored.
type ViewPhase string

const (
	ViewNotReady     ViewPhase = "not_ready"
	ViewLobby        ViewPhase = "lobby"
	ViewThemeReveal  ViewPhase = "theme_reveal"
	ViewCountdown    ViewPhase = "countdown"
	ViewPlaying      ViewPhase = "playing"
	ViewVoting       ViewPhase = "voting"
	ViewResults      ViewPhase = "results"
	ViewFinalResults ViewPhase = "final_results"
)

type PhaseInput struct {
	Room        *Room
	Players     []Player
	Submissions []Submission
	Votes       []Vote
	ViewerID    string
	Now         time.Time
}

// DerivePhase maps room records and the viewer to a screen. Submissions and
// votes from other rounds are ignored.
func DerivePhase(in PhaseInput) ViewPhase {
	room := in.Room
	if room == nil {
		return ViewNotReady
	}
	submissions := currentSubmissions(in.Submissions, room.CurrentRound)
	switch room.Status {
	case StatusWaiting:
		return ViewLobby
	case StatusThemeSelection:
		return ViewThemeReveal
	case StatusCountdown:
		return ViewCountdown
	case StatusPlaying:
		if room.DeadlinePassed(in.Now) {
			return ViewVoting
		}
		for _, sub := range submissions {
			if in.ViewerID != "" && sub.PlayerID == in.ViewerID {
				return ViewVoting
			}
		}
		return ViewPlaying
	case StatusVoting, StatusResults:
		if roundFullyVoted(in.Players, submissions, currentVotes(in.Votes, room.CurrentRound)) {
			return ViewResults
		}
		return ViewVoting
	case StatusFinished:
		return ViewFinalResults
	}
	return ViewNotReady
}

func currentSubmissions(all []Submission, round int) []Submission {
	out := make([]Submission, 0, len(all))
	for _, sub := range all {
		if sub.RoundNumber == round {
			out = append(out, sub)
		}
	}
	return out
}

func currentVotes(all []Vote, round int) []Vote {
	out := make([]Vote, 0, len(all))
	for _, vote := range all {
		if vote.RoundNumber == round {
			out = append(out, vote)
		}
	}
	return out
}
