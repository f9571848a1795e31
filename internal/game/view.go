package game

import (
	"context"
	"errors"
	"math"
	"time"
)

// Snapshot is everything one viewer needs to render a room, read in a single
// transaction.
type Snapshot struct {
	Room             Room
	Theme            *Theme
	Players          []Player
	Leaderboard      []Player
	Submissions      []SubmissionView
	Votes            []Vote
	Phase            ViewPhase
	SecondsRemaining int
	Viewer           *ViewerState
	Now              time.Time
}

type SubmissionView struct {
	Submission
	Nickname string
	Title    string
	Slots    [3]Slot
}

// ViewerState is the part of a snapshot only the viewer may see.
type ViewerState struct {
	Player    Player
	IsHost    bool
	Hand      []WordCard
	Submitted bool
	Vote      *Vote
	CanReload bool
}

// Snapshot reads a room for viewerID. An empty viewerID yields a spectator
// view without a hand.
func (e *Engine) Snapshot(ctx context.Context, roomID, viewerID string) (Snapshot, error) {
	var snap Snapshot
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := tx.Room(roomID)
		if errors.Is(err, ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		players, err := tx.Players(room.ID)
		if err != nil {
			return err
		}
		submissions, err := tx.Submissions(room.ID, room.CurrentRound)
		if err != nil {
			return err
		}
		votes, err := tx.Votes(room.ID, room.CurrentRound)
		if err != nil {
			return err
		}

		snap = Snapshot{
			Room:        room,
			Players:     players,
			Leaderboard: Leaderboard(players),
			Votes:       votes,
			Now:         e.clock(),
		}
		if room.CurrentThemeID != "" {
			theme, err := tx.Theme(room.CurrentThemeID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if err == nil {
				snap.Theme = &theme
			}
		}

		snap.Submissions, err = submissionViews(tx, players, submissions)
		if err != nil {
			return err
		}

		if viewerID != "" {
			viewer, err := e.viewerState(tx, room, viewerID, submissions, votes)
			if err != nil {
				return err
			}
			snap.Viewer = viewer
		}

		snap.Phase = DerivePhase(PhaseInput{
			Room:        &room,
			Players:     players,
			Submissions: submissions,
			Votes:       votes,
			ViewerID:    viewerID,
			Now:         snap.Now,
		})
		snap.SecondsRemaining = secondsRemaining(room, snap.Now)
		return nil
	})
	return snap, err
}

func (e *Engine) viewerState(tx Tx, room Room, viewerID string, submissions []Submission, votes []Vote) (*ViewerState, error) {
	player, err := tx.Player(viewerID)
	if errors.Is(err, ErrNotFound) || (err == nil && player.RoomID != room.ID) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	hand, err := handCards(tx, player.ID)
	if err != nil {
		return nil, err
	}
	state := &ViewerState{
		Player:    player,
		IsHost:    room.HostID == player.ID,
		Hand:      hand,
		CanReload: room.Status == StatusPlaying && !player.reloadedIn(room.CurrentRound),
	}
	for _, sub := range submissions {
		if sub.PlayerID == player.ID {
			state.Submitted = true
			break
		}
	}
	for i := range votes {
		if votes[i].VoterID == player.ID {
			vote := votes[i]
			state.Vote = &vote
			break
		}
	}
	return state, nil
}

func submissionViews(tx Tx, players []Player, submissions []Submission) ([]SubmissionView, error) {
	if len(submissions) == 0 {
		return []SubmissionView{}, nil
	}
	cardIDs := make([]string, 0, len(submissions)*2)
	for _, sub := range submissions {
		cardIDs = append(cardIDs, sub.Card1ID, sub.Card2ID)
	}
	cards, err := tx.Cards(cardIDs)
	if err != nil {
		return nil, err
	}
	words := make(map[string]string, len(cards))
	for _, card := range cards {
		words[card.ID] = card.Word
	}
	nicknames := make(map[string]string, len(players))
	for _, player := range players {
		nicknames[player.ID] = player.Nickname
	}
	views := make([]SubmissionView, 0, len(submissions))
	for _, sub := range submissions {
		slots := sub.Slots()
		views = append(views, SubmissionView{
			Submission: sub,
			Nickname:   nicknames[sub.PlayerID],
			Title:      AssembleTitle(slots, words),
			Slots:      slots,
		})
	}
	return views, nil
}

func secondsRemaining(room Room, now time.Time) int {
	if room.Status != StatusPlaying || room.RoundEndTime == nil {
		return 0
	}
	left := room.RoundEndTime.Sub(now).Seconds()
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left))
}

// Events returns the room's event log, oldest first.
func (e *Engine) Events(ctx context.Context, roomID string) ([]Event, error) {
	var events []Event
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		if _, err := tx.Room(roomID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		var err error
		events, err = tx.Events(roomID)
		return err
	})
	return events, err
}

// RoomByCode finds a room by join code regardless of its status.
func (e *Engine) RoomByCode(ctx context.Context, code string) (Room, error) {
	var room Room
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		var err error
		room, err = tx.RoomByCode(NormalizeRoomCode(code))
		if errors.Is(err, ErrNotFound) {
			return ErrRoomNotFound
		}
		return err
	})
	return room, err
}
