package game

import "context"

type RecordKind string

const (
	RecordRoom        RecordKind = "room"
	RecordPlayers     RecordKind = "players"
	RecordSubmissions RecordKind = "submissions"
	RecordVotes       RecordKind = "votes"
	RecordHand        RecordKind = "hand"
)

// Change says that records of one kind in a room changed. Observers re-read
// the full snapshot rather than applying the change.
type Change struct {
	RoomID   string     `json:"room_id"`
	Record   RecordKind `json:"record"`
	PlayerID string     `json:"player_id,omitempty"`
}

// Notifier delivers changes at least once, with no ordering guarantee.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, Change) error { return nil }
