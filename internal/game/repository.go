package game

import "context"

// Repository is the durable record store the engine runs against. Atomically
// runs fn as one transaction: either every write fn made is committed or none
// is. Stores report uniqueness violations and failed conditional updates as
// ErrConflict and missing records as ErrNotFound.
type Repository interface {
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	Room(id string) (Room, error)
	// RoomForUpdate reads a room and holds it for the rest of the transaction
	// so that mutations of the same room serialize.
	RoomForUpdate(id string) (Room, error)
	RoomByCode(code string) (Room, error)
	RoomsByStatus(statuses ...Status) ([]Room, error)
	InsertRoom(room *Room) error
	// UpdateRoom writes room only if the stored version still equals
	// room.Version, then increments it.
	UpdateRoom(room *Room) error

	// Players returns the room's players in join order.
	Players(roomID string) ([]Player, error)
	Player(id string) (Player, error)
	InsertPlayer(player *Player) error
	UpdatePlayer(player *Player) error
	DeletePlayer(id string) error
	// AdjustPlayerVotes adds delta to total_votes, never going below zero.
	AdjustPlayerVotes(playerID string, delta int) error

	CardIDs() ([]string, error)
	Cards(ids []string) ([]WordCard, error)
	ThemeIDs() ([]string, error)
	Theme(id string) (Theme, error)

	Hand(playerID string) ([]string, error)
	AddToHand(playerID string, cardIDs []string) error
	RemoveFromHand(playerID string, cardIDs []string) error
	ClearHand(playerID string) error

	InsertSubmission(submission *Submission) error
	Submission(id string) (Submission, error)
	// Submissions returns the round's submissions in creation order.
	Submissions(roomID string, round int) ([]Submission, error)
	// AdjustSubmissionVotes adds delta to votes_received, never going below zero.
	AdjustSubmissionVotes(id string, delta int) error

	Votes(roomID string, round int) ([]Vote, error)
	InsertVote(vote *Vote) error
	DeleteVote(id string) error

	AppendEvent(event *Event) error
	Events(roomID string) ([]Event, error)
}
