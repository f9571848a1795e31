package store

import (
	"context"
	"fmt"
	"sync"

	"title-party/internal/game"
)

// Memory is an in-process game.Repository. Each transaction works on a copy
// of the state that replaces the original only when the transaction succeeds.
type Memory struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	rooms       []game.Room
	players     []game.Player
	cards       []game.WordCard
	themes      []game.Theme
	hands       map[string][]string
	submissions []game.Submission
	votes       []game.Vote
	events      []game.Event
}

func NewMemory() *Memory {
	return &Memory{state: &memoryState{hands: map[string][]string{}}}
}

// SeedCatalog replaces the word card and theme catalogs.
func (m *Memory) SeedCatalog(cards []game.WordCard, themes []game.Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.cards = append([]game.WordCard(nil), cards...)
	m.state.themes = append([]game.Theme(nil), themes...)
}

func (m *Memory) Atomically(ctx context.Context, fn func(tx game.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(&memoryTx{state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (s *memoryState) clone() *memoryState {
	hands := make(map[string][]string, len(s.hands))
	for playerID, cards := range s.hands {
		hands[playerID] = append([]string(nil), cards...)
	}
	return &memoryState{
		rooms:       append([]game.Room(nil), s.rooms...),
		players:     append([]game.Player(nil), s.players...),
		cards:       s.cards,
		themes:      s.themes,
		hands:       hands,
		submissions: append([]game.Submission(nil), s.submissions...),
		votes:       append([]game.Vote(nil), s.votes...),
		events:      append([]game.Event(nil), s.events...),
	}
}

type memoryTx struct {
	state *memoryState
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", game.ErrNotFound, kind, id)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{game.ErrConflict}, args...)...)
}

func (t *memoryTx) roomIndex(id string) int {
	for i, room := range t.state.rooms {
		if room.ID == id {
			return i
		}
	}
	return -1
}

func (t *memoryTx) Room(id string) (game.Room, error) {
	i := t.roomIndex(id)
	if i < 0 {
		return game.Room{}, notFound("room", id)
	}
	return t.state.rooms[i], nil
}

// RoomForUpdate is Room: transactions already run one at a time.
func (t *memoryTx) RoomForUpdate(id string) (game.Room, error) {
	return t.Room(id)
}

func (t *memoryTx) RoomByCode(code string) (game.Room, error) {
	for _, room := range t.state.rooms {
		if room.Code == code {
			return room, nil
		}
	}
	return game.Room{}, notFound("room code", code)
}

func (t *memoryTx) RoomsByStatus(statuses ...game.Status) ([]game.Room, error) {
	var out []game.Room
	for _, room := range t.state.rooms {
		for _, status := range statuses {
			if room.Status == status {
				out = append(out, room)
				break
			}
		}
	}
	return out, nil
}

func (t *memoryTx) InsertRoom(room *game.Room) error {
	for _, existing := range t.state.rooms {
		if existing.ID == room.ID {
			return conflict("room %s exists", room.ID)
		}
		if existing.Code == room.Code {
			return conflict("room code %s in use", room.Code)
		}
	}
	room.Version = 1
	t.state.rooms = append(t.state.rooms, *room)
	return nil
}

func (t *memoryTx) UpdateRoom(room *game.Room) error {
	i := t.roomIndex(room.ID)
	if i < 0 {
		return notFound("room", room.ID)
	}
	if t.state.rooms[i].Version != room.Version {
		return conflict("room %s changed concurrently", room.ID)
	}
	room.Version++
	t.state.rooms[i] = *room
	return nil
}

func (t *memoryTx) playerIndex(id string) int {
	for i, player := range t.state.players {
		if player.ID == id {
			return i
		}
	}
	return -1
}

func (t *memoryTx) Players(roomID string) ([]game.Player, error) {
	out := []game.Player{}
	for _, player := range t.state.players {
		if player.RoomID == roomID {
			out = append(out, player)
		}
	}
	return out, nil
}

func (t *memoryTx) Player(id string) (game.Player, error) {
	i := t.playerIndex(id)
	if i < 0 {
		return game.Player{}, notFound("player", id)
	}
	return t.state.players[i], nil
}

func (t *memoryTx) InsertPlayer(player *game.Player) error {
	if t.playerIndex(player.ID) >= 0 {
		return conflict("player %s exists", player.ID)
	}
	t.state.players = append(t.state.players, *player)
	return nil
}

func (t *memoryTx) UpdatePlayer(player *game.Player) error {
	i := t.playerIndex(player.ID)
	if i < 0 {
		return notFound("player", player.ID)
	}
	stored := t.state.players[i]
	stored.Nickname = player.Nickname
	stored.Avatar = player.Avatar
	stored.HandReloadedRound = player.HandReloadedRound
	t.state.players[i] = stored
	*player = stored
	return nil
}

func (t *memoryTx) DeletePlayer(id string) error {
	i := t.playerIndex(id)
	if i < 0 {
		return notFound("player", id)
	}
	t.state.players = append(t.state.players[:i], t.state.players[i+1:]...)
	delete(t.state.hands, id)
	return nil
}

func (t *memoryTx) AdjustPlayerVotes(playerID string, delta int) error {
	i := t.playerIndex(playerID)
	if i < 0 {
		return notFound("player", playerID)
	}
	t.state.players[i].TotalVotes = max(t.state.players[i].TotalVotes+delta, 0)
	return nil
}

func (t *memoryTx) CardIDs() ([]string, error) {
	ids := make([]string, 0, len(t.state.cards))
	for _, card := range t.state.cards {
		ids = append(ids, card.ID)
	}
	return ids, nil
}

func (t *memoryTx) Cards(ids []string) ([]game.WordCard, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	out := make([]game.WordCard, 0, len(ids))
	for _, card := range t.state.cards {
		if wanted[card.ID] {
			out = append(out, card)
		}
	}
	return out, nil
}

func (t *memoryTx) ThemeIDs() ([]string, error) {
	ids := make([]string, 0, len(t.state.themes))
	for _, theme := range t.state.themes {
		ids = append(ids, theme.ID)
	}
	return ids, nil
}

func (t *memoryTx) Theme(id string) (game.Theme, error) {
	for _, theme := range t.state.themes {
		if theme.ID == id {
			return theme, nil
		}
	}
	return game.Theme{}, notFound("theme", id)
}

func (t *memoryTx) Hand(playerID string) ([]string, error) {
	return append([]string{}, t.state.hands[playerID]...), nil
}

func (t *memoryTx) AddToHand(playerID string, cardIDs []string) error {
	hand := t.state.hands[playerID]
	for _, id := range cardIDs {
		for _, held := range hand {
			if held == id {
				return conflict("card %s already in hand of %s", id, playerID)
			}
		}
		hand = append(hand, id)
	}
	t.state.hands[playerID] = hand
	return nil
}

func (t *memoryTx) RemoveFromHand(playerID string, cardIDs []string) error {
	drop := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		drop[id] = true
	}
	kept := t.state.hands[playerID][:0:0]
	for _, id := range t.state.hands[playerID] {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	t.state.hands[playerID] = kept
	return nil
}

func (t *memoryTx) ClearHand(playerID string) error {
	delete(t.state.hands, playerID)
	return nil
}

func (t *memoryTx) submissionIndex(id string) int {
	for i, sub := range t.state.submissions {
		if sub.ID == id {
			return i
		}
	}
	return -1
}

func (t *memoryTx) InsertSubmission(submission *game.Submission) error {
	for _, existing := range t.state.submissions {
		if existing.ID == submission.ID {
			return conflict("submission %s exists", submission.ID)
		}
		if existing.RoomID == submission.RoomID &&
			existing.PlayerID == submission.PlayerID &&
			existing.RoundNumber == submission.RoundNumber {
			return conflict("player %s already submitted round %d", submission.PlayerID, submission.RoundNumber)
		}
	}
	t.state.submissions = append(t.state.submissions, *submission)
	return nil
}

func (t *memoryTx) Submission(id string) (game.Submission, error) {
	i := t.submissionIndex(id)
	if i < 0 {
		return game.Submission{}, notFound("submission", id)
	}
	return t.state.submissions[i], nil
}

func (t *memoryTx) Submissions(roomID string, round int) ([]game.Submission, error) {
	out := []game.Submission{}
	for _, sub := range t.state.submissions {
		if sub.RoomID == roomID && sub.RoundNumber == round {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (t *memoryTx) AdjustSubmissionVotes(id string, delta int) error {
	i := t.submissionIndex(id)
	if i < 0 {
		return notFound("submission", id)
	}
	t.state.submissions[i].VotesReceived = max(t.state.submissions[i].VotesReceived+delta, 0)
	return nil
}

func (t *memoryTx) Votes(roomID string, round int) ([]game.Vote, error) {
	out := []game.Vote{}
	for _, vote := range t.state.votes {
		if vote.RoomID == roomID && vote.RoundNumber == round {
			out = append(out, vote)
		}
	}
	return out, nil
}

func (t *memoryTx) InsertVote(vote *game.Vote) error {
	for _, existing := range t.state.votes {
		if existing.ID == vote.ID {
			return conflict("vote %s exists", vote.ID)
		}
		if existing.RoomID == vote.RoomID &&
			existing.RoundNumber == vote.RoundNumber &&
			existing.VoterID == vote.VoterID {
			return conflict("player %s already voted in round %d", vote.VoterID, vote.RoundNumber)
		}
	}
	t.state.votes = append(t.state.votes, *vote)
	return nil
}

func (t *memoryTx) DeleteVote(id string) error {
	for i, vote := range t.state.votes {
		if vote.ID == id {
			t.state.votes = append(t.state.votes[:i], t.state.votes[i+1:]...)
			return nil
		}
	}
	return conflict("vote %s already removed", id)
}

func (t *memoryTx) AppendEvent(event *game.Event) error {
	t.state.events = append(t.state.events, *event)
	return nil
}

func (t *memoryTx) Events(roomID string) ([]game.Event, error) {
	out := []game.Event{}
	for _, event := range t.state.events {
		if event.RoomID == roomID {
			out = append(out, event)
		}
	}
	return out, nil
}
