package game

import "time"

type Room struct {
	ID                  string
	Code                string
	HostID              string
	Status              Status
	MaxPlayers          int
	TotalRounds         int
	CurrentRound        int
	CurrentThemeID      string
	RoundEndTime        *time.Time
	CurrentViewingIndex int
	ShowAllSubmissions  bool
	PhaseStartedAt      time.Time
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DeadlinePassed reports whether the submission deadline of the current
// round is at or before now. A room without a deadline never expires.
func (r *Room) DeadlinePassed(now time.Time) bool {
	if r == nil || r.RoundEndTime == nil {
		return false
	}
	return !now.Before(*r.RoundEndTime)
}

type Player struct {
	ID                string
	RoomID            string
	Nickname          string
	Avatar            string
	TotalVotes        int
	HandReloadedRound *int
	JoinedAt          time.Time
}

func (p Player) reloadedIn(round int) bool {
	return p.HandReloadedRound != nil && *p.HandReloadedRound == round
}

type WordCard struct {
	ID   string
	Word string
}

type Theme struct {
	ID          string
	Name        string
	Description string
}

// WordOrder maps title slot i to its content: 1 is card1, 2 is card2 and
// 3 is the free word.
type WordOrder [3]int

const (
	orderCard1    = 1
	orderCard2    = 2
	orderFreeWord = 3
)

func (o WordOrder) Valid() bool {
	var seen [4]bool
	for _, v := range o {
		if v < orderCard1 || v > orderFreeWord || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

type Submission struct {
	ID            string
	RoomID        string
	PlayerID      string
	RoundNumber   int
	Card1ID       string
	Card2ID       string
	FreeWord      string
	WordOrder     WordOrder
	VotesReceived int
	CreatedAt     time.Time
}

type Vote struct {
	ID           string
	RoomID       string
	RoundNumber  int
	VoterID      string
	SubmissionID string
	CreatedAt    time.Time
}

type Event struct {
	ID          string
	RoomID      string
	PlayerID    string
	RoundNumber int
	Type        string
	Payload     EventPayload
	CreatedAt   time.Time
}

type EventPayload struct {
	Code         string `json:"code,omitempty"`
	Nickname     string `json:"nickname,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	Reason       string `json:"reason,omitempty"`
	ThemeID      string `json:"theme_id,omitempty"`
	SubmissionID string `json:"submission_id,omitempty"`
	PreviousID   string `json:"previous_submission_id,omitempty"`
	Count        int    `json:"count,omitempty"`
}

const (
	eventRoomCreated       = "room_created"
	eventPlayerJoined      = "player_joined"
	eventPlayerLeft        = "player_left"
	eventStatusChanged     = "status_changed"
	eventSubmissionCreated = "submission_created"
	eventVoteCast          = "vote_cast"
	eventVoteReplaced      = "vote_replaced"
	eventHandReloaded      = "hand_reloaded"
	eventHandsToppedUp     = "hands_topped_up"
)
