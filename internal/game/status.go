package game

import (
	"fmt"
	"strings"
	"time"
)

// Status is the authoritative room status. Only transitions listed in
// statusTransitions are accepted.
type Status int

const (
	StatusWaiting Status = iota
	StatusThemeSelection
	StatusCountdown
	StatusPlaying
	StatusVoting
	StatusResults
	StatusFinished
)

var statusNames = map[Status]string{
	StatusWaiting:        "waiting",
	StatusThemeSelection: "theme_selection",
	StatusCountdown:      "countdown",
	StatusPlaying:        "playing",
	StatusVoting:         "voting",
	StatusResults:        "results",
	StatusFinished:       "finished",
}

var statusTransitions = map[Status][]Status{
	StatusWaiting:        {StatusThemeSelection},
	StatusThemeSelection: {StatusCountdown},
	StatusCountdown:      {StatusPlaying},
	StatusPlaying:        {StatusVoting},
	StatusVoting:         {StatusResults},
	StatusResults:        {StatusThemeSelection, StatusFinished},
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	for status, name := range statusNames {
		if name == raw {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
}

func (s Status) MarshalText() ([]byte, error) {
	if _, ok := statusNames[s]; !ok {
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range statusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// transition moves room to target and stamps the phase start time.
func transition(room *Room, target Status, at time.Time) error {
	if !room.Status.CanTransitionTo(target) {
		return &TransitionError{From: room.Status, To: target}
	}
	room.Status = target
	room.PhaseStartedAt = at
	return nil
}
