package game

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const (
	closeReasonDeadline     = "deadline"
	closeReasonAllSubmitted = "all_submitted"
	closeReasonAllVoted     = "all_voted"
	closeReasonNoTitles     = "no_submissions"
)

// advance applies a status change to room and records it.
func (e *Engine) advance(tx Tx, room *Room, target Status, reason string) error {
	from := room.Status
	now := e.clock()
	if err := transition(room, target, now); err != nil {
		return err
	}
	room.UpdatedAt = now
	if err := tx.UpdateRoom(room); err != nil {
		return err
	}
	return e.appendEvent(tx, *room, "", eventStatusChanged, EventPayload{
		From:    from.String(),
		To:      target.String(),
		Reason:  reason,
		ThemeID: room.CurrentThemeID,
	})
}

func (e *Engine) logTransition(room Room, reason string) {
	e.logger.Info("room status changed",
		zap.String("room_id", room.ID),
		zap.String("status", room.Status.String()),
		zap.Int("round", room.CurrentRound),
		zap.String("reason", reason),
	)
}

// StartGame moves a waiting room into the first round. Only the host may
// start, and the seat count is checked at the moment of the transition.
func (e *Engine) StartGame(ctx context.Context, roomID, actorID string) (Room, error) {
	var updated Room
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if err := requireHost(room, actorID); err != nil {
			return err
		}
		if room.Status != StatusWaiting {
			return &TransitionError{From: room.Status, To: StatusThemeSelection}
		}
		players, err := tx.Players(room.ID)
		if err != nil {
			return err
		}
		if len(players) < e.rules.MinPlayers {
			return ErrNotEnoughPlayers
		}
		if len(players) > room.MaxPlayers {
			return ErrTooManyPlayers
		}
		themeID, err := e.pickTheme(tx)
		if err != nil {
			return err
		}
		room.CurrentRound = 1
		room.CurrentThemeID = themeID
		room.CurrentViewingIndex = 0
		room.ShowAllSubmissions = false
		room.RoundEndTime = nil
		if err := e.advance(tx, &room, StatusThemeSelection, "host_start"); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.logTransition(updated, "host_start")
	e.publish(ctx, Change{RoomID: roomID, Record: RecordRoom})
	return updated, nil
}

// BeginCountdown ends the theme reveal. Any client or the sweeper may call it.
func (e *Engine) BeginCountdown(ctx context.Context, roomID string) (Room, error) {
	var updated Room
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.Status == StatusThemeSelection && room.CurrentThemeID == "" {
			return ErrWrongPhase
		}
		if err := e.advance(tx, &room, StatusCountdown, "theme_revealed"); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.logTransition(updated, "theme_revealed")
	e.publish(ctx, Change{RoomID: roomID, Record: RecordRoom})
	return updated, nil
}

// BeginPlaying opens submissions and fixes the round deadline.
func (e *Engine) BeginPlaying(ctx context.Context, roomID string) (Room, error) {
	var updated Room
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if !room.Status.CanTransitionTo(StatusPlaying) {
			return &TransitionError{From: room.Status, To: StatusPlaying}
		}
		deadline := e.clock().Add(e.rules.RoundDuration)
		room.RoundEndTime = &deadline
		if err := e.advance(tx, &room, StatusPlaying, "countdown_finished"); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.logTransition(updated, "countdown_finished")
	e.publish(ctx, Change{RoomID: roomID, Record: RecordRoom})
	return updated, nil
}

// CloseSubmissions moves a playing room to voting once its deadline has
// passed or every seated player has submitted. The deadline is checked first.
// A round that closes with no titles at all goes straight on to results so
// the host can start the next one. It reports whether the room advanced; a
// room that is not playing is left alone.
func (e *Engine) CloseSubmissions(ctx context.Context, roomID string) (bool, error) {
	var (
		updated Room
		reason  string
	)
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if room.Status != StatusPlaying {
			return nil
		}
		submissions, err := tx.Submissions(room.ID, room.CurrentRound)
		if err != nil {
			return err
		}
		if room.DeadlinePassed(e.clock()) {
			reason = closeReasonDeadline
		} else {
			players, err := tx.Players(room.ID)
			if err != nil {
				return err
			}
			if allSubmitted(players, submissions) {
				reason = closeReasonAllSubmitted
			}
		}
		if reason == "" {
			return nil
		}
		room.CurrentViewingIndex = 0
		room.ShowAllSubmissions = false
		if err := e.advance(tx, &room, StatusVoting, reason); err != nil {
			return err
		}
		if len(submissions) == 0 {
			reason = closeReasonNoTitles
			if err := e.advance(tx, &room, StatusResults, reason); err != nil {
				return err
			}
		}
		updated = room
		return nil
	})
	if err != nil || reason == "" {
		return false, err
	}
	e.logTransition(updated, reason)
	e.publish(ctx, Change{RoomID: roomID, Record: RecordRoom})
	return true, nil
}

// NextRound is the host's exit from results: another round when rounds remain,
// otherwise the game finishes. Hands are topped up in the same transaction.
func (e *Engine) NextRound(ctx context.Context, roomID, actorID string) (Room, error) {
	var (
		updated Room
		dealt   int
		reason  = "next_round"
	)
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if err := requireHost(room, actorID); err != nil {
			return err
		}
		if room.Status != StatusResults {
			target := StatusThemeSelection
			if room.CurrentRound >= room.TotalRounds {
				target = StatusFinished
			}
			return &TransitionError{From: room.Status, To: target}
		}
		if room.CurrentRound >= room.TotalRounds {
			reason = "rounds_complete"
			room.RoundEndTime = nil
			if err := e.advance(tx, &room, StatusFinished, reason); err != nil {
				return err
			}
			updated = room
			return nil
		}
		themeID, err := e.pickTheme(tx)
		if err != nil {
			return err
		}
		room.CurrentRound++
		room.CurrentThemeID = themeID
		room.CurrentViewingIndex = 0
		room.ShowAllSubmissions = false
		room.RoundEndTime = nil
		if err := e.advance(tx, &room, StatusThemeSelection, reason); err != nil {
			return err
		}
		dealt, err = e.topUpAll(tx, room)
		if err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.logTransition(updated, reason)
	changes := []Change{{RoomID: roomID, Record: RecordRoom}}
	if dealt > 0 {
		changes = append(changes, Change{RoomID: roomID, Record: RecordHand})
	}
	e.publish(ctx, changes...)
	return updated, nil
}

func (e *Engine) topUpAll(tx Tx, room Room) (int, error) {
	players, err := tx.Players(room.ID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, player := range players {
		n, err := e.topUp(tx, player.ID)
		if err != nil {
			return 0, err
		}
		total += n
	}
	if total > 0 {
		if err := e.appendEvent(tx, room, "", eventHandsToppedUp, EventPayload{Count: total}); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// TopUpHands lets the host refill every hand to the hand size outside a
// round, recovering from a top-up that never ran. It deals nothing when hands
// are already full.
func (e *Engine) TopUpHands(ctx context.Context, roomID, actorID string) (int, error) {
	var dealt int
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if err := requireHost(room, actorID); err != nil {
			return err
		}
		switch room.Status {
		case StatusWaiting, StatusThemeSelection, StatusCountdown:
		default:
			return ErrWrongPhase
		}
		dealt, err = e.topUpAll(tx, room)
		return err
	})
	if err != nil {
		return 0, err
	}
	if dealt > 0 {
		e.publish(ctx, Change{RoomID: roomID, Record: RecordHand})
	}
	return dealt, nil
}

// SetViewingIndex picks which submission the shared screen shows.
func (e *Engine) SetViewingIndex(ctx context.Context, roomID, actorID string, index int) (Room, error) {
	return e.updatePresentation(ctx, roomID, actorID, func(tx Tx, room *Room) error {
		submissions, err := tx.Submissions(room.ID, room.CurrentRound)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(submissions) {
			return ErrInvalidIndex
		}
		room.CurrentViewingIndex = index
		return nil
	})
}

func (e *Engine) SetShowAllSubmissions(ctx context.Context, roomID, actorID string, show bool) (Room, error) {
	return e.updatePresentation(ctx, roomID, actorID, func(_ Tx, room *Room) error {
		room.ShowAllSubmissions = show
		return nil
	})
}

func (e *Engine) updatePresentation(ctx context.Context, roomID, actorID string, apply func(Tx, *Room) error) (Room, error) {
	var updated Room
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		if err := requireHost(room, actorID); err != nil {
			return err
		}
		if room.Status != StatusVoting && room.Status != StatusResults {
			return ErrWrongPhase
		}
		if err := apply(tx, &room); err != nil {
			return err
		}
		room.UpdatedAt = e.clock()
		if err := tx.UpdateRoom(&room); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.publish(ctx, Change{RoomID: roomID, Record: RecordRoom})
	return updated, nil
}

// AdvanceOverdue enforces server-side timers for rooms nobody is driving:
// theme reveal and countdown past their fixed duration and playing rooms past
// their deadline. It returns how many rooms advanced.
func (e *Engine) AdvanceOverdue(ctx context.Context) (int, error) {
	var rooms []Room
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		var err error
		rooms, err = tx.RoomsByStatus(StatusThemeSelection, StatusCountdown, StatusPlaying)
		return err
	})
	if err != nil {
		return 0, err
	}
	now := e.clock()
	advanced := 0
	for _, room := range rooms {
		if err := ctx.Err(); err != nil {
			return advanced, err
		}
		var err error
		moved := false
		switch room.Status {
		case StatusThemeSelection:
			if !now.Before(room.PhaseStartedAt.Add(e.rules.ThemeRevealDuration)) {
				_, err = e.BeginCountdown(ctx, room.ID)
				moved = err == nil
			}
		case StatusCountdown:
			if !now.Before(room.PhaseStartedAt.Add(e.rules.CountdownDuration)) {
				_, err = e.BeginPlaying(ctx, room.ID)
				moved = err == nil
			}
		case StatusPlaying:
			if room.DeadlinePassed(now) {
				moved, err = e.CloseSubmissions(ctx, room.ID)
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, ErrConflict):
			// Another caller advanced the room first.
		default:
			e.logger.Warn("advance overdue room failed", zap.String("room_id", room.ID), zap.Error(err))
			continue
		}
		if moved {
			advanced++
		}
	}
	return advanced, nil
}

func allSubmitted(players []Player, submissions []Submission) bool {
	if len(players) == 0 {
		return false
	}
	submitted := make(map[string]bool, len(submissions))
	for _, sub := range submissions {
		submitted[sub.PlayerID] = true
	}
	for _, player := range players {
		if !submitted[player.ID] {
			return false
		}
	}
	return true
}
