package game

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
)

type SubmitParams struct {
	RoomID    string
	PlayerID  string
	Round     int
	Card1ID   string
	Card2ID   string
	FreeWord  string
	WordOrder WordOrder
}

// Submit records a player's title for the current round and removes both
// cards from their hand. When it was the last missing submission the room
// moves on to voting.
func (e *Engine) Submit(ctx context.Context, params SubmitParams) (Submission, error) {
	freeWord, err := e.validateFreeWord(params.FreeWord)
	if err != nil {
		return Submission{}, err
	}
	if params.Card1ID == "" || params.Card2ID == "" || params.Card1ID == params.Card2ID {
		return Submission{}, ErrSameCard
	}
	if !params.WordOrder.Valid() {
		return Submission{}, ErrInvalidWordOrder
	}

	var (
		submission Submission
		closed     bool
	)
	err = e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, params.RoomID)
		if err != nil {
			return err
		}
		player, err := loadSeatedPlayer(tx, room, params.PlayerID)
		if err != nil {
			return err
		}
		if room.Status != StatusPlaying {
			return ErrWrongPhase
		}
		if params.Round != room.CurrentRound {
			return ErrStaleRound
		}
		now := e.clock()
		if room.DeadlinePassed(now) {
			closed = true
			return ErrRoundClosed
		}
		existing, err := tx.Submissions(room.ID, room.CurrentRound)
		if err != nil {
			return err
		}
		for _, sub := range existing {
			if sub.PlayerID == player.ID {
				return ErrAlreadySubmitted
			}
		}
		hand, err := tx.Hand(player.ID)
		if err != nil {
			return err
		}
		if !containsAll(hand, params.Card1ID, params.Card2ID) {
			return ErrCardNotInHand
		}

		submission = Submission{
			ID:          newID(),
			RoomID:      room.ID,
			PlayerID:    player.ID,
			RoundNumber: room.CurrentRound,
			Card1ID:     params.Card1ID,
			Card2ID:     params.Card2ID,
			FreeWord:    freeWord,
			WordOrder:   params.WordOrder,
			CreatedAt:   now,
		}
		if err := tx.InsertSubmission(&submission); err != nil {
			return err
		}
		if err := tx.RemoveFromHand(player.ID, []string{params.Card1ID, params.Card2ID}); err != nil {
			return err
		}
		return e.appendEvent(tx, room, player.ID, eventSubmissionCreated, EventPayload{SubmissionID: submission.ID})
	})
	if err != nil {
		if closed {
			if _, closeErr := e.CloseSubmissions(ctx, params.RoomID); closeErr != nil {
				e.logger.Warn("close submissions after late submit failed", zap.String("room_id", params.RoomID), zap.Error(closeErr))
			}
		}
		return Submission{}, err
	}

	e.logger.Info("submission created",
		zap.String("room_id", submission.RoomID),
		zap.String("player_id", submission.PlayerID),
		zap.Int("round", submission.RoundNumber),
	)
	e.publish(ctx,
		Change{RoomID: submission.RoomID, Record: RecordSubmissions},
		Change{RoomID: submission.RoomID, Record: RecordHand, PlayerID: submission.PlayerID},
	)
	if _, err := e.CloseSubmissions(ctx, submission.RoomID); err != nil {
		e.logger.Warn("close submissions after submit failed", zap.String("room_id", submission.RoomID), zap.Error(err))
	}
	return submission, nil
}

type VoteOutcome struct {
	Vote Vote
	// Changed is false when the voter repeated their current vote.
	Changed bool
	// PreviousSubmissionID is set when an earlier vote was replaced.
	PreviousSubmissionID string
	// RoundComplete is true when this vote moved the room to results.
	RoundComplete bool
}

// CastVote records voterID's vote for submissionID. Voting again for a
// different title replaces the earlier vote; every counter moves in the same
// transaction.
func (e *Engine) CastVote(ctx context.Context, roomID string, round int, voterID, submissionID string) (VoteOutcome, error) {
	var outcome VoteOutcome
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		outcome = VoteOutcome{}
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		voter, err := loadSeatedPlayer(tx, room, voterID)
		if err != nil {
			return err
		}
		if room.Status != StatusVoting {
			return ErrWrongPhase
		}
		if round != room.CurrentRound {
			return ErrStaleRound
		}
		target, err := tx.Submission(submissionID)
		if errors.Is(err, ErrNotFound) {
			return ErrUnknownSubmission
		}
		if err != nil {
			return err
		}
		if target.RoomID != room.ID || target.RoundNumber != room.CurrentRound {
			return ErrUnknownSubmission
		}
		if target.PlayerID == voter.ID {
			return ErrOwnSubmission
		}

		votes, err := tx.Votes(room.ID, room.CurrentRound)
		if err != nil {
			return err
		}
		var prior *Vote
		for i := range votes {
			if votes[i].VoterID == voter.ID {
				prior = &votes[i]
				break
			}
		}
		if prior != nil && prior.SubmissionID == target.ID {
			outcome.Vote = *prior
			return nil
		}

		if prior != nil {
			previous, err := tx.Submission(prior.SubmissionID)
			if err != nil {
				return err
			}
			if err := tx.AdjustSubmissionVotes(previous.ID, -1); err != nil {
				return err
			}
			if err := tx.AdjustPlayerVotes(previous.PlayerID, -1); err != nil {
				return err
			}
			if err := tx.DeleteVote(prior.ID); err != nil {
				return err
			}
			outcome.PreviousSubmissionID = previous.ID
		}

		vote := Vote{
			ID:           newID(),
			RoomID:       room.ID,
			RoundNumber:  room.CurrentRound,
			VoterID:      voter.ID,
			SubmissionID: target.ID,
			CreatedAt:    e.clock(),
		}
		if err := tx.InsertVote(&vote); err != nil {
			return err
		}
		if err := tx.AdjustSubmissionVotes(target.ID, 1); err != nil {
			return err
		}
		if err := tx.AdjustPlayerVotes(target.PlayerID, 1); err != nil {
			return err
		}
		eventType := eventVoteCast
		if outcome.PreviousSubmissionID != "" {
			eventType = eventVoteReplaced
		}
		if err := e.appendEvent(tx, room, voter.ID, eventType, EventPayload{
			SubmissionID: target.ID,
			PreviousID:   outcome.PreviousSubmissionID,
		}); err != nil {
			return err
		}
		outcome.Vote = vote
		outcome.Changed = true

		players, err := tx.Players(room.ID)
		if err != nil {
			return err
		}
		submissions, err := tx.Submissions(room.ID, room.CurrentRound)
		if err != nil {
			return err
		}
		votes, err = tx.Votes(room.ID, room.CurrentRound)
		if err != nil {
			return err
		}
		if roundFullyVoted(players, submissions, votes) {
			if err := e.advance(tx, &room, StatusResults, closeReasonAllVoted); err != nil {
				return err
			}
			outcome.RoundComplete = true
		} else {
			room.UpdatedAt = e.clock()
			if err := tx.UpdateRoom(&room); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return VoteOutcome{}, err
	}
	if !outcome.Changed {
		return outcome, nil
	}
	e.logger.Info("vote cast",
		zap.String("room_id", roomID),
		zap.String("voter_id", voterID),
		zap.String("submission_id", submissionID),
		zap.Bool("replaced", outcome.PreviousSubmissionID != ""),
	)
	changes := []Change{
		{RoomID: roomID, Record: RecordVotes},
		{RoomID: roomID, Record: RecordSubmissions},
		{RoomID: roomID, Record: RecordPlayers},
	}
	if outcome.RoundComplete {
		e.logger.Info("round fully voted", zap.String("room_id", roomID), zap.Int("round", round))
		changes = append(changes, Change{RoomID: roomID, Record: RecordRoom})
	}
	e.publish(ctx, changes...)
	return outcome, nil
}

// ReloadHand swaps the player's whole hand for a smaller fresh one. A player
// may do this once per round.
func (e *Engine) ReloadHand(ctx context.Context, roomID, playerID string) ([]WordCard, error) {
	var hand []WordCard
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		player, err := loadSeatedPlayer(tx, room, playerID)
		if err != nil {
			return err
		}
		if room.Status != StatusPlaying {
			return ErrWrongPhase
		}
		if player.reloadedIn(room.CurrentRound) {
			return ErrAlreadyReloaded
		}
		if err := e.replaceHand(tx, player.ID, e.rules.ReloadHandSize); err != nil {
			return err
		}
		round := room.CurrentRound
		player.HandReloadedRound = &round
		if err := tx.UpdatePlayer(&player); err != nil {
			return err
		}
		hand, err = handCards(tx, player.ID)
		if err != nil {
			return err
		}
		return e.appendEvent(tx, room, player.ID, eventHandReloaded, EventPayload{Count: len(hand)})
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("hand reloaded", zap.String("room_id", roomID), zap.String("player_id", playerID))
	e.publish(ctx, Change{RoomID: roomID, Record: RecordHand, PlayerID: playerID}, Change{RoomID: roomID, Record: RecordPlayers})
	return hand, nil
}

// Leaderboard orders players by total votes, highest first. Ties keep the
// order players joined in.
func Leaderboard(players []Player) []Player {
	ranked := append([]Player(nil), players...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalVotes > ranked[j].TotalVotes
	})
	return ranked
}

// roundFullyVoted reports whether every seated player who has someone else's
// submission to vote for has voted. A round without submissions is never
// fully voted.
func roundFullyVoted(players []Player, submissions []Submission, votes []Vote) bool {
	if len(players) == 0 || len(submissions) == 0 {
		return false
	}
	voted := make(map[string]bool, len(votes))
	for _, vote := range votes {
		voted[vote.VoterID] = true
	}
	for _, player := range players {
		if !hasEligibleTarget(player.ID, submissions) {
			continue
		}
		if !voted[player.ID] {
			return false
		}
	}
	return true
}

func hasEligibleTarget(playerID string, submissions []Submission) bool {
	for _, sub := range submissions {
		if sub.PlayerID != playerID {
			return true
		}
	}
	return false
}

func containsAll(set []string, ids ...string) bool {
	index := make(map[string]bool, len(set))
	for _, id := range set {
		index[id] = true
	}
	for _, id := range ids {
		if !index[id] {
			return false
		}
	}
	return true
}
