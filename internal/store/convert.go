package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"title-party/internal/db"
	"title-party/internal/game"
)

func toRoom(record db.Room) (game.Room, error) {
	status, err := game.ParseStatus(record.Status)
	if err != nil {
		return game.Room{}, fmt.Errorf("%w: room %s has unknown status %q", game.ErrUnavailable, record.ID, record.Status)
	}
	room := game.Room{
		ID:                  record.ID,
		Code:                record.Code,
		HostID:              record.HostID,
		Status:              status,
		MaxPlayers:          record.MaxPlayers,
		TotalRounds:         record.TotalRounds,
		CurrentRound:        record.CurrentRound,
		CurrentViewingIndex: record.CurrentViewingIndex,
		ShowAllSubmissions:  record.ShowAllSubmissions,
		PhaseStartedAt:      record.PhaseStartedAt.UTC(),
		Version:             record.Version,
		CreatedAt:           record.CreatedAt.UTC(),
		UpdatedAt:           record.UpdatedAt.UTC(),
	}
	if record.CurrentThemeID != nil {
		room.CurrentThemeID = *record.CurrentThemeID
	}
	if record.RoundEndTime != nil {
		end := record.RoundEndTime.UTC()
		room.RoundEndTime = &end
	}
	return room, nil
}

func fromRoom(room game.Room) db.Room {
	return db.Room{
		ID:                  room.ID,
		Code:                room.Code,
		HostID:              room.HostID,
		Status:              room.Status.String(),
		MaxPlayers:          room.MaxPlayers,
		TotalRounds:         room.TotalRounds,
		CurrentRound:        room.CurrentRound,
		CurrentThemeID:      optionalString(room.CurrentThemeID),
		RoundEndTime:        room.RoundEndTime,
		CurrentViewingIndex: room.CurrentViewingIndex,
		ShowAllSubmissions:  room.ShowAllSubmissions,
		PhaseStartedAt:      room.PhaseStartedAt,
		Version:             room.Version,
		CreatedAt:           room.CreatedAt,
		UpdatedAt:           room.UpdatedAt,
	}
}

func toPlayer(record db.Player) game.Player {
	return game.Player{
		ID:                record.ID,
		RoomID:            record.RoomID,
		Nickname:          record.Nickname,
		Avatar:            record.Avatar,
		TotalVotes:        record.TotalVotes,
		HandReloadedRound: record.HandReloadedRound,
		JoinedAt:          record.JoinedAt.UTC(),
	}
}

func fromPlayer(player game.Player) db.Player {
	return db.Player{
		ID:                player.ID,
		RoomID:            player.RoomID,
		Nickname:          player.Nickname,
		Avatar:            player.Avatar,
		TotalVotes:        player.TotalVotes,
		HandReloadedRound: player.HandReloadedRound,
		JoinedAt:          player.JoinedAt,
		CreatedAt:         player.JoinedAt,
		UpdatedAt:         player.JoinedAt,
	}
}

func toSubmission(record db.Submission) (game.Submission, error) {
	var order game.WordOrder
	if err := json.Unmarshal(record.WordOrder, &order); err != nil {
		return game.Submission{}, fmt.Errorf("decode submission %s word order: %w", record.ID, err)
	}
	return game.Submission{
		ID:            record.ID,
		RoomID:        record.RoomID,
		PlayerID:      record.PlayerID,
		RoundNumber:   record.RoundNumber,
		Card1ID:       record.Card1ID,
		Card2ID:       record.Card2ID,
		FreeWord:      record.FreeWord,
		WordOrder:     order,
		VotesReceived: record.VotesReceived,
		CreatedAt:     record.CreatedAt.UTC(),
	}, nil
}

func fromSubmission(submission game.Submission) (db.Submission, error) {
	order, err := json.Marshal(submission.WordOrder)
	if err != nil {
		return db.Submission{}, err
	}
	return db.Submission{
		ID:            submission.ID,
		RoomID:        submission.RoomID,
		PlayerID:      submission.PlayerID,
		RoundNumber:   submission.RoundNumber,
		Card1ID:       submission.Card1ID,
		Card2ID:       submission.Card2ID,
		FreeWord:      submission.FreeWord,
		WordOrder:     datatypes.JSON(order),
		VotesReceived: submission.VotesReceived,
		CreatedAt:     submission.CreatedAt,
	}, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
