package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

type CreateRoomParams struct {
	Nickname    string
	MaxPlayers  int
	TotalRounds int
}

// Seat is what a player receives on creating or joining a room.
type Seat struct {
	Room   Room
	Player Player
	Hand   []WordCard
}

const avatarCount = 6

func (e *Engine) CreateRoom(ctx context.Context, params CreateRoomParams) (Seat, error) {
	nickname, err := e.validateNickname(params.Nickname)
	if err != nil {
		return Seat{}, err
	}
	if params.MaxPlayers < e.rules.MinPlayers || params.MaxPlayers > e.rules.MaxPlayers {
		return Seat{}, fmt.Errorf("%w: max players must be between %d and %d", ErrInvalidSettings, e.rules.MinPlayers, e.rules.MaxPlayers)
	}
	if params.TotalRounds < 1 || params.TotalRounds > e.rules.MaxRounds {
		return Seat{}, fmt.Errorf("%w: rounds must be between 1 and %d", ErrInvalidSettings, e.rules.MaxRounds)
	}

	for attempt := 0; attempt < e.rules.CodeAttempts; attempt++ {
		code, err := e.newCode()
		if err != nil {
			return Seat{}, err
		}
		var seat Seat
		err = e.repo.Atomically(ctx, func(tx Tx) error {
			now := e.clock()
			room := Room{
				ID:             newID(),
				Code:           code,
				Status:         StatusWaiting,
				MaxPlayers:     params.MaxPlayers,
				TotalRounds:    params.TotalRounds,
				PhaseStartedAt: now,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			host := Player{
				ID:       newID(),
				RoomID:   room.ID,
				Nickname: nickname,
				Avatar:   "1",
				JoinedAt: now,
			}
			room.HostID = host.ID
			if err := tx.InsertRoom(&room); err != nil {
				return err
			}
			if err := tx.InsertPlayer(&host); err != nil {
				return err
			}
			if _, err := e.deal(tx, host.ID, e.rules.HandSize); err != nil {
				return err
			}
			hand, err := handCards(tx, host.ID)
			if err != nil {
				return err
			}
			if err := e.appendEvent(tx, room, host.ID, eventRoomCreated, EventPayload{Code: room.Code, Nickname: host.Nickname}); err != nil {
				return err
			}
			seat = Seat{Room: room, Player: host, Hand: hand}
			return nil
		})
		if errors.Is(err, ErrConflict) {
			e.logger.Info("room code collision", zap.String("code", code), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return Seat{}, err
		}
		e.logger.Info("room created",
			zap.String("room_id", seat.Room.ID),
			zap.String("code", seat.Room.Code),
			zap.String("host_id", seat.Player.ID),
		)
		e.publish(ctx, Change{RoomID: seat.Room.ID, Record: RecordRoom}, Change{RoomID: seat.Room.ID, Record: RecordPlayers})
		return seat, nil
	}
	return Seat{}, ErrCodeExhausted
}

// JoinRoom seats a new player in a waiting room found by its code. The code is
// matched case-insensitively.
func (e *Engine) JoinRoom(ctx context.Context, code, nickname string) (Seat, error) {
	nickname, err := e.validateNickname(nickname)
	if err != nil {
		return Seat{}, err
	}
	code = NormalizeRoomCode(code)
	if !ValidRoomCode(code) {
		return Seat{}, ErrRoomNotFound
	}

	var seat Seat
	err = e.repo.Atomically(ctx, func(tx Tx) error {
		found, err := tx.RoomByCode(code)
		if errors.Is(err, ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		room, err := loadRoom(tx, found.ID)
		if err != nil {
			return err
		}
		if room.Status != StatusWaiting {
			return ErrRoomNotFound
		}
		players, err := tx.Players(room.ID)
		if err != nil {
			return err
		}
		if len(players) >= room.MaxPlayers {
			return ErrRoomFull
		}

		now := e.clock()
		player := Player{
			ID:       newID(),
			RoomID:   room.ID,
			Nickname: nickname,
			Avatar:   strconv.Itoa(e.intN(avatarCount) + 1),
			JoinedAt: now,
		}
		if err := tx.InsertPlayer(&player); err != nil {
			return err
		}
		if room.HostID == "" {
			room.HostID = player.ID
		}
		// Bumping the room version serializes concurrent joins against the
		// capacity check above.
		room.UpdatedAt = now
		if err := tx.UpdateRoom(&room); err != nil {
			return err
		}
		if _, err := e.deal(tx, player.ID, e.rules.HandSize); err != nil {
			return err
		}
		hand, err := handCards(tx, player.ID)
		if err != nil {
			return err
		}
		if err := e.appendEvent(tx, room, player.ID, eventPlayerJoined, EventPayload{Nickname: player.Nickname}); err != nil {
			return err
		}
		seat = Seat{Room: room, Player: player, Hand: hand}
		return nil
	})
	if err != nil {
		return Seat{}, err
	}
	e.logger.Info("player joined",
		zap.String("room_id", seat.Room.ID),
		zap.String("player_id", seat.Player.ID),
	)
	e.publish(ctx, Change{RoomID: seat.Room.ID, Record: RecordPlayers}, Change{RoomID: seat.Room.ID, Record: RecordRoom})
	return seat, nil
}

// LeaveRoom removes a player from a room that has not started. When the host
// leaves, the earliest remaining player becomes host.
func (e *Engine) LeaveRoom(ctx context.Context, roomID, playerID string) (Room, error) {
	var updated Room
	err := e.repo.Atomically(ctx, func(tx Tx) error {
		room, err := loadRoom(tx, roomID)
		if err != nil {
			return err
		}
		player, err := loadSeatedPlayer(tx, room, playerID)
		if err != nil {
			return err
		}
		if room.Status != StatusWaiting {
			return ErrWrongPhase
		}
		if err := tx.ClearHand(player.ID); err != nil {
			return err
		}
		if err := tx.DeletePlayer(player.ID); err != nil {
			return err
		}
		if room.HostID == player.ID {
			remaining, err := tx.Players(room.ID)
			if err != nil {
				return err
			}
			room.HostID = ""
			if len(remaining) > 0 {
				room.HostID = remaining[0].ID
			}
		}
		room.UpdatedAt = e.clock()
		if err := tx.UpdateRoom(&room); err != nil {
			return err
		}
		if err := e.appendEvent(tx, room, player.ID, eventPlayerLeft, EventPayload{Nickname: player.Nickname}); err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.logger.Info("player left", zap.String("room_id", roomID), zap.String("player_id", playerID))
	e.publish(ctx, Change{RoomID: roomID, Record: RecordPlayers}, Change{RoomID: roomID, Record: RecordRoom})
	return updated, nil
}
