package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"title-party/internal/db"
	"title-party/internal/game"
)

// GormStore is the Postgres game.Repository.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

func (s *GormStore) Atomically(ctx context.Context, fn func(tx game.Tx) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("%w: database is not configured", game.ErrConfiguration)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
	return translateError(err)
}

// Ping checks that the database answers.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return translateError(err)
	}
	return translateError(sqlDB.PingContext(ctx))
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case game.Kind(err) != nil:
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", game.ErrNotFound, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %w", game.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", game.ErrUnavailable, err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Room(id string) (game.Room, error) {
	var record db.Room
	if err := t.db.Where("id = ?", id).First(&record).Error; err != nil {
		return game.Room{}, translateError(err)
	}
	return toRoom(record)
}

func (t *gormTx) RoomForUpdate(id string) (game.Room, error) {
	var record db.Room
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&record).Error
	if err != nil {
		return game.Room{}, translateError(err)
	}
	return toRoom(record)
}

func (t *gormTx) RoomByCode(code string) (game.Room, error) {
	var record db.Room
	if err := t.db.Where("code = ?", code).First(&record).Error; err != nil {
		return game.Room{}, translateError(err)
	}
	return toRoom(record)
}

func (t *gormTx) RoomsByStatus(statuses ...game.Status) ([]game.Room, error) {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, status.String())
	}
	var records []db.Room
	if err := t.db.Where("status IN ?", names).Order("created_at").Find(&records).Error; err != nil {
		return nil, translateError(err)
	}
	rooms := make([]game.Room, 0, len(records))
	for _, record := range records {
		room, err := toRoom(record)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (t *gormTx) InsertRoom(room *game.Room) error {
	room.Version = 1
	record := fromRoom(*room)
	return translateError(t.db.Create(&record).Error)
}

func (t *gormTx) UpdateRoom(room *game.Room) error {
	record := fromRoom(*room)
	res := t.db.Model(&db.Room{}).
		Where("id = ? AND version = ?", room.ID, room.Version).
		Updates(map[string]any{
			"host_id":               record.HostID,
			"status":                record.Status,
			"max_players":           record.MaxPlayers,
			"total_rounds":          record.TotalRounds,
			"current_round":         record.CurrentRound,
			"current_theme_id":      record.CurrentThemeID,
			"round_end_time":        record.RoundEndTime,
			"current_viewing_index": record.CurrentViewingIndex,
			"show_all_submissions":  record.ShowAllSubmissions,
			"phase_started_at":      record.PhaseStartedAt,
			"version":               room.Version + 1,
			"updated_at":            record.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: room %s changed concurrently", game.ErrConflict, room.ID)
	}
	room.Version++
	return nil
}

func (t *gormTx) Players(roomID string) ([]game.Player, error) {
	var records []db.Player
	if err := t.db.Where("room_id = ?", roomID).Order("joined_at, created_at").Find(&records).Error; err != nil {
		return nil, translateError(err)
	}
	players := make([]game.Player, 0, len(records))
	for _, record := range records {
		players = append(players, toPlayer(record))
	}
	return players, nil
}

func (t *gormTx) Player(id string) (game.Player, error) {
	var record db.Player
	if err := t.db.Where("id = ?", id).First(&record).Error; err != nil {
		return game.Player{}, translateError(err)
	}
	return toPlayer(record), nil
}

func (t *gormTx) InsertPlayer(player *game.Player) error {
	record := fromPlayer(*player)
	return translateError(t.db.Create(&record).Error)
}

func (t *gormTx) UpdatePlayer(player *game.Player) error {
	res := t.db.Model(&db.Player{}).Where("id = ?", player.ID).Updates(map[string]any{
		"nickname":            player.Nickname,
		"avatar":              player.Avatar,
		"hand_reloaded_round": player.HandReloadedRound,
		"updated_at":          time.Now().UTC(),
	})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: player %s", game.ErrNotFound, player.ID)
	}
	return nil
}

func (t *gormTx) DeletePlayer(id string) error {
	if err := t.db.Where("player_id = ?", id).Delete(&db.HandCard{}).Error; err != nil {
		return translateError(err)
	}
	res := t.db.Where("id = ?", id).Delete(&db.Player{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: player %s", game.ErrNotFound, id)
	}
	return nil
}

func (t *gormTx) AdjustPlayerVotes(playerID string, delta int) error {
	res := t.db.Model(&db.Player{}).Where("id = ?", playerID).
		Update("total_votes", gorm.Expr("GREATEST(total_votes + ?, 0)", delta))
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: player %s", game.ErrNotFound, playerID)
	}
	return nil
}

func (t *gormTx) CardIDs() ([]string, error) {
	var ids []string
	if err := t.db.Model(&db.WordCard{}).Order("word").Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

func (t *gormTx) Cards(ids []string) ([]game.WordCard, error) {
	var records []db.WordCard
	if err := t.db.Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, translateError(err)
	}
	byID := make(map[string]db.WordCard, len(records))
	for _, record := range records {
		byID[record.ID] = record
	}
	cards := make([]game.WordCard, 0, len(records))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		record, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		cards = append(cards, game.WordCard{ID: record.ID, Word: record.Word})
	}
	return cards, nil
}

func (t *gormTx) ThemeIDs() ([]string, error) {
	var ids []string
	if err := t.db.Model(&db.Theme{}).Order("name").Pluck("id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

func (t *gormTx) Theme(id string) (game.Theme, error) {
	var record db.Theme
	if err := t.db.Where("id = ?", id).First(&record).Error; err != nil {
		return game.Theme{}, translateError(err)
	}
	return game.Theme{ID: record.ID, Name: record.Name, Description: record.Description}, nil
}

func (t *gormTx) Hand(playerID string) ([]string, error) {
	var ids []string
	err := t.db.Model(&db.HandCard{}).Where("player_id = ?", playerID).Order("id").Pluck("word_card_id", &ids).Error
	if err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

func (t *gormTx) AddToHand(playerID string, cardIDs []string) error {
	if len(cardIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	records := make([]db.HandCard, 0, len(cardIDs))
	for _, id := range cardIDs {
		records = append(records, db.HandCard{PlayerID: playerID, WordCardID: id, CreatedAt: now})
	}
	return translateError(t.db.Create(&records).Error)
}

func (t *gormTx) RemoveFromHand(playerID string, cardIDs []string) error {
	if len(cardIDs) == 0 {
		return nil
	}
	err := t.db.Where("player_id = ? AND word_card_id IN ?", playerID, cardIDs).Delete(&db.HandCard{}).Error
	return translateError(err)
}

func (t *gormTx) ClearHand(playerID string) error {
	return translateError(t.db.Where("player_id = ?", playerID).Delete(&db.HandCard{}).Error)
}

func (t *gormTx) InsertSubmission(submission *game.Submission) error {
	record, err := fromSubmission(*submission)
	if err != nil {
		return err
	}
	return translateError(t.db.Create(&record).Error)
}

func (t *gormTx) Submission(id string) (game.Submission, error) {
	var record db.Submission
	if err := t.db.Where("id = ?", id).First(&record).Error; err != nil {
		return game.Submission{}, translateError(err)
	}
	return toSubmission(record)
}

func (t *gormTx) Submissions(roomID string, round int) ([]game.Submission, error) {
	var records []db.Submission
	err := t.db.Where("room_id = ? AND round_number = ?", roomID, round).Order("created_at, id").Find(&records).Error
	if err != nil {
		return nil, translateError(err)
	}
	submissions := make([]game.Submission, 0, len(records))
	for _, record := range records {
		submission, err := toSubmission(record)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	return submissions, nil
}

func (t *gormTx) AdjustSubmissionVotes(id string, delta int) error {
	res := t.db.Model(&db.Submission{}).Where("id = ?", id).
		Update("votes_received", gorm.Expr("GREATEST(votes_received + ?, 0)", delta))
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: submission %s", game.ErrNotFound, id)
	}
	return nil
}

func (t *gormTx) Votes(roomID string, round int) ([]game.Vote, error) {
	var records []db.Vote
	err := t.db.Where("room_id = ? AND round_number = ?", roomID, round).Order("created_at, id").Find(&records).Error
	if err != nil {
		return nil, translateError(err)
	}
	votes := make([]game.Vote, 0, len(records))
	for _, record := range records {
		votes = append(votes, game.Vote{
			ID:           record.ID,
			RoomID:       record.RoomID,
			RoundNumber:  record.RoundNumber,
			VoterID:      record.VoterID,
			SubmissionID: record.SubmissionID,
			CreatedAt:    record.CreatedAt,
		})
	}
	return votes, nil
}

func (t *gormTx) InsertVote(vote *game.Vote) error {
	record := db.Vote{
		ID:           vote.ID,
		RoomID:       vote.RoomID,
		RoundNumber:  vote.RoundNumber,
		VoterID:      vote.VoterID,
		SubmissionID: vote.SubmissionID,
		CreatedAt:    vote.CreatedAt,
	}
	return translateError(t.db.Create(&record).Error)
}

func (t *gormTx) DeleteVote(id string) error {
	res := t.db.Where("id = ?", id).Delete(&db.Vote{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: vote %s already removed", game.ErrConflict, id)
	}
	return nil
}

func (t *gormTx) AppendEvent(event *game.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	record := db.Event{
		ID:          event.ID,
		RoomID:      event.RoomID,
		PlayerID:    optionalString(event.PlayerID),
		RoundNumber: event.RoundNumber,
		Type:        event.Type,
		Payload:     datatypes.JSON(payload),
		CreatedAt:   event.CreatedAt,
	}
	return translateError(t.db.Create(&record).Error)
}

func (t *gormTx) Events(roomID string) ([]game.Event, error) {
	var records []db.Event
	if err := t.db.Where("room_id = ?", roomID).Order("created_at, id").Find(&records).Error; err != nil {
		return nil, translateError(err)
	}
	events := make([]game.Event, 0, len(records))
	for _, record := range records {
		event := game.Event{
			ID:          record.ID,
			RoomID:      record.RoomID,
			RoundNumber: record.RoundNumber,
			Type:        record.Type,
			CreatedAt:   record.CreatedAt,
		}
		if record.PlayerID != nil {
			event.PlayerID = *record.PlayerID
		}
		if len(record.Payload) > 0 {
			if err := json.Unmarshal(record.Payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("decode event %s payload: %w", record.ID, err)
			}
		}
		events = append(events, event)
	}
	return events, nil
}
