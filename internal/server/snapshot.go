package server

import (
	"time"

	"title-party/internal/game"
)

func roomPayload(room game.Room) map[string]any {
	return map[string]any{
		"id":                    room.ID,
		"code":                  room.Code,
		"host_id":               room.HostID,
		"status":                room.Status.String(),
		"max_players":           room.MaxPlayers,
		"total_rounds":          room.TotalRounds,
		"current_round":         room.CurrentRound,
		"current_theme_id":      room.CurrentThemeID,
		"round_end_time":        formatOptionalTime(room.RoundEndTime),
		"current_viewing_index": room.CurrentViewingIndex,
		"show_all_submissions":  room.ShowAllSubmissions,
		"phase_started_at":      formatTime(room.PhaseStartedAt),
		"created_at":            formatTime(room.CreatedAt),
		"updated_at":            formatTime(room.UpdatedAt),
	}
}

func playerPayload(player game.Player) map[string]any {
	var reloaded any
	if player.HandReloadedRound != nil {
		reloaded = *player.HandReloadedRound
	}
	return map[string]any{
		"id":                  player.ID,
		"room_id":             player.RoomID,
		"nickname":            player.Nickname,
		"avatar":              player.Avatar,
		"total_votes":         player.TotalVotes,
		"hand_reloaded_round": reloaded,
		"joined_at":           formatTime(player.JoinedAt),
	}
}

func playersPayload(players []game.Player) []map[string]any {
	out := make([]map[string]any, 0, len(players))
	for _, player := range players {
		out = append(out, playerPayload(player))
	}
	return out
}

func cardsPayload(cards []game.WordCard) []map[string]any {
	out := make([]map[string]any, 0, len(cards))
	for _, card := range cards {
		out = append(out, map[string]any{
			"id":   card.ID,
			"word": card.Word,
		})
	}
	return out
}

func submissionPayload(sub game.Submission) map[string]any {
	return map[string]any{
		"id":             sub.ID,
		"room_id":        sub.RoomID,
		"player_id":      sub.PlayerID,
		"round_number":   sub.RoundNumber,
		"card1_id":       sub.Card1ID,
		"card2_id":       sub.Card2ID,
		"free_word":      sub.FreeWord,
		"word_order":     sub.WordOrder[:],
		"votes_received": sub.VotesReceived,
		"created_at":     formatTime(sub.CreatedAt),
	}
}

func submissionViewPayload(view game.SubmissionView) map[string]any {
	payload := submissionPayload(view.Submission)
	slots := make([]map[string]any, 0, len(view.Slots))
	for _, slot := range view.Slots {
		slots = append(slots, map[string]any{
			"kind":    slot.Kind.String(),
			"card_id": slot.CardID,
			"text":    slot.Text,
		})
	}
	payload["nickname"] = view.Nickname
	payload["title"] = view.Title
	payload["slots"] = slots
	return payload
}

func votePayload(vote game.Vote) map[string]any {
	return map[string]any{
		"id":            vote.ID,
		"room_id":       vote.RoomID,
		"round_number":  vote.RoundNumber,
		"voter_id":      vote.VoterID,
		"submission_id": vote.SubmissionID,
		"created_at":    formatTime(vote.CreatedAt),
	}
}

func eventPayload(event game.Event) map[string]any {
	return map[string]any{
		"id":           event.ID,
		"room_id":      event.RoomID,
		"player_id":    event.PlayerID,
		"round_number": event.RoundNumber,
		"type":         event.Type,
		"payload":      event.Payload,
		"created_at":   formatTime(event.CreatedAt),
	}
}

func snapshotPayload(snap game.Snapshot) map[string]any {
	submissions := make([]map[string]any, 0, len(snap.Submissions))
	for _, view := range snap.Submissions {
		submissions = append(submissions, submissionViewPayload(view))
	}
	votes := make([]map[string]any, 0, len(snap.Votes))
	for _, vote := range snap.Votes {
		votes = append(votes, votePayload(vote))
	}
	var theme map[string]any
	if snap.Theme != nil {
		theme = map[string]any{
			"id":          snap.Theme.ID,
			"name":        snap.Theme.Name,
			"description": snap.Theme.Description,
		}
	}
	var viewer map[string]any
	if snap.Viewer != nil {
		var vote map[string]any
		if snap.Viewer.Vote != nil {
			vote = votePayload(*snap.Viewer.Vote)
		}
		viewer = map[string]any{
			"player":     playerPayload(snap.Viewer.Player),
			"is_host":    snap.Viewer.IsHost,
			"hand":       cardsPayload(snap.Viewer.Hand),
			"submitted":  snap.Viewer.Submitted,
			"vote":       vote,
			"can_reload": snap.Viewer.CanReload,
		}
	}
	return map[string]any{
		"type":              "snapshot",
		"room":              roomPayload(snap.Room),
		"theme":             theme,
		"players":           playersPayload(snap.Players),
		"leaderboard":       playersPayload(snap.Leaderboard),
		"submissions":       submissions,
		"votes":             votes,
		"phase":             string(snap.Phase),
		"seconds_remaining": snap.SecondsRemaining,
		"viewer":            viewer,
		"server_time":       formatTime(snap.Now),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
