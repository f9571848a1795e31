package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSeat struct {
	roomID   string
	code     string
	playerID string
}

func createRoom(t *testing.T, app *testApp, nickname string) testSeat {
	t.Helper()
	resp := doRequest(t, app.ts, http.MethodPost, "/api/rooms", map[string]any{
		"nickname":     nickname,
		"max_players":  6,
		"total_rounds": 2,
	})
	body := expectStatus(t, resp, http.StatusCreated)
	room := body["room"].(map[string]any)
	player := body["player"].(map[string]any)
	return testSeat{
		roomID:   room["id"].(string),
		code:     room["code"].(string),
		playerID: player["id"].(string),
	}
}

func joinRoom(t *testing.T, app *testApp, code, nickname string) string {
	t.Helper()
	resp := doRequest(t, app.ts, http.MethodPost, "/api/rooms/join", map[string]any{
		"code":     code,
		"nickname": nickname,
	})
	body := expectStatus(t, resp, http.StatusOK)
	return body["player"].(map[string]any)["id"].(string)
}

func fetchSnapshot(t *testing.T, app *testApp, roomID, playerID string) map[string]any {
	t.Helper()
	path := "/api/rooms/" + roomID
	if playerID != "" {
		path += "?player_id=" + playerID
	}
	return expectStatus(t, doRequest(t, app.ts, http.MethodGet, path, nil), http.StatusOK)
}

func roomStatus(t *testing.T, app *testApp, roomID string) string {
	t.Helper()
	return fetchSnapshot(t, app, roomID, "")["room"].(map[string]any)["status"].(string)
}

func handIDs(t *testing.T, app *testApp, roomID, playerID string) []string {
	t.Helper()
	viewer, ok := fetchSnapshot(t, app, roomID, playerID)["viewer"].(map[string]any)
	require.True(t, ok, "snapshot has no viewer")
	var ids []string
	for _, card := range viewer["hand"].([]any) {
		ids = append(ids, card.(map[string]any)["id"].(string))
	}
	return ids
}

// seatTable creates a room with n players and returns the host first.
func seatTable(t *testing.T, app *testApp, n int) (testSeat, []string) {
	t.Helper()
	host := createRoom(t, app, "host")
	ids := []string{host.playerID}
	for i := 1; i < n; i++ {
		ids = append(ids, joinRoom(t, app, host.code, "guest"+string(rune('A'+i))))
	}
	return host, ids
}

func post(t *testing.T, app *testApp, roomID, action string, payload any) *http.Response {
	t.Helper()
	return doRequest(t, app.ts, http.MethodPost, "/api/rooms/"+roomID+"/"+action, payload)
}

func startPlaying(t *testing.T, app *testApp, host testSeat) {
	t.Helper()
	expectStatus(t, post(t, app, host.roomID, "start", map[string]any{"player_id": host.playerID}), http.StatusOK)
	expectStatus(t, post(t, app, host.roomID, "countdown", nil), http.StatusOK)
	expectStatus(t, post(t, app, host.roomID, "play", nil), http.StatusOK)
}

func submitFirstCards(t *testing.T, app *testApp, roomID, playerID string, round int) string {
	t.Helper()
	hand := handIDs(t, app, roomID, playerID)
	require.GreaterOrEqual(t, len(hand), 2)
	resp := post(t, app, roomID, "submissions", map[string]any{
		"player_id":  playerID,
		"round":      round,
		"card1_id":   hand[0],
		"card2_id":   hand[1],
		"free_word":  "の",
		"word_order": []int{1, 3, 2},
	})
	body := expectStatus(t, resp, http.StatusCreated)
	return body["submission"].(map[string]any)["id"].(string)
}
