package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginateClampsPage(t *testing.T) {
	meta, start, end := paginate(3, 10, 25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	meta, start, end = paginate(9, 10, 25)
	assert.Equal(t, 3, meta.Page)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	meta, start, end = paginate(1, 10, 0)
	assert.Equal(t, 1, meta.TotalPages)
	assert.Zero(t, start)
	assert.Zero(t, end)
}

func TestEventsArePaged(t *testing.T) {
	app := newTestApp(t, testConfig())
	host, _ := seatTable(t, app, 3)

	body := expectStatus(t, doRequest(t, app.ts, http.MethodGet, "/api/rooms/"+host.roomID+"/events?page=2&per_page=2", nil), http.StatusOK)
	events := body["events"].([]any)
	assert.Len(t, events, 1)
	assert.Equal(t, "player_joined", events[0].(map[string]any)["type"])
	meta := body["pagination"].(map[string]any)
	assert.Equal(t, float64(3), meta["total"])
	assert.Equal(t, false, meta["has_next"])
}
