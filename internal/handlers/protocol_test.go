package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"four-line-dropper/backend/internal/arbiter"
	"four-line-dropper/backend/internal/config"
	"four-line-dropper/backend/internal/database"
	ws "four-line-dropper/backend/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenAndMigrate(filepath.Join(t.TempDir(), "game.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		PlayerCountLimit:     config.DefaultPlayerCountLimit,
		TurnSeconds:          config.DefaultTurnSeconds,
		GameCleanupTimeout:   1586,
		PlayerCleanupTimeout: config.DefaultPlayerCleanupSeconds,
		CleanupInterval:      config.DefaultCleanupIntervalSeconds * time.Second,
		RequestQueueSize:     config.DefaultRequestQueueSize,
	}
	arb := arbiter.New(db, cfg)
	go arb.Run()
	t.Cleanup(arb.Stop)

	r := gin.New()
	RegisterRoutes(r, NewAPI(arb), ws.NewRegistry())
	return r
}

func post(t *testing.T, r *gin.Engine, body string) response {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "protocol replies are always HTTP 200")

	var res response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestDispatchRejectsMalformedRequests(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, "invalid_syntax", post(t, r, "not json").Type)
	assert.Equal(t, "invalid_json", post(t, r, `{"id": 3}`).Type, "missing type field")
	assert.Equal(t, "invalid_json", post(t, r, `{"type": 3}`).Type, "type must be a string")
	assert.Equal(t, "invalid_type", post(t, r, `{"type": "launch_missiles"}`).Type)

	assert.Equal(t, "invalid_syntax", post(t, r, `{"type": "check_pairing"}`).Type, "missing id")
	assert.Equal(t, "invalid_syntax", post(t, r, `{"type": "check_pairing", "id": -1}`).Type)
	assert.Equal(t, "invalid_syntax", post(t, r, `{"type": "check_pairing", "id": 1.5}`).Type)
	assert.Equal(t, "invalid_syntax", post(t, r, `{"type": "place_token", "id": 1}`).Type, "missing position")
}

func TestPairingOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	first := post(t, r, `{"type": "pairing_request"}`)
	assert.Equal(t, "pairing_response", first.Type)
	assert.Equal(t, "waiting", first.Status)
	require.NotNil(t, first.ID)

	second := post(t, r, `{"type": "pairing_request", "phrase": ""}`)
	assert.Equal(t, "paired", second.Status)
	assert.Equal(t, "magenta", second.Color)
	require.NotNil(t, second.ID)

	status := post(t, r, fmt.Sprintf(`{"type": "check_pairing", "id": %d}`, *first.ID))
	assert.Equal(t, "pairing_status", status.Type)
	assert.Equal(t, "paired", status.Status)
	assert.Equal(t, "cyan", status.Color)

	unknown := post(t, r, `{"type": "check_pairing", "id": 1}`)
	assert.Equal(t, "unknown_id", unknown.Status)
}

func TestGamePlayOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	cyan := post(t, r, `{"type": "pairing_request"}`)
	require.NotNil(t, cyan.ID)
	magenta := post(t, r, `{"type": "pairing_request"}`)
	require.NotNil(t, magenta.ID)
	require.Equal(t, "paired", magenta.Status)

	res := post(t, r, fmt.Sprintf(`{"type": "place_token", "id": %d, "position": 0}`, *magenta.ID))
	assert.Equal(t, "not_your_turn", res.Status)

	res = post(t, r, fmt.Sprintf(`{"type": "place_token", "id": %d, "position": 0}`, *cyan.ID))
	assert.Equal(t, "accepted", res.Status)
	require.Len(t, res.Board, 56)
	assert.Equal(t, byte('f'), res.Board[49])

	res = post(t, r, fmt.Sprintf(`{"type": "place_token", "id": %d, "position": 49}`, *magenta.ID))
	assert.Equal(t, "illegal", res.Status)

	// Emotes travel via game_state polls.
	res = post(t, r, fmt.Sprintf(`{"type": "send_emote", "id": %d, "emote": "smile"}`, *cyan.ID))
	assert.Equal(t, "send_emote", res.Type)
	assert.Equal(t, "ok", res.Status)

	res = post(t, r, fmt.Sprintf(`{"type": "send_emote", "id": %d, "emote": "smirk"}`, *cyan.ID))
	assert.Equal(t, "invalid_syntax", res.Type)

	state := post(t, r, fmt.Sprintf(`{"type": "game_state", "id": %d}`, *magenta.ID))
	assert.Equal(t, "game_state", state.Type)
	assert.Equal(t, "magenta_turn", state.Status)
	assert.Len(t, state.Board, 56)
	assert.NotEmpty(t, state.UpdatedTime)
	assert.Equal(t, "smile", state.PeerEmote)

	state = post(t, r, fmt.Sprintf(`{"type": "game_state", "id": %d}`, *magenta.ID))
	assert.Empty(t, state.PeerEmote, "emote consumed by the previous poll")

	// Play out a cyan horizontal win across the bottom row.
	for _, move := range []struct {
		id  *uint32
		pos int
	}{
		{magenta.ID, 6}, {cyan.ID, 1}, {magenta.ID, 6}, {cyan.ID, 2}, {magenta.ID, 6},
	} {
		res := post(t, r, fmt.Sprintf(`{"type": "place_token", "id": %d, "position": %d}`, *move.id, move.pos))
		require.Equal(t, "accepted", res.Status)
	}

	res = post(t, r, fmt.Sprintf(`{"type": "place_token", "id": %d, "position": 3}`, *cyan.ID))
	assert.Equal(t, "game_ended_cyan_won", res.Status)
	require.Len(t, res.Board, 56)
	assert.Equal(t, byte('h'), res.Board[52])
	for _, idx := range []int{49, 50, 51} {
		assert.Equal(t, byte('d'), res.Board[idx])
	}

	// Terminal games refuse further moves but remain visible.
	res = post(t, r, fmt.Sprintf(`{"type": "place_token", "id": %d, "position": 4}`, *magenta.ID))
	assert.Equal(t, "game_ended_cyan_won", res.Status)

	state = post(t, r, fmt.Sprintf(`{"type": "game_state", "id": %d}`, *cyan.ID))
	assert.Equal(t, "cyan_won", state.Status)
}

func TestOpponentDisconnectOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	cyan := post(t, r, `{"type": "pairing_request"}`)
	require.NotNil(t, cyan.ID)
	magenta := post(t, r, `{"type": "pairing_request"}`)
	require.NotNil(t, magenta.ID)
	require.Equal(t, "paired", magenta.Status)

	res := post(t, r, fmt.Sprintf(`{"type": "place_token", "id": %d, "position": 0}`, *cyan.ID))
	require.Equal(t, "accepted", res.Status)

	post(t, r, fmt.Sprintf(`{"type": "send_emote", "id": %d, "emote": "smile"}`, *magenta.ID))
	res = post(t, r, fmt.Sprintf(`{"type": "disconnect", "id": %d}`, *magenta.ID))
	require.Equal(t, "ok", res.Status)

	// The survivor's next poll reports the disconnect alongside the last
	// board and the emote the leaver sent.
	state := post(t, r, fmt.Sprintf(`{"type": "game_state", "id": %d}`, *cyan.ID))
	assert.Equal(t, "game_state", state.Type)
	assert.Equal(t, "opponent_disconnected", state.Status)
	require.Len(t, state.Board, 56)
	assert.Equal(t, byte('f'), state.Board[49])
	assert.NotEmpty(t, state.UpdatedTime)
	assert.Equal(t, "smile", state.PeerEmote)

	state = post(t, r, fmt.Sprintf(`{"type": "game_state", "id": %d}`, *cyan.ID))
	assert.Equal(t, "unknown_id", state.Status)
}

func TestClampPhraseKeepsRuneBoundaries(t *testing.T) {
	assert.Equal(t, "tea", clampPhrase("tea"))

	exact := strings.Repeat("x", config.PhraseMaxLength)
	assert.Equal(t, exact, clampPhrase(exact))

	long := strings.Repeat("語", 50) // 150 bytes of 3-byte runes
	clamped := clampPhrase(long)
	assert.LessOrEqual(t, len(clamped), config.PhraseMaxLength)
	assert.True(t, utf8.ValidString(clamped), "truncation must not split a rune")
	assert.Equal(t, strings.Repeat("語", 42), clamped)
}

func TestDisconnectOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	player := post(t, r, `{"type": "pairing_request"}`)
	require.NotNil(t, player.ID)

	res := post(t, r, fmt.Sprintf(`{"type": "disconnect", "id": %d}`, *player.ID))
	assert.Equal(t, "disconnect", res.Type)
	assert.Equal(t, "ok", res.Status)

	res = post(t, r, fmt.Sprintf(`{"type": "disconnect", "id": %d}`, *player.ID))
	assert.Equal(t, "unknown_id", res.Status)

	res = post(t, r, fmt.Sprintf(`{"type": "game_state", "id": %d}`, *player.ID))
	assert.Equal(t, "unknown_id", res.Status)
}
