// Package handlers implements the JSON message protocol shared by the HTTP
// and websocket transports. Every request is an object with a "type" field;
// every reply echoes the type (or one of the invalid_* types) with a "status"
// and, where relevant, the board. Transport-level success is always HTTP 200;
// errors live in the status field.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"unicode/utf8"

	"four-line-dropper/backend/internal/arbiter"
	"four-line-dropper/backend/internal/config"
	"four-line-dropper/backend/internal/models"
)

// API dispatches protocol messages to the arbiter.
type API struct {
	arb *arbiter.Arbiter
}

func NewAPI(arb *arbiter.Arbiter) *API {
	return &API{arb: arb}
}

type response struct {
	Type        string  `json:"type"`
	Status      string  `json:"status,omitempty"`
	ID          *uint32 `json:"id,omitempty"`
	Color       string  `json:"color,omitempty"`
	Board       string  `json:"board,omitempty"`
	UpdatedTime string  `json:"updated_time,omitempty"`
	PeerEmote   string  `json:"peer_emote,omitempty"`
}

func marshal(r response) []byte {
	out, err := json.Marshal(r)
	if err != nil {
		// response contains only plain fields; this cannot happen.
		log.Printf("marshal response: %v", err)
		return []byte(`{"type":"invalid_type","status":"internal_error"}`)
	}
	return out
}

// Dispatch parses one request body and returns the reply body.
//   - not JSON: invalid_syntax
//   - JSON without a string "type": invalid_json
//   - unrecognized type: invalid_type
//   - type-specific fields missing or malformed: invalid_syntax
func (api *API) Dispatch(body []byte) []byte {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return marshal(response{Type: "invalid_syntax"})
	}

	var typ string
	if rawType, ok := raw["type"]; !ok || json.Unmarshal(rawType, &typ) != nil {
		return marshal(response{Type: "invalid_json"})
	}

	switch typ {
	case "pairing_request":
		return api.pairingRequest(raw)
	case "check_pairing":
		return api.checkPairing(raw)
	case "game_state":
		return api.gameState(raw)
	case "place_token":
		return api.placeToken(raw)
	case "send_emote":
		return api.sendEmote(raw)
	case "disconnect":
		return api.disconnect(raw)
	default:
		return marshal(response{Type: "invalid_type"})
	}
}

func (api *API) pairingRequest(raw map[string]json.RawMessage) []byte {
	var phrase string
	if rawPhrase, ok := raw["phrase"]; ok {
		if json.Unmarshal(rawPhrase, &phrase) != nil {
			return marshal(response{Type: "invalid_syntax"})
		}
	}
	phrase = clampPhrase(phrase)

	res, err := api.arb.Join(phrase)
	if err != nil {
		status := "internal_error"
		switch {
		case errors.Is(err, models.ErrTooManyPlayers):
			status = "too_many_players"
		case errors.Is(err, arbiter.ErrReplyTimeout):
			status = "internal_error_timeout"
		default:
			log.Printf("pairing_request: %v", err)
		}
		return marshal(response{Type: "pairing_response", Status: status})
	}

	out := response{Type: "pairing_response", ID: &res.ID, Status: "waiting"}
	if res.Paired {
		out.Status = "paired"
		// A joiner can only have been paired as the later arrival.
		out.Color = "magenta"
	}
	return marshal(out)
}

func (api *API) checkPairing(raw map[string]json.RawMessage) []byte {
	id, ok := playerID(raw)
	if !ok {
		return marshal(response{Type: "invalid_syntax"})
	}

	pairing, err := api.arb.CheckPairing(id)
	if err != nil {
		return marshal(response{Type: "pairing_status", Status: errStatus(err, "check_pairing")})
	}
	if !pairing.Paired {
		return marshal(response{Type: "pairing_status", Status: "waiting"})
	}
	color := "magenta"
	if pairing.IsCyan {
		color = "cyan"
	}
	return marshal(response{Type: "pairing_status", Status: "paired", Color: color})
}

func (api *API) gameState(raw map[string]json.RawMessage) []byte {
	id, ok := playerID(raw)
	if !ok {
		return marshal(response{Type: "invalid_syntax"})
	}

	res, err := api.arb.GameState(id)
	if err != nil {
		status := errStatus(err, "game_state")
		if errors.Is(err, models.ErrNotPairedYet) {
			status = "not_paired"
		}
		out := response{Type: "game_state", Status: status}
		// An opponent disconnect still echoes the final board and delivers
		// any pending emote; the reply is the survivor's last look at the game.
		if errors.Is(err, models.ErrOpponentDisconnected) {
			out.Board = res.Board
			out.UpdatedTime = res.UpdatedTime
			if res.PeerEmote != nil {
				out.PeerEmote = string(*res.PeerEmote)
			}
		}
		return marshal(out)
	}

	out := response{
		Type:        "game_state",
		Status:      gameStatus(res.Status),
		Board:       res.Board,
		UpdatedTime: res.UpdatedTime,
	}
	if res.PeerEmote != nil {
		out.PeerEmote = string(*res.PeerEmote)
	}
	return marshal(out)
}

func (api *API) placeToken(raw map[string]json.RawMessage) []byte {
	id, ok := playerID(raw)
	if !ok {
		return marshal(response{Type: "invalid_syntax"})
	}
	pos, ok := intField(raw, "position")
	if !ok {
		return marshal(response{Type: "invalid_syntax"})
	}

	res, err := api.arb.PlaceToken(id, pos)
	switch {
	case err == nil:
		// A move that finishes the game reports the outcome, not "accepted".
		status := "accepted"
		if res.Status.Terminal() {
			status = endedStatus(res.Status)
		}
		return marshal(response{Type: "place_token", Status: status, Board: res.Board})
	case errors.Is(err, models.ErrGameEnded):
		return marshal(response{Type: "place_token", Status: endedStatus(res.Status), Board: res.Board})
	default:
		return marshal(response{Type: "place_token", Status: errStatus(err, "place_token")})
	}
}

func (api *API) sendEmote(raw map[string]json.RawMessage) []byte {
	id, ok := playerID(raw)
	if !ok {
		return marshal(response{Type: "invalid_syntax"})
	}
	var tag string
	if rawEmote, ok := raw["emote"]; !ok || json.Unmarshal(rawEmote, &tag) != nil {
		return marshal(response{Type: "invalid_syntax"})
	}
	if _, err := models.ParseEmote(tag); err != nil {
		return marshal(response{Type: "invalid_syntax"})
	}

	if err := api.arb.SendEmote(id, tag); err != nil {
		return marshal(response{Type: "send_emote", Status: errStatus(err, "send_emote")})
	}
	return marshal(response{Type: "send_emote", Status: "ok"})
}

func (api *API) disconnect(raw map[string]json.RawMessage) []byte {
	id, ok := playerID(raw)
	if !ok {
		return marshal(response{Type: "invalid_syntax"})
	}

	removed, err := api.arb.Disconnect(id)
	if err != nil {
		return marshal(response{Type: "disconnect", Status: errStatus(err, "disconnect")})
	}
	if !removed {
		return marshal(response{Type: "disconnect", Status: "unknown_id"})
	}
	return marshal(response{Type: "disconnect", Status: "ok"})
}

// errStatus maps arbiter errors to wire statuses shared across message types.
// Unexpected errors are logged and reported as internal_error.
func errStatus(err error, op string) string {
	switch {
	case errors.Is(err, models.ErrUnknownID):
		return "unknown_id"
	case errors.Is(err, models.ErrNotPairedYet):
		return "not_paired_yet"
	case errors.Is(err, models.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, models.ErrIllegalMove):
		return "illegal"
	case errors.Is(err, models.ErrOpponentDisconnected):
		return "opponent_disconnected"
	case errors.Is(err, arbiter.ErrReplyTimeout):
		return "internal_error_timeout"
	case errors.Is(err, arbiter.ErrBusy):
		return "internal_error"
	default:
		log.Printf("%s: %v", op, err)
		return "internal_error"
	}
}

func gameStatus(s models.Status) string {
	switch s {
	case models.StatusCyanTurn:
		return "cyan_turn"
	case models.StatusMagentaTurn:
		return "magenta_turn"
	case models.StatusCyanWon:
		return "cyan_won"
	case models.StatusMagentaWon:
		return "magenta_won"
	case models.StatusDraw:
		return "draw"
	}
	return "internal_error"
}

func endedStatus(s models.Status) string {
	switch s {
	case models.StatusCyanWon:
		return "game_ended_cyan_won"
	case models.StatusMagentaWon:
		return "game_ended_magenta_won"
	case models.StatusDraw:
		return "game_ended_draw"
	}
	return "internal_error"
}

// clampPhrase bounds the opaque rendezvous phrase, backing up to a rune
// boundary so the stored value stays valid UTF-8.
func clampPhrase(phrase string) string {
	if len(phrase) <= config.PhraseMaxLength {
		return phrase
	}
	cut := config.PhraseMaxLength
	for cut > 0 && !utf8.RuneStart(phrase[cut]) {
		cut--
	}
	return phrase[:cut]
}

func playerID(raw map[string]json.RawMessage) (uint32, bool) {
	n, ok := intField(raw, "id")
	if !ok {
		return 0, false
	}
	return uint32(n), true
}

// intField extracts a non-negative integral JSON number fitting in 32 bits.
func intField(raw map[string]json.RawMessage, key string) (int, bool) {
	rawVal, ok := raw[key]
	if !ok {
		return 0, false
	}
	var f float64
	if json.Unmarshal(rawVal, &f) != nil {
		return 0, false
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return 0, false
	}
	return int(f), true
}
