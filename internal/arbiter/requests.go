package arbiter

import (
	"time"

	"four-line-dropper/backend/internal/models"
)

// request is one queued unit of work. execute runs on the arbiter goroutine
// and must send exactly one reply.
type request interface {
	execute(a *Arbiter)
}

// JoinResult answers a pairing request.
type JoinResult struct {
	ID     uint32
	Paired bool
}

// StateResult answers a game-state request.
type StateResult struct {
	Board       string
	Status      models.Status
	UpdatedTime string
	PeerEmote   *models.Emote
}

// PlaceResult answers a token placement. On ErrGameEnded, Status carries the
// terminal status the game finished with.
type PlaceResult struct {
	Board  string
	Status models.Status
}

type reply[T any] struct {
	val T
	err error
}

type joinRequest struct {
	phrase string
	out    chan reply[JoinResult]
}

func (r *joinRequest) execute(a *Arbiter) { r.out <- answer(a.handleJoin(r.phrase)) }

type checkPairingRequest struct {
	playerID uint32
	out      chan reply[models.Pairing]
}

func (r *checkPairingRequest) execute(a *Arbiter) { r.out <- answer(a.handleCheckPairing(r.playerID)) }

type gameStateRequest struct {
	playerID uint32
	out      chan reply[StateResult]
}

func (r *gameStateRequest) execute(a *Arbiter) { r.out <- answer(a.handleGameState(r.playerID)) }

type placeTokenRequest struct {
	playerID uint32
	position int
	out      chan reply[PlaceResult]
}

func (r *placeTokenRequest) execute(a *Arbiter) {
	r.out <- answer(a.handlePlaceToken(r.playerID, r.position))
}

type disconnectRequest struct {
	playerID uint32
	out      chan reply[bool]
}

func (r *disconnectRequest) execute(a *Arbiter) { r.out <- answer(a.handleDisconnect(r.playerID)) }

type sendEmoteRequest struct {
	playerID uint32
	emote    string
	out      chan reply[struct{}]
}

func (r *sendEmoteRequest) execute(a *Arbiter) {
	err := a.handleSendEmote(r.playerID, r.emote)
	r.out <- reply[struct{}]{err: err}
}

func answer[T any](val T, err error) reply[T] {
	return reply[T]{val: val, err: err}
}

// dispatch enqueues the request and waits for its reply. ErrBusy when the
// queue is full; ErrReplyTimeout when the arbiter is wedged or shut down.
func dispatch[T any](a *Arbiter, req request, out chan reply[T]) (T, error) {
	var zero T
	if err := a.submit(req); err != nil {
		return zero, err
	}
	select {
	case rep := <-out:
		return rep.val, rep.err
	case <-time.After(replyTimeout):
		return zero, ErrReplyTimeout
	}
}

// Join registers a new player, tries to pair them, and reports the result.
func (a *Arbiter) Join(phrase string) (JoinResult, error) {
	out := make(chan reply[JoinResult], 1)
	return dispatch(a, &joinRequest{phrase: phrase, out: out}, out)
}

// CheckPairing reports whether the player has been matched and which colour
// they were assigned.
func (a *Arbiter) CheckPairing(playerID uint32) (models.Pairing, error) {
	out := make(chan reply[models.Pairing], 1)
	return dispatch(a, &checkPairingRequest{playerID: playerID, out: out}, out)
}

// GameState returns the player's current board view and consumes at most one
// pending emote from their opponent.
func (a *Arbiter) GameState(playerID uint32) (StateResult, error) {
	out := make(chan reply[StateResult], 1)
	return dispatch(a, &gameStateRequest{playerID: playerID, out: out}, out)
}

// PlaceToken drops the player's token at the given board position.
func (a *Arbiter) PlaceToken(playerID uint32, position int) (PlaceResult, error) {
	out := make(chan reply[PlaceResult], 1)
	return dispatch(a, &placeTokenRequest{playerID: playerID, position: position, out: out}, out)
}

// Disconnect removes the player; their game survives until the opponent sees
// the disconnect or the reaper collects it. Returns whether the id existed.
func (a *Arbiter) Disconnect(playerID uint32) (bool, error) {
	out := make(chan reply[bool], 1)
	return dispatch(a, &disconnectRequest{playerID: playerID, out: out}, out)
}

// SendEmote queues an emote for the player's opponent.
func (a *Arbiter) SendEmote(playerID uint32, emote string) error {
	out := make(chan reply[struct{}], 1)
	_, err := dispatch(a, &sendEmoteRequest{playerID: playerID, emote: emote, out: out}, out)
	return err
}
