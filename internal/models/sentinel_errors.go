package models

import "errors"

var (
	ErrTooManyPlayers       = errors.New("player limit reached")
	ErrUnknownID            = errors.New("unknown id")
	ErrNotPairedYet         = errors.New("not paired yet")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrIllegalMove          = errors.New("illegal move")
	ErrOpponentDisconnected = errors.New("opponent disconnected")
	ErrGameEnded            = errors.New("game already ended")
	ErrInvalidEmote         = errors.New("invalid emote type")
)
