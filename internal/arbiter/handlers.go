package arbiter

import (
	"errors"
	"log"

	"four-line-dropper/backend/internal/game"
	"four-line-dropper/backend/internal/models"
)

func (a *Arbiter) handleJoin(phrase string) (JoinResult, error) {
	count, err := models.CountPlayers(a.db)
	if err != nil {
		return JoinResult{}, err
	}
	if count >= a.cfg.PlayerCountLimit {
		return JoinResult{}, models.ErrTooManyPlayers
	}

	id, err := models.InsertPlayer(a.db, phrase)
	if err != nil {
		return JoinResult{}, err
	}

	if err := a.pairUp(); err != nil {
		return JoinResult{}, err
	}

	pairing, err := models.GetPairing(a.db, id)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{ID: id, Paired: pairing.Paired}, nil
}

// pairUp walks the unpaired players in arrival order and matches each pair
// that shares a rendezvous phrase (empty phrase matches empty phrase). The
// earlier-arrived player of a pair becomes cyan and moves first.
func (a *Arbiter) pairUp() error {
	unpaired, err := models.ListUnpairedPlayers(a.db)
	if err != nil {
		return err
	}

	waiting := make(map[string]models.UnpairedPlayer)
	for _, p := range unpaired {
		w, ok := waiting[p.Phrase]
		if !ok {
			waiting[p.Phrase] = p
			continue
		}
		delete(waiting, p.Phrase)

		gameID, err := models.InsertGame(a.db, w.ID, p.ID, game.NewBoardString())
		if err != nil {
			return err
		}
		log.Printf("paired players %d (cyan) and %d (magenta) into game %d", w.ID, p.ID, gameID)
	}
	return nil
}

func (a *Arbiter) handleCheckPairing(playerID uint32) (models.Pairing, error) {
	pairing, err := models.GetPairing(a.db, playerID)
	if err != nil {
		return models.Pairing{}, err
	}
	if !pairing.Exists {
		return models.Pairing{}, models.ErrUnknownID
	}
	return pairing, nil
}

func (a *Arbiter) handleGameState(playerID uint32) (StateResult, error) {
	exists, err := models.PlayerExists(a.db, playerID)
	if err != nil {
		return StateResult{}, err
	}
	if !exists {
		return StateResult{}, models.ErrUnknownID
	}

	// The pending emote is consumed up front so it still reaches the survivor
	// of a disconnected game.
	res := StateResult{PeerEmote: a.consumeEmote(playerID)}

	g, err := models.GetGameByPlayer(a.db, playerID)
	if errors.Is(err, models.ErrNotFound) {
		return StateResult{}, models.ErrNotPairedYet
	}
	if err != nil {
		return StateResult{}, err
	}
	res.Board = g.Board
	res.Status = g.Status
	res.UpdatedTime = g.TurnTimeStart

	// A finished board stays visible even after the opponent leaves. On a
	// live game the disconnect surfaces once, with the last board echoed.
	if !g.Status.Terminal() && opponentOf(g, playerID) == nil {
		a.removeDisconnected(playerID)
		return res, models.ErrOpponentDisconnected
	}
	return res, nil
}

// consumeEmote pops the oldest pending emote for the player, if any. Rows
// with a tag we no longer recognize are dropped with a warning.
func (a *Arbiter) consumeEmote(playerID uint32) *models.Emote {
	id, tag, err := models.OldestEmoteForReceiver(a.db, playerID)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Printf("load emote for player %d: %v", playerID, err)
		return nil
	}
	if err := models.DeleteEmote(a.db, id); err != nil {
		log.Printf("delete consumed emote %d: %v", id, err)
		return nil
	}
	emote, err := models.ParseEmote(tag)
	if err != nil {
		log.Printf("dropping stored emote %d with unknown type %q", id, tag)
		return nil
	}
	return &emote
}

func (a *Arbiter) handlePlaceToken(playerID uint32, position int) (PlaceResult, error) {
	exists, err := models.PlayerExists(a.db, playerID)
	if err != nil {
		return PlaceResult{}, err
	}
	if !exists {
		return PlaceResult{}, models.ErrUnknownID
	}

	g, err := models.GetGameByPlayer(a.db, playerID)
	if errors.Is(err, models.ErrNotFound) {
		return PlaceResult{}, models.ErrNotPairedYet
	}
	if err != nil {
		return PlaceResult{}, err
	}

	if g.Status.Terminal() {
		return PlaceResult{Board: g.Board, Status: g.Status}, models.ErrGameEnded
	}
	if opponentOf(g, playerID) == nil {
		a.removeDisconnected(playerID)
		return PlaceResult{}, models.ErrOpponentDisconnected
	}

	side := game.SideMagenta
	if g.CyanPlayer != nil && *g.CyanPlayer == playerID {
		side = game.SideCyan
	}
	myTurn := (g.Status == models.StatusCyanTurn && side == game.SideCyan) ||
		(g.Status == models.StatusMagentaTurn && side == game.SideMagenta)
	if !myTurn {
		return PlaceResult{}, models.ErrNotYourTurn
	}

	board, err := game.ParseBoard(g.Board)
	if err != nil {
		return PlaceResult{}, err
	}
	placed, ok := board.Drop(position)
	if !ok {
		return PlaceResult{}, models.ErrIllegalMove
	}
	board[placed] = side.Cell()
	encoded, outcome := board.Encode(placed)

	status := nextStatus(side, outcome)
	if err := models.UpdateGameMove(a.db, g.ID, encoded, status, !status.Terminal()); err != nil {
		return PlaceResult{}, err
	}
	return PlaceResult{Board: encoded, Status: status}, nil
}

func (a *Arbiter) handleDisconnect(playerID uint32) (bool, error) {
	removed, err := models.DeletePlayer(a.db, playerID)
	if err != nil {
		return false, err
	}
	if err := models.DeleteEmptyGames(a.db); err != nil {
		log.Printf("delete empty games after disconnect of %d: %v", playerID, err)
	}
	return removed, nil
}

func (a *Arbiter) handleSendEmote(playerID uint32, tag string) error {
	emote, err := models.ParseEmote(tag)
	if err != nil {
		return err
	}

	exists, err := models.PlayerExists(a.db, playerID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrUnknownID
	}

	g, err := models.GetGameByPlayer(a.db, playerID)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotPairedYet
	}
	if err != nil {
		return err
	}

	opponent := opponentOf(g, playerID)
	if opponent == nil {
		return models.ErrOpponentDisconnected
	}
	return models.InsertEmote(a.db, *opponent, emote)
}

// removeDisconnected deletes a player who just observed their opponent's
// disconnect, then reaps the now-empty game.
func (a *Arbiter) removeDisconnected(playerID uint32) {
	if _, err := models.DeletePlayer(a.db, playerID); err != nil {
		log.Printf("delete player %d after opponent disconnect: %v", playerID, err)
	}
	if err := models.DeleteEmptyGames(a.db); err != nil {
		log.Printf("delete empty games: %v", err)
	}
}

func opponentOf(g *models.Game, playerID uint32) *uint32 {
	if g.CyanPlayer != nil && *g.CyanPlayer == playerID {
		return g.MagentaPlayer
	}
	return g.CyanPlayer
}
