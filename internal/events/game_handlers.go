package events

import (
	"context"
	"fmt"
	"time"

	"banterbus/internal/models"
)

// voteTimerSeconds is the window handed out after answers are revealed.
const voteTimerSeconds = 300

// GetNextQuestion advances the game to the next question and sends every
// player their own view of it; the fibber sees the decoy prompt.
func (h *Handlers) GetNextQuestion(ctx context.Context, sid string, in GetNextQuestion) ([]Response, error) {
	if _, err := h.requireMember(ctx, in.PlayerID, in.RoomCode); err != nil {
		return nil, err
	}
	gameState, err := h.gameStates.Get(ctx, in.RoomCode)
	if err != nil {
		return nil, err
	}

	next, err := h.gameStates.GetNextQuestion(ctx, gameState)
	if err != nil {
		return nil, err
	}
	if next.Question == nil {
		return nil, models.NewAppError(models.CodeUnexpectedGameStateType,
			"no question available after advancing room %s", in.RoomCode)
	}

	members, err := h.players.GetAllInRoom(ctx, in.RoomCode)
	if err != nil {
		return nil, err
	}

	responses := make([]Response, 0, len(members))
	for _, member := range members {
		content := next.Question.Question
		if member.PlayerID == gameState.State.CurrentFibberID && next.Question.FibberQuestion != "" {
			content = next.Question.FibberQuestion
		}
		responses = append(responses, ToSID(member.LatestSID, EventGotNextQuestion, GotNextQuestion{
			UpdatedRound:   next.UpdatedRound,
			Question:       content,
			Answers:        next.Question.Answers,
			TimerInSeconds: next.TimerInSeconds,
		}))
	}
	return responses, nil
}

// PauseGame pauses a running game on the host's request.
func (h *Handlers) PauseGame(ctx context.Context, sid string, in PauseGame) ([]Response, error) {
	pausedFor, err := h.rooms.PauseGame(ctx, in.RoomCode, in.PlayerID, h.gameStates)
	if err != nil {
		return nil, err
	}
	return []Response{
		ToRoom(in.RoomCode, EventGamePaused, GamePaused{
			PausedFor: pausedFor,
			Message:   "Game paused by the host.",
		}),
	}, nil
}

// UnpauseGame resumes a paused game on the host's request. The room is only
// told once nobody is left in the waiting set.
func (h *Handlers) UnpauseGame(ctx context.Context, sid string, in UnpauseGame) ([]Response, error) {
	paused, err := h.rooms.UnpauseGame(ctx, in.RoomCode, in.PlayerID, h.gameStates)
	if err != nil {
		return nil, err
	}
	if paused.IsPaused {
		return nil, nil
	}
	return []Response{
		ToRoom(in.RoomCode, EventGameUnpaused, GameUnpaused{}),
	}, nil
}

// SubmitAnswer records one player's answer inside the submission window.
func (h *Handlers) SubmitAnswer(ctx context.Context, sid string, in SubmitAnswerFibbingIt) ([]Response, error) {
	if _, err := h.requireMember(ctx, in.PlayerID, in.RoomCode); err != nil {
		return nil, err
	}
	gameState, err := h.gameStates.Get(ctx, in.RoomCode)
	if err != nil {
		return nil, err
	}
	members, err := h.players.GetAllInRoom(ctx, in.RoomCode)
	if err != nil {
		return nil, err
	}

	state, err := h.gameStates.Engine().SubmitAnswers(gameState, playerIDs(members), in.PlayerID, in.Answer)
	if err != nil {
		return nil, err
	}
	if err := h.gameStates.UpdateState(ctx, gameState, state); err != nil {
		return nil, err
	}

	return []Response{
		ToCaller(EventAnswerSubmittedFibbingIt, AnswerSubmittedFibbingIt{
			AllPlayersSubmitted: len(state.Questions.CurrentAnswers) == len(members),
		}),
	}, nil
}

// GetAnswers closes the submission window, filling missing answers at
// random, and moves the game on to voting.
func (h *Handlers) GetAnswers(ctx context.Context, sid string, in GetAnswersFibbingIt) ([]Response, error) {
	if _, err := h.requireMember(ctx, in.PlayerID, in.RoomCode); err != nil {
		return nil, err
	}
	gameState, err := h.gameStates.Get(ctx, in.RoomCode)
	if err != nil {
		return nil, err
	}
	members, err := h.players.GetAllInRoom(ctx, in.RoomCode)
	if err != nil {
		return nil, err
	}

	engine := h.gameStates.Engine()
	state, err := engine.SelectRandomAnswer(gameState, playerIDs(members))
	if err != nil {
		return nil, err
	}
	nextAction := engine.GetNextAction(gameState.Action)
	if err := h.gameStates.UpdateState(ctx, gameState, state); err != nil {
		return nil, err
	}
	if err := h.gameStates.UpdateNextAction(ctx, gameState, nextAction, voteTimerSeconds); err != nil {
		return nil, err
	}

	nicknames := make(map[string]string, len(members))
	for _, member := range members {
		nicknames[member.PlayerID] = member.Nickname
	}
	return []Response{
		ToCaller(EventGotAnswersFibbingIt, GotAnswersFibbingIt{
			Answers:        engine.GetPlayerAnswers(state, nicknames),
			TimerInSeconds: voteTimerSeconds,
		}),
	}, nil
}

// PermanentlyDisconnect removes a player whose disconnect grace expired.
func (h *Handlers) PermanentlyDisconnect(
	ctx context.Context, sid string, in PermanentlyDisconnectPlayer,
) ([]Response, error) {
	room, err := h.rooms.Get(ctx, in.RoomCode)
	if err != nil {
		return nil, err
	}

	grace := time.Duration(h.cfg.DisconnectTimerInSeconds) * time.Second
	player, removed, err := h.players.DisconnectPlayer(ctx, in.Nickname, in.RoomCode, grace)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, nil
	}
	if err := h.rooms.UpdatePlayerCount(ctx, room, -1); err != nil {
		return nil, err
	}
	h.emitter.Leave(player.LatestSID, in.RoomCode)

	return []Response{
		ToRoom(in.RoomCode, EventPermanentlyDisconnectedPlayer, PermanentlyDisconnectedPlayer{
			Nickname: player.Nickname,
		}),
	}, nil
}

// Disconnected is the transport callback for a lost session. It stamps the
// disconnect clock, elects a new host if needed and pauses a running game.
func (h *Handlers) Disconnected(ctx context.Context, sid string) ([]Response, error) {
	now := time.Now()
	player, err := h.players.UpdateDisconnectedTime(ctx, sid, &now)
	if err != nil {
		if models.HasCode(err, models.CodePlayerNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if player.RoomID == nil {
		return nil, nil
	}
	roomID := *player.RoomID

	return h.dispatcher.WithRoomLock(roomID, func() ([]Response, error) {
		room, err := h.rooms.Get(ctx, roomID)
		if err != nil {
			return nil, err
		}

		var responses []Response
		if room.HostIs(player.PlayerID) {
			newHost, err := h.lobby.UpdateHost(ctx, room, player.PlayerID)
			switch {
			case err == nil:
				responses = append(responses, ToRoom(roomID, EventHostDisconnected, HostDisconnected{
					NewHostNickname: newHost.Nickname,
				}))
			case models.HasCode(err, models.CodeNoOtherHost):
				// Last player gone, nobody to promote.
			default:
				return nil, err
			}
		}

		if room.State == models.RoomPlaying {
			pausedFor, err := h.gameStates.PauseGame(ctx, roomID, &player.PlayerID)
			if err != nil {
				return nil, err
			}
			responses = append(responses, ToRoom(roomID, EventGamePaused, GamePaused{
				PausedFor: pausedFor,
				Message:   fmt.Sprintf("Player %s disconnected, pausing game.", player.Nickname),
			}))
		}

		responses = append(responses, ToRoom(roomID, EventPlayerDisconnected, PlayerDisconnected{
			Nickname: player.Nickname,
			Avatar:   EncodeAvatar(player.Avatar),
		}))
		return responses, nil
	})
}

func (h *Handlers) requireMember(ctx context.Context, playerID, roomID string) (*models.Player, error) {
	player, err := h.players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.RoomID == nil || *player.RoomID != roomID {
		return nil, models.NewAppError(models.CodePlayerNotInRoom,
			"player %s is not in room %s", playerID, roomID)
	}
	return player, nil
}

func playerIDs(players []models.Player) []string {
	ids := make([]string, 0, len(players))
	for _, player := range players {
		ids = append(ids, player.PlayerID)
	}
	return ids
}
