package events

import (
	"context"

	"banterbus/internal/avatar"
	"banterbus/internal/catalog"
	"banterbus/internal/config"
	"banterbus/internal/models"
	"banterbus/internal/notifications"
	"banterbus/internal/service"
)

// Handlers holds the services the event handlers compose.
type Handlers struct {
	cfg           *config.Config
	dispatcher    *Dispatcher
	emitter       notifications.Emitter
	lobby         *service.LobbyService
	rooms         *service.RoomService
	players       *service.PlayerService
	gameStates    *service.GameStateService
	catalogClient catalog.Client
}

// NewHandlers wires the handler set and registers every inbound event on the
// dispatcher.
func NewHandlers(
	cfg *config.Config,
	dispatcher *Dispatcher,
	emitter notifications.Emitter,
	lobby *service.LobbyService,
	rooms *service.RoomService,
	players *service.PlayerService,
	gameStates *service.GameStateService,
	catalogClient catalog.Client,
) *Handlers {
	h := &Handlers{
		cfg:           cfg,
		dispatcher:    dispatcher,
		emitter:       emitter,
		lobby:         lobby,
		rooms:         rooms,
		players:       players,
		gameStates:    gameStates,
		catalogClient: catalogClient,
	}
	h.register(dispatcher)
	return h
}

func (h *Handlers) register(d *Dispatcher) {
	Register(d, EventCreateRoom, ErrCodeRoomCreateFail,
		nil, h.CreateRoom)
	Register(d, EventJoinRoom, ErrCodeRoomJoinFail,
		func(in JoinRoom) string { return in.RoomCode }, h.JoinRoom)
	Register(d, EventRejoinRoom, ErrCodeRoomJoinFail,
		nil, h.RejoinRoom)
	Register(d, EventKickPlayer, ErrCodeKickPlayerFail,
		func(in KickPlayer) string { return in.RoomCode }, h.KickPlayer)
	Register(d, EventStartGame, ErrCodeServerError,
		func(in StartGame) string { return in.RoomCode }, h.StartGame)
	Register(d, EventGetNextQuestion, ErrCodeServerError,
		func(in GetNextQuestion) string { return in.RoomCode }, h.GetNextQuestion)
	Register(d, EventPauseGame, ErrCodeServerError,
		func(in PauseGame) string { return in.RoomCode }, h.PauseGame)
	Register(d, EventUnpauseGame, ErrCodeServerError,
		func(in UnpauseGame) string { return in.RoomCode }, h.UnpauseGame)
	Register(d, EventSubmitAnswerFibbingIt, ErrCodeServerError,
		func(in SubmitAnswerFibbingIt) string { return in.RoomCode }, h.SubmitAnswer)
	Register(d, EventGetAnswersFibbingIt, ErrCodeServerError,
		func(in GetAnswersFibbingIt) string { return in.RoomCode }, h.GetAnswers)
	Register(d, EventPermanentlyDisconnectPlayer, ErrCodeServerError,
		func(in PermanentlyDisconnectPlayer) string { return in.RoomCode }, h.PermanentlyDisconnect)
	d.SetDisconnectHandler(h.Disconnected)
}

// CreateRoom creates an empty lobby and hands its code back to the caller.
func (h *Handlers) CreateRoom(ctx context.Context, sid string, _ CreateRoom) ([]Response, error) {
	room, err := h.lobby.CreateRoom(ctx)
	if err != nil {
		return nil, err
	}
	return []Response{
		ToCaller(EventRoomCreated, RoomCreated{RoomCode: room.RoomID}),
	}, nil
}

// JoinRoom adds a new player to a lobby and announces them to the room.
func (h *Handlers) JoinRoom(ctx context.Context, sid string, in JoinRoom) ([]Response, error) {
	newPlayer := models.NewPlayer{
		Nickname:  in.Nickname,
		Avatar:    avatar.Normalize(DecodeAvatar(in.Avatar)),
		LatestSID: sid,
	}
	roomPlayers, err := h.lobby.Join(ctx, in.RoomCode, newPlayer)
	if err != nil {
		return nil, err
	}
	h.emitter.Join(sid, roomPlayers.RoomCode)

	return []Response{
		ToRoom(roomPlayers.RoomCode, EventRoomJoined, RoomJoined{
			Players:            PlayersPayload(roomPlayers.Players),
			HostPlayerNickname: roomPlayers.HostPlayerNickname,
		}),
		ToSID(sid, EventNewRoomJoined, NewRoomJoined{PlayerID: roomPlayers.PlayerID}),
	}, nil
}

// RejoinRoom reattaches a returning player. Mid-game rejoins also get the
// current question and may lift a disconnect pause.
func (h *Handlers) RejoinRoom(ctx context.Context, sid string, in RejoinRoom) ([]Response, error) {
	player, err := h.players.Get(ctx, in.PlayerID)
	if err != nil {
		return nil, err
	}
	if player.RoomID == nil {
		return nil, models.NewAppError(models.CodePlayerHasNoRoom,
			"player %s is not in a room", in.PlayerID)
	}
	roomID := *player.RoomID

	return h.dispatcher.WithRoomLock(roomID, func() ([]Response, error) {
		roomPlayers, err := h.lobby.Rejoin(ctx, in.PlayerID, sid)
		if err != nil {
			return nil, err
		}
		h.emitter.Join(sid, roomID)

		responses := []Response{
			ToSID(sid, EventRoomJoined, RoomJoined{
				Players:            PlayersPayload(roomPlayers.Players),
				HostPlayerNickname: roomPlayers.HostPlayerNickname,
			}),
		}

		room, err := h.rooms.Get(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if !room.State.IsRejoinableAndStarted() {
			return responses, nil
		}

		gameState, err := h.gameStates.Get(ctx, roomID)
		if err != nil {
			if models.HasCode(err, models.CodeGameStateNotFound) {
				return responses, nil
			}
			return nil, err
		}

		if question := h.currentQuestionFor(gameState, in.PlayerID); question != nil {
			responses = append(responses, ToSID(sid, EventGotNextQuestion, *question))
		}

		paused, err := h.gameStates.UnpauseGame(ctx, roomID, &in.PlayerID)
		if err != nil {
			if models.HasCode(err, models.CodeGameStateNotPaused) {
				return responses, nil
			}
			return nil, err
		}
		if !paused.IsPaused {
			if err := h.rooms.UpdateState(ctx, room, models.RoomPlaying); err != nil {
				return nil, err
			}
			responses = append(responses, ToRoom(roomID, EventGameUnpaused, GameUnpaused{}))
		}
		return responses, nil
	})
}

// currentQuestionFor rebuilds the question a rejoining player should be
// looking at, customized for fibber or not. Nil when there is no question in
// flight.
func (h *Handlers) currentQuestionFor(gameState *models.GameState, playerID string) *GotNextQuestion {
	if gameState.State == nil {
		return nil
	}
	engine := h.gameStates.Engine()
	question := engine.GetNextQuestion(gameState.State)
	if question == nil {
		return nil
	}

	content := question.Question
	if gameState.State.CurrentFibberID == playerID && question.FibberQuestion != "" {
		content = question.FibberQuestion
	}
	return &GotNextQuestion{
		UpdatedRound: models.UpdateQuestionRoundState{
			RoundChanged: false,
			NewRound:     gameState.State.CurrentRound,
		},
		Question:       content,
		Answers:        question.Answers,
		TimerInSeconds: engine.GetTimer(gameState.State.CurrentRound, gameState.Action),
	}
}

// KickPlayer removes a lobby member on the host's request.
func (h *Handlers) KickPlayer(ctx context.Context, sid string, in KickPlayer) ([]Response, error) {
	kicked, err := h.lobby.KickPlayer(ctx, in.KickPlayerNickname, in.PlayerID, in.RoomCode)
	if err != nil {
		return nil, err
	}
	h.emitter.Leave(kicked.LatestSID, in.RoomCode)

	return []Response{
		ToRoom(in.RoomCode, EventPlayerKicked, PlayerKicked{Nickname: kicked.Nickname}),
	}, nil
}

// StartGame transitions the lobby into a running game.
func (h *Handlers) StartGame(ctx context.Context, sid string, in StartGame) ([]Response, error) {
	if _, err := h.lobby.StartGame(ctx, h.catalogClient, in.GameName, in.PlayerID, in.RoomCode); err != nil {
		return nil, err
	}
	return []Response{
		ToRoom(in.RoomCode, EventGameStarted, GameStarted{GameName: in.GameName}),
	}, nil
}
