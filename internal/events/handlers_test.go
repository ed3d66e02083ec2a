package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"banterbus/internal/catalog"
	"banterbus/internal/config"
	"banterbus/internal/game"
	"banterbus/internal/models"
	"banterbus/internal/notifications"
	"banterbus/internal/observability"
	"banterbus/internal/repository"
	"banterbus/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type emittedFrame struct {
	Target  string
	Event   string
	Payload any
}

type fakeEmitter struct {
	mu     sync.Mutex
	frames []emittedFrame
	joins  []string
	leaves []string
}

func (e *fakeEmitter) Emit(target, event string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames = append(e.frames, emittedFrame{Target: target, Event: event, Payload: payload})
}

func (e *fakeEmitter) Join(sid, roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.joins = append(e.joins, sid+"->"+roomID)
}

func (e *fakeEmitter) Leave(sid, roomID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.leaves = append(e.leaves, sid+"->"+roomID)
}

func (e *fakeEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames = nil
	e.joins = nil
	e.leaves = nil
}

func (e *fakeEmitter) framesFor(event string) []emittedFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emittedFrame
	for _, frame := range e.frames {
		if frame.Event == event {
			out = append(out, frame)
		}
	}
	return out
}

func (e *fakeEmitter) single(t *testing.T, event string) emittedFrame {
	t.Helper()
	frames := e.framesFor(event)
	require.Len(t, frames, 1, "expected exactly one %s frame", event)
	return frames[0]
}

type fakeCatalog struct {
	game catalog.Game
}

func (f *fakeCatalog) GetGame(_ context.Context, _ string) (*catalog.Game, error) {
	g := f.game
	return &g, nil
}

func (f *fakeCatalog) GetRandomGroups(
	_ context.Context, _ string, _ models.GameRound, limit int,
) ([]string, error) {
	groups := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		groups = append(groups, fmt.Sprintf("group-%d", i))
	}
	return groups, nil
}

func (f *fakeCatalog) GetRandomQuestions(
	_ context.Context, _ string, round models.GameRound, groupName string, limit int,
) ([]catalog.QuestionSimple, error) {
	switch round {
	case models.RoundOpinion:
		return []catalog.QuestionSimple{
			{QuestionID: "q1", Content: groupName + " question", Type: "question"},
			{QuestionID: "q2", Content: groupName + " decoy", Type: "question"},
			{QuestionID: "a1", Content: "agree", Type: "answer"},
			{QuestionID: "a2", Content: "disagree", Type: "answer"},
		}, nil
	case models.RoundFreeForm:
		return []catalog.QuestionSimple{
			{QuestionID: "q1", Content: groupName + " prompt"},
			{QuestionID: "q2", Content: groupName + " decoy prompt"},
		}, nil
	default:
		questions := make([]catalog.QuestionSimple, 0, limit)
		for i := 0; i < limit; i++ {
			questions = append(questions, catalog.QuestionSimple{
				QuestionID: fmt.Sprintf("likely-%d", i),
				Content:    fmt.Sprintf("likely %d", i),
			})
		}
		return questions, nil
	}
}

type harness struct {
	dispatcher *Dispatcher
	emitter    *fakeEmitter
	players    *service.PlayerService
	rooms      *service.RoomService
	gameStates *service.GameStateService
	lobby      *service.LobbyService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Room{}, &models.Player{}, &models.GameState{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{DisconnectTimerInSeconds: 300, QuestionsPerRound: 3}
	catalogClient := &fakeCatalog{game: catalog.Game{
		Name: game.FibbingItName, Enabled: true, MinimumPlayers: 2, MaximumPlayers: 8,
	}}

	players := service.NewPlayerService(repository.NewPlayerRepository(db))
	rooms := service.NewRoomService(repository.NewRoomRepository(db))
	gameStates := service.NewGameStateService(
		repository.NewGameStateRepository(db), catalogClient, game.NewFibbingIt(cfg.QuestionsPerRound))
	lobby := service.NewLobbyService(rooms, players, gameStates)

	emitter := &fakeEmitter{}
	dispatcher := NewDispatcher(emitter, observability.NewEventLogger(nil))
	NewHandlers(cfg, dispatcher, emitter, lobby, rooms, players, gameStates, catalogClient)

	return &harness{
		dispatcher: dispatcher,
		emitter:    emitter,
		players:    players,
		rooms:      rooms,
		gameStates: gameStates,
		lobby:      lobby,
	}
}

func (h *harness) dispatch(t *testing.T, sid, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(notifications.Frame{Event: event, Data: data})
	require.NoError(t, err)
	h.dispatcher.Dispatch(context.Background(), sid, raw)
}

// createRoom dispatches CREATE_ROOM and returns the new room code.
func (h *harness) createRoom(t *testing.T, sid string) string {
	t.Helper()
	h.dispatch(t, sid, EventCreateRoom, CreateRoom{})
	frame := h.emitter.single(t, EventRoomCreated)
	created, ok := frame.Payload.(RoomCreated)
	require.True(t, ok)
	h.emitter.reset()
	return created.RoomCode
}

// joinRoom dispatches JOIN_ROOM and returns the joined player's id.
func (h *harness) joinRoom(t *testing.T, sid, roomCode, nickname string) string {
	t.Helper()
	h.dispatch(t, sid, EventJoinRoom, JoinRoom{Nickname: nickname, RoomCode: roomCode})
	frame := h.emitter.single(t, EventNewRoomJoined)
	joined, ok := frame.Payload.(NewRoomJoined)
	require.True(t, ok)
	h.emitter.reset()
	return joined.PlayerID
}

func (h *harness) startGame(t *testing.T, sid, roomCode, hostID string) {
	t.Helper()
	h.dispatch(t, sid, EventStartGame, StartGame{
		PlayerID: hostID, GameName: game.FibbingItName, RoomCode: roomCode,
	})
	h.emitter.single(t, EventGameStarted)
	h.emitter.reset()
}

func assertError(t *testing.T, frame emittedFrame, code string) ErrorPayload {
	t.Helper()
	payload, ok := frame.Payload.(ErrorPayload)
	require.True(t, ok, "payload is %T, want ErrorPayload", frame.Payload)
	assert.Equal(t, code, payload.Code)
	return payload
}

func TestCreateAndJoinRoom(t *testing.T) {
	h := newHarness(t)

	h.dispatch(t, "sid-host", EventCreateRoom, CreateRoom{})
	frame := h.emitter.single(t, EventRoomCreated)
	assert.Equal(t, "sid-host", frame.Target)
	created := frame.Payload.(RoomCreated)
	require.NotEmpty(t, created.RoomCode)
	h.emitter.reset()

	h.dispatch(t, "sid-host", EventJoinRoom, JoinRoom{Nickname: "Majiy", RoomCode: created.RoomCode})

	joined := h.emitter.single(t, EventRoomJoined)
	assert.Equal(t, created.RoomCode, joined.Target)
	roomJoined := joined.Payload.(RoomJoined)
	assert.Equal(t, "Majiy", roomJoined.HostPlayerNickname)
	require.Len(t, roomJoined.Players, 1)

	newJoined := h.emitter.single(t, EventNewRoomJoined)
	assert.Equal(t, "sid-host", newJoined.Target)
	assert.NotEmpty(t, newJoined.Payload.(NewRoomJoined).PlayerID)

	assert.Equal(t, []string{"sid-host->" + created.RoomCode}, h.emitter.joins)
	h.emitter.reset()

	h.dispatch(t, "sid-lucy", EventJoinRoom, JoinRoom{Nickname: "Lucy", RoomCode: created.RoomCode})
	roomJoined = h.emitter.single(t, EventRoomJoined).Payload.(RoomJoined)
	assert.Equal(t, "Majiy", roomJoined.HostPlayerNickname)
	assert.Len(t, roomJoined.Players, 2)
}

func TestJoinRoomDuplicateNickname(t *testing.T) {
	h := newHarness(t)
	roomCode := h.createRoom(t, "sid-host")
	h.joinRoom(t, "sid-host", roomCode, "Majiy")

	h.dispatch(t, "sid-copycat", EventJoinRoom, JoinRoom{Nickname: "Majiy", RoomCode: roomCode})

	frame := h.emitter.single(t, EventError)
	assert.Equal(t, "sid-copycat", frame.Target)
	payload := assertError(t, frame, ErrCodeRoomJoinFail)
	assert.Equal(t, "nickname Majiy already exists", payload.Message)
	assert.Empty(t, h.emitter.framesFor(EventRoomJoined))
}

func TestKickPlayer(t *testing.T) {
	h := newHarness(t)
	roomCode := h.createRoom(t, "sid-host")
	hostID := h.joinRoom(t, "sid-host", roomCode, "Majiy")
	otherID := h.joinRoom(t, "sid-other", roomCode, "CanIHaseeburger")

	t.Run("non-host is rejected", func(t *testing.T) {
		h.dispatch(t, "sid-other", EventKickPlayer, KickPlayer{
			KickPlayerNickname: "Majiy", PlayerID: otherID, RoomCode: roomCode,
		})
		frame := h.emitter.single(t, EventError)
		payload := assertError(t, frame, ErrCodeKickPlayerFail)
		assert.Equal(t, "You are not host, so cannot kick another player", payload.Message)
		assert.Empty(t, h.emitter.leaves)
		h.emitter.reset()
	})

	t.Run("host removes the player", func(t *testing.T) {
		h.dispatch(t, "sid-host", EventKickPlayer, KickPlayer{
			KickPlayerNickname: "CanIHaseeburger", PlayerID: hostID, RoomCode: roomCode,
		})
		frame := h.emitter.single(t, EventPlayerKicked)
		assert.Equal(t, roomCode, frame.Target)
		assert.Equal(t, "CanIHaseeburger", frame.Payload.(PlayerKicked).Nickname)
		assert.Equal(t, []string{"sid-other->" + roomCode}, h.emitter.leaves)
	})
}

func TestDispatchMalformedFrames(t *testing.T) {
	h := newHarness(t)

	t.Run("unparseable frame", func(t *testing.T) {
		h.dispatcher.Dispatch(context.Background(), "sid-1", []byte("not json"))
		frame := h.emitter.single(t, EventError)
		payload := assertError(t, frame, ErrCodeServerError)
		assert.Equal(t, "Message received was not valid", payload.Message)
		h.emitter.reset()
	})

	t.Run("payload of the wrong shape", func(t *testing.T) {
		raw := []byte(`{"event":"JOIN_ROOM","data":{"nickname":42}}`)
		h.dispatcher.Dispatch(context.Background(), "sid-1", raw)
		frame := h.emitter.single(t, EventError)
		payload := assertError(t, frame, ErrCodeServerError)
		assert.Equal(t, "Message received was not valid", payload.Message)
		h.emitter.reset()
	})

	t.Run("unknown event is dropped silently", func(t *testing.T) {
		h.dispatcher.Dispatch(context.Background(), "sid-1", []byte(`{"event":"NO_SUCH_EVENT"}`))
		assert.Empty(t, h.emitter.frames)
	})
}

func TestGetNextQuestionFanOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	roomCode := h.createRoom(t, "sid-host")
	hostID := h.joinRoom(t, "sid-host", roomCode, "Majiy")
	h.joinRoom(t, "sid-lucy", roomCode, "Lucy")
	h.joinRoom(t, "sid-burger", roomCode, "CanIHaseeburger")
	h.startGame(t, "sid-host", roomCode, hostID)

	h.dispatch(t, "sid-host", EventGetNextQuestion, GetNextQuestion{PlayerID: hostID, RoomCode: roomCode})

	frames := h.emitter.framesFor(EventGotNextQuestion)
	require.Len(t, frames, 3)

	gameState, err := h.gameStates.Get(ctx, roomCode)
	require.NoError(t, err)
	members, err := h.players.GetAllInRoom(ctx, roomCode)
	require.NoError(t, err)
	fibberSID := ""
	for _, member := range members {
		if member.PlayerID == gameState.State.CurrentFibberID {
			fibberSID = member.LatestSID
		}
	}
	require.NotEmpty(t, fibberSID)

	var fibberContent string
	normal := map[string]struct{}{}
	for _, frame := range frames {
		payload := frame.Payload.(GotNextQuestion)
		assert.True(t, payload.UpdatedRound.RoundChanged)
		assert.Equal(t, models.RoundOpinion, payload.UpdatedRound.NewRound)
		assert.Equal(t, 45, payload.TimerInSeconds)
		assert.ElementsMatch(t, []string{"agree", "disagree"}, payload.Answers)
		if frame.Target == fibberSID {
			fibberContent = payload.Question
		} else {
			normal[payload.Question] = struct{}{}
		}
	}
	require.Len(t, normal, 1, "non-fibbers see the same question")
	for content := range normal {
		assert.NotEqual(t, content, fibberContent)
	}

	t.Run("outsider is rejected", func(t *testing.T) {
		h.emitter.reset()
		other := h.createRoom(t, "sid-stranger")
		strangerID := h.joinRoom(t, "sid-stranger", other, "Stranger")

		h.dispatch(t, "sid-stranger", EventGetNextQuestion, GetNextQuestion{
			PlayerID: strangerID, RoomCode: roomCode,
		})
		frame := h.emitter.single(t, EventError)
		payload := assertError(t, frame, ErrCodePlayerNotInRoom)
		assert.Equal(t, "Player is not in room", payload.Message)
	})
}

func TestSubmitAnswerFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	roomCode := h.createRoom(t, "sid-host")
	hostID := h.joinRoom(t, "sid-host", roomCode, "Majiy")
	lucyID := h.joinRoom(t, "sid-lucy", roomCode, "Lucy")
	h.startGame(t, "sid-host", roomCode, hostID)

	h.dispatch(t, "sid-host", EventGetNextQuestion, GetNextQuestion{PlayerID: hostID, RoomCode: roomCode})
	h.emitter.reset()

	t.Run("first answer leaves the question open", func(t *testing.T) {
		h.dispatch(t, "sid-host", EventSubmitAnswerFibbingIt, SubmitAnswerFibbingIt{
			PlayerID: hostID, Answer: "agree", RoomCode: roomCode,
		})
		frame := h.emitter.single(t, EventAnswerSubmittedFibbingIt)
		assert.Equal(t, "sid-host", frame.Target)
		assert.False(t, frame.Payload.(AnswerSubmittedFibbingIt).AllPlayersSubmitted)
		h.emitter.reset()
	})

	t.Run("last answer completes the question", func(t *testing.T) {
		h.dispatch(t, "sid-lucy", EventSubmitAnswerFibbingIt, SubmitAnswerFibbingIt{
			PlayerID: lucyID, Answer: "disagree", RoomCode: roomCode,
		})
		frame := h.emitter.single(t, EventAnswerSubmittedFibbingIt)
		assert.True(t, frame.Payload.(AnswerSubmittedFibbingIt).AllPlayersSubmitted)
		h.emitter.reset()
	})

	t.Run("answers revealed once the window closes", func(t *testing.T) {
		gameState, err := h.gameStates.Get(ctx, roomCode)
		require.NoError(t, err)
		require.NoError(t, h.gameStates.UpdateNextAction(ctx, gameState, models.ActionSubmitAnswers, -1))

		h.dispatch(t, "sid-host", EventGetAnswersFibbingIt, GetAnswersFibbingIt{
			PlayerID: hostID, RoomCode: roomCode,
		})
		frame := h.emitter.single(t, EventGotAnswersFibbingIt)
		payload := frame.Payload.(GotAnswersFibbingIt)
		assert.Equal(t, 300, payload.TimerInSeconds)
		assert.Equal(t, map[string]string{"Majiy": "agree", "Lucy": "disagree"}, payload.Answers)

		gameState, err = h.gameStates.Get(ctx, roomCode)
		require.NoError(t, err)
		assert.Equal(t, models.ActionVoteOnFibber, gameState.Action)
	})
}

func TestSubmitAnswerAfterDeadline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	roomCode := h.createRoom(t, "sid-host")
	hostID := h.joinRoom(t, "sid-host", roomCode, "Majiy")
	h.joinRoom(t, "sid-lucy", roomCode, "Lucy")
	h.startGame(t, "sid-host", roomCode, hostID)

	h.dispatch(t, "sid-host", EventGetNextQuestion, GetNextQuestion{PlayerID: hostID, RoomCode: roomCode})
	h.emitter.reset()

	gameState, err := h.gameStates.Get(ctx, roomCode)
	require.NoError(t, err)
	require.NoError(t, h.gameStates.UpdateNextAction(ctx, gameState, models.ActionSubmitAnswers, -1))

	h.dispatch(t, "sid-host", EventSubmitAnswerFibbingIt, SubmitAnswerFibbingIt{
		PlayerID: hostID, Answer: "agree", RoomCode: roomCode,
	})
	frame := h.emitter.single(t, EventError)
	payload := assertError(t, frame, ErrCodeTimeRunOut)
	assert.Equal(t, "Action took too long, time ran out", payload.Message)
}

func TestPauseAndUnpauseByHost(t *testing.T) {
	h := newHarness(t)
	roomCode := h.createRoom(t, "sid-host")
	hostID := h.joinRoom(t, "sid-host", roomCode, "Majiy")
	h.joinRoom(t, "sid-lucy", roomCode, "Lucy")
	h.startGame(t, "sid-host", roomCode, hostID)

	h.dispatch(t, "sid-host", EventPauseGame, PauseGame{PlayerID: hostID, RoomCode: roomCode})
	frame := h.emitter.single(t, EventGamePaused)
	assert.Equal(t, roomCode, frame.Target)
	paused := frame.Payload.(GamePaused)
	assert.Equal(t, 300, paused.PausedFor)
	assert.Equal(t, "Game paused by the host.", paused.Message)
	h.emitter.reset()

	h.dispatch(t, "sid-host", EventUnpauseGame, UnpauseGame{PlayerID: hostID, RoomCode: roomCode})
	frame = h.emitter.single(t, EventGameUnpaused)
	assert.Equal(t, roomCode, frame.Target)
}

func TestDisconnectAndRejoin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	roomCode := h.createRoom(t, "sid-host")
	hostID := h.joinRoom(t, "sid-host", roomCode, "Majiy")
	h.joinRoom(t, "sid-lucy", roomCode, "Lucy")
	h.startGame(t, "sid-host", roomCode, hostID)
	h.emitter.reset()

	t.Run("host disconnect pauses and promotes", func(t *testing.T) {
		h.dispatcher.HandleDisconnect(ctx, "sid-host")

		hostGone := h.emitter.single(t, EventHostDisconnected)
		assert.Equal(t, roomCode, hostGone.Target)
		assert.Equal(t, "Lucy", hostGone.Payload.(HostDisconnected).NewHostNickname)

		paused := h.emitter.single(t, EventGamePaused).Payload.(GamePaused)
		assert.Equal(t, 300, paused.PausedFor)
		assert.Equal(t, "Player Majiy disconnected, pausing game.", paused.Message)

		gone := h.emitter.single(t, EventPlayerDisconnected).Payload.(PlayerDisconnected)
		assert.Equal(t, "Majiy", gone.Nickname)

		player, err := h.players.Get(ctx, hostID)
		require.NoError(t, err)
		assert.NotNil(t, player.DisconnectedAt)
		h.emitter.reset()
	})

	t.Run("rejoin lifts the pause", func(t *testing.T) {
		h.dispatch(t, "sid-host-2", EventRejoinRoom, RejoinRoom{PlayerID: hostID})

		rejoined := h.emitter.single(t, EventRoomJoined)
		assert.Equal(t, "sid-host-2", rejoined.Target)
		assert.Equal(t, "Lucy", rejoined.Payload.(RoomJoined).HostPlayerNickname)

		unpaused := h.emitter.single(t, EventGameUnpaused)
		assert.Equal(t, roomCode, unpaused.Target)

		player, err := h.players.Get(ctx, hostID)
		require.NoError(t, err)
		assert.Nil(t, player.DisconnectedAt)
		assert.Equal(t, "sid-host-2", player.LatestSID)

		room, err := h.rooms.Get(ctx, roomCode)
		require.NoError(t, err)
		assert.Equal(t, models.RoomPlaying, room.State)
	})

	t.Run("unknown session disconnect is a no-op", func(t *testing.T) {
		h.emitter.reset()
		h.dispatcher.HandleDisconnect(ctx, "sid-never-seen")
		assert.Empty(t, h.emitter.frames)
	})
}

func TestRejoinSendsCurrentQuestion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	roomCode := h.createRoom(t, "sid-host")
	hostID := h.joinRoom(t, "sid-host", roomCode, "Majiy")
	lucyID := h.joinRoom(t, "sid-lucy", roomCode, "Lucy")
	h.startGame(t, "sid-host", roomCode, hostID)
	h.dispatch(t, "sid-host", EventGetNextQuestion, GetNextQuestion{PlayerID: hostID, RoomCode: roomCode})
	h.emitter.reset()

	h.dispatcher.HandleDisconnect(ctx, "sid-lucy")
	h.emitter.reset()

	h.dispatch(t, "sid-lucy-2", EventRejoinRoom, RejoinRoom{PlayerID: lucyID})

	frame := h.emitter.single(t, EventGotNextQuestion)
	assert.Equal(t, "sid-lucy-2", frame.Target)
	payload := frame.Payload.(GotNextQuestion)
	assert.False(t, payload.UpdatedRound.RoundChanged)
	assert.Equal(t, models.RoundOpinion, payload.UpdatedRound.NewRound)
	assert.NotEmpty(t, payload.Question)

	gameState, err := h.gameStates.Get(ctx, roomCode)
	require.NoError(t, err)
	current := gameState.State.Questions.Rounds.Opinion[0]
	expected := current.Question
	if gameState.State.CurrentFibberID == lucyID {
		expected = current.FibberQuestion
	}
	assert.Equal(t, expected, payload.Question)
}

func TestPermanentlyDisconnectPlayer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	roomCode := h.createRoom(t, "sid-host")
	h.joinRoom(t, "sid-host", roomCode, "Majiy")
	h.joinRoom(t, "sid-lucy", roomCode, "Lucy")

	t.Run("grace not elapsed keeps the player", func(t *testing.T) {
		now := time.Now()
		_, err := h.players.UpdateDisconnectedTime(ctx, "sid-lucy", &now)
		require.NoError(t, err)

		h.dispatch(t, "sid-host", EventPermanentlyDisconnectPlayer, PermanentlyDisconnectPlayer{
			Nickname: "Lucy", RoomCode: roomCode,
		})
		assert.Empty(t, h.emitter.frames)
	})

	t.Run("expired grace removes the player", func(t *testing.T) {
		stale := time.Now().Add(-time.Hour)
		_, err := h.players.UpdateDisconnectedTime(ctx, "sid-lucy", &stale)
		require.NoError(t, err)

		h.dispatch(t, "sid-host", EventPermanentlyDisconnectPlayer, PermanentlyDisconnectPlayer{
			Nickname: "Lucy", RoomCode: roomCode,
		})
		frame := h.emitter.single(t, EventPermanentlyDisconnectedPlayer)
		assert.Equal(t, roomCode, frame.Target)
		assert.Equal(t, "Lucy", frame.Payload.(PermanentlyDisconnectedPlayer).Nickname)
		assert.Equal(t, []string{"sid-lucy->" + roomCode}, h.emitter.leaves)

		room, err := h.rooms.Get(ctx, roomCode)
		require.NoError(t, err)
		assert.Equal(t, 1, room.PlayerCount)
	})
}

func TestAvatarCodec(t *testing.T) {
	t.Run("base64 round trip", func(t *testing.T) {
		raw := []byte{0x01, 0x02, 0x03}
		assert.Equal(t, raw, DecodeAvatar(EncodeAvatar(raw)))
	})

	t.Run("non-base64 input is taken as raw bytes", func(t *testing.T) {
		assert.Equal(t, []byte("not@base64!"), DecodeAvatar("not@base64!"))
	})

	t.Run("empty values", func(t *testing.T) {
		assert.Nil(t, DecodeAvatar(""))
		assert.Empty(t, EncodeAvatar(nil))
	})
}
