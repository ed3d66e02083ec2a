package service

import (
	"context"
	"time"

	"banterbus/internal/catalog"
	"banterbus/internal/game"
	"banterbus/internal/models"
	"banterbus/internal/repository"
)

// PauseCeilingSeconds is the absolute cap on how long a game stays paused.
const PauseCeilingSeconds = 300

// GameStateService wraps the game engine with persistence and the
// action/deadline invariants.
type GameStateService struct {
	gameStateRepo repository.GameStateRepository
	catalogClient catalog.Client
	engine        *game.FibbingIt
}

// NewGameStateService returns a new GameStateService.
func NewGameStateService(
	gameStateRepo repository.GameStateRepository, catalogClient catalog.Client, engine *game.FibbingIt,
) *GameStateService {
	return &GameStateService{
		gameStateRepo: gameStateRepo,
		catalogClient: catalogClient,
		engine:        engine,
	}
}

// Engine exposes the underlying engine for handlers that call its pure
// functions directly.
func (s *GameStateService) Engine() *game.FibbingIt {
	return s.engine
}

// Create builds the starting state for a room and persists it. Only
// fibbing_it is implemented.
func (s *GameStateService) Create(
	ctx context.Context, roomID string, players []models.Player, gameName string,
) (*models.GameState, error) {
	if gameName != game.FibbingItName {
		return nil, models.NewAppError(models.CodeGameNotFound, "game %s not found", gameName)
	}

	state, err := s.engine.GetStartingState(ctx, s.catalogClient, players)
	if err != nil {
		return nil, err
	}

	scores := make([]models.PlayerScore, 0, len(players))
	for _, player := range players {
		scores = append(scores, models.PlayerScore{PlayerID: player.PlayerID, Score: 0})
	}

	gameState := &models.GameState{
		RoomID:       roomID,
		GameName:     gameName,
		PlayerScores: scores,
		State:        state,
		Action:       models.ActionShowQuestion,
		Paused:       models.GamePaused{},
	}
	if err := s.gameStateRepo.Add(ctx, gameState); err != nil {
		return nil, err
	}
	return gameState, nil
}

// Get returns the game state for a room.
func (s *GameStateService) Get(ctx context.Context, roomID string) (*models.GameState, error) {
	return s.gameStateRepo.Get(ctx, roomID)
}

// GetNextQuestion advances the question cursor and returns the next-question
// bundle. The action moves to SUBMIT_ANSWERS with a fresh deadline.
func (s *GameStateService) GetNextQuestion(ctx context.Context, gameState *models.GameState) (*models.NextQuestion, error) {
	if gameState.Paused.IsPaused &&
		gameState.Paused.PausedStoppedAt != nil &&
		gameState.Paused.PausedStoppedAt.Before(time.Now()) {
		return nil, models.NewAppError(models.CodeGameIsPaused, "game in room %s is paused", gameState.RoomID)
	}
	if gameState.Action != models.ActionShowQuestion {
		return nil, models.NewAppError(models.CodeInvalidGameAction,
			"expected action %s, current action %s", models.ActionShowQuestion, gameState.Action)
	}
	if gameState.State == nil {
		return nil, models.NewAppError(models.CodeGameStateIsNone,
			"game state for room %s has no state", gameState.RoomID)
	}

	oldRound := gameState.State.CurrentRound
	newState := s.engine.UpdateQuestionState(gameState.State)
	if newState == nil {
		return nil, models.NewAppError(models.CodeGameStateIsNone,
			"no more questions in room %s", gameState.RoomID)
	}
	if err := s.UpdateState(ctx, gameState, newState); err != nil {
		return nil, err
	}

	roundChanged := s.engine.HasRoundChanged(newState, oldRound, newState.CurrentRound)
	question := s.engine.GetNextQuestion(newState)
	timer := s.engine.GetTimer(newState.CurrentRound, gameState.Action)

	if err := s.UpdateNextAction(ctx, gameState, models.ActionSubmitAnswers, timer); err != nil {
		return nil, err
	}

	updatedRound := models.UpdateQuestionRoundState{RoundChanged: roundChanged}
	if roundChanged {
		updatedRound.NewRound = newState.CurrentRound
	}
	return &models.NextQuestion{
		UpdatedRound:   updatedRound,
		Question:       question,
		TimerInSeconds: timer,
	}, nil
}

// UpdateState persists a replacement engine state.
func (s *GameStateService) UpdateState(
	ctx context.Context, gameState *models.GameState, state *models.FibbingItState,
) error {
	gameState.State = state
	return s.gameStateRepo.Update(ctx, gameState)
}

// UpdateNextAction moves the action forward and stamps its deadline.
func (s *GameStateService) UpdateNextAction(
	ctx context.Context, gameState *models.GameState, action models.GameAction, timerSeconds int,
) error {
	completedBy := time.Now().Add(time.Duration(timerSeconds) * time.Second)
	gameState.Action = action
	gameState.ActionCompletedBy = &completedBy
	return s.gameStateRepo.Update(ctx, gameState)
}

// PauseGame marks the game paused with an absolute stop ceiling. When a
// disconnected player is given, they are appended to the waiting set; a
// host-requested pause passes nil and fails if already paused.
func (s *GameStateService) PauseGame(ctx context.Context, roomID string, playerDisconnected *string) (int, error) {
	gameState, err := s.gameStateRepo.Get(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if gameState.Paused.IsPaused && playerDisconnected == nil {
		return 0, models.NewAppError(models.CodeGameStateAlreadyPaused,
			"game in room %s is already paused", roomID)
	}

	stoppedAt := time.Now().Add(PauseCeilingSeconds * time.Second)
	gameState.Paused.IsPaused = true
	gameState.Paused.PausedStoppedAt = &stoppedAt
	if playerDisconnected != nil {
		gameState.Paused.WaitingForPlayers = append(gameState.Paused.WaitingForPlayers, *playerDisconnected)
	}
	if err := s.gameStateRepo.Update(ctx, gameState); err != nil {
		return 0, err
	}
	return PauseCeilingSeconds, nil
}

// UnpauseGame removes a reconnected player from the waiting set and clears
// the pause once nobody is left waiting. Callers inspect the returned record
// to decide whether to announce GAME_UNPAUSED.
func (s *GameStateService) UnpauseGame(
	ctx context.Context, roomID string, playerReconnected *string,
) (*models.GamePaused, error) {
	gameState, err := s.gameStateRepo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !gameState.Paused.IsPaused {
		return nil, models.NewAppError(models.CodeGameStateNotPaused,
			"game in room %s is not paused", roomID)
	}

	if playerReconnected != nil {
		waiting := gameState.Paused.WaitingForPlayers[:0]
		for _, playerID := range gameState.Paused.WaitingForPlayers {
			if playerID != *playerReconnected {
				waiting = append(waiting, playerID)
			}
		}
		gameState.Paused.WaitingForPlayers = waiting
	}

	if len(gameState.Paused.WaitingForPlayers) == 0 {
		gameState.Paused = models.GamePaused{}
	}
	if err := s.gameStateRepo.Update(ctx, gameState); err != nil {
		return nil, err
	}
	paused := gameState.Paused
	return &paused, nil
}
