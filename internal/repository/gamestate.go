package repository

import (
	"context"
	"errors"

	"banterbus/internal/models"

	"gorm.io/gorm"
)

// GameStateRepository defines persistence operations for game states.
type GameStateRepository interface {
	Add(ctx context.Context, gameState *models.GameState) error
	Get(ctx context.Context, roomID string) (*models.GameState, error)
	Update(ctx context.Context, gameState *models.GameState) error
}

type gameStateRepository struct {
	db *gorm.DB
}

// NewGameStateRepository returns a new GameStateRepository implementation.
func NewGameStateRepository(db *gorm.DB) GameStateRepository {
	return &gameStateRepository{db: db}
}

func (r *gameStateRepository) Add(ctx context.Context, gameState *models.GameState) error {
	if err := r.db.WithContext(ctx).Create(gameState).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewAppError(models.CodeGameStateExists,
				"game state for room %s already exists", gameState.RoomID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *gameStateRepository) Get(ctx context.Context, roomID string) (*models.GameState, error) {
	var gameState models.GameState
	if err := r.db.WithContext(ctx).First(&gameState, "room_id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewAppError(models.CodeGameStateNotFound,
				"game state for room %s not found", roomID)
		}
		return nil, models.NewInternalError(err)
	}
	return &gameState, nil
}

func (r *gameStateRepository) Update(ctx context.Context, gameState *models.GameState) error {
	if err := r.db.WithContext(ctx).Save(gameState).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
