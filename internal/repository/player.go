package repository

import (
	"context"
	"errors"

	"banterbus/internal/models"

	"gorm.io/gorm"
)

// PlayerRepository defines persistence operations for players.
type PlayerRepository interface {
	Add(ctx context.Context, player *models.Player) error
	Get(ctx context.Context, playerID string) (*models.Player, error)
	GetBySID(ctx context.Context, sid string) (*models.Player, error)
	GetByNickname(ctx context.Context, roomID, nickname string) (*models.Player, error)
	GetAllInRoom(ctx context.Context, roomID string) ([]models.Player, error)
	GetDisconnected(ctx context.Context) ([]models.Player, error)
	Update(ctx context.Context, player *models.Player) error
}

type playerRepository struct {
	db *gorm.DB
}

// NewPlayerRepository returns a new PlayerRepository implementation.
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepository{db: db}
}

func (r *playerRepository) Add(ctx context.Context, player *models.Player) error {
	if err := r.db.WithContext(ctx).Create(player).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewAppError(models.CodePlayerExists, "player %s already exists", player.PlayerID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *playerRepository) Get(ctx context.Context, playerID string) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).First(&player, "player_id = ?", playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewAppError(models.CodePlayerNotFound, "player %s not found", playerID)
		}
		return nil, models.NewInternalError(err)
	}
	return &player, nil
}

func (r *playerRepository) GetBySID(ctx context.Context, sid string) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).First(&player, "latest_sid = ?", sid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewAppError(models.CodePlayerNotFound, "no player with sid %s", sid)
		}
		return nil, models.NewInternalError(err)
	}
	return &player, nil
}

func (r *playerRepository) GetByNickname(ctx context.Context, roomID, nickname string) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).
		First(&player, "room_id = ? AND nickname = ?", roomID, nickname).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewAppError(models.CodePlayerNotFound, "player %s not found in room %s", nickname, roomID)
		}
		return nil, models.NewInternalError(err)
	}
	return &player, nil
}

func (r *playerRepository) GetAllInRoom(ctx context.Context, roomID string) ([]models.Player, error) {
	var players []models.Player
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return players, nil
}

func (r *playerRepository) GetDisconnected(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	err := r.db.WithContext(ctx).
		Where("disconnected_at IS NOT NULL").
		Find(&players).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return players, nil
}

func (r *playerRepository) Update(ctx context.Context, player *models.Player) error {
	if err := r.db.WithContext(ctx).Save(player).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
