// Package service implements the business logic composed from repositories,
// the game engine and the catalog client.
package service

import (
	"context"
	"time"

	"banterbus/internal/models"
	"banterbus/internal/repository"

	"github.com/google/uuid"
)

// PlayerService provides player CRUD and disconnect bookkeeping.
type PlayerService struct {
	playerRepo repository.PlayerRepository
}

// NewPlayerService returns a new PlayerService.
func NewPlayerService(playerRepo repository.PlayerRepository) *PlayerService {
	return &PlayerService{playerRepo: playerRepo}
}

// Create allocates a player id and persists the new player in the room.
func (s *PlayerService) Create(ctx context.Context, roomID string, newPlayer models.NewPlayer) (*models.Player, error) {
	player := &models.Player{
		PlayerID:  uuid.NewString(),
		Nickname:  newPlayer.Nickname,
		Avatar:    newPlayer.Avatar,
		LatestSID: newPlayer.LatestSID,
		RoomID:    &roomID,
	}
	if err := s.playerRepo.Add(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// Get returns the player with the given id.
func (s *PlayerService) Get(ctx context.Context, playerID string) (*models.Player, error) {
	return s.playerRepo.Get(ctx, playerID)
}

// GetBySID returns the player whose latest session id matches sid.
func (s *PlayerService) GetBySID(ctx context.Context, sid string) (*models.Player, error) {
	return s.playerRepo.GetBySID(ctx, sid)
}

// GetAllInRoom returns every player currently in the room.
func (s *PlayerService) GetAllInRoom(ctx context.Context, roomID string) ([]models.Player, error) {
	return s.playerRepo.GetAllInRoom(ctx, roomID)
}

// RemoveFromRoom clears the player's room membership. Host succession is the
// caller's responsibility.
func (s *PlayerService) RemoveFromRoom(ctx context.Context, nickname, roomID string) (*models.Player, error) {
	player, err := s.playerRepo.GetByNickname(ctx, roomID, nickname)
	if err != nil {
		return nil, err
	}
	player.RoomID = nil
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// UpdateDisconnectedTime stamps (or clears) the disconnect clock on the
// player holding the given session id. Writing an unchanged value is a no-op.
func (s *PlayerService) UpdateDisconnectedTime(ctx context.Context, sid string, at *time.Time) (*models.Player, error) {
	player, err := s.playerRepo.GetBySID(ctx, sid)
	if err != nil {
		return nil, err
	}
	return s.setDisconnectedAt(ctx, player, at)
}

// ClearDisconnected resets the disconnect clock on a known player.
func (s *PlayerService) ClearDisconnected(ctx context.Context, player *models.Player) (*models.Player, error) {
	return s.setDisconnectedAt(ctx, player, nil)
}

func (s *PlayerService) setDisconnectedAt(ctx context.Context, player *models.Player, at *time.Time) (*models.Player, error) {
	if equalTimePtr(player.DisconnectedAt, at) {
		return player, nil
	}
	player.DisconnectedAt = at
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// UpdateLatestSID rewrites the player's session id, last writer wins.
func (s *PlayerService) UpdateLatestSID(ctx context.Context, player *models.Player, sid string) (*models.Player, error) {
	player.LatestSID = sid
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// DisconnectPlayer removes the player from their room when the disconnect
// grace period has elapsed. The returned bool reports whether the player was
// actually removed.
func (s *PlayerService) DisconnectPlayer(
	ctx context.Context, nickname, roomID string, grace time.Duration,
) (*models.Player, bool, error) {
	player, err := s.playerRepo.GetByNickname(ctx, roomID, nickname)
	if err != nil {
		return nil, false, err
	}
	if player.DisconnectedAt == nil || time.Since(*player.DisconnectedAt) < grace {
		return player, false, nil
	}
	player.RoomID = nil
	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, false, err
	}
	return player, true, nil
}

// GetDisconnected returns every player with a disconnect clock set.
func (s *PlayerService) GetDisconnected(ctx context.Context) ([]models.Player, error) {
	return s.playerRepo.GetDisconnected(ctx)
}

// SweepDisconnected removes every player whose grace period expired and
// returns the players that were removed. Used by the admin sweep endpoint.
func (s *PlayerService) SweepDisconnected(ctx context.Context, grace time.Duration) ([]models.Player, error) {
	players, err := s.GetDisconnected(ctx)
	if err != nil {
		return nil, err
	}

	var removed []models.Player
	for _, player := range players {
		if player.RoomID == nil {
			continue
		}
		swept, wasRemoved, err := s.DisconnectPlayer(ctx, player.Nickname, *player.RoomID, grace)
		if err != nil {
			return nil, err
		}
		if wasRemoved {
			removed = append(removed, *swept)
		}
	}
	return removed, nil
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
