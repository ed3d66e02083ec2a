package service

import (
	"context"

	"banterbus/internal/models"
	"banterbus/internal/repository"

	"github.com/google/uuid"
)

// RoomService provides room CRUD, state transitions and pause gating.
type RoomService struct {
	roomRepo repository.RoomRepository
}

// NewRoomService returns a new RoomService.
func NewRoomService(roomRepo repository.RoomRepository) *RoomService {
	return &RoomService{roomRepo: roomRepo}
}

// Create persists a fresh empty room in the CREATED state.
func (s *RoomService) Create(ctx context.Context) (*models.Room, error) {
	room := &models.Room{
		RoomID:      uuid.NewString(),
		State:       models.RoomCreated,
		PlayerCount: 0,
	}
	if err := s.roomRepo.Add(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// Get returns the room with the given id.
func (s *RoomService) Get(ctx context.Context, roomID string) (*models.Room, error) {
	return s.roomRepo.Get(ctx, roomID)
}

// UpdateHost persists a new host for the room.
func (s *RoomService) UpdateHost(ctx context.Context, room *models.Room, playerID string) error {
	room.Host = &playerID
	return s.roomRepo.Update(ctx, room)
}

// UpdateState persists a room state transition.
func (s *RoomService) UpdateState(ctx context.Context, room *models.Room, state models.RoomState) error {
	room.State = state
	return s.roomRepo.Update(ctx, room)
}

// UpdatePlayerCount adjusts the member count by delta and persists it.
func (s *RoomService) UpdatePlayerCount(ctx context.Context, room *models.Room, delta int) error {
	room.PlayerCount += delta
	return s.roomRepo.Update(ctx, room)
}

// CheckIsHost verifies that playerID is the room's host.
func (s *RoomService) CheckIsHost(room *models.Room, playerID string) error {
	if room.Host == nil {
		return models.NewAppError(models.CodeRoomHasNoHost, "room %s has no host", room.RoomID)
	}
	if *room.Host != playerID {
		return models.NewAppError(models.CodePlayerNotHost,
			"player %s is not host of room %s", playerID, room.RoomID)
	}
	return nil
}

// PauseGame pauses a running game on the host's request. Returns the pause
// duration in seconds.
func (s *RoomService) PauseGame(
	ctx context.Context, roomID, playerID string, gameStates *GameStateService,
) (int, error) {
	room, err := s.requirePlayingHost(ctx, roomID, playerID)
	if err != nil {
		return 0, err
	}
	pausedFor, err := gameStates.PauseGame(ctx, roomID, nil)
	if err != nil {
		return 0, err
	}
	if err := s.UpdateState(ctx, room, models.RoomPaused); err != nil {
		return 0, err
	}
	return pausedFor, nil
}

// UnpauseGame resumes a paused game on the host's request.
func (s *RoomService) UnpauseGame(
	ctx context.Context, roomID, playerID string, gameStates *GameStateService,
) (*models.GamePaused, error) {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckIsHost(room, playerID); err != nil {
		return nil, err
	}
	if !room.State.IsRejoinableAndStarted() {
		return nil, models.NewAppError(models.CodeRoomInInvalidState,
			"room %s is in state %s, expected a started game", room.RoomID, room.State)
	}

	paused, err := gameStates.UnpauseGame(ctx, roomID, nil)
	if err != nil {
		return nil, err
	}
	if !paused.IsPaused {
		if err := s.UpdateState(ctx, room, models.RoomPlaying); err != nil {
			return nil, err
		}
	}
	return paused, nil
}

func (s *RoomService) requirePlayingHost(ctx context.Context, roomID, playerID string) (*models.Room, error) {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckIsHost(room, playerID); err != nil {
		return nil, err
	}
	if room.State != models.RoomPlaying {
		return nil, models.NewAppError(models.CodeRoomInInvalidState,
			"room %s is in state %s, expected %s", room.RoomID, room.State, models.RoomPlaying)
	}
	return room, nil
}
