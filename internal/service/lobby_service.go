package service

import (
	"context"
	"strings"

	"banterbus/internal/catalog"
	"banterbus/internal/models"
)

// LobbyService composes the room, player and game-state services to
// implement join, rejoin, kick and start-game.
type LobbyService struct {
	rooms      *RoomService
	players    *PlayerService
	gameStates *GameStateService
}

// NewLobbyService returns a new LobbyService.
func NewLobbyService(rooms *RoomService, players *PlayerService, gameStates *GameStateService) *LobbyService {
	return &LobbyService{rooms: rooms, players: players, gameStates: gameStates}
}

// CreateRoom creates a fresh empty room and returns its code.
func (s *LobbyService) CreateRoom(ctx context.Context) (*models.Room, error) {
	return s.rooms.Create(ctx)
}

// Join adds a new player to a joinable room. The first joiner becomes host.
func (s *LobbyService) Join(ctx context.Context, roomID string, newPlayer models.NewPlayer) (*models.RoomPlayers, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.State.IsJoinable() {
		return nil, models.NewAppError(models.CodeRoomNotJoinable,
			"room %s is in state %s and cannot be joined", room.RoomID, room.State)
	}

	members, err := s.players.GetAllInRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		if strings.EqualFold(member.Nickname, newPlayer.Nickname) {
			return nil, models.NewAppError(models.CodeNicknameExists,
				"nickname %s already exists", newPlayer.Nickname)
		}
	}

	player, err := s.players.Create(ctx, room.RoomID, newPlayer)
	if err != nil {
		return nil, err
	}
	if room.Host == nil {
		if err := s.rooms.UpdateHost(ctx, room, player.PlayerID); err != nil {
			return nil, err
		}
	}
	if err := s.rooms.UpdatePlayerCount(ctx, room, 1); err != nil {
		return nil, err
	}

	members = append(members, *player)
	return s.roomPlayers(room, members, player.PlayerID)
}

// Rejoin reattaches a previously joined player, clearing their disconnect
// clock and rewriting their session id.
func (s *LobbyService) Rejoin(ctx context.Context, playerID, latestSID string) (*models.RoomPlayers, error) {
	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player, err = s.players.UpdateLatestSID(ctx, player, latestSID); err != nil {
		return nil, err
	}
	if player.RoomID == nil {
		return nil, models.NewAppError(models.CodePlayerHasNoRoom,
			"player %s is not in a room", playerID)
	}
	if _, err = s.players.ClearDisconnected(ctx, player); err != nil {
		return nil, err
	}

	room, err := s.rooms.Get(ctx, *player.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.State.IsRejoinable() {
		return nil, models.NewAppError(models.CodeRoomInInvalidState,
			"room %s is in state %s and cannot be rejoined", room.RoomID, room.State)
	}

	members, err := s.players.GetAllInRoom(ctx, room.RoomID)
	if err != nil {
		return nil, err
	}
	return s.roomPlayers(room, members, player.PlayerID)
}

// KickPlayer removes a player from a lobby on the host's request. The
// returned player still carries their last session id so the caller can
// detach them from the room channel.
func (s *LobbyService) KickPlayer(
	ctx context.Context, kickNickname, actorID, roomID string,
) (*models.Player, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Host == nil || *room.Host != actorID {
		return nil, models.NewAppError(models.CodePlayerNotHost,
			"You are not host, so cannot kick another player")
	}
	if room.State != models.RoomCreated {
		return nil, models.NewAppError(models.CodeRoomInInvalidState,
			"room %s is in state %s, players can only be kicked before the game starts",
			room.RoomID, room.State)
	}

	player, err := s.players.RemoveFromRoom(ctx, kickNickname, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.UpdatePlayerCount(ctx, room, -1); err != nil {
		return nil, err
	}
	return player, nil
}

// UpdateHost elects any remaining member other than the old host.
func (s *LobbyService) UpdateHost(ctx context.Context, room *models.Room, oldHostID string) (*models.Player, error) {
	members, err := s.players.GetAllInRoom(ctx, room.RoomID)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		if member.PlayerID == oldHostID {
			continue
		}
		if err := s.rooms.UpdateHost(ctx, room, member.PlayerID); err != nil {
			return nil, err
		}
		newHost := member
		return &newHost, nil
	}
	return nil, models.NewAppError(models.CodeNoOtherHost,
		"no other player available to host room %s", room.RoomID)
}

// StartGame transitions a lobby into a running game after checking the
// catalog's player bounds, and creates the initial game state.
func (s *LobbyService) StartGame(
	ctx context.Context, catalogClient catalog.Client, gameName, playerID, roomID string,
) (*models.GameState, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.State != models.RoomCreated {
		return nil, models.NewAppError(models.CodeRoomInInvalidState,
			"room %s is in state %s, the game can only start from %s",
			room.RoomID, room.State, models.RoomCreated)
	}
	if err := s.rooms.CheckIsHost(room, playerID); err != nil {
		return nil, err
	}

	gameInfo, err := catalogClient.GetGame(ctx, gameName)
	if err != nil {
		return nil, err
	}
	if !gameInfo.Enabled {
		return nil, models.NewAppError(models.CodeGameNotEnabled, "game %s is not enabled", gameName)
	}
	if room.PlayerCount < gameInfo.MinimumPlayers {
		return nil, models.NewAppError(models.CodeTooFewPlayers,
			"game %s needs at least %d players, got %d", gameName, gameInfo.MinimumPlayers, room.PlayerCount)
	}
	if room.PlayerCount > gameInfo.MaximumPlayers {
		return nil, models.NewAppError(models.CodeTooManyPlayers,
			"game %s allows at most %d players, got %d", gameName, gameInfo.MaximumPlayers, room.PlayerCount)
	}

	members, err := s.players.GetAllInRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	room.GameName = &gameName
	if err := s.rooms.UpdateState(ctx, room, models.RoomPlaying); err != nil {
		return nil, err
	}
	return s.gameStates.Create(ctx, roomID, members, gameName)
}

func (s *LobbyService) roomPlayers(
	room *models.Room, members []models.Player, playerID string,
) (*models.RoomPlayers, error) {
	if room.Host == nil {
		return nil, models.NewAppError(models.CodeRoomHasNoHost, "room %s has no host", room.RoomID)
	}

	hostNickname := ""
	for _, member := range members {
		if member.PlayerID == *room.Host {
			hostNickname = member.Nickname
			break
		}
	}
	return &models.RoomPlayers{
		Players:            members,
		HostPlayerNickname: hostNickname,
		PlayerID:           playerID,
		RoomCode:           room.RoomID,
	}, nil
}
