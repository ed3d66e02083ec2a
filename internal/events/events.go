// Package events defines the wire-level event names and payloads and the
// dispatcher that routes inbound frames to their handlers.
package events

import (
	"encoding/base64"

	"banterbus/internal/models"
)

// Inbound event names.
const (
	EventCreateRoom                  = "CREATE_ROOM"
	EventJoinRoom                    = "JOIN_ROOM"
	EventRejoinRoom                  = "REJOIN_ROOM"
	EventKickPlayer                  = "KICK_PLAYER"
	EventStartGame                   = "START_GAME"
	EventGetNextQuestion             = "GET_NEXT_QUESTION"
	EventPauseGame                   = "PAUSE_GAME"
	EventUnpauseGame                 = "UNPAUSE_GAME"
	EventSubmitAnswerFibbingIt       = "SUBMIT_ANSWER_FIBBING_IT"
	EventGetAnswersFibbingIt         = "GET_ANSWERS_FIBBING_IT"
	EventPermanentlyDisconnectPlayer = "PERMANENTLY_DISCONNECT_PLAYER"
)

// Outbound event names.
const (
	EventRoomCreated                   = "ROOM_CREATED"
	EventRoomJoined                    = "ROOM_JOINED"
	EventNewRoomJoined                 = "NEW_ROOM_JOINED"
	EventPlayerKicked                  = "PLAYER_KICKED"
	EventPlayerDisconnected            = "PLAYER_DISCONNECTED"
	EventHostDisconnected              = "HOST_DISCONNECTED"
	EventPermanentlyDisconnectedPlayer = "PERMANENTLY_DISCONNECTED_PLAYER"
	EventGameStarted                   = "GAME_STARTED"
	EventGotNextQuestion               = "GOT_NEXT_QUESTION"
	EventGamePaused                    = "GAME_PAUSED"
	EventGameUnpaused                  = "GAME_UNPAUSED"
	EventAnswerSubmittedFibbingIt      = "ANSWER_SUBMITTED_FIBBING_IT"
	EventGotAnswersFibbingIt           = "GOT_ANSWERS_FIBBING_IT"
	EventError                         = "ERROR"
)

// Wire error codes carried by ERROR frames.
const (
	ErrCodeRoomCreateFail  = "room_create_fail"
	ErrCodeRoomJoinFail    = "room_join_fail"
	ErrCodeKickPlayerFail  = "kick_player_fail"
	ErrCodeServerError     = "server_error"
	ErrCodePlayerNotInRoom = "player_not_in_room"
	ErrCodeTimeRunOut      = "time_run_out"
)

// Inbound payloads.

type CreateRoom struct{}

type JoinRoom struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	RoomCode string `json:"room_code"`
}

type RejoinRoom struct {
	PlayerID string `json:"player_id"`
}

type KickPlayer struct {
	KickPlayerNickname string `json:"kick_player_nickname"`
	PlayerID           string `json:"player_id"`
	RoomCode           string `json:"room_code"`
}

type StartGame struct {
	PlayerID string `json:"player_id"`
	GameName string `json:"game_name"`
	RoomCode string `json:"room_code"`
}

type GetNextQuestion struct {
	PlayerID string `json:"player_id"`
	RoomCode string `json:"room_code"`
}

type PauseGame struct {
	PlayerID string `json:"player_id"`
	RoomCode string `json:"room_code"`
}

type UnpauseGame struct {
	PlayerID string `json:"player_id"`
	RoomCode string `json:"room_code"`
}

type SubmitAnswerFibbingIt struct {
	PlayerID string `json:"player_id"`
	Answer   string `json:"answer"`
	RoomCode string `json:"room_code"`
}

type GetAnswersFibbingIt struct {
	PlayerID string `json:"player_id"`
	RoomCode string `json:"room_code"`
}

type PermanentlyDisconnectPlayer struct {
	Nickname string `json:"nickname"`
	RoomCode string `json:"room_code"`
}

// Outbound payloads.

type RoomCreated struct {
	RoomCode string `json:"room_code"`
}

// PlayerPayload is the outbound shape of one room member. Avatars travel
// base64 encoded.
type PlayerPayload struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type RoomJoined struct {
	Players            []PlayerPayload `json:"players"`
	HostPlayerNickname string          `json:"host_player_nickname"`
}

type NewRoomJoined struct {
	PlayerID string `json:"player_id"`
}

type PlayerKicked struct {
	Nickname string `json:"nickname"`
}

type PlayerDisconnected struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

type HostDisconnected struct {
	NewHostNickname string `json:"new_host_nickname"`
}

type PermanentlyDisconnectedPlayer struct {
	Nickname string `json:"nickname"`
}

type GameStarted struct {
	GameName string `json:"game_name"`
}

type GotNextQuestion struct {
	UpdatedRound   models.UpdateQuestionRoundState `json:"updated_round"`
	Question       string                          `json:"question"`
	Answers        []string                        `json:"answers,omitempty"`
	TimerInSeconds int                             `json:"timer_in_seconds"`
}

type GamePaused struct {
	PausedFor int    `json:"paused_for"`
	Message   string `json:"message"`
}

type GameUnpaused struct{}

type AnswerSubmittedFibbingIt struct {
	AllPlayersSubmitted bool `json:"all_players_submitted"`
}

type GotAnswersFibbingIt struct {
	Answers        map[string]string `json:"answers"`
	TimerInSeconds int               `json:"timer_in_seconds"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeAvatar converts an inbound avatar to bytes. Base64 is the expected
// encoding; anything that does not decode is taken as raw bytes.
func DecodeAvatar(avatar string) []byte {
	if avatar == "" {
		return nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(avatar); err == nil {
		return decoded
	}
	return []byte(avatar)
}

// EncodeAvatar converts avatar bytes to their outbound base64 form.
func EncodeAvatar(avatar []byte) string {
	if len(avatar) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(avatar)
}

// PlayersPayload converts room members to their outbound shape.
func PlayersPayload(players []models.Player) []PlayerPayload {
	out := make([]PlayerPayload, 0, len(players))
	for _, player := range players {
		out = append(out, PlayerPayload{
			Nickname: player.Nickname,
			Avatar:   EncodeAvatar(player.Avatar),
		})
	}
	return out
}
