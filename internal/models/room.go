// Package models defines the persisted documents and error taxonomy of the
// game-session server.
package models

import "time"

// RoomState is the lifecycle state of a room.
type RoomState string

// Room lifecycle states. A room never leaves FINISHED or ABANDONED.
const (
	RoomCreated   RoomState = "CREATED"
	RoomPlaying   RoomState = "PLAYING"
	RoomPaused    RoomState = "PAUSED"
	RoomFinished  RoomState = "FINISHED"
	RoomAbandoned RoomState = "ABANDONED"
)

// IsJoinable reports whether new players may join a room in this state.
func (s RoomState) IsJoinable() bool {
	return s == RoomCreated
}

// IsRejoinable reports whether previously joined players may rejoin.
func (s RoomState) IsRejoinable() bool {
	return s == RoomCreated || s == RoomPlaying || s == RoomPaused
}

// IsRejoinableAndStarted reports whether a rejoining player lands in a game
// that is already in progress.
func (s RoomState) IsRejoinableAndStarted() bool {
	return s == RoomPlaying || s == RoomPaused
}

// Room is a single game room document.
type Room struct {
	RoomID      string    `gorm:"primaryKey;uniqueIndex" json:"room_id"`
	GameName    *string   `json:"game_name,omitempty"`
	Host        *string   `json:"host,omitempty"`
	State       RoomState `gorm:"index" json:"state"`
	PlayerCount int       `json:"player_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HostIs reports whether the given player currently hosts the room.
func (r *Room) HostIs(playerID string) bool {
	return r.Host != nil && *r.Host == playerID
}
