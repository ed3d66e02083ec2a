package models

import "time"

// Player is a single player document. A player belongs to at most one room;
// RoomID is cleared when they are kicked or their disconnect grace period
// expires.
type Player struct {
	PlayerID       string     `gorm:"primaryKey;uniqueIndex" json:"player_id"`
	Nickname       string     `gorm:"index:idx_players_room_nickname" json:"nickname"`
	Avatar         []byte     `json:"avatar"`
	RoomID         *string    `gorm:"index:idx_players_room_nickname;index" json:"room_id,omitempty"`
	LatestSID      string     `gorm:"column:latest_sid;index" json:"latest_sid"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewPlayer carries the client-supplied fields of a joining player before an
// id has been allocated.
type NewPlayer struct {
	Nickname  string
	Avatar    []byte
	LatestSID string
}

// RoomPlayers is the lobby view returned by join and rejoin.
type RoomPlayers struct {
	Players            []Player
	HostPlayerNickname string
	PlayerID           string
	RoomCode           string
}
