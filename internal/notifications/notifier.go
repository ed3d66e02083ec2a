package notifications

import (
	"context"
	"log"
	"runtime/debug"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	roomChannelPrefix    = "game:room:"
	sessionChannelPrefix = "game:sid:"
)

// Notifier publishes frames into Redis channels so rooms span processes.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier using the provided Redis client. A nil
// client disables the backplane.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether the backplane is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// Publish sends a frame payload to a channel.
func (n *Notifier) Publish(ctx context.Context, channel, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// StartRoomSubscriber subscribes to the room and session patterns and calls
// onMessage for each incoming frame.
func (n *Notifier) StartRoomSubscriber(
	ctx context.Context, onMessage func(channel, payload string),
) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, roomChannelPrefix+"*", sessionChannelPrefix+"*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in RoomSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// RoomChannel derives the Redis channel name for a room.
func RoomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

// SessionChannel derives the Redis channel name for a single session.
func SessionChannel(sid string) string {
	return sessionChannelPrefix + sid
}

// ParseRoomChannel extracts the room id from a room channel name.
func ParseRoomChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, roomChannelPrefix) {
		return "", false
	}
	return strings.TrimPrefix(channel, roomChannelPrefix), true
}

// ParseSessionChannel extracts the session id from a session channel name.
func ParseSessionChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, sessionChannelPrefix) {
		return "", false
	}
	return strings.TrimPrefix(channel, sessionChannelPrefix), true
}
