// Package main provides a stress testing tool for the game WebSocket server.
// Each simulated room creates a lobby, joins a few fake players and lets them
// idle until the test ends.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/websocket"
)

// Metrics tracks the test results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	RoomsCreated         int64
	PlayersJoined        int64
	FramesReceived       int64
	Errors               int64
}

var metrics Metrics

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	host := flag.String("host", "localhost:8080", "API server host")
	rooms := flag.Int("rooms", 20, "Number of concurrent rooms")
	playersPerRoom := flag.Int("players", 4, "Players joining each room")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	log.Printf("Starting game server stress test")
	log.Printf("Target: %s", *host)
	log.Printf("Rooms: %d, players per room: %d", *rooms, *playersPerRoom)
	log.Printf("Duration: %v", *duration)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *rooms; i++ {
		wg.Add(1)
		go runRoom(*host, *playersPerRoom, stopChan, &wg)
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("Test duration reached")
	case <-interrupt:
		log.Println("Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

func dial(host string) (*websocket.Conn, error) {
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return nil, err
	}
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)
	return c, nil
}

func send(c *websocket.Conn, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, msg)
}

// waitFor reads frames until it sees the wanted event or times out.
func waitFor(c *websocket.Conn, event string, timeout time.Duration) (json.RawMessage, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		_ = c.SetReadDeadline(time.Now().Add(timeout))
		_, raw, err := c.ReadMessage()
		if err != nil {
			return nil, err
		}
		atomic.AddInt64(&metrics.FramesReceived, 1)

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		if f.Event == event {
			return f.Data, nil
		}
		if f.Event == "ERROR" {
			return nil, fmt.Errorf("server error: %s", string(f.Data))
		}
	}
	return nil, fmt.Errorf("timed out waiting for %s", event)
}

func runRoom(host string, playerCount int, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	hostConn, err := dial(host)
	if err != nil {
		return
	}
	defer func() { _ = hostConn.Close() }()

	if err := send(hostConn, "CREATE_ROOM", struct{}{}); err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	data, err := waitFor(hostConn, "ROOM_CREATED", 5*time.Second)
	if err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	var created struct {
		RoomCode string `json:"room_code"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	atomic.AddInt64(&metrics.RoomsCreated, 1)

	conns := []*websocket.Conn{hostConn}
	defer func() {
		for _, c := range conns[1:] {
			_ = c.Close()
		}
	}()

	for i := 0; i < playerCount; i++ {
		c, err := dial(host)
		if err != nil {
			continue
		}
		conns = append(conns, c)

		join := map[string]string{
			"nickname":  gofakeit.Gamertag(),
			"avatar":    "",
			"room_code": created.RoomCode,
		}
		if err := send(c, "JOIN_ROOM", join); err != nil {
			atomic.AddInt64(&metrics.Errors, 1)
			continue
		}
		if _, err := waitFor(c, "NEW_ROOM_JOINED", 5*time.Second); err != nil {
			atomic.AddInt64(&metrics.Errors, 1)
			continue
		}
		atomic.AddInt64(&metrics.PlayersJoined, 1)
	}

	// Drain frames until the test ends so server buffers stay healthy.
	for _, c := range conns {
		c := c
		go func() {
			for {
				_ = c.SetReadDeadline(time.Now().Add(time.Minute))
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
				atomic.AddInt64(&metrics.FramesReceived, 1)
			}
		}()
	}

	<-stopChan
	for _, c := range conns {
		_ = c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

func printMetrics() {
	log.Println("Test Results")
	log.Println("============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Rooms Created: %d", atomic.LoadInt64(&metrics.RoomsCreated))
	log.Printf("Players Joined: %d", atomic.LoadInt64(&metrics.PlayersJoined))
	log.Printf("Frames Received: %d", atomic.LoadInt64(&metrics.FramesReceived))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
