package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  256,
	WriteBufferSize: 256,
	// The page is served from the same origin; LAN tools connect directly.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

// handleLive streams readings to a WebSocket client as "<temp>,<humidity>"
// text messages. Each client gets its own feed receiver, so a slow client
// only ever skips readings — it never holds up the sampling loop or other
// clients.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	rcv := s.readings.Subscribe()

	// Discard inbound frames so pings and close frames are processed;
	// cancel the stream when the client goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		reading, _, err := rcv.Next(ctx)
		if err != nil {
			return
		}

		line := fmt.Sprintf("%d,%d\n", reading.Temperature, reading.Humidity)
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}
}
