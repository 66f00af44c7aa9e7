// Package linefeed serves the latest reading as a text line over TCP.
// Any inbound bytes on a connection are treated as a request; the reply is
// "<temperature>,<humidity>\n". One line per request, answered from the
// current reading whether or not the requester has seen it before.
package linefeed

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/QuantumEF/aircond/internal/dht11"
	"github.com/QuantumEF/aircond/internal/feed"
)

// Connections idle longer than this are dropped, matching the feed's
// original 10 s socket timeout.
const idleTimeout = 10 * time.Second

// Server is the TCP reading feed.
type Server struct {
	addr     string
	readings *feed.Feed[dht11.Reading]
	ln       net.Listener
}

// New creates a Server that answers from the given feed.
func New(addr string, readings *feed.Feed[dht11.Reading]) *Server {
	return &Server{addr: addr, readings: readings}
}

// ListenAndServe starts listening. It blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	s.ln = ln
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

// Close stops accepting connections.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	// Every request is answered from the current reading, even one the
	// requester already saw; a stalled sensor degrades to stale data, not
	// to a dead feed. Only before the first publication is there nothing
	// to answer with, so only then does a request wait.
	rcv := s.readings.Subscribe()
	buf := make([]byte, 256)

	for {
		conn.SetDeadline(time.Now().Add(idleTimeout))
		if _, err := conn.Read(buf); err != nil {
			return
		}

		reading, _, ok := s.readings.Latest()
		if !ok {
			ctx, cancel := context.WithTimeout(context.Background(), idleTimeout)
			var err error
			reading, _, err = rcv.Next(ctx)
			cancel()
			if err != nil {
				log.Printf("linefeed: no reading yet for %v: %v", conn.RemoteAddr(), err)
				return
			}
		}

		conn.SetDeadline(time.Now().Add(idleTimeout))
		if _, err := fmt.Fprintf(conn, "%d,%d\n", reading.Temperature, reading.Humidity); err != nil {
			return
		}
	}
}
