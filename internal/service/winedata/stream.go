package winedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	drepo "VinSight/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a PulseStream backed by the wine data WebSocket feed.
type Stream struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// NewStream creates a new market pulse stream.
func NewStream(url string, reconnectDelay, pingInterval time.Duration) drepo.PulseStream {
	return &Stream{
		url:            url,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("winedata connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	log.Printf("winedata: pulse stream connected")
	return nil
}

type pulseFrame struct {
	Type string             `json:"type"`
	Data map[string]float64 `json:"data"`
}

// Read streams pulse snapshots and errors.
func (s *Stream) Read(ctx context.Context) (<-chan map[string]float64, <-chan error) {
	snapshots := make(chan map[string]float64, 64)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(snapshots)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("winedata conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("winedata read: %w", err)
					return
				}
				var f pulseFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore malformed frames
					continue
				}
				if f.Type != "pulse" || len(f.Data) == 0 {
					continue
				}
				select {
				case snapshots <- f.Data:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return snapshots, errs
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	return s.Connect(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
