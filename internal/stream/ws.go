// Package stream receives live hand-landmark observations from the
// upstream tracker over a WebSocket. The tracker publishes one message
// per video frame; frames with no detected hand are dropped here so
// the serving loop only ever sees complete 21-point hands.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Aaryan09-coder/final-major-project-final/internal/landmarks"
)

// Frame is one usable tracker observation: the first detected hand of
// a video frame.
type Frame struct {
	Hand landmarks.Hand
	Ts   time.Time
}

// trackerMsg mirrors the tracker's wire format: outer list indexes
// detected hands, inner list the 21 points.
type trackerMsg struct {
	Landmarks [][][]float64 `json:"landmarks"`
}

// WS is a tracker stream client.
type WS struct{ url string }

// NewWS builds a client for the given tracker URL.
func NewWS(u string) WS { return WS{u} }

// Stream reads frames until ctx is cancelled, reconnecting with
// exponential backoff on connection loss. Reconnects are reported on
// the errors channel (best effort, never blocking).
func (w WS) Stream(ctx context.Context, frames chan<- Frame, errors chan<- error, ping time.Duration) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := w.streamOnce(ctx, frames, ping); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn().Err(err).Dur("backoff", backoff).Msg("tracker connection lost, reconnecting")
				select {
				case errors <- fmt.Errorf("tracker reconnect: %w", err):
				default:
				}

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return ctx.Err()
				}

				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}
			backoff = time.Second
		}
	}
}

func (w WS) streamOnce(ctx context.Context, frames chan<- Frame, ping time.Duration) error {
	log.Info().Str("url", w.url).Msg("connecting to landmark tracker")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	conn.SetReadLimit(256 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(ping)
	defer pingTicker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-pingTicker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	dropped := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg trackerMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).Msg("unparseable tracker message dropped")
			continue
		}
		if len(msg.Landmarks) == 0 {
			// No hand in frame; normal during operation.
			continue
		}
		hand, err := landmarks.FromPairs(msg.Landmarks[0])
		if err != nil {
			dropped++
			if dropped%100 == 1 {
				log.Warn().Err(err).Int("dropped", dropped).Msg("malformed tracker frames dropped")
			}
			continue
		}

		select {
		case frames <- Frame{Hand: hand, Ts: time.Now()}:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Serving loop is behind; drop the frame rather than stall
			// the read loop.
		}
	}
}
