package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"gps-navigator/internal/common/log"
	"gps-navigator/internal/general/contracts"
	"gps-navigator/internal/navigation/app"
)

const (
	pingPeriod       = 30 * time.Second
	pongWait         = 60 * time.Second
	reconnectBase    = time.Second
	reconnectCeiling = 30 * time.Second
)

// Consumer is the push-channel client: a long-lived WebSocket subscription
// delivering gps_update messages into the position source. Messages of any
// other type are ignored.
type Consumer struct {
	url    string
	source *app.Source
	logger *slog.Logger
}

func NewConsumer(url string, source *app.Source, logger *slog.Logger) *Consumer {
	return &Consumer{url: url, source: source, logger: logger}
}

// Run connects and consumes until ctx is cancelled, reconnecting with
// exponential backoff on failures.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := reconnectBase
	for {
		if err := c.consumeOnce(ctx); err != nil {
			log.Warn(ctx, c.logger, "push_channel_down", "Push channel disconnected", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > reconnectCeiling {
			backoff = reconnectCeiling
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}
	defer conn.Close()

	log.Info(ctx, c.logger, "push_channel_connected", "Push channel subscription established")

	// every received pong extends the read deadline
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read push channel: %w", err)
		}
		c.handleMessage(ctx, data)
	}
}

func (c *Consumer) handleMessage(ctx context.Context, data []byte) {
	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		log.Warn(ctx, c.logger, "push_message_malformed", "Ignoring undecodable push message", err)
		return
	}
	if envelope.Type != "gps_update" {
		log.Debug(ctx, c.logger, "push_message_ignored", fmt.Sprintf("Ignoring push message type %q", envelope.Type))
		return
	}

	var wire contracts.PositionWire
	if err := json.Unmarshal(envelope.Data, &wire); err != nil {
		log.Warn(ctx, c.logger, "push_position_malformed", "Ignoring undecodable gps_update payload", err)
		return
	}

	c.source.Offer(wire.ToPosition())
}
