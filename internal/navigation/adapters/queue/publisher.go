package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gps-navigator/internal/common/log"
	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/general/contracts"
	"gps-navigator/internal/general/rabbitmq"
	"gps-navigator/internal/navigation/domain"
)

// Ensure NavPublisher implements the domain port.
var _ domain.Publisher = (*NavPublisher)(nil)

// NavPublisher forwards session transitions to the nav topic exchange and
// accepted positions to the location fanout exchange.
type NavPublisher struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

func NewNavPublisher(client *rabbitmq.Client, logger *slog.Logger) *NavPublisher {
	return &NavPublisher{client: client, logger: logger}
}

// PublishSessionStatus publishes one message per accepted transition. The
// routing key carries the lowercased status so consumers can bind per state.
func (p *NavPublisher) PublishSessionStatus(ctx context.Context, snapshot domain.Snapshot) error {
	payload := contracts.QueueSessionStatus{
		SessionID:               snapshot.SessionID,
		Status:                  snapshot.State.String(),
		CurrentStepIndex:        snapshot.CurrentStepIndex,
		DistanceRemainingMeters: snapshot.DistanceRemainingMeters,
		OffRoute:                snapshot.OffRoute,
		Failure:                 snapshot.FailureReason(),
		Timestamp:               time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal session status: %w", err)
	}

	routingKey := contracts.RouteNavStatusPrefix + strings.ToLower(snapshot.State.String())
	if err := p.client.PublishMessage(contracts.ExchangeNavTopic, routingKey, body); err != nil {
		log.Error(ctx, p.logger, "publish_session_status_failed",
			fmt.Sprintf("Failed to publish session status for %s", snapshot.SessionID), err)
		return err
	}
	return nil
}

// PublishPosition fans an accepted sample out to every bound consumer.
func (p *NavPublisher) PublishPosition(ctx context.Context, position geo.Position) error {
	body, err := json.Marshal(contracts.PositionToWire(position))
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}

	if err := p.client.PublishMessage(contracts.ExchangeLocationFanout, "", body); err != nil {
		log.Error(ctx, p.logger, "publish_position_failed", "Failed to publish position update", err)
		return err
	}
	return nil
}
