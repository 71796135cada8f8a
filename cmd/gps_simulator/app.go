package gpssimulator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gps-navigator/internal/cli"
	"gps-navigator/internal/common/config"
	"gps-navigator/internal/common/contextx"
	"gps-navigator/internal/common/log"
	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/general/contracts"
	"gps-navigator/internal/navigation/adapters/routing"
)

// Run computes a route and replays its geometry against the navigator API
// as timed GPS samples. Dev tool for exercising the session engine without
// a real head unit.
func Run(ctx context.Context, originLat, originLng, destLat, destLng float64, intervalMillis int) error {
	logger := log.New("gps-simulator")
	ctx = contextx.WithRequestID(ctx, "sim-001")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Error(ctx, logger, "config_load_failed", "Failed to load configuration", err)
		return err
	}

	// fetch the route to replay straight from the route service
	routeClient := routing.NewClient(cfg.Routing.BaseURL, time.Duration(cfg.Routing.TimeoutSeconds)*time.Second, logger)
	origin := geo.Position{Latitude: originLat, Longitude: originLng, TimestampMillis: time.Now().UnixMilli()}
	route, err := routeClient.ComputeRoute(ctx, nav.RouteRequest{
		Origin:         origin,
		DestinationLat: destLat,
		DestinationLng: destLng,
		Vehicle:        nav.VehicleCar,
	})
	if err != nil {
		log.Error(ctx, logger, "route_fetch_failed", "Failed to compute route to replay", err)
		return err
	}

	// mint a dev token so the ingest endpoint accepts our samples
	token, _, err := cli.GenerateDeviceToken(cfg.JWT.Secret, "gps-simulator", "SIM-0001")
	if err != nil {
		log.Error(ctx, logger, "token_issue_failed", "Failed to issue simulator token", err)
		return err
	}

	ingestURL := fmt.Sprintf("http://localhost:%d/api/gps/position", cfg.Server.Port)
	interval := time.Duration(intervalMillis) * time.Millisecond
	httpClient := &http.Client{Timeout: 5 * time.Second}

	log.Info(ctx, logger, "replay_started",
		fmt.Sprintf("Replaying %d geometry points every %s (route %.0fm)", len(route.Geometry), interval, route.DistanceMeters))

	for i, point := range route.Geometry {
		select {
		case <-ctx.Done():
			log.Info(ctx, logger, "replay_cancelled", "Replay interrupted")
			return ctx.Err()
		default:
		}

		wire := contracts.PositionWire{
			Latitude:        point.Latitude,
			Longitude:       point.Longitude,
			TimestampMillis: time.Now().UnixMilli(),
		}
		if i > 0 {
			prev := route.Geometry[i-1]
			speed := geo.HaversineMeters(prev.Latitude, prev.Longitude, point.Latitude, point.Longitude) / interval.Seconds()
			wire.SpeedMPS = &speed
		}

		if err := postSample(ctx, httpClient, ingestURL, token, wire); err != nil {
			log.Warn(ctx, logger, "sample_post_failed", fmt.Sprintf("Sample %d rejected", i), err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	log.Info(ctx, logger, "replay_finished", "All geometry points replayed")
	return nil
}

func postSample(ctx context.Context, client *http.Client, url, token string, wire contracts.PositionWire) error {
	body, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest returned status %d", resp.StatusCode)
	}
	return nil
}
