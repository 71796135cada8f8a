package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/navigation/domain"
)

// Ensure HistoryRepository implements the domain port.
var _ domain.HistoryRepository = (*HistoryRepository)(nil)

// HistoryRepository persists finished navigation sessions.
type HistoryRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Archive(ctx context.Context, session *nav.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO navigation_sessions (
			id, started_at, ended_at,
			origin_lat, origin_lng, destination_lat, destination_lng,
			vehicle_type, status, route_distance_meters, failure_reason
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			status = EXCLUDED.status,
			route_distance_meters = EXCLUDED.route_distance_meters,
			failure_reason = EXCLUDED.failure_reason
	`,
		session.ID,
		session.StartedAt,
		session.EndedAt,
		session.OriginLat,
		session.OriginLng,
		session.DestinationLat,
		session.DestinationLng,
		session.Vehicle.String(),
		session.Status.String(),
		session.RouteDistanceMeters,
		session.FailureReason,
	)
	if err != nil {
		return fmt.Errorf("insert navigation session: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]nav.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, started_at, ended_at,
		       origin_lat, origin_lng, destination_lat, destination_lng,
		       vehicle_type, status, route_distance_meters, failure_reason
		FROM navigation_sessions
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query navigation sessions: %w", err)
	}
	defer rows.Close()

	var sessions []nav.Session
	for rows.Next() {
		var (
			s       nav.Session
			vehicle string
			status  string
		)
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.EndedAt,
			&s.OriginLat, &s.OriginLng, &s.DestinationLat, &s.DestinationLng,
			&vehicle, &status, &s.RouteDistanceMeters, &s.FailureReason); err != nil {
			return nil, fmt.Errorf("scan navigation session: %w", err)
		}

		if s.Vehicle, err = nav.ParseVehicleType(vehicle); err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		if s.Status, err = nav.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
