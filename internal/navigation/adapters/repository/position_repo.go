package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/navigation/domain"
)

// Ensure PositionRepository implements the domain port.
var _ domain.PositionArchive = (*PositionRepository)(nil)

// PositionRepository archives accepted position samples.
type PositionRepository struct {
	db *pgxpool.Pool
}

func NewPositionRepository(db *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Archive(ctx context.Context, position geo.Position) error {
	id, err := newUUID()
	if err != nil {
		return fmt.Errorf("generate uuid: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO gps_positions (id, latitude, longitude, speed_mps, heading_degrees, timestamp_millis)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, position.Latitude, position.Longitude, position.SpeedMPS, position.HeadingDegrees, position.TimestampMillis)
	if err != nil {
		return fmt.Errorf("insert gps position: %w", err)
	}
	return nil
}

func (r *PositionRepository) Latest(ctx context.Context) (geo.Position, bool, error) {
	var p geo.Position
	err := r.db.QueryRow(ctx, `
		SELECT latitude, longitude, speed_mps, heading_degrees, timestamp_millis
		FROM gps_positions
		ORDER BY timestamp_millis DESC
		LIMIT 1
	`).Scan(&p.Latitude, &p.Longitude, &p.SpeedMPS, &p.HeadingDegrees, &p.TimestampMillis)
	if errors.Is(err, pgx.ErrNoRows) {
		return geo.Position{}, false, nil
	}
	if err != nil {
		return geo.Position{}, false, fmt.Errorf("query latest position: %w", err)
	}
	return p, true, nil
}
