package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gps-navigator/internal/domain/place"
	"gps-navigator/internal/navigation/domain"
)

// Ensure FavoriteRepository implements the domain port.
var _ domain.FavoriteRepository = (*FavoriteRepository)(nil)

// FavoriteRepository persists favorite locations using pgx and plain SQL.
type FavoriteRepository struct {
	db *pgxpool.Pool
}

func NewFavoriteRepository(db *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) List(ctx context.Context) ([]place.Favorite, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, address, latitude, longitude, category, created_at
		FROM favorite_locations
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []place.Favorite
	for rows.Next() {
		var f place.Favorite
		if err := rows.Scan(&f.ID, &f.Name, &f.Address, &f.Latitude, &f.Longitude, &f.Category, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

func (r *FavoriteRepository) Add(ctx context.Context, favorite *place.Favorite) error {
	if err := favorite.Validate(); err != nil {
		return err
	}

	id, err := newUUID()
	if err != nil {
		return fmt.Errorf("generate uuid: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO favorite_locations (id, name, address, latitude, longitude, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, favorite.Name, favorite.Address, favorite.Latitude, favorite.Longitude, favorite.Category, favorite.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}

	favorite.ID = id
	return nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM favorite_locations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
