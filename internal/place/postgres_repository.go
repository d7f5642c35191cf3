package place

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL place repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a place by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Place, error) {
	query := `
		SELECT id, label, lat, lon, address, created_at, updated_at
		FROM places
		WHERE id = $1
	`

	var place Place
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&place.ID,
		&place.Label,
		&place.Location.Lat,
		&place.Location.Lon,
		&place.Address,
		&place.CreatedAt,
		&place.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}

	return &place, nil
}

// List retrieves all saved places with pagination.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT id, label, lat, lon, address, created_at, updated_at
		FROM places
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*Place
	for rows.Next() {
		var place Place
		err := rows.Scan(
			&place.ID,
			&place.Label,
			&place.Location.Lat,
			&place.Location.Lon,
			&place.Address,
			&place.CreatedAt,
			&place.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		places = append(places, &place)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: places,
	}

	if len(places) > limit {
		result.Items = places[:limit]
		result.NextCursor = places[limit-1].ID
	}

	return result, nil
}

// Create creates a new place.
func (r *PostgresRepository) Create(ctx context.Context, place *Place) error {
	query := `
		INSERT INTO places (id, label, lat, lon, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		place.ID,
		place.Label,
		place.Location.Lat,
		place.Location.Lon,
		place.Address,
		place.CreatedAt,
		place.UpdatedAt,
	)
	return err
}

// Update updates an existing place.
func (r *PostgresRepository) Update(ctx context.Context, place *Place) error {
	query := `
		UPDATE places SET
			label = $2,
			lat = $3,
			lon = $4,
			address = $5,
			updated_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		place.ID,
		place.Label,
		place.Location.Lat,
		place.Location.Lon,
		place.Address,
		place.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrPlaceNotFound
	}

	return nil
}

// Delete deletes a place by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM places WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
