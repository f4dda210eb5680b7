package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/models"
	"github.com/lib/pq"
)

// StationWriteRepository handles all state-mutating operations for stations.
type StationWriteRepository struct {
	db *sql.DB
}

func NewStationWriteRepository(db *sql.DB) *StationWriteRepository {
	return &StationWriteRepository{db: db}
}

func (r *StationWriteRepository) Create(ctx context.Context, station *models.Station) error {
	query := `
		INSERT INTO stations (name, org_id, status, describe)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		station.Name, station.OrgID, station.Status, station.Describe,
	).Scan(&station.ID, &station.CreatedAt, &station.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}
	return nil
}

func (r *StationWriteRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations s WHERE s.id = $1 AND s.deleted_at IS NULL`
	station, err := scanStation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "station")
	}
	return station, nil
}

// Update applies the non-nil fields of cmd.
func (r *StationWriteRepository) Update(ctx context.Context, cmd cqrs.UpdateStationCommand, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stations
		SET name = COALESCE($2, name),
			org_id = COALESCE($3, org_id),
			status = COALESCE($4, status),
			describe = COALESCE($5, describe),
			updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`, cmd.StationID, cmd.Name, cmd.OrgID, cmd.Status, cmd.Describe, at)
	if err != nil {
		return fmt.Errorf("failed to update station: %w", err)
	}
	return requireRows(res, "station")
}

// Remove soft-deletes the stations and returns the ids actually removed.
func (r *StationWriteRepository) Remove(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE stations SET deleted_at = NOW()
		WHERE id = ANY($1) AND deleted_at IS NULL
		RETURNING id
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to delete stations: %w", err)
	}
	return scanIDs(rows)
}
