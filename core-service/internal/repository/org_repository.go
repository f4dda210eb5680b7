package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/database"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
	"github.com/lib/pq"
)

// OrgWriteRepository handles all state-mutating operations for orgs.
type OrgWriteRepository struct {
	db *sql.DB
}

func NewOrgWriteRepository(db *sql.DB) *OrgWriteRepository {
	return &OrgWriteRepository{db: db}
}

func (r *OrgWriteRepository) Create(ctx context.Context, org *models.Org) error {
	query := `
		INSERT INTO orgs (name, abbreviation, parent_id, tree_path, sort_value, status, describe)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		org.Name, org.Abbreviation, org.ParentID, org.TreePath, org.SortValue, org.Status, org.Describe,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create org: %w", err)
	}
	return nil
}

func (r *OrgWriteRepository) GetByID(ctx context.Context, id int64) (*models.Org, error) {
	query := `SELECT ` + orgColumns + ` FROM orgs o WHERE o.id = $1 AND o.deleted_at IS NULL`
	org, err := scanOrg(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "org")
	}
	return org, nil
}

// Update applies the non-nil fields of cmd. A changed parent moves the org
// and rewrites its whole subtree in the same transaction. The org and the new
// parent are locked while the move is planned, so concurrent moves cannot
// build a cycle. It returns the ids of the descendants whose path changed.
func (r *OrgWriteRepository) Update(ctx context.Context, cmd cqrs.UpdateOrgCommand, at time.Time) ([]int64, error) {
	var moved []int64
	err := database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		move, err := planLockedMove(ctx, tx, cmd)
		if err != nil {
			return err
		}
		var parentID *int64
		var treePath *string
		if move != nil {
			parentID, treePath = &move.ParentID, &move.TreePath
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE orgs
			SET name = COALESCE($2, name),
				abbreviation = COALESCE($3, abbreviation),
				parent_id = COALESCE($4, parent_id),
				tree_path = COALESCE($5, tree_path),
				sort_value = COALESCE($6, sort_value),
				status = COALESCE($7, status),
				describe = COALESCE($8, describe),
				updated_at = $9
			WHERE id = $1 AND deleted_at IS NULL
		`, cmd.OrgID, cmd.Name, cmd.Abbreviation, parentID, treePath, cmd.SortValue, cmd.Status, cmd.Describe, at)
		if err != nil {
			return fmt.Errorf("failed to update org: %w", err)
		}
		if err := requireRows(res, "org"); err != nil {
			return err
		}
		if move == nil {
			return nil
		}

		rows, err := tx.QueryContext(ctx, `
			UPDATE orgs
			SET tree_path = $2::text || substr(tree_path, length($1::text) + 1), updated_at = $3
			WHERE tree_path LIKE $1::text || '%' AND deleted_at IS NULL
			RETURNING id
		`, move.OldPrefix, move.NewPrefix, at)
		if err != nil {
			return fmt.Errorf("failed to move org subtree: %w", err)
		}
		moved, err = scanIDs(rows)
		return err
	})
	return moved, err
}

// planLockedMove locks the org and its requested parent, in id order, and
// plans the move from the rows as they are now. It returns nil when the
// parent does not change.
func planLockedMove(ctx context.Context, tx database.DBTX, cmd cqrs.UpdateOrgCommand) (*TreeMove, error) {
	if cmd.ParentID == nil {
		return nil, nil
	}
	ids := []int64{cmd.OrgID}
	if *cmd.ParentID != 0 {
		ids = append(ids, *cmd.ParentID)
	}
	rows, err := tx.QueryContext(ctx, `
		SELECT `+orgColumns+` FROM orgs o
		WHERE o.id = ANY($1) AND o.deleted_at IS NULL
		ORDER BY o.id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock orgs: %w", err)
	}
	defer rows.Close()

	locked := make(map[int64]*models.Org, len(ids))
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan org: %w", err)
		}
		locked[org.ID] = org
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock orgs: %w", err)
	}

	org, ok := locked[cmd.OrgID]
	if !ok {
		return nil, exception.NotFound("org")
	}
	if *cmd.ParentID == org.ParentID {
		return nil, nil
	}
	var parent *models.Org
	if *cmd.ParentID != 0 {
		if parent, ok = locked[*cmd.ParentID]; !ok {
			return nil, exception.NotFound("parent org")
		}
	}
	return PlanMove(org, parent)
}

// Remove soft-deletes ids and all their descendants and detaches the
// stations of every removed org. It returns the removed org ids and the
// detached station ids.
func (r *OrgWriteRepository) Remove(ctx context.Context, ids []int64) (orgIDs, stationIDs []int64, err error) {
	err = database.WithTx(ctx, r.db, func(tx database.DBTX) error {
		rows, err := tx.QueryContext(ctx, `
			UPDATE orgs o SET deleted_at = NOW()
			WHERE o.deleted_at IS NULL AND `+subtreeCond(1)+`
			RETURNING o.id
		`, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("failed to delete orgs: %w", err)
		}
		if orgIDs, err = scanIDs(rows); err != nil {
			return err
		}
		if len(orgIDs) == 0 {
			return nil
		}

		rows, err = tx.QueryContext(ctx, `
			UPDATE stations SET org_id = NULL, updated_at = NOW()
			WHERE org_id = ANY($1) AND deleted_at IS NULL
			RETURNING id
		`, pq.Array(orgIDs))
		if err != nil {
			return fmt.Errorf("failed to detach stations: %w", err)
		}
		stationIDs, err = scanIDs(rows)
		return err
	})
	return orgIDs, stationIDs, err
}

// StationIDsOf lists the live stations belonging to orgIDs.
func (r *OrgWriteRepository) StationIDsOf(ctx context.Context, orgIDs []int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM stations WHERE org_id = ANY($1) AND deleted_at IS NULL`, pq.Array(orgIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return scanIDs(rows)
}
