package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/models"
	sharedredis "github.com/changzer/choppy/shared/redis"
	"github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const orgViewKeyPrefix = "org:view:"

// OrgReadRepository handles all read operations for orgs. Single orgs are
// served from Redis when cached.
type OrgReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.Org]
}

func NewOrgReadRepository(db *sql.DB, redisClient goredis.Cmdable, logger *zap.Logger) *OrgReadRepository {
	return &OrgReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.Org](redisClient, orgViewKeyPrefix, 0, logger),
	}
}

func (r *OrgReadRepository) GetByID(ctx context.Context, id int64) (*models.Org, error) {
	if org, ok := r.cache.Get(ctx, id); ok {
		return org, nil
	}

	query := `SELECT ` + orgColumns + ` FROM orgs o WHERE o.id = $1 AND o.deleted_at IS NULL`
	org, err := scanOrg(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "org")
	}
	r.cache.Set(ctx, org.ID, org)
	return org, nil
}

// FindPage lists orgs matching q in sibling order.
func (r *OrgReadRepository) FindPage(ctx context.Context, q cqrs.OrgPageQuery) (*models.Page[models.Org], error) {
	p := q.PageParams.Normalize()
	f := orgPageFilter(q)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orgs o WHERE `+f.where(), f.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count orgs: %w", err)
	}
	if total == 0 || p.Offset() >= total {
		return models.NewPage[models.Org](p, total, nil), nil
	}

	args := append(f.args, p.Size, p.Offset())
	query := fmt.Sprintf(`SELECT %s FROM orgs o WHERE %s ORDER BY o.sort_value, o.id LIMIT $%d OFFSET $%d`,
		orgColumns, f.where(), len(args)-1, len(args))
	orgs, err := r.queryOrgs(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return models.NewPage(p, total, orgs), nil
}

// FindChildren returns the listed orgs and every org below them.
func (r *OrgReadRepository) FindChildren(ctx context.Context, ids []int64) ([]models.Org, error) {
	query := `SELECT ` + orgColumns + ` FROM orgs o
		WHERE o.deleted_at IS NULL AND ` + subtreeCond(1) + `
		ORDER BY o.tree_path, o.sort_value, o.id`
	return r.queryOrgs(ctx, query, pq.Array(ids))
}

// ListAll returns every live org ordered for tree building.
func (r *OrgReadRepository) ListAll(ctx context.Context) ([]models.Org, error) {
	query := `SELECT ` + orgColumns + ` FROM orgs o WHERE o.deleted_at IS NULL ORDER BY o.sort_value, o.id`
	return r.queryOrgs(ctx, query)
}

// CacheOrg stores or refreshes the Redis read model for an org.
func (r *OrgReadRepository) CacheOrg(ctx context.Context, org *models.Org) {
	r.cache.Set(ctx, org.ID, org)
}

func (r *OrgReadRepository) InvalidateOrgs(ctx context.Context, ids ...int64) {
	r.cache.Delete(ctx, ids...)
}

func (r *OrgReadRepository) queryOrgs(ctx context.Context, query string, args ...any) ([]models.Org, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orgs: %w", err)
	}
	defer rows.Close()

	orgs := []models.Org{}
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan org: %w", err)
		}
		orgs = append(orgs, *org)
	}
	return orgs, rows.Err()
}

func orgPageFilter(q cqrs.OrgPageQuery) *filter {
	f := &filter{conds: []string{"o.deleted_at IS NULL"}}
	if q.Name != "" {
		f.add("o.name ILIKE ?", "%"+q.Name+"%")
	}
	if q.ParentID != nil {
		f.add("o.parent_id = ?", *q.ParentID)
	}
	if q.Status != nil {
		f.add("o.status = ?", *q.Status)
	}
	return f
}
