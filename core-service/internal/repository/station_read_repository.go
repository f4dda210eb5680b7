package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/models"
	sharedredis "github.com/changzer/choppy/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const stationViewKeyPrefix = "station:view:"

const stationFrom = ` FROM stations s LEFT JOIN orgs o ON o.id = s.org_id AND o.deleted_at IS NULL`

// StationReadRepository serves station views joined with their org name.
type StationReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.StationView]
}

func NewStationReadRepository(db *sql.DB, redisClient goredis.Cmdable, logger *zap.Logger) *StationReadRepository {
	return &StationReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.StationView](redisClient, stationViewKeyPrefix, 0, logger),
	}
}

func (r *StationReadRepository) GetByID(ctx context.Context, id int64) (*models.StationView, error) {
	if view, ok := r.cache.Get(ctx, id); ok {
		return view, nil
	}

	query := `SELECT ` + stationColumns + `, COALESCE(o.name, '')` + stationFrom +
		` WHERE s.id = $1 AND s.deleted_at IS NULL`
	view, err := scanStationView(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "station")
	}
	r.cache.Set(ctx, view.ID, view)
	return view, nil
}

// FindStationPage lists stations matching q, newest first.
func (r *StationReadRepository) FindStationPage(ctx context.Context, q cqrs.StationPageQuery) (*models.Page[models.StationView], error) {
	p := q.PageParams.Normalize()
	f := stationPageFilter(q)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+stationFrom+` WHERE `+f.where(), f.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count stations: %w", err)
	}
	if total == 0 || p.Offset() >= total {
		return models.NewPage[models.StationView](p, total, nil), nil
	}

	args := append(f.args, p.Size, p.Offset())
	query := fmt.Sprintf(`SELECT %s, COALESCE(o.name, '')%s WHERE %s ORDER BY s.id DESC LIMIT $%d OFFSET $%d`,
		stationColumns, stationFrom, f.where(), len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	views := []models.StationView{}
	for rows.Next() {
		view, err := scanStationView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models.NewPage(p, total, views), nil
}

func (r *StationReadRepository) CacheStation(ctx context.Context, view *models.StationView) {
	r.cache.Set(ctx, view.ID, view)
}

func (r *StationReadRepository) InvalidateStations(ctx context.Context, ids ...int64) {
	r.cache.Delete(ctx, ids...)
}

func scanStationView(row rowScanner) (*models.StationView, error) {
	var orgName string
	station, err := scanStation(row, &orgName)
	if err != nil {
		return nil, err
	}
	return &models.StationView{Station: *station, OrgName: orgName}, nil
}

// stationPageFilter builds the WHERE clause of a station page query. The
// created-between bounds are inclusive.
func stationPageFilter(q cqrs.StationPageQuery) *filter {
	f := &filter{conds: []string{"s.deleted_at IS NULL"}}
	if q.Name != "" {
		f.add("s.name ILIKE ?", "%"+q.Name+"%")
	}
	if q.OrgID != nil {
		f.add("s.org_id = ?", *q.OrgID)
	}
	if q.Status != nil {
		f.add("s.status = ?", *q.Status)
	}
	if q.CreatedAfter != nil {
		f.add("s.created_at >= ?", *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		f.add("s.created_at <= ?", *q.CreatedBefore)
	}
	return f
}
