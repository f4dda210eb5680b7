package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/changzer/choppy/shared/cqrs"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
	sharedredis "github.com/changzer/choppy/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const userViewKeyPrefix = "user:view:"

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
type UserReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.UserView]
}

func NewUserReadRepository(db *sql.DB, redisClient goredis.Cmdable, logger *zap.Logger) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.UserView](redisClient, userViewKeyPrefix, 0, logger),
	}
}

// GetByID returns a UserView from Redis first, then PostgreSQL.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, id); ok {
		return view, nil
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 AND u.deleted_at IS NULL`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, exception.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	view := user.View()
	r.CacheUserView(ctx, view)
	return view, nil
}

func (r *UserReadRepository) GetByAccount(ctx context.Context, account string) (*models.UserView, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.account = $1 AND u.deleted_at IS NULL`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, account))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, exception.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.View(), nil
}

// FindPage lists users matching q, newest first.
func (r *UserReadRepository) FindPage(ctx context.Context, q cqrs.UserPageQuery) (*models.Page[models.UserView], error) {
	p := q.PageParams.Normalize()
	where, args := userPageFilter(q)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if total == 0 || p.Offset() >= total {
		return models.NewPage[models.UserView](p, total, nil), nil
	}

	args = append(args, p.Size, p.Offset())
	query := fmt.Sprintf(`SELECT %s FROM users u WHERE %s ORDER BY u.id DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))
	views, err := r.queryViews(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return models.NewPage(p, total, views), nil
}

// FindByRoleID lists the users linked to roleID. A non-empty keyword must
// match the account or the name.
func (r *UserReadRepository) FindByRoleID(ctx context.Context, roleID int64, keyword string) ([]models.UserView, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		WHERE ur.role_id = $1 AND u.deleted_at IS NULL
		  AND ($2::text = '' OR u.account ILIKE '%' || $2::text || '%' OR u.name ILIKE '%' || $2::text || '%')
		ORDER BY u.id
	`
	return r.queryViews(ctx, query, roleID, keyword)
}

func (r *UserReadRepository) ListRoles(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, code, describe, status, readonly FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := []models.Role{}
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Code, &role.Describe, &role.Status, &role.Readonly); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, view.ID, view)
}

// InvalidateUserViews removes the Redis read model entries for ids.
func (r *UserReadRepository) InvalidateUserViews(ctx context.Context, ids ...int64) {
	r.cache.Delete(ctx, ids...)
}

func (r *UserReadRepository) queryViews(ctx context.Context, query string, args ...any) ([]models.UserView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	views := []models.UserView{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		views = append(views, *user.View())
	}
	return views, rows.Err()
}

// userPageFilter builds the WHERE clause of a user page query.
func userPageFilter(q cqrs.UserPageQuery) (string, []any) {
	conds := []string{"u.deleted_at IS NULL"}
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if q.Account != "" {
		add("u.account ILIKE ?", "%"+q.Account+"%")
	}
	if q.Name != "" {
		add("u.name ILIKE ?", "%"+q.Name+"%")
	}
	if q.OrgID != nil {
		add("u.org_id = ?", *q.OrgID)
	}
	if q.StationID != nil {
		add("u.station_id = ?", *q.StationID)
	}
	if q.Status != nil {
		add("u.status = ?", *q.Status)
	}
	if q.Sex != "" {
		add("u.sex = ?", q.Sex)
	}
	return strings.Join(conds, " AND "), args
}
