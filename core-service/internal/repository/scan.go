package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/models"
)

const (
	orgColumns = `o.id, o.name, o.abbreviation, o.parent_id, o.tree_path, o.sort_value,
		o.status, o.describe, o.created_at, o.updated_at`
	stationColumns = `s.id, s.name, s.org_id, s.status, s.describe, s.created_at, s.updated_at`
)

// subtreeCond matches orgs listed in $n or lying below one of them.
func subtreeCond(n int) string {
	p := "$" + strconv.Itoa(n)
	return fmt.Sprintf(`(o.id = ANY(%[1]s) OR EXISTS (
		SELECT 1 FROM unnest(%[1]s::bigint[]) AS root(id)
		WHERE o.tree_path LIKE '%%,' || root.id || ',%%'))`, p)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrg(row rowScanner) (*models.Org, error) {
	var org models.Org
	if err := row.Scan(
		&org.ID, &org.Name, &org.Abbreviation, &org.ParentID, &org.TreePath, &org.SortValue,
		&org.Status, &org.Describe, &org.CreatedAt, &org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}

func scanStation(row rowScanner, extra ...any) (*models.Station, error) {
	var (
		station models.Station
		orgID   sql.NullInt64
	)
	dest := []any{&station.ID, &station.Name, &orgID, &station.Status, &station.Describe, &station.CreatedAt, &station.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if orgID.Valid {
		id := orgID.Int64
		station.OrgID = &id
	}
	return &station, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return exception.NotFound(what)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func requireRows(res sql.Result, what string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return exception.NotFound(what)
	}
	return nil
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// filter accumulates AND-ed conditions with numbered placeholders.
type filter struct {
	conds []string
	args  []any
}

func (f *filter) add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(f.args))))
}

func (f *filter) where() string {
	return strings.Join(f.conds, " AND ")
}
