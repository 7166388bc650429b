package db

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	"github.com/doug-martin/goqu/v9/exp"

	"library-backend/internal/platform/paging"
)

// Dialect builds prepared MySQL statements.
var Dialect = goqu.Dialect("mysql")

// Live is the soft-delete predicate: rows of table whose deleted_at is NULL.
func Live(table string) exp.Expression {
	return goqu.T(table).Col("deleted_at").IsNull()
}

func Paginate(ds *goqu.SelectDataset, p paging.Page) *goqu.SelectDataset {
	return ds.Limit(uint(p.Limit)).Offset(uint(p.Offset()))
}

// SelectPage runs ds for one page into dest and returns the unpaginated row count.
func SelectPage(ctx context.Context, q DBTX, dest any, ds *goqu.SelectDataset, p paging.Page) (int64, error) {
	query, args, err := Paginate(ds, p).Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}
	if err := q.SelectContext(ctx, dest, query, args...); err != nil {
		return 0, err
	}
	return Count(ctx, q, ds)
}

func Count(ctx context.Context, q DBTX, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := ds.ClearSelect().ClearOrder().ClearLimit().ClearOffset().
		Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := q.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

// Select runs ds into dest without pagination.
func Select(ctx context.Context, q DBTX, dest any, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	return q.SelectContext(ctx, dest, query, args...)
}
