package repositories

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/peterssg513/willowandwater-sub001/internal/constants"
)

// BaseVersionedRepo gives a versioned entity its by-id lookup and the
// optimistic update loop. Concrete repositories embed it.
type BaseVersionedRepo[T EntityWithVersion] struct {
	db         DB
	selectByID string
	scan       func(row pgx.Row) (T, error)
}

func NewBaseRepo[T EntityWithVersion](
	db DB,
	selectByID string,
	scan func(pgx.Row) (T, error),
) *BaseVersionedRepo[T] {
	return &BaseVersionedRepo[T]{db: db, selectByID: selectByID, scan: scan}
}

func (b *BaseVersionedRepo[T]) GetByID(ctx context.Context, id string) (T, error) {
	row := b.db.QueryRow(ctx, b.selectByID, id)
	return b.scan(row)
}

func (b *BaseVersionedRepo[T]) UpdateWithRetry(
	ctx context.Context,
	id string,
	mutate func(T) error,
	updateIfVersion UpdateIfVersionFunc[T],
) error {
	return WithRetry(
		ctx,
		constants.MaxVersionedUpdateRetry,
		id,
		b.GetByID,
		updateIfVersion,
		mutate,
	)
}
