package readthrough

import (
	"context"
	"database/sql"

	"github.com/jmgilman/go/errors"

	gotrxmanager "go-lru/pkg/trx/manager"
)

// SQLLoader возвращает Loader, который выполняет query в транзакции только для чтения.
// Ключ передается единственным аргументом запроса, первая колонка строки сканируется в V.
//
// Отсутствие строки дает ErrNotFound, остальные ошибки базы - CodeDatabase.
func SQLLoader[K comparable, V any](trm *gotrxmanager.TransactionManager, query string) Loader[K, V] {
	return func(ctx context.Context, key K) (V, error) {
		var v V

		_, err := trm.DoReadOnly(ctx, func(ctx context.Context) (any, error) {
			tx, err := gotrxmanager.TxFromContext(ctx)
			if err != nil {
				return nil, err
			}
			return nil, tx.QueryRowContext(ctx, query, key).Scan(&v)
		})

		switch {
		case err == nil:
			return v, nil
		case errors.Is(err, sql.ErrNoRows):
			var zero V
			return zero, errors.Wrapf(ErrNotFound, errors.CodeNotFound, "no row for key %v", key)
		default:
			var zero V
			var platformErr errors.PlatformError
			if errors.As(err, &platformErr) {
				return zero, err
			}
			return zero, errors.Wrap(err, errors.CodeDatabase, "query failed")
		}
	}
}
