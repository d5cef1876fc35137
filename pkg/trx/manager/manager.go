package gotrxmanager

import (
	"context"
	"database/sql"

	"github.com/jmgilman/go/errors"
)

// trxManagerKey - тип для ключа контекста, используемого для хранения транзакции
type trxManagerKey string

// trxKey - конкретный ключ для доступа к транзакции в контексте
const trxKey trxManagerKey = "trxKey"

var (
	// ErrNoTransaction - в контексте нет транзакции
	ErrNoTransaction = errors.New(errors.CodeInternal, "cannot find transaction")

	// ErrInvalidTransaction - значение в контексте не является *sql.Tx
	ErrInvalidTransaction = errors.New(errors.CodeInternal, "received value is not a *sql.Tx")
)

// TransactionManager выполняет функции внутри транзакции базы данных.
type TransactionManager struct {
	db *sql.DB
}

// NewTransactionManager - конструктор для создания нового менеджера транзакций
func NewTransactionManager(db *sql.DB) *TransactionManager {
	return &TransactionManager{
		db: db,
	}
}

// Do - выполняет функцию f в контексте транзакции.
// Автоматически обрабатывает начало/коммит/откат транзакции.
// Ошибка f возвращается без изменений, если откат прошел успешно.
func (trm *TransactionManager) Do(ctx context.Context, f func(ctx context.Context) (any, error)) (any, error) {
	return trm.do(ctx, nil, f)
}

// DoReadOnly - как Do, но открывает транзакцию только для чтения.
func (trm *TransactionManager) DoReadOnly(ctx context.Context, f func(ctx context.Context) (any, error)) (any, error) {
	return trm.do(ctx, &sql.TxOptions{ReadOnly: true}, f)
}

func (trm *TransactionManager) do(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context) (any, error)) (res any, err error) {
	// Начинаем новую транзакцию
	trx, err := trm.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabase, "cannot begin transaction")
	}

	// Откатываем транзакцию, если f запаниковала
	defer func() {
		if r := recover(); r != nil {
			_ = trx.Rollback()
			panic(r)
		}
	}()

	// Добавляем транзакцию в контекст и выполняем пользовательскую функцию
	res, err = f(context.WithValue(ctx, trxKey, trx))
	if err != nil {
		// При ошибке пытаемся откатить транзакцию
		if rbErr := trx.Rollback(); rbErr != nil {
			// Если откат не удался, сохраняем исходную ошибку в цепочке
			return nil, errors.Wrapf(err, errors.CodeDatabase, "cannot rollback transaction: %v", rbErr)
		}
		return nil, err
	}

	// Если все успешно, коммитим транзакцию
	if err := trx.Commit(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabase, "cannot commit transaction")
	}

	return res, nil
}

// TxFromContext - извлекает транзакцию из контекста
// Возвращает ошибку если транзакция не найдена или имеет неверный тип
func TxFromContext(ctx context.Context) (*sql.Tx, error) {
	// Получаем значение из контекста по ключу
	t := ctx.Value(trxKey)
	if t == nil {
		return nil, ErrNoTransaction
	}

	// Пытаемся привести значение к типу *sql.Tx
	tx, ok := t.(*sql.Tx)
	if !ok {
		return nil, ErrInvalidTransaction
	}

	return tx, nil
}
