package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Tx exposes the repositories bound to a single unit of work.
// Every read and write made through it commits or rolls back together.
type Tx interface {
	Ingredients() IngredientRepository
	Movements() InventoryMovementRepository
	Menu() MenuRepository
	Orders() OrderRepository
	Tables() TableRepository
	Alerts() AlertRepository
}

// Store runs work atomically (RunAtomic) or against the pool without a transaction (View).
type Store interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type boundRepos struct {
	exec SQLExecutor
}

func (b boundRepos) Ingredients() IngredientRepository { return NewIngredientRepository(b.exec) }
func (b boundRepos) Movements() InventoryMovementRepository {
	return NewInventoryMovementRepository(b.exec)
}
func (b boundRepos) Menu() MenuRepository    { return NewMenuRepository(b.exec) }
func (b boundRepos) Orders() OrderRepository { return NewOrderRepository(b.exec) }
func (b boundRepos) Tables() TableRepository { return NewTableRepository(b.exec) }
func (b boundRepos) Alerts() AlertRepository { return NewAlertRepository(b.exec) }

type txKey struct{}

// WithTx attaches an open unit of work to the context so nested RunAtomic calls join it.
func WithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the unit of work carried by ctx, if any.
func TxFromContext(ctx context.Context) (Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(Tx)
	return tx, ok
}

// UnitOfWork is the Postgres Store. Row locks taken inside RunAtomic are
// bounded by lockTimeout; exceeding it surfaces as ErrLockTimeout.
type UnitOfWork struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewUnitOfWork creates a new Postgres-backed Store.
func NewUnitOfWork(db *sql.DB, lockTimeout time.Duration) *UnitOfWork {
	return &UnitOfWork{db: db, lockTimeout: lockTimeout}
}

// RunAtomic executes fn inside a transaction. A nested call joins the
// caller's transaction instead of opening a new one.
func (u *UnitOfWork) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	if outer, ok := TxFromContext(ctx); ok {
		return fn(ctx, outer)
	}

	sqlTx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError("starting transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if u.lockTimeout > 0 {
		// SET LOCAL does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
		if _, err = sqlTx.ExecContext(ctx, stmt); err != nil {
			return translateError("setting lock timeout", err)
		}
	}

	tx := boundRepos{exec: sqlTx}
	if err = fn(WithTx(ctx, tx), tx); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return translateError("committing transaction", err)
	}
	return nil
}

// View runs fn with repositories bound to the pool. Reads see committed data only.
func (u *UnitOfWork) View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if outer, ok := TxFromContext(ctx); ok {
		return fn(ctx, outer)
	}
	return fn(ctx, boundRepos{exec: u.db})
}
