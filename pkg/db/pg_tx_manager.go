package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	DSN string
	// 0: значение pgxpool по умолчанию
	MaxConns int32
}

// Pool: то, что нужно менеджеру от пула. *pgxpool.Pool и pgxmock подходят оба.
type Pool interface {
	Transaction
	TxBeginner
	Ping(ctx context.Context) error
	Close()
}

type PgTxManager struct {
	pool Pool
}

func NewPgTxManager(pool Pool) *PgTxManager {
	return &PgTxManager{pool: pool}
}

func NewPool(ctx context.Context, conf PoolConfig) (*pgxpool.Pool, error) {
	pgCfg, err := pgxpool.ParseConfig(conf.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if conf.MaxConns > 0 {
		pgCfg.MaxConns = conf.MaxConns
	}
	return pgxpool.NewWithConfig(ctx, pgCfg)
}

func (m *PgTxManager) Close() { m.pool.Close() }

// RunMaster выполняет fn в одной транзакции ReadCommitted.
func (m *PgTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx Transaction) error) error {
	return inTx(ctx, m.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (m *PgTxManager) Conn() Transaction { return m.pool }

func (m *PgTxManager) Ping(ctx context.Context) error { return m.pool.Ping(ctx) }

func inTx(
	ctx context.Context,
	pool TxBeginner,
	options pgx.TxOptions,
	f func(ctxTx context.Context, tx Transaction) error,
) (err error) {
	tx, err := pool.BeginTx(ctx, options)
	if err != nil {
		return fmt.Errorf("failed to begin tx, err: %w", err)
	}

	defer func() {
		switch p := recover(); {
		case p != nil:
			_ = tx.Rollback(ctx)
			panic(p)
		case err != nil:
			_ = tx.Rollback(ctx)
		default:
			if cErr := tx.Commit(ctx); cErr != nil {
				err = fmt.Errorf("failed to commit tx, err: %w", cErr)
			}
		}
	}()

	if err = f(ctx, tx); err != nil {
		return fmt.Errorf("failed to run fn, err: %w", err)
	}
	return nil
}
