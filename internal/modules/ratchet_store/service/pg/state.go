package pg

import (
	"context"
	"errors"
	"fmt"

	"stoploss_tracker/internal/modules/ratchet_store/service/pg/sql"
	"stoploss_tracker/pkg/db"

	"github.com/jackc/pgx/v5"
)

// State хранит коллекцию одной строкой таблицы ratchet_state.
type State struct {
	tm  db.TxManager
	sql *sql.Queries
	key string
}

func NewState(tm db.TxManager, key string) *State {
	return &State{
		tm:  tm,
		sql: sql.New(),
		key: key,
	}
}

func (s *State) Name() string { return "postgres" }

// Ping проверяет соединение и заодно создаёт таблицу, если её нет.
func (s *State) Ping(ctx context.Context) error {
	if err := s.tm.Ping(ctx); err != nil {
		return fmt.Errorf("pg.Ping: %w", err)
	}
	if err := s.sql.EnsureSchema(ctx, s.tm.Conn()); err != nil {
		return fmt.Errorf("pg.Ping: schema: %w", err)
	}
	return nil
}

func (s *State) Read(ctx context.Context) ([]byte, error) {
	value, err := s.sql.GetState(ctx, s.tm.Conn(), s.key)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pg.Read: %w", err)
	}
	return value, nil
}

// Write перезаписывает строку целиком в транзакции.
func (s *State) Write(ctx context.Context, data []byte) error {
	err := s.tm.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		return s.sql.UpsertState(ctxTx, tx, &sql.UpsertStateParams{
			Key:   s.key,
			Value: data,
		})
	})
	if err != nil {
		return fmt.Errorf("pg.Write: %w", err)
	}
	return nil
}
