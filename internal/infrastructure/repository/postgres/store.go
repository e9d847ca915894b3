package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/usecase"
)

// execer is satisfied by both *sqlx.DB and *sqlx.Tx so the repositories
// run unchanged inside and outside a transaction.
type execer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Store is the database-backed transactional store.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Players() player.Repository { return NewPlayerRepository(s.db) }
func (s *Store) Claims() claim.Repository   { return NewClaimRepository(s.db) }
func (s *Store) Teams() team.Repository     { return NewTeamRepository(s.db) }

func (s *Store) InTx(ctx context.Context, fn func(usecase.Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return storeErr("rollback transaction", errors.Join(err, rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit transaction", err)
	}

	return nil
}

// txStore is the in-transaction view handed to InTx callbacks.
type txStore struct {
	tx *sqlx.Tx
}

func (s *txStore) Players() player.Repository { return NewPlayerRepository(s.tx) }
func (s *txStore) Claims() claim.Repository   { return NewClaimRepository(s.tx) }
func (s *txStore) Teams() team.Repository     { return NewTeamRepository(s.tx) }

// InTx on an already-open transaction joins it instead of nesting.
func (s *txStore) InTx(ctx context.Context, fn func(usecase.Store) error) error {
	return fn(s)
}
