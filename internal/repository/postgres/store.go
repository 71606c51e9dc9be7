package postgres

import (
	"context"
	"database/sql"
	"errors"

	"fleet/internal/repository"
)

// Store is the PostgreSQL implementation of repository.Store.
//
// A Store built over *sql.DB hands Transact callbacks a second Store scoped
// to the transaction, so every repository read/write inside the callback
// shares one atomic unit.
type Store struct {
	db *sql.DB
	q  Querier
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Vehicles() repository.VehicleRepository {
	return &VehicleRepository{q: s.q}
}

func (s *Store) Bookings() repository.BookingRepository {
	return &BookingRepository{q: s.q}
}

func (s *Store) Usages() repository.UsageRepository {
	return &UsageRepository{q: s.q}
}

func (s *Store) Maintenance() repository.MaintenanceRepository {
	return &MaintenanceRepository{q: s.q}
}

func (s *Store) Expenses() repository.ExpenseRepository {
	return &ExpenseRepository{q: s.q}
}

func (s *Store) Users() repository.UserRepository {
	return &UserRepository{q: s.q}
}

func (s *Store) Preferences() repository.PreferencesRepository {
	return &PreferencesRepository{q: s.q}
}

// Transact runs fn inside a database transaction.
func (s *Store) Transact(ctx context.Context, fn func(repository.Store) error) (err error) {
	if _, ok := s.q.(*sql.Tx); ok {
		return errors.New("postgres: nested transaction")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txStore := &Store{db: s.db, q: tx}
	if err = fn(txStore); err != nil {
		return err
	}

	return tx.Commit()
}
