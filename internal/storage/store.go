// Package storage provides the durable local queue of expenses created while
// offline. Rows live in the pending_expenses table until the sync engine has
// confirmed remote acceptance; deletion is the sync-completion signal, so a
// synced row never persists.
package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gastos/internal/core"

	_ "modernc.org/sqlite"
)

// StoreError wraps any failure of the underlying store. Losing a queued
// expense is a data-loss event, so callers must always see these.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "pending store " + e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// PendingStore is a SQLite-backed queue of not-yet-synced expenses, keyed by
// a store-assigned local id and indexed by item id.
type PendingStore struct {
	db *sql.DB
}

// NewPendingStore opens (or creates) the store at dbPath and runs schema
// migrations. The path's directory is created if missing.
func NewPendingStore(dbPath string) (*PendingStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, &StoreError{Op: "create db directory", Err: err}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "ping", Err: err}
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, &StoreError{Op: "migrate", Err: err}
	}

	return &PendingStore{db: db}, nil
}

func (s *PendingStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SavePending queues an expense for the given item and returns the assigned
// local id. CreatedAt is stamped here; the caller supplies canonical fields
// only.
func (s *PendingStore) SavePending(ctx context.Context, itemID string, e core.NewExpense) (int64, error) {
	e = e.Normalized()
	createdAt := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_expenses
			(item_id, amount_cents, description, payment_method, currency,
			 expense_date, paid_by, split_type, assigned_to, selected_participants,
			 created_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		itemID, e.Amount.Cents, e.Description, string(e.PaymentMethod), string(e.Currency),
		e.Date.Format(time.RFC3339Nano), e.PaidBy, string(e.SplitType), e.AssignedTo,
		strings.Join(e.SelectedParticipants, ","),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, &StoreError{Op: "save", Err: err}
	}

	localID, err := res.LastInsertId()
	if err != nil {
		return 0, &StoreError{Op: "save", Err: err}
	}

	slog.InfoContext(ctx, "Expense queued locally",
		"local_id", localID,
		"item_id", itemID,
		"amount_cents", e.Amount.Cents,
		"currency", e.Currency)

	return localID, nil
}

// ListAll returns every queued expense, oldest first.
func (s *PendingStore) ListAll(ctx context.Context) ([]core.PendingExpense, error) {
	rows, err := s.db.QueryContext(ctx, selectPending+` ORDER BY local_id`)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	defer rows.Close()
	return scanPending(rows, "list")
}

// ListByItem returns the queued expenses for one item via the item_id index.
func (s *PendingStore) ListByItem(ctx context.Context, itemID string) ([]core.PendingExpense, error) {
	rows, err := s.db.QueryContext(ctx, selectPending+` WHERE item_id = ? ORDER BY local_id`, itemID)
	if err != nil {
		return nil, &StoreError{Op: "list by item", Err: err}
	}
	defer rows.Close()
	return scanPending(rows, "list by item")
}

// Remove deletes a queued expense. Removing an id that is no longer present
// is not an error.
func (s *PendingStore) Remove(ctx context.Context, localID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_expenses WHERE local_id = ?`, localID); err != nil {
		return &StoreError{Op: "remove", Err: err}
	}
	return nil
}

// Clear drops every queued expense. Maintenance only, never part of the
// normal sync flow.
func (s *PendingStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_expenses`); err != nil {
		return &StoreError{Op: "clear", Err: err}
	}
	slog.WarnContext(ctx, "Pending expense queue cleared")
	return nil
}

// Count returns the number of queued expenses.
func (s *PendingStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_expenses`).Scan(&n); err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}

const selectPending = `
	SELECT local_id, item_id, amount_cents, description, payment_method, currency,
	       expense_date, paid_by, split_type, assigned_to, selected_participants, created_at
	FROM pending_expenses`

func scanPending(rows *sql.Rows, op string) ([]core.PendingExpense, error) {
	var out []core.PendingExpense
	for rows.Next() {
		var (
			p                  core.PendingExpense
			payment, currency  string
			splitType          string
			dateRaw, createdAt string
			selected           string
		)
		if err := rows.Scan(&p.LocalID, &p.ItemID, &p.Amount.Cents, &p.Description,
			&payment, &currency, &dateRaw, &p.PaidBy, &splitType, &p.AssignedTo,
			&selected, &createdAt); err != nil {
			return nil, &StoreError{Op: op, Err: err}
		}
		p.PaymentMethod = core.PaymentMethod(payment)
		p.Currency = core.Currency(currency)
		p.SplitType = core.SplitType(splitType)
		if selected != "" {
			// Comma-joined at the storage boundary only.
			p.SelectedParticipants = strings.Split(selected, ",")
		}
		if t, err := time.Parse(time.RFC3339Nano, dateRaw); err == nil {
			p.Date = t
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			p.CreatedAt = t
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	return out, nil
}
