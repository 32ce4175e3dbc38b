package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"diarias/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the snapshot in normalized tables. Save replaces
// the whole contents in one transaction.
type SQLiteRepository struct {
	db *sql.DB
}

var _ SnapshotStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Load(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	err := r.db.QueryRowContext(ctx,
		`SELECT credit_balance, daily_rate, last_update, revision FROM ledger_meta WHERE id = 1`,
	).Scan(&snap.CreditBalance, &snap.DailyRate, &snap.LastUpdate, &snap.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read ledger meta: %w", err)
	}

	snap.WorkingDays = make(map[string]core.SnapshotDay)
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, status, notes, project, added_at FROM working_days ORDER BY date`)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("query working days: %w", err)
	}
	for rows.Next() {
		var date string
		var day core.SnapshotDay
		if err := rows.Scan(&date, &day.Status, &day.Notes, &day.Project, &day.AddedAt); err != nil {
			rows.Close()
			return core.Snapshot{}, fmt.Errorf("scan working day: %w", err)
		}
		snap.WorkingDays[date] = day
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return core.Snapshot{}, fmt.Errorf("iterate working days: %w", err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, date, amount, description, balance_after FROM deposits ORDER BY seq`)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("query deposits: %w", err)
	}
	defer rows.Close()
	snap.Deposits = []core.SnapshotDeposit{}
	for rows.Next() {
		var d core.SnapshotDeposit
		if err := rows.Scan(&d.ID, &d.Date, &d.Amount, &d.Description, &d.BalanceAfter); err != nil {
			return core.Snapshot{}, fmt.Errorf("scan deposit: %w", err)
		}
		snap.Deposits = append(snap.Deposits, d)
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, fmt.Errorf("iterate deposits: %w", err)
	}
	return snap, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s core.Snapshot) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{`DELETE FROM working_days`, `DELETE FROM deposits`} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	for date, day := range s.WorkingDays {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO working_days (date, status, notes, project, added_at) VALUES (?, ?, ?, ?, ?)`,
			date, day.Status, day.Notes, day.Project, day.AddedAt,
		); err != nil {
			return fmt.Errorf("insert working day %s: %w", date, err)
		}
	}

	for _, d := range s.Deposits {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO deposits (id, date, amount, description, balance_after) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.Date, d.Amount.String(), d.Description, d.BalanceAfter.String(),
		); err != nil {
			return fmt.Errorf("insert deposit %s: %w", d.ID, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_meta (id, credit_balance, daily_rate, last_update, revision) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			credit_balance = excluded.credit_balance,
			daily_rate = excluded.daily_rate,
			last_update = excluded.last_update,
			revision = excluded.revision`,
		s.CreditBalance.String(), s.DailyRate.String(), s.LastUpdate, int64(s.Revision),
	); err != nil {
		return fmt.Errorf("upsert ledger meta: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"working_days", len(s.WorkingDays),
		"deposits", len(s.Deposits))
	return nil
}
