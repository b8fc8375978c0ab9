package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(`CREATE TABLE test_table (id INTEGER PRIMARY KEY, value TEXT)`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	return conn
}

func countRows(t *testing.T, conn *sql.DB) int {
	t.Helper()

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM test_table").Scan(&count); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	return count
}

func TestRunInTransaction_Commit(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	err := RunInTransaction(ctx, conn, func(txCtx context.Context) error {
		if _, ok := GetTx(txCtx); !ok {
			t.Error("Expected transaction in context")
		}

		_, err := GetExecutor(txCtx, conn).ExecContext(txCtx, "INSERT INTO test_table (value) VALUES (?)", "test")
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction failed: %v", err)
	}

	if got := countRows(t, conn); got != 1 {
		t.Errorf("Expected 1 row, got %d", got)
	}
}

func TestRunInTransaction_Rollback(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := RunInTransaction(ctx, conn, func(txCtx context.Context) error {
		_, err := GetExecutor(txCtx, conn).ExecContext(txCtx, "INSERT INTO test_table (value) VALUES (?)", "test")
		if err != nil {
			return err
		}
		return errBoom
	})

	if !errors.Is(err, errBoom) {
		t.Fatalf("Expected errBoom, got %v", err)
	}
	if got := countRows(t, conn); got != 0 {
		t.Errorf("Expected 0 rows (rollback), got %d", got)
	}
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic to propagate")
			}
		}()

		_ = RunInTransaction(ctx, conn, func(txCtx context.Context) error {
			_, err := GetExecutor(txCtx, conn).ExecContext(txCtx, "INSERT INTO test_table (value) VALUES (?)", "test")
			if err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if got := countRows(t, conn); got != 0 {
		t.Errorf("Expected 0 rows after panic, got %d", got)
	}
}

func TestRunInTransaction_NestedReusesOuter(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	err := RunInTransaction(ctx, conn, func(outerCtx context.Context) error {
		if _, err := GetExecutor(outerCtx, conn).ExecContext(outerCtx, "INSERT INTO test_table (value) VALUES (?)", "outer"); err != nil {
			return err
		}

		return RunInTransaction(outerCtx, conn, func(innerCtx context.Context) error {
			outerTx, _ := GetTx(outerCtx)
			innerTx, _ := GetTx(innerCtx)
			if outerTx != innerTx {
				t.Error("Expected nested transaction to reuse outer transaction")
			}

			_, err := GetExecutor(innerCtx, conn).ExecContext(innerCtx, "INSERT INTO test_table (value) VALUES (?)", "inner")
			return err
		})
	})
	if err != nil {
		t.Fatalf("RunInTransaction failed: %v", err)
	}

	if got := countRows(t, conn); got != 2 {
		t.Errorf("Expected 2 rows, got %d", got)
	}
}

func TestRunInTransaction_NestedRollback(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	err := RunInTransaction(ctx, conn, func(outerCtx context.Context) error {
		if _, err := GetExecutor(outerCtx, conn).ExecContext(outerCtx, "INSERT INTO test_table (value) VALUES (?)", "outer"); err != nil {
			return err
		}

		return RunInTransaction(outerCtx, conn, func(innerCtx context.Context) error {
			if _, err := GetExecutor(innerCtx, conn).ExecContext(innerCtx, "INSERT INTO test_table (value) VALUES (?)", "inner"); err != nil {
				return err
			}
			return sql.ErrTxDone
		})
	})
	if err == nil {
		t.Fatal("Expected error from RunInTransaction")
	}

	if got := countRows(t, conn); got != 0 {
		t.Errorf("Expected 0 rows (complete rollback), got %d", got)
	}
}

func TestGetExecutor(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	if GetExecutor(ctx, conn) != Executor(conn) {
		t.Error("Expected executor to be the database")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if GetExecutor(WithTx(ctx, tx), conn) != Executor(tx) {
		t.Error("Expected executor to be the transaction")
	}
}
