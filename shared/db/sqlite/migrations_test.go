package sqlite

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func connectTemp(t *testing.T, path string) *SQLiteDB {
	t.Helper()

	database := NewSQLiteDB(&SQLiteConfig{Path: path})
	if err := database.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return database
}

func TestRunMigrations(t *testing.T) {
	database := connectTemp(t, filepath.Join(t.TempDir(), "test.db"))
	defer database.Close()

	db := database.DB()

	for _, table := range []string{"schema_migrations", "authors", "posts", "sessions"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check %s table: %v", table, err)
		}
		if count != 1 {
			t.Errorf("%s table not created", table)
		}
	}

	for _, index := range []string{"idx_posts_slug", "idx_posts_author_id", "idx_posts_published_at", "idx_sessions_expires_at"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check index %s: %v", index, err)
		}
		if count != 1 {
			t.Errorf("%s index not created", index)
		}
	}

	var name string
	err := db.QueryRow("SELECT name FROM schema_migrations WHERE version = 2").Scan(&name)
	if err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if name != "create_posts_table" {
		t.Errorf("name = %q, want %q", name, "create_posts_table")
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database := connectTemp(t, path)
	database.Close()

	database = connectTemp(t, path)
	defer database.Close()

	var count int
	err := database.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("recorded %d migrations, want %d", count, len(migrations))
	}
}

func insertAuthor(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()

	res, err := db.Exec(
		"INSERT INTO authors (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, []byte("x"), time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("Failed to insert author: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get author id: %v", err)
	}
	return id
}

func TestPostsTableConstraints(t *testing.T) {
	database := connectTemp(t, filepath.Join(t.TempDir(), "test.db"))
	defer database.Close()

	db := database.DB()
	authorID := insertAuthor(t, db, "root")
	now := time.Now().UTC()

	const insertPost = `
		INSERT INTO posts (author_id, title, slug, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := db.Exec(insertPost, authorID, "Test Post", "test-post", "Body", now, now); err != nil {
		t.Fatalf("Failed to insert post: %v", err)
	}

	var publishedAt sql.NullTime
	if err := db.QueryRow("SELECT published_at FROM posts WHERE slug = ?", "test-post").Scan(&publishedAt); err != nil {
		t.Fatalf("Failed to query post: %v", err)
	}
	if publishedAt.Valid {
		t.Error("published_at should be NULL for a new post")
	}

	_, err := db.Exec(insertPost, authorID, "Other", "test-post", "Body", now, now)
	if err == nil || !strings.Contains(err.Error(), "UNIQUE") {
		t.Errorf("duplicate slug error = %v, want UNIQUE constraint failure", err)
	}

	_, err = db.Exec(insertPost, authorID+100, "Orphan", "orphan", "Body", now, now)
	if err == nil || !strings.Contains(err.Error(), "FOREIGN KEY") {
		t.Errorf("unknown author error = %v, want FOREIGN KEY constraint failure", err)
	}

	_, err = db.Exec("DELETE FROM authors WHERE id = ?", authorID)
	if err == nil || !strings.Contains(err.Error(), "FOREIGN KEY") {
		t.Errorf("delete author with posts error = %v, want FOREIGN KEY constraint failure", err)
	}
}
