package db

import (
	"context"
	"database/sql"
)

// Database owns the connection pool of one backing store.
type Database interface {
	Connect() error
	Close() error
	Ping(ctx context.Context) error
	DB() *sql.DB
}
