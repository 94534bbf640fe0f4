// Package store 测量数据的 SQLite 持久化：每个 Run 一个数据库文件、一张表，只追加不修改。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/ispeed-collector/pkg/models"
)

// ErrRunExists 新 Run 的数据库文件已存在
var ErrRunExists = errors.New("run store already exists")

// Appender 采集循环唯一需要的写接口（没有 update/delete）
type Appender interface {
	Append(ctx context.Context, m models.Measurement) error
	Close() error
}

// Compile-time interface guard.
var _ Appender = (*SQLiteStore)(nil)

// SQLiteStore 单写者的追加式测量存储
type SQLiteStore struct {
	db    *sql.DB
	path  string
	table string
	stmt  *sql.Stmt
}

// Open 打开（不存在则创建）数据库并建表，可重复调用
func Open(ctx context.Context, path, table string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	// 文件会被远端整目录拷贝，不能用 WAL（未 checkpoint 的数据只在 -wal 文件里）
	pragmas := []string{
		"PRAGMA journal_mode=DELETE",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, createTableSQL(table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	stmt, err := db.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (datetimestamp, interface, download_mbitps, upload_mbitps, ping_ms) VALUES (?, ?, ?, ?, ?)",
		table))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &SQLiteStore{db: db, path: path, table: table, stmt: stmt}, nil
}

// Create 为新 Run 创建数据库，文件已存在时返回 ErrRunExists
func Create(ctx context.Context, path, table string) (*SQLiteStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrRunExists)
		}
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", path, err)
	}
	return Open(ctx, path, table)
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		datetimestamp   INTEGER NOT NULL,
		interface       TEXT    NOT NULL,
		download_mbitps REAL    NOT NULL,
		upload_mbitps   REAL    NOT NULL,
		ping_ms         REAL    NOT NULL
	)`, table)
}

// Append 写入一条记录；autocommit，返回即已落盘
func (s *SQLiteStore) Append(ctx context.Context, m models.Measurement) error {
	if _, err := s.stmt.ExecContext(ctx, m.Timestamp, m.Interface, m.DownloadMbps, m.UploadMbps, m.LatencyMs); err != nil {
		return fmt.Errorf("append measurement to %s: %w", s.path, err)
	}
	return nil
}

// Path 数据库文件路径
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if err := s.stmt.Close(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
