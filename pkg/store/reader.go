package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ispeed-collector/pkg/models"
)

// Reader 只读访问（operator 侧查看已同步的 Run）
type Reader struct {
	db    *sql.DB
	table string
}

// OpenReader 以只读模式打开已有数据库
func OpenReader(ctx context.Context, path, table string) (*Reader, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	return &Reader{db: db, table: table}, nil
}

// All 按写入顺序返回全部记录
func (r *Reader) All(ctx context.Context) ([]models.Measurement, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT datetimestamp, interface, download_mbitps, upload_mbitps, ping_ms FROM %s ORDER BY rowid", r.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	var out []models.Measurement
	for rows.Next() {
		var m models.Measurement
		if err := rows.Scan(&m.Timestamp, &m.Interface, &m.DownloadMbps, &m.UploadMbps, &m.LatencyMs); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count 记录条数
func (r *Reader) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.table, err)
	}
	return n, nil
}

// Last 最后写入的一条，空表返回 ok=false
func (r *Reader) Last(ctx context.Context) (m models.Measurement, ok bool, err error) {
	err = r.db.QueryRowContext(ctx, fmt.Sprintf(
		"SELECT datetimestamp, interface, download_mbitps, upload_mbitps, ping_ms FROM %s ORDER BY rowid DESC LIMIT 1", r.table)).
		Scan(&m.Timestamp, &m.Interface, &m.DownloadMbps, &m.UploadMbps, &m.LatencyMs)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Measurement{}, false, nil
	}
	if err != nil {
		return models.Measurement{}, false, fmt.Errorf("last %s: %w", r.table, err)
	}
	return m, true, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}
