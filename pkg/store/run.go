package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunNameLayout Run 名称的时间部分，如 20190714_174005
const RunNameLayout = "20060102_150405"

// RunName 以 Run 开始时间命名数据库文件
func RunName(start time.Time, suffix string) string {
	return start.Local().Format(RunNameLayout) + suffix
}

// ParseRunName 从文件名解析 Run 开始时间
func ParseRunName(name, suffix string) (time.Time, error) {
	if !strings.HasSuffix(name, suffix) {
		return time.Time{}, fmt.Errorf("%q has no suffix %q", name, suffix)
	}
	t, err := time.ParseInLocation(RunNameLayout, strings.TrimSuffix(name, suffix), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run name %q: %w", name, err)
	}
	return t, nil
}

// LatestRun 目录下开始时间最新的 Run 文件，没有时返回 os.ErrNotExist
func LatestRun(dir, suffix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir %s: %w", dir, err)
	}

	var (
		latest   string
		latestAt time.Time
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		at, err := ParseRunName(e.Name(), suffix)
		if err != nil {
			continue
		}
		if latest == "" || at.After(latestAt) {
			latest, latestAt = e.Name(), at
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no run in %s: %w", dir, os.ErrNotExist)
	}
	return filepath.Join(dir, latest), nil
}
