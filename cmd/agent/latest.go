package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/models"
	"github.com/ispeed-collector/pkg/store"
)

// printLatest 输出操作端本地数据目录（copy/finish 的落点）中最新 Run 的文件名、行数和最后一条测量（只读打开）
func printLatest(ctx context.Context, cfg *config.Config, w io.Writer) error {
	dir := cfg.Remote.LocalDataPath
	path, err := store.LatestRun(dir, cfg.Acquisition.StoreSuffix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_, _ = fmt.Fprintf(w, "no runs in %s\n", dir)
			return nil
		}
		return err
	}

	r, err := store.OpenReader(ctx, path, cfg.Acquisition.Table)
	if err != nil {
		return err
	}
	defer r.Close()

	n, err := r.Count(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "run: %s\nmeasurements: %d\n", path, n)

	last, ok, err := r.Last(ctx)
	if err != nil {
		return err
	}
	if ok {
		_, _ = fmt.Fprintf(w, "last: %s %s download=%v upload=%v ping=%v\n",
			last.Interface, models.FormatTimestamp(last.Timestamp), last.DownloadMbps, last.UploadMbps, last.LatencyMs)
	}
	return nil
}
