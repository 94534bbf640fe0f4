package models

import (
	"fmt"
	"strconv"
	"time"
)

// Sentinel 测量失败时三个数值字段统一写入的值
const Sentinel = -1.0

// TimestampLayout 整型时间戳格式 YYYYMMDDhhmmss（本地时间，秒级）
const TimestampLayout = "20060102150405"

// Measurement 一次测量（写入后不可变）
type Measurement struct {
	Timestamp    int64   // YYYYMMDDhhmmss
	Interface    string  // 接口标签，如 WLAN / Ethernet
	DownloadMbps float64 // 下载速率 Mbit/s
	UploadMbps   float64 // 上传速率 Mbit/s
	LatencyMs    float64 // 往返时延 ms
}

// Result 探针返回的三元组
type Result struct {
	DownloadMbps float64
	UploadMbps   float64
	LatencyMs    float64
}

// FailedResult 失败哨兵三元组 (-1, -1, -1)
func FailedResult() Result {
	return Result{DownloadMbps: Sentinel, UploadMbps: Sentinel, LatencyMs: Sentinel}
}

// Failed 三个字段均为哨兵值
func (r Result) Failed() bool {
	return r.DownloadMbps == Sentinel && r.UploadMbps == Sentinel && r.LatencyMs == Sentinel
}

// NewMeasurement 以 t 的本地时间生成时间戳
func NewMeasurement(t time.Time, iface string, r Result) Measurement {
	return Measurement{
		Timestamp:    EncodeTimestamp(t),
		Interface:    iface,
		DownloadMbps: r.DownloadMbps,
		UploadMbps:   r.UploadMbps,
		LatencyMs:    r.LatencyMs,
	}
}

// EncodeTimestamp 20190714174005 形式
func EncodeTimestamp(t time.Time) int64 {
	v, _ := strconv.ParseInt(t.Local().Format(TimestampLayout), 10, 64)
	return v
}

// DecodeTimestamp 反解整型时间戳（本地时区）
func DecodeTimestamp(ts int64) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, strconv.FormatInt(ts, 10), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %d: %w", ts, err)
	}
	return t, nil
}

// FormatTimestamp 展示格式 20190714_174005
func FormatTimestamp(ts int64) string {
	s := strconv.FormatInt(ts, 10)
	if len(s) != len(TimestampLayout) {
		return s
	}
	return s[:8] + "_" + s[8:]
}
