// Package goid 从 runtime.Stack 读取当前 goroutine 编号，仅用于日志字段。
package goid

import (
	"runtime"
	"strconv"
)

// Get 当前 goroutine 的 ID，解析失败返回 0
func Get() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 123 [running]:\n"
	b := buf[:n]
	const prefix = len("goroutine ")
	var id uint64
	for i := prefix; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}

// String 日志字段用
func String() string {
	return strconv.FormatUint(Get(), 10)
}
