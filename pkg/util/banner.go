package util

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// 定义颜色常量
const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[1;31m"
	ColorGreen  = "\x1b[1;32m"
	ColorYellow = "\x1b[1;33m"
	ColorBlue   = "\x1b[1;34m"
	ColorCyan   = "\x1b[1;36m"
)

// PrintBanner 以统一颜色打印 ASCII banner，color 为上面的颜色常量
func PrintBanner(w io.Writer, text, color string) {
	fig := figure.NewFigure(text, "", true)
	for _, line := range fig.Slicify() {
		if line == "" {
			continue
		}
		_, _ = fmt.Fprintln(w, color+line+ColorReset)
	}
}
