// Package probe 绑定到本地源地址的测速探针。任何失败都折算为 (-1, -1, -1)，从不向调用方返回错误。
package probe

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ispeed-collector/pkg/logger"
	"github.com/ispeed-collector/pkg/models"
	"github.com/ispeed-collector/pkg/util"
)

// ErrUnparseable 测速工具输出格式无法识别
var ErrUnparseable = errors.New("unparseable speedtest output")

// Prober 探针接口
type Prober interface {
	Measure(ctx context.Context, sourceAddr string) models.Result
}

var (
	pingLineRe     = regexp.MustCompile(`^Hosted by .*\]: ([0-9]+(?:\.[0-9]+)?) ms$`)
	downloadLineRe = regexp.MustCompile(`^Download: ([0-9]+(?:\.[0-9]+)?) Mbit/s$`)
	uploadLineRe   = regexp.MustCompile(`^Upload: ([0-9]+(?:\.[0-9]+)?) Mbit/s$`)
)

// SpeedtestProber 调用 speedtest-cli --source <addr>
type SpeedtestProber struct {
	runner  util.Runner
	command string
	args    []string
	timeout time.Duration
}

// NewSpeedtestProber 创建探针，timeout 覆盖整个外部进程
func NewSpeedtestProber(runner util.Runner, command string, args []string, timeout time.Duration) *SpeedtestProber {
	return &SpeedtestProber{
		runner:  runner,
		command: command,
		args:    args,
		timeout: timeout,
	}
}

// Measure 执行一次测速；超时、非零退出、输出异常都返回哨兵三元组
func (p *SpeedtestProber) Measure(ctx context.Context, sourceAddr string) models.Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append([]string{"--source", sourceAddr}, p.args...)
	out, err := p.runner.Run(ctx, p.command, args...)
	if err != nil {
		logger.Warn("speedtest failed",
			zap.String("source", sourceAddr),
			zap.Duration("timeout", p.timeout),
			zap.Error(err))
		return models.FailedResult()
	}

	res, err := ParseSpeedtestOutput(out)
	if err != nil {
		logger.Warn("speedtest output rejected", zap.String("source", sourceAddr), zap.Error(err))
		return models.FailedResult()
	}
	return res
}

// ParseSpeedtestOutput 解析 speedtest-cli 的文本输出（Hosted by / Download / Upload 三行）
func ParseSpeedtestOutput(out string) (models.Result, error) {
	var (
		res                        models.Result
		havePing, haveDown, haveUp bool
	)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		var err error
		switch {
		case pingLineRe.MatchString(line):
			res.LatencyMs, err = parseField(pingLineRe, line)
			havePing = true
		case downloadLineRe.MatchString(line):
			res.DownloadMbps, err = parseField(downloadLineRe, line)
			haveDown = true
		case uploadLineRe.MatchString(line):
			res.UploadMbps, err = parseField(uploadLineRe, line)
			haveUp = true
		}
		if err != nil {
			return models.Result{}, err
		}
	}
	if !havePing || !haveDown || !haveUp {
		return models.Result{}, fmt.Errorf("%w: ping=%t download=%t upload=%t", ErrUnparseable, havePing, haveDown, haveUp)
	}
	return res, nil
}

func parseField(re *regexp.Regexp, line string) (float64, error) {
	m := re.FindStringSubmatch(line)
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnparseable, line, err)
	}
	return v, nil
}
