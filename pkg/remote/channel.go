// Package remote 运行在操作端，通过 SSH 启停采集节点上的采集循环，并把其数据目录整体拷回本地。
//
// 所有操作发出即返回：远端命令在发出前记录日志，传输失败不重试。
package remote

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/logger"
	"github.com/ispeed-collector/pkg/util"
)

// Channel 远程执行通道
type Channel interface {
	// Run 在远端执行一条 shell 命令，返回合并输出
	Run(ctx context.Context, command string) (string, error)
	// Fetch 递归拷贝远端目录下的全部内容到本地目录，已存在的同名文件被覆盖
	Fetch(ctx context.Context, remoteDir, localDir string) error
	// Push 把本地文件写到远端路径，覆盖旧版本
	Push(ctx context.Context, localFile, remotePath string) error
	Close() error
}

// Dial 按 transport 创建通道
func Dial(ctx context.Context, cfg config.RemoteConfig) (Channel, error) {
	switch cfg.Transport {
	case "openssh":
		return NewOpenSSHChannel(cfg, util.ExecRunner{}), nil
	case "native", "":
		return DialSSH(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown remote transport %q", cfg.Transport)
	}
}

// logCommand 发出前记录实际命令
func logCommand(transport, command string) {
	logger.Info("remote command", zap.String("transport", transport), zap.String("cmd", command))
}

// shellQuote 单引号包裹，路径中的空格等不会被远端 shell 拆开
func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>*?()[]{}!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
